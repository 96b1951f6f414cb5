package echoapi

import (
	"io"
	"mime/multipart"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/topsell/tams/core"
	"github.com/topsell/tams/core/asset"
)

var photoFields = []string{"photos[]", "photos"}

type assetApi struct {
	svc      asset.Service
	validate *validator.Validate
}

func registerAssetAPI(g *echo.Group, svc asset.Service, validate *validator.Validate) {
	api := assetApi{svc: svc, validate: validate}

	ag := g.Group("/assets")
	ag.GET("", api.query)
	ag.GET("/lookup/:code", api.lookup)
	ag.GET("/:id", api.retrieve)
	ag.GET("/:id/maintenance", api.history)
	ag.POST("/:id/maintenance", api.recordMaintenance, middleware.BodyLimit("64M"))
}

func (api *assetApi) query(ctx echo.Context) error {
	var ord Ordering
	ord.Bind(ctx)
	assets, err := api.svc.Query(ctx.Request().Context(), ord.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying assets")
	}
	return ctx.JSON(http.StatusOK, assets)
}

// lookup resolves a scanned code. A missing asset is an expected outcome, not an error.
func (api *assetApi) lookup(ctx echo.Context) error {
	a, err := api.svc.GetByCode(ctx.Request().Context(), ctx.Param("code"))
	if err != nil {
		if errors.Cause(err) == asset.ErrNotFound {
			return ctx.JSON(http.StatusNotFound, LookupResponse{Error: "Asset not found"})
		}
		return errors.Wrap(err, "looking asset up")
	}
	return ctx.JSON(http.StatusOK, LookupResponse{Success: true, Data: a})
}

func (api *assetApi) retrieve(ctx echo.Context) error {
	detail, err := api.svc.GetDetail(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting asset detail")
	}
	return ctx.JSON(http.StatusOK, detail)
}

func (api *assetApi) history(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	a, err := api.svc.GetByID(reqCtx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting asset")
	}

	filter := bindHistoryFilter(ctx)
	filter.AssetID = a.ID
	records, err := api.svc.History(reqCtx, filter, nil)
	if err != nil {
		return errors.Wrap(err, "querying maintenance history")
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *assetApi) recordMaintenance(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	var data asset.NewMaintenance
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMaintenance")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	data.AssetID = ctx.Param("id")
	data.TechnicianID = claims.Subject

	uploads, err := readUploads(ctx)
	if err != nil {
		return err
	}

	rec, photos, err := api.svc.RecordMaintenance(ctx.Request().Context(), data, uploads)
	if err != nil {
		return errors.Wrap(err, "recording maintenance")
	}
	return ctx.JSON(http.StatusCreated, MaintenanceResponse{Record: rec, Photos: photos})
}

// readUploads reads the photos of a multipart request. Non multipart requests carry no photos.
func readUploads(ctx echo.Context) ([]asset.Upload, error) {
	form, err := ctx.MultipartForm()
	if err != nil {
		if err == http.ErrNotMultipart {
			return nil, nil
		}
		return nil, errors.Wrap(err, "parsing multipart form")
	}

	uploads := make([]asset.Upload, 0)
	for _, field := range photoFields {
		for _, fh := range form.File[field] {
			up, err := readUpload(fh)
			if err != nil {
				return nil, err
			}
			uploads = append(uploads, up)
		}
	}
	return uploads, nil
}

func readUpload(fh *multipart.FileHeader) (asset.Upload, error) {
	if fh.Size > asset.MaxPhotoSize {
		return asset.Upload{}, core.NewValidationError(nil, core.FieldError{Field: "photos", Error: fh.Filename + " is larger than 10MB"})
	}
	f, err := fh.Open()
	if err != nil {
		return asset.Upload{}, errors.Wrap(err, "opening photo")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, asset.MaxPhotoSize+1))
	if err != nil {
		return asset.Upload{}, errors.Wrap(err, "reading photo")
	}
	return asset.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Data:        data,
	}, nil
}
