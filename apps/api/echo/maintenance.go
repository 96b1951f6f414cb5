package echoapi

import (
	"bytes"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/topsell/tams/core"
	"github.com/topsell/tams/core/asset"
	"github.com/topsell/tams/core/user"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type maintenanceApi struct {
	svc      asset.Service
	validate *validator.Validate
}

func registerMaintenanceAPI(g *echo.Group, svc asset.Service, validate *validator.Validate) {
	api := maintenanceApi{svc: svc, validate: validate}

	mg := g.Group("/maintenance")
	mg.GET("", api.query)
	mg.GET("/export", api.export)
	mg.PATCH("/:id", api.updateStatus, roleMiddleware(user.RoleSupervisor, user.RoleAdmin))

	g.GET("/dashboard", api.dashboard)
}

func (api *maintenanceApi) query(ctx echo.Context) error {
	var ord Ordering
	ord.Bind(ctx)
	records, err := api.svc.History(ctx.Request().Context(), bindHistoryFilter(ctx), ord.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying maintenance history")
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *maintenanceApi) export(ctx echo.Context) error {
	var buf bytes.Buffer
	if err := api.svc.ExportHistory(ctx.Request().Context(), bindHistoryFilter(ctx), &buf); err != nil {
		return errors.Wrap(err, "exporting maintenance history")
	}
	filename := "maintenance-history-" + core.FormatDate(nowFunc()) + ".xlsx"
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return ctx.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (api *maintenanceApi) updateStatus(ctx echo.Context) error {
	var data asset.UpdateStatus
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStatus")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	rec, err := api.svc.UpdateStatus(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating maintenance status")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *maintenanceApi) dashboard(ctx echo.Context) error {
	stats, err := api.svc.Dashboard(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "computing dashboard")
	}
	return ctx.JSON(http.StatusOK, stats)
}
