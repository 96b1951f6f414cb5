package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/topsell/tams/core"
	"github.com/topsell/tams/core/verification"
)

const defaultSuggestLimit = 5

type verificationApi struct {
	tables *verification.Tables
	stores ContextStores
}

func registerVerificationAPI(g *echo.Group, tables *verification.Tables, stores ContextStores) {
	api := verificationApi{tables: tables, stores: stores}

	vg := g.Group("/verification")
	vg.GET("/options", api.options)
	vg.GET("/suggest", api.suggest)
	vg.GET("/context", api.context)
	vg.POST("/resolve", api.resolve)
}

// resolver restores the verification flow of the authenticated user.
func (api *verificationApi) resolver(ctx echo.Context) (*verification.Resolver, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return nil, err
	}
	var store verification.ContextStore = verification.NopStore{}
	if api.stores != nil {
		store = api.stores.ForUser(ctx.Request().Context(), claims.Subject)
	}
	return verification.NewResolver(api.tables, store), nil
}

func (api *verificationApi) options(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, OptionsResponse{
		Options:   api.tables.Options(),
		Outlets:   api.tables.Outlets,
		Divisions: api.tables.Divisions,
	})
}

func (api *verificationApi) suggest(ctx echo.Context) error {
	limit := defaultSuggestLimit
	if l, err := strconv.Atoi(ctx.QueryParam("limit")); err == nil && l > 0 {
		limit = l
	}

	q := ctx.QueryParam("q")
	var suggestions []verification.Suggestion
	switch ctx.QueryParam("field") {
	case "outlet":
		suggestions = api.tables.SuggestOutlets(q, limit)
	case "division":
		suggestions = api.tables.SuggestDivisions(q, limit)
	default:
		return core.NewValidationError(nil, core.FieldError{Field: "field", Error: "must be one of: outlet, division"})
	}
	return ctx.JSON(http.StatusOK, SuggestResponse{Suggestions: suggestions})
}

func (api *verificationApi) context(ctx echo.Context) error {
	r, err := api.resolver(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, verificationResponse(r))
}

func (api *verificationApi) resolve(ctx echo.Context) error {
	var data ResolveRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResolveRequest")
	}

	r, err := api.resolver(ctx)
	if err != nil {
		return err
	}
	if data.Mode != "" {
		if _, err = r.SetMode(data.Mode); err != nil {
			return core.NewValidationError(nil, core.FieldError{Field: "mode", Error: "must be one of: select, manual"})
		}
	}
	if r.State().Mode == verification.ModeManual {
		if data.Outlet != nil {
			r.SetManualOutlet(*data.Outlet)
		}
		if data.Division != nil {
			r.SetManualDivision(*data.Division)
		}
	} else if data.Pair != nil {
		r.SelectPair(*data.Pair)
	}
	return ctx.JSON(http.StatusOK, verificationResponse(r))
}

func verificationResponse(r *verification.Resolver) VerificationResponse {
	return VerificationResponse{State: r.State(), Result: r.Result(), Context: r.Context()}
}
