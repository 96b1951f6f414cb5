package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	tamssvc "github.com/topsell/tams/services/tams"
)

type tamsApi struct {
	catalog *tamssvc.Catalog
}

// registerTamsAPI mounts the stand-in for the external TAMS system. It needs no authentication.
func registerTamsAPI(g *echo.Group, catalog *tamssvc.Catalog) {
	if catalog == nil {
		return
	}
	api := tamsApi{catalog: catalog}
	g.GET("/tams/assets/:code", api.lookup)
}

func (api *tamsApi) lookup(ctx echo.Context) error {
	a, err := api.catalog.Lookup(ctx.Param("code"))
	if err != nil {
		return ctx.JSON(http.StatusNotFound, LookupResponse{Error: err.Error()})
	}
	return ctx.JSON(http.StatusOK, LookupResponse{Success: true, Data: a})
}
