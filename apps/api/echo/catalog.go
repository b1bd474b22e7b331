package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/roeiles/voortgang/core"
	"github.com/roeiles/voortgang/core/subject"
)

type catalogApi struct {
	svc subject.Service
}

func registerCatalogAPI(g *echo.Group, authed []echo.MiddlewareFunc, svc subject.Service) {
	api := catalogApi{svc: svc}

	g.GET("/subjects", api.subjects, authed...)
	g.GET("/tests", api.tests, authed...)
}

func (api *catalogApi) subjects(ctx echo.Context) error {
	var (
		subjects []subject.Subject
		err      error
	)
	if cat := ctx.QueryParam("category"); cat != "" {
		c, pErr := subject.ParseCategory(core.CleanString(cat, true /* lower */))
		if pErr != nil {
			return core.NewFieldError("category", pErr)
		}
		subjects, err = api.svc.ByCategory(ctx.Request().Context(), c)
	} else {
		subjects, err = api.svc.All(ctx.Request().Context())
	}
	if err != nil {
		return errors.Wrap(err, "querying subjects")
	}
	return ctx.JSON(http.StatusOK, subjects)
}

func (api *catalogApi) tests(ctx echo.Context) error {
	tests, err := api.svc.Tests(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying tests")
	}
	return ctx.JSON(http.StatusOK, tests)
}
