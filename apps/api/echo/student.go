package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/roeiles/voortgang/core/grading"
	"github.com/roeiles/voortgang/core/session"
)

type studentApi struct {
	svc grading.Service
}

func registerStudentAPI(g *echo.Group, authed []echo.MiddlewareFunc, svc grading.Service) {
	api := studentApi{svc: svc}

	sg := g.Group("/student", append(authed, viewMiddleware(session.StudentDashboard))...)
	sg.GET("/dashboard", api.dashboard)
}

func (api *studentApi) dashboard(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	overview, err := api.svc.StudentOverview(ctx.Request().Context(), sess.UserID)
	if err != nil {
		return errors.Wrap(err, "building student overview")
	}
	return ctx.JSON(http.StatusOK, overview)
}
