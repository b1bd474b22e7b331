package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/roeiles/voortgang/core/grading"
	"github.com/roeiles/voortgang/core/session"
	"github.com/roeiles/voortgang/core/subject"
	"github.com/roeiles/voortgang/core/user"
)

type teacherApi struct {
	users   user.Service
	grading grading.Service
}

func registerTeacherAPI(g *echo.Group, authed []echo.MiddlewareFunc, users user.Service, gradingSvc grading.Service) {
	api := teacherApi{users: users, grading: gradingSvc}

	tg := g.Group("/teacher", append(authed, viewMiddleware(session.TeacherGrading))...)
	tg.GET("/students", api.students)

	sg := tg.Group("/students/:id", studentParamMiddleware(users))
	sg.GET("/grading", api.gradingForm)
	sg.POST("/grading", api.saveGrading)
	sg.GET("/history", api.history, viewMiddleware(session.TeacherHistory))
	sg.GET("/subjects/:subject/grades", api.subjectGrades, viewMiddleware(session.TeacherHistory))
}

func (api *teacherApi) students(ctx echo.Context) error {
	students, err := api.users.Students(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []user.User{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *teacherApi) gradingForm(ctx echo.Context) error {
	student, err := getContextObject(ctx)
	if err != nil {
		return err
	}
	form, err := api.grading.GradingForm(ctx.Request().Context(), student.ID)
	if err != nil {
		return errors.Wrap(err, "building grading form")
	}
	return ctx.JSON(http.StatusOK, form)
}

func (api *teacherApi) saveGrading(ctx echo.Context) error {
	student, err := getContextObject(ctx)
	if err != nil {
		return err
	}
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}

	var data grading.GradingInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GradingInput")
	}

	res, err := api.grading.SaveGrading(ctx.Request().Context(), sess.UserID, student.ID, data)
	if err != nil {
		return errors.Wrap(err, "saving grading")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *teacherApi) history(ctx echo.Context) error {
	student, err := getContextObject(ctx)
	if err != nil {
		return err
	}
	hist, err := api.grading.History(ctx.Request().Context(), student.ID)
	if err != nil {
		return errors.Wrap(err, "building history")
	}
	return ctx.JSON(http.StatusOK, hist)
}

type SubjectGradesResponse struct {
	Grades  []grading.Grade `json:"grades"` // newest first
	Average float64         `json:"average"`
	Series  []grading.Grade `json:"series"` // oldest first
}

func (api *teacherApi) subjectGrades(ctx echo.Context) error {
	student, err := getContextObject(ctx)
	if err != nil {
		return err
	}
	subjectID, err := intParam(ctx, "subject", subject.ErrNotFound)
	if err != nil {
		return err
	}

	rctx := ctx.Request().Context()
	var resp SubjectGradesResponse
	if resp.Grades, err = api.grading.LatestGrades(rctx, student.ID, subjectID, intQuery(ctx, "limit", grading.AverageWindow)); err != nil {
		return errors.Wrap(err, "querying latest grades")
	}
	if resp.Average, err = api.grading.AverageGrade(rctx, student.ID, subjectID); err != nil {
		return errors.Wrap(err, "computing average grade")
	}
	if resp.Series, err = api.grading.GradeSeries(rctx, student.ID, subjectID); err != nil {
		return errors.Wrap(err, "querying grade series")
	}
	return ctx.JSON(http.StatusOK, resp)
}
