package echoapi

import (
	"net/http"
	"sort"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/roeiles/voortgang/core/session"
	"github.com/roeiles/voortgang/core/subject"
	"github.com/roeiles/voortgang/core/user"
)

type adminApi struct {
	users    user.Service
	subjects subject.Service
	sessions session.Service
}

func registerAdminAPI(
	g *echo.Group,
	authed []echo.MiddlewareFunc,
	users user.Service,
	subjects subject.Service,
	sessions session.Service,
) {
	api := adminApi{users: users, subjects: subjects, sessions: sessions}

	ag := g.Group("/admin", append(authed, viewMiddleware(session.AdminPanel))...)

	ag.GET("/subjects", api.querySubjects)
	ag.PUT("/subjects/:id/active", api.toggleSubject)

	ug := ag.Group("/users")
	ug.GET("", api.queryUsers)
	ug.POST("", api.createUser)
	ug.DELETE("", api.destroyUsers)
	ug.GET("/roles", api.queryRoles)

	// detail endpoints
	dg := ug.Group("/:id", userParamMiddleware(users))
	dg.GET("", api.retrieveUser)
	dg.PUT("", api.updateUser)
	dg.DELETE("", api.destroyUser)
}

// Subjects

func (api *adminApi) querySubjects(ctx echo.Context) error {
	subjects, err := api.subjects.All(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying subjects")
	}
	return ctx.JSON(http.StatusOK, subjects)
}

func (api *adminApi) toggleSubject(ctx echo.Context) error {
	id, err := intParam(ctx, "id", subject.ErrNotFound)
	if err != nil {
		return err
	}
	var data ToggleActiveRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ToggleActiveRequest")
	}
	if data.Active == nil {
		return errActiveRequired
	}

	sub, err := api.subjects.ToggleActive(ctx.Request().Context(), id, *data.Active)
	if err != nil {
		return errors.Wrap(err, "toggling subject")
	}
	return ctx.JSON(http.StatusOK, sub)
}

// Users

func (api *adminApi) queryUsers(ctx echo.Context) error {
	filter := new(user.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []user.User{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx, user.OrderingFields...)

	users, err := api.users.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *adminApi) createUser(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}

	usr, err := api.users.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *adminApi) retrieveUser(ctx echo.Context) error {
	usr, err := getContextObject(ctx)
	if err != nil {
		return errors.Wrap(err, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *adminApi) updateUser(ctx echo.Context) error {
	usr, err := getContextObject(ctx)
	if err != nil {
		return errors.Wrap(err, "retrieving object from context")
	}

	var data user.UpdateUser
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}

	rctx := ctx.Request().Context()
	usr, err = api.users.Update(rctx, usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating user")
	}
	// a new password ends the user's sessions
	if data.Password != "" {
		if err = api.sessions.LogoutUser(rctx, usr.ID); err != nil {
			return errors.Wrap(err, "ending user sessions")
		}
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *adminApi) destroyUser(ctx echo.Context) error {
	usr, err := getContextObject(ctx)
	if err != nil {
		return errors.Wrap(err, "retrieving object from context")
	}

	// admins cannot delete themselves
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	if usr.ID == sess.UserID {
		return errHttpForbidden
	}

	if _, err = api.users.Delete(ctx.Request().Context(), usr.ID); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	if err = api.sessions.LogoutUser(ctx.Request().Context(), usr.ID); err != nil {
		return errors.Wrap(err, "ending user sessions")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *adminApi) destroyUsers(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}

	// admins cannot delete themselves
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	sort.Strings(query.IDs)
	if i := sort.SearchStrings(query.IDs, sess.UserID); i < len(query.IDs) {
		if match := query.IDs[i]; sess.UserID == match {
			return errHttpForbidden
		}
	}

	rctx := ctx.Request().Context()
	if _, err = api.users.Delete(rctx, query.IDs...); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	for _, id := range query.IDs {
		if err = api.sessions.LogoutUser(rctx, id); err != nil {
			return errors.Wrap(err, "ending user sessions")
		}
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *adminApi) queryRoles(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, RolesResponse{Roles: user.AllRoles, Groups: user.AllGroups})
}

var errActiveRequired = echo.NewHTTPError(http.StatusBadRequest, "active is required")

type (
	ToggleActiveRequest struct {
		Active *bool `json:"active"`
	}

	DestroyMultipleRequest struct {
		IDs []string `query:"id"`
	}

	RolesResponse struct {
		Roles  []user.Role  `json:"roles"`
		Groups []user.Group `json:"groups"`
	}
)
