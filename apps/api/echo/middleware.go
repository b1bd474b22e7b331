package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/roeiles/voortgang/core/session"
	"github.com/roeiles/voortgang/core/user"
)

// sessionMiddleware restores the session named by the JWT before any gate is evaluated.
func sessionMiddleware(svc session.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			sess, err := svc.Restore(ctx.Request().Context(), claims.Id)
			if err != nil {
				return errors.Wrap(err, "restoring session")
			}
			ctx.Set(contextSessionKey, sess)
			return next(ctx)
		}
	}
}

// viewMiddleware lets through the sessions view admits.
func viewMiddleware(view session.View) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			sess, err := getContextSession(ctx)
			if err != nil {
				return err
			}
			if err = view.Authorize(&sess); err != nil {
				return err
			}
			return next(ctx)
		}
	}
}

// studentParamMiddleware loads the student named by the ":id" path param into the context.
func studentParamMiddleware(svc user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				if errors.Cause(err) == user.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding student by ID")
			}
			if !usr.IsStudent() {
				return errHttpNotFound
			}
			ctx.Set(contextObjectKey, usr)
			return next(ctx)
		}
	}
}

// userParamMiddleware loads the user named by the ":id" path param into the context.
func userParamMiddleware(svc user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				if errors.Cause(err) == user.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding user by ID")
			}
			ctx.Set(contextObjectKey, usr)
			return next(ctx)
		}
	}
}

const contextObjectKey = "object"

var errObjNotFoundInCtx = errors.New("object not found in echo.Context")

func getContextObject(ctx echo.Context) (user.User, error) {
	if usr, ok := ctx.Get(contextObjectKey).(user.User); ok {
		return usr, nil
	}
	return user.User{}, errObjNotFoundInCtx
}
