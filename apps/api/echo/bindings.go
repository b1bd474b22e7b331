package echoapi

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/roeiles/voortgang/core"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

// Bind reads the "ordering" query param, e.g. "role,-created_at", keeping only allowed fields.
func (ord *Ordering) Bind(ctx echo.Context, allowed ...string) {
	if val := ctx.QueryParam(orderingParam); val != "" {
		ord.Orderings = core.ParseOrdering(val, allowed...)
	}
}

// intParam parses the named path param; a malformed value is reported as notFound.
func intParam(ctx echo.Context, name string, notFound error) (int, error) {
	n, err := strconv.Atoi(ctx.Param(name))
	if err != nil {
		return 0, notFound
	}
	return n, nil
}

// intQuery parses the named query param, def being used when it is absent or malformed.
func intQuery(ctx echo.Context, name string, def int) int {
	if n, err := strconv.Atoi(ctx.QueryParam(name)); err == nil {
		return n
	}
	return def
}
