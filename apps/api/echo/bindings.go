package echoapi

import (
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/faithpod/portal/core/treasury"
)

// ListParams are the query parameters of paginated lists.
type ListParams struct {
	Search   string `query:"search"`
	Ordering string `query:"ordering"`
	Page     int    `query:"page"`
}

func (lp *ListParams) Bind(ctx echo.Context) {
	if err := (&echo.DefaultBinder{}).BindQueryParams(ctx, lp); err != nil {
		*lp = ListParams{Search: ctx.QueryParam("search"), Ordering: ctx.QueryParam("ordering")}
	}
	if lp.Page < 1 {
		lp.Page = 1
	}
}

// bindFilter reads the search and date range of treasury lists and reports.
func bindFilter(ctx echo.Context, validate *validator.Validate) (treasury.Filter, error) {
	var f treasury.Filter
	if err := (&echo.DefaultBinder{}).BindQueryParams(ctx, &f); err != nil {
		return f, errors.Wrap(err, "binding to treasury.Filter")
	}
	if err := validate.Struct(f); err != nil {
		return f, err
	}
	return f, nil
}

// idParam reads a positive integer path parameter; anything else is not found.
func idParam(ctx echo.Context, name string) (int, error) {
	id, err := strconv.Atoi(ctx.Param(name))
	if err != nil || id <= 0 {
		return 0, errHttpNotFound
	}
	return id, nil
}

func periodParam(ctx echo.Context) (treasury.Period, error) {
	return treasury.ParsePeriod(ctx.QueryParam("period"))
}
