package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/faithpod/portal/core/access"
	"github.com/faithpod/portal/core/fellowship"
)

// fellowshipApi serves one kind of unit: prayercells or population groups.
type fellowshipApi struct {
	kind     fellowship.Kind
	svc      *fellowship.Service
	validate *validator.Validate
}

type unitPermissions struct {
	view, create, edit string
}

func registerFellowshipAPI(g *echo.Group, auth echo.MiddlewareFunc, svc *fellowship.Service, validate *validator.Validate) {
	registerUnitAPI(g.Group("/prayercells", auth), fellowship.Prayercells, svc, validate, unitPermissions{
		view:   access.CanViewPrayercells,
		create: access.CanCreatePrayercell,
		edit:   access.CanEditPrayercell,
	})
	registerUnitAPI(g.Group("/groups", auth), fellowship.Groups, svc, validate, unitPermissions{
		view:   access.CanViewGroups,
		create: access.CanCreateGroup,
		edit:   access.CanEditGroup,
	})
}

func registerUnitAPI(ug *echo.Group, kind fellowship.Kind, svc *fellowship.Service, validate *validator.Validate, perms unitPermissions) {
	api := fellowshipApi{
		kind:     kind,
		svc:      svc,
		validate: validate,
	}
	ug.GET("", api.query, permissionMiddleware(perms.view))
	ug.POST("", api.create, permissionMiddleware(perms.create))
	ug.GET("/:id", api.retrieve, permissionMiddleware(perms.view))
	ug.PUT("/:id", api.update, permissionMiddleware(perms.edit))
	ug.DELETE("/:id", api.destroy, permissionMiddleware(perms.edit))
}

// Handlers

func (api *fellowshipApi) query(ctx echo.Context) error {
	units, err := api.svc.QueryAll(ctx.Request().Context(), api.kind, ctx.QueryParam("search"))
	if err != nil {
		return errors.Wrapf(err, "querying %s", api.kind)
	}
	return ctx.JSON(http.StatusOK, units)
}

func (api *fellowshipApi) create(ctx echo.Context) error {
	var data fellowship.NewUnit
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUnit")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	u, err := api.svc.Create(ctx.Request().Context(), api.kind, data)
	if err != nil {
		return errors.Wrapf(err, "creating %s", api.kind)
	}
	return ctx.JSON(http.StatusCreated, u)
}

func (api *fellowshipApi) retrieve(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return err
	}
	u, err := api.svc.Get(ctx.Request().Context(), api.kind, id)
	if err != nil {
		return errors.Wrapf(err, "finding %s by ID", api.kind)
	}
	return ctx.JSON(http.StatusOK, u)
}

func (api *fellowshipApi) update(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return err
	}
	var data fellowship.NewUnit
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUnit")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	u, err := api.svc.Update(ctx.Request().Context(), api.kind, id, data)
	if err != nil {
		return errors.Wrapf(err, "updating %s", api.kind)
	}
	return ctx.JSON(http.StatusOK, u)
}

func (api *fellowshipApi) destroy(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), api.kind, id); err != nil {
		return errors.Wrapf(err, "deleting %s", api.kind)
	}
	return ctx.NoContent(http.StatusNoContent)
}
