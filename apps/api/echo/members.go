package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/faithpod/portal/core"
	"github.com/faithpod/portal/core/access"
	"github.com/faithpod/portal/core/member"
)

type memberApi struct {
	svc      *member.Service
	validate *validator.Validate
}

func registerMemberAPI(g *echo.Group, auth echo.MiddlewareFunc, svc *member.Service, validate *validator.Validate) {
	api := memberApi{
		svc:      svc,
		validate: validate,
	}

	mg := g.Group("/members", auth)
	mg.GET("", api.query, permissionMiddleware(access.CanViewUsers))
	mg.POST("", api.create, permissionMiddleware(access.CanCreateUser))
	mg.GET("/gender-count", api.genderCount, permissionMiddleware(access.CanViewUsers))
	mg.GET("/:id", api.retrieve, permissionMiddleware(access.CanViewUsers))
	mg.PUT("/:id", api.update, permissionMiddleware(access.CanEditUser))
	mg.DELETE("/:id", api.destroy, permissionMiddleware(access.CanEditUser))

	tg := g.Group("/membership-types", auth, permissionMiddleware(access.CanViewMembershipTypes))
	tg.GET("", api.queryMembershipTypes)
	tg.GET("/count", api.membershipCount)
	tg.GET("/:id", api.retrieveMembershipType)
}

// Handlers

func (api *memberApi) query(ctx echo.Context) error {
	var params ListParams
	params.Bind(ctx)

	filter := member.NewQueryFilter(params.Search, params.Ordering)
	page, err := api.svc.Page(ctx.Request().Context(), filter, params.Page, core.DefaultPageSize)
	if err != nil {
		return errors.Wrap(err, "querying members")
	}
	return ctx.JSON(http.StatusOK, page)
}

func (api *memberApi) create(ctx echo.Context) error {
	var data member.NewMember
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMember")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	m, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating member")
	}
	return ctx.JSON(http.StatusCreated, m)
}

func (api *memberApi) retrieve(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return err
	}
	m, err := api.svc.Get(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding member by ID")
	}
	return ctx.JSON(http.StatusOK, m)
}

func (api *memberApi) update(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return err
	}
	var data member.UpdateMember
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateMember")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	m, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating member")
	}
	return ctx.JSON(http.StatusOK, m)
}

func (api *memberApi) destroy(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return err
	}

	// Say No to Suicide! members cannot delete themselves
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if usr.ID == id {
		return errHttpForbidden
	}

	if err = api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting member")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *memberApi) genderCount(ctx echo.Context) error {
	gc, err := api.svc.GenderCount(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "counting genders")
	}
	return ctx.JSON(http.StatusOK, gc)
}

func (api *memberApi) queryMembershipTypes(ctx echo.Context) error {
	types, err := api.svc.MembershipTypes(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying membership types")
	}
	return ctx.JSON(http.StatusOK, types)
}

func (api *memberApi) retrieveMembershipType(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return err
	}
	mt, err := api.svc.MembershipType(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding membership type by ID")
	}
	return ctx.JSON(http.StatusOK, mt)
}

func (api *memberApi) membershipCount(ctx echo.Context) error {
	mc, err := api.svc.MembershipCount(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "counting memberships")
	}
	return ctx.JSON(http.StatusOK, mc)
}
