package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/faithpod/portal/core"
	"github.com/faithpod/portal/core/tenant"
)

type tenantApi struct {
	svc      *tenant.Service
	tokens   *tokens
	logger   core.Logger
	validate *validator.Validate
}

func newTenantApi(svc *tenant.Service, tk *tokens, logger core.Logger, validate *validator.Validate) *tenantApi {
	return &tenantApi{
		svc:      svc,
		tokens:   tk,
		logger:   logger,
		validate: validate,
	}
}

// registerTenantAPI serves what a tenant's frontend needs to know about its church.
func registerTenantAPI(g *echo.Group, api *tenantApi) {
	g.GET("/tenant/info", api.info)
}

// registerCentralAPI serves the central administration of tenants.
func registerCentralAPI(g *echo.Group, limiter echo.MiddlewareFunc, api *tenantApi) {
	g.POST("/login", api.login, limiter)
	g.POST("/register", api.register, limiter)

	tg := g.Group("/tenants", authMiddleware(api.tokens, scopeCentral))
	tg.GET("", api.query)
	tg.POST("", api.create)
	tg.GET("/:id", api.retrieve)
	tg.PUT("/:id", api.update)
	tg.DELETE("/:id", api.destroy)
	tg.GET("/:id/theme-config", api.themeConfig)
	tg.PUT("/:id/theme-config", api.setThemeConfig)
	tg.GET("/:id/app-config", api.appConfig)
	tg.PUT("/:id/app-config", api.setAppConfig)
}

// Tenant handlers

func (api *tenantApi) info(ctx echo.Context) error {
	info, err := api.svc.Info(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "fetching tenant info")
	}
	if info.Theme != nil {
		theme := info.Theme.WithDefaults()
		info.Theme = &theme
	}
	return ctx.JSON(http.StatusOK, info)
}

// themeCSS renders the tenant's colors as CSS variables. The default theme is
// served on the central domain and whenever the church API cannot tell.
func (api *tenantApi) themeCSS(ctx echo.Context) error {
	theme := tenant.DefaultTheme()
	if !requestTenant(ctx).IsCentral() {
		info, err := api.svc.Info(ctx.Request().Context())
		switch {
		case err != nil:
			api.logger.Warn("fetching tenant theme: " + err.Error())
		case info.Theme != nil:
			theme = info.Theme.WithDefaults()
		}
	}
	ctx.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=300")
	return ctx.Blob(http.StatusOK, "text/css; charset=utf-8", []byte(theme.CSS()))
}

// Central handlers

func (api *tenantApi) login(ctx echo.Context) error {
	var data tenant.Credentials
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Credentials")
	}
	data.Email = core.CleanString(data.Email, true /* lower */)
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	sess, err := api.svc.Login(ctx.Request().Context(), data)
	if err != nil {
		if errors.Cause(err) == core.ErrUnauthorized {
			return errAuthenticationFailed
		}
		return errors.Wrap(err, "logging in")
	}
	return api.respondSession(ctx, http.StatusOK, sess)
}

func (api *tenantApi) register(ctx echo.Context) error {
	var data tenant.Registration
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Registration")
	}
	data.Name = core.CleanName(data.Name)
	data.Email = core.CleanString(data.Email, true /* lower */)
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	sess, err := api.svc.Register(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering")
	}
	return api.respondSession(ctx, http.StatusCreated, sess)
}

func (api *tenantApi) respondSession(ctx echo.Context, code int, sess tenant.AdminSession) error {
	claims, err := api.tokens.adminClaims(sess.Admin, sess.Token)
	if err != nil {
		return errors.Wrap(err, "building claims")
	}
	token, err := api.tokens.generate(claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(code, LoginResponse{Token: token, User: sess.Admin})
}

func (api *tenantApi) query(ctx echo.Context) error {
	tenants, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying tenants")
	}
	return ctx.JSON(http.StatusOK, tenants)
}

func (api *tenantApi) create(ctx echo.Context) error {
	var data tenant.NewTenant
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTenant")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	t, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating tenant")
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (api *tenantApi) retrieve(ctx echo.Context) error {
	id, err := tenantParam(ctx)
	if err != nil {
		return err
	}
	t, err := api.svc.Get(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding tenant by ID")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *tenantApi) update(ctx echo.Context) error {
	id, err := tenantParam(ctx)
	if err != nil {
		return err
	}
	var data tenant.UpdateTenant
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTenant")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	t, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating tenant")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *tenantApi) destroy(ctx echo.Context) error {
	id, err := tenantParam(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting tenant")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *tenantApi) themeConfig(ctx echo.Context) error {
	id, err := tenantParam(ctx)
	if err != nil {
		return err
	}
	tc, err := api.svc.Theme(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "fetching theme config")
	}
	return ctx.JSON(http.StatusOK, tc)
}

func (api *tenantApi) setThemeConfig(ctx echo.Context) error {
	id, err := tenantParam(ctx)
	if err != nil {
		return err
	}
	var data tenant.ThemeConfig
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ThemeConfig")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	if err = api.svc.SetTheme(ctx.Request().Context(), id, data); err != nil {
		return errors.Wrap(err, "saving theme config")
	}
	return ctx.JSON(http.StatusOK, data.WithDefaults())
}

func (api *tenantApi) appConfig(ctx echo.Context) error {
	id, err := tenantParam(ctx)
	if err != nil {
		return err
	}
	ac, err := api.svc.AppConfig(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "fetching app config")
	}
	return ctx.JSON(http.StatusOK, ac)
}

func (api *tenantApi) setAppConfig(ctx echo.Context) error {
	id, err := tenantParam(ctx)
	if err != nil {
		return err
	}
	var data tenant.AppConfig
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AppConfig")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	if err = api.svc.SetAppConfig(ctx.Request().Context(), id, data); err != nil {
		return errors.Wrap(err, "saving app config")
	}
	return ctx.JSON(http.StatusOK, data)
}

func tenantParam(ctx echo.Context) (string, error) {
	id := ctx.Param("id")
	if !tenant.ValidID(id) {
		return "", errHttpNotFound
	}
	return id, nil
}
