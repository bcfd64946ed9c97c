package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/faithpod/portal/core"
	"github.com/faithpod/portal/core/access"
)

const resetLinkSent = "If the email address supplied is associated with an active account on this system, " +
	"an email will arrive in your inbox shortly with instructions to reset your password."

type accessApi struct {
	svc      *access.Service
	tokens   *tokens
	logger   core.Logger
	validate *validator.Validate
}

func registerAccessAPI(
	g *echo.Group,
	auth, limiter echo.MiddlewareFunc,
	tk *tokens,
	svc *access.Service,
	logger core.Logger,
	validate *validator.Validate,
) {
	api := accessApi{
		svc:      svc,
		tokens:   tk,
		logger:   logger,
		validate: validate,
	}

	ag := g.Group("/auth")

	// un-authed endpoints
	ag.POST("/login", api.login, limiter)
	ag.POST("/register", api.register, limiter)
	ag.POST("/password/email", api.sendResetLink, limiter)
	ag.POST("/password/reset", api.resetPassword, limiter)
	ag.GET("/email/verify/:id/:hash", api.verifyEmail)

	// authed endpoints
	sg := ag.Group("", auth)
	sg.POST("/logout", api.logout)
	sg.POST("/token-refresh", api.refreshToken)
	sg.GET("/user", api.currentUser)
	sg.PUT("/user/info", api.updateInfo)
	sg.PUT("/user/password", api.updatePassword)
	sg.POST("/email/resend", api.resendVerification)

	rg := g.Group("/roles", auth)
	rg.GET("", api.queryRoles, permissionMiddleware(access.CanViewRoles))
	rg.POST("", api.createRole, permissionMiddleware(access.CanCreateRole))
	rg.GET("/:id", api.retrieveRole, permissionMiddleware(access.CanViewRoles))
	rg.PUT("/:id", api.updateRole, permissionMiddleware(access.CanEditRole))
	rg.DELETE("/:id", api.destroyRole, permissionMiddleware(access.CanEditRole))

	g.GET("/permissions", api.queryPermissions, auth, permissionMiddleware(access.CanViewRoles))
}

// Handlers

func (api *accessApi) login(ctx echo.Context) error {
	var data access.Credentials
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Credentials")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	rctx := ctx.Request().Context()
	sess, err := api.svc.Login(rctx, data)
	if err != nil {
		if errors.Cause(err) == core.ErrUnauthorized {
			return errAuthenticationFailed
		}
		return errors.Wrap(err, "logging in")
	}

	usr := sess.User
	if usr.ID == 0 || usr.Role == nil {
		// older church APIs only answer with the token
		if usr, err = api.svc.CurrentUser(access.WithToken(rctx, sess.Token)); err != nil {
			return errors.Wrap(err, "fetching logged in user")
		}
	}

	claims, err := api.tokens.userClaims(usr, requestTenant(ctx).ID, sess.Token)
	if err != nil {
		return errors.Wrap(err, "building claims")
	}
	token, err := api.tokens.generate(claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token, User: usr})
}

func (api *accessApi) register(ctx echo.Context) error {
	var data access.Registration
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Registration")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.Register(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "registering")
	}
	return ctx.JSON(http.StatusCreated, SuccessResponse{
		Success: "Registration successful. Please check your email to verify your account.",
	})
}

func (api *accessApi) sendResetLink(ctx echo.Context) error {
	var data access.PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.SendResetLink(ctx.Request().Context(), data.Email); err != nil {
		// do not tell attackers which emails are known
		if _, ok := errors.Cause(err).(*core.ValidationError); !ok && errors.Cause(err) != core.ErrNotFound {
			api.logger.Error("sending password reset link: "+err.Error(), err)
		}
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: resetLinkSent})
}

func (api *accessApi) resetPassword(ctx echo.Context) error {
	var data access.PasswordReset
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordReset")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.ResetPassword(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password has been reset with the new password."})
}

func (api *accessApi) verifyEmail(ctx echo.Context) error {
	if err := api.svc.VerifyEmail(ctx.Request().Context(), ctx.Param("id"), ctx.Param("hash")); err != nil {
		return errors.Wrap(err, "verifying email")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Your email address has been verified."})
}

// logout ends the gateway session even when the church API already dropped its token.
func (api *accessApi) logout(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	api.tokens.revoke(claims)

	err = api.svc.Logout(ctx.Request().Context())
	if err != nil && errors.Cause(err) != core.ErrUnauthorized {
		return errors.Wrap(err, "logging out")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// refreshToken issues a new session with up to date permissions, within the refresh window.
func (api *accessApi) refreshToken(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if err = api.tokens.refreshable(claims); err != nil {
		return err
	}

	rctx := ctx.Request().Context()
	usr, err := api.svc.CurrentUser(rctx)
	if err != nil {
		return errors.Wrap(err, "fetching current user")
	}
	newClaims, err := api.tokens.userClaims(usr, claims.Tenant, access.TokenFromContext(rctx), claims.OrigIssuedAt)
	if err != nil {
		return errors.Wrap(err, "building claims")
	}
	token, err := api.tokens.generate(newClaims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token, User: usr})
}

func (api *accessApi) currentUser(ctx echo.Context) error {
	usr, err := api.svc.CurrentUser(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "fetching current user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *accessApi) updateInfo(ctx echo.Context) error {
	var data access.ProfileUpdate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ProfileUpdate")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.svc.UpdateInfo(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "updating profile")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *accessApi) updatePassword(ctx echo.Context) error {
	var data access.PasswordChange
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordChange")
	}

	rctx := ctx.Request().Context()
	usr, err := api.svc.CurrentUser(rctx)
	if err != nil {
		return errors.Wrap(err, "fetching current user")
	}
	if err = data.Validate(api.validate, usr); err != nil {
		return err
	}

	if err = api.svc.UpdatePassword(rctx, data); err != nil {
		return errors.Wrap(err, "updating password")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password updated."})
}

func (api *accessApi) resendVerification(ctx echo.Context) error {
	if err := api.svc.ResendVerification(ctx.Request().Context()); err != nil {
		return errors.Wrap(err, "resending verification email")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "A fresh verification link has been sent to your email address."})
}

func (api *accessApi) queryRoles(ctx echo.Context) error {
	roles, err := api.svc.Roles(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying roles")
	}
	return ctx.JSON(http.StatusOK, roles)
}

func (api *accessApi) retrieveRole(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return err
	}
	role, err := api.svc.Role(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding role by ID")
	}
	return ctx.JSON(http.StatusOK, role)
}

func (api *accessApi) createRole(ctx echo.Context) error {
	var data access.RoleInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RoleInput")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	role, err := api.svc.CreateRole(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating role")
	}
	return ctx.JSON(http.StatusCreated, role)
}

func (api *accessApi) updateRole(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return err
	}
	var data access.RoleInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RoleInput")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	role, err := api.svc.UpdateRole(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating role")
	}
	return ctx.JSON(http.StatusOK, role)
}

func (api *accessApi) destroyRole(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.DeleteRole(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting role")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *accessApi) queryPermissions(ctx echo.Context) error {
	perms, err := api.svc.Permissions(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying permissions")
	}
	return ctx.JSON(http.StatusOK, perms)
}

type (
	LoginResponse struct {
		Token string      `json:"token"`
		User  interface{} `json:"user"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}
)
