package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/faithpod/portal/core"
	"github.com/faithpod/portal/core/access"
	"github.com/faithpod/portal/core/tenant"
)

// tenantMiddleware resolves the tenant of every request from its host.
func tenantMiddleware(resolver tenant.Resolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			req := ctx.Request()
			tc := resolver.FromRequest(req.Host, ctx.Scheme())
			ctx.SetRequest(req.WithContext(tenant.WithContext(req.Context(), tc)))
			return next(ctx)
		}
	}
}

func requestTenant(ctx echo.Context) tenant.Context {
	tc, _ := tenant.FromContext(ctx.Request().Context())
	return tc
}

// requireTenant rejects requests made on the central domain.
func requireTenant(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if requestTenant(ctx).IsCentral() {
			return errUnknownTenant
		}
		return next(ctx)
	}
}

// requireCentral rejects requests made on a tenant's domain.
func requireCentral(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if !requestTenant(ctx).IsCentral() {
			return errHttpNotFound
		}
		return next(ctx)
	}
}

// authMiddleware verifies the session JWT of scope. The church API token it seals is put
// in the request context, along with the session member for tenant sessions.
func authMiddleware(tk *tokens, scope string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			auth := ctx.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(auth, "Bearer ") || len(auth) == len("Bearer ") {
				return errMissingToken
			}
			claims, err := tk.parse(strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				return err
			}
			if claims.Scope != scope {
				return errInvalidToken
			}
			if scope == scopeTenant && !tenant.ValidFor(claims.Tenant, requestTenant(ctx).ID) {
				return core.ErrTenantAccess
			}

			token, err := tk.backendToken(*claims)
			if err != nil {
				return err
			}
			ctx.Set(contextClaimsKey, claims)

			req := ctx.Request()
			rctx := access.WithToken(req.Context(), token)
			if scope == scopeTenant {
				rctx = access.WithUser(rctx, claimsUser(*claims))
			}
			ctx.SetRequest(req.WithContext(rctx))
			return next(ctx)
		}
	}
}

// permissionMiddleware lets through sessions holding any of perms.
func permissionMiddleware(perms ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if _, err := getContextClaims(ctx); err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if contextHasAnyPermission(ctx, perms) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}
