package backend

import (
	"context"
	"net/http"

	"github.com/faithpod/portal/core/tenant"
)

// CentralRepository implements tenant.Repository against the central API.
type CentralRepository struct {
	*Client
}

func NewCentralRepository(c *Client) *CentralRepository {
	return &CentralRepository{Client: c}
}

func (r *CentralRepository) Login(ctx context.Context, creds tenant.Credentials) (tenant.AdminSession, error) {
	return sendJSON[tenant.AdminSession](ctx, r.Client, http.MethodPost, r.apipath(ctx, "login"), creds)
}

func (r *CentralRepository) Register(ctx context.Context, reg tenant.Registration) (tenant.AdminSession, error) {
	var sess tenant.AdminSession
	err := r.do(ctx, http.MethodPost, r.apipath(ctx, "register"), reg, &sess, ErrorFor{http.StatusConflict: errEmailTaken})
	return sess, err
}

func (r *CentralRepository) QueryAllTenants(ctx context.Context) ([]tenant.Tenant, error) {
	return getList[tenant.Tenant](ctx, r.Client, r.apipath(ctx, "tenants"))
}

func (r *CentralRepository) GetTenant(ctx context.Context, id string) (tenant.Tenant, error) {
	return getJSON[tenant.Tenant](ctx, r.Client, r.apipath(ctx, "tenants", id))
}

func (r *CentralRepository) CreateTenant(ctx context.Context, nt tenant.NewTenant) (tenant.Tenant, error) {
	return sendJSON[tenant.Tenant](ctx, r.Client, http.MethodPost, r.apipath(ctx, "tenants"), nt)
}

func (r *CentralRepository) UpdateTenant(ctx context.Context, id string, ut tenant.UpdateTenant) (tenant.Tenant, error) {
	return sendJSON[tenant.Tenant](ctx, r.Client, http.MethodPut, r.apipath(ctx, "tenants", id), ut)
}

func (r *CentralRepository) DeleteTenant(ctx context.Context, id string) error {
	return r.do(ctx, http.MethodDelete, r.apipath(ctx, "tenants", id), nil, nil, nil)
}

func (r *CentralRepository) GetThemeConfig(ctx context.Context, id string) (tenant.ThemeConfig, error) {
	return getJSON[tenant.ThemeConfig](ctx, r.Client, r.apipath(ctx, "tenants", id, "theme-config"))
}

func (r *CentralRepository) PutThemeConfig(ctx context.Context, id string, tc tenant.ThemeConfig) error {
	return r.do(ctx, http.MethodPut, r.apipath(ctx, "tenants", id, "theme-config"), tc, nil, nil)
}

func (r *CentralRepository) GetAppConfig(ctx context.Context, id string) (tenant.AppConfig, error) {
	return getJSON[tenant.AppConfig](ctx, r.Client, r.apipath(ctx, "tenants", id, "app-config"))
}

func (r *CentralRepository) PutAppConfig(ctx context.Context, id string, ac tenant.AppConfig) error {
	return r.do(ctx, http.MethodPut, r.apipath(ctx, "tenants", id, "app-config"), ac, nil, nil)
}

// InfoRepository implements tenant.InfoRepository against the tenant's own API.
type InfoRepository struct {
	*Client
}

func NewInfoRepository(c *Client) *InfoRepository {
	return &InfoRepository{Client: c}
}

func (r *InfoRepository) GetInfo(ctx context.Context) (tenant.Info, error) {
	return getJSON[tenant.Info](ctx, r.Client, r.apipath(ctx, "tenant", "info"))
}
