package tenant

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

const infoKey = "tenant_info"

type (
	Credentials struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	Registration struct {
		Name                 string `json:"name" validate:"required"`
		Email                string `json:"email" validate:"required,email"`
		Password             string `json:"password" validate:"required,min=8"`
		PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
	}

	// Admin is a central administrator as the central API knows it.
	Admin struct {
		ID    int    `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}

	AdminSession struct {
		Token string `json:"token"`
		Admin Admin  `json:"user"`
	}

	// Repository is the central API.
	Repository interface {
		Login(ctx context.Context, creds Credentials) (AdminSession, error)
		Register(ctx context.Context, reg Registration) (AdminSession, error)
		QueryAllTenants(ctx context.Context) ([]Tenant, error)
		GetTenant(ctx context.Context, id string) (Tenant, error)
		CreateTenant(ctx context.Context, nt NewTenant) (Tenant, error)
		UpdateTenant(ctx context.Context, id string, ut UpdateTenant) (Tenant, error)
		DeleteTenant(ctx context.Context, id string) error
		GetThemeConfig(ctx context.Context, id string) (ThemeConfig, error)
		PutThemeConfig(ctx context.Context, id string, tc ThemeConfig) error
		GetAppConfig(ctx context.Context, id string) (AppConfig, error)
		PutAppConfig(ctx context.Context, id string, ac AppConfig) error
	}

	// InfoRepository is the tenant's own API.
	InfoRepository interface {
		GetInfo(ctx context.Context) (Info, error)
	}

	Cache interface {
		Get(ctx context.Context, key string, ttl time.Duration, fetch func(context.Context) (interface{}, error)) (interface{}, error)
		ClearTenant(id string)
	}

	Service struct {
		repo     Repository
		infoRepo InfoRepository
		cache    Cache
		ttl      time.Duration
	}
)

func NewService(repo Repository, infoRepo InfoRepository, cache Cache, ttl time.Duration) *Service {
	return &Service{repo: repo, infoRepo: infoRepo, cache: cache, ttl: ttl}
}

func (svc *Service) Login(ctx context.Context, creds Credentials) (AdminSession, error) {
	return svc.repo.Login(ctx, creds)
}

func (svc *Service) Register(ctx context.Context, reg Registration) (AdminSession, error) {
	return svc.repo.Register(ctx, reg)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Tenant, error) {
	tenants, err := svc.repo.QueryAllTenants(ctx)
	if err != nil {
		return nil, err
	}
	if tenants == nil {
		tenants = []Tenant{}
	}
	return tenants, nil
}

func (svc *Service) Get(ctx context.Context, id string) (Tenant, error) {
	return svc.repo.GetTenant(ctx, id)
}

func (svc *Service) Create(ctx context.Context, nt NewTenant) (Tenant, error) {
	return svc.repo.CreateTenant(ctx, nt)
}

func (svc *Service) Update(ctx context.Context, id string, ut UpdateTenant) (Tenant, error) {
	t, err := svc.repo.UpdateTenant(ctx, id, ut)
	if err != nil {
		return Tenant{}, err
	}
	svc.cache.ClearTenant(id)
	return t, nil
}

// Delete removes the tenant and everything cached on its behalf.
func (svc *Service) Delete(ctx context.Context, id string) error {
	if err := svc.repo.DeleteTenant(ctx, id); err != nil {
		return err
	}
	svc.cache.ClearTenant(id)
	return nil
}

func (svc *Service) Theme(ctx context.Context, id string) (ThemeConfig, error) {
	tc, err := svc.repo.GetThemeConfig(ctx, id)
	if err != nil {
		return ThemeConfig{}, err
	}
	return tc.WithDefaults(), nil
}

func (svc *Service) SetTheme(ctx context.Context, id string, tc ThemeConfig) error {
	if err := svc.repo.PutThemeConfig(ctx, id, tc); err != nil {
		return err
	}
	svc.cache.ClearTenant(id) // the tenant info carries the theme
	return nil
}

func (svc *Service) AppConfig(ctx context.Context, id string) (AppConfig, error) {
	return svc.repo.GetAppConfig(ctx, id)
}

func (svc *Service) SetAppConfig(ctx context.Context, id string, ac AppConfig) error {
	ac.Prune()
	return svc.repo.PutAppConfig(ctx, id, ac)
}

// Info returns the public info of the tenant of ctx.
func (svc *Service) Info(ctx context.Context) (Info, error) {
	v, err := svc.cache.Get(ctx, infoKey, svc.ttl, func(ctx context.Context) (interface{}, error) {
		return svc.infoRepo.GetInfo(ctx)
	})
	if err != nil {
		return Info{}, errors.Wrap(err, "fetching tenant info")
	}
	info, _ := v.(Info)
	return info, nil
}
