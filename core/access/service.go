package access

import (
	"context"
	"regexp"
	"strconv"
	"time"

	"github.com/faithpod/portal/core/cache"
)

const (
	rolesKey       = "roles"
	permissionsKey = "permissions"
)

var rolesPattern = regexp.MustCompile(`^roles`)

type (
	// Repository is the authentication and role surface of the church API.
	// Calls act on behalf of the bearer token found in ctx (see WithToken).
	Repository interface {
		Login(ctx context.Context, creds Credentials) (Session, error)
		Register(ctx context.Context, reg Registration) error
		Logout(ctx context.Context) error
		CurrentUser(ctx context.Context) (User, error)
		UpdateInfo(ctx context.Context, pu ProfileUpdate) (User, error)
		UpdatePassword(ctx context.Context, pc PasswordChange) error
		VerifyEmail(ctx context.Context, id, hash string) error
		ResendVerification(ctx context.Context) error
		SendResetLink(ctx context.Context, email string) error
		ResetPassword(ctx context.Context, pr PasswordReset) error

		QueryAllRoles(ctx context.Context) ([]Role, error)
		GetRole(ctx context.Context, id int) (Role, error)
		CreateRole(ctx context.Context, ri RoleInput) (Role, error)
		UpdateRole(ctx context.Context, id int, ri RoleInput) (Role, error)
		DeleteRole(ctx context.Context, id int) error
		QueryAllPermissions(ctx context.Context) ([]Permission, error)
	}

	Service struct {
		repo   Repository
		cache  *cache.Cache
		refTTL time.Duration
	}
)

// NewService returns a Service caching roles and permissions for refTTL.
func NewService(repo Repository, c *cache.Cache, refTTL time.Duration) *Service {
	return &Service{repo: repo, cache: c, refTTL: refTTL}
}

func (svc *Service) Login(ctx context.Context, creds Credentials) (Session, error) {
	return svc.repo.Login(ctx, creds)
}

func (svc *Service) Register(ctx context.Context, reg Registration) error {
	return svc.repo.Register(ctx, reg)
}

func (svc *Service) Logout(ctx context.Context) error {
	return svc.repo.Logout(ctx)
}

func (svc *Service) CurrentUser(ctx context.Context) (User, error) {
	return svc.repo.CurrentUser(ctx)
}

func (svc *Service) UpdateInfo(ctx context.Context, pu ProfileUpdate) (User, error) {
	return svc.repo.UpdateInfo(ctx, pu)
}

func (svc *Service) UpdatePassword(ctx context.Context, pc PasswordChange) error {
	return svc.repo.UpdatePassword(ctx, pc)
}

func (svc *Service) VerifyEmail(ctx context.Context, id, hash string) error {
	return svc.repo.VerifyEmail(ctx, id, hash)
}

func (svc *Service) ResendVerification(ctx context.Context) error {
	return svc.repo.ResendVerification(ctx)
}

func (svc *Service) SendResetLink(ctx context.Context, email string) error {
	return svc.repo.SendResetLink(ctx, email)
}

func (svc *Service) ResetPassword(ctx context.Context, pr PasswordReset) error {
	return svc.repo.ResetPassword(ctx, pr)
}

func (svc *Service) Roles(ctx context.Context) ([]Role, error) {
	roles, err := cache.Fetch(ctx, svc.cache, rolesKey, svc.refTTL, svc.repo.QueryAllRoles)
	if err != nil {
		return nil, err
	}
	if roles == nil {
		roles = []Role{}
	}
	return roles, nil
}

func (svc *Service) Role(ctx context.Context, id int) (Role, error) {
	return cache.Fetch(ctx, svc.cache, rolesKey+"_"+strconv.Itoa(id), svc.refTTL, func(ctx context.Context) (Role, error) {
		return svc.repo.GetRole(ctx, id)
	})
}

func (svc *Service) CreateRole(ctx context.Context, ri RoleInput) (Role, error) {
	role, err := svc.repo.CreateRole(ctx, ri)
	if err != nil {
		return Role{}, err
	}
	svc.cache.ClearPattern(ctx, rolesPattern)
	return role, nil
}

func (svc *Service) UpdateRole(ctx context.Context, id int, ri RoleInput) (Role, error) {
	role, err := svc.repo.UpdateRole(ctx, id, ri)
	if err != nil {
		return Role{}, err
	}
	svc.cache.ClearPattern(ctx, rolesPattern)
	return role, nil
}

func (svc *Service) DeleteRole(ctx context.Context, id int) error {
	if err := svc.repo.DeleteRole(ctx, id); err != nil {
		return err
	}
	svc.cache.ClearPattern(ctx, rolesPattern)
	return nil
}

func (svc *Service) Permissions(ctx context.Context) ([]Permission, error) {
	perms, err := cache.Fetch(ctx, svc.cache, permissionsKey, svc.refTTL, svc.repo.QueryAllPermissions)
	if err != nil {
		return nil, err
	}
	if perms == nil {
		perms = []Permission{}
	}
	return perms, nil
}
