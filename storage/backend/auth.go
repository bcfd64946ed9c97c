package backend

import (
	"context"
	"net/http"
	"strconv"

	"github.com/pkg/errors"

	"github.com/faithpod/portal/core"
	"github.com/faithpod/portal/core/access"
)

var errEmailTaken = core.NewValidationError(nil, core.FieldError{
	Field: "email",
	Error: "Email already exists. Please use a different email",
})

// AccessRepository implements access.Repository.
type AccessRepository struct {
	*Client
}

func NewAccessRepository(c *Client) *AccessRepository {
	return &AccessRepository{Client: c}
}

func (r *AccessRepository) Login(ctx context.Context, creds access.Credentials) (access.Session, error) {
	sess, err := sendJSON[access.Session](ctx, r.Client, http.MethodPost, r.apipath(ctx, "login"), creds)
	if err != nil {
		return access.Session{}, err
	}
	if sess.Token == "" {
		return access.Session{}, errors.New("login answered without a token")
	}
	return sess, nil
}

func (r *AccessRepository) Register(ctx context.Context, reg access.Registration) error {
	return r.do(ctx, http.MethodPost, r.apipath(ctx, "register"), reg, nil, ErrorFor{http.StatusConflict: errEmailTaken})
}

func (r *AccessRepository) Logout(ctx context.Context) error {
	return r.do(ctx, http.MethodPost, r.apipath(ctx, "logout"), struct{}{}, nil, nil)
}

func (r *AccessRepository) CurrentUser(ctx context.Context) (access.User, error) {
	return getJSON[access.User](ctx, r.Client, r.apipath(ctx, "user"))
}

func (r *AccessRepository) UpdateInfo(ctx context.Context, pu access.ProfileUpdate) (access.User, error) {
	return sendJSON[access.User](ctx, r.Client, http.MethodPut, r.apipath(ctx, "users", "info"), pu)
}

func (r *AccessRepository) UpdatePassword(ctx context.Context, pc access.PasswordChange) error {
	return r.do(ctx, http.MethodPut, r.apipath(ctx, "users", "password"), pc, nil, nil)
}

func (r *AccessRepository) VerifyEmail(ctx context.Context, id, hash string) error {
	return r.do(ctx, http.MethodGet, r.apipath(ctx, "email", "verify", id, hash), nil, nil, nil)
}

func (r *AccessRepository) ResendVerification(ctx context.Context) error {
	return r.do(ctx, http.MethodPost, r.apipath(ctx, "email", "resend"), struct{}{}, nil, nil)
}

func (r *AccessRepository) SendResetLink(ctx context.Context, email string) error {
	body := access.PasswordResetRequest{Email: email}
	return r.do(ctx, http.MethodPost, r.apipath(ctx, "password", "email"), body, nil, nil)
}

func (r *AccessRepository) ResetPassword(ctx context.Context, pr access.PasswordReset) error {
	return r.do(ctx, http.MethodPost, r.apipath(ctx, "password", "reset"), pr, nil, nil)
}

func (r *AccessRepository) QueryAllRoles(ctx context.Context) ([]access.Role, error) {
	return getList[access.Role](ctx, r.Client, r.apipath(ctx, "roles"))
}

func (r *AccessRepository) GetRole(ctx context.Context, id int) (access.Role, error) {
	return getJSON[access.Role](ctx, r.Client, r.apipath(ctx, "roles", strconv.Itoa(id)))
}

func (r *AccessRepository) CreateRole(ctx context.Context, ri access.RoleInput) (access.Role, error) {
	return sendJSON[access.Role](ctx, r.Client, http.MethodPost, r.apipath(ctx, "roles"), ri)
}

func (r *AccessRepository) UpdateRole(ctx context.Context, id int, ri access.RoleInput) (access.Role, error) {
	return sendJSON[access.Role](ctx, r.Client, http.MethodPut, r.apipath(ctx, "roles", strconv.Itoa(id)), ri)
}

func (r *AccessRepository) DeleteRole(ctx context.Context, id int) error {
	return r.do(ctx, http.MethodDelete, r.apipath(ctx, "roles", strconv.Itoa(id)), nil, nil, nil)
}

func (r *AccessRepository) QueryAllPermissions(ctx context.Context) ([]access.Permission, error) {
	return getList[access.Permission](ctx, r.Client, r.apipath(ctx, "permissions"))
}
