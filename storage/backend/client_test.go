package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faithpod/portal/core"
	"github.com/faithpod/portal/core/access"
	"github.com/faithpod/portal/core/fellowship"
	"github.com/faithpod/portal/core/tenant"
	"github.com/faithpod/portal/core/treasury"
)

// recorded is what the fake church API saw.
type recorded struct {
	method string
	path   string
	auth   string
	tenant string
	body   string
}

func newAPI(t *testing.T, status int, answer string) (*Client, *recorded) {
	t.Helper()
	rec := new(recorded)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		*rec = recorded{
			method: r.Method,
			path:   r.URL.EscapedPath(),
			auth:   r.Header.Get("Authorization"),
			tenant: r.Header.Get(tenantHeader),
			body:   string(body),
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, answer)
	}))
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	resolver := tenant.Resolver{APIPort: u.Port()}
	return NewClient(resolver, 5*time.Second), rec
}

func tenantCtx(id, token string) context.Context {
	ctx := tenant.WithContext(context.Background(), tenant.Context{ID: id, Host: "127.0.0.1", Scheme: "http"})
	if token != "" {
		ctx = access.WithToken(ctx, token)
	}
	return ctx
}

func TestClient_Headers(t *testing.T) {
	c, rec := newAPI(t, http.StatusOK, `[{"id": 1, "name": "admin"}]`)
	roles, err := NewAccessRepository(c).QueryAllRoles(tenantCtx("karen", "tkn"))
	require.NoError(t, err)

	assert.Equal(t, []access.Role{{ID: 1, Name: "admin"}}, roles)
	assert.Equal(t, http.MethodGet, rec.method)
	assert.Equal(t, "/api/roles", rec.path)
	assert.Equal(t, "Bearer tkn", rec.auth)
	assert.Equal(t, "karen", rec.tenant)
}

func TestClient_NoTenantNoToken(t *testing.T) {
	c, rec := newAPI(t, http.StatusOK, `{"token": "abc", "user": {"id": 3, "email": "jo@x.com"}}`)
	sess, err := NewAccessRepository(c).Login(tenantCtx("", ""), access.Credentials{Email: "jo@x.com", Password: "pwd"})
	require.NoError(t, err)

	assert.Equal(t, "abc", sess.Token)
	assert.Equal(t, 3, sess.User.ID)
	assert.Empty(t, rec.auth)
	assert.Empty(t, rec.tenant)
	assert.JSONEq(t, `{"email": "jo@x.com", "password": "pwd"}`, rec.body)
}

func TestClient_LoginWithoutToken(t *testing.T) {
	c, _ := newAPI(t, http.StatusOK, `{"user": {"id": 3}}`)
	_, err := NewAccessRepository(c).Login(tenantCtx("karen", ""), access.Credentials{})
	assert.Error(t, err)
}

func TestClient_NullList(t *testing.T) {
	c, _ := newAPI(t, http.StatusOK, `null`)
	members, err := NewMemberRepository(c).QueryAllMembers(tenantCtx("karen", "tkn"))
	require.NoError(t, err)
	assert.NotNil(t, members)
	assert.Len(t, members, 0)
}

func TestClient_EmptySuccess(t *testing.T) {
	c, rec := newAPI(t, http.StatusNoContent, "")
	require.NoError(t, NewMemberRepository(c).DeleteMember(tenantCtx("karen", "tkn"), 7))
	assert.Equal(t, http.MethodDelete, rec.method)
	assert.Equal(t, "/api/users/7", rec.path)
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	u, _ := url.Parse(srv.URL)
	srv.Close()

	c := NewClient(tenant.Resolver{APIPort: u.Port()}, time.Second)
	_, err := NewMemberRepository(c).GenderCount(tenantCtx("karen", "tkn"))
	assert.Equal(t, core.ErrUnavailable, errors.Cause(err))
}

func TestClient_CancelledContext(t *testing.T) {
	c, _ := newAPI(t, http.StatusOK, `{}`)
	ctx, cancel := context.WithCancel(tenantCtx("karen", "tkn"))
	cancel()
	_, err := NewMemberRepository(c).GenderCount(ctx)
	assert.Equal(t, context.Canceled, errors.Cause(err))
}

func TestStatusError(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"tenant 401", http.StatusUnauthorized, `{"message": "Invalid tenant"}`, core.ErrTenantAccess},
		{"organization 403", http.StatusForbidden, `{"message": "Your Organization is suspended"}`, core.ErrTenantAccess},
		{"unauthorized", http.StatusUnauthorized, `{"message": "Unauthenticated."}`, core.ErrUnauthorized},
		{"forbidden", http.StatusForbidden, `{"message": "This action is unauthorized."}`, core.ErrForbidden},
		{"not found", http.StatusNotFound, `{"message": "No query results"}`, core.ErrNotFound},
		{"server error", http.StatusInternalServerError, `oops`, core.ErrUnavailable},
		{"bad gateway", http.StatusBadGateway, ``, core.ErrUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := statusError(tt.status, []byte(tt.body))
			assert.Equal(t, tt.want, errors.Cause(err))
		})
	}
}

func TestStatusError_Validation(t *testing.T) {
	body := `{
		"message": "The given data was invalid.",
		"errors": {
			"phone_number": ["The phone number format is invalid."],
			"email": ["The email has already been taken.", "The email must be valid."]
		}
	}`
	err := statusError(http.StatusUnprocessableEntity, []byte(body))

	vErr, ok := errors.Cause(err).(*core.ValidationError)
	require.True(t, ok)
	assert.Equal(t, "The given data was invalid.", vErr.Error())
	assert.Equal(t, []core.FieldError{
		{Field: "email", Error: "The email has already been taken."},
		{Field: "phone_number", Error: "The phone number format is invalid."},
	}, vErr.Fields)

	err = statusError(http.StatusBadRequest, []byte("plain text"))
	vErr, ok = errors.Cause(err).(*core.ValidationError)
	require.True(t, ok)
	assert.Equal(t, "plain text", vErr.Error())
	assert.Nil(t, vErr.Fields)
}

func TestAccessRepository_RegisterConflict(t *testing.T) {
	c, rec := newAPI(t, http.StatusConflict, `{"message": "duplicate"}`)
	err := NewAccessRepository(c).Register(tenantCtx("karen", ""), access.Registration{Email: "jo@x.com"})
	assert.Equal(t, errEmailTaken, err)
	assert.Equal(t, "/api/register", rec.path)
}

func TestAccessRepository_Paths(t *testing.T) {
	c, rec := newAPI(t, http.StatusOK, `{}`)
	repo := NewAccessRepository(c)
	ctx := tenantCtx("karen", "tkn")

	tests := []struct {
		call   func() error
		method string
		path   string
	}{
		{func() error { return repo.Logout(ctx) }, http.MethodPost, "/api/logout"},
		{func() error { _, err := repo.CurrentUser(ctx); return err }, http.MethodGet, "/api/user"},
		{func() error { _, err := repo.UpdateInfo(ctx, access.ProfileUpdate{}); return err }, http.MethodPut, "/api/users/info"},
		{func() error { return repo.UpdatePassword(ctx, access.PasswordChange{}) }, http.MethodPut, "/api/users/password"},
		{func() error { return repo.VerifyEmail(ctx, "12", "ab/c") }, http.MethodGet, "/api/email/verify/12/ab%2Fc"},
		{func() error { return repo.ResendVerification(ctx) }, http.MethodPost, "/api/email/resend"},
		{func() error { return repo.SendResetLink(ctx, "jo@x.com") }, http.MethodPost, "/api/password/email"},
		{func() error { return repo.ResetPassword(ctx, access.PasswordReset{}) }, http.MethodPost, "/api/password/reset"},
		{func() error { _, err := repo.GetRole(ctx, 2); return err }, http.MethodGet, "/api/roles/2"},
		{func() error { _, err := repo.UpdateRole(ctx, 2, access.RoleInput{}); return err }, http.MethodPut, "/api/roles/2"},
		{func() error { return repo.DeleteRole(ctx, 2) }, http.MethodDelete, "/api/roles/2"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			require.NoError(t, tt.call())
			assert.Equal(t, tt.method, rec.method)
			assert.Equal(t, tt.path, rec.path)
		})
	}
}

func TestFellowshipRepository_Kinds(t *testing.T) {
	c, rec := newAPI(t, http.StatusOK, `[{"id": 1, "name": "Zion"}]`)
	repo := NewFellowshipRepository(c)
	ctx := tenantCtx("karen", "tkn")

	_, err := repo.QueryAllUnits(ctx, fellowship.Prayercells)
	require.NoError(t, err)
	assert.Equal(t, "/api/prayercells", rec.path)

	_, err = repo.QueryAllUnits(ctx, fellowship.Groups)
	require.NoError(t, err)
	assert.Equal(t, "/api/groups", rec.path)

	_, err = repo.QueryAllUnits(ctx, fellowship.Kind("choirs"))
	assert.Error(t, err)
}

func TestTreasuryRepository_Paybill(t *testing.T) {
	c, _ := newAPI(t, http.StatusOK, `{"success": true, "data": [{"id": 1, "trans_id": "QW12", "amount": "150.50"}]}`)
	txs, err := NewTreasuryRepository(c).QueryAllPaybillTransactions(tenantCtx("karen", "tkn"))
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "QW12", txs[0].TransID)
	assert.Equal(t, "150.5", txs[0].Amount.String())

	c, _ = newAPI(t, http.StatusOK, `{"success": false, "message": "mpesa is not configured"}`)
	_, err = NewTreasuryRepository(c).QueryAllPaybillTransactions(tenantCtx("karen", "tkn"))
	assert.EqualError(t, err, "mpesa is not configured")
}

func TestTreasuryRepository_AddContributions(t *testing.T) {
	c, rec := newAPI(t, http.StatusCreated, `{"message": "ok"}`)
	cb := treasury.ContributionBatch{Contributions: []treasury.ContributionInput{
		{UserID: 4, ContributionTypeID: 2, ContributionDate: "2024-03-01"},
	}}
	require.NoError(t, NewTreasuryRepository(c).AddMpesaContributions(tenantCtx("karen", "tkn"), cb))
	assert.Equal(t, "/api/add-mpesa-contributions", rec.path)

	var sent treasury.ContributionBatch
	require.NoError(t, json.Unmarshal([]byte(rec.body), &sent))
	assert.Equal(t, 4, sent.Contributions[0].UserID)
}

func TestCentralRepository(t *testing.T) {
	c, rec := newAPI(t, http.StatusOK, `{"colors": {"primaryColor": "#000000"}, "links": []}`)
	repo := NewCentralRepository(c)
	ctx := tenantCtx("", "admin-tkn")

	theme, err := repo.GetThemeConfig(ctx, "karen")
	require.NoError(t, err)
	assert.Equal(t, "#000000", theme.Colors.PrimaryColor)
	assert.Equal(t, "/api/tenants/karen/theme-config", rec.path)
	assert.Equal(t, "Bearer admin-tkn", rec.auth)
	assert.Empty(t, rec.tenant)
}

func TestCentralRepository_URL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/central/api/tenants", r.URL.Path)
		_, _ = io.WriteString(w, `[{"id": "karen", "name": "Karen SDA"}]`)
	}))
	defer srv.Close()

	c := NewClient(tenant.Resolver{CentralAPIURL: srv.URL + "/central/api/"}, time.Second)
	tenants, err := NewCentralRepository(c).QueryAllTenants(tenantCtx("", "tkn"))
	require.NoError(t, err)
	assert.Equal(t, []tenant.Tenant{{ID: "karen", Name: "Karen SDA"}}, tenants)
}
