package echoapi

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faithpod/portal/core/access"
)

const userJSON = `{
	"id": 7,
	"first_name": "Jane",
	"last_name": "Wanjiku",
	"email": "jane@grace.org",
	"role": {"id": 2, "name": "treasurer", "permissions": [{"id": 1, "name": "can_view_contributions"}]}
}`

func decodeLogin(t *testing.T, body []byte) (string, map[string]interface{}) {
	t.Helper()
	var resp struct {
		Token string                 `json:"token"`
		User  map[string]interface{} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp.Token, resp.User
}

func TestAccessAPI_Login(t *testing.T) {
	env := setup(t)
	env.api.Handle(http.MethodPost, "/api/login", http.StatusOK, `{"token": "abc", "user": `+userJSON+`}`)

	req, rec := newRequest(http.MethodPost, "/v1/auth/login", []byte(`{"email": " Jane@Grace.org ", "password": "secret"}`))
	env.serve(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	token, usr := decodeLogin(t, rec.Body.Bytes())
	assert.Equal(t, "Jane", usr["first_name"])

	claims, err := env.tokens.parse(token)
	require.NoError(t, err)
	assert.Equal(t, "7", claims.Subject)
	assert.Equal(t, scopeTenant, claims.Scope)
	assert.Equal(t, testTenant, claims.Tenant)
	assert.Equal(t, "Jane Wanjiku", claims.Name)
	assert.Equal(t, "treasurer", claims.Role)
	assert.Equal(t, []string{access.CanViewContributions}, claims.Permissions)
	assert.Equal(t, claims.IssuedAt.Unix(), claims.OrigIssuedAt)

	bt, err := env.tokens.backendToken(*claims)
	require.NoError(t, err)
	assert.Equal(t, "abc", bt)

	call, ok := env.api.LastCall(http.MethodPost, "/api/login")
	require.True(t, ok)
	assert.Equal(t, testTenant, call.Tenant)
	assert.JSONEq(t, `{"email": "jane@grace.org", "password": "secret"}`, call.Body)
}

func TestAccessAPI_LoginFetchesUser(t *testing.T) {
	env := setup(t)
	env.api.Handle(http.MethodPost, "/api/login", http.StatusOK, `{"token": "abc", "user": {}}`)
	env.api.Handle(http.MethodGet, "/api/user", http.StatusOK, userJSON)

	req, rec := newRequest(http.MethodPost, "/v1/auth/login", []byte(`{"email": "jane@grace.org", "password": "secret"}`))
	env.serve(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	token, _ := decodeLogin(t, rec.Body.Bytes())
	claims, err := env.tokens.parse(token)
	require.NoError(t, err)
	assert.Equal(t, "7", claims.Subject)

	call, ok := env.api.LastCall(http.MethodGet, "/api/user")
	require.True(t, ok)
	assert.Equal(t, "Bearer abc", call.Auth)
}

func TestAccessAPI_LoginFailures(t *testing.T) {
	env := setup(t)
	env.api.Handle(http.MethodPost, "/api/login", http.StatusUnauthorized, `{"message": "Invalid credentials"}`)

	env.run(t, []httpTest{
		{
			name:     "bad credentials",
			method:   http.MethodPost,
			path:     "/v1/auth/login",
			body:     []byte(`{"email": "jane@grace.org", "password": "wrong"}`),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name:     "invalid data",
			method:   http.MethodPost,
			path:     "/v1/auth/login",
			body:     []byte(`{"email": "jane", "password": ""}`),
			wantCode: http.StatusBadRequest,
		},
	})
}

func TestAccessAPI_CentralHostRejected(t *testing.T) {
	env := setup(t)

	req, rec := newRequest(http.MethodPost, "/v1/auth/login", []byte(`{"email": "jane@grace.org", "password": "secret"}`))
	env.serveCentral(req, rec)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusNotFound,
		wantData: marshalObj(t, httpErr{Error: "organization not found"}),
	}, rec)
	assert.Empty(t, env.api.Calls())
}

func TestAccessAPI_Session(t *testing.T) {
	env := setup(t)
	env.api.Handle(http.MethodGet, "/api/user", http.StatusOK, userJSON)
	usr := newUser(7)
	token := env.getToken(t, usr)

	env.run(t, []httpTest{
		{
			name:     "missing token",
			method:   http.MethodGet,
			path:     "/v1/auth/user",
			wantCode: http.StatusUnauthorized,
			wantData: marshalObj(t, errMissingTokenResp),
		},
		{
			name:     "garbage token",
			method:   http.MethodGet,
			path:     "/v1/auth/user",
			token:    "not.a.jwt",
			wantCode: http.StatusUnauthorized,
			wantData: marshalObj(t, httpErr{Error: "invalid or expired jwt"}),
		},
		{
			name:     "other tenant",
			method:   http.MethodGet,
			path:     "/v1/auth/user",
			token:    env.getToken(t, usr, "other"),
			wantCode: http.StatusForbidden,
		},
		{
			name:     "central session",
			method:   http.MethodGet,
			path:     "/v1/auth/user",
			token:    env.getAdminToken(t),
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "current user",
			method:   http.MethodGet,
			path:     "/v1/auth/user",
			token:    token,
			wantCode: http.StatusOK,
			wantData: []byte(userJSON),
		},
	})

	call, ok := env.api.LastCall(http.MethodGet, "/api/user")
	require.True(t, ok)
	assert.Equal(t, "Bearer "+backendToken, call.Auth)
	assert.Equal(t, 1, env.api.CountCalls(http.MethodGet, "/api/user"))
}

func TestAccessAPI_ExpiredToken(t *testing.T) {
	env := setup(t)
	env.tokens.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token := env.getToken(t, newUser(7))

	req, rec := newAuthRequest(http.MethodGet, "/v1/auth/user", token)
	env.serve(req, rec)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAccessAPI_RefreshToken(t *testing.T) {
	env := setup(t)
	env.api.Handle(http.MethodGet, "/api/user", http.StatusOK, userJSON)

	usr := newUser(7)
	claims, err := env.tokens.userClaims(usr, testTenant, backendToken, time.Now().Add(-time.Hour).Unix())
	require.NoError(t, err)
	token, err := env.tokens.generate(claims)
	require.NoError(t, err)

	req, rec := newAuthRequest(http.MethodPost, "/v1/auth/token-refresh", token)
	env.serve(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	newToken, _ := decodeLogin(t, rec.Body.Bytes())
	newClaims, err := env.tokens.parse(newToken)
	require.NoError(t, err)
	assert.Equal(t, claims.OrigIssuedAt, newClaims.OrigIssuedAt)
	assert.Equal(t, []string{access.CanViewContributions}, newClaims.Permissions)

	bt, err := env.tokens.backendToken(*newClaims)
	require.NoError(t, err)
	assert.Equal(t, backendToken, bt)
}

func TestAccessAPI_RefreshExpired(t *testing.T) {
	env := setup(t)
	claims, err := env.tokens.userClaims(newUser(7), testTenant, backendToken, time.Now().Add(-48*time.Hour).Unix())
	require.NoError(t, err)
	token, err := env.tokens.generate(claims)
	require.NoError(t, err)

	req, rec := newAuthRequest(http.MethodPost, "/v1/auth/token-refresh", token)
	env.serve(req, rec)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusForbidden,
		wantData: marshalObj(t, httpErr{Error: "refresh has expired"}),
	}, rec)
}

func TestAccessAPI_Logout(t *testing.T) {
	env := setup(t)
	env.api.Handle(http.MethodPost, "/api/logout", http.StatusUnauthorized, `{"message": "Unauthenticated."}`)

	req, rec := newAuthRequest(http.MethodPost, "/v1/auth/logout", env.getToken(t, newUser(7)))
	env.serve(req, rec)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAccessAPI_LogoutEndsSession(t *testing.T) {
	env := setup(t)
	env.api.Handle(http.MethodGet, "/api/users", http.StatusOK, membersJSON)
	env.api.Handle(http.MethodPost, "/api/logout", http.StatusNoContent, "")
	token := env.getToken(t, newUser(7, access.CanViewUsers))
	other := env.getToken(t, newUser(8, access.CanViewUsers))

	req, rec := newAuthRequest(http.MethodGet, "/v1/members", token)
	env.serve(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	req, rec = newAuthRequest(http.MethodPost, "/v1/auth/logout", token)
	env.serve(req, rec)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	// the member list is cached, the old token must not reach it
	for _, path := range []string{"/v1/members", "/v1/auth/token-refresh"} {
		method := http.MethodGet
		if path == "/v1/auth/token-refresh" {
			method = http.MethodPost
		}
		req, rec = newAuthRequest(method, path, token)
		env.serve(req, rec)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusUnauthorized,
			wantData: marshalObj(t, httpErr{Error: "invalid or expired jwt"}),
		}, rec)
	}

	// other sessions are untouched
	req, rec = newAuthRequest(http.MethodGet, "/v1/members", other)
	env.serve(req, rec)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, env.api.CountCalls(http.MethodGet, "/api/users"))
}

func TestTokens_revoke(t *testing.T) {
	env := setup(t)
	now := time.Now()
	env.tokens.now = func() time.Time { return now }

	claims, err := env.tokens.userClaims(newUser(7), testTenant, backendToken)
	require.NoError(t, err)
	require.NotEmpty(t, claims.ID)
	token, err := env.tokens.generate(claims)
	require.NoError(t, err)

	env.tokens.revoke(*claims)
	_, err = env.tokens.parse(token)
	assert.Equal(t, errInvalidToken, err)
	assert.Len(t, env.tokens.revoked.ids, 1)

	// expired revocations are dropped on the next one
	now = now.Add(2 * time.Hour)
	next, err := env.tokens.userClaims(newUser(8), testTenant, backendToken)
	require.NoError(t, err)
	env.tokens.revoke(*next)
	assert.Len(t, env.tokens.revoked.ids, 1)
	assert.Contains(t, env.tokens.revoked.ids, next.ID)
}

func TestAccessAPI_SendResetLink(t *testing.T) {
	env := setup(t)
	env.api.Handle(http.MethodPost, "/api/password/email", http.StatusNotFound, `{"message": "We can't find a user with that email address."}`)

	req, rec := newRequest(http.MethodPost, "/v1/auth/password/email", []byte(`{"email": "nobody@grace.org"}`))
	env.serve(req, rec)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusOK,
		wantData: marshalObj(t, SuccessResponse{Success: resetLinkSent}),
	}, rec)
}

func TestAccessAPI_Roles(t *testing.T) {
	env := setup(t)
	env.api.Handle(http.MethodGet, "/api/roles", http.StatusOK, `[{"id": 1, "name": "admin"}]`)
	env.api.Handle(http.MethodDelete, "/api/roles/1", http.StatusNoContent, "")

	viewer := env.getToken(t, newUser(7, access.CanViewRoles))
	editor := env.getToken(t, newUser(8, access.CanViewRoles, access.CanEditRole))

	env.run(t, []httpTest{
		{
			name:     "no permission",
			method:   http.MethodGet,
			path:     "/v1/roles",
			token:    env.getToken(t, newUser(9)),
			wantCode: http.StatusForbidden,
			wantData: marshalObj(t, errForbidden),
		},
		{
			name:     "list",
			method:   http.MethodGet,
			path:     "/v1/roles",
			token:    viewer,
			wantCode: http.StatusOK,
			wantData: []byte(`[{"id": 1, "name": "admin"}]`),
		},
		{
			name:     "delete without permission",
			method:   http.MethodDelete,
			path:     "/v1/roles/1",
			token:    viewer,
			wantCode: http.StatusForbidden,
		},
		{
			name:     "delete",
			method:   http.MethodDelete,
			path:     "/v1/roles/1",
			token:    editor,
			wantCode: http.StatusNoContent,
		},
		{
			name:     "bad id",
			method:   http.MethodDelete,
			path:     "/v1/roles/abc",
			token:    editor,
			wantCode: http.StatusNotFound,
		},
	})
}
