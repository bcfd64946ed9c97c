package echoapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faithpod/portal/assets"
	"github.com/faithpod/portal/core"
	"github.com/faithpod/portal/core/access"
	"github.com/faithpod/portal/core/cache"
	"github.com/faithpod/portal/core/fellowship"
	"github.com/faithpod/portal/core/member"
	"github.com/faithpod/portal/core/report"
	"github.com/faithpod/portal/core/tenant"
	"github.com/faithpod/portal/core/treasury"
	emailsvc "github.com/faithpod/portal/services/email"
	exportsvc "github.com/faithpod/portal/services/export"
	logsvc "github.com/faithpod/portal/services/logger"
	"github.com/faithpod/portal/storage/backend"
	inmemdb "github.com/faithpod/portal/storage/database/inmem"
	"github.com/faithpod/portal/tests"
)

const (
	testTenant   = "grace"
	tenantHost   = "127.0.0.1"
	backendToken = "church-api-token"
)

var (
	errMissingTokenResp = httpErr{Error: "missing or malformed jwt"}
	errForbidden        = httpErr{Error: "permission denied"}
)

type testEnv struct {
	app     *Server
	api     *testutil.ChurchAPI
	conf    *core.Config
	tokens  *tokens
	mailSvc interface{ SentMessages() []core.EmailMessage }
	exports report.Repository
}

func testConfig() *core.Config {
	return &core.Config{
		Env:       "TEST",
		TestMode:  true,
		AppName:   "Faithpod",
		SecretKey: "secret",
		Server: core.ServerConfig{
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 24 * time.Hour,
			AllowOrigins:              []string{"*"},
		},
		Tenancy: core.TenancyConfig{
			DefaultTenant:  testTenant,
			RequestTimeout: 5 * time.Second,
		},
		Email: core.EmailConfig{
			DefaultFrom: "Faithpod <noreply@localhost>",
		},
		Reports: core.ReportsConfig{
			Organization: "KSDACHURCH",
			Currency:     "Ksh.",
		},
	}
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	api := testutil.NewChurchAPI(t)

	conf := testConfig()
	conf.Tenancy.APIPort = api.Port()
	conf.Tenancy.CentralAPIURL = api.URL() + "/api"

	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
	logger.Enable(false)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	access.InitValidators(validate, translator)
	treasury.InitValidators(validate)
	tenant.InitValidators(validate, translator)
	core.ParseEmailTemplates(assets.FS, assets.EmailTemplatesDir, false, logger)

	sealer, err := access.NewSealer(conf.SecretKey)
	require.NoError(t, err)

	resolver := tenant.Resolver{
		DefaultTenant: conf.Tenancy.DefaultTenant,
		APIPort:       conf.Tenancy.APIPort,
		CentralAPIURL: conf.Tenancy.CentralAPIURL,
	}
	client := backend.NewClient(resolver, conf.Tenancy.RequestTimeout)
	c := cache.New(time.Minute, 0)
	t.Cleanup(c.Close)

	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	exports := inmemdb.NewExportRepository()
	renderers := map[report.Format]report.Renderer{
		report.XLSX: exportsvc.XLSXRenderer{},
		report.PDF:  exportsvc.PDFRenderer{},
	}

	deps := ServerDeps{
		Conf:          conf,
		Logger:        logger,
		Resolver:      resolver,
		Sealer:        sealer,
		AccessSvc:     access.NewService(backend.NewAccessRepository(client), c, time.Minute),
		MemberSvc:     member.NewService(backend.NewMemberRepository(client), c, time.Minute, time.Minute),
		FellowshipSvc: fellowship.NewService(backend.NewFellowshipRepository(client), c, time.Minute),
		TreasurySvc: treasury.NewService(
			backend.NewTreasuryRepository(client),
			c,
			treasury.TTLs{Default: time.Minute, Reference: time.Minute, Transactions: time.Minute},
			treasury.Polling{Delay: time.Millisecond, Interval: time.Millisecond, Attempts: 2},
		),
		ReportSvc:  report.NewService(exports, renderers, mailSvc, logger),
		TenantSvc:  tenant.NewService(backend.NewCentralRepository(client), backend.NewInfoRepository(client), c, time.Minute),
		Validate:   validate,
		Translator: translator,
	}

	return &testEnv{
		app:     NewServer(deps),
		api:     api,
		conf:    conf,
		tokens:  newTokens(conf, sealer),
		mailSvc: mailSvc,
		exports: exports,
	}
}

// serve runs req against the gateway on the test tenant's host.
func (env *testEnv) serve(req *http.Request, rec *httptest.ResponseRecorder) {
	req.Host = tenantHost
	env.app.ServeHTTP(rec, req)
}

// serveCentral runs req against the gateway on the central domain.
func (env *testEnv) serveCentral(req *http.Request, rec *httptest.ResponseRecorder) {
	req.Host = "example.com"
	env.app.ServeHTTP(rec, req)
}

func newUser(id int, perms ...string) access.User {
	role := &access.Role{ID: 1, Name: "treasurer"}
	for i, p := range perms {
		role.Permissions = append(role.Permissions, access.Permission{ID: i + 1, Name: p})
	}
	return access.User{
		ID:        id,
		FirstName: "Jane",
		LastName:  "Wanjiku",
		Email:     "jane@grace.org",
		Role:      role,
	}
}

func (env *testEnv) getToken(t *testing.T, usr access.User, tenantID ...string) string {
	t.Helper()
	tid := testTenant
	if len(tenantID) > 0 {
		tid = tenantID[0]
	}
	claims, err := env.tokens.userClaims(usr, tid, backendToken)
	require.NoError(t, err)
	token, err := env.tokens.generate(claims)
	require.NoError(t, err)
	return token
}

func (env *testEnv) getAdminToken(t *testing.T) string {
	t.Helper()
	claims, err := env.tokens.adminClaims(tenant.Admin{ID: 1, Name: "Root", Email: "root@faithpod.org"}, backendToken)
	require.NoError(t, err)
	token, err := env.tokens.generate(claims)
	require.NoError(t, err)
	return token
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	return testutil.MarshalJSON(t, obj)
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, tt.wantCode, rec.Code, "body: %s", rec.Body.String())
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if assert.NoError(t, err, "body: %s", rec.Body.String()) {
		assert.True(t, ok, "data = %s; wantData %s", rec.Body.String(), string(tt.wantData))
	}
}

func (env *testEnv) run(t *testing.T, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			env.serve(req, rec)
			checkCodeAndData(t, tt, rec)
		})
	}
}
