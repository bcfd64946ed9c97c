package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"golang.org/x/time/rate"

	"github.com/faithpod/portal/core"
	"github.com/faithpod/portal/core/access"
	"github.com/faithpod/portal/core/fellowship"
	"github.com/faithpod/portal/core/member"
	"github.com/faithpod/portal/core/report"
	"github.com/faithpod/portal/core/tenant"
	"github.com/faithpod/portal/core/treasury"
)

type (
	ServerDeps struct {
		Conf          *core.Config
		Logger        core.Logger
		Resolver      tenant.Resolver
		Sealer        *access.Sealer
		AccessSvc     *access.Service
		MemberSvc     *member.Service
		FellowshipSvc *fellowship.Service
		TreasurySvc   *treasury.Service
		ReportSvc     *report.Service
		TenantSvc     *tenant.Service
		Validate      *validator.Validate
		Translator    ut.Translator
	}

	Server struct {
		app      *echo.Echo
		deps     ServerDeps
		shutdown chan os.Signal
		errors   chan error
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		app:      echo.New(),
		deps:     deps,
		shutdown: make(chan os.Signal, 1),
		errors:   make(chan error, 1),
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: conf.Server.AllowOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	s.app.Use(middleware.RequestID())
	s.app.Use(tenantMiddleware(s.deps.Resolver))

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug
	s.app.Server.ReadTimeout = conf.Server.ReadTimeout
	s.app.Server.WriteTimeout = conf.Server.WriteTimeout

	tk := newTokens(conf, s.deps.Sealer)
	limiter := loginLimiter(conf.Server.LoginRateLimit)
	tenantAPI := newTenantApi(s.deps.TenantSvc, tk, s.deps.Logger, s.deps.Validate)

	s.app.GET("/", home)
	s.app.GET("/theme.css", tenantAPI.themeCSS)

	v1 := s.app.Group("/v1", requireTenant)
	auth := authMiddleware(tk, scopeTenant)

	registerAccessAPI(v1, auth, limiter, tk, s.deps.AccessSvc, s.deps.Logger, s.deps.Validate)
	registerTenantAPI(v1, tenantAPI)
	registerMemberAPI(v1, auth, s.deps.MemberSvc, s.deps.Validate)
	registerFellowshipAPI(v1, auth, s.deps.FellowshipSvc, s.deps.Validate)
	registerTreasuryAPI(v1, auth, s.deps.TreasurySvc, s.deps.Validate)
	registerDashboardAPI(v1, auth, s.deps.MemberSvc, s.deps.FellowshipSvc, s.deps.TreasurySvc)
	registerReportAPI(v1, auth, conf, s.deps.ReportSvc, s.deps.TreasurySvc, s.deps.TenantSvc, s.deps.Logger, s.deps.Validate)

	central := s.app.Group("/central", requireCentral)
	registerCentralAPI(central, limiter, tenantAPI)
}

// loginLimiter throttles credential endpoints per client IP; a non-positive limit disables it.
func loginLimiter(limit float64) echo.MiddlewareFunc {
	if limit <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStore(rate.Limit(limit)),
	})
}

func (s *Server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	if err := s.app.Start(s.deps.Conf.Server.Addr); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Faithpod API!")
}
