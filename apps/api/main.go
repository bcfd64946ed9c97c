package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/faithpod/portal/apps/api/echo"
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
	"github.com/faithpod/portal/storage/database"
	sqlxrepos "github.com/faithpod/portal/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf, err := core.NewConfig()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	// set up DB (export audit log)
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			dbLogger.Fatal("Failed to close", err)
		}
	}()

	sealer, err := access.NewSealer(conf.SecretKey)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up token sealer: %v", err), err)
	}

	// set up the church API client & its response cache
	resolver := tenant.Resolver{
		DefaultTenant: conf.Tenancy.DefaultTenant,
		APIPort:       conf.Tenancy.APIPort,
		CentralAPIURL: conf.Tenancy.CentralAPIURL,
	}
	client := backend.NewClient(resolver, conf.Tenancy.RequestTimeout)
	respCache := cache.New(conf.Cache.TTL, conf.Cache.CleanupInterval)
	defer respCache.Close()

	// set up services
	var mailSvc core.EmailService
	if conf.Email.SendgridApiKey == "" {
		mailSvc = emailsvc.NewConsoleService(conf, logger, log.New(os.Stdout, "MAIL : ", log.LstdFlags))
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	renderers := map[report.Format]report.Renderer{
		report.XLSX: exportsvc.XLSXRenderer{},
		report.PDF:  exportsvc.PDFRenderer{LogoPath: conf.Reports.LogoPath},
	}

	accessSvc := access.NewService(backend.NewAccessRepository(client), respCache, conf.Cache.ReferenceTTL)
	memberSvc := member.NewService(backend.NewMemberRepository(client), respCache, conf.Cache.TTL, conf.Cache.ReferenceTTL)
	fellowshipSvc := fellowship.NewService(backend.NewFellowshipRepository(client), respCache, conf.Cache.TTL)
	treasurySvc := treasury.NewService(
		backend.NewTreasuryRepository(client),
		respCache,
		treasury.TTLs{
			Default:      conf.Cache.TTL,
			Reference:    conf.Cache.ReferenceTTL,
			Transactions: conf.Cache.TransactionsTTL,
		},
		treasury.DefaultPolling,
	)
	reportSvc := report.NewService(sqlxrepos.NewExportRepository(db), renderers, mailSvc, logger)
	tenantSvc := tenant.NewService(
		backend.NewCentralRepository(client),
		backend.NewInfoRepository(client),
		respCache,
		conf.Cache.ReferenceTTL,
	)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	access.InitValidators(validate, translator)
	treasury.InitValidators(validate)
	tenant.InitValidators(validate, translator)

	core.ParseEmailTemplates(assets.FS, assets.EmailTemplatesDir, !conf.Debug, logger)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:          conf,
			Logger:        logger,
			Resolver:      resolver,
			Sealer:        sealer,
			AccessSvc:     accessSvc,
			MemberSvc:     memberSvc,
			FellowshipSvc: fellowshipSvc,
			TreasurySvc:   treasurySvc,
			ReportSvc:     reportSvc,
			TenantSvc:     tenantSvc,
			Validate:      validate,
			Translator:    translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(context.Background(), db, "up"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
