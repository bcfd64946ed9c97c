package main

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/faithpod/portal/core"
	"github.com/faithpod/portal/core/cache"
	"github.com/faithpod/portal/core/tenant"
	"github.com/faithpod/portal/storage/backend"
	"github.com/faithpod/portal/storage/database"
	sqlxrepos "github.com/faithpod/portal/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf, err := core.NewConfig()
	errAndDie(err)

	// set up DB
	errAndDie(database.CreateIfNotExist(conf))
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()

	// central API client
	resolver := tenant.Resolver{
		DefaultTenant: conf.Tenancy.DefaultTenant,
		APIPort:       conf.Tenancy.APIPort,
		CentralAPIURL: conf.Tenancy.CentralAPIURL,
	}
	client := backend.NewClient(resolver, conf.Tenancy.RequestTimeout)
	c := cache.New(conf.Cache.TTL, 0)
	defer c.Close()

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	tenant.InitValidators(validate, translator)

	// start CLI
	cli := commandLine{
		db:        db,
		resolver:  resolver,
		tenantSvc: tenant.NewService(backend.NewCentralRepository(client), backend.NewInfoRepository(client), c, conf.Cache.ReferenceTTL),
		exports:   sqlxrepos.NewExportRepository(db),
		validate:  validate,
		out:       os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		_ = db.Close()
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
