package main

import (
	"context"

	"github.com/faithpod/portal/storage/database"
)

var migrateFunc = database.Migrate // mockable

func (cli *commandLine) migrate(args []string) error {
	return migrateFunc(context.Background(), cli.db, args[0], args[1:]...)
}
