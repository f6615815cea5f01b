package main

import (
	"context"

	"github.com/specedu/caseboard/storage/database"
)

var gooseRunFunc = database.RunMigrations // mockable

func (cli *commandLine) migrate(ctx context.Context, args []string) error {
	db, err := cli.openDB()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return gooseRunFunc(ctx, args[0], db, arguments...)
}
