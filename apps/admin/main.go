package main

import (
	"context"
	"database/sql"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/specedu/caseboard/core"
	"github.com/specedu/caseboard/core/user"
	logsvc "github.com/specedu/caseboard/services/logger"
	"github.com/specedu/caseboard/storage"
	"github.com/specedu/caseboard/storage/database"
)

func main() {
	conf := core.NewConfig()
	stdLogger := log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(false)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// set up tables
	tables, closeTables, err := storage.Open(context.Background(), conf)
	if err != nil {
		logger.Fatal("opening storage", err)
	}

	// start CLI
	cli := commandLine{
		tables:     tables,
		usrSvc:     user.NewService(tables, conf, logger),
		validate:   validate,
		translator: translator,
		openDB: func() (*sql.DB, error) {
			db, err := database.Open(conf)
			if err != nil {
				return nil, err
			}
			return db.DB, nil
		},
	}
	err = cli.run(os.Args)
	_ = closeTables()
	if err != nil {
		if err != errHelp {
			stdLogger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
