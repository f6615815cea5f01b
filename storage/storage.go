// Package storage opens the configured table backend.
package storage

import (
	"context"

	"github.com/pkg/errors"

	"github.com/specedu/caseboard/core"
	"github.com/specedu/caseboard/core/sheet"
	googlesvc "github.com/specedu/caseboard/services/google"
	"github.com/specedu/caseboard/storage/database"
	inmemdb "github.com/specedu/caseboard/storage/inmem"
	sheetsdb "github.com/specedu/caseboard/storage/sheets"
)

// Backends
const (
	BackendSheets   = "sheets"
	BackendDatabase = "database"
	BackendInmem    = "inmem"
)

func noop() error { return nil }

// Open returns the table service of the configured backend and a func releasing it.
// The database backend is created and migrated on the way.
func Open(ctx context.Context, conf *core.Config) (sheet.TableService, func() error, error) {
	switch conf.Storage.Backend {
	case BackendSheets:
		opts, err := googlesvc.ClientOptions(conf, googlesvc.ScopeSpreadsheets)
		if err != nil {
			return nil, noop, err
		}
		tables, err := sheetsdb.New(ctx, conf.Storage.SpreadsheetID, opts...)
		return tables, noop, err
	case BackendDatabase:
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, noop, err
		}
		db, err := database.Open(conf)
		if err != nil {
			return nil, noop, err
		}
		if err = database.Migrate(ctx, db.DB); err != nil {
			_ = db.Close()
			return nil, noop, err
		}
		return database.NewTables(db), db.Close, nil
	case BackendInmem:
		return inmemdb.New(sheet.Headers), noop, nil
	default:
		return nil, noop, errors.Errorf("unknown storage backend %q", conf.Storage.Backend)
	}
}
