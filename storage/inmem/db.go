// Package inmemdb keeps tables in process memory.
package inmemdb

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/specedu/caseboard/core/sheet"
)

var errRowOutOfRange = errors.New("row index out of range")

// DB is an in-memory sheet.TableService.
type DB struct {
	mutex  sync.RWMutex
	tables map[string][][]string
}

var _ sheet.TableService = (*DB)(nil)

// New returns an empty DB. headers seeds tables with their header row.
func New(headers map[string][]string) *DB {
	db := &DB{tables: make(map[string][][]string, len(headers))}
	for table, header := range headers {
		db.tables[table] = [][]string{copyRow(header)}
	}
	return db
}

func copyRow(row []string) []string {
	out := make([]string, len(row))
	copy(out, row)
	return out
}

func (db *DB) ReadTable(_ context.Context, table string) ([][]string, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	rows := db.tables[table]
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, copyRow(row))
	}
	return out, nil
}

func (db *DB) ReadHeader(_ context.Context, table string) ([]string, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	if rows := db.tables[table]; len(rows) > 0 {
		return copyRow(rows[0]), nil
	}
	return []string{}, nil
}

func (db *DB) AppendRow(_ context.Context, table string, row []string) error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	db.tables[table] = append(db.tables[table], copyRow(row))
	return nil
}

func (db *DB) WriteRow(_ context.Context, table string, index int, row []string) error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	rows := db.tables[table]
	switch {
	case index < 0 || index > len(rows):
		return errors.Wrapf(errRowOutOfRange, "%s[%d]", table, index)
	case index == len(rows):
		db.tables[table] = append(rows, copyRow(row))
	default:
		rows[index] = copyRow(row)
	}
	return nil
}

// Reset drops every data row, keeping headers.
func (db *DB) Reset() {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	for table, rows := range db.tables {
		if len(rows) > 0 {
			db.tables[table] = rows[:1]
		} else {
			delete(db.tables, table)
		}
	}
}
