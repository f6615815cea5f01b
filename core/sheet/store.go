package sheet

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/specedu/caseboard/core"
)

// TableService is the external tabular service holding every table.
//
// Rows are addressed by their absolute 0-based position, the header being row 0.
type TableService interface {
	// ReadTable returns every row of the table, header included. An empty table returns no rows.
	ReadTable(ctx context.Context, table string) ([][]string, error)
	// ReadHeader returns the first row of the table.
	ReadHeader(ctx context.Context, table string) ([]string, error)
	// AppendRow adds row after the last row of the table.
	AppendRow(ctx context.Context, table string, row []string) error
	// WriteRow overwrites the row at index.
	WriteRow(ctx context.Context, table string, index int, row []string) error
}

// Store reads and writes records of one table.
//
// FindAndUpdate is a read-modify-write without any lock: two concurrent updates of
// the same table may lose one of the writes. Tables are small and writers few.
type Store struct {
	svc    TableService
	table  string
	logger core.Logger
}

func NewStore(svc TableService, table string, logger core.Logger) *Store {
	return &Store{svc: svc, table: table, logger: logger}
}

// Table returns the table name.
func (s *Store) Table() string { return s.table }

// ReadAll returns every record of the table, in table order.
// Read failures are logged and yield no records.
func (s *Store) ReadAll(ctx context.Context) []Record {
	rows, err := s.svc.ReadTable(ctx, s.table)
	if err != nil {
		s.logger.Error(fmt.Sprintf("reading table %q: %v", s.table, err), err, map[string]interface{}{"table": s.table})
		return []Record{}
	}
	if len(rows) == 0 {
		return []Record{}
	}
	return Decode(rows[0], rows[1:])
}

// Append adds rec as a new row, ordered by the current header.
func (s *Store) Append(ctx context.Context, rec Record) error {
	header, err := s.svc.ReadHeader(ctx, s.table)
	if err != nil {
		return core.NewUpstreamError("tables", errors.Wrapf(err, "reading %s header", s.table))
	}
	if len(header) == 0 {
		return core.NewUpstreamError("tables", errors.Errorf("table %s has no header", s.table))
	}
	if err := s.svc.AppendRow(ctx, s.table, Encode(header, rec)); err != nil {
		return core.NewUpstreamError("tables", errors.Wrapf(err, "appending to %s", s.table))
	}
	return nil
}

// FindAndUpdate merges fields into the first row whose first column equals id and writes it back.
// It returns the row as written, or core.ErrNotFound.
func (s *Store) FindAndUpdate(ctx context.Context, id string, fields Record) (Record, error) {
	rows, err := s.svc.ReadTable(ctx, s.table)
	if err != nil {
		return nil, core.NewUpstreamError("tables", errors.Wrapf(err, "reading %s", s.table))
	}
	if len(rows) < 2 {
		return nil, core.ErrNotFound
	}

	header := rows[0]
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if len(row) == 0 || row[0] != id {
			continue
		}
		updated := Encode(header, Merge(Decode(header, [][]string{row})[0], fields))
		if err := s.svc.WriteRow(ctx, s.table, i, updated); err != nil {
			return nil, core.NewUpstreamError("tables", errors.Wrapf(err, "updating %s row %d", s.table, i))
		}
		// the row as written: fields missing from the header are dropped
		return Decode(header, [][]string{updated})[0], nil
	}
	return nil, core.ErrNotFound
}
