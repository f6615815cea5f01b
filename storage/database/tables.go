package database

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/specedu/caseboard/core/sheet"
)

// Tables is a sheet.TableService over the sheet_rows table.
type Tables struct {
	db *sqlx.DB
}

var _ sheet.TableService = (*Tables)(nil)

func NewTables(db *sqlx.DB) *Tables {
	return &Tables{db: db}
}

type storedRow struct {
	Position int            `db:"position"`
	Cells    pq.StringArray `db:"cells"`
}

func (t *Tables) ReadTable(ctx context.Context, table string) ([][]string, error) {
	var stored []storedRow
	err := t.db.SelectContext(ctx, &stored,
		`SELECT position, cells FROM sheet_rows WHERE table_name = $1 ORDER BY position`, table)
	if err != nil {
		return nil, errors.Wrapf(err, "selecting %s rows", table)
	}
	if len(stored) == 0 {
		return [][]string{}, nil
	}

	// positions may have gaps when a row was written past the end
	rows := make([][]string, stored[len(stored)-1].Position+1)
	for i := range rows {
		rows[i] = []string{}
	}
	for _, r := range stored {
		rows[r.Position] = []string(r.Cells)
	}
	return rows, nil
}

func (t *Tables) ReadHeader(ctx context.Context, table string) ([]string, error) {
	var stored []storedRow
	err := t.db.SelectContext(ctx, &stored,
		`SELECT position, cells FROM sheet_rows WHERE table_name = $1 AND position = 0`, table)
	if err != nil {
		return nil, errors.Wrapf(err, "selecting %s header", table)
	}
	if len(stored) == 0 {
		return []string{}, nil
	}
	return []string(stored[0].Cells), nil
}

func (t *Tables) AppendRow(ctx context.Context, table string, row []string) error {
	tx, err := t.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	// serialize appends per table so positions stay unique
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, table); err != nil {
		return errors.Wrapf(err, "locking %s", table)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO sheet_rows (table_name, position, cells)
		SELECT $1, COALESCE(MAX(position) + 1, 0), $2 FROM sheet_rows WHERE table_name = $1`,
		table, pq.StringArray(row))
	if err != nil {
		return errors.Wrapf(err, "appending to %s", table)
	}
	return errors.Wrap(tx.Commit(), "committing append")
}

func (t *Tables) WriteRow(ctx context.Context, table string, index int, row []string) error {
	if index < 0 {
		return errors.Errorf("invalid row index %d", index)
	}
	_, err := t.db.ExecContext(ctx, `
		INSERT INTO sheet_rows (table_name, position, cells)
		VALUES ($1, $2, $3)
		ON CONFLICT (table_name, position) DO UPDATE SET cells = EXCLUDED.cells, updated_at = now()`,
		table, index, pq.StringArray(row))
	return errors.Wrapf(err, "writing %s row %d", table, index)
}

// Truncate deletes every row of every table.
func (t *Tables) Truncate(ctx context.Context) error {
	_, err := t.db.ExecContext(ctx, `TRUNCATE sheet_rows`)
	return errors.Wrap(err, "truncating sheet_rows")
}
