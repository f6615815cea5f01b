// Package sheetsdb keeps tables as tabs of one Google spreadsheet.
package sheetsdb

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/specedu/caseboard/core/sheet"
)

const (
	// cells are stored as typed so free text is never parsed as a number, date or formula
	valueInputOption = "RAW"
	columns          = "A:Z"
)

// DB is a sheet.TableService over the Sheets values API. Each table is a tab named after it.
type DB struct {
	svc           *sheets.Service
	spreadsheetID string
}

var (
	_ sheet.TableService = (*DB)(nil)
	_ sheet.TableCreator = (*DB)(nil)
)

func New(ctx context.Context, spreadsheetID string, opts ...option.ClientOption) (*DB, error) {
	if spreadsheetID == "" {
		return nil, errors.New("spreadsheet id is required")
	}
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "creating sheets service")
	}
	return &DB{svc: svc, spreadsheetID: spreadsheetID}, nil
}

func toRows(values [][]interface{}) [][]string {
	rows := make([][]string, 0, len(values))
	for _, vals := range values {
		row := make([]string, len(vals))
		for i, v := range vals {
			if s, ok := v.(string); ok {
				row[i] = s
			} else if v != nil {
				row[i] = fmt.Sprint(v)
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func toValues(row []string) [][]interface{} {
	vals := make([]interface{}, len(row))
	for i, cell := range row {
		vals[i] = cell
	}
	return [][]interface{}{vals}
}

func (db *DB) get(ctx context.Context, rng string) ([][]string, error) {
	resp, err := db.svc.Spreadsheets.Values.Get(db.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, errors.Wrapf(err, "getting %s", rng)
	}
	return toRows(resp.Values), nil
}

func (db *DB) ReadTable(ctx context.Context, table string) ([][]string, error) {
	return db.get(ctx, table+"!"+columns)
}

func (db *DB) ReadHeader(ctx context.Context, table string) ([]string, error) {
	rows, err := db.get(ctx, table+"!1:1")
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []string{}, nil
	}
	return rows[0], nil
}

func (db *DB) AppendRow(ctx context.Context, table string, row []string) error {
	_, err := db.svc.Spreadsheets.Values.
		Append(db.spreadsheetID, table+"!"+columns, &sheets.ValueRange{Values: toValues(row)}).
		ValueInputOption(valueInputOption).
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return errors.Wrapf(err, "appending to %s", table)
}

// WriteRow overwrites the row at index, 0 being the header row (sheet row 1).
func (db *DB) WriteRow(ctx context.Context, table string, index int, row []string) error {
	rng := fmt.Sprintf("%s!A%d", table, index+1)
	_, err := db.svc.Spreadsheets.Values.
		Update(db.spreadsheetID, rng, &sheets.ValueRange{Values: toValues(row)}).
		ValueInputOption(valueInputOption).
		Context(ctx).
		Do()
	return errors.Wrapf(err, "updating %s", rng)
}

// CreateTable adds a tab named table when the spreadsheet has none.
func (db *DB) CreateTable(ctx context.Context, table string) error {
	ss, err := db.svc.Spreadsheets.Get(db.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return errors.Wrap(err, "getting spreadsheet")
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == table {
			return nil
		}
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{Requests: []*sheets.Request{{
		AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: table}},
	}}}
	if _, err := db.svc.Spreadsheets.BatchUpdate(db.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return errors.Wrapf(err, "adding sheet %s", table)
	}
	return nil
}
