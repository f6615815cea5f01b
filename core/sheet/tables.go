package sheet

import (
	"context"

	"github.com/pkg/errors"
)

// Table names.
const (
	TableUsers     = "users"
	TableRecords   = "records"
	TableMessages  = "messages"
	TableIEPFiles  = "iep_files"
	TableQuestions = "questions"
)

// Headers lists the header row of every table, identifier column first.
var Headers = map[string][]string{
	TableUsers:     {"username", "password", "role", "name", "email"},
	TableRecords:   {"id", "date", "therapist_name", "content", "teacher_reply", "created_at"},
	TableMessages:  {"id", "user_name", "role", "message", "timestamp"},
	TableIEPFiles:  {"id", "filename", "drive_file_id", "uploaded_by", "role", "file_link", "upload_date", "comments"},
	TableQuestions: {"id", "date", "asker_name", "asker_role", "question", "target_role", "replier_name", "reply", "status"},
}

// TableNames returns the table names in a stable order.
func TableNames() []string {
	return []string{TableUsers, TableRecords, TableMessages, TableIEPFiles, TableQuestions}
}

// TableCreator is implemented by table services whose tables must exist before being written.
type TableCreator interface {
	CreateTable(ctx context.Context, table string) error
}

// EnsureHeaders creates missing tables and writes the header row of every table that has none.
// It returns the tables whose header was written.
func EnsureHeaders(ctx context.Context, svc TableService, headers map[string][]string) ([]string, error) {
	written := make([]string, 0)
	for _, table := range TableNames() {
		header, ok := headers[table]
		if !ok {
			continue
		}
		if tc, ok := svc.(TableCreator); ok {
			if err := tc.CreateTable(ctx, table); err != nil {
				return written, errors.Wrapf(err, "creating table %s", table)
			}
		}
		current, err := svc.ReadHeader(ctx, table)
		if err != nil {
			return written, errors.Wrapf(err, "reading %s header", table)
		}
		if len(current) > 0 {
			continue
		}
		if err := svc.WriteRow(ctx, table, 0, header); err != nil {
			return written, errors.Wrapf(err, "writing %s header", table)
		}
		written = append(written, table)
	}
	return written, nil
}
