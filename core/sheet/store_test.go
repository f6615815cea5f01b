package sheet_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specedu/caseboard/core"
	"github.com/specedu/caseboard/core/sheet"
	inmemdb "github.com/specedu/caseboard/storage/inmem"
	testutil "github.com/specedu/caseboard/tests"
)

var header = []string{"id", "name", "status"}

func setup(t *testing.T) (*sheet.Store, *inmemdb.DB) {
	t.Helper()
	db := inmemdb.New(map[string][]string{"things": header})
	return sheet.NewStore(db, "things", testutil.NewLogger(t)), db
}

type brokenTables struct {
	sheet.TableService
	err error
}

func (b brokenTables) ReadTable(context.Context, string) ([][]string, error) { return nil, b.err }
func (b brokenTables) ReadHeader(context.Context, string) ([]string, error)  { return nil, b.err }

func TestStore_ReadAll(t *testing.T) {
	ctx := context.Background()

	t.Run("header only", func(t *testing.T) {
		store, _ := setup(t)
		assert.Empty(t, store.ReadAll(ctx))
	})

	t.Run("missing table", func(t *testing.T) {
		db := inmemdb.New(nil)
		store := sheet.NewStore(db, "nothing", testutil.NewLogger(t))
		recs := store.ReadAll(ctx)
		assert.NotNil(t, recs)
		assert.Empty(t, recs)
	})

	t.Run("read failure is swallowed and logged", func(t *testing.T) {
		logger := testutil.NewLogger(t)
		store := sheet.NewStore(brokenTables{err: errors.New("quota exceeded")}, "things", logger)
		recs := store.ReadAll(ctx)
		assert.NotNil(t, recs)
		assert.Empty(t, recs)
		assert.Len(t, logger.Errors(), 1)
	})
}

func TestStore_AppendThenReadAll(t *testing.T) {
	ctx := context.Background()
	store, _ := setup(t)

	require.NoError(t, store.Append(ctx, sheet.Record{"id": "a-1", "name": "Alice"}))
	require.NoError(t, store.Append(ctx, sheet.Record{"id": "a-2", "status": "done", "ignored": "x"}))

	assert.Equal(t, []sheet.Record{
		{"id": "a-1", "name": "Alice", "status": ""},
		{"id": "a-2", "name": "", "status": "done"},
	}, store.ReadAll(ctx))
}

func TestStore_AppendHeaderFailure(t *testing.T) {
	store := sheet.NewStore(brokenTables{err: errors.New("boom")}, "things", testutil.NewLogger(t))

	err := store.Append(context.Background(), sheet.Record{"id": "a-1"})
	require.Error(t, err)
	assert.True(t, core.IsUpstream(err))
}

func TestStore_FindAndUpdate(t *testing.T) {
	ctx := context.Background()
	store, _ := setup(t)
	require.NoError(t, store.Append(ctx, sheet.Record{"id": "a-1", "name": "Alice", "status": "open"}))
	require.NoError(t, store.Append(ctx, sheet.Record{"id": "a-2", "name": "Bob", "status": "open"}))

	tests := []struct {
		name    string
		id      string
		fields  sheet.Record
		want    sheet.Record
		wantErr error
	}{
		{name: "unknown id", id: "a-9", fields: sheet.Record{"status": "x"}, wantErr: core.ErrNotFound},
		{name: "header is not a data row", id: "id", fields: sheet.Record{"status": "x"}, wantErr: core.ErrNotFound},
		{
			name: "single field", id: "a-2", fields: sheet.Record{"status": "closed"},
			want: sheet.Record{"id": "a-2", "name": "Bob", "status": "closed"},
		},
		{
			name: "unknown fields are not persisted", id: "a-1", fields: sheet.Record{"color": "red"},
			want: sheet.Record{"id": "a-1", "name": "Alice", "status": "open"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.FindAndUpdate(ctx, tt.id, tt.fields)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, []sheet.Record{
		{"id": "a-1", "name": "Alice", "status": "open"},
		{"id": "a-2", "name": "Bob", "status": "closed"},
	}, store.ReadAll(ctx))
}

func TestStore_FindAndUpdateEmptyTable(t *testing.T) {
	store, _ := setup(t)
	_, err := store.FindAndUpdate(context.Background(), "a-1", sheet.Record{"name": "x"})
	assert.Equal(t, core.ErrNotFound, err)
}
