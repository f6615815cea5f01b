package main

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specedu/caseboard/core"
	"github.com/specedu/caseboard/core/sheet"
	"github.com/specedu/caseboard/core/user"
	inmemdb "github.com/specedu/caseboard/storage/inmem"
	testutil "github.com/specedu/caseboard/tests"
)

func setup(t *testing.T, tables *inmemdb.DB) *commandLine {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	return &commandLine{
		tables:     tables,
		usrSvc:     user.NewService(tables, testutil.NewConfig(), testutil.NewLogger(t)),
		validate:   validate,
		translator: translator,
		openDB: func() (*sql.DB, error) {
			// sql.Open does not connect
			return sql.Open("postgres", "postgres://localhost/caseboard_test?sslmode=disable")
		},
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func runCLITests(t *testing.T, cli *commandLine, tests []cliTest, check func(t *testing.T, tt cliTest)) {
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if pwd, ok := tt.extra.(string); ok {
				return []byte(pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, err)
			case tt.wantErrStr != "":
				if assert.Error(t, err) {
					assert.Equal(t, tt.wantErrStr, err.Error())
				}
			default:
				require.NoError(t, err)
				if check != nil {
					check(t, tt)
				}
			}
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t, testutil.NewTables())

	gooseRunFunc = func(_ context.Context, command string, db *sql.DB, args ...string) error {
		if db == nil {
			return fmt.Errorf("no database")
		}
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	runCLITests(t, cli, []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "1"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
	}, nil)
}

func Test_commandLine_addUser(t *testing.T) {
	tables := testutil.NewTables()
	cli := setup(t, tables)

	runCLITests(t, cli, []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "missing role", args: []string{"adduser", "-username", "alice", "-name", "Alice"}, wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "-username", "alice", "-name", "Alice", "-role", "therapist"}, wantErr: errHelp},
		{
			name: "invalid role", args: []string{"adduser", "-username", "alice", "-name", "Alice", "-role", "principal"},
			extra: "Cl0udy-day", wantErrStr: "role: invalid role",
		},
		{
			name: "weak password", args: []string{"adduser", "-username", "alice", "-name", "Alice", "-role", "therapist"},
			extra: "12345678", wantErrStr: "password: password cannot be entirely numeric",
		},
		{
			name: "invalid email", args: []string{"adduser", "-username", "alice", "-name", "Alice", "-role", "therapist", "-email", "lol"},
			extra: "Cl0udy-day", wantErrStr: "email: email must be a valid email address",
		},
		{
			name: "created", args: []string{"adduser", "-username", "alice", "-name", "Alice", "-role", "Therapist", "-email", "Alice@Test.tw"},
			extra: "Cl0udy-day",
		},
		{
			name: "updated", args: []string{"adduser", "-username", "alice", "-name", "Alice W", "-role", "teacher"},
			extra: "Sunny-d4y!",
		},
	}, nil)

	users := cli.usrSvc.QueryAll(context.Background())
	require.Len(t, users, 1)
	usr := users[0]
	assert.Equal(t, "alice", usr.Username)
	assert.Equal(t, "Alice W", usr.Name)
	assert.Equal(t, user.RoleTeacher, usr.Role)
	assert.True(t, usr.HasHashedPassword())
	assert.NoError(t, usr.CheckPassword("Sunny-d4y!", false))
}

func Test_commandLine_resetPassword(t *testing.T) {
	tables := testutil.NewTables()
	cli := setup(t, tables)
	testutil.CreateUser(t, tables, "awe", "mdr", user.RoleParents, "Awe", "awe@test.tw")

	runCLITests(t, cli, []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, extra: "Cl0udy-day", wantErr: user.ErrNotFound},
		{
			name: "too similar", args: []string{"resetpassword", "-username", "awe"}, extra: "awe@test.tw",
			wantErrStr: "password: password cannot be similar to user attributes",
		},
		{name: "reset", args: []string{"resetpassword", "-username", "awe"}, extra: "Cl0udy-day"},
	}, func(t *testing.T, tt cliTest) {
		usr, err := cli.usrSvc.GetByUsername(context.Background(), "awe")
		require.NoError(t, err)
		assert.True(t, usr.HasHashedPassword())
		assert.NoError(t, usr.CheckPassword(tt.extra.(string), false))
	})
}

func Test_commandLine_initSheets(t *testing.T) {
	tables := inmemdb.New(nil)
	cli := setup(t, tables)
	ctx := context.Background()

	require.NoError(t, cli.run([]string{"admin", "initsheets"}))
	for _, table := range sheet.TableNames() {
		header, err := tables.ReadHeader(ctx, table)
		require.NoError(t, err)
		assert.Equal(t, sheet.Headers[table], header, table)
	}

	// idempotent
	require.NoError(t, cli.run([]string{"admin", "initsheets"}))
	rows, err := tables.ReadTable(ctx, sheet.TableUsers)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
