package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/specedu/caseboard/core"
	"github.com/specedu/caseboard/core/sheet"
	"github.com/specedu/caseboard/core/user"
	inmemdb "github.com/specedu/caseboard/storage/inmem"
)

// Logger is a silent core.Logger remembering error messages.
// It may be called from goroutines outliving the test, so it never touches testing.T.
type Logger struct {
	mu     sync.Mutex
	errors []string
}

var _ core.Logger = (*Logger)(nil)

func NewLogger(_ testing.TB) *Logger {
	return &Logger{}
}

func (l *Logger) Debug(string, ...interface{}) {}
func (l *Logger) Info(string, ...interface{})  {}
func (l *Logger) Warn(string, ...interface{})  {}

func (l *Logger) Error(msg string, _ ...interface{}) {
	l.mu.Lock()
	l.errors = append(l.errors, msg)
	l.mu.Unlock()
}

func (l *Logger) Fatal(msg string, args ...interface{}) {
	panic(fmt.Sprintf("FATAL: %s %v", msg, args))
}

// Errors returns the messages logged at error level.
func (l *Logger) Errors() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.errors...)
}

// NewTables returns in-memory tables seeded with every header row.
func NewTables() *inmemdb.DB {
	return inmemdb.New(sheet.Headers)
}

// NewConfig returns a config for tests.
func NewConfig() *core.Config {
	conf := core.NewConfig()
	conf.Debug = false
	conf.TestMode = true
	conf.SecretKey = "test-secret"
	conf.Auth.AllowPlaintextPasswords = true
	return conf
}

// CreateUser appends a user row. The password is stored as given unless hash is set.
func CreateUser(t *testing.T, tables sheet.TableService, uname, pwd, role, name, email string, hash ...bool) user.User {
	t.Helper()
	usr := user.User{Username: uname, Password: pwd, Role: role, Name: name, Email: email}
	if len(hash) > 0 && hash[0] {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	row := sheet.Encode(sheet.Headers[sheet.TableUsers], sheet.Record{
		"username": usr.Username,
		"password": usr.Password,
		"role":     usr.Role,
		"name":     usr.Name,
		"email":    usr.Email,
	})
	if err := tables.AppendRow(context.Background(), sheet.TableUsers, row); err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// AppendRecord appends a row to table.
func AppendRecord(t *testing.T, tables sheet.TableService, table string, rec sheet.Record) {
	t.Helper()
	if err := tables.AppendRow(context.Background(), table, sheet.Encode(sheet.Headers[table], rec)); err != nil {
		t.Fatalf("AppendRecord(%s) failed: %v", table, err)
	}
}

// Notifier is a core.Notifier remembering every event.
type Notifier struct {
	mu     sync.Mutex
	events []core.Event
}

var _ core.Notifier = (*Notifier)(nil)

func (n *Notifier) Notify(_ context.Context, event string, payload interface{}) {
	n.mu.Lock()
	n.events = append(n.events, core.Event{Name: event, Data: payload})
	n.mu.Unlock()
}

// Events returns the events notified so far.
func (n *Notifier) Events() []core.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]core.Event(nil), n.events...)
}
