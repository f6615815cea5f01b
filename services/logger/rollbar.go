package logsvc

import (
	"log"

	pkgerrors "github.com/pkg/errors"
	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/specedu/caseboard/core"
	"github.com/specedu/caseboard/core/user"
)

type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetCustom(map[string]interface{}{"app": conf.AppName, "storage": conf.Storage.Backend})
	return &RollbarLogger{std: std}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// report is a log entry split into what Rollbar takes as arguments, the person and custom data.
type report struct {
	args    []interface{}
	person  *user.Identity
	request *core.RequestInfo
	custom  map[string]interface{}
}

// newReport sorts args: errors are kept, user.Identity becomes the person (first one wins),
// core.RequestInfo and extra data maps become custom data. Upstream errors name their service.
func newReport(msg string, args []interface{}) report {
	r := report{args: []interface{}{msg}, custom: make(map[string]interface{})}
	for _, arg := range args {
		switch a := arg.(type) {
		case user.Identity:
			if r.person == nil {
				id := a
				r.person = &id
				r.custom["role"] = a.Role
			}
		case core.RequestInfo:
			info := a
			r.request = &info
			r.custom["request_id"] = a.ID
			r.custom["route"] = a.Method + " " + a.Route
		case map[string]interface{}:
			for k, v := range a {
				r.custom[k] = v
			}
		case error:
			if up, ok := pkgerrors.Cause(a).(*core.UpstreamError); ok {
				r.custom["upstream"] = up.Service
			}
			r.args = append(r.args, a)
		default:
			r.args = append(r.args, a)
		}
	}
	if len(r.custom) > 0 {
		r.args = append(r.args, r.custom)
	}
	return r
}

func (l RollbarLogger) prepare(msg string, args []interface{}) report {
	r := newReport(msg, args)
	if r.person != nil {
		rollbar.SetPerson(r.person.Username, r.person.Name, "")
	} else {
		rollbar.ClearPerson()
	}
	return r
}

func (l RollbarLogger) print(msg string, r report) {
	if r.request != nil {
		msg = "[" + r.request.ID + "] " + msg
	}
	l.std.Println(msg)
	for _, arg := range r.args[1:] {
		l.std.Printf("%+v\n", arg)
	}
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	r := l.prepare(msg, args)
	rollbar.Debug(r.args...)
	l.print(msg, r)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	r := l.prepare(msg, args)
	rollbar.Info(r.args...)
	l.print(msg, r)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	r := l.prepare(msg, args)
	rollbar.Warning(r.args...)
	l.print(msg, r)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	r := l.prepare(msg, args)
	rollbar.Error(r.args...)
	l.print(msg, r)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	r := l.prepare(msg, args)
	rollbar.Critical(r.args...)
	l.print(msg, r)
	rollbar.Wait()
	l.std.Fatal(msg)
}
