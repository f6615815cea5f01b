package core

// Logger logs messages and reports errors.
//
// args may hold errors, extra data maps and the user.Identity the message is about.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// RequestInfo identifies the HTTP request a log entry is about.
type RequestInfo struct {
	ID     string
	Method string
	Route  string
}
