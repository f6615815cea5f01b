package core

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

// NowFunc returns the current time. mockable
var NowFunc = time.Now

var lastID int64

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// NewID returns "<prefix>-<unix ms>".
// Two calls within the same millisecond get distinct, increasing values.
func NewID(prefix string) string {
	now := NowFunc().UnixMilli()
	for {
		last := atomic.LoadInt64(&lastID)
		next := now
		if next <= last {
			next = last + 1
		}
		if atomic.CompareAndSwapInt64(&lastID, last, next) {
			return prefix + "-" + strconv.FormatInt(next, 10)
		}
	}
}

// Today returns the current UTC date as YYYY-MM-DD.
func Today() string {
	return NowFunc().UTC().Format("2006-01-02")
}

// Timestamp returns the current UTC time in ISO-8601 with milliseconds.
func Timestamp() string {
	return NowFunc().UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// Getwd finds the project root, the closest parent directory holding go.mod.
// go test runs from the package directory, so the working directory alone is not enough.
func Getwd() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	currDir := wd
	for {
		if fi, err := os.Stat(filepath.Join(currDir, "go.mod")); err == nil && !fi.IsDir() {
			return currDir, nil
		}
		newDir := filepath.Dir(currDir)
		if newDir == string(os.PathSeparator) || newDir == currDir {
			return wd, errors.New("project root not found")
		}
		currDir = newDir
	}
}
