// Package monitoring holds the swappable logger used by the storage and
// actuation adapters. The perception packages have their own streams.
package monitoring

import (
	"log"
	"sync/atomic"
)

type logFunc func(format string, v ...interface{})

var current atomic.Pointer[logFunc]

func init() {
	SetLogger(log.Printf)
}

// Logf logs through the current logger. It defaults to log.Printf.
func Logf(format string, v ...interface{}) {
	(*current.Load())(format, v...)
}

// SetLogger replaces the logger. Passing nil installs a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		f = func(string, ...interface{}) {}
	}
	lf := logFunc(f)
	current.Store(&lf)
}

// Component returns a logger that prefixes every message with "[name] " and
// writes through whatever logger is current at call time.
func Component(name string) func(format string, v ...interface{}) {
	prefix := "[" + name + "] "
	return func(format string, v ...interface{}) {
		Logf(prefix+format, v...)
	}
}
