// Package blog provides the caller-injected logging callback. There is
// deliberately no package level logger: a component that wants to log
// takes a Logger value instead of reaching for a global. In this module
// only cmd/bbitool logs; bbi, bigwig and coverage do not take a Logger.
package blog

import (
	"fmt"
	"log"
)

// Logger is the leveled logging contract components accept. It mirrors
// the Warn/Info/Debug split of a conventional leveled logger without
// the global registry: callers own construction and lifetime.
type Logger interface {
	Warnf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

type discard struct{}

func (discard) Warnf(string, ...interface{})  {}
func (discard) Infof(string, ...interface{})  {}
func (discard) Debugf(string, ...interface{}) {}

// Discard is a Logger that does nothing, for callers that need a Logger
// value but want no output.
var Discard Logger = discard{}

// StdLogger adapts the standard library's *log.Logger into a Logger,
// prefixing each line with its level. It is intended for CLI callers
// that want leveled output without depending on a third-party logging
// framework.
type StdLogger struct {
	L       *log.Logger
	Verbose bool // when false, Debugf is suppressed
}

func (s StdLogger) Warnf(format string, args ...interface{}) {
	s.L.Output(2, "WARN "+fmt.Sprintf(format, args...))
}

func (s StdLogger) Infof(format string, args ...interface{}) {
	s.L.Output(2, "INFO "+fmt.Sprintf(format, args...))
}

func (s StdLogger) Debugf(format string, args ...interface{}) {
	if !s.Verbose {
		return
	}
	s.L.Output(2, "DEBUG "+fmt.Sprintf(format, args...))
}
