package pdfverify

import "log"

// Logger is the advisory diagnostic sink this package writes to while
// parsing and verifying. It is never consulted for control flow: every
// message it receives is purely informational.
type Logger interface {
	Debugf(format string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debugf(string, ...any) {}

var pkgLogger Logger = noopLogger{}

// SetLogger installs the package-wide diagnostic logger. Passing nil
// restores the default no-op logger.
func SetLogger(l Logger) {
	if l == nil {
		pkgLogger = noopLogger{}
		return
	}
	pkgLogger = l
}

// stdLogger adapts the standard library's *log.Logger to the Logger
// interface, matching the teacher's exclusive use of stdlib log.
type stdLogger struct {
	l *log.Logger
}

// NewStdLogger wraps l as a Logger.
func NewStdLogger(l *log.Logger) Logger {
	return stdLogger{l: l}
}

func (s stdLogger) Debugf(format string, args ...any) {
	s.l.Printf(format, args...)
}
