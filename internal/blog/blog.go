// Package blog is a tiny leveled logger for the cases the engine wants to
// surface a problem without aborting the extraction it's in the middle of
// computing -- a malformed leaf extraction, a rule that refused to score.
package blog

import (
	"fmt"
	"log"
	"os"
)

// Logger writes leveled messages, prefixed by level, to an underlying
// *log.Logger. The zero value writes to stderr.
type Logger struct {
	out *log.Logger
}

// New wraps l. A nil l defaults to writing to stderr with the standard
// date/time prefix.
func New(l *log.Logger) *Logger {
	if l == nil {
		l = log.New(os.Stderr, "", log.LstdFlags)
	}
	return &Logger{out: l}
}

// Default is the package-level logger used by Warnf/Errorf.
var Default = New(nil)

func (l *Logger) Warnf(format string, args ...any) {
	l.out.Print("WARN " + fmt.Sprintf(format, args...))
}

func (l *Logger) Errorf(format string, args ...any) {
	l.out.Print("ERROR " + fmt.Sprintf(format, args...))
}

func (l *Logger) Infof(format string, args ...any) {
	l.out.Print("INFO " + fmt.Sprintf(format, args...))
}

func (l *Logger) Debugf(format string, args ...any) {
	l.out.Print("DEBUG " + fmt.Sprintf(format, args...))
}

// Warnf logs a warning via Default.
func Warnf(format string, args ...any) { Default.Warnf(format, args...) }

// Errorf logs an error via Default.
func Errorf(format string, args ...any) { Default.Errorf(format, args...) }

// Infof logs a lifecycle message via Default.
func Infof(format string, args ...any) { Default.Infof(format, args...) }

// Debugf logs a fine-grained trace message via Default.
func Debugf(format string, args ...any) { Default.Debugf(format, args...) }
