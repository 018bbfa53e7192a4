// Package obslog provides the engine's pluggable warning handler.
//
// Warnings never change control flow (see the engine's error handling
// design); they are purely observational. The default Logger writes
// ERROR:/WARNING: prefixed lines to an io.Writer, colorized when that
// writer is a terminal.
package obslog

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// Logger is the pluggable warning handler. Callers may substitute their
// own implementation (e.g. to collect warnings into a slice for tests).
type Logger interface {
	Warning(format string, args ...interface{})
	Error(format string, args ...interface{})
}

const (
	colorYellow = "\x1b[33m"
	colorRed    = "\x1b[31m"
	colorReset  = "\x1b[0m"
)

// Writer is the default Logger, writing prefixed lines to an io.Writer.
type Writer struct {
	out     io.Writer
	colored bool
}

// NewWriter builds a Writer. Colorization is enabled automatically when w
// is *os.File and isatty reports it as a terminal.
func NewWriter(w io.Writer) *Writer {
	colored := false
	if f, ok := w.(*os.File); ok {
		colored = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Writer{out: w, colored: colored}
}

// NewStderr is the CLI's default logger.
func NewStderr() *Writer { return NewWriter(os.Stderr) }

func (w *Writer) line(prefix, color, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if w.colored {
		fmt.Fprintf(w.out, "%s%s%s %s\n", color, prefix, colorReset, msg)
		return
	}
	fmt.Fprintf(w.out, "%s %s\n", prefix, msg)
}

// Warning emits a WARNING: prefixed message.
func (w *Writer) Warning(format string, args ...interface{}) {
	w.line("WARNING:", colorYellow, format, args...)
}

// Error emits an ERROR: prefixed message.
func (w *Writer) Error(format string, args ...interface{}) {
	w.line("ERROR:", colorRed, format, args...)
}

// Discard is a Logger that drops everything, for tests that don't care.
type Discard struct{}

func (Discard) Warning(string, ...interface{}) {}
func (Discard) Error(string, ...interface{})   {}

// Collector is a Logger that records messages for assertions in tests.
type Collector struct {
	Warnings []string
	Errors   []string
}

func (c *Collector) Warning(format string, args ...interface{}) {
	c.Warnings = append(c.Warnings, fmt.Sprintf(format, args...))
}

func (c *Collector) Error(format string, args ...interface{}) {
	c.Errors = append(c.Errors, fmt.Sprintf(format, args...))
}
