package renderer

import (
	"io"
	"log"
	"os"

	"github.com/df07/go-ppm-raytracer/pkg/core"
)

// DefaultLogger implements core.Logger on top of the standard log package.
// It writes to stderr so diagnostics never mix with a pixel stream on stdout.
type DefaultLogger struct {
	l *log.Logger
}

func (dl *DefaultLogger) Printf(format string, args ...interface{}) {
	dl.l.Printf(format, args...)
}

// NewDefaultLogger creates a new default logger
func NewDefaultLogger() core.Logger {
	return NewWriterLogger(os.Stderr)
}

// NewWriterLogger creates a logger that writes to w
func NewWriterLogger(w io.Writer) core.Logger {
	return &DefaultLogger{l: log.New(w, "", log.LstdFlags)}
}

// NewDiscardLogger creates a logger that drops every message
func NewDiscardLogger() core.Logger {
	return NewWriterLogger(io.Discard)
}
