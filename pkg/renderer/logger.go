package renderer

import (
	"fmt"
	"io"

	"github.com/df07/go-weekend-pathtracer/pkg/core"
)

// NopLogger discards everything
type NopLogger struct{}

func (NopLogger) Printf(format string, args ...interface{}) {}

// WriterLogger implements core.Logger on top of an io.Writer
type WriterLogger struct {
	w io.Writer
}

// NewWriterLogger creates a logger that writes to w (e.g. os.Stderr when stdout carries image data)
func NewWriterLogger(w io.Writer) core.Logger {
	return &WriterLogger{w: w}
}

func (wl *WriterLogger) Printf(format string, args ...interface{}) {
	fmt.Fprintf(wl.w, format, args...)
}
