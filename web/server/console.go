package server

import (
	"fmt"
	"strings"
	"time"

	"github.com/df07/go-weekend-pathtracer/pkg/core"
)

// ConsoleMessage represents a console message with timestamp
type ConsoleMessage struct {
	RenderID  string    `json:"renderId"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // "info", "warning", "error"
}

// WebLogger implements core.Logger by sending messages to a console channel
type WebLogger struct {
	renderID    string
	consoleChan chan<- ConsoleMessage
}

// NewWebLogger creates a new web logger for a specific render
func NewWebLogger(renderID string, consoleChan chan<- ConsoleMessage) core.Logger {
	return &WebLogger{
		renderID:    renderID,
		consoleChan: consoleChan,
	}
}

// Printf implements core.Logger interface.
// Carriage returns used for in-place terminal progress are dropped.
func (wl *WebLogger) Printf(format string, args ...interface{}) {
	if wl.consoleChan == nil {
		return
	}

	message := strings.TrimLeft(fmt.Sprintf(format, args...), "\r")

	// Non-blocking: a slow client loses progress lines rather than stalling the render
	select {
	case wl.consoleChan <- ConsoleMessage{
		RenderID:  wl.renderID,
		Message:   message,
		Timestamp: time.Now(),
		Level:     "info",
	}:
	default:
	}
}
