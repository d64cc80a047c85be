// Package notify delivers user-visible success and error messages produced by
// resource operations to whatever surface is rendering them.
package notify

import (
	"sync"

	dserrors "github.com/systmms/fnconsole/internal/errors"
	"github.com/systmms/fnconsole/internal/logging"
)

// Sink accepts notification messages for display.
type Sink interface {
	Success(msg string)
	Error(msg string)
}

// Render sends notice, if any, as a success and every message carried by err
// as an error, in order.
func Render(sink Sink, notice string, err error) {
	if sink == nil {
		return
	}
	if notice != "" {
		sink.Success(notice)
	}
	for _, msg := range dserrors.Messages(err) {
		sink.Error(msg)
	}
}

// LoggerSink renders notifications through a Logger.
type LoggerSink struct {
	Logger *logging.Logger
}

// NewLoggerSink returns a sink writing to logger.
func NewLoggerSink(logger *logging.Logger) *LoggerSink {
	return &LoggerSink{Logger: logger}
}

func (s *LoggerSink) Success(msg string) { s.Logger.Info("%s", msg) }
func (s *LoggerSink) Error(msg string)   { s.Logger.Error("%s", msg) }

// Level of a recorded notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is one recorded message.
type Notification struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Recorder keeps notifications in memory.
type Recorder struct {
	mu      sync.Mutex
	entries []Notification
}

func (r *Recorder) Success(msg string) { r.add(LevelSuccess, msg) }
func (r *Recorder) Error(msg string)   { r.add(LevelError, msg) }

func (r *Recorder) add(level Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Notification{Level: level, Message: msg})
}

// Entries returns a copy of everything recorded so far.
func (r *Recorder) Entries() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.entries))
	copy(out, r.entries)
	return out
}

// Errors returns the recorded error messages.
func (r *Recorder) Errors() []string {
	return r.messages(LevelError)
}

// Successes returns the recorded success messages.
func (r *Recorder) Successes() []string {
	return r.messages(LevelSuccess)
}

func (r *Recorder) messages(level Level) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, n := range r.entries {
		if n.Level == level {
			out = append(out, n.Message)
		}
	}
	return out
}

// Reset drops all recorded notifications.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
}
