package testutil

import (
	"bytes"
	"sync"
	"testing"

	"github.com/systmms/fnconsole/internal/logging"
)

// LogBuffer is a goroutine-safe sink for captured log output.
type LogBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// Write implements io.Writer.
func (b *LogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// String returns everything logged so far.
func (b *LogBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// NewTestLogger returns an uncoloured logger that writes into the returned
// buffer, so tests can assert on notifications and on redaction.
//
//	logger, logs := NewTestLogger(t, false)
//	logger.Info("Secret created successfully")
//	assert.Contains(t, logs.String(), "✓ Secret created")
func NewTestLogger(t *testing.T, debug bool) (*logging.Logger, *LogBuffer) {
	t.Helper()

	logs := &LogBuffer{}
	return logging.NewWithWriter(logs, debug, true), logs
}
