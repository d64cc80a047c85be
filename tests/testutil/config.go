package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/systmms/fnconsole/internal/config"
	"github.com/systmms/fnconsole/pkg/recordstore"
)

// NewTestConfig returns a non-interactive runtime configuration with every
// default applied and a captured logger. A non-nil store replaces the
// configured backend.
//
//	cfg, logs := NewTestConfig(t, fakes.NewFakeRecordStore())
//	cmd := commands.NewFunctionsCommand(cfg)
func NewTestConfig(t *testing.T, store recordstore.API) (*config.Config, *LogBuffer) {
	t.Helper()

	logger, logs := NewTestLogger(t, false)
	return &config.Config{
		Path:           filepath.Join(t.TempDir(), config.DefaultPath),
		Logger:         logger,
		NonInteractive: true,
		Definition:     config.Default(),
		Store:          store,
	}, logs
}

// WriteTestConfig writes yamlContent to an fnctl.yaml in a temporary
// directory and returns its path.
//
//	path := WriteTestConfig(t, `
//	backend:
//	  base_url: https://api.example.com
//	  project_id: prj_1
//	`)
func WriteTestConfig(t *testing.T, yamlContent string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), config.DefaultPath)
	if err := os.WriteFile(path, []byte(yamlContent), 0o600); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}
