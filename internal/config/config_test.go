package config

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dserrors "github.com/systmms/fnconsole/internal/errors"
	"github.com/systmms/fnconsole/internal/logging"
	"github.com/systmms/fnconsole/pkg/recordstore"
	"github.com/systmms/fnconsole/tests/fakes"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fnctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefinition_Load(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `version: 1
backend:
  driver: http
  base_url: https://api.example.com/v1
  project_id: prj_123
  public_key_env: ACME_KEY
  timeout_ms: 5000
collections:
  functions: staging_function
server:
  addr: "127.0.0.1:9090"
`)

	cfg := &Config{Path: path, Logger: logging.Discard()}
	require.NoError(t, cfg.Load())

	def := cfg.Definition
	assert.Equal(t, 1, def.Version)
	assert.Equal(t, DriverHTTP, def.Backend.Driver)
	assert.Equal(t, "https://api.example.com/v1", def.Backend.BaseURL)
	assert.Equal(t, "prj_123", def.Backend.ProjectID)
	assert.Equal(t, "ACME_KEY", def.Backend.PublicKeyEnv)
	assert.Equal(t, 5*time.Second, def.Backend.GetTimeout())
	assert.Equal(t, "staging_function", def.Collections.Functions)
	assert.Equal(t, "secret", def.Collections.Secrets)
	assert.Equal(t, "127.0.0.1:9090", def.Server.Addr)
}

func TestDefaults(t *testing.T) {
	t.Parallel()

	def, err := Parse([]byte("backend:\n  base_url: https://api.example.com\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, def.Version)
	assert.Equal(t, DriverHTTP, def.Backend.Driver)
	assert.Equal(t, "FNCTL_PUBLIC_KEY", def.Backend.PublicKeyEnv)
	assert.Equal(t, 30*time.Second, def.Backend.GetTimeout())
	assert.Equal(t, "apper_function", def.Collections.Functions)
	assert.Equal(t, "secret", def.Collections.Secrets)
	assert.Equal(t, ":8080", def.Server.Addr)

	assert.Equal(t, def, func() *Definition { d := Default(); d.Backend.BaseURL = "https://api.example.com"; return d }())
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		content   string
		wantField string
	}{
		{"invalid_yaml", "backend: [", ""},
		{"unsupported_version", "version: 2", "version"},
		{"unknown_driver", "backend:\n  driver: sqlite", "backend.driver"},
		{"relative_url", "backend:\n  base_url: api.example.com", "backend.base_url"},
		{"sql_without_dsn", "backend:\n  driver: postgres", "backend.dsn"},
		{"negative_timeout", "backend:\n  timeout_ms: -1", "backend.timeout_ms"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse([]byte(tt.content))
			require.Error(t, err)
			var ce dserrors.ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.wantField, ce.Field)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	cfg := &Config{Path: filepath.Join(t.TempDir(), "missing.yaml")}
	err := cfg.Load()
	var ce dserrors.ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Suggestion, "fnctl init")

	require.NoError(t, cfg.LoadOrDefault())
	assert.Equal(t, Default(), cfg.Definition)
}

func TestWrite(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "fnctl.yaml")
	def := Default()
	def.Backend.BaseURL = "https://api.example.com/v1"
	def.Backend.ProjectID = "prj_9"

	require.NoError(t, Write(path, def))

	cfg := &Config{Path: path}
	require.NoError(t, cfg.Load())
	assert.Equal(t, def, cfg.Definition)

	var ue dserrors.UserError
	require.ErrorAs(t, Write(path, def), &ue)
	assert.Contains(t, ue.Message, "already exists")
}

func TestPublicKeyResolution(t *testing.T) {
	t.Parallel()

	backend := BackendConfig{ProjectID: "prj_1", PublicKeyEnv: "ACME_KEY"}

	tests := []struct {
		name    string
		env     map[string]string
		keyring *fakes.FakeKeyring
		want    string
		wantErr string
	}{
		{
			name:    "env_wins_over_keyring",
			env:     map[string]string{"ACME_KEY": "pk_env"},
			keyring: fakes.NewFakeKeyring().WithSecret(KeyringService, "prj_1", "pk_keyring"),
			want:    "pk_env",
		},
		{
			name:    "keyring_fallback",
			keyring: fakes.NewFakeKeyring().WithSecret(KeyringService, "prj_1", "pk_keyring"),
			want:    "pk_keyring",
		},
		{
			name:    "missing",
			keyring: fakes.NewFakeKeyring(),
			wantErr: "No record-store public key configured",
		},
		{
			name:    "keyring_failure",
			keyring: &fakes.FakeKeyring{GetErr: errors.New("dbus: no session bus")},
			wantErr: "Failed to read the OS keyring",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cr := &Credentials{
				Keyring: tt.keyring,
				Getenv:  func(k string) string { return tt.env[k] },
			}
			key, err := cr.PublicKey(backend)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, key)
		})
	}
}

func TestPublicKeyEnvSkipsKeyring(t *testing.T) {
	t.Parallel()

	kr := fakes.NewFakeKeyring()
	cr := &Credentials{Keyring: kr, Getenv: func(string) string { return "pk_env" }}
	_, err := cr.PublicKey(BackendConfig{ProjectID: "prj_1"})
	require.NoError(t, err)
	assert.Zero(t, kr.GetCallCount)
}

func TestStoreAndForget(t *testing.T) {
	t.Parallel()

	kr := fakes.NewFakeKeyring()
	cr := &Credentials{Keyring: kr}

	require.NoError(t, cr.Store("prj_1", "pk_live"))
	assert.Equal(t, "pk_live", kr.Secrets[KeyringService]["prj_1"])

	require.Error(t, cr.Store("", "pk_live"))
	require.Error(t, cr.Store("prj_1", ""))

	require.NoError(t, cr.Forget("prj_1"))
	require.NoError(t, cr.Forget("prj_1"))
	_, err := cr.PublicKey(BackendConfig{ProjectID: "prj_1"})
	assert.Error(t, err)
}

func TestOpenBackendHTTP(t *testing.T) {
	t.Parallel()

	def := Default()
	def.Backend.BaseURL = "https://api.example.com/v1"
	def.Backend.ProjectID = "prj_1"
	var logs bytes.Buffer
	cfg := &Config{Definition: def, Logger: logging.NewWithWriter(&logs, true, true)}
	cr := &Credentials{Keyring: fakes.NewFakeKeyring().WithSecret(KeyringService, "prj_1", "pk_live_7f3a9c")}

	b, err := cfg.OpenBackend(context.Background(), cr)
	require.NoError(t, err)
	_, ok := b.API.(*recordstore.HTTPClient)
	assert.True(t, ok)
	assert.NoError(t, b.Close())

	assert.Contains(t, logs.String(), "key [REDACTED]")
	assert.NotContains(t, logs.String(), "pk_live_7f3a9c")
}

func TestOpenBackendErrors(t *testing.T) {
	t.Parallel()

	cr := &Credentials{Keyring: fakes.NewFakeKeyring()}

	_, err := (&Config{}).OpenBackend(context.Background(), cr)
	assert.Error(t, err)

	unconfigured := &Config{Definition: Default()}
	_, err = unconfigured.OpenBackend(context.Background(), cr)
	var ce dserrors.ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "backend.base_url", ce.Field)

	noKey := Default()
	noKey.Backend.BaseURL = "https://api.example.com"
	noKey.Backend.ProjectID = "prj_1"
	_, err = (&Config{Definition: noKey}).OpenBackend(context.Background(), cr)
	var ue dserrors.UserError
	require.ErrorAs(t, err, &ue)
	assert.Contains(t, ue.Suggestion, "fnctl login")
}

func TestOpenBackendUsesInjectedStore(t *testing.T) {
	t.Parallel()

	store := fakes.NewFakeRecordStore()
	cfg := &Config{Store: store}

	b, err := cfg.OpenBackend(context.Background(), nil)
	require.NoError(t, err)
	assert.Same(t, store, b.API)
	assert.NoError(t, b.Close())
}
