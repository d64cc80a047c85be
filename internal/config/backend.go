package config

import (
	"context"
	"fmt"

	dserrors "github.com/systmms/fnconsole/internal/errors"
	"github.com/systmms/fnconsole/internal/logging"
	"github.com/systmms/fnconsole/pkg/recordstore"
	"github.com/systmms/fnconsole/pkg/recordstore/sqlstore"
)

// Backend is an opened record store.
type Backend struct {
	API   recordstore.API
	close func() error
}

// Close releases the backend's resources.
func (b *Backend) Close() error {
	if b == nil || b.close == nil {
		return nil
	}
	return b.close()
}

// OpenBackend builds the record store selected by backend.driver. A nil cr
// falls back to c.Credentials, then to the OS keyring.
func (c *Config) OpenBackend(ctx context.Context, cr *Credentials) (*Backend, error) {
	if c.Store != nil {
		return &Backend{API: c.Store}, nil
	}
	def, err := c.definition()
	if err != nil {
		return nil, err
	}
	b := def.Backend
	if cr == nil {
		cr = c.Credentials
	}
	if cr == nil {
		cr = NewCredentials()
	}

	switch b.Driver {
	case DriverHTTP:
		if b.BaseURL == "" {
			return nil, dserrors.ConfigError{
				Field:      "backend.base_url",
				Message:    "the record store URL is not configured",
				Suggestion: "Set backend.base_url in fnctl.yaml, or run 'fnctl init'",
			}
		}
		key, err := cr.PublicKey(b)
		if err != nil {
			return nil, err
		}
		client, err := recordstore.NewHTTPClient(recordstore.HTTPConfig{
			BaseURL:   b.BaseURL,
			ProjectID: b.ProjectID,
			PublicKey: key,
			Timeout:   b.GetTimeout(),
		})
		if err != nil {
			return nil, dserrors.ConfigError{Field: "backend.base_url", Value: b.BaseURL, Message: err.Error()}
		}
		if c.Logger != nil {
			c.Logger.Debug("Using record store at %s (project %s, key %s)", b.BaseURL, b.ProjectID, logging.Secret(key))
		}
		return &Backend{API: client}, nil

	case DriverPostgres, DriverMySQL:
		store, err := sqlstore.Open(b.Driver, b.DSN)
		if err != nil {
			return nil, dserrors.UserError{
				Message:    fmt.Sprintf("Failed to open %s database", b.Driver),
				Details:    err.Error(),
				Suggestion: "Check backend.dsn in fnctl.yaml",
				Err:        err,
			}
		}
		pingCtx, cancel := context.WithTimeout(ctx, b.GetTimeout())
		defer cancel()
		if err := store.Ping(pingCtx); err != nil {
			_ = store.Close()
			return nil, dserrors.SimplifyError(fmt.Errorf("failed to connect to %s: %w", b.Driver, err))
		}
		if c.Logger != nil {
			c.Logger.Debug("Using %s record store", b.Driver)
		}
		return &Backend{API: store, close: store.Close}, nil
	}

	return nil, def.Validate()
}
