package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/zalando/go-keyring"

	dserrors "github.com/systmms/fnconsole/internal/errors"
)

// KeyringService is the OS keyring service public keys are stored under.
const KeyringService = "fnctl"

// Keyring is the subset of the OS keyring used for public keys.
type Keyring interface {
	Get(service, account string) (string, error)
	Set(service, account, secret string) error
	Delete(service, account string) error
}

// SystemKeyring uses the platform keyring (Keychain, Secret Service, Credential Manager).
type SystemKeyring struct{}

func (SystemKeyring) Get(service, account string) (string, error) {
	return keyring.Get(service, account)
}

func (SystemKeyring) Set(service, account, secret string) error {
	return keyring.Set(service, account, secret)
}

func (SystemKeyring) Delete(service, account string) error {
	return keyring.Delete(service, account)
}

// Credentials resolves the record-store public key.
type Credentials struct {
	Keyring Keyring
	Getenv  func(string) string
}

// NewCredentials returns credentials backed by the environment and the OS keyring.
func NewCredentials() *Credentials {
	return &Credentials{Keyring: SystemKeyring{}, Getenv: os.Getenv}
}

// PublicKey returns the key from the environment variable named by
// b.PublicKeyEnv, falling back to the keyring entry for b.ProjectID.
func (cr *Credentials) PublicKey(b BackendConfig) (string, error) {
	envName := b.PublicKeyEnv
	if envName == "" {
		envName = defaultPublicKeyEnv
	}
	if cr.Getenv != nil {
		if key := cr.Getenv(envName); key != "" {
			return key, nil
		}
	}

	if b.ProjectID == "" || cr.Keyring == nil {
		return "", missingKey(envName, b.ProjectID)
	}

	key, err := cr.Keyring.Get(KeyringService, b.ProjectID)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", missingKey(envName, b.ProjectID)
		}
		return "", dserrors.UserError{
			Message:    "Failed to read the OS keyring",
			Details:    err.Error(),
			Suggestion: fmt.Sprintf("Export %s instead", envName),
			Err:        err,
		}
	}
	return key, nil
}

// Store saves key for projectID in the keyring.
func (cr *Credentials) Store(projectID, key string) error {
	if projectID == "" {
		return dserrors.ConfigError{
			Field:      "backend.project_id",
			Message:    "a project id is required to store a public key",
			Suggestion: "Set backend.project_id in fnctl.yaml or pass --project",
		}
	}
	if key == "" {
		return dserrors.UserError{Message: "Public key cannot be empty"}
	}
	if err := cr.Keyring.Set(KeyringService, projectID, key); err != nil {
		return dserrors.UserError{
			Message:    "Failed to write to the OS keyring",
			Details:    err.Error(),
			Suggestion: "Export the key in an environment variable instead",
			Err:        err,
		}
	}
	return nil
}

// Forget removes the stored key for projectID. A missing entry is not an error.
func (cr *Credentials) Forget(projectID string) error {
	err := cr.Keyring.Delete(KeyringService, projectID)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return dserrors.UserError{
			Message: "Failed to remove the key from the OS keyring",
			Details: err.Error(),
			Err:     err,
		}
	}
	return nil
}

func missingKey(envName, projectID string) error {
	suggestion := fmt.Sprintf("Export %s", envName)
	if projectID != "" {
		suggestion = fmt.Sprintf("Run 'fnctl login' or export %s", envName)
	}
	return dserrors.UserError{
		Message:    "No record-store public key configured",
		Suggestion: suggestion,
	}
}
