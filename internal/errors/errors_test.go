package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/fnconsole/internal/errors"
	"github.com/systmms/fnconsole/internal/logging"
)

// TestUserErrorFormatting verifies UserError displays properly
func TestUserErrorFormatting(t *testing.T) {
	t.Parallel()

	err := errors.UserError{
		Message:    "Operation failed",
		Details:    "Connection timeout",
		Suggestion: "Check network connectivity",
	}

	errMsg := err.Error()

	assert.Contains(t, errMsg, "Operation failed")
	assert.Contains(t, errMsg, "Connection timeout")
	assert.Contains(t, errMsg, "Check network connectivity")
	assert.Contains(t, errMsg, "💡")
}

// TestConfigErrorFormatting verifies ConfigError displays with context
func TestConfigErrorFormatting(t *testing.T) {
	t.Parallel()

	err := errors.ConfigError{
		Field:      "backend.base_url",
		Value:      "not a url",
		Message:    "Invalid URL format",
		Suggestion: "Use format: https://hostname/path",
	}

	errMsg := err.Error()

	assert.Contains(t, errMsg, "backend.base_url")
	assert.Contains(t, errMsg, "not a url")
	assert.Contains(t, errMsg, "Invalid URL format")
	assert.Contains(t, errMsg, "https://hostname/path")
}

func TestMessages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want []string
	}{
		{
			name: "nil",
			err:  nil,
			want: nil,
		},
		{
			name: "backend_failure",
			err:  &errors.BackendFailure{Op: "fetch", Message: "Table not found"},
			want: []string{"Table not found"},
		},
		{
			name: "transport_fallback",
			err:  &errors.TransportFailure{Op: "fetch", Message: "Failed to load secrets", Err: fmt.Errorf("dial tcp: refused")},
			want: []string{"Failed to load secrets"},
		},
		{
			name: "validation_fields_then_message",
			err: &errors.ValidationFailure{
				Fields: []errors.FieldError{
					{FieldLabel: "Name", Message: "is required"},
					{FieldLabel: "Value", Message: "too long"},
				},
				Message: "Record rejected",
			},
			want: []string{"Name: is required", "Value: too long", "Record rejected"},
		},
		{
			name: "joined_in_order",
			err: stderrors.Join(
				&errors.ValidationFailure{Fields: []errors.FieldError{{FieldLabel: "Label", Message: "bad"}}},
				&errors.ValidationFailure{Message: "second entry failed"},
			),
			want: []string{"Label: bad", "second entry failed"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, errors.Messages(tt.err))
		})
	}
}

func TestTransportFailureUnwrap(t *testing.T) {
	t.Parallel()

	cause := fmt.Errorf("connection reset")
	err := fmt.Errorf("list: %w", &errors.TransportFailure{Op: "fetch", Err: cause})

	var tf *errors.TransportFailure
	require.True(t, stderrors.As(err, &tf))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, tf.Error(), "connection reset")
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("lookup: %w", &errors.NotFound{Kind: "Endpoint", ID: "x"})
	assert.True(t, errors.IsNotFound(err))
	assert.Equal(t, "Endpoint not found", (&errors.NotFound{Kind: "Endpoint"}).Error())
	assert.Equal(t, "Record not found", (&errors.NotFound{Kind: "Secret", ID: "9", Message: "Record not found"}).Error())
	assert.False(t, errors.IsNotFound(fmt.Errorf("other")))
}

func TestSimplifyError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		input      error
		wantType   string
		wantSubstr string
	}{
		{
			name:       "yaml_error",
			input:      fmt.Errorf("yaml: line 3: did not find expected key"),
			wantType:   "ConfigError",
			wantSubstr: "Invalid YAML format",
		},
		{
			name:       "connection_refused",
			input:      fmt.Errorf("post: %w", fmt.Errorf("dial tcp 127.0.0.1:1: connection refused")),
			wantType:   "UserError",
			wantSubstr: "Unable to reach the record store",
		},
		{
			name:       "passthrough",
			input:      fmt.Errorf("something else"),
			wantType:   "other",
			wantSubstr: "something else",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := errors.SimplifyError(tt.input)
			require.NotNil(t, got)
			assert.Contains(t, got.Error(), tt.wantSubstr)

			switch tt.wantType {
			case "ConfigError":
				_, ok := got.(errors.ConfigError)
				assert.True(t, ok)
			case "UserError":
				_, ok := got.(errors.UserError)
				assert.True(t, ok)
			}
		})
	}

	assert.Nil(t, errors.SimplifyError(nil))
}

func TestErrorMessagesDoNotLeakSecrets(t *testing.T) {
	t.Parallel()

	secret := logging.Secret("sk_live_supersecret")
	err := errors.UserError{
		Message: fmt.Sprintf("failed to update secret %s", secret),
	}

	assert.NotContains(t, err.Error(), "sk_live_supersecret")
	assert.Contains(t, err.Error(), "[REDACTED]")
}
