package errors

import (
	"errors"
	"fmt"
	"strings"
)

// UserError represents an error that should be shown to the user with helpful context
type UserError struct {
	Message    string
	Suggestion string
	Details    string
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  💡 Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error with helpful context
type ConfigError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
}

func (e ConfigError) Error() string {
	msg := "Configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in field '%s'", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	msg += ": " + e.Message

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

// BackendFailure is reported when the record store answers with success=false.
type BackendFailure struct {
	Op      string
	Message string
}

func (e *BackendFailure) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: record store reported failure", e.Op)
	}
	return e.Message
}

// TransportFailure wraps network and decoding errors. Message is the text shown
// to the user: the backend's own message when the transport carried one,
// otherwise a fixed fallback.
type TransportFailure struct {
	Op      string
	Message string
	Err     error
}

func (e *TransportFailure) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op + ": transport failure"
}

func (e *TransportFailure) Unwrap() error {
	return e.Err
}

// FieldError is a single per-field validation error attached to a batch entry.
type FieldError struct {
	FieldLabel string `json:"fieldLabel"`
	Message    string `json:"message"`
}

func (f FieldError) String() string {
	return fmt.Sprintf("%s: %s", f.FieldLabel, f.Message)
}

// ValidationFailure describes one failed entry of a batch request.
type ValidationFailure struct {
	Fields  []FieldError
	Message string
}

func (e *ValidationFailure) Error() string {
	return strings.Join(e.Messages(), "; ")
}

// Messages returns the user-visible lines: one per field error, then the
// record-level message if any.
func (e *ValidationFailure) Messages() []string {
	msgs := make([]string, 0, len(e.Fields)+1)
	for _, f := range e.Fields {
		msgs = append(msgs, f.String())
	}
	if e.Message != "" {
		msgs = append(msgs, e.Message)
	}
	return msgs
}

// NotFound is returned by lookups that miss. Message, when set, is the
// store's own wording and replaces the generated text.
type NotFound struct {
	Kind    string
	ID      string
	Message string
}

func (e *NotFound) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Kind == "" {
		return "Not found"
	}
	return e.Kind + " not found"
}

// IsNotFound reports whether err is, or wraps, a NotFound.
func IsNotFound(err error) bool {
	var nf *NotFound
	return errors.As(err, &nf)
}

// Messages flattens err into the ordered list of user-visible notification
// lines. Joined errors are expanded in order.
func Messages(err error) []string {
	if err == nil {
		return nil
	}

	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var msgs []string
		for _, e := range joined.Unwrap() {
			msgs = append(msgs, Messages(e)...)
		}
		return msgs
	}

	var vf *ValidationFailure
	if errors.As(err, &vf) {
		return vf.Messages()
	}

	return []string{err.Error()}
}

// SimplifyError simplifies complex error messages for users
func SimplifyError(err error) error {
	if err == nil {
		return nil
	}

	// Already a user-friendly error
	if _, ok := err.(UserError); ok {
		return err
	}
	if _, ok := err.(ConfigError); ok {
		return err
	}

	// Unwrap to get the root cause
	rootErr := err
	for {
		unwrapped := errors.Unwrap(rootErr)
		if unwrapped == nil {
			break
		}
		rootErr = unwrapped
	}

	errStr := rootErr.Error()

	if strings.Contains(errStr, "yaml:") {
		return ConfigError{
			Message:    "Invalid YAML format",
			Suggestion: "Check for indentation errors and missing quotes",
		}
	}

	if strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "no such host") {
		return UserError{
			Message:    "Unable to reach the record store",
			Suggestion: "Check backend.base_url in your configuration and your network connection",
			Err:        err,
		}
	}

	if strings.Contains(errStr, "permission denied") {
		return UserError{
			Message:    "Permission denied",
			Suggestion: "Check file permissions or run with appropriate privileges",
			Err:        err,
		}
	}

	return err
}
