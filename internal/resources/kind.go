package resources

import (
	"time"

	"github.com/systmms/fnconsole/pkg/recordstore"
)

// Kind describes one resource type to a Client: where it lives, which fields
// to read, how it is named in messages and how forms become payloads.
type Kind[T any, F any] struct {
	// Collection is the record-store table name.
	Collection string
	// Fields are the declared fields requested on reads.
	Fields []string
	// Singular and Plural are lower-case nouns used in fallback messages.
	Singular, Plural string

	ID             func(T) int64
	ValidateCreate func(F) error
	ValidateUpdate func(F) error
	CreatePayload  func(form F, now time.Time) (recordstore.Record, error)
	UpdatePayload  func(id int64, form F, now time.Time) (recordstore.Record, error)
	// Sensitive returns submitted values that must never reach the log.
	// Optional.
	Sensitive func(F) []string
}

func (k Kind[T, F]) sensitive(form F) []string {
	if k.Sensitive == nil {
		return nil
	}
	return k.Sensitive(form)
}

// Title returns Singular with its first letter upper-cased.
func (k Kind[T, F]) Title() string {
	if k.Singular == "" {
		return ""
	}
	b := []byte(k.Singular)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func timeOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return timestamp(*t)
}
