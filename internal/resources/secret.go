package resources

import (
	"fmt"
	"strings"
	"time"

	dserrors "github.com/systmms/fnconsole/internal/errors"
	"github.com/systmms/fnconsole/internal/secure"
	"github.com/systmms/fnconsole/pkg/recordstore"
)

// DefaultSecretCollection is the hosted table holding secrets.
const DefaultSecretCollection = "secret"

// SecretFields are the fields read for every secret.
var SecretFields = []string{
	"Name", "Tags", "Owner", "value", "project_id",
	"created_on", "modified_on", "CreatedOn", "ModifiedOn",
}

// SecretForm is the editable state of a secret. Value is held encrypted in
// memory; an empty Value on update keeps the stored value.
type SecretForm struct {
	Name      string
	Tags      string
	Owner     string
	Value     secure.Value
	ProjectID string
	CreatedOn *time.Time
}

// NewSecretForm returns the blank create form.
func NewSecretForm() SecretForm {
	return SecretForm{}
}

// SecretFormFrom pre-populates an edit form from a stored secret. The stored
// value is never copied into the form.
func SecretFormFrom(s Secret) SecretForm {
	return SecretForm{
		Name:      s.Name,
		Tags:      s.Tags,
		Owner:     string(s.Owner),
		ProjectID: s.ProjectID,
		CreatedOn: s.SecretCreated.Ptr(),
	}
}

func validateSecretCreate(f SecretForm) error {
	var fields []dserrors.FieldError
	if strings.TrimSpace(f.Name) == "" {
		fields = append(fields, dserrors.FieldError{FieldLabel: "Name", Message: "Name is required"})
	}
	if f.Value.IsEmpty() {
		fields = append(fields, dserrors.FieldError{FieldLabel: "Value", Message: "Value is required"})
	}
	if len(fields) > 0 {
		return &dserrors.ValidationFailure{Fields: fields}
	}
	return nil
}

// SecretKind describes secrets stored in collection.
func SecretKind(collection string) Kind[Secret, SecretForm] {
	if collection == "" {
		collection = DefaultSecretCollection
	}
	return Kind[Secret, SecretForm]{
		Collection:     collection,
		Fields:         SecretFields,
		Singular:       "secret",
		Plural:         "secrets",
		ID:             func(s Secret) int64 { return s.ID },
		ValidateCreate: validateSecretCreate,
		ValidateUpdate: func(SecretForm) error { return nil },
		CreatePayload:  secretCreatePayload,
		UpdatePayload:  secretUpdatePayload,
		Sensitive:      secretValues,
	}
}

func secretValues(f SecretForm) []string {
	if f.Value.IsEmpty() {
		return nil
	}
	value, err := f.Value.Reveal()
	if err != nil || value == "" {
		return nil
	}
	return []string{value}
}

func secretCreatePayload(f SecretForm, now time.Time) (recordstore.Record, error) {
	value, err := f.Value.Reveal()
	if err != nil {
		return nil, fmt.Errorf("failed to read secret value: %w", err)
	}

	created := timestamp(now)
	if f.CreatedOn != nil {
		created = timestamp(*f.CreatedOn)
	}

	rec := recordstore.Record{
		"Name":        f.Name,
		"Tags":        f.Tags,
		"value":       value,
		"project_id":  f.ProjectID,
		"created_on":  created,
		"modified_on": timestamp(now),
	}
	if f.Owner != "" {
		rec["Owner"] = f.Owner
	}
	return rec, nil
}

// secretUpdatePayload never carries Name, and carries value only when the
// form holds a new one.
func secretUpdatePayload(id int64, f SecretForm, now time.Time) (recordstore.Record, error) {
	rec := recordstore.Record{
		"Id":          id,
		"Tags":        f.Tags,
		"project_id":  f.ProjectID,
		"modified_on": timestamp(now),
	}
	if f.Owner != "" {
		rec["Owner"] = f.Owner
	}
	if f.CreatedOn != nil {
		rec["created_on"] = timestamp(*f.CreatedOn)
	}
	if !f.Value.IsEmpty() {
		value, err := f.Value.Reveal()
		if err != nil {
			return nil, fmt.Errorf("failed to read secret value: %w", err)
		}
		rec["value"] = value
	}
	return rec, nil
}
