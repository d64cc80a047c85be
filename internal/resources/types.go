package resources

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Owner is the opaque owner reference attached to records. The store may send
// it as a string, a number, or a lookup object; all are reduced to a string.
type Owner string

// UnmarshalJSON accepts string, number, null and {"Id":..,"Name":..} forms.
func (o *Owner) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*o = ""
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*o = Owner(s)
	case '{':
		var ref struct {
			ID   json.Number `json:"Id"`
			Name string      `json:"Name"`
		}
		if err := json.Unmarshal(data, &ref); err != nil {
			return err
		}
		if ref.ID != "" {
			*o = Owner(ref.ID.String())
		} else {
			*o = Owner(ref.Name)
		}
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("owner: unsupported value %s", data)
		}
		*o = Owner(n.String())
	}
	return nil
}

// Timestamp is a store time value. The store is loose about formats: empty
// strings, zone-less ISO times and plain dates all occur next to RFC 3339.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// UnmarshalJSON accepts null, "" and the layouts above. Zone-less values are
// read as UTC.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		ts.Time = time.Time{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp: unsupported value %s", data)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		ts.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			ts.Time = t
			return nil
		}
	}
	return fmt.Errorf("timestamp: unrecognised format %q", s)
}

// MarshalJSON writes RFC 3339, or null for the zero time.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.Time.Format(time.RFC3339Nano))
}

// Ptr returns the time, or nil when ts is absent or blank.
func (ts *Timestamp) Ptr() *time.Time {
	if ts == nil || ts.IsZero() {
		return nil
	}
	t := ts.Time
	return &t
}

// Function is a deployed serverless function record.
type Function struct {
	ID                    int64      `json:"Id"`
	Name                  string     `json:"Name"`
	Tags                  string     `json:"Tags,omitempty"`
	Owner                 Owner      `json:"Owner,omitempty"`
	Label                 string     `json:"label,omitempty"`
	ScriptID              string     `json:"script_id,omitempty"`
	ExecutionURL          string     `json:"execution_url,omitempty"`
	IsDeployed            bool       `json:"is_deployed"`
	IsActive              bool       `json:"is_active"`
	LastDeployedAt        *Timestamp `json:"last_deployed_at,omitempty"`
	RequireAuthentication bool       `json:"require_authentication"`
	RunAsAdmin            bool       `json:"run_as_admin"`
	CreatedOn             *Timestamp `json:"CreatedOn,omitempty"`
	ModifiedOn            *Timestamp `json:"ModifiedOn,omitempty"`
}

// Secret is an encrypted environment value available to functions.
type Secret struct {
	ID             int64      `json:"Id"`
	Name           string     `json:"Name"`
	Tags           string     `json:"Tags,omitempty"`
	Owner          Owner      `json:"Owner,omitempty"`
	Value          string     `json:"value,omitempty"`
	ProjectID      string     `json:"project_id,omitempty"`
	SecretCreated  *Timestamp `json:"created_on,omitempty"`
	SecretModified *Timestamp `json:"modified_on,omitempty"`
	CreatedOn      *Timestamp `json:"CreatedOn,omitempty"`
	ModifiedOn     *Timestamp `json:"ModifiedOn,omitempty"`
}

// GoString keeps the plaintext value out of %#v output.
func (s Secret) GoString() string {
	return fmt.Sprintf("resources.Secret{ID:%d, Name:%s, Value:[REDACTED]}", s.ID, strconv.Quote(s.Name))
}
