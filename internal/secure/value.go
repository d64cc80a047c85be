package secure

import (
	"github.com/awnumar/memguard"
)

// Value holds a sensitive string inside a memguard enclave. The zero Value is
// empty and ready to use. Copies share the same immutable enclave.
type Value struct {
	enclave *memguard.Enclave
}

// NewValue returns a Value holding s.
func NewValue(s string) Value {
	var v Value
	v.Set(s)
	return v
}

// Set replaces the held value. An empty s clears it.
func (v *Value) Set(s string) {
	if s == "" {
		v.enclave = nil
		return
	}
	// NewEnclave wipes its input, so hand it a private copy.
	v.enclave = memguard.NewEnclave([]byte(s))
}

// IsEmpty reports whether no value is held.
func (v Value) IsEmpty() bool {
	return v.enclave == nil
}

// Reveal decrypts and returns the held value. An empty Value reveals "".
func (v Value) Reveal() (string, error) {
	if v.enclave == nil {
		return "", nil
	}
	locked, err := v.enclave.Open()
	if err != nil {
		return "", err
	}
	defer locked.Destroy()
	return string(locked.Bytes()), nil
}

// Clear drops the held value.
func (v *Value) Clear() {
	v.enclave = nil
}

// String implements fmt.Stringer and never exposes the value.
func (v Value) String() string {
	return "[REDACTED]"
}

// GoString implements fmt.GoStringer for %#v.
func (v Value) GoString() string {
	return "[REDACTED]"
}

// Purge wipes all memguard-managed memory. Call once at process exit.
func Purge() {
	memguard.Purge()
}
