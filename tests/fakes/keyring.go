package fakes

import (
	"sync"

	"github.com/zalando/go-keyring"
)

// FakeKeyring is an in-memory OS keyring.
type FakeKeyring struct {
	mu sync.Mutex

	// Secrets is a map of service -> account -> value
	Secrets map[string]map[string]string

	// GetErr is returned by Get if set (overrides Secrets lookup)
	GetErr error

	// SetErr is returned by Set if set
	SetErr error

	// GetCallCount tracks how many times Get was called
	GetCallCount int
}

// NewFakeKeyring creates an empty fake keyring
func NewFakeKeyring() *FakeKeyring {
	return &FakeKeyring{Secrets: make(map[string]map[string]string)}
}

// WithSecret stores a secret and returns the keyring for chaining
func (f *FakeKeyring) WithSecret(service, account, value string) *FakeKeyring {
	_ = f.Set(service, account, value)
	return f
}

// Get returns the stored secret or keyring.ErrNotFound
func (f *FakeKeyring) Get(service, account string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.GetCallCount++

	if f.GetErr != nil {
		return "", f.GetErr
	}
	if accounts, ok := f.Secrets[service]; ok {
		if value, ok := accounts[account]; ok {
			return value, nil
		}
	}
	return "", keyring.ErrNotFound
}

// Set stores a secret
func (f *FakeKeyring) Set(service, account, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.SetErr != nil {
		return f.SetErr
	}
	if f.Secrets == nil {
		f.Secrets = make(map[string]map[string]string)
	}
	if f.Secrets[service] == nil {
		f.Secrets[service] = make(map[string]string)
	}
	f.Secrets[service][account] = value
	return nil
}

// Delete removes a secret, returning keyring.ErrNotFound when absent
func (f *FakeKeyring) Delete(service, account string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.Secrets[service][account]; !ok {
		return keyring.ErrNotFound
	}
	delete(f.Secrets[service], account)
	return nil
}
