package testutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// AssertNoSecretLeak verifies that none of the secret values appear in output.
//
// Example usage:
//
//	AssertNoSecretLeak(t, logs.String(), "sk_live_123", "pk_live_456")
func AssertNoSecretLeak(t *testing.T, output string, secrets ...string) {
	t.Helper()

	for _, secret := range secrets {
		assert.NotContains(t, output, secret,
			"Secret %q should never appear in output", secret)
	}
}

// AssertLinesContain verifies that each expected string appears on some line
// of output, and that the matching lines occur in the given order.
//
// Example usage:
//
//	AssertLinesContain(t, out, "NAME", "send-email", "resize-image")
func AssertLinesContain(t *testing.T, output string, expected ...string) {
	t.Helper()

	lines := strings.Split(output, "\n")
	next := 0
	for _, want := range expected {
		found := false
		for next < len(lines) {
			line := lines[next]
			next++
			if strings.Contains(line, want) {
				found = true
				break
			}
		}
		if !assert.True(t, found, "Expected a line containing %q (in order) in output:\n%s", want, output) {
			return
		}
	}
}
