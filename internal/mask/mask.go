// Package mask produces partially obscured display strings for sensitive values.
package mask

import "strings"

// Empty is what an empty value masks to.
const Empty = "***"

// Value masks s for display. Values of four runes or fewer are fully starred;
// longer values keep their first and last two runes around at least four stars.
func Value(s string) string {
	r := []rune(s)
	n := len(r)
	switch {
	case n == 0:
		return Empty
	case n <= 4:
		return strings.Repeat("*", n)
	}
	return string(r[:2]) + strings.Repeat("*", max(4, n-4)) + string(r[n-2:])
}
