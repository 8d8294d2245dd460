// Package normalize cleans user-supplied catalog text.
package normalize

import "strings"

// Text trims s and collapses internal runs of whitespace to a single space.
func Text(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
