// Package normalize centralizes trimming and case-folding of user input
// so stores always receive canonical values.
package normalize

import "strings"

// Email trims whitespace and lowercases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims whitespace but preserves case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// QueryParam trims whitespace from a query or form parameter.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}
