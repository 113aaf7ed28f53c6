// Package htmlsanitize strips dangerous markup from user-supplied HTML
// before it is stored or rendered (group descriptions).
package htmlsanitize

import (
	"github.com/microcosm-cc/bluemonday"
)

var policy = bluemonday.UGCPolicy()

// Sanitize removes scripts, event handlers, and other unsafe markup,
// keeping the common formatting tags allowed for user-generated content.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return policy.Sanitize(s)
}
