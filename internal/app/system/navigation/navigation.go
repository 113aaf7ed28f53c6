// Package navigation provides helpers for safe URL navigation and redirects.
package navigation

import (
	"net/http"
	"strings"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/urlutil"
)

// SafeReturnPath validates a candidate redirect target. Only same-origin
// relative paths survive; absolute URLs, scheme-relative "//host" forms,
// backslash tricks, and embedded "://" separators all yield the fallback.
//
// urlutil.SafeReturn handles the relative-path and scheme checks; the
// backslash and embedded-scheme guards are layered on top because
// browsers treat "/\evil.example" as "//evil.example".
func SafeReturnPath(candidate, fallback string) string {
	candidate = strings.TrimSpace(candidate)
	if strings.HasPrefix(candidate, "/\\") || strings.Contains(candidate, "://") {
		return fallback
	}
	return urlutil.SafeReturn(candidate, "", fallback)
}

// BackURLOptions configures the behavior of SafeBackURL.
type BackURLOptions struct {
	// AllowedPrefix is the required URL prefix (e.g., "/groups").
	// If empty, any safe path is allowed.
	AllowedPrefix string

	// ExcludedSubpaths are subpath patterns to reject (e.g., "/new").
	// These prevent redirect loops back to action pages.
	ExcludedSubpaths []string

	// Fallback is the default URL if no valid return URL is found.
	Fallback string
}

// SafeBackURL extracts and validates a return URL from the request.
//
// It checks both the query parameter and form value for "return",
// validates the URL is safe (not an open redirect), optionally validates
// the prefix, and excludes specified subpaths.
func SafeBackURL(r *http.Request, opts BackURLOptions) string {
	ret := SafeReturnPath(query.Get(r, "return"), "")
	if ret == "" {
		ret = SafeReturnPath(strings.TrimSpace(r.FormValue("return")), "")
	}

	if ret != "" {
		valid := true

		if opts.AllowedPrefix != "" && !strings.HasPrefix(ret, opts.AllowedPrefix) {
			valid = false
		}
		for _, excluded := range opts.ExcludedSubpaths {
			if strings.Contains(ret, excluded) {
				valid = false
				break
			}
		}

		if valid {
			return ret
		}
	}

	return opts.Fallback
}

// Common back URL configurations for reuse across packages.
var (
	// GroupsBackURL returns options for group pages.
	GroupsBackURL = BackURLOptions{
		AllowedPrefix:    "/groups",
		ExcludedSubpaths: []string{"/new"},
		Fallback:         "/groups",
	}

	// DashboardBackURL returns options for dashboard-rooted flows.
	DashboardBackURL = BackURLOptions{
		Fallback: "/dashboard",
	}
)
