// Package slug allocates the unique, URL-safe identifiers that address each
// business microsite, and derives the public URLs they are served under.
package slug

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	MinLength = 3
	MaxLength = 50
)

var (
	formatRe   = regexp.MustCompile(`^[a-z0-9-]{3,50}$`)
	separators = regexp.MustCompile(`[^a-z0-9]+`)
)

// reserved slugs would shadow top-level routes when a site is served from
// the subdirectory form https://{domain}/{slug}.
var reserved = map[string]struct{}{
	"admin":        {},
	"api":          {},
	"appointments": {},
	"auth":         {},
	"business":     {},
	"healthz":      {},
	"metrics":      {},
	"readyz":       {},
	"static":       {},
	"www":          {},
}

// Normalize lowercases and trims s, collapses every run of characters outside
// [a-z0-9] into one hyphen and strips hyphens at either end.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = separators.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Valid reports whether s already has the stored slug format.
func Valid(s string) bool {
	return formatRe.MatchString(s)
}

func Reserved(s string) bool {
	_, ok := reserved[s]
	return ok
}

// Base derives the probing base from a business name. Names that normalize
// to fewer than MinLength characters get a "-site" suffix; long names are
// cut to MaxLength.
func Base(businessName string) string {
	base := Normalize(businessName)
	switch {
	case base == "":
		base = "site"
	case len(base) < MinLength:
		base += "-site"
	}
	return truncate(base, MaxLength)
}

// WithSuffix returns base-n, shortening base so the result stays within
// MaxLength.
func WithSuffix(base string, n int) string {
	suffix := "-" + strconv.Itoa(n)
	return truncate(base, MaxLength-len(suffix)) + suffix
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return strings.TrimRight(s[:max], "-")
}
