package validation

import (
	"strings"
	"unicode"
)

// Sanitizable payloads normalize themselves before rule evaluation. The
// validator always sanitizes first so rules see the value that will be
// persisted, never a raw form of it.
type Sanitizable interface {
	Sanitize()
}

// SanitizeName trims, collapses internal whitespace runs, and normalizes
// letter case (first letter of each segment upper, rest lower).
func SanitizeName(s string) string {
	fields := strings.Fields(s)
	for i, f := range fields {
		fields[i] = titleSegment(f)
	}
	return strings.Join(fields, " ")
}

// SanitizeEmail lower-cases and trims to the canonical form used for
// storage and uniqueness checks.
func SanitizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// titleSegment upper-cases the first letter of each hyphen- or
// apostrophe-separated part and lower-cases the rest.
func titleSegment(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	startOfPart := true
	for _, r := range s {
		switch {
		case r == '-' || r == '\'':
			b.WriteRune(r)
			startOfPart = true
		case startOfPart:
			b.WriteRune(unicode.ToUpper(r))
			startOfPart = false
		default:
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
