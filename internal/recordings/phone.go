package recordings

import (
	"regexp"
	"strings"
)

// Accepted input shape: NANP 3-3-4 digits with optional separating dashes.
// Anything else is rejected before an entity is created or a call attempted.
var phonePattern = regexp.MustCompile(`^\d{3}-?\d{3}-?\d{4}$`)

// ValidPhoneNumber reports whether raw matches the accepted shape.
func ValidPhoneNumber(raw string) bool {
	return phonePattern.MatchString(raw)
}

// NormalizePhoneNumber converts a validated raw number into the E.164 form
// used for call placement: separators stripped, US country code prepended.
// The raw input is what gets persisted; this output never is.
func NormalizePhoneNumber(raw string) string {
	return "+1" + strings.ReplaceAll(raw, "-", "")
}
