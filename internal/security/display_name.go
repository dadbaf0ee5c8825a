package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// DisplayNameSanitizer strips markup from user-supplied display names.
type DisplayNameSanitizer struct {
	policy *bluemonday.Policy
}

// NewDisplayNameSanitizer returns a sanitizer using bluemonday's strict
// policy (no elements, no attributes).
func NewDisplayNameSanitizer() *DisplayNameSanitizer {
	return &DisplayNameSanitizer{policy: bluemonday.StrictPolicy()}
}

// maxRounds bounds the passes spent on nested encodings.
const maxRounds = 4

// Sanitize decodes entities, removes tags and trims surrounding whitespace,
// repeating until the name no longer changes. Entity-encoded markup is decoded
// before the policy runs so it cannot come back out as tags.
func (s *DisplayNameSanitizer) Sanitize(name string) string {
	for range maxRounds {
		next := strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(html.UnescapeString(name))))
		if next == name {
			break
		}
		name = next
	}
	return name
}
