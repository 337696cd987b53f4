package service

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// textSanitizer strips markup from free text while keeping the plain characters readable.
type textSanitizer struct {
	policy *bluemonday.Policy
}

func newTextSanitizer() textSanitizer {
	return textSanitizer{policy: bluemonday.StrictPolicy()}
}

func (s textSanitizer) Clean(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(trimmed)))
}
