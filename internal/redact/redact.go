// Package redact scrubs personal data and credentials from text before it
// leaves the process for an external summarization service.
package redact

import (
	"regexp"
	"strings"
)

// Placeholder replaces every redacted span.
const Placeholder = "[REDACTED]"

var patterns []*regexp.Regexp

func init() {
	raw := []string{
		// Email addresses
		`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`,
		// International phone numbers (leading +)
		`\+\d{1,3}[\s.-]?\(?\d{1,4}\)?(?:[\s.-]?\d{2,4}){2,4}`,
		// North American style (area) exchange-line
		`\(\d{3}\)\s?\d{3}[\s.-]\d{4}`,
		// Bearer tokens
		`Bearer\s+[A-Za-z0-9\-._~+/]+=*`,
		// Key/secret/token/password assignments, e.g. crew wifi passwords in notes
		`(?i)\b(api[_-]?key|api[_-]?secret|secret[_-]?key|token|password|passwd|pin)\s*[:=]\s*\S+`,
	}
	for _, r := range raw {
		patterns = append(patterns, regexp.MustCompile(r))
	}
}

// Redact replaces personal and secret patterns in text with Placeholder.
func Redact(text string) string {
	for _, p := range patterns {
		text = p.ReplaceAllString(text, Placeholder)
	}
	return text
}

// Names additionally replaces each non-blank name, case-insensitively.
func Names(text string, names ...string) string {
	text = Redact(text)
	for _, n := range names {
		n = strings.TrimSpace(n)
		if len(n) < 2 {
			continue
		}
		re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(n) + `\b`)
		text = re.ReplaceAllString(text, Placeholder)
	}
	return text
}
