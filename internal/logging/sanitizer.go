package logging

import "regexp"

// Sanitizer redacts provider credentials from log output.
type Sanitizer struct {
	patterns []*regexp.Regexp
	redacted string
}

// NewSanitizer creates a sanitizer with the default credential patterns.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{
		patterns: credentialPatterns,
		redacted: "[REDACTED]",
	}
}

var credentialPatterns = compile(
	// OpenAI keys, including project keys
	`sk-(?:proj-)?[A-Za-z0-9_-]{20,}`,
	// Google AI Studio
	`AIza[a-zA-Z0-9_-]{35}`,
	`(?i)bearer\s+[a-zA-Z0-9._-]{20,}`,
	`(?i)api[_-]?key["'\s:=]+[a-zA-Z0-9_-]{20,}`,
	`(?i)x-goog-api-key["'\s:=]+[a-zA-Z0-9_-]{20,}`,
)

func compile(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}

// Sanitize redacts credentials from a string.
func (s *Sanitizer) Sanitize(input string) string {
	for _, p := range s.patterns {
		input = p.ReplaceAllString(input, s.redacted)
	}
	return input
}

// AddPattern registers an extra pattern on this sanitizer only.
func (s *Sanitizer) AddPattern(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	s.patterns = append(append([]*regexp.Regexp(nil), s.patterns...), re)
	return nil
}
