package oracle

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/gangwaa/NerualAdsV2/internal/core"
)

// fencePattern matches markdown code fences with an optional language tag.
var fencePattern = regexp.MustCompile("(?s)```(\\w*)\\s*\\n?(.+?)```")

// ExtractJSON pulls a JSON object or array out of a completion. Fenced
// ```json blocks win over raw braces in the surrounding text.
func ExtractJSON(text string) (string, bool) {
	for _, m := range fencePattern.FindAllStringSubmatch(text, -1) {
		lang := strings.ToLower(m[1])
		if lang != "" && lang != "json" {
			continue
		}
		body := strings.TrimSpace(m[2])
		if json.Valid([]byte(body)) {
			return body, true
		}
	}

	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return "", false
	}
	if body := matchBrackets(text[start:]); body != "" && json.Valid([]byte(body)) {
		return body, true
	}
	return "", false
}

// matchBrackets returns the prefix of s up to the bracket that closes s[0],
// ignoring brackets inside JSON strings.
func matchBrackets(s string) string {
	open := s[0]
	closer := byte('}')
	if open == '[' {
		closer = ']'
	}

	depth := 0
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == open:
			depth++
		case c == closer:
			depth--
			if depth == 0 {
				return s[:i+1]
			}
		}
	}
	return ""
}

// DecodeJSON extracts JSON from text and unmarshals it into out. Failures
// are PROVIDER_MALFORMED errors so callers treat them like any other oracle
// failure.
func DecodeJSON(provider, text string, out any) error {
	body, ok := ExtractJSON(text)
	if !ok {
		return core.ErrProvider(provider, core.CodeProviderMalformed, "no JSON in response")
	}
	if err := json.Unmarshal([]byte(body), out); err != nil {
		return core.ErrProvider(provider, core.CodeProviderMalformed,
			fmt.Sprintf("invalid JSON: %v", err)).WithCause(err)
	}
	return nil
}
