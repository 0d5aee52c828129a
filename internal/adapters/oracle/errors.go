package oracle

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/gangwaa/NerualAdsV2/internal/core"
)

var statusCodePattern = regexp.MustCompile(`\b(401|403|404|408|429|500|502|503|504)\b`)

// TranslateError maps a provider SDK error onto a provider-category
// DomainError. Errors that already are DomainErrors pass through unchanged.
// The original error stays reachable through errors.Is/As.
func TranslateError(provider string, err error) error {
	if err == nil {
		return nil
	}
	var domErr *core.DomainError
	if errors.As(err, &domErr) {
		return err
	}

	code, msg := classify(err)
	return core.ErrProvider(provider, code, msg).WithCause(err)
}

func classify(err error) (code, msg string) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return core.CodeProviderTimeout, "request timed out"
	case errors.Is(err, context.Canceled):
		return core.CodeProviderUnavailable, "request canceled"
	}

	lower := strings.ToLower(err.Error())
	switch statusCodePattern.FindString(lower) {
	case "401", "403":
		return core.CodeProviderAuth, "authentication failed"
	case "429":
		if strings.Contains(lower, "quota") || strings.Contains(lower, "insufficient") {
			return core.CodeProviderQuota, "quota exhausted"
		}
		return core.CodeProviderRateLimited, "rate limited"
	case "408":
		return core.CodeProviderTimeout, "request timed out"
	case "500", "502", "503", "504":
		return core.CodeProviderUnavailable, "service unavailable"
	}

	switch {
	case strings.Contains(lower, "api key") || strings.Contains(lower, "unauthorized") ||
		strings.Contains(lower, "permission denied") || strings.Contains(lower, "missing the token"):
		return core.CodeProviderAuth, "authentication failed"
	case strings.Contains(lower, "quota") || strings.Contains(lower, "resource_exhausted"):
		return core.CodeProviderQuota, "quota exhausted"
	case strings.Contains(lower, "rate limit") || strings.Contains(lower, "too many requests"):
		return core.CodeProviderRateLimited, "rate limited"
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline"):
		return core.CodeProviderTimeout, "request timed out"
	case strings.Contains(lower, "connection") || strings.Contains(lower, "no such host") ||
		strings.Contains(lower, "network") || strings.Contains(lower, "eof"):
		return core.CodeProviderNetwork, "network error"
	default:
		return core.CodeProviderUnavailable, "request failed"
	}
}

// ErrEmptyResponse builds the error returned when a provider answers with no text.
func ErrEmptyResponse(provider string) error {
	return core.ErrProvider(provider, core.CodeProviderMalformed, "empty response")
}
