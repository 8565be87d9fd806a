package ai

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429).
	ErrQuotaExceeded = errors.New("ai quota exceeded")
	// ErrNotConfigured indicates no provider credentials were configured.
	ErrNotConfigured = errors.New("ai provider not configured")
	// ErrInvalidResponse indicates the provider answered without a usable payload.
	ErrInvalidResponse = errors.New("invalid response from AI service")
)

// UpstreamError is a transport failure or non-success status from the provider.
// StatusCode is 0 when no HTTP response was received.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s API error: %s", e.Provider, e.Body)
}

// Is lets errors.Is(err, ErrQuotaExceeded) match rate-limited responses.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrQuotaExceeded && e.StatusCode == http.StatusTooManyRequests
}
