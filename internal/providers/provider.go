// Package providers wraps external model services behind small interfaces
// with retry, rate limiting, and lenient structured-output decoding.
package providers

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// TextClient is the interface for text-generation requests. Implementations
// own their retry policy; a returned error is final for that invocation.
type TextClient interface {
	// Generate sends a single prompt and returns the raw model text.
	Generate(ctx context.Context, prompt string) (string, error)

	// Name returns the client identifier (e.g., "gemini").
	Name() string
}

// ErrNoAPIKey indicates no upstream credential is configured. It is raised
// before any generation attempt and never retried.
var ErrNoAPIKey = errors.New("no API key configured for the text-generation service")

// RateLimitError signals an upstream rate-limit response. It is the only
// error class the client retries.
type RateLimitError struct {
	Message    string
	RetryAfter time.Duration
	StatusCode int
}

func (e *RateLimitError) Error() string { return e.Message }

// GenerationError indicates an upstream text-generation call failed after
// exhausting retries, or failed with a non-retryable error. It is fatal for
// the job that issued it.
type GenerationError struct {
	Message string
	Err     error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *GenerationError) Unwrap() error { return e.Err }
