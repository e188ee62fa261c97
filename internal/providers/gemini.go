package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	GeminiName         = "gemini"
	GeminiBaseURL      = "https://generativelanguage.googleapis.com/v1beta"
	geminiDefaultModel = "gemini-2.5-flash"
)

// GeminiConfig holds configuration for the Gemini client.
type GeminiConfig struct {
	APIKey      string
	Model       string
	BaseURL     string        // Optional (tests)
	Timeout     time.Duration // HTTP timeout
	Temperature float64
	// Retry policy: rate-limit responses are retried with a linearly
	// increasing delay; everything else fails immediately.
	MaxAttempts int           // Total attempts including the first (default: 4)
	RetryDelay  time.Duration // Base delay; attempt n waits base*n (default: 10s)
	RateLimit   int           // Requests per minute for the local limiter
	HTTPClient  *http.Client  // Optional (tests)
	Logger      *slog.Logger
}

// GeminiClient implements TextClient against the Gemini generateContent API.
// Responses are requested as JSON; callers decode them leniently.
type GeminiClient struct {
	apiKey      string
	model       string
	baseURL     string
	temperature float64
	maxAttempts int
	retryDelay  time.Duration
	limiter     *RateLimiter
	client      *http.Client
	logger      *slog.Logger
}

// NewGeminiClient creates a new Gemini client.
func NewGeminiClient(cfg GeminiConfig) *GeminiClient {
	if cfg.Model == "" {
		cfg.Model = geminiDefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = GeminiBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.7
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 4
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &GeminiClient{
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		baseURL:     cfg.BaseURL,
		temperature: cfg.Temperature,
		maxAttempts: cfg.MaxAttempts,
		retryDelay:  cfg.RetryDelay,
		limiter:     NewRateLimiter(cfg.RateLimit),
		client:      httpClient,
		logger:      cfg.Logger,
	}
}

// Name returns the client identifier.
func (c *GeminiClient) Name() string {
	return GeminiName
}

// Generate sends a single prompt and returns the model text. Rate-limit
// responses are retried up to the configured attempt budget with a linearly
// increasing delay; any other failure is wrapped in a *GenerationError and
// returned immediately. A missing API key fails with ErrNoAPIKey before any
// call is made.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", ErrNoAPIKey
	}

	var out string
	err := retry.Do(
		func() error {
			text, err := c.generateOnce(ctx, prompt)
			if err != nil {
				return err
			}
			out = text
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(c.maxAttempts)),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			var rle *RateLimitError
			return errors.As(err, &rle)
		}),
		retry.DelayType(func(n uint, _ error, _ *retry.Config) time.Duration {
			return c.retryDelay * time.Duration(n+1)
		}),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("rate limit hit, backing off",
				"attempt", n+1, "max_attempts", c.maxAttempts,
				"wait", c.retryDelay*time.Duration(n+1), "error", err)
		}),
	)
	if err != nil {
		var rle *RateLimitError
		if errors.As(err, &rle) {
			return "", &GenerationError{
				Message: fmt.Sprintf("rate limit still exceeded after %d attempts", c.maxAttempts),
				Err:     err,
			}
		}
		var ge *GenerationError
		if errors.As(err, &ge) {
			return "", ge
		}
		return "", &GenerationError{Message: "text generation failed", Err: err}
	}
	return out, nil
}

// generateOnce performs exactly one generateContent call.
func (c *GeminiClient) generateOnce(ctx context.Context, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	reqBody := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: prompt}}},
		},
		GenerationConfig: geminiGenerationConfig{
			Temperature:      c.temperature,
			ResponseMIMEType: "application/json",
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &GenerationError{Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &GenerationError{Message: "failed to read response", Err: err}
	}

	if isRateLimited(resp.StatusCode, respBody) {
		c.limiter.Record429(parseRetryAfter(resp.Header.Get("Retry-After")))
		return "", &RateLimitError{
			Message:    fmt.Sprintf("Gemini rate limited (status %d)", resp.StatusCode),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			StatusCode: resp.StatusCode,
		}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &GenerationError{
			Message: fmt.Sprintf("Gemini error (status %d): %s", resp.StatusCode, summarizeBody(respBody)),
		}
	}

	var gr geminiResponse
	if err := json.Unmarshal(respBody, &gr); err != nil {
		return "", &GenerationError{Message: "failed to unmarshal response", Err: err}
	}
	if len(gr.Candidates) == 0 {
		return "", &GenerationError{Message: "no candidates in response"}
	}

	var sb strings.Builder
	for _, part := range gr.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return strings.TrimSpace(sb.String()), nil
}

// isRateLimited covers both the HTTP status and the RESOURCE_EXHAUSTED
// status Gemini sometimes delivers on other codes.
func isRateLimited(statusCode int, body []byte) bool {
	if statusCode == http.StatusTooManyRequests {
		return true
	}
	return bytes.Contains(body, []byte("RESOURCE_EXHAUSTED"))
}

func summarizeBody(body []byte) string {
	var apiErr struct {
		Error struct {
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		return apiErr.Error.Message
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

func parseRetryAfter(header string) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0
	}
	d, err := time.ParseDuration(header + "s")
	if err != nil {
		return 0
	}
	return d
}

// Gemini API types

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature      float64 `json:"temperature,omitempty"`
	ResponseMIMEType string  `json:"responseMimeType,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

// Verify interface
var _ TextClient = (*GeminiClient)(nil)
