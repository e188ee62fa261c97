package providers

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MockTextClient is a scriptable TextClient for tests. Rules are matched
// against the prompt by substring; the first match wins. Per-rule delays let
// tests force specific completion orders for concurrent calls.
type MockTextClient struct {
	mu       sync.Mutex
	rules    []mockRule
	fallback string
	calls    []string
}

type mockRule struct {
	contains string
	response string
	err      error
	delay    time.Duration
}

// NewMockTextClient creates a mock that answers every prompt with "{}".
func NewMockTextClient() *MockTextClient {
	return &MockTextClient{fallback: "{}"}
}

// Respond answers prompts containing the given substring with response.
func (m *MockTextClient) Respond(contains, response string) {
	m.addRule(mockRule{contains: contains, response: response})
}

// RespondAfter answers like Respond, but only after delay has elapsed.
func (m *MockTextClient) RespondAfter(contains string, delay time.Duration, response string) {
	m.addRule(mockRule{contains: contains, response: response, delay: delay})
}

// Fail makes prompts containing the given substring return err.
func (m *MockTextClient) Fail(contains string, err error) {
	m.addRule(mockRule{contains: contains, err: err})
}

// SetDefault sets the response for prompts no rule matches.
func (m *MockTextClient) SetDefault(response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = response
}

func (m *MockTextClient) addRule(r mockRule) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, r)
}

// Generate records the prompt and returns the scripted response.
func (m *MockTextClient) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, prompt)
	rule := mockRule{response: m.fallback}
	for _, r := range m.rules {
		if strings.Contains(prompt, r.contains) {
			rule = r
			break
		}
	}
	m.mu.Unlock()

	if rule.delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(rule.delay):
		}
	}
	if rule.err != nil {
		return "", rule.err
	}
	return rule.response, nil
}

// Name returns the mock identifier.
func (m *MockTextClient) Name() string { return "mock" }

// Calls returns the prompts seen so far, in call order.
func (m *MockTextClient) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns the number of Generate invocations.
func (m *MockTextClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

var _ TextClient = (*MockTextClient)(nil)
