package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// MockBackend is an offline backend for local development.
// The model name selects its behavior: "fail" always fails, "ratelimit"
// always reports a rate limit, anything else echoes the prompt.
type MockBackend struct {
	model string
}

func NewMockBackend(model string) *MockBackend {
	return &MockBackend{model: model}
}

func (m *MockBackend) Complete(ctx context.Context, prompt Prompt) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := "mock/" + m.model
	switch m.model {
	case "fail":
		return "", NewRemoteError(id, http.StatusServiceUnavailable, "mock backend unavailable", nil)
	case "ratelimit":
		return "", NewRemoteError(id, http.StatusTooManyRequests, "mock backend rate limited", nil)
	}
	first, _, _ := strings.Cut(strings.TrimSpace(prompt.User), "\n")
	return fmt.Sprintf("# Mock response (%s)\n\n%s\n", m.model, first), nil
}
