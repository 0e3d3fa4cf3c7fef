package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// HTTPBackend calls a plain JSON completion endpoint:
//
//	POST {endpoint} {"model": ..., "system": ..., "prompt": ...} -> {"content": ...}
type HTTPBackend struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
}

type httpCompletionRequest struct {
	Model  string `json:"model"`
	System string `json:"system,omitempty"`
	Prompt string `json:"prompt"`
}

type httpCompletionResponse struct {
	Content string `json:"content"`
}

func NewHTTPBackend(endpoint, apiKey, model string) (*HTTPBackend, error) {
	if endpoint == "" {
		return nil, errors.New("http backend endpoint missing; set LLM_HTTP_ENDPOINT")
	}
	return &HTTPBackend{
		endpoint: endpoint,
		apiKey:   apiKey,
		model:    model,
		// The caller bounds each call through its context
		client: &http.Client{},
	}, nil
}

func (h *HTTPBackend) Complete(ctx context.Context, prompt Prompt) (string, error) {
	id := "http/" + h.model

	jsonBody, err := json.Marshal(httpCompletionRequest{Model: h.model, System: prompt.System, Prompt: prompt.User})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", "TutorialGenerator/1.0")
	if h.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+h.apiKey)
	}

	resp, err := h.client.Do(httpReq)
	if err != nil {
		logrus.Errorf("HTTP request failed to completion backend %s: %v", h.endpoint, err)
		return "", err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", NewRemoteError(id, resp.StatusCode, "failed to read response body", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		remote := NewRemoteError(id, resp.StatusCode, extractErrorMessage(bodyBytes), nil)
		remote.RetryAfter = ParseRetryAfter(resp.Header.Get("Retry-After"), time.Now())
		return "", remote
	}

	var completion httpCompletionResponse
	if err := json.Unmarshal(bodyBytes, &completion); err != nil {
		return "", NewRemoteError(id, resp.StatusCode, "invalid response body", err)
	}
	return completion.Content, nil
}

// extractErrorMessage pulls "error" or "message" out of a JSON error body
func extractErrorMessage(body []byte) string {
	var errorResp map[string]interface{}
	if err := json.Unmarshal(body, &errorResp); err == nil {
		if errorMsg, ok := errorResp["error"].(string); ok {
			return errorMsg
		}
		if errorMsg, ok := errorResp["message"].(string); ok {
			return errorMsg
		}
	}
	if len(body) > 200 {
		return string(body[:200])
	}
	return string(body)
}
