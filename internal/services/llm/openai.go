package llm

import (
	"context"
	"errors"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIBackend calls an OpenAI-compatible chat completions endpoint
// (OpenAI itself, or a gateway such as Groq through OPENAI_BASE_URL)
type OpenAIBackend struct {
	model  string
	client openai.Client
}

func NewOpenAIBackend(apiKey, baseURL, model string) (*OpenAIBackend, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key missing; set OPENAI_API_KEY")
	}
	// Retries belong to the failover layer
	opts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIBackend{model: model, client: openai.NewClient(opts...)}, nil
}

func (o *OpenAIBackend) Complete(ctx context.Context, prompt Prompt) (string, error) {
	msgs := []openai.ChatCompletionMessageParamUnion{}
	if prompt.System != "" {
		msgs = append(msgs, openai.SystemMessage(prompt.System))
	}
	msgs = append(msgs, openai.UserMessage(prompt.User))

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.model),
		Messages: msgs,
	})
	if err != nil {
		return "", o.mapError(err)
	}
	if len(resp.Choices) == 0 {
		return "", NewRemoteError("openai/"+o.model, 0, "empty choices", nil)
	}
	return resp.Choices[0].Message.Content, nil
}

func (o *OpenAIBackend) mapError(err error) error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	remote := NewRemoteError("openai/"+o.model, apiErr.StatusCode, apiErr.Error(), err)
	if apiErr.Response != nil {
		remote.RetryAfter = ParseRetryAfter(apiErr.Response.Header.Get("Retry-After"), time.Now())
	}
	return remote
}
