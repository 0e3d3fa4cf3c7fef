package generation

import (
	"context"
	"errors"
	"testing"

	"github.com/onegreenvn/tutorial-bundler-backend/internal/models"
	"github.com/onegreenvn/tutorial-bundler-backend/internal/services/failover"
	"github.com/onegreenvn/tutorial-bundler-backend/internal/services/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	responses map[string]string
	errs      map[string]error
	calls     []string
	prompts   []llm.Prompt
}

func (f *fakeCompleter) Complete(_ context.Context, backend string, prompt llm.Prompt) (string, error) {
	f.calls = append(f.calls, backend)
	f.prompts = append(f.prompts, prompt)
	if err, ok := f.errs[backend]; ok {
		return "", err
	}
	return f.responses[backend], nil
}

type fakeCrawler struct {
	pages map[string][]string
	calls []string
}

func (f *fakeCrawler) Crawl(_ context.Context, url string) (*models.CrawlResult, error) {
	f.calls = append(f.calls, url)
	content, ok := f.pages[url]
	if !ok {
		return nil, errors.New("404")
	}
	return &models.CrawlResult{URL: url, Content: content}, nil
}

func item() models.OutlineItem {
	return models.OutlineItem{
		ID:         "1",
		Title:      "Using the API",
		Summary:    "Call endpoints",
		Steps:      []string{"Authenticate", "Paginate"},
		Difficulty: models.DifficultyBeginner,
		SourceURL:  "https://docs.example.com/api",
	}
}

func TestGenerateContentUsesItemSource(t *testing.T) {
	completer := &fakeCompleter{responses: map[string]string{"a/1": "# API tutorial"}}
	crawler := &fakeCrawler{pages: map[string][]string{"https://docs.example.com/api": {"Use a bearer token to authenticate."}}}
	client := NewClient(completer, crawler, []string{"a/1"})

	resp, err := client.GenerateContent(context.Background(), models.GenerateRequest{
		Item: item(), ContentType: models.ContentTypeText, SourceURL: "https://docs.example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "# API tutorial", resp.Content)
	assert.Equal(t, "a/1", resp.Metadata.Backend)
	assert.False(t, resp.Metadata.UsedFallbackURL)
	assert.Equal(t, "https://docs.example.com/api", resp.Metadata.CrawledURL)
	assert.Contains(t, completer.prompts[0].User, "Use a bearer token")
	assert.Contains(t, completer.prompts[0].User, "Authenticate -> Paginate")
}

func TestGenerateContentFallsBackToOverallSource(t *testing.T) {
	completer := &fakeCompleter{responses: map[string]string{"a/1": "script"}}
	crawler := &fakeCrawler{pages: map[string][]string{"https://docs.example.com": {"General docs text."}}}
	client := NewClient(completer, crawler, []string{"a/1"})

	resp, err := client.GenerateContent(context.Background(), models.GenerateRequest{
		Item: item(), ContentType: models.ContentTypeVideo, SourceURL: "https://docs.example.com",
	})
	require.NoError(t, err)
	assert.True(t, resp.Metadata.UsedFallbackURL)
	assert.Equal(t, "https://docs.example.com", resp.Metadata.CrawledURL)
	assert.Equal(t, []string{"https://docs.example.com/api", "https://docs.example.com"}, crawler.calls)
	assert.Contains(t, completer.prompts[0].User, fallbackNotice)
	assert.Contains(t, completer.prompts[0].User, "video script")
}

func TestGenerateContentCrawlFailureIsNotFatal(t *testing.T) {
	completer := &fakeCompleter{responses: map[string]string{"a/1": "content"}}
	client := NewClient(completer, &fakeCrawler{}, []string{"a/1"})

	resp, err := client.GenerateContent(context.Background(), models.GenerateRequest{Item: item(), ContentType: models.ContentTypeText})
	require.NoError(t, err)
	assert.Equal(t, "content", resp.Content)
	assert.Contains(t, completer.prompts[0].User, "no documentation content available")
}

func TestEnhancementSkipsCrawl(t *testing.T) {
	completer := &fakeCompleter{responses: map[string]string{"a/1": "better"}}
	crawler := &fakeCrawler{}
	client := NewClient(completer, crawler, []string{"a/1"})

	_, err := client.GenerateContent(context.Background(), models.GenerateRequest{
		Item: item(), ContentType: models.ContentTypeText,
		EnhancementPrompt: "add examples", ExistingContent: "# Old content",
	})
	require.NoError(t, err)
	assert.Empty(t, crawler.calls)
	assert.Contains(t, completer.prompts[0].User, "USER'S ENHANCEMENT REQUEST: add examples")
	assert.Contains(t, completer.prompts[0].User, "# Old content")
}

func TestGenerateContentFailsOverThenExhausts(t *testing.T) {
	completer := &fakeCompleter{
		responses: map[string]string{"b/2": "from b"},
		errs:      map[string]error{"a/1": llm.NewRemoteError("a/1", 429, "limited", nil)},
	}
	client := NewClient(completer, nil, []string{"a/1", "b/2"})

	resp, err := client.GenerateContent(context.Background(), models.GenerateRequest{Item: item(), ContentType: models.ContentTypeText})
	require.NoError(t, err)
	assert.Equal(t, "from b", resp.Content)
	assert.Equal(t, []string{"a/1", "b/2"}, completer.calls)
	assert.Equal(t, completer.prompts[0], completer.prompts[1], "prompt is prepared once")

	completer.errs["b/2"] = llm.NewRemoteError("b/2", 500, "down", nil)
	_, err = client.GenerateContent(context.Background(), models.GenerateRequest{Item: item(), ContentType: models.ContentTypeText})
	var exhausted *failover.ExhaustedError
	assert.True(t, errors.As(err, &exhausted))
}

func TestGenerateContentRejectsUnknownType(t *testing.T) {
	client := NewClient(&fakeCompleter{}, nil, []string{"a/1"})
	_, err := client.GenerateContent(context.Background(), models.GenerateRequest{Item: item(), ContentType: "audio"})
	assert.Error(t, err)
}
