package ideas

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/onegreenvn/tutorial-bundler-backend/internal/models"
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

func crawl() models.CrawlResult {
	return models.CrawlResult{
		URL:     "https://docs.example.com",
		Title:   "Example Docs",
		Content: []string{"one", "two", "three", "four", "five", "six"},
		Links:   []string{"https://docs.example.com/install", "https://docs.example.com/deploy/"},
	}
}

const validResponse = `{"tutorials": [
  {"id": "t1", "title": "Install the CLI", "summary": "Get set up", "outline": ["Download", "Configure"], "difficulty": "Beginner", "estimatedCost": {"min": 100, "max": 300}, "sourceUrl": "https://docs.example.com/install"},
  {"id": "t1", "title": "Deploy", "summary": "Ship it", "outline": ["Build", "Release"], "difficulty": "advanced", "estimatedCost": {"min": 400, "max": 200}, "sourceUrl": "https://evil.example.org/page"},
  {"id": "t3", "title": "", "outline": ["x"]},
  {"id": "t4", "title": "Empty outline", "outline": []}
]}`

func TestProposeValidatesItems(t *testing.T) {
	completer := &fakeCompleter{responses: map[string]string{"a/1": validResponse}}
	svc := NewService(completer, []string{"a/1"})

	proposal := svc.Propose(context.Background(), crawl())
	require.Nil(t, proposal.RateLimit)
	require.Len(t, proposal.Items, 2)

	first, second := proposal.Items[0], proposal.Items[1]
	assert.Equal(t, "Install the CLI", first.Title)
	assert.Equal(t, []string{"Download", "Configure"}, first.Steps)
	assert.Equal(t, models.DifficultyBeginner, first.Difficulty)
	assert.Equal(t, "https://docs.example.com/install", first.SourceURL)

	assert.Equal(t, "https://docs.example.com", second.SourceURL, "undiscovered url is replaced by the crawl url")
	assert.Equal(t, models.CostEstimate{Min: 200, Max: 400}, second.CostEstimate)
	assert.Equal(t, models.DifficultyAdvanced, second.Difficulty)

	assert.Equal(t, "t1", first.ID)
	_, err := uuid.Parse(second.ID)
	assert.NoError(t, err, "duplicate id is replaced")

	prompt := completer.prompts[0].User
	assert.Contains(t, prompt, "five")
	assert.NotContains(t, prompt, "six")
	assert.Contains(t, prompt, "https://docs.example.com/deploy/")
}

func TestProposeReturnsDiscoveredURLForVariants(t *testing.T) {
	response := `{"tutorials": [{"title": "Deploy", "outline": ["Build"], "sourceUrl": "https://DOCS.example.com/deploy#top"}]}`
	svc := NewService(&fakeCompleter{responses: map[string]string{"a/1": response}}, []string{"a/1"})

	proposal := svc.Propose(context.Background(), crawl())
	require.Len(t, proposal.Items, 1)
	assert.Equal(t, "https://docs.example.com/deploy/", proposal.Items[0].SourceURL)
	assert.Contains(t, append([]string{crawl().URL}, crawl().Links...), proposal.Items[0].SourceURL)
}

func TestProposeFailsOverOnMalformedResponse(t *testing.T) {
	completer := &fakeCompleter{responses: map[string]string{
		"a/1": "I cannot help with that.",
		"b/2": "Sure! Here you go:\n```json\n" + validResponse + "\n```",
	}}
	svc := NewService(completer, []string{"a/1", "b/2"})

	proposal := svc.Propose(context.Background(), crawl())
	assert.Equal(t, []string{"a/1", "b/2"}, completer.calls)
	assert.Len(t, proposal.Items, 2)
}

func TestProposeRateLimited(t *testing.T) {
	slow := llm.NewRemoteError("a/1", 429, "slow down", nil)
	slow.RetryAfter = 90 * time.Second
	slower := llm.NewRemoteError("b/2", 429, "slow down", nil)
	slower.RetryAfter = 300 * time.Second
	completer := &fakeCompleter{errs: map[string]error{
		"a/1": slow,
		"b/2": slower,
		"c/3": llm.NewRemoteError("c/3", 500, "boom", nil),
	}}
	svc := NewService(completer, []string{"a/1", "b/2", "c/3"})

	proposal := svc.Propose(context.Background(), crawl())
	assert.Nil(t, proposal.Items)
	require.NotNil(t, proposal.RateLimit)
	assert.Equal(t, 90, proposal.RateLimit.RetryAfterSeconds)
	assert.Contains(t, proposal.RateLimit.Message, "90 seconds")
}

func TestProposeRateLimitedWithoutHint(t *testing.T) {
	completer := &fakeCompleter{errs: map[string]error{"a/1": llm.NewRemoteError("a/1", 429, "", nil)}}
	proposal := NewService(completer, []string{"a/1"}).Propose(context.Background(), crawl())
	require.NotNil(t, proposal.RateLimit)
	assert.Equal(t, defaultRetryAfterSeconds, proposal.RateLimit.RetryAfterSeconds)
}

func TestProposeFallsBack(t *testing.T) {
	completer := &fakeCompleter{
		responses: map[string]string{"b/2": "not json at all"},
		errs:      map[string]error{"a/1": errors.New("connection refused")},
	}
	svc := NewService(completer, []string{"a/1", "b/2"})

	proposal := svc.Propose(context.Background(), crawl())
	assert.Nil(t, proposal.RateLimit)
	require.Len(t, proposal.Items, 1)
	assert.Equal(t, Fallback("https://docs.example.com"), proposal.Items[0])
	assert.Equal(t, "https://docs.example.com", proposal.Items[0].SourceURL)
}

func TestProposeWithoutBackendsFallsBack(t *testing.T) {
	proposal := NewService(&fakeCompleter{}, nil).Propose(context.Background(), crawl())
	require.Len(t, proposal.Items, 1)
	assert.Equal(t, "Understanding Basic Concepts", proposal.Items[0].Title)
}

func TestFallbackIsDeterministic(t *testing.T) {
	assert.Equal(t, Fallback("https://a.example.com"), Fallback("https://a.example.com"))
	assert.NotEqual(t, Fallback("https://a.example.com").ID, Fallback("https://b.example.com").ID)
	assert.Len(t, Fallback("x").Steps, 4)
}
