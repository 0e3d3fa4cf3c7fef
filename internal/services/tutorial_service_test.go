package services

import (
	"context"
	"errors"
	"testing"

	"github.com/onegreenvn/tutorial-bundler-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCrawler struct {
	result *models.CrawlResult
	err    error
	urls   []string
}

func (c *stubCrawler) Crawl(ctx context.Context, url string) (*models.CrawlResult, error) {
	c.urls = append(c.urls, url)
	if c.err != nil {
		return nil, c.err
	}
	return c.result, nil
}

type stubProposer struct {
	proposal *models.IdeaProposal
}

func (p *stubProposer) Propose(ctx context.Context, crawl models.CrawlResult) *models.IdeaProposal {
	return p.proposal
}

func docsCrawl() *models.CrawlResult {
	return &models.CrawlResult{
		URL:     "https://docs.example.com",
		Title:   "Example Docs",
		Content: []string{"one", "two", "three", "four", "five", "six"},
		Links:   []string{"https://docs.example.com/cli"},
	}
}

func proposedItems() []models.OutlineItem {
	return []models.OutlineItem{
		{ID: "1", Title: "Install the CLI", Steps: []string{"Download", "Verify"}, Difficulty: models.DifficultyBeginner, CostEstimate: models.CostEstimate{Min: 100, Max: 200}, SourceURL: "https://docs.example.com/cli"},
		{ID: "2", Title: "Deploy", Steps: []string{"Build", "Ship"}, Difficulty: models.DifficultyAdvanced, CostEstimate: models.CostEstimate{Min: 200, Max: 400}, SourceURL: "https://docs.example.com"},
	}
}

func newTutorialFixture() (*TutorialService, *memoryTutorialStore, *stubCrawler, *stubProposer, *stubGenerator) {
	store := newMemoryTutorialStore()
	crawler := &stubCrawler{result: docsCrawl()}
	proposer := &stubProposer{proposal: &models.IdeaProposal{Items: proposedItems()}}
	gen := &stubGenerator{fail: map[string]bool{}}
	return NewTutorialService(store, crawler, proposer, gen, nil), store, crawler, proposer, gen
}

func TestCreateBatchStoresProposal(t *testing.T) {
	svc, store, _, _, _ := newTutorialFixture()

	resp, err := svc.CreateBatch(context.Background(), "docs.example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ID)
	assert.Nil(t, resp.RateLimit)
	assert.Equal(t, []string{"one", "two", "three", "four", "five"}, resp.ContentSamples)
	require.Len(t, resp.Tutorials, 2)
	assert.Equal(t, "Install the CLI", resp.Tutorials[0].Title)
	assert.NotEqual(t, "1", resp.Tutorials[0].ID)

	fetched, err := svc.GetBatch(resp.ID)
	require.NoError(t, err)
	assert.Equal(t, resp.Tutorials, fetched.Tutorials)
	assert.Len(t, store.tutorials, 2)
}

func TestCreateBatchRateLimited(t *testing.T) {
	svc, store, _, proposer, _ := newTutorialFixture()
	proposer.proposal = &models.IdeaProposal{RateLimit: &models.RateLimitInfo{RetryAfterSeconds: 30, Message: "Rate limit reached. Please try again in 30 seconds."}}

	resp, err := svc.CreateBatch(context.Background(), "https://docs.example.com")
	require.NoError(t, err)
	require.NotNil(t, resp.RateLimit)
	assert.Equal(t, 30, resp.RateLimit.RetryAfterSeconds)
	assert.Empty(t, resp.Tutorials)
	assert.Empty(t, store.batches)
}

func TestCreateBatchCrawlFailures(t *testing.T) {
	svc, _, crawler, _, _ := newTutorialFixture()

	crawler.err = errors.New("status code: 404")
	_, err := svc.CreateBatch(context.Background(), "https://docs.example.com/missing")
	var cerr *CrawlError
	assert.True(t, errors.As(err, &cerr))

	crawler.err = nil
	crawler.result = &models.CrawlResult{URL: "https://docs.example.com"}
	_, err = svc.CreateBatch(context.Background(), "https://docs.example.com")
	assert.ErrorIs(t, err, ErrNoContent)
}

func TestRegenerateLinksParent(t *testing.T) {
	svc, _, crawler, _, _ := newTutorialFixture()
	first, err := svc.CreateBatch(context.Background(), "https://docs.example.com")
	require.NoError(t, err)

	second, err := svc.Regenerate(context.Background(), first.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, []string{"https://docs.example.com", "https://docs.example.com"}, crawler.urls)

	summaries, total, err := svc.ListBatches(0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	var parents int
	for _, s := range summaries {
		if s.ParentBatchID != nil {
			assert.Equal(t, first.ID, *s.ParentBatchID)
			parents++
		}
	}
	assert.Equal(t, 1, parents)

	_, err = svc.Regenerate(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGenerateContentStoresAIContent(t *testing.T) {
	svc, store, _, _, gen := newTutorialFixture()
	batch, err := svc.CreateBatch(context.Background(), "https://docs.example.com")
	require.NoError(t, err)
	id := batch.Tutorials[0].ID

	resp, err := svc.GenerateContent(context.Background(), id, models.GenerateContentRequest{ContentType: models.ContentTypeText})
	require.NoError(t, err)
	assert.Equal(t, "mock/test", resp.Metadata.Backend)

	entry, ok := store.item(id).GeneratedContent.Get(models.ContentTypeText)
	require.True(t, ok)
	assert.Equal(t, models.OriginAI, entry.Origin)
	assert.Equal(t, "https://docs.example.com", gen.calls[0].SourceURL)
	assert.Empty(t, gen.calls[0].ExistingContent)

	_, err = svc.GenerateContent(context.Background(), id, models.GenerateContentRequest{
		ContentType:       models.ContentTypeText,
		EnhancementPrompt: "  add examples ",
	})
	require.NoError(t, err)
	assert.Equal(t, "add examples", gen.calls[1].EnhancementPrompt)
	assert.Equal(t, entry.Body, gen.calls[1].ExistingContent)
}

func TestGenerateContentFailureIsReturned(t *testing.T) {
	svc, store, _, _, gen := newTutorialFixture()
	batch, err := svc.CreateBatch(context.Background(), "https://docs.example.com")
	require.NoError(t, err)
	gen.fail["Deploy"] = true
	id := batch.Tutorials[1].ID

	_, err = svc.GenerateContent(context.Background(), id, models.GenerateContentRequest{ContentType: models.ContentTypeVideo})
	assert.ErrorIs(t, err, errBackendsDown)
	assert.Nil(t, store.item(id).GeneratedContent)

	_, err = svc.GenerateContent(context.Background(), "missing", models.GenerateContentRequest{ContentType: models.ContentTypeVideo})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateContentMarksUserOrigin(t *testing.T) {
	svc, store, _, _, _ := newTutorialFixture()
	batch, err := svc.CreateBatch(context.Background(), "https://docs.example.com")
	require.NoError(t, err)
	id := batch.Tutorials[0].ID

	item, err := svc.UpdateContent(id, models.UpdateContentRequest{ContentType: models.ContentTypeVideo, Body: "SCRIPT"})
	require.NoError(t, err)
	assert.True(t, item.HasContent(models.ContentTypeVideo))

	entry, ok := store.item(id).GeneratedContent.Get(models.ContentTypeVideo)
	require.True(t, ok)
	assert.Equal(t, models.OriginUser, entry.Origin)
	assert.Equal(t, "SCRIPT", entry.Body)

	_, err = svc.UpdateContent(id, models.UpdateContentRequest{ContentType: models.ContentTypeVideo, Body: "   "})
	assert.ErrorIs(t, err, ErrInvalidRequest)
	_, err = svc.UpdateContent(id, models.UpdateContentRequest{ContentType: "audio", Body: "x"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

type busyBatches map[string]bool

func (b busyBatches) HasActiveRun(batchID string) bool {
	return b[batchID]
}

func TestContentChangesWaitForBundleRun(t *testing.T) {
	svc, store, _, _, gen := newTutorialFixture()
	batch, err := svc.CreateBatch(context.Background(), "https://docs.example.com")
	require.NoError(t, err)
	id := batch.Tutorials[0].ID

	busy := busyBatches{batch.ID: true}
	svc.runs = busy

	_, err = svc.GenerateContent(context.Background(), id, models.GenerateContentRequest{ContentType: models.ContentTypeText})
	assert.ErrorIs(t, err, ErrBatchBusy)
	assert.Equal(t, 0, gen.callCount())

	_, err = svc.UpdateContent(id, models.UpdateContentRequest{ContentType: models.ContentTypeText, Body: "mine"})
	assert.ErrorIs(t, err, ErrBatchBusy)
	assert.Nil(t, store.item(id).GeneratedContent)

	busy[batch.ID] = false
	_, err = svc.UpdateContent(id, models.UpdateContentRequest{ContentType: models.ContentTypeText, Body: "mine"})
	require.NoError(t, err)
	stored := store.item(id)
	assert.True(t, stored.HasContent(models.ContentTypeText))
}
