package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/onegreenvn/tutorial-bundler-backend/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidRequest = errors.New("invalid request")
	ErrNoContent      = errors.New("no content could be extracted from the page")
)

// CrawlError means the documentation page could not be fetched
type CrawlError struct {
	URL string
	Err error
}

func (e *CrawlError) Error() string {
	return fmt.Sprintf("failed to crawl %s: %v", e.URL, e.Err)
}

func (e *CrawlError) Unwrap() error {
	return e.Err
}

// TutorialStore persists batches and their tutorials
type TutorialStore interface {
	CreateBatch(batch *models.TutorialBatch) error
	GetBatchByID(id string) (*models.TutorialBatch, error)
	GetBatchWithTutorials(id string) (*models.TutorialBatch, error)
	ListBatches(offset, limit int) ([]*models.TutorialBatch, int64, error)
	GetByID(id string) (*models.Tutorial, error)
	UpdateContent(tutorial *models.Tutorial) error
	UpdateContents(tutorials []*models.Tutorial) error
}

// PageCrawler extracts text and links from a documentation page
type PageCrawler interface {
	Crawl(ctx context.Context, url string) (*models.CrawlResult, error)
}

// IdeaProposer turns a crawl into outline items
type IdeaProposer interface {
	Propose(ctx context.Context, crawl models.CrawlResult) *models.IdeaProposal
}

// ContentGenerator generates one rendition of one item
type ContentGenerator interface {
	GenerateContent(ctx context.Context, req models.GenerateRequest) (*models.GenerateResponse, error)
}

// RunTracker knows which batches are being bundled
type RunTracker interface {
	HasActiveRun(batchID string) bool
}

type TutorialService struct {
	tutorialRepo TutorialStore
	crawler      PageCrawler
	ideas        IdeaProposer
	generator    ContentGenerator
	runs         RunTracker
	now          func() time.Time
}

func NewTutorialService(tutorialRepo TutorialStore, crawler PageCrawler, ideas IdeaProposer, generator ContentGenerator, runs RunTracker) *TutorialService {
	return &TutorialService{
		tutorialRepo: tutorialRepo,
		crawler:      crawler,
		ideas:        ideas,
		generator:    generator,
		runs:         runs,
		now:          time.Now,
	}
}

// CreateBatch crawls url, proposes tutorials and stores them as a new batch.
// A rate limited proposal is returned with RateLimit set and nothing stored.
func (s *TutorialService) CreateBatch(ctx context.Context, url string) (*models.BatchResponse, error) {
	return s.createBatch(ctx, url, nil)
}

// Regenerate proposes a fresh batch from the crawl URL of an existing one
func (s *TutorialService) Regenerate(ctx context.Context, batchID string) (*models.BatchResponse, error) {
	parent, err := s.tutorialRepo.GetBatchByID(batchID)
	if err != nil {
		return nil, notFound("batch", err)
	}
	return s.createBatch(ctx, parent.URL, &parent.ID)
}

func (s *TutorialService) createBatch(ctx context.Context, url string, parentID *string) (*models.BatchResponse, error) {
	crawl, err := s.crawler.Crawl(ctx, url)
	if err != nil {
		return nil, &CrawlError{URL: url, Err: err}
	}
	if len(crawl.Content) == 0 {
		return nil, ErrNoContent
	}

	proposal := s.ideas.Propose(ctx, *crawl)
	if proposal.RateLimit != nil {
		logrus.Warnf("Idea generation for %s rate limited, retry in %ds", crawl.URL, proposal.RateLimit.RetryAfterSeconds)
		return &models.BatchResponse{
			URL:            crawl.URL,
			Title:          crawl.Title,
			ContentSamples: samples(crawl.Content),
			RateLimit:      proposal.RateLimit,
		}, nil
	}

	contentJSON, err := json.Marshal(samples(crawl.Content))
	if err != nil {
		return nil, fmt.Errorf("failed to encode content samples: %w", err)
	}
	linksJSON, err := json.Marshal(crawl.Links)
	if err != nil {
		return nil, fmt.Errorf("failed to encode links: %w", err)
	}

	batch := &models.TutorialBatch{
		ID:             uuid.NewString(),
		URL:            crawl.URL,
		Title:          crawl.Title,
		ContentSamples: datatypes.JSON(contentJSON),
		Links:          datatypes.JSON(linksJSON),
		ParentBatchID:  parentID,
	}
	for i, item := range proposal.Items {
		// rows are keyed globally, proposal ids are only unique within one response
		item.ID = uuid.NewString()
		row, err := models.NewTutorialRow(batch.ID, i, item)
		if err != nil {
			return nil, err
		}
		batch.Tutorials = append(batch.Tutorials, *row)
	}

	if err := s.tutorialRepo.CreateBatch(batch); err != nil {
		return nil, fmt.Errorf("failed to save batch: %w", err)
	}
	logrus.Infof("Created batch %s with %d tutorials from %s", batch.ID, len(batch.Tutorials), batch.URL)

	return toBatchResponse(batch)
}

// GetBatch returns a batch with its tutorials
func (s *TutorialService) GetBatch(batchID string) (*models.BatchResponse, error) {
	batch, err := s.tutorialRepo.GetBatchWithTutorials(batchID)
	if err != nil {
		return nil, notFound("batch", err)
	}
	return toBatchResponse(batch)
}

// ListBatches returns one page of batches, newest first
func (s *TutorialService) ListBatches(offset, limit int) ([]models.BatchSummary, int64, error) {
	batches, total, err := s.tutorialRepo.ListBatches(offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list batches: %w", err)
	}
	summaries := make([]models.BatchSummary, len(batches))
	for i, b := range batches {
		summaries[i] = models.BatchSummary{
			ID:            b.ID,
			URL:           b.URL,
			Title:         b.Title,
			ParentBatchID: b.ParentBatchID,
			CreatedAt:     b.CreatedAt.Format(time.RFC3339),
		}
	}
	return summaries, total, nil
}

// GenerateContent generates one rendition of a single tutorial. Unlike bundling
// there is no template fallback: a failure is returned to the caller.
func (s *TutorialService) GenerateContent(ctx context.Context, tutorialID string, req models.GenerateContentRequest) (*models.GenerateContentResponse, error) {
	if !req.ContentType.Valid() {
		return nil, fmt.Errorf("%w: unknown content type %q", ErrInvalidRequest, req.ContentType)
	}

	row, item, err := s.loadTutorial(tutorialID)
	if err != nil {
		return nil, err
	}
	if err := s.checkIdle(row.BatchID); err != nil {
		return nil, err
	}

	batch, err := s.tutorialRepo.GetBatchByID(row.BatchID)
	if err != nil {
		return nil, notFound("batch", err)
	}

	genReq := models.GenerateRequest{
		Item:              item,
		ContentType:       req.ContentType,
		SourceURL:         batch.URL,
		EnhancementPrompt: strings.TrimSpace(req.EnhancementPrompt),
	}
	if genReq.EnhancementPrompt != "" {
		if existing, ok := item.GeneratedContent.Get(req.ContentType); ok {
			genReq.ExistingContent = existing.Body
		}
	}

	resp, err := s.generator.GenerateContent(ctx, genReq)
	if err != nil {
		return nil, err
	}

	// a run may have started while the backends were working
	item, err = s.saveContent(tutorialID, req.ContentType, resp.Content, models.OriginAI)
	if err != nil {
		return nil, err
	}
	logrus.Infof("Generated %s content for tutorial %s via %s", req.ContentType, tutorialID, resp.Metadata.Backend)

	return &models.GenerateContentResponse{Tutorial: item, Metadata: resp.Metadata}, nil
}

// UpdateContent stores a user edit of one rendition
func (s *TutorialService) UpdateContent(tutorialID string, req models.UpdateContentRequest) (*models.OutlineItem, error) {
	if !req.ContentType.Valid() {
		return nil, fmt.Errorf("%w: unknown content type %q", ErrInvalidRequest, req.ContentType)
	}
	if strings.TrimSpace(req.Body) == "" {
		return nil, fmt.Errorf("%w: content body must not be blank", ErrInvalidRequest)
	}

	item, err := s.saveContent(tutorialID, req.ContentType, req.Body, models.OriginUser)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *TutorialService) loadTutorial(tutorialID string) (*models.Tutorial, models.OutlineItem, error) {
	row, err := s.tutorialRepo.GetByID(tutorialID)
	if err != nil {
		return nil, models.OutlineItem{}, notFound("tutorial", err)
	}
	item, err := row.ToOutlineItem()
	if err != nil {
		return nil, models.OutlineItem{}, err
	}
	return row, item, nil
}

// checkIdle rejects content changes while a bundle run owns the batch
func (s *TutorialService) checkIdle(batchID string) error {
	if s.runs != nil && s.runs.HasActiveRun(batchID) {
		return ErrBatchBusy
	}
	return nil
}

// saveContent sets one rendition on the stored tutorial, leaving the others as they are
func (s *TutorialService) saveContent(tutorialID string, t models.ContentType, body string, origin models.ContentOrigin) (models.OutlineItem, error) {
	row, item, err := s.loadTutorial(tutorialID)
	if err != nil {
		return models.OutlineItem{}, err
	}
	if err := s.checkIdle(row.BatchID); err != nil {
		return models.OutlineItem{}, err
	}

	item.SetContent(t, body, origin, s.now())
	if err := row.SetContent(item.GeneratedContent); err != nil {
		return models.OutlineItem{}, err
	}
	if err := s.tutorialRepo.UpdateContent(row); err != nil {
		return models.OutlineItem{}, fmt.Errorf("failed to save tutorial content: %w", err)
	}
	return item, nil
}

func toBatchResponse(batch *models.TutorialBatch) (*models.BatchResponse, error) {
	resp := &models.BatchResponse{
		ID:        batch.ID,
		URL:       batch.URL,
		Title:     batch.Title,
		Tutorials: make([]models.OutlineItem, 0, len(batch.Tutorials)),
		CreatedAt: batch.CreatedAt.Format(time.RFC3339),
	}
	if len(batch.ContentSamples) > 0 {
		if err := json.Unmarshal(batch.ContentSamples, &resp.ContentSamples); err != nil {
			return nil, fmt.Errorf("failed to decode content samples of batch %s: %w", batch.ID, err)
		}
	}
	for i := range batch.Tutorials {
		item, err := batch.Tutorials[i].ToOutlineItem()
		if err != nil {
			return nil, err
		}
		resp.Tutorials = append(resp.Tutorials, item)
	}
	return resp, nil
}

// samples keeps the first snippets shown next to a batch
func samples(content []string) []string {
	if len(content) > 5 {
		content = content[:5]
	}
	return append([]string(nil), content...)
}

func notFound(kind string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %w", kind, ErrNotFound)
	}
	return fmt.Errorf("failed to load %s: %w", kind, err)
}
