package services

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/onegreenvn/tutorial-bundler-backend/internal/models"
	"gorm.io/gorm"
)

type memoryTutorialStore struct {
	mu        sync.Mutex
	batches   map[string]models.TutorialBatch
	tutorials map[string]models.Tutorial
}

func newMemoryTutorialStore() *memoryTutorialStore {
	return &memoryTutorialStore{
		batches:   make(map[string]models.TutorialBatch),
		tutorials: make(map[string]models.Tutorial),
	}
}

func (m *memoryTutorialStore) CreateBatch(batch *models.TutorialBatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *batch
	stored.Tutorials = nil
	m.batches[batch.ID] = stored
	for _, t := range batch.Tutorials {
		m.tutorials[t.ID] = t
	}
	return nil
}

func (m *memoryTutorialStore) GetBatchByID(id string) (*models.TutorialBatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.batches[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &b, nil
}

func (m *memoryTutorialStore) GetBatchWithTutorials(id string) (*models.TutorialBatch, error) {
	b, err := m.GetBatchByID(id)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tutorials {
		if t.BatchID == id {
			b.Tutorials = append(b.Tutorials, t)
		}
	}
	sort.Slice(b.Tutorials, func(i, j int) bool { return b.Tutorials[i].Position < b.Tutorials[j].Position })
	return b, nil
}

func (m *memoryTutorialStore) ListBatches(offset, limit int) ([]*models.TutorialBatch, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*models.TutorialBatch
	for _, b := range m.batches {
		b := b
		all = append(all, &b)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *memoryTutorialStore) GetByID(id string) (*models.Tutorial, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tutorials[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &t, nil
}

func (m *memoryTutorialStore) UpdateContent(tutorial *models.Tutorial) error {
	return m.UpdateContents([]*models.Tutorial{tutorial})
}

func (m *memoryTutorialStore) UpdateContents(tutorials []*models.Tutorial) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range tutorials {
		stored, ok := m.tutorials[t.ID]
		if !ok {
			return gorm.ErrRecordNotFound
		}
		stored.Content = t.Content
		m.tutorials[t.ID] = stored
	}
	return nil
}

func (m *memoryTutorialStore) item(id string) models.OutlineItem {
	m.mu.Lock()
	t := m.tutorials[id]
	m.mu.Unlock()
	item, err := t.ToOutlineItem()
	if err != nil {
		panic(err)
	}
	return item
}

type memoryRunStore struct {
	mu   sync.Mutex
	runs map[string]models.BundleRun
}

func newMemoryRunStore() *memoryRunStore {
	return &memoryRunStore{runs: make(map[string]models.BundleRun)}
}

func (m *memoryRunStore) Create(run *models.BundleRun) error {
	return m.Update(run)
}

func (m *memoryRunStore) GetByID(id string) (*models.BundleRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &run, nil
}

func (m *memoryRunStore) GetByBatchID(batchID string) ([]*models.BundleRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var runs []*models.BundleRun
	for _, run := range m.runs {
		if run.BatchID == batchID {
			r := run
			runs = append(runs, &r)
		}
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].CreatedAt.After(runs[j].CreatedAt) })
	return runs, nil
}

func (m *memoryRunStore) Update(run *models.BundleRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.ID] = *run
	return nil
}

func (m *memoryRunStore) UpdateProgress(id string, progress int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run := m.runs[id]
	run.Progress = progress
	m.runs[id] = run
	return nil
}

func (m *memoryRunStore) MarkInterrupted() (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, run := range m.runs {
		if !run.Finished() {
			run.Status = models.BundleStatusFailed
			run.Error = "interrupted by server restart"
			m.runs[id] = run
			n++
		}
	}
	return n, nil
}

type memoryLogStore struct {
	mu   sync.Mutex
	logs []*models.ProgressLog
	fail error
}

func (m *memoryLogStore) CreateBatch(logs []*models.ProgressLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.logs = append(m.logs, logs...)
	return nil
}

func (m *memoryLogStore) GetByRun(runID string, afterSeq int) ([]*models.ProgressLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.ProgressLog
	for _, l := range m.logs {
		if l.RunID == runID && l.Seq > afterSeq {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func (m *memoryLogStore) DeleteOldLogs(days int) (int64, error) {
	return 0, nil
}

type memoryFileStore struct {
	mu    sync.Mutex
	files map[string]models.File
}

func newMemoryFileStore() *memoryFileStore {
	return &memoryFileStore{files: make(map[string]models.File)}
}

func (m *memoryFileStore) Create(file *models.File) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[file.ID] = *file
	return nil
}

func (m *memoryFileStore) GetByID(id string) (*models.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &f, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.ProgressEvent
}

func (p *recordingPublisher) PublishProgress(ctx context.Context, ev models.ProgressEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

// stubGenerator answers by item title
type stubGenerator struct {
	mu    sync.Mutex
	calls []models.GenerateRequest
	fail  map[string]bool
	// started receives once per call when set; release must then be closed to let calls return
	started chan struct{}
	release chan struct{}
}

var errBackendsDown = errors.New("all backends failed")

func (g *stubGenerator) GenerateContent(ctx context.Context, req models.GenerateRequest) (*models.GenerateResponse, error) {
	g.mu.Lock()
	g.calls = append(g.calls, req)
	g.mu.Unlock()

	if g.started != nil {
		g.started <- struct{}{}
		<-g.release
	}
	if g.fail[req.Item.Title] {
		return nil, errBackendsDown
	}
	return &models.GenerateResponse{
		Content:  "# " + req.Item.Title + " (" + string(req.ContentType) + ")",
		Metadata: models.GenerateMetadata{Backend: "mock/test"},
	}, nil
}

func (g *stubGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}
