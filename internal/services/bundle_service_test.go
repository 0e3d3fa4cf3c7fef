package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/onegreenvn/tutorial-bundler-backend/internal/config"
	"github.com/onegreenvn/tutorial-bundler-backend/internal/models"
	"github.com/onegreenvn/tutorial-bundler-backend/internal/services/bundle"
	"github.com/onegreenvn/tutorial-bundler-backend/internal/services/completion"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bundleFixture struct {
	svc       *BundleService
	tutorials *TutorialService
	store     *memoryTutorialStore
	runs      *memoryRunStore
	logs      *memoryLogStore
	gen       *stubGenerator
	batchID   string
}

func newBundleFixture(t *testing.T) *bundleFixture {
	t.Helper()
	store := newMemoryTutorialStore()
	gen := &stubGenerator{fail: map[string]bool{}}

	runs := newMemoryRunStore()
	logs := &memoryLogStore{}
	files := NewFileService(newMemoryFileStore(), "http://localhost:8080/", config.StorageConfig{Dir: t.TempDir(), JWTSecret: "test-secret"})
	engine := completion.NewEngine(gen, completion.NewPacer(config.PacingConfig{}))
	svc := NewBundleService(runs, store, engine, bundle.NewAssembler(), files, NewProgressLogService(logs, NewSSEHub(), nil))

	tutorials := NewTutorialService(store, &stubCrawler{result: docsCrawl()}, &stubProposer{proposal: &models.IdeaProposal{Items: proposedItems()}}, gen, svc)
	batch, err := tutorials.CreateBatch(context.Background(), "https://docs.example.com")
	require.NoError(t, err)

	return &bundleFixture{svc: svc, tutorials: tutorials, store: store, runs: runs, logs: logs, gen: gen, batchID: batch.ID}
}

func (f *bundleFixture) wait(t *testing.T, runID string) *models.BundleRunResponse {
	t.Helper()
	require.Eventually(t, func() bool { return !f.svc.IsActive(runID) }, 5*time.Second, 10*time.Millisecond)
	resp, err := f.svc.Get(runID)
	require.NoError(t, err)
	return resp
}

func TestBundleFullContentRun(t *testing.T) {
	f := newBundleFixture(t)
	f.gen.fail["Deploy"] = true

	started, err := f.svc.Start(f.batchID, models.BundleSpec{Format: models.FormatFull, ContentType: models.BundleText})
	require.NoError(t, err)
	assert.Equal(t, models.BundleStatusPending, started.Status)

	run := f.wait(t, started.ID)
	assert.Equal(t, models.BundleStatusCompleted, run.Status)
	assert.Equal(t, 100, run.Progress)
	assert.Equal(t, models.GenerationStats{Success: 1, Failed: 1, Total: 2}, run.Stats)
	assert.True(t, strings.HasPrefix(run.FileName, "tutorial-full-content-"))
	assert.Contains(t, run.DownloadURL, "http://localhost:8080/api/v1/bundles/"+run.ID+"/download?token=")

	batch, err := f.tutorials.GetBatch(f.batchID)
	require.NoError(t, err)
	first, _ := batch.Tutorials[0].GeneratedContent.Get(models.ContentTypeText)
	second, _ := batch.Tutorials[1].GeneratedContent.Get(models.ContentTypeText)
	assert.Equal(t, models.OriginAI, first.Origin)
	assert.Equal(t, models.OriginTemplate, second.Origin)

	events, err := f.svc.Events(run.ID, 0)
	require.NoError(t, err)
	require.NotEmpty(t, events)
	for i, ev := range events {
		assert.Equal(t, i+1, ev.Seq)
	}
	last := events[len(events)-1]
	assert.Equal(t, models.EventCompleted, last.Type)
	assert.Equal(t, 100, last.Progress)
	assert.Contains(t, last.Message, "ready for download")
	for _, ev := range events[:len(events)-1] {
		assert.False(t, ev.Terminal(), "event %d ends the stream early", ev.Seq)
	}

	later, err := f.svc.Events(run.ID, len(events)-1)
	require.NoError(t, err)
	assert.Equal(t, []models.ProgressEvent{last}, later)
}

func TestBundleScaffoldSkipsGeneration(t *testing.T) {
	f := newBundleFixture(t)

	started, err := f.svc.Start(f.batchID, models.BundleSpec{Format: models.FormatScaffold, ContentType: models.BundleBoth})
	require.NoError(t, err)

	run := f.wait(t, started.ID)
	assert.Equal(t, models.BundleStatusCompleted, run.Status)
	assert.True(t, strings.HasPrefix(run.FileName, "tutorial-scaffolds-"))
	assert.Equal(t, 0, f.gen.callCount())
	assert.Equal(t, models.GenerationStats{}, run.Stats)

	runs, err := f.svc.ListRuns(f.batchID)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
	assert.NotEmpty(t, runs[0].DownloadURL)

	_, err = f.svc.ListRuns("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBundleCancelBetweenUnits(t *testing.T) {
	f := newBundleFixture(t)
	f.gen.started = make(chan struct{})
	f.gen.release = make(chan struct{})

	started, err := f.svc.Start(f.batchID, models.BundleSpec{Format: models.FormatFull, ContentType: models.BundleText})
	require.NoError(t, err)

	<-f.gen.started
	require.NoError(t, f.svc.Cancel(started.ID))
	close(f.gen.release)

	run := f.wait(t, started.ID)
	assert.Equal(t, models.BundleStatusCancelled, run.Status)
	assert.Equal(t, 1, f.gen.callCount())
	assert.Empty(t, run.DownloadURL)

	events, err := f.svc.Events(run.ID, 0)
	require.NoError(t, err)
	last := events[len(events)-1]
	assert.Equal(t, models.EventError, last.Type)
	assert.Contains(t, last.Message, "cancelled")

	// the unit that was in flight is kept
	batch, err := f.tutorials.GetBatch(f.batchID)
	require.NoError(t, err)
	assert.True(t, batch.Tutorials[0].HasContent(models.ContentTypeText))
	assert.False(t, batch.Tutorials[1].HasContent(models.ContentTypeText))

	assert.ErrorIs(t, f.svc.Cancel(run.ID), ErrRunFinished)
}

func TestBundleStartValidation(t *testing.T) {
	f := newBundleFixture(t)

	_, err := f.svc.Start(f.batchID, models.BundleSpec{Format: "pdf", ContentType: models.BundleText})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = f.svc.Start("missing", models.BundleSpec{Format: models.FormatFull, ContentType: models.BundleText})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, f.svc.Cancel("missing"), ErrNotFound)
	_, err = f.svc.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecoverInterruptedRuns(t *testing.T) {
	f := newBundleFixture(t)
	require.NoError(t, f.runs.Create(&models.BundleRun{ID: "stale", BatchID: f.batchID, Status: models.BundleStatusRunning}))

	f.svc.RecoverInterrupted()

	run, err := f.svc.Get("stale")
	require.NoError(t, err)
	assert.Equal(t, models.BundleStatusFailed, run.Status)
	assert.Equal(t, "interrupted by server restart", run.Error)
}

func TestShutdownStopsActiveRuns(t *testing.T) {
	f := newBundleFixture(t)
	f.gen.started = make(chan struct{})
	f.gen.release = make(chan struct{})

	started, err := f.svc.Start(f.batchID, models.BundleSpec{Format: models.FormatFull, ContentType: models.BundleVideo})
	require.NoError(t, err)
	<-f.gen.started

	expired, cancel := context.WithCancel(context.Background())
	cancel()
	// the worker is still blocked inside the generator
	assert.Error(t, f.svc.Shutdown(expired))

	close(f.gen.release)
	require.NoError(t, f.svc.Shutdown(context.Background()))
	assert.False(t, f.svc.IsActive(started.ID))

	run, err := f.svc.Get(started.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BundleStatusCancelled, run.Status)
}

type failingArchiveStore struct {
	err error
}

func (s failingArchiveStore) StoreArchive(runID, originalName string, data []byte) (*models.File, error) {
	return nil, s.err
}

func (s failingArchiveStore) GenerateSignedDownloadURL(runID, fileID string) (string, error) {
	return "", s.err
}

func TestBundleStorageFailureIsTheTerminalEvent(t *testing.T) {
	f := newBundleFixture(t)
	engine := completion.NewEngine(f.gen, completion.NewPacer(config.PacingConfig{}))
	svc := NewBundleService(f.runs, f.store, engine, bundle.NewAssembler(), failingArchiveStore{err: errors.New("disk full")}, NewProgressLogService(f.logs, NewSSEHub(), nil))

	started, err := svc.Start(f.batchID, models.BundleSpec{Format: models.FormatScaffold, ContentType: models.BundleText})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return !svc.IsActive(started.ID) }, 5*time.Second, 10*time.Millisecond)

	run, err := svc.Get(started.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BundleStatusFailed, run.Status)
	assert.Equal(t, "disk full", run.Error)

	events, err := svc.Events(run.ID, 0)
	require.NoError(t, err)
	var terminal []models.ProgressEvent
	for _, ev := range events {
		if ev.Terminal() {
			terminal = append(terminal, ev)
		}
	}
	require.Len(t, terminal, 1)
	assert.Equal(t, models.EventError, terminal[0].Type)
	assert.Contains(t, terminal[0].Message, "disk full")
	assert.Less(t, terminal[0].Progress, 100)
}

func TestContentChangesRejectedWhileBundling(t *testing.T) {
	f := newBundleFixture(t)
	f.gen.started = make(chan struct{}, 4)
	f.gen.release = make(chan struct{})

	batch, err := f.tutorials.GetBatch(f.batchID)
	require.NoError(t, err)
	first := batch.Tutorials[0].ID

	started, err := f.svc.Start(f.batchID, models.BundleSpec{Format: models.FormatFull, ContentType: models.BundleText})
	require.NoError(t, err)
	<-f.gen.started
	assert.True(t, f.svc.HasActiveRun(f.batchID))

	_, err = f.tutorials.UpdateContent(first, models.UpdateContentRequest{ContentType: models.ContentTypeVideo, Body: "my hand-written video script"})
	assert.ErrorIs(t, err, ErrBatchBusy)
	_, err = f.tutorials.GenerateContent(context.Background(), first, models.GenerateContentRequest{ContentType: models.ContentTypeVideo})
	assert.ErrorIs(t, err, ErrBatchBusy)

	close(f.gen.release)
	run := f.wait(t, started.ID)
	require.Equal(t, models.BundleStatusCompleted, run.Status)
	assert.False(t, f.svc.HasActiveRun(f.batchID))

	item, err := f.tutorials.UpdateContent(first, models.UpdateContentRequest{ContentType: models.ContentTypeVideo, Body: "my hand-written video script"})
	require.NoError(t, err)
	assert.True(t, item.HasContent(models.ContentTypeText))
	assert.True(t, item.HasContent(models.ContentTypeVideo))
}

func TestBundleKeepsContentStoredDuringRun(t *testing.T) {
	f := newBundleFixture(t)
	f.gen.started = make(chan struct{}, 4)
	f.gen.release = make(chan struct{})

	batch, err := f.tutorials.GetBatch(f.batchID)
	require.NoError(t, err)
	first := batch.Tutorials[0].ID

	started, err := f.svc.Start(f.batchID, models.BundleSpec{Format: models.FormatFull, ContentType: models.BundleText})
	require.NoError(t, err)
	<-f.gen.started

	// written by another process sharing the database
	row, err := f.store.GetByID(first)
	require.NoError(t, err)
	item, err := row.ToOutlineItem()
	require.NoError(t, err)
	item.SetContent(models.ContentTypeVideo, "recorded elsewhere", models.OriginUser, time.Now())
	require.NoError(t, row.SetContent(item.GeneratedContent))
	require.NoError(t, f.store.UpdateContent(row))

	close(f.gen.release)
	run := f.wait(t, started.ID)
	require.Equal(t, models.BundleStatusCompleted, run.Status)

	stored := f.store.item(first)
	video, ok := stored.GeneratedContent.Get(models.ContentTypeVideo)
	require.True(t, ok)
	assert.Equal(t, "recorded elsewhere", video.Body)
	text, ok := stored.GeneratedContent.Get(models.ContentTypeText)
	require.True(t, ok)
	assert.Equal(t, models.OriginAI, text.Origin)
}
