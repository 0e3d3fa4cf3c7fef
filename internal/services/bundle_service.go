package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/onegreenvn/tutorial-bundler-backend/internal/models"
	"github.com/onegreenvn/tutorial-bundler-backend/internal/services/bundle"
	"github.com/onegreenvn/tutorial-bundler-backend/internal/services/completion"
	"github.com/onegreenvn/tutorial-bundler-backend/internal/services/progress"
	"github.com/onegreenvn/tutorial-bundler-backend/internal/utils"
	"github.com/sirupsen/logrus"
)

var (
	// ErrRunFinished is returned when cancelling a run that is no longer active
	ErrRunFinished = errors.New("bundle run already finished")
	// ErrBatchBusy is returned when changing content of a batch that is being bundled
	ErrBatchBusy = errors.New("a bundle run for this batch is in progress")
)

// Progress split of a bundle. The last step to 100 is reached only once the
// archive is stored.
var (
	completionRange = progress.Range{Start: 0, End: 70}
	assemblyRange   = progress.Range{Start: 70, End: 95}
	scaffoldRange   = progress.Range{Start: 0, End: 95}
)

// BundleRunStore persists bundle runs
type BundleRunStore interface {
	Create(run *models.BundleRun) error
	GetByID(id string) (*models.BundleRun, error)
	GetByBatchID(batchID string) ([]*models.BundleRun, error)
	Update(run *models.BundleRun) error
	UpdateProgress(id string, progress int) error
	MarkInterrupted() (int64, error)
}

// ContentCompleter fills in missing renditions before assembly
type ContentCompleter interface {
	Run(ctx context.Context, in completion.RunInput, reporter progress.Reporter, r progress.Range) (*completion.Result, error)
}

// BundleAssembler builds the archive
type BundleAssembler interface {
	Assemble(ctx context.Context, in bundle.Input, reporter progress.Reporter, r progress.Range) (*bundle.Result, error)
}

// ArchiveStore keeps finished archives and signs their download links
type ArchiveStore interface {
	StoreArchive(runID, originalName string, data []byte) (*models.File, error)
	GenerateSignedDownloadURL(runID, fileID string) (string, error)
}

type activeRun struct {
	batchID  string
	cancel   context.CancelFunc
	channel  *progress.Channel
	progress atomic.Int64
}

type BundleService struct {
	runRepo      BundleRunStore
	tutorialRepo TutorialStore
	completer    ContentCompleter
	assembler    BundleAssembler
	files        ArchiveStore
	progressLogs *ProgressLogService
	now          func() time.Time

	mu      sync.Mutex
	running map[string]*activeRun
	wg      sync.WaitGroup
}

func NewBundleService(
	runRepo BundleRunStore,
	tutorialRepo TutorialStore,
	completer ContentCompleter,
	assembler BundleAssembler,
	files ArchiveStore,
	progressLogs *ProgressLogService,
) *BundleService {
	return &BundleService{
		runRepo:      runRepo,
		tutorialRepo: tutorialRepo,
		completer:    completer,
		assembler:    assembler,
		files:        files,
		progressLogs: progressLogs,
		now:          time.Now,
		running:      make(map[string]*activeRun),
	}
}

// RecoverInterrupted fails the runs a previous process left unfinished
func (s *BundleService) RecoverInterrupted() {
	count, err := s.runRepo.MarkInterrupted()
	if err != nil {
		logrus.Errorf("Failed to mark interrupted bundle runs: %v", err)
		return
	}
	if count > 0 {
		logrus.Warnf("Marked %d interrupted bundle run(s) as failed", count)
	}
}

// Start creates a bundle run for a batch and executes it in the background
func (s *BundleService) Start(batchID string, spec models.BundleSpec) (*models.BundleRunResponse, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	batch, err := s.tutorialRepo.GetBatchWithTutorials(batchID)
	if err != nil {
		return nil, notFound("batch", err)
	}

	items := make([]models.OutlineItem, len(batch.Tutorials))
	for i := range batch.Tutorials {
		if items[i], err = batch.Tutorials[i].ToOutlineItem(); err != nil {
			return nil, err
		}
	}

	run := &models.BundleRun{
		ID:          uuid.NewString(),
		BatchID:     batch.ID,
		Format:      string(spec.Format),
		ContentType: string(spec.ContentType),
		Status:      models.BundleStatusPending,
	}
	if err := s.runRepo.Create(run); err != nil {
		return nil, fmt.Errorf("failed to create bundle run: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	active := &activeRun{batchID: batch.ID, cancel: cancel, channel: progress.NewChannel(run.ID)}

	s.mu.Lock()
	s.running[run.ID] = active
	s.mu.Unlock()

	// the run is owned by the worker from here on
	resp := s.toResponse(run)

	s.wg.Add(1)
	go s.execute(ctx, active, run, batch, items)

	logrus.Infof("Bundle run %s started for batch %s (%s/%s, %d tutorials)", run.ID, batch.ID, spec.Format, spec.ContentType, len(items))
	return resp, nil
}

func (s *BundleService) execute(ctx context.Context, active *activeRun, run *models.BundleRun, batch *models.TutorialBatch, items []models.OutlineItem) {
	defer s.wg.Done()
	defer active.cancel()

	recorder := s.progressLogs.Recorder(run.ID)
	unsubscribeRecorder := active.channel.Subscribe(recorder)
	unsubscribeProgress := active.channel.Subscribe(progress.ObserverFunc(func(ev models.ProgressEvent) {
		active.progress.Store(int64(ev.Progress))
	}))
	defer func() {
		unsubscribeProgress()
		unsubscribeRecorder()
		recorder.Close()

		s.mu.Lock()
		delete(s.running, run.ID)
		s.mu.Unlock()
	}()

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic during bundle run: %v", r)
			utils.CaptureError(err, map[string]string{"run_id": run.ID})
			active.channel.Emit(models.ProgressEvent{Type: models.EventError, Message: "Bundle creation failed unexpectedly"})
			s.finish(active, run, models.BundleStatusFailed, err.Error())
		}
	}()

	startedAt := s.now()
	run.Status = models.BundleStatusRunning
	run.StartedAt = &startedAt
	if err := s.runRepo.Update(run); err != nil {
		logrus.Errorf("Failed to mark bundle run %s as running: %v", run.ID, err)
	}

	spec := run.Spec()
	in := bundle.Input{
		Items:       items,
		Spec:        spec,
		PreExisting: countComplete(items, spec.ContentType.Expand()),
	}
	r := scaffoldRange

	if spec.Format == models.FormatFull {
		result, err := s.completer.Run(ctx, completion.RunInput{
			Items:       items,
			ContentType: spec.ContentType,
			SourceURL:   batch.URL,
		}, active.channel, completionRange)

		if result != nil {
			s.saveContents(items, result.Items)
			s.applyStats(run, result.Stats)
		}
		if err != nil {
			if errors.Is(err, context.Canceled) {
				s.finish(active, run, models.BundleStatusCancelled, "cancelled by user")
				return
			}
			active.channel.Emit(models.ProgressEvent{
				Type:    models.EventError,
				Message: fmt.Sprintf("Content generation failed: %v", err),
			})
			s.finish(active, run, models.BundleStatusFailed, err.Error())
			return
		}

		in.Items = result.Items
		in.Stats = result.Stats
		in.FallbackTitles = result.FallbackTitles
		r = assemblyRange

		if err := s.runRepo.UpdateProgress(run.ID, completionRange.End); err != nil {
			logrus.Warnf("Failed to update progress of bundle run %s: %v", run.ID, err)
		}
	}

	res, err := s.assembler.Assemble(ctx, in, active.channel, r)
	if err != nil {
		if ctx.Err() != nil {
			s.finish(active, run, models.BundleStatusCancelled, "cancelled by user")
			return
		}
		tags := map[string]string{"run_id": run.ID}
		var aerr *bundle.AssemblyError
		if errors.As(err, &aerr) {
			tags["step"] = aerr.Step
		}
		utils.CaptureError(err, tags)
		s.finish(active, run, models.BundleStatusFailed, err.Error())
		return
	}

	file, err := s.files.StoreArchive(run.ID, res.FileName, res.Archive)
	if err != nil {
		utils.CaptureError(err, map[string]string{"run_id": run.ID, "step": "store"})
		active.channel.Emit(models.ProgressEvent{
			Type:    models.EventError,
			Message: fmt.Sprintf("Failed to store bundle: %v", err),
		})
		s.finish(active, run, models.BundleStatusFailed, err.Error())
		return
	}

	run.FileID = &file.ID
	run.FileName = res.FileName
	s.applyStats(run, res.Stats)
	s.finish(active, run, models.BundleStatusCompleted, "")

	active.channel.Emit(models.ProgressEvent{
		Type:     models.EventCompleted,
		Message:  fmt.Sprintf("Bundle %s is ready for download", res.FileName),
		Progress: 100,
	})
}

func (s *BundleService) applyStats(run *models.BundleRun, stats models.GenerationStats) {
	run.StatsSuccess = stats.Success
	run.StatsFailed = stats.Failed
	run.StatsTotal = stats.Total
}

func (s *BundleService) finish(active *activeRun, run *models.BundleRun, status, errMsg string) {
	finishedAt := s.now()
	run.Status = status
	run.Error = errMsg
	run.FinishedAt = &finishedAt
	run.Progress = int(active.progress.Load())
	if status == models.BundleStatusCompleted {
		run.Progress = 100
	}

	if err := s.runRepo.Update(run); err != nil {
		logrus.Errorf("Failed to save final state of bundle run %s: %v", run.ID, err)
	}

	if errMsg != "" {
		logrus.Warnf("Bundle run %s %s: %s", run.ID, status, errMsg)
	} else {
		logrus.Infof("Bundle run %s %s (%s)", run.ID, status, run.FileName)
	}
}

// saveContents stores the renditions a completion run produced. Only units
// missing before the run are written, onto freshly loaded rows, so content
// saved elsewhere in the meantime is kept.
func (s *BundleService) saveContents(before, after []models.OutlineItem) {
	var changed []*models.Tutorial
	for i := range after {
		if i >= len(before) || after[i].GeneratedContent == nil {
			continue
		}

		row, err := s.tutorialRepo.GetByID(after[i].ID)
		if err != nil {
			logrus.Errorf("Failed to reload tutorial %s: %v", after[i].ID, err)
			continue
		}
		current, err := row.ToOutlineItem()
		if err != nil {
			logrus.Errorf("Failed to decode tutorial %s: %v", row.ID, err)
			continue
		}

		added := 0
		for t, entry := range after[i].GeneratedContent.Entries {
			if before[i].HasContent(t) || current.HasContent(t) {
				continue
			}
			current.SetContent(t, entry.Body, entry.Origin, entry.UpdatedAt)
			added++
		}
		if added == 0 {
			continue
		}
		if err := row.SetContent(current.GeneratedContent); err != nil {
			logrus.Errorf("Failed to encode content of tutorial %s: %v", row.ID, err)
			continue
		}
		changed = append(changed, row)
	}
	if len(changed) == 0 {
		return
	}
	if err := s.tutorialRepo.UpdateContents(changed); err != nil {
		logrus.Errorf("Failed to save generated content of %d tutorials: %v", len(changed), err)
	}
}

// Cancel stops a running bundle. Units already started still finish.
func (s *BundleService) Cancel(runID string) error {
	s.mu.Lock()
	active, ok := s.running[runID]
	s.mu.Unlock()

	if ok {
		active.cancel()
		logrus.Infof("Cancellation requested for bundle run %s", runID)
		return nil
	}

	if _, err := s.runRepo.GetByID(runID); err != nil {
		return notFound("bundle run", err)
	}
	return ErrRunFinished
}

// Get returns the current state of a run
func (s *BundleService) Get(runID string) (*models.BundleRunResponse, error) {
	run, err := s.runRepo.GetByID(runID)
	if err != nil {
		return nil, notFound("bundle run", err)
	}

	s.mu.Lock()
	active, ok := s.running[runID]
	s.mu.Unlock()
	if ok && !run.Finished() {
		run.Progress = int(active.progress.Load())
	}

	return s.toResponse(run), nil
}

// ListRuns returns the bundle runs of a batch, newest first
func (s *BundleService) ListRuns(batchID string) ([]*models.BundleRunResponse, error) {
	if _, err := s.tutorialRepo.GetBatchByID(batchID); err != nil {
		return nil, notFound("batch", err)
	}

	runs, err := s.runRepo.GetByBatchID(batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bundle runs: %w", err)
	}

	responses := make([]*models.BundleRunResponse, 0, len(runs))
	for _, run := range runs {
		resp, err := s.Get(run.ID)
		if err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}
	return responses, nil
}

// Events returns the events of a run after afterSeq, from memory while the run
// is active and from the progress log afterwards
func (s *BundleService) Events(runID string, afterSeq int) ([]models.ProgressEvent, error) {
	s.mu.Lock()
	active, ok := s.running[runID]
	s.mu.Unlock()

	if ok {
		var events []models.ProgressEvent
		for _, ev := range active.channel.Events() {
			if ev.Seq > afterSeq {
				events = append(events, ev)
			}
		}
		return events, nil
	}

	if _, err := s.runRepo.GetByID(runID); err != nil {
		return nil, notFound("bundle run", err)
	}
	return s.progressLogs.History(runID, afterSeq)
}

// IsActive reports whether a run is still executing in this process
func (s *BundleService) IsActive(runID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.running[runID]
	return ok
}

// HasActiveRun reports whether a run for batchID is executing in this process
func (s *BundleService) HasActiveRun(batchID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, active := range s.running {
		if active.batchID == batchID {
			return true
		}
	}
	return false
}

// Shutdown cancels every active run and waits for them to wind down
func (s *BundleService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	for _, active := range s.running {
		active.cancel()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("bundle runs did not stop in time: %w", ctx.Err())
	}
}

func (s *BundleService) toResponse(run *models.BundleRun) *models.BundleRunResponse {
	resp := &models.BundleRunResponse{
		ID:          run.ID,
		BatchID:     run.BatchID,
		Format:      run.Format,
		ContentType: run.ContentType,
		Status:      run.Status,
		Progress:    run.Progress,
		Error:       run.Error,
		Stats: models.GenerationStats{
			Success: run.StatsSuccess,
			Failed:  run.StatsFailed,
			Total:   run.StatsTotal,
		},
		FileName:  run.FileName,
		CreatedAt: run.CreatedAt.Format(time.RFC3339),
	}

	if run.Status == models.BundleStatusCompleted && run.FileID != nil {
		url, err := s.files.GenerateSignedDownloadURL(run.ID, *run.FileID)
		if err != nil {
			logrus.Errorf("Failed to sign download URL for bundle run %s: %v", run.ID, err)
		} else {
			resp.DownloadURL = url
		}
	}
	return resp
}

// countComplete counts items that already have every requested rendition
func countComplete(items []models.OutlineItem, types []models.ContentType) int {
	count := 0
	for i := range items {
		complete := true
		for _, t := range types {
			if !items[i].HasContent(t) {
				complete = false
				break
			}
		}
		if complete {
			count++
		}
	}
	return count
}
