package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/onegreenvn/tutorial-bundler-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// ProgressLogStore persists progress events
type ProgressLogStore interface {
	CreateBatch(logs []*models.ProgressLog) error
	GetByRun(runID string, afterSeq int) ([]*models.ProgressLog, error)
	DeleteOldLogs(days int) (int64, error)
}

// ProgressPublisher forwards progress events to external consumers
type ProgressPublisher interface {
	PublishProgress(ctx context.Context, ev models.ProgressEvent) error
}

type ProgressLogService struct {
	logRepo         ProgressLogStore
	sseHub          *SSEHub
	publisher       ProgressPublisher // Optional: nil when RabbitMQ is unavailable
	cleanupStopChan chan bool
}

func NewProgressLogService(logRepo ProgressLogStore, sseHub *SSEHub, publisher ProgressPublisher) *ProgressLogService {
	return &ProgressLogService{
		logRepo:         logRepo,
		sseHub:          sseHub,
		publisher:       publisher,
		cleanupStopChan: make(chan bool),
	}
}

// Recorder returns an observer that streams and persists the events of one run.
// The caller must Close it once the run has finished emitting.
func (s *ProgressLogService) Recorder(runID string) *ProgressRecorder {
	r := &ProgressRecorder{
		service: s,
		runID:   runID,
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go r.run()
	return r
}

// History returns the persisted events of a run after afterSeq, in emission order
func (s *ProgressLogService) History(runID string, afterSeq int) ([]models.ProgressEvent, error) {
	logs, err := s.logRepo.GetByRun(runID, afterSeq)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress history: %w", err)
	}
	events := make([]models.ProgressEvent, len(logs))
	for i, l := range logs {
		events[i] = l.ToEvent()
	}
	return events, nil
}

// ProgressRecorder queues events for a single writer goroutine so emission never
// waits on the database and rows are written in sequence order.
type ProgressRecorder struct {
	service *ProgressLogService
	runID   string

	mu     sync.Mutex
	queue  []models.ProgressEvent
	closed bool

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// OnEvent implements progress.Observer
func (r *ProgressRecorder) OnEvent(ev models.ProgressEvent) {
	if r.service.sseHub != nil {
		r.service.sseHub.BroadcastEvent(ev)
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		logrus.Warnf("Progress event %d of run %s arrived after recorder was closed", ev.Seq, r.runID)
		return
	}
	r.queue = append(r.queue, ev)
	r.mu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Close flushes the queued events and stops the writer
func (r *ProgressRecorder) Close() {
	r.once.Do(func() {
		r.mu.Lock()
		r.closed = true
		r.mu.Unlock()
		close(r.stop)
	})
	<-r.done
}

func (r *ProgressRecorder) run() {
	defer close(r.done)
	for {
		select {
		case <-r.wake:
			r.flush()
		case <-r.stop:
			r.flush()
			return
		}
	}
}

func (r *ProgressRecorder) flush() {
	r.mu.Lock()
	pending := r.queue
	r.queue = nil
	r.mu.Unlock()

	if len(pending) == 0 {
		return
	}

	logs := make([]*models.ProgressLog, len(pending))
	for i, ev := range pending {
		logs[i] = models.NewProgressLog(ev)
	}
	if err := r.service.logRepo.CreateBatch(logs); err != nil {
		logrus.Errorf("Failed to persist %d progress events of run %s: %v", len(logs), r.runID, err)
	}

	if r.service.publisher == nil {
		return
	}
	for _, ev := range pending {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := r.service.publisher.PublishProgress(ctx, ev); err != nil {
			logrus.Warnf("Failed to publish progress event %d of run %s: %v", ev.Seq, r.runID, err)
		}
		cancel()
	}
}

// StartLogCleanup starts a background goroutine to periodically clean up old logs
func (s *ProgressLogService) StartLogCleanup(interval time.Duration, retentionDays int) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		// Run initial cleanup
		s.cleanupOldLogs(retentionDays)

		for {
			select {
			case <-ticker.C:
				s.cleanupOldLogs(retentionDays)
			case <-s.cleanupStopChan:
				return
			}
		}
	}()
	logrus.Infof("Progress log cleanup started (interval: %v, retention: %d days)", interval, retentionDays)
}

// StopLogCleanup stops the log cleanup service
func (s *ProgressLogService) StopLogCleanup() {
	select {
	case s.cleanupStopChan <- true:
	default:
	}
}

func (s *ProgressLogService) cleanupOldLogs(retentionDays int) {
	deletedCount, err := s.logRepo.DeleteOldLogs(retentionDays)
	if err != nil {
		logrus.Errorf("Failed to cleanup old progress logs: %v", err)
		return
	}

	if deletedCount > 0 {
		logrus.Infof("Progress log cleanup completed: deleted %d entries older than %d day(s)", deletedCount, retentionDays)
	} else {
		logrus.Debugf("Progress log cleanup completed: nothing older than %d day(s)", retentionDays)
	}
}
