// Package progress implements the per-run progress event log shared by the
// completion engine, the archive assembler and their observers.
package progress

import (
	"math"
	"sync"
	"time"

	"github.com/onegreenvn/tutorial-bundler-backend/internal/models"
)

// Reporter receives progress events from a running phase
type Reporter interface {
	Emit(ev models.ProgressEvent) models.ProgressEvent
}

// Observer is notified synchronously of every emitted event and must not block.
// Observers must not emit on the channel that notifies them.
type Observer interface {
	OnEvent(ev models.ProgressEvent)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(ev models.ProgressEvent)

func (f ObserverFunc) OnEvent(ev models.ProgressEvent) { f(ev) }

// Channel is an append-only event log for one run
type Channel struct {
	runID string
	now   func() time.Time

	// emitMu serializes emission so observers see events in order
	emitMu sync.Mutex

	mu        sync.RWMutex
	events    []models.ProgressEvent
	observers map[int]Observer
	nextObs   int
	order     []int
}

// NewChannel creates a channel whose events are stamped with runID
func NewChannel(runID string) *Channel {
	return &Channel{
		runID:     runID,
		now:       time.Now,
		observers: make(map[int]Observer),
	}
}

// Reset truncates the log at the start of a new run. Observers stay subscribed.
func (c *Channel) Reset() {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = nil
}

// Subscribe registers an observer and returns a function removing it
func (c *Channel) Subscribe(o Observer) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextObs
	c.nextObs++
	c.observers[id] = o
	c.order = append(c.order, id)
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.observers, id)
	}
}

// Emit stamps the event (sequence, run id, timestamp), clamps its progress so
// the stream never decreases, appends it and notifies observers.
func (c *Channel) Emit(ev models.ProgressEvent) models.ProgressEvent {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	c.mu.Lock()
	ev.Seq = len(c.events) + 1
	ev.RunID = c.runID
	if ev.Timestamp.IsZero() {
		ev.Timestamp = c.now()
	}
	ev.Progress = clamp(ev.Progress, 0, 100)
	if n := len(c.events); n > 0 && ev.Progress < c.events[n-1].Progress {
		ev.Progress = c.events[n-1].Progress
	}
	c.events = append(c.events, ev)

	observers := make([]Observer, 0, len(c.observers))
	for _, id := range c.order {
		if o, ok := c.observers[id]; ok {
			observers = append(observers, o)
		}
	}
	c.mu.Unlock()

	for _, o := range observers {
		o.OnEvent(ev)
	}
	return ev
}

// Events returns a snapshot of the log
func (c *Channel) Events() []models.ProgressEvent {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.ProgressEvent(nil), c.events...)
}

// Last returns the most recent event
func (c *Channel) Last() (models.ProgressEvent, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.events) == 0 {
		return models.ProgressEvent{}, false
	}
	return c.events[len(c.events)-1], true
}

// Discard is a Reporter that drops events
var Discard Reporter = discard{}

type discard struct{}

func (discard) Emit(ev models.ProgressEvent) models.ProgressEvent { return ev }

// Range is the slice of the overall 0-100 scale allotted to one phase
type Range struct {
	Start int
	End   int
}

// Full is the whole scale
var Full = Range{Start: 0, End: 100}

// At maps done/total units of the phase onto the range
func (r Range) At(done, total int) int {
	if total <= 0 {
		return r.End
	}
	done = clamp(done, 0, total)
	return r.Start + int(math.Round(float64(done)/float64(total)*float64(r.End-r.Start)))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
