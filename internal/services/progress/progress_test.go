package progress

import (
	"testing"

	"github.com/onegreenvn/tutorial-bundler-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitStampsAndNotifies(t *testing.T) {
	ch := NewChannel("run-1")
	var seen []models.ProgressEvent
	ch.Subscribe(ObserverFunc(func(ev models.ProgressEvent) { seen = append(seen, ev) }))

	ch.Emit(models.ProgressEvent{Type: models.EventGenerating, Message: "start", Progress: 0})
	ch.Emit(models.ProgressEvent{Type: models.EventCompleted, Message: "done", Progress: 100})

	require.Len(t, seen, 2)
	assert.Equal(t, 1, seen[0].Seq)
	assert.Equal(t, 2, seen[1].Seq)
	assert.Equal(t, "run-1", seen[1].RunID)
	assert.False(t, seen[0].Timestamp.IsZero())
	assert.Equal(t, seen, ch.Events())
}

func TestEmitKeepsProgressMonotonic(t *testing.T) {
	ch := NewChannel("run")
	ch.Emit(models.ProgressEvent{Progress: 40})
	ev := ch.Emit(models.ProgressEvent{Progress: 10})
	assert.Equal(t, 40, ev.Progress)

	ev = ch.Emit(models.ProgressEvent{Progress: 250})
	assert.Equal(t, 100, ev.Progress)

	last, ok := ch.Last()
	require.True(t, ok)
	assert.Equal(t, 100, last.Progress)
}

func TestResetTruncatesHistory(t *testing.T) {
	ch := NewChannel("run")
	calls := 0
	ch.Subscribe(ObserverFunc(func(models.ProgressEvent) { calls++ }))

	ch.Emit(models.ProgressEvent{Progress: 80})
	ch.Reset()
	_, ok := ch.Last()
	assert.False(t, ok)

	ev := ch.Emit(models.ProgressEvent{Progress: 5})
	assert.Equal(t, 5, ev.Progress)
	assert.Equal(t, 1, ev.Seq)
	assert.Equal(t, 2, calls)
}

func TestUnsubscribe(t *testing.T) {
	ch := NewChannel("run")
	calls := 0
	unsubscribe := ch.Subscribe(ObserverFunc(func(models.ProgressEvent) { calls++ }))
	ch.Emit(models.ProgressEvent{})
	unsubscribe()
	ch.Emit(models.ProgressEvent{})
	assert.Equal(t, 1, calls)
}

func TestRangeAt(t *testing.T) {
	r := Range{Start: 0, End: 70}
	assert.Equal(t, 0, r.At(0, 4))
	assert.Equal(t, 18, r.At(1, 4))
	assert.Equal(t, 35, r.At(2, 4))
	assert.Equal(t, 70, r.At(4, 4))
	assert.Equal(t, 70, r.At(9, 4))
	assert.Equal(t, 70, r.At(0, 0))

	assert.Equal(t, 85, Range{Start: 70, End: 100}.At(1, 2))
	assert.Equal(t, 33, Full.At(1, 3))
}
