package models

import "time"

// EventType is the coarse phase tag of a progress event
type EventType string

const (
	EventGenerating EventType = "generating"
	EventCreating   EventType = "creating"
	EventCompleted  EventType = "completed"
	EventError      EventType = "error"
)

// ProgressEvent is an immutable record appended to a run's progress channel.
// ItemID, ItemTitle and ContentType are set only for per-unit events.
type ProgressEvent struct {
	Seq         int         `json:"seq" example:"3"`
	RunID       string      `json:"run_id,omitempty" example:"550e8400-e29b-41d4-a716-446655440000"`
	Type        EventType   `json:"type" example:"generating"`
	ItemID      string      `json:"item_id,omitempty"`
	ItemTitle   string      `json:"item_title,omitempty" example:"Getting Started with the CLI"`
	ContentType ContentType `json:"content_type,omitempty" example:"text"`
	Message     string      `json:"message" example:"Generating text content for Getting Started with the CLI"`
	Progress    int         `json:"progress" example:"35"`
	Timestamp   time.Time   `json:"timestamp"`
}

// Terminal reports whether ev ends a run's stream. Per-unit events never do.
func (ev ProgressEvent) Terminal() bool {
	if ev.ItemID != "" {
		return false
	}
	return ev.Type == EventError || (ev.Type == EventCompleted && ev.Progress >= 100)
}

// GenerationStats counts units completed remotely vs. by template in one completion run.
// Total is the item count, not the unit count.
type GenerationStats struct {
	Success int `json:"success" example:"3"`
	Failed  int `json:"failed" example:"1"`
	Total   int `json:"total" example:"2"`
}

// RateLimitInfo is surfaced to the caller when a remote backend signals rate limiting
type RateLimitInfo struct {
	RetryAfterSeconds int    `json:"retry_after_seconds" example:"60"`
	Message           string `json:"message" example:"Rate limit reached. Please try again in 60 seconds."`
}
