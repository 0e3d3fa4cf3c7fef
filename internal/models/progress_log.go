package models

import (
	"time"
)

// ProgressLog is the persisted form of a ProgressEvent
type ProgressLog struct {
	// Primary key
	ID string `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`

	// Run identification
	RunID string `json:"run_id" gorm:"type:uuid;not null;uniqueIndex:idx_progress_logs_run_seq,priority:1"`
	Seq   int    `json:"seq" gorm:"not null;uniqueIndex:idx_progress_logs_run_seq,priority:2"`

	// Event details
	Type        string `json:"type" gorm:"type:varchar(20);not null;index" example:"generating"` // "generating", "creating", "completed", "error"
	ItemID      string `json:"item_id,omitempty" gorm:"type:varchar(64)"`
	ItemTitle   string `json:"item_title,omitempty" gorm:"type:varchar(500)"`
	ContentType string `json:"content_type,omitempty" gorm:"type:varchar(10)"`
	Message     string `json:"message" gorm:"type:text;not null" example:"Generating text content"`
	Progress    int    `json:"progress" gorm:"not null" example:"35"`

	// Emission time of the event
	EmittedAt time.Time `json:"emitted_at"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for the ProgressLog model
func (ProgressLog) TableName() string {
	return "progress_logs"
}

// NewProgressLog converts an event to its persisted form
func NewProgressLog(ev ProgressEvent) *ProgressLog {
	return &ProgressLog{
		RunID:       ev.RunID,
		Seq:         ev.Seq,
		Type:        string(ev.Type),
		ItemID:      ev.ItemID,
		ItemTitle:   ev.ItemTitle,
		ContentType: string(ev.ContentType),
		Message:     ev.Message,
		Progress:    ev.Progress,
		EmittedAt:   ev.Timestamp,
	}
}

// ToEvent converts the row back to an event
func (l *ProgressLog) ToEvent() ProgressEvent {
	return ProgressEvent{
		Seq:         l.Seq,
		RunID:       l.RunID,
		Type:        EventType(l.Type),
		ItemID:      l.ItemID,
		ItemTitle:   l.ItemTitle,
		ContentType: ContentType(l.ContentType),
		Message:     l.Message,
		Progress:    l.Progress,
		Timestamp:   l.EmittedAt,
	}
}
