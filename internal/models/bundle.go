package models

import (
	"fmt"
	"time"
)

// BundleFormat selects scaffold-only or full-content bundles
type BundleFormat string

const (
	FormatScaffold BundleFormat = "scaffold"
	FormatFull     BundleFormat = "full"
)

// BundleContentType is the requested content matrix
type BundleContentType string

const (
	BundleText  BundleContentType = "text"
	BundleVideo BundleContentType = "video"
	BundleBoth  BundleContentType = "both"
)

// Expand returns the content types covered by b in generation order (text before video).
// It returns nil for an unknown value.
func (b BundleContentType) Expand() []ContentType {
	switch b {
	case BundleText:
		return []ContentType{ContentTypeText}
	case BundleVideo:
		return []ContentType{ContentTypeVideo}
	case BundleBoth:
		return []ContentType{ContentTypeText, ContentTypeVideo}
	}
	return nil
}

// Includes reports whether t is covered by b
func (b BundleContentType) Includes(t ContentType) bool {
	for _, c := range b.Expand() {
		if c == t {
			return true
		}
	}
	return false
}

// BundleSpec is the user's bundling request
type BundleSpec struct {
	Format      BundleFormat      `json:"format" binding:"required,oneof=scaffold full" example:"full"`
	ContentType BundleContentType `json:"content_type" binding:"required,oneof=text video both" example:"both"`
}

// Validate checks the spec independently of request binding
func (s BundleSpec) Validate() error {
	if s.Format != FormatScaffold && s.Format != FormatFull {
		return fmt.Errorf("unknown bundle format %q", s.Format)
	}
	if s.ContentType.Expand() == nil {
		return fmt.Errorf("unknown content type %q", s.ContentType)
	}
	return nil
}

// BundleRun statuses
const (
	BundleStatusPending   = "pending"
	BundleStatusRunning   = "running"
	BundleStatusCompleted = "completed"
	BundleStatusFailed    = "failed"
	BundleStatusCancelled = "cancelled"
)

// BundleRun tracks one bundling request from start to download
type BundleRun struct {
	ID      string `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	BatchID string `json:"batch_id" gorm:"type:uuid;not null;index"`

	// Request
	Format      string `json:"format" gorm:"type:varchar(20);not null"`
	ContentType string `json:"content_type" gorm:"type:varchar(20);not null"`

	// Status: pending, running, completed, failed, cancelled
	Status   string `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	Progress int    `json:"progress" gorm:"not null;default:0"`
	Error    string `json:"error,omitempty" gorm:"type:text"`

	// Generation report
	StatsSuccess int `json:"stats_success"`
	StatsFailed  int `json:"stats_failed"`
	StatsTotal   int `json:"stats_total"`

	// Stored archive
	FileID   *string `json:"file_id,omitempty" gorm:"type:uuid"`
	FileName string  `json:"file_name,omitempty" gorm:"type:varchar(255)"`

	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// TableName specifies the table name for the BundleRun model
func (BundleRun) TableName() string {
	return "bundle_runs"
}

// Spec returns the request of the run
func (r *BundleRun) Spec() BundleSpec {
	return BundleSpec{Format: BundleFormat(r.Format), ContentType: BundleContentType(r.ContentType)}
}

// Finished reports whether the run reached a final status
func (r *BundleRun) Finished() bool {
	switch r.Status {
	case BundleStatusCompleted, BundleStatusFailed, BundleStatusCancelled:
		return true
	}
	return false
}

// BundleRunResponse is the API view of a bundle run
type BundleRunResponse struct {
	ID          string          `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	BatchID     string          `json:"batch_id" example:"550e8400-e29b-41d4-a716-446655440001"`
	Format      string          `json:"format" example:"full"`
	ContentType string          `json:"content_type" example:"both"`
	Status      string          `json:"status" example:"running"`
	Progress    int             `json:"progress" example:"42"`
	Error       string          `json:"error,omitempty"`
	Stats       GenerationStats `json:"stats"`
	FileName    string          `json:"file_name,omitempty" example:"tutorial-full-content-2025-01-21.zip"`
	DownloadURL string          `json:"download_url,omitempty"`
	CreatedAt   string          `json:"created_at" example:"2025-01-21T10:00:00Z"`
}
