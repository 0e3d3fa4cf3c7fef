package models

import (
	"time"
)

// File represents a stored bundle archive
type File struct {
	// Primary key
	ID string `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`

	// File info
	BundleRunID  string `json:"bundle_run_id" gorm:"not null;index;type:uuid"`
	FileName     string `json:"file_name" gorm:"type:varchar(255);not null"`
	OriginalName string `json:"original_name" gorm:"type:varchar(255);not null"`
	MimeType     string `json:"mime_type" gorm:"type:varchar(100)"`
	FileSize     int64  `json:"file_size" gorm:"type:bigint"`                // Size in bytes
	FilePath     string `json:"file_path" gorm:"type:varchar(500);not null"` // Path on server storage

	// Timestamps
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the File model
func (File) TableName() string {
	return "files"
}
