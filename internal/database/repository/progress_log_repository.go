package repository

import (
	"time"

	"github.com/onegreenvn/tutorial-bundler-backend/internal/models"
	"gorm.io/gorm"
)

type ProgressLogRepository struct {
	db *gorm.DB
}

func NewProgressLogRepository(db *gorm.DB) *ProgressLogRepository {
	return &ProgressLogRepository{db: db}
}

// CreateBatch inserts logs in one statement, keeping their order
func (r *ProgressLogRepository) CreateBatch(logs []*models.ProgressLog) error {
	if len(logs) == 0 {
		return nil
	}
	return r.db.Create(&logs).Error
}

// GetByRun retrieves the logs of a run in emission order
func (r *ProgressLogRepository) GetByRun(runID string, afterSeq int) ([]*models.ProgressLog, error) {
	var logs []*models.ProgressLog
	err := r.db.Where("run_id = ? AND seq > ?", runID, afterSeq).
		Order("seq ASC").
		Find(&logs).Error
	return logs, err
}

// DeleteOldLogs deletes logs older than specified days
func (r *ProgressLogRepository) DeleteOldLogs(days int) (int64, error) {
	cutoffDate := time.Now().AddDate(0, 0, -days)
	result := r.db.Where("created_at < ?", cutoffDate).Delete(&models.ProgressLog{})
	return result.RowsAffected, result.Error
}
