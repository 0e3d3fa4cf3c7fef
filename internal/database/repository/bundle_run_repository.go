package repository

import (
	"github.com/onegreenvn/tutorial-bundler-backend/internal/models"
	"gorm.io/gorm"
)

type BundleRunRepository struct {
	db *gorm.DB
}

func NewBundleRunRepository(db *gorm.DB) *BundleRunRepository {
	return &BundleRunRepository{db: db}
}

// Create creates a new bundle run
func (r *BundleRunRepository) Create(run *models.BundleRun) error {
	return r.db.Create(run).Error
}

// GetByID retrieves a bundle run by ID
func (r *BundleRunRepository) GetByID(id string) (*models.BundleRun, error) {
	var run models.BundleRun
	err := r.db.First(&run, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// GetByBatchID retrieves the bundle runs of a batch, newest first
func (r *BundleRunRepository) GetByBatchID(batchID string) ([]*models.BundleRun, error) {
	var runs []*models.BundleRun
	err := r.db.Where("batch_id = ?", batchID).Order("created_at DESC").Find(&runs).Error
	return runs, err
}

// Update saves every field of a bundle run
func (r *BundleRunRepository) Update(run *models.BundleRun) error {
	return r.db.Save(run).Error
}

// UpdateProgress stores the latest progress of a running bundle
func (r *BundleRunRepository) UpdateProgress(id string, progress int) error {
	return r.db.Model(&models.BundleRun{}).Where("id = ?", id).Update("progress", progress).Error
}

// MarkInterrupted fails every run left pending or running by a previous process
func (r *BundleRunRepository) MarkInterrupted() (int64, error) {
	result := r.db.Model(&models.BundleRun{}).
		Where("status IN ?", []string{models.BundleStatusPending, models.BundleStatusRunning}).
		Updates(map[string]interface{}{
			"status": models.BundleStatusFailed,
			"error":  "interrupted by server restart",
		})
	return result.RowsAffected, result.Error
}
