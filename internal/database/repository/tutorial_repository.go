package repository

import (
	"github.com/onegreenvn/tutorial-bundler-backend/internal/models"
	"gorm.io/gorm"
)

type TutorialRepository struct {
	db *gorm.DB
}

func NewTutorialRepository(db *gorm.DB) *TutorialRepository {
	return &TutorialRepository{db: db}
}

// CreateBatch creates a batch together with its tutorials
func (r *TutorialRepository) CreateBatch(batch *models.TutorialBatch) error {
	return r.db.Create(batch).Error
}

// GetBatchByID retrieves a batch without its tutorials
func (r *TutorialRepository) GetBatchByID(id string) (*models.TutorialBatch, error) {
	var batch models.TutorialBatch
	err := r.db.First(&batch, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

// ListBatches retrieves batches newest first, with the total count
func (r *TutorialRepository) ListBatches(offset, limit int) ([]*models.TutorialBatch, int64, error) {
	var batches []*models.TutorialBatch
	var total int64

	if err := r.db.Model(&models.TutorialBatch{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&batches).Error
	return batches, total, err
}

// GetBatchWithTutorials retrieves a batch with its tutorials in proposal order
func (r *TutorialRepository) GetBatchWithTutorials(id string) (*models.TutorialBatch, error) {
	var batch models.TutorialBatch
	err := r.db.Preload("Tutorials", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).First(&batch, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

// GetByID retrieves a tutorial by ID
func (r *TutorialRepository) GetByID(id string) (*models.Tutorial, error) {
	var tutorial models.Tutorial
	err := r.db.First(&tutorial, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &tutorial, nil
}

// UpdateContent stores the generated renditions of one tutorial
func (r *TutorialRepository) UpdateContent(tutorial *models.Tutorial) error {
	return r.db.Model(tutorial).Update("content", tutorial.Content).Error
}

// UpdateContents stores the renditions of several tutorials atomically
func (r *TutorialRepository) UpdateContents(tutorials []*models.Tutorial) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for _, t := range tutorials {
			if err := tx.Model(t).Update("content", t.Content).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
