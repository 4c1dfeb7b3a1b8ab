package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/evalia-api/internal/models"
)

// FileRepository defines persistence operations for stored file metadata.
type FileRepository interface {
	GetByID(ctx context.Context, id uint) (models.FileRecord, error)
	Create(ctx context.Context, file *models.FileRecord) error
	Delete(ctx context.Context, id uint) error
}

type fileRepository struct {
	db *gorm.DB
}

// NewFileRepository instantiates a GORM-backed repository.
func NewFileRepository(db *gorm.DB) FileRepository {
	return &fileRepository{db: db}
}

func (r *fileRepository) GetByID(ctx context.Context, id uint) (models.FileRecord, error) {
	var file models.FileRecord
	if err := r.db.WithContext(ctx).First(&file, id).Error; err != nil {
		return models.FileRecord{}, err
	}

	return file, nil
}

func (r *fileRepository) Create(ctx context.Context, file *models.FileRecord) error {
	return r.db.WithContext(ctx).Create(file).Error
}

func (r *fileRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.FileRecord{}, id).Error
}
