package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/evalia-api/internal/models"
)

// CorrectionRepository defines persistence operations for corrections.
type CorrectionRepository interface {
	GetByID(ctx context.Context, id uint) (models.Correction, error)
	GetBySubmission(ctx context.Context, submissionID uint) (models.Correction, error)
	Create(ctx context.Context, correction *models.Correction) error
	Update(ctx context.Context, correction *models.Correction) error
	// CreateAndMarkGraded stores the correction and flips the submission to
	// graded in one transaction.
	CreateAndMarkGraded(ctx context.Context, correction *models.Correction) error
}

type correctionRepository struct {
	db *gorm.DB
}

// NewCorrectionRepository instantiates a GORM-backed repository.
func NewCorrectionRepository(db *gorm.DB) CorrectionRepository {
	return &correctionRepository{db: db}
}

func (r *correctionRepository) GetByID(ctx context.Context, id uint) (models.Correction, error) {
	var correction models.Correction
	if err := r.db.WithContext(ctx).First(&correction, id).Error; err != nil {
		return models.Correction{}, err
	}

	return correction, nil
}

func (r *correctionRepository) GetBySubmission(ctx context.Context, submissionID uint) (models.Correction, error) {
	var correction models.Correction
	err := r.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		First(&correction).Error
	if err != nil {
		return models.Correction{}, err
	}

	return correction, nil
}

func (r *correctionRepository) Create(ctx context.Context, correction *models.Correction) error {
	return r.db.WithContext(ctx).Create(correction).Error
}

func (r *correctionRepository) Update(ctx context.Context, correction *models.Correction) error {
	return r.db.WithContext(ctx).Save(correction).Error
}

func (r *correctionRepository) CreateAndMarkGraded(ctx context.Context, correction *models.Correction) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(correction).Error; err != nil {
			return err
		}

		return tx.Model(&models.Submission{}).
			Where("id = ?", correction.SubmissionID).
			Update("status", models.SubmissionStatusGraded).Error
	})
}
