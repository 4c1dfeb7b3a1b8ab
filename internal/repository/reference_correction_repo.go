package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/noah-isme/evalia-api/internal/models"
)

// ReferenceCorrectionRepository defines persistence operations for the
// professor-authored reference corrections grading relies on.
type ReferenceCorrectionRepository interface {
	GetByExercise(ctx context.Context, exerciseID uint) (models.ReferenceCorrection, error)
	Upsert(ctx context.Context, reference *models.ReferenceCorrection) error
	Delete(ctx context.Context, exerciseID uint) error
}

type referenceCorrectionRepository struct {
	db *gorm.DB
}

// NewReferenceCorrectionRepository instantiates a GORM-backed repository.
func NewReferenceCorrectionRepository(db *gorm.DB) ReferenceCorrectionRepository {
	return &referenceCorrectionRepository{db: db}
}

func (r *referenceCorrectionRepository) GetByExercise(ctx context.Context, exerciseID uint) (models.ReferenceCorrection, error) {
	var reference models.ReferenceCorrection
	err := r.db.WithContext(ctx).
		Preload("File").
		Where("exercise_id = ?", exerciseID).
		First(&reference).Error
	if err != nil {
		return models.ReferenceCorrection{}, err
	}

	return reference, nil
}

// Upsert replaces the exercise's reference correction, keeping at most one
// per exercise.
func (r *referenceCorrectionRepository) Upsert(ctx context.Context, reference *models.ReferenceCorrection) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.ReferenceCorrection
		err := tx.Where("exercise_id = ?", reference.ExerciseID).First(&existing).Error
		switch {
		case err == nil:
			reference.ID = existing.ID
			reference.CreatedAt = existing.CreatedAt
			return tx.Save(reference).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(reference).Error
		default:
			return err
		}
	})
}

func (r *referenceCorrectionRepository) Delete(ctx context.Context, exerciseID uint) error {
	return r.db.WithContext(ctx).
		Where("exercise_id = ?", exerciseID).
		Delete(&models.ReferenceCorrection{}).Error
}
