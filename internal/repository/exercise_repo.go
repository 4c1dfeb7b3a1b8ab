package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/evalia-api/internal/models"
)

// ExerciseFilter describes listing options for exercises.
type ExerciseFilter struct {
	CourseID    uint
	ProfessorID uint
	VisibleOnly bool
}

// ExerciseRepository defines persistence operations for exercises.
type ExerciseRepository interface {
	List(ctx context.Context, filter ExerciseFilter) ([]models.Exercise, error)
	GetByID(ctx context.Context, id uint) (models.Exercise, error)
	Create(ctx context.Context, exercise *models.Exercise) error
	Update(ctx context.Context, exercise *models.Exercise) error
	Delete(ctx context.Context, id uint) error
	AttachFile(ctx context.Context, exerciseID uint, file *models.FileRecord) error
}

type exerciseRepository struct {
	db *gorm.DB
}

// NewExerciseRepository instantiates a GORM-backed repository.
func NewExerciseRepository(db *gorm.DB) ExerciseRepository {
	return &exerciseRepository{db: db}
}

func (r *exerciseRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Files")
}

func (r *exerciseRepository) List(ctx context.Context, filter ExerciseFilter) ([]models.Exercise, error) {
	query := r.baseQuery(ctx)

	if filter.CourseID != 0 {
		query = query.Where("course_id = ?", filter.CourseID)
	}
	if filter.ProfessorID != 0 {
		query = query.Where("professor_id = ?", filter.ProfessorID)
	}
	if filter.VisibleOnly {
		query = query.Where("visible_to_students = ?", true)
	}

	var exercises []models.Exercise
	if err := query.Order("created_at DESC").Find(&exercises).Error; err != nil {
		return nil, err
	}

	return exercises, nil
}

func (r *exerciseRepository) GetByID(ctx context.Context, id uint) (models.Exercise, error) {
	var exercise models.Exercise
	if err := r.baseQuery(ctx).First(&exercise, id).Error; err != nil {
		return models.Exercise{}, err
	}

	return exercise, nil
}

func (r *exerciseRepository) Create(ctx context.Context, exercise *models.Exercise) error {
	return r.db.WithContext(ctx).Create(exercise).Error
}

func (r *exerciseRepository) Update(ctx context.Context, exercise *models.Exercise) error {
	return r.db.WithContext(ctx).Save(exercise).Error
}

func (r *exerciseRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Exercise{}, id).Error
}

// AttachFile persists the file record and links it to the exercise.
func (r *exerciseRepository) AttachFile(ctx context.Context, exerciseID uint, file *models.FileRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if file.ID == 0 {
			if err := tx.Create(file).Error; err != nil {
				return err
			}
		}

		exercise := models.Exercise{}
		exercise.ID = exerciseID

		return tx.Model(&exercise).Association("Files").Append(file)
	})
}
