package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/evalia-api/internal/models"
)

// SubmissionFilter describes listing options for submissions.
type SubmissionFilter struct {
	ExerciseID uint
	StudentID  uint
	Status     string
}

// SubmissionRepository defines persistence operations for submissions.
type SubmissionRepository interface {
	List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error)
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	Create(ctx context.Context, submission *models.Submission) error
	UpdateStatus(ctx context.Context, id uint, status string) error
	CountByStudent(ctx context.Context, studentID uint, status string) (int64, error)
	AverageScore(ctx context.Context, studentID uint) (*float64, error)
	ListRecentGraded(ctx context.Context, studentID uint, limit int) ([]models.Submission, error)
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates a GORM-backed repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Exercise").
		Preload("File").
		Preload("Correction")
}

func (r *submissionRepository) List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error) {
	query := r.baseQuery(ctx)

	if filter.ExerciseID != 0 {
		query = query.Where("exercise_id = ?", filter.ExerciseID)
	}
	if filter.StudentID != 0 {
		query = query.Where("student_id = ?", filter.StudentID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var submissions []models.Submission
	if err := query.Order("created_at DESC").Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *submissionRepository) UpdateStatus(ctx context.Context, id uint, status string) error {
	return r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *submissionRepository) CountByStudent(ctx context.Context, studentID uint, status string) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("student_id = ?", studentID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return 0, err
	}

	return total, nil
}

// AverageScore returns nil when the student has no graded submissions yet.
func (r *submissionRepository) AverageScore(ctx context.Context, studentID uint) (*float64, error) {
	var average *float64
	err := r.db.WithContext(ctx).
		Model(&models.Correction{}).
		Select("AVG(corrections.score)").
		Joins("JOIN submissions ON submissions.id = corrections.submission_id").
		Where("submissions.student_id = ?", studentID).
		Scan(&average).Error
	if err != nil {
		return nil, err
	}

	return average, nil
}

func (r *submissionRepository) ListRecentGraded(ctx context.Context, studentID uint, limit int) ([]models.Submission, error) {
	var submissions []models.Submission
	err := r.baseQuery(ctx).
		Where("student_id = ? AND status = ?", studentID, models.SubmissionStatusGraded).
		Order("created_at DESC").
		Limit(limit).
		Find(&submissions).Error
	if err != nil {
		return nil, err
	}

	return submissions, nil
}
