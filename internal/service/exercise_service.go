package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/evalia-api/internal/authz"
	"github.com/noah-isme/evalia-api/internal/dto"
	"github.com/noah-isme/evalia-api/internal/models"
	"github.com/noah-isme/evalia-api/internal/repository"
)

// Exercise errors surfaced to handlers.
var (
	ErrExerciseNotFound = errors.New("exercise not found")
	ErrCourseNotFound   = errors.New("course not found")
	ErrNotExerciseOwner = errors.New("exercise belongs to another professor")
	ErrNotProfessor     = errors.New("only professors can author exercises")
)

// ExerciseService exposes exercise authoring and browsing use cases.
type ExerciseService interface {
	List(ctx context.Context, principal authz.Principal) ([]dto.ExerciseResponse, error)
	Get(ctx context.Context, principal authz.Principal, id uint) (dto.ExerciseResponse, error)
	Create(ctx context.Context, principal authz.Principal, payload dto.ExerciseCreateRequest) (dto.ExerciseResponse, error)
	Update(ctx context.Context, principal authz.Principal, id uint, payload dto.ExerciseUpdateRequest) (dto.ExerciseResponse, error)
	Delete(ctx context.Context, principal authz.Principal, id uint) error
}

type exerciseService struct {
	exercises repository.ExerciseRepository
	courses   repository.CourseRepository
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewExerciseService builds a new exercise service.
func NewExerciseService(exercises repository.ExerciseRepository, courses repository.CourseRepository, validate *validator.Validate, logger zerolog.Logger) ExerciseService {
	return &exerciseService{
		exercises: exercises,
		courses:   courses,
		validator: validate,
		sanitizer: bluemonday.UGCPolicy(),
		logger:    logger.With().Str("component", "exercise_service").Logger(),
	}
}

// List returns every exercise for staff, only the visible ones for students.
func (s *exerciseService) List(ctx context.Context, principal authz.Principal) ([]dto.ExerciseResponse, error) {
	filter := repository.ExerciseFilter{}
	if !principal.IsProfessor() && !principal.IsAdmin() {
		filter.VisibleOnly = true
	}

	exercises, err := s.exercises.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return dto.NewExerciseResponseSlice(exercises), nil
}

func (s *exerciseService) Get(ctx context.Context, principal authz.Principal, id uint) (dto.ExerciseResponse, error) {
	exercise, err := s.exercises.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ExerciseResponse{}, ErrExerciseNotFound
		}

		return dto.ExerciseResponse{}, err
	}

	// Hidden exercises are indistinguishable from missing ones for students.
	if !exercise.VisibleToStudents && !principal.IsProfessor() && !principal.IsAdmin() {
		return dto.ExerciseResponse{}, ErrExerciseNotFound
	}

	return dto.NewExerciseResponse(exercise), nil
}

func (s *exerciseService) Create(ctx context.Context, principal authz.Principal, payload dto.ExerciseCreateRequest) (dto.ExerciseResponse, error) {
	if !principal.IsProfessor() && !principal.IsAdmin() {
		return dto.ExerciseResponse{}, ErrNotProfessor
	}

	if err := s.validator.Struct(payload); err != nil {
		return dto.ExerciseResponse{}, err
	}

	if _, err := s.courses.GetByID(ctx, payload.CourseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ExerciseResponse{}, ErrCourseNotFound
		}

		return dto.ExerciseResponse{}, err
	}

	difficulty := payload.Difficulty
	if difficulty == "" {
		difficulty = models.DifficultyMedium
	}

	exercise := models.Exercise{
		Title:             s.sanitizer.Sanitize(payload.Title),
		Description:       s.sanitizer.Sanitize(payload.Description),
		DueDate:           payload.DueDate,
		Difficulty:        difficulty,
		ExpectedFormat:    payload.ExpectedFormat,
		VisibleToStudents: payload.VisibleToStudents,
		ProfessorID:       principal.ID,
		CourseID:          payload.CourseID,
	}

	if err := s.exercises.Create(ctx, &exercise); err != nil {
		return dto.ExerciseResponse{}, err
	}

	s.logger.Info().Uint("exercise_id", exercise.ID).Uint("professor_id", principal.ID).Msg("exercise created")

	return dto.NewExerciseResponse(exercise), nil
}

func (s *exerciseService) Update(ctx context.Context, principal authz.Principal, id uint, payload dto.ExerciseUpdateRequest) (dto.ExerciseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ExerciseResponse{}, err
	}

	exercise, err := s.ownedExercise(ctx, principal, id)
	if err != nil {
		return dto.ExerciseResponse{}, err
	}

	if payload.Title != nil {
		exercise.Title = s.sanitizer.Sanitize(*payload.Title)
	}
	if payload.Description != nil {
		exercise.Description = s.sanitizer.Sanitize(*payload.Description)
	}
	if payload.DueDate != nil {
		exercise.DueDate = payload.DueDate
	}
	if payload.Difficulty != nil {
		exercise.Difficulty = *payload.Difficulty
	}
	if payload.ExpectedFormat != nil {
		exercise.ExpectedFormat = *payload.ExpectedFormat
	}
	if payload.VisibleToStudents != nil {
		exercise.VisibleToStudents = *payload.VisibleToStudents
	}

	if err := s.exercises.Update(ctx, &exercise); err != nil {
		return dto.ExerciseResponse{}, err
	}

	s.logger.Info().Uint("exercise_id", exercise.ID).Msg("exercise updated")

	return dto.NewExerciseResponse(exercise), nil
}

func (s *exerciseService) Delete(ctx context.Context, principal authz.Principal, id uint) error {
	if _, err := s.ownedExercise(ctx, principal, id); err != nil {
		return err
	}

	if err := s.exercises.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info().Uint("exercise_id", id).Msg("exercise deleted")

	return nil
}

// ownedExercise loads the exercise and enforces that only the authoring
// professor or an admin may mutate it.
func (s *exerciseService) ownedExercise(ctx context.Context, principal authz.Principal, id uint) (models.Exercise, error) {
	exercise, err := s.exercises.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Exercise{}, ErrExerciseNotFound
		}

		return models.Exercise{}, err
	}

	if !principal.IsAdmin() && !exercise.OwnedBy(principal.ID) {
		return models.Exercise{}, ErrNotExerciseOwner
	}

	return exercise, nil
}
