package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/evalia-api/internal/authz"
	"github.com/noah-isme/evalia-api/internal/dto"
	"github.com/noah-isme/evalia-api/internal/models"
	"github.com/noah-isme/evalia-api/internal/repository"
)

// ErrCorrectionNotFound indicates the requested correction does not exist.
var ErrCorrectionNotFound = errors.New("correction not found")

// CorrectionService exposes professor review of AI corrections and manual
// grading of submissions the AI never graded.
type CorrectionService interface {
	Review(ctx context.Context, principal authz.Principal, correctionID uint, payload dto.CorrectionUpdateRequest) (dto.CorrectionResponse, error)
	GradeManually(ctx context.Context, principal authz.Principal, payload dto.ManualCorrectionRequest) (dto.CorrectionResponse, error)
}

type correctionService struct {
	corrections repository.CorrectionRepository
	submissions repository.SubmissionRepository
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewCorrectionService builds a new correction service.
func NewCorrectionService(corrections repository.CorrectionRepository, submissions repository.SubmissionRepository, validate *validator.Validate, logger zerolog.Logger) CorrectionService {
	return &correctionService{
		corrections: corrections,
		submissions: submissions,
		validator:   validate,
		logger:      logger.With().Str("component", "correction_service").Logger(),
	}
}

// Review lets the exercise's professor adjust an existing correction. The
// adjusted flag stays set so the AI grade is never silently restored.
func (s *correctionService) Review(ctx context.Context, principal authz.Principal, correctionID uint, payload dto.CorrectionUpdateRequest) (dto.CorrectionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CorrectionResponse{}, err
	}

	correction, err := s.corrections.GetByID(ctx, correctionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CorrectionResponse{}, ErrCorrectionNotFound
		}

		return dto.CorrectionResponse{}, err
	}

	if err := s.requireExerciseOwner(ctx, principal, correction.SubmissionID); err != nil {
		return dto.CorrectionResponse{}, err
	}

	if payload.Note != nil {
		correction.Score = *payload.Note
	}
	if payload.Commentaire != nil {
		correction.Comment = *payload.Commentaire
	}
	correction.ProfessorAdjusted = true

	if err := s.corrections.Update(ctx, &correction); err != nil {
		return dto.CorrectionResponse{}, err
	}

	s.logger.Info().
		Uint("correction_id", correction.ID).
		Uint("professor_id", principal.ID).
		Msg("correction reviewed")

	return dto.NewCorrectionResponse(correction), nil
}

// GradeManually records a professor-authored correction for a submission
// that has none, typically after a grading error.
func (s *correctionService) GradeManually(ctx context.Context, principal authz.Principal, payload dto.ManualCorrectionRequest) (dto.CorrectionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CorrectionResponse{}, err
	}

	if err := s.requireExerciseOwner(ctx, principal, payload.SubmissionID); err != nil {
		return dto.CorrectionResponse{}, err
	}

	if _, err := s.corrections.GetBySubmission(ctx, payload.SubmissionID); err == nil {
		return dto.CorrectionResponse{}, ErrAlreadyGraded
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.CorrectionResponse{}, err
	}

	correction := models.Correction{
		SubmissionID: payload.SubmissionID,
		Score:        payload.Note,
		Comment:      payload.Commentaire,
		ProducedBy:   models.CorrectionProducedByHuman,
	}

	if err := s.corrections.CreateAndMarkGraded(ctx, &correction); err != nil {
		return dto.CorrectionResponse{}, err
	}

	s.logger.Info().
		Uint("submission_id", payload.SubmissionID).
		Uint("professor_id", principal.ID).
		Msg("submission graded manually")

	return dto.NewCorrectionResponse(correction), nil
}

// requireExerciseOwner restricts grading to the professor who authored the
// parent exercise. There is no admin bypass here: admins manage accounts,
// not grades.
func (s *correctionService) requireExerciseOwner(ctx context.Context, principal authz.Principal, submissionID uint) error {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSubmissionNotFound
		}

		return err
	}

	if !principal.IsProfessor() || !submission.Exercise.OwnedBy(principal.ID) {
		return ErrNotExerciseOwner
	}

	return nil
}
