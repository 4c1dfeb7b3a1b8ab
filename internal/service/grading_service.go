package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/evalia-api/internal/dto"
	"github.com/noah-isme/evalia-api/internal/events"
	"github.com/noah-isme/evalia-api/internal/models"
	"github.com/noah-isme/evalia-api/internal/repository"
	"github.com/noah-isme/evalia-api/pkg/ai"
	"github.com/noah-isme/evalia-api/pkg/localstore"
)

// Grading errors surfaced to handlers and the dispatcher.
var (
	ErrMissingGradingData = errors.New("submission has no gradable text content")
	ErrMissingReference   = errors.New("exercise has no reference correction")
	ErrGradingTimeout     = errors.New("grading timed out")
	ErrAlreadyGraded      = errors.New("submission already has a correction")
)

// GradingService runs AI evaluation for submissions and records the result.
type GradingService interface {
	// EvaluateAndRecord grades one submission end to end. It is safe to call
	// twice for the same submission: an existing correction short-circuits.
	EvaluateAndRecord(ctx context.Context, submissionID uint) error
	// Evaluate triggers grading synchronously on behalf of a professor and
	// returns the resulting correction.
	Evaluate(ctx context.Context, submissionID uint) (dto.CorrectionResponse, error)
}

type gradingService struct {
	submissions repository.SubmissionRepository
	references  repository.ReferenceCorrectionRepository
	corrections repository.CorrectionRepository
	store       *localstore.Store
	evaluator   ai.Evaluator
	publisher   events.Publisher
	aiTimeout   time.Duration
	logger      zerolog.Logger
}

// NewGradingService builds a new grading service.
func NewGradingService(
	submissions repository.SubmissionRepository,
	references repository.ReferenceCorrectionRepository,
	corrections repository.CorrectionRepository,
	store *localstore.Store,
	evaluator ai.Evaluator,
	publisher events.Publisher,
	aiTimeout time.Duration,
	logger zerolog.Logger,
) GradingService {
	return &gradingService{
		submissions: submissions,
		references:  references,
		corrections: corrections,
		store:       store,
		evaluator:   evaluator,
		publisher:   publisher,
		aiTimeout:   aiTimeout,
		logger:      logger.With().Str("component", "grading_service").Logger(),
	}
}

func (s *gradingService) Evaluate(ctx context.Context, submissionID uint) (dto.CorrectionResponse, error) {
	if existing, err := s.corrections.GetBySubmission(ctx, submissionID); err == nil {
		return dto.NewCorrectionResponse(existing), nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.CorrectionResponse{}, err
	}

	if err := s.EvaluateAndRecord(ctx, submissionID); err != nil {
		return dto.CorrectionResponse{}, err
	}

	correction, err := s.corrections.GetBySubmission(ctx, submissionID)
	if err != nil {
		return dto.CorrectionResponse{}, err
	}

	return dto.NewCorrectionResponse(correction), nil
}

func (s *gradingService) EvaluateAndRecord(ctx context.Context, submissionID uint) error {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSubmissionNotFound
		}

		return err
	}

	if submission.Correction != nil {
		s.logger.Debug().Uint("submission_id", submissionID).Msg("submission already graded")
		return nil
	}

	answer, err := s.studentAnswer(ctx, submission)
	if err != nil {
		return s.fail(ctx, submission, err)
	}

	reference, err := s.referenceContent(ctx, submission.ExerciseID)
	if err != nil {
		return s.fail(ctx, submission, err)
	}

	aiCtx, cancel := context.WithTimeout(ctx, s.aiTimeout)
	defer cancel()

	result, err := s.evaluator.Evaluate(aiCtx, ai.EvaluationInput{
		StudentAnswer:    answer,
		ReferenceContent: reference,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = ErrGradingTimeout
		}
		return s.fail(ctx, submission, err)
	}

	rawDetails, err := json.Marshal(map[string]any{
		"prompt":              result.Prompt,
		"reply":               result.Raw,
		"points_forts":        result.PointsForts,
		"points_amelioration": result.PointsAmelioration,
	})
	if err != nil {
		return s.fail(ctx, submission, err)
	}

	correction := models.Correction{
		SubmissionID: submission.ID,
		Score:        result.Note,
		Comment:      result.Commentaire,
		ProducedBy:   models.CorrectionProducedByAI,
		AIModelID:    s.evaluator.ModelID(),
		RawDetails:   datatypes.JSON(rawDetails),
	}

	if err := s.corrections.CreateAndMarkGraded(ctx, &correction); err != nil {
		return s.fail(ctx, submission, err)
	}

	s.publisher.Publish(events.SubjectSubmissionGraded, events.GradingEvent{
		SubmissionID: submission.ID,
		ExerciseID:   submission.ExerciseID,
		StudentID:    submission.StudentID,
		Status:       models.SubmissionStatusGraded,
		Score:        &correction.Score,
	})

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Float64("score", correction.Score).
		Msg("correction recorded")

	return nil
}

// fail flips the submission to grading_error so students see the failure
// instead of a submission stuck in pending, then returns the cause.
func (s *gradingService) fail(ctx context.Context, submission models.Submission, cause error) error {
	if err := s.submissions.UpdateStatus(ctx, submission.ID, models.SubmissionStatusGradingError); err != nil {
		s.logger.Error().Err(err).Uint("submission_id", submission.ID).Msg("mark grading error")
	}

	s.publisher.Publish(events.SubjectGradingFailed, events.GradingEvent{
		SubmissionID: submission.ID,
		ExerciseID:   submission.ExerciseID,
		StudentID:    submission.StudentID,
		Status:       models.SubmissionStatusGradingError,
		Reason:       cause.Error(),
	})

	return cause
}

// studentAnswer resolves the text the evaluator will grade. Inline text wins;
// text file uploads are read back from disk. Binary uploads cannot be graded
// without extraction, so they surface as missing data.
func (s *gradingService) studentAnswer(ctx context.Context, submission models.Submission) (string, error) {
	if submission.Content != "" {
		return submission.Content, nil
	}

	if submission.File == nil {
		return "", ErrMissingGradingData
	}

	if submission.File.MimeType == "text/plain" || submission.File.MimeType == "text/markdown" {
		data, err := s.store.Read(ctx, submission.File.StoragePath)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	return "", ErrMissingGradingData
}

func (s *gradingService) referenceContent(ctx context.Context, exerciseID uint) (string, error) {
	reference, err := s.references.GetByExercise(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrMissingReference
		}

		return "", err
	}

	if reference.Content != "" {
		return reference.Content, nil
	}

	if reference.File != nil {
		data, err := s.store.Read(ctx, reference.File.StoragePath)
		if err != nil {
			return "", err
		}
		if len(data) > 0 {
			return string(data), nil
		}
	}

	return "", ErrMissingReference
}
