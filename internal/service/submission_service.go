package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/evalia-api/internal/authz"
	"github.com/noah-isme/evalia-api/internal/dto"
	"github.com/noah-isme/evalia-api/internal/events"
	"github.com/noah-isme/evalia-api/internal/grading"
	"github.com/noah-isme/evalia-api/internal/models"
	"github.com/noah-isme/evalia-api/internal/observability"
	"github.com/noah-isme/evalia-api/internal/repository"
	"github.com/noah-isme/evalia-api/pkg/localstore"
)

// Submission errors surfaced to handlers.
var (
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrEmptySubmission    = errors.New("submission needs text content or a file")
	ErrSubmissionNotPDF   = errors.New("submission files must be PDF")
	ErrNotSubmissionOwner = errors.New("submission belongs to another student")
	ErrNotStudent         = errors.New("only students can submit")
)

// Enqueuer schedules asynchronous grading work.
type Enqueuer interface {
	Enqueue(submissionID uint) error
}

// SubmissionService exposes submission intake and browsing use cases.
type SubmissionService interface {
	Create(ctx context.Context, principal authz.Principal, payload dto.SubmissionCreateRequest, header *multipart.FileHeader) (dto.SubmissionResponse, error)
	List(ctx context.Context, principal authz.Principal, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error)
	Get(ctx context.Context, principal authz.Principal, id uint) (dto.SubmissionResponse, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	exercises   repository.ExerciseRepository
	files       repository.FileRepository
	store       *localstore.Store
	queue       Enqueuer
	publisher   events.Publisher
	validator   *validator.Validate
	maxBytes    int64
	logger      zerolog.Logger
}

// NewSubmissionService builds a new submission service. maxMB bounds
// submitted PDF sizes in mebibytes.
func NewSubmissionService(
	submissions repository.SubmissionRepository,
	exercises repository.ExerciseRepository,
	files repository.FileRepository,
	store *localstore.Store,
	queue Enqueuer,
	publisher events.Publisher,
	validate *validator.Validate,
	maxMB int64,
	logger zerolog.Logger,
) SubmissionService {
	return &submissionService{
		submissions: submissions,
		exercises:   exercises,
		files:       files,
		store:       store,
		queue:       queue,
		publisher:   publisher,
		validator:   validate,
		maxBytes:    maxMB << 20,
		logger:      logger.With().Str("component", "submission_service").Logger(),
	}
}

// Create records the submission immediately and hands grading to the
// background queue, so the student gets an acknowledgement without waiting
// on the AI upstream.
func (s *submissionService) Create(ctx context.Context, principal authz.Principal, payload dto.SubmissionCreateRequest, header *multipart.FileHeader) (dto.SubmissionResponse, error) {
	if principal.Role != models.RoleStudent {
		return dto.SubmissionResponse{}, ErrNotStudent
	}

	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	content := strings.TrimSpace(payload.Content)
	if content == "" && header == nil {
		return dto.SubmissionResponse{}, ErrEmptySubmission
	}

	exercise, err := s.exercises.GetByID(ctx, payload.ExerciseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrExerciseNotFound
		}

		return dto.SubmissionResponse{}, err
	}
	// Students must not learn about hidden exercises through submissions.
	if !exercise.VisibleToStudents {
		return dto.SubmissionResponse{}, ErrExerciseNotFound
	}

	submission := models.Submission{
		ExerciseID: exercise.ID,
		StudentID:  principal.ID,
		Content:    content,
		Status:     models.SubmissionStatusPending,
		Type:       models.SubmissionTypeText,
	}

	if header != nil {
		record, err := s.storeSubmissionFile(ctx, principal, header)
		if err != nil {
			return dto.SubmissionResponse{}, err
		}

		// An attached file decides the type even when text is also present.
		submission.Type = models.SubmissionTypeFile
		submission.FileID = &record.ID
		submission.File = &record
	}

	if err := s.submissions.Create(ctx, &submission); err != nil {
		if submission.File != nil {
			s.removeOrphanedFile(ctx, submission.File)
		}
		return dto.SubmissionResponse{}, err
	}
	submission.Exercise = exercise

	s.publisher.Publish(events.SubjectSubmissionReceived, events.GradingEvent{
		SubmissionID: submission.ID,
		ExerciseID:   exercise.ID,
		StudentID:    principal.ID,
		Status:       submission.Status,
	})

	if err := s.queue.Enqueue(submission.ID); err != nil {
		if errors.Is(err, grading.ErrQueueFull) {
			s.logger.Warn().Uint("submission_id", submission.ID).Msg("grading queue full")
			if updateErr := s.submissions.UpdateStatus(ctx, submission.ID, models.SubmissionStatusGradingError); updateErr != nil {
				return dto.SubmissionResponse{}, updateErr
			}
			submission.Status = models.SubmissionStatusGradingError
		} else {
			return dto.SubmissionResponse{}, err
		}
	}

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("exercise_id", exercise.ID).
		Uint("student_id", principal.ID).
		Str("type", submission.Type).
		Msg("submission received")

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) List(ctx context.Context, principal authz.Principal, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, err
	}

	repoFilter := repository.SubmissionFilter{}
	if filter.ExerciseID != nil {
		repoFilter.ExerciseID = *filter.ExerciseID
	}
	if filter.Status != nil {
		repoFilter.Status = *filter.Status
	}

	switch {
	case principal.IsAdmin() || principal.IsProfessor():
		if filter.StudentID != nil {
			repoFilter.StudentID = *filter.StudentID
		}
	default:
		// Students only ever see their own submissions.
		repoFilter.StudentID = principal.ID
	}

	submissions, err := s.submissions.List(ctx, repoFilter)
	if err != nil {
		return nil, err
	}

	if principal.IsProfessor() && !principal.IsAdmin() {
		submissions = s.filterOwnedExercises(submissions, principal.ID)
	}

	return dto.NewSubmissionResponseSlice(submissions), nil
}

func (s *submissionService) Get(ctx context.Context, principal authz.Principal, id uint) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}

		return dto.SubmissionResponse{}, err
	}

	switch {
	case principal.IsAdmin():
	case principal.IsProfessor():
		if !submission.Exercise.OwnedBy(principal.ID) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
	default:
		if submission.StudentID != principal.ID {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
	}

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) storeSubmissionFile(ctx context.Context, principal authz.Principal, header *multipart.FileHeader) (models.FileRecord, error) {
	observability.UploadRequests().WithLabelValues("submission").Inc()

	if header.Size > s.maxBytes {
		observability.UploadRejected().WithLabelValues("too_large").Inc()
		return models.FileRecord{}, fmt.Errorf("%w: %d bytes", ErrFileTooLarge, header.Size)
	}

	source, err := header.Open()
	if err != nil {
		return models.FileRecord{}, err
	}
	defer source.Close()

	data, err := io.ReadAll(io.LimitReader(source, s.maxBytes+1))
	if err != nil {
		return models.FileRecord{}, err
	}
	if int64(len(data)) > s.maxBytes {
		observability.UploadRejected().WithLabelValues("too_large").Inc()
		return models.FileRecord{}, ErrFileTooLarge
	}

	if !mimetype.Detect(data).Is("application/pdf") {
		observability.UploadRejected().WithLabelValues("unsupported_type").Inc()
		return models.FileRecord{}, ErrSubmissionNotPDF
	}

	storagePath, err := s.store.Save(ctx, header.Filename, bytes.NewReader(data))
	if err != nil {
		return models.FileRecord{}, err
	}

	checksum := sha256.Sum256(data)

	record := models.FileRecord{
		OriginalName: header.Filename,
		MimeType:     "application/pdf",
		SizeBytes:    int64(len(data)),
		StoragePath:  storagePath,
		Checksum:     hex.EncodeToString(checksum[:]),
		UploadedBy:   principal.ID,
	}

	if err := s.files.Create(ctx, &record); err != nil {
		return models.FileRecord{}, err
	}

	return record, nil
}

// removeOrphanedFile is a best-effort cleanup when the pipeline fails after
// the binary was already written.
func (s *submissionService) removeOrphanedFile(ctx context.Context, record *models.FileRecord) {
	if err := s.store.Remove(ctx, record.StoragePath); err != nil {
		s.logger.Warn().Err(err).Str("path", record.StoragePath).Msg("failed to remove orphaned file")
	}
	if err := s.files.Delete(ctx, record.ID); err != nil {
		s.logger.Warn().Err(err).Uint("file_id", record.ID).Msg("failed to remove orphaned file record")
	}
}

func (s *submissionService) filterOwnedExercises(submissions []models.Submission, professorID uint) []models.Submission {
	owned := submissions[:0]
	for _, submission := range submissions {
		if submission.Exercise.OwnedBy(professorID) {
			owned = append(owned, submission)
		}
	}
	return owned
}
