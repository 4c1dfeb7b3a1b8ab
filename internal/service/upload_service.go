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
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/evalia-api/internal/authz"
	"github.com/noah-isme/evalia-api/internal/dto"
	"github.com/noah-isme/evalia-api/internal/models"
	"github.com/noah-isme/evalia-api/internal/observability"
	"github.com/noah-isme/evalia-api/internal/repository"
	"github.com/noah-isme/evalia-api/pkg/localstore"
)

// Upload errors surfaced to handlers.
var (
	ErrFileTooLarge        = errors.New("file exceeds the size limit")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileMissing         = errors.New("no file provided")
)

// MIME types accepted for professor uploads.
var allowedUploadTypes = map[string]struct{}{
	"application/pdf": {},
	"text/plain":      {},
	"text/markdown":   {},
}

// UploadService stores professor files and links them to exercises.
type UploadService interface {
	Upload(ctx context.Context, principal authz.Principal, payload dto.UploadRequest, header *multipart.FileHeader) (dto.FileResponse, error)
	UploadTemp(ctx context.Context, principal authz.Principal, header *multipart.FileHeader) (dto.FileResponse, error)
}

type uploadService struct {
	files      repository.FileRepository
	exercises  repository.ExerciseRepository
	references repository.ReferenceCorrectionRepository
	store      *localstore.Store
	validator  *validator.Validate
	maxBytes   int64
	logger     zerolog.Logger
}

// NewUploadService builds a new upload service. maxMB bounds accepted file
// sizes in mebibytes.
func NewUploadService(
	files repository.FileRepository,
	exercises repository.ExerciseRepository,
	references repository.ReferenceCorrectionRepository,
	store *localstore.Store,
	validate *validator.Validate,
	maxMB int64,
	logger zerolog.Logger,
) UploadService {
	return &uploadService{
		files:      files,
		exercises:  exercises,
		references: references,
		store:      store,
		validator:  validate,
		maxBytes:   maxMB << 20,
		logger:     logger.With().Str("component", "upload_service").Logger(),
	}
}

func (s *uploadService) Upload(ctx context.Context, principal authz.Principal, payload dto.UploadRequest, header *multipart.FileHeader) (dto.FileResponse, error) {
	start := time.Now()
	observability.UploadRequests().WithLabelValues("exercise").Inc()

	if err := s.validator.Struct(payload); err != nil {
		return dto.FileResponse{}, err
	}

	exercise, err := s.exercises.GetByID(ctx, payload.ExerciseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.FileResponse{}, ErrExerciseNotFound
		}

		return dto.FileResponse{}, err
	}
	if !principal.IsAdmin() && !exercise.OwnedBy(principal.ID) {
		return dto.FileResponse{}, ErrNotExerciseOwner
	}

	data, detectedMime, err := s.readUpload(header)
	if err != nil {
		return dto.FileResponse{}, err
	}

	storagePath, err := s.store.Save(ctx, header.Filename, bytes.NewReader(data))
	if err != nil {
		return dto.FileResponse{}, err
	}

	checksum := sha256.Sum256(data)

	record := models.FileRecord{
		OriginalName: header.Filename,
		MimeType:     detectedMime,
		SizeBytes:    int64(len(data)),
		StoragePath:  storagePath,
		Checksum:     hex.EncodeToString(checksum[:]),
		UploadedBy:   principal.ID,
	}

	if err := s.exercises.AttachFile(ctx, exercise.ID, &record); err != nil {
		if removeErr := s.store.Remove(ctx, storagePath); removeErr != nil {
			s.logger.Warn().Err(removeErr).Str("path", storagePath).Msg("failed to remove orphaned file")
		}
		return dto.FileResponse{}, err
	}

	if payload.IsReference {
		reference := models.ReferenceCorrection{
			ExerciseID:  exercise.ID,
			ProfessorID: principal.ID,
			Content:     referenceTextContent(record.MimeType, data),
			FileID:      &record.ID,
		}
		if err := s.references.Upsert(ctx, &reference); err != nil {
			return dto.FileResponse{}, err
		}
	}

	observability.UploadLatency().Observe(time.Since(start).Seconds())
	s.logger.Info().
		Uint("file_id", record.ID).
		Uint("exercise_id", exercise.ID).
		Bool("is_reference", payload.IsReference).
		Str("mime_type", record.MimeType).
		Msg("file uploaded")

	return dto.NewFileResponse(record), nil
}

// UploadTemp stores a file in the temporary area without linking it to an
// exercise. Temp files older than the retention window are swept by the
// store's cleanup loop.
func (s *uploadService) UploadTemp(ctx context.Context, principal authz.Principal, header *multipart.FileHeader) (dto.FileResponse, error) {
	start := time.Now()
	observability.UploadRequests().WithLabelValues("temp").Inc()

	data, detectedMime, err := s.readUpload(header)
	if err != nil {
		return dto.FileResponse{}, err
	}

	storagePath, err := s.store.SaveTemp(ctx, header.Filename, bytes.NewReader(data))
	if err != nil {
		return dto.FileResponse{}, err
	}

	checksum := sha256.Sum256(data)

	record := models.FileRecord{
		OriginalName: header.Filename,
		MimeType:     detectedMime,
		SizeBytes:    int64(len(data)),
		StoragePath:  storagePath,
		Checksum:     hex.EncodeToString(checksum[:]),
		UploadedBy:   principal.ID,
		Temporary:    true,
	}
	if err := s.files.Create(ctx, &record); err != nil {
		return dto.FileResponse{}, err
	}

	observability.UploadLatency().Observe(time.Since(start).Seconds())
	s.logger.Info().
		Uint("file_id", record.ID).
		Str("mime_type", detectedMime).
		Msg("temporary file stored")

	return dto.NewFileResponse(record), nil
}

// readUpload enforces the size bound and sniffs the real content type instead
// of trusting the client header.
func (s *uploadService) readUpload(header *multipart.FileHeader) ([]byte, string, error) {
	if header == nil {
		observability.UploadRejected().WithLabelValues("missing").Inc()
		return nil, "", ErrFileMissing
	}
	if header.Size > s.maxBytes {
		observability.UploadRejected().WithLabelValues("too_large").Inc()
		return nil, "", fmt.Errorf("%w: %d bytes", ErrFileTooLarge, header.Size)
	}

	source, err := header.Open()
	if err != nil {
		return nil, "", err
	}
	defer source.Close()

	data, err := io.ReadAll(io.LimitReader(source, s.maxBytes+1))
	if err != nil {
		return nil, "", err
	}
	if int64(len(data)) > s.maxBytes {
		observability.UploadRejected().WithLabelValues("too_large").Inc()
		return nil, "", ErrFileTooLarge
	}

	detected := mimetype.Detect(data)
	mime := baseMime(detected.String())
	if _, ok := allowedUploadTypes[mime]; !ok {
		observability.UploadRejected().WithLabelValues("unsupported_type").Inc()
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedFileType, detected.String())
	}

	return data, mime, nil
}

// referenceTextContent inlines text uploads so grading does not need to read
// the file back; PDF references keep only the file link.
func referenceTextContent(mimeType string, data []byte) string {
	if mimeType == "text/plain" || mimeType == "text/markdown" {
		return string(data)
	}
	return ""
}

// baseMime strips parameters such as "; charset=utf-8".
func baseMime(value string) string {
	for i := 0; i < len(value); i++ {
		if value[i] == ';' {
			return value[:i]
		}
	}
	return value
}
