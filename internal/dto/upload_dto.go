package dto

import (
	"time"

	"github.com/noah-isme/evalia-api/internal/models"
)

// UploadRequest describes the multipart metadata accompanying a professor
// file upload. The file itself arrives under the "file" form field.
type UploadRequest struct {
	ExerciseID  uint `form:"exercise_id" validate:"required,gt=0"`
	IsReference bool `form:"is_reference"`
}

// FileResponse is the public view of a stored file.
type FileResponse struct {
	ID           uint      `json:"id"`
	OriginalName string    `json:"original_name"`
	MimeType     string    `json:"mime_type"`
	SizeBytes    int64     `json:"size_bytes"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewFileResponse converts a FileRecord model into a DTO.
func NewFileResponse(model models.FileRecord) FileResponse {
	return FileResponse{
		ID:           model.ID,
		OriginalName: model.OriginalName,
		MimeType:     model.MimeType,
		SizeBytes:    model.SizeBytes,
		CreatedAt:    model.CreatedAt,
	}
}
