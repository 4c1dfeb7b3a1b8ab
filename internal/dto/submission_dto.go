package dto

import (
	"time"

	"github.com/noah-isme/evalia-api/internal/models"
)

// SubmissionCreateRequest describes the multipart payload for a submission.
// The student answer may be inline text, an uploaded PDF, or both; the file
// takes precedence for the submission type.
type SubmissionCreateRequest struct {
	ExerciseID uint   `form:"exercise_id" validate:"required,gt=0"`
	Content    string `form:"contenu"`
}

// SubmissionFilter describes query string filters for listing submissions.
type SubmissionFilter struct {
	ExerciseID *uint   `query:"exercise_id"`
	StudentID  *uint   `query:"student_id"`
	Status     *string `query:"status" validate:"omitempty,oneof=pending graded grading_error"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID         uint                `json:"id"`
	ExerciseID uint                `json:"exercise_id"`
	StudentID  uint                `json:"student_id"`
	Content    string              `json:"content,omitempty"`
	Status     string              `json:"status"`
	Type       string              `json:"type"`
	File       *FileResponse       `json:"file,omitempty"`
	Exercise   ExerciseLite        `json:"exercise"`
	Correction *CorrectionResponse `json:"correction,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	response := SubmissionResponse{
		ID:         model.ID,
		ExerciseID: model.ExerciseID,
		StudentID:  model.StudentID,
		Content:    model.Content,
		Status:     model.Status,
		Type:       model.Type,
		Exercise: ExerciseLite{
			ID:      model.Exercise.ID,
			Title:   model.Exercise.Title,
			DueDate: model.Exercise.DueDate,
		},
		CreatedAt: model.CreatedAt,
	}

	if model.File != nil {
		file := NewFileResponse(*model.File)
		response.File = &file
	}

	if model.Correction != nil {
		correction := NewCorrectionResponse(*model.Correction)
		response.Correction = &correction
	}

	return response
}

// NewSubmissionResponseSlice converts a slice of submissions.
func NewSubmissionResponseSlice(submissions []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, NewSubmissionResponse(submission))
	}
	return responses
}
