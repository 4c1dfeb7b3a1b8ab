package dto

import (
	"time"

	"github.com/noah-isme/evalia-api/internal/models"
)

// EvaluateRequest triggers AI grading for an existing submission.
type EvaluateRequest struct {
	SubmissionID uint `json:"submission_id" validate:"required,gt=0"`
}

// CorrectionUpdateRequest describes a professor override of an existing
// correction. Scores use the 0-20 scale.
type CorrectionUpdateRequest struct {
	Note        *float64 `json:"note" validate:"omitempty,gte=0,lte=20"`
	Commentaire *string  `json:"commentaire"`
}

// ManualCorrectionRequest lets the owning professor grade a submission that
// never received an AI correction.
type ManualCorrectionRequest struct {
	SubmissionID uint    `json:"submission_id" validate:"required,gt=0"`
	Note         float64 `json:"note" validate:"gte=0,lte=20"`
	Commentaire  string  `json:"commentaire" validate:"required"`
}

// CorrectionResponse is the public view of a correction.
type CorrectionResponse struct {
	ID                uint      `json:"id"`
	SubmissionID      uint      `json:"submission_id"`
	Score             float64   `json:"score"`
	Comment           string    `json:"comment"`
	ProducedBy        string    `json:"produced_by"`
	AIModelID         string    `json:"ai_model_id,omitempty"`
	ProfessorAdjusted bool      `json:"professor_adjusted"`
	CreatedAt         time.Time `json:"created_at"`
}

// NewCorrectionResponse converts a Correction model into a DTO.
func NewCorrectionResponse(model models.Correction) CorrectionResponse {
	return CorrectionResponse{
		ID:                model.ID,
		SubmissionID:      model.SubmissionID,
		Score:             model.Score,
		Comment:           model.Comment,
		ProducedBy:        model.ProducedBy,
		AIModelID:         model.AIModelID,
		ProfessorAdjusted: model.ProfessorAdjusted,
		CreatedAt:         model.CreatedAt,
	}
}
