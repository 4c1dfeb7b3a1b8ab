package models

import (
	"time"

	"gorm.io/datatypes"
)

// Correction provenance values.
const (
	CorrectionProducedByAI    = "ai"
	CorrectionProducedByHuman = "human"
)

// Score bounds for corrections, graded on a 0-20 scale in half points.
const (
	ScoreMin = 0.0
	ScoreMax = 20.0
)

// Correction stores the grading outcome for exactly one submission.
// RawDetails keeps the full prompt and raw model reply for auditability;
// a professor override mutates Score/Comment in place and the AI originals
// survive only inside RawDetails.
type Correction struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	SubmissionID      uint           `gorm:"uniqueIndex;not null" json:"submission_id"`
	Score             float64        `gorm:"not null" json:"score"`
	Comment           string         `gorm:"type:text" json:"comment"`
	ProducedBy        string         `gorm:"size:16;not null" json:"produced_by"`
	AIModelID         string         `gorm:"size:64" json:"ai_model_id,omitempty"`
	RawDetails        datatypes.JSON `json:"-"`
	ProfessorAdjusted bool           `gorm:"default:false" json:"professor_adjusted"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	Submission        Submission     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
