package models

import "time"

// Submission status transitions: pending -> graded | grading_error.
const (
	SubmissionStatusPending      = "pending"
	SubmissionStatusGraded       = "graded"
	SubmissionStatusGradingError = "grading_error"
)

// Submission payload kinds.
const (
	SubmissionTypeText = "text"
	SubmissionTypeFile = "file"
)

// Submission represents one student's attempt at one exercise. Rows are
// immutable once created except for the status field; each attempt is a
// separate row.
type Submission struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	ExerciseID uint        `gorm:"not null;index" json:"exercise_id"`
	StudentID  uint        `gorm:"not null;index" json:"student_id"`
	Content    string      `gorm:"type:text" json:"content"`
	FileID     *uint       `json:"file_id"`
	Status     string      `gorm:"size:32;not null" json:"status"`
	Type       string      `gorm:"size:16;not null" json:"type"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
	Exercise   Exercise    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"exercise"`
	Student    User        `gorm:"foreignKey:StudentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	File       *FileRecord `gorm:"foreignKey:FileID" json:"file,omitempty"`
	Correction *Correction `json:"correction,omitempty"`
}

// IsGraded reports whether the submission carries a final correction.
func (s Submission) IsGraded() bool {
	return s.Status == SubmissionStatusGraded
}
