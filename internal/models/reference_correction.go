package models

import "time"

// ReferenceCorrection holds the professor-authored answer key for an
// exercise, either inline text or a stored file. Lookups take the first
// record for the exercise.
type ReferenceCorrection struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	ExerciseID  uint        `gorm:"not null;index" json:"exercise_id"`
	ProfessorID uint        `gorm:"not null" json:"professor_id"`
	Content     string      `gorm:"type:text" json:"content"`
	FileID      *uint       `json:"file_id"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	Exercise    Exercise    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	File        *FileRecord `gorm:"foreignKey:FileID" json:"file,omitempty"`
}
