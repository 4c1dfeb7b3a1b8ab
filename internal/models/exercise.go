package models

import "time"

// Difficulty levels a professor can assign to an exercise.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
	DifficultyExpert = "expert"
)

// Exercise represents an assignment authored by a professor.
type Exercise struct {
	ID                uint         `gorm:"primaryKey" json:"id"`
	Title             string       `gorm:"size:255;not null" json:"title"`
	Description       string       `gorm:"type:text" json:"description"`
	DueDate           *time.Time   `json:"due_date"`
	Difficulty        string       `gorm:"size:16;default:medium" json:"difficulty"`
	ExpectedFormat    string       `gorm:"size:32;not null" json:"expected_format"`
	VisibleToStudents bool         `gorm:"default:false" json:"visible_to_students"`
	ProfessorID       uint         `gorm:"not null" json:"professor_id"`
	CourseID          uint         `gorm:"not null" json:"course_id"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
	Professor         User         `gorm:"foreignKey:ProfessorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Course            Course       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Files             []FileRecord `gorm:"many2many:exercise_files" json:"files,omitempty"`
}

// OwnedBy reports whether the given professor owns this exercise.
func (e Exercise) OwnedBy(professorID uint) bool {
	return e.ProfessorID == professorID
}
