package dto

import (
	"time"

	"github.com/noah-isme/evalia-api/internal/models"
)

// ExerciseCreateRequest describes the payload for authoring an exercise.
type ExerciseCreateRequest struct {
	Title             string     `json:"title" validate:"required,min=3,max=255"`
	Description       string     `json:"description" validate:"required"`
	DueDate           *time.Time `json:"due_date"`
	Difficulty        string     `json:"difficulty" validate:"omitempty,oneof=easy medium hard expert"`
	ExpectedFormat    string     `json:"expected_format" validate:"required,oneof=text pdf"`
	VisibleToStudents bool       `json:"visible_to_students"`
	CourseID          uint       `json:"course_id" validate:"required,gt=0"`
}

// ExerciseUpdateRequest describes a partial exercise mutation.
type ExerciseUpdateRequest struct {
	Title             *string    `json:"title" validate:"omitempty,min=3,max=255"`
	Description       *string    `json:"description"`
	DueDate           *time.Time `json:"due_date"`
	Difficulty        *string    `json:"difficulty" validate:"omitempty,oneof=easy medium hard expert"`
	ExpectedFormat    *string    `json:"expected_format" validate:"omitempty,oneof=text pdf"`
	VisibleToStudents *bool      `json:"visible_to_students"`
}

// ExerciseResponse is returned to API clients when viewing exercises.
type ExerciseResponse struct {
	ID                uint           `json:"id"`
	Title             string         `json:"title"`
	Description       string         `json:"description"`
	DueDate           *time.Time     `json:"due_date"`
	Difficulty        string         `json:"difficulty"`
	ExpectedFormat    string         `json:"expected_format"`
	VisibleToStudents bool           `json:"visible_to_students"`
	ProfessorID       uint           `json:"professor_id"`
	CourseID          uint           `json:"course_id"`
	Files             []FileResponse `json:"files,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// ExerciseLite summarizes an exercise inside submission responses.
type ExerciseLite struct {
	ID      uint       `json:"id"`
	Title   string     `json:"title"`
	DueDate *time.Time `json:"due_date"`
}

// NewExerciseResponse converts an Exercise model into a DTO.
func NewExerciseResponse(model models.Exercise) ExerciseResponse {
	response := ExerciseResponse{
		ID:                model.ID,
		Title:             model.Title,
		Description:       model.Description,
		DueDate:           model.DueDate,
		Difficulty:        model.Difficulty,
		ExpectedFormat:    model.ExpectedFormat,
		VisibleToStudents: model.VisibleToStudents,
		ProfessorID:       model.ProfessorID,
		CourseID:          model.CourseID,
		CreatedAt:         model.CreatedAt,
		UpdatedAt:         model.UpdatedAt,
	}

	for _, file := range model.Files {
		response.Files = append(response.Files, NewFileResponse(file))
	}

	return response
}

// NewExerciseResponseSlice converts a slice of exercises.
func NewExerciseResponseSlice(exercises []models.Exercise) []ExerciseResponse {
	responses := make([]ExerciseResponse, 0, len(exercises))
	for _, exercise := range exercises {
		responses = append(responses, NewExerciseResponse(exercise))
	}
	return responses
}
