package models

import "time"

// StudentProfile carries student-specific registration data.
type StudentProfile struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	StudentNumber string    `gorm:"size:64;uniqueIndex;not null" json:"student_number"`
	Department    string    `gorm:"size:128" json:"department"`
	CreatedAt     time.Time `json:"created_at"`
}

// ProfessorProfile carries professor-specific registration data.
type ProfessorProfile struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	Specialization string    `gorm:"size:128" json:"specialization"`
	Department     string    `gorm:"size:128" json:"department"`
	CreatedAt      time.Time `json:"created_at"`
}

// AdminProfile carries administrator-specific registration data.
type AdminProfile struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	AdminLevel int       `gorm:"default:1" json:"admin_level"`
	CreatedAt  time.Time `json:"created_at"`
}
