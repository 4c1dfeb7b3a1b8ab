package models

import "time"

// FileRecord tracks an uploaded binary stored on local disk.
// Records are immutable once created.
type FileRecord struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	OriginalName string    `gorm:"size:255;not null" json:"original_name"`
	MimeType     string    `gorm:"size:128;not null" json:"mime_type"`
	SizeBytes    int64     `gorm:"not null" json:"size_bytes"`
	StoragePath  string    `gorm:"size:512;not null" json:"storage_path"`
	Checksum     string    `gorm:"size:64" json:"checksum"`
	UploadedBy   uint      `gorm:"not null" json:"uploaded_by"`
	Temporary    bool      `gorm:"default:false" json:"temporary"`
	CreatedAt    time.Time `json:"created_at"`
}
