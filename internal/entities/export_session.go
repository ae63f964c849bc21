package entities

import (
	"time"
)

type ExportStatus string

const (
	ExportStatusPending   ExportStatus = "pending"
	ExportStatusRunning   ExportStatus = "running"
	ExportStatusCompleted ExportStatus = "completed"
	ExportStatusFailed    ExportStatus = "failed"
)

// ExportSession records one export run for history and status reporting.
// The session row is bookkeeping only; the engine itself returns the full
// outcome to its caller regardless of what is stored here.
type ExportSession struct {
	ID             uint         `gorm:"primaryKey" json:"id"`
	Status         ExportStatus `gorm:"size:20;default:'pending'" json:"status"`
	TargetDeck     string       `gorm:"size:256" json:"target_deck"`
	NoteType       string       `gorm:"size:256" json:"note_type"`
	BooksProcessed int          `json:"books_processed"`
	Succeeded      int          `json:"succeeded"`
	Failed         int          `json:"failed"`
	SkippedEmpty   int          `json:"skipped_empty"`
	Diagnostics    string       `gorm:"type:text" json:"diagnostics,omitempty"` // JSON array of strings
	StartedAt      time.Time    `json:"started_at"`
	CompletedAt    *time.Time   `json:"completed_at,omitempty"`
}

func (ExportSession) TableName() string {
	return "export_sessions"
}
