// Package sessions provides database operations for export session history.
package sessions

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"github.com/orhnk/Mahfouz/internal/entities"
)

// Repository handles export session database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new export session repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create records a new session in the running state.
func (r *Repository) Create(targetDeck, noteType string) (*entities.ExportSession, error) {
	session := &entities.ExportSession{
		Status:     entities.ExportStatusRunning,
		TargetDeck: targetDeck,
		NoteType:   noteType,
		StartedAt:  time.Now(),
	}
	if err := r.db.Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

// Complete marks a session finished and stores its counters and diagnostics.
func (r *Repository) Complete(session *entities.ExportSession, books, succeeded, failed, skipped int, diagnostics []string) error {
	now := time.Now()
	session.Status = entities.ExportStatusCompleted
	session.BooksProcessed = books
	session.Succeeded = succeeded
	session.Failed = failed
	session.SkippedEmpty = skipped
	session.CompletedAt = &now

	if len(diagnostics) > 0 {
		encoded, err := json.Marshal(diagnostics)
		if err == nil {
			session.Diagnostics = string(encoded)
		}
	}

	return r.db.Save(session).Error
}

// Fail marks a session failed with a single diagnostic message.
func (r *Repository) Fail(session *entities.ExportSession, message string) error {
	now := time.Now()
	session.Status = entities.ExportStatusFailed
	session.CompletedAt = &now

	encoded, err := json.Marshal([]string{message})
	if err == nil {
		session.Diagnostics = string(encoded)
	}

	return r.db.Save(session).Error
}

// GetByID retrieves a session by ID.
func (r *Repository) GetByID(id uint) (*entities.ExportSession, error) {
	var session entities.ExportSession
	if err := r.db.First(&session, id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// Recent returns the most recently started sessions, newest first.
func (r *Repository) Recent(limit int) ([]entities.ExportSession, error) {
	var sessions []entities.ExportSession
	query := r.db.Order("started_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&sessions).Error
	return sessions, err
}

// Diagnostics decodes a session's stored diagnostics list.
func Diagnostics(session *entities.ExportSession) []string {
	if session.Diagnostics == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(session.Diagnostics), &out); err != nil {
		return nil
	}
	return out
}
