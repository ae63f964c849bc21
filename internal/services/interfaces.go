package services

import (
	"context"

	"github.com/orhnk/Mahfouz/internal/anki"
	"github.com/orhnk/Mahfouz/internal/entities"
)

// Remote is the full AnkiConnect surface the export service needs: note
// submission, note-type schema management and deck creation.
type Remote interface {
	ModelNames(ctx context.Context, forceRefresh bool) ([]string, error)
	ModelFieldNames(ctx context.Context, model string) ([]string, error)
	CreateModel(ctx context.Context, name string, fields []string, css string, templates []anki.CardTemplate) error
	AddModelField(ctx context.Context, model, field string, index int) error
	UpdateModelStyling(ctx context.Context, model, css string) error
	UpdateModelTemplates(ctx context.Context, model string, templates []anki.CardTemplate) error
	CanAddNotes(ctx context.Context, notes []anki.Note) ([]bool, error)
	AddNotes(ctx context.Context, notes []anki.Note) ([]*int64, error)
	CreateDeck(ctx context.Context, name string) (int64, error)
}

// SessionRecorder persists export session history.
type SessionRecorder interface {
	Create(targetDeck, noteType string) (*entities.ExportSession, error)
	Complete(session *entities.ExportSession, books, succeeded, failed, skipped int, diagnostics []string) error
	Fail(session *entities.ExportSession, message string) error
}
