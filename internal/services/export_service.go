// Package services orchestrates whole-export runs: settings resolution,
// per-book deck routing, note-type provisioning and session bookkeeping
// around the record-level export engine.
package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/orhnk/Mahfouz/internal/anki"
	"github.com/orhnk/Mahfouz/internal/entities"
	"github.com/orhnk/Mahfouz/internal/export"
	"github.com/orhnk/Mahfouz/internal/koreader"
	"github.com/orhnk/Mahfouz/internal/settingsstore"
)

// BaseTag marks every exported note.
const BaseTag = "Mahfouz"

// ExportService runs exports end to end across one or more books.
type ExportService struct {
	remote   Remote
	store    *settingsstore.SettingsStore
	sessions SessionRecorder
}

func NewExportService(remote Remote, store *settingsstore.SettingsStore, sessions SessionRecorder) *ExportService {
	return &ExportService{
		remote:   remote,
		store:    store,
		sessions: sessions,
	}
}

// BookResult is the outcome of one book's export.
type BookResult struct {
	Book    string         `json:"book"`
	Deck    string         `json:"deck"`
	Records int            `json:"records"`
	Outcome export.Outcome `json:"outcome"`
}

// Result aggregates a whole run.
type Result struct {
	SessionID      uint           `json:"session_id"`
	BooksProcessed int            `json:"books_processed"`
	Outcome        export.Outcome `json:"outcome"`
	PerBook        []BookResult   `json:"per_book"`
}

// Summary renders a one-line human-readable run summary.
func (r Result) Summary() string {
	return fmt.Sprintf("%d book(s): %d added, %d failed, %d skipped empty",
		r.BooksProcessed, r.Outcome.Succeeded, r.Outcome.Failed, r.Outcome.SkippedEmpty)
}

// ExportBooks exports every highlight of the given books. Settings come from
// the settings store; progress, when non-nil, is reported across the whole
// run. A returned error means the run could not start or hit an export
// precondition failure; partial record failures are reported in the Result.
func (s *ExportService) ExportBooks(ctx context.Context, books []koreader.Book, progress export.ProgressFunc) (Result, error) {
	cfg := s.store.GetAnkiExportConfig()

	session, err := s.sessions.Create(cfg.ParentDeck, cfg.NoteType)
	if err != nil {
		return Result{}, fmt.Errorf("failed to record export session: %w", err)
	}

	result, err := s.run(ctx, books, cfg, progress)
	if err != nil {
		if ferr := s.sessions.Fail(session, err.Error()); ferr != nil {
			log.Printf("Could not mark export session %d failed: %v", session.ID, ferr)
		}
		return Result{}, err
	}

	result.SessionID = session.ID
	if cerr := s.sessions.Complete(session, result.BooksProcessed,
		result.Outcome.Succeeded, result.Outcome.Failed, result.Outcome.SkippedEmpty,
		result.Outcome.Diagnostics); cerr != nil {
		log.Printf("Could not complete export session %d: %v", session.ID, cerr)
	}

	return result, nil
}

func (s *ExportService) run(ctx context.Context, books []koreader.Book, cfg settingsstore.AnkiExportConfig, progress export.ProgressFunc) (Result, error) {
	// The bundled note type is provisioned on demand; user-selected note
	// types are taken as-is.
	if cfg.NoteType == export.DefaultNoteTypeName {
		export.NewReconciler(s.remote).Ensure(ctx, export.DefaultNoteType())
	}

	normalizer := &koreader.Normalizer{ShowRefPages: cfg.ShowRefPages}

	// Normalize everything up front so progress reports against the grand
	// total from the first record on.
	type batch struct {
		book       koreader.Book
		highlights []entities.CanonicalHighlight
	}
	batches := make([]batch, 0, len(books))
	grandTotal := 0
	for _, book := range books {
		highlights := normalizer.Highlights(book)
		for i := range highlights {
			highlights[i] = cfg.ApplyIncludes(highlights[i])
		}
		grandTotal += len(highlights)
		batches = append(batches, batch{book: book, highlights: highlights})
	}

	if grandTotal == 0 && progress != nil {
		progress(0, 0)
	}

	engine := export.NewEngine(s.remote)
	var result Result
	done := 0

	for _, b := range batches {
		deck, err := s.deckFor(ctx, cfg, b.book)
		if err != nil {
			return Result{}, err
		}

		var bookProgress export.ProgressFunc
		if progress != nil && grandTotal > 0 {
			offset := done
			bookProgress = func(bookDone, _ int) {
				progress(offset+bookDone, grandTotal)
			}
		}

		outcome, err := engine.Export(ctx, b.highlights, export.Options{
			DeckName:        deck,
			NoteType:        cfg.NoteType,
			Mapping:         cfg.FieldMapping,
			AllowDuplicates: cfg.AllowDuplicates,
			FrontContent:    cfg.FrontContent,
			Tags:            s.tagsFor(cfg, b.book),
			Progress:        bookProgress,
		})
		if err != nil {
			return Result{}, fmt.Errorf("export of %q failed: %w", b.book.Title, err)
		}

		done += len(b.highlights)
		result.BooksProcessed++
		result.Outcome.Merge(outcome)
		result.PerBook = append(result.PerBook, BookResult{
			Book:    b.book.Title,
			Deck:    deck,
			Records: len(b.highlights),
			Outcome: outcome,
		})

		log.Printf("Exported %q to deck %q: %d added, %d failed",
			b.book.Title, deck, outcome.Succeeded, outcome.Failed)
	}

	return result, nil
}

// deckFor routes a book to its destination deck and makes sure it exists.
// Deck creation is idempotent on the AnkiConnect side.
func (s *ExportService) deckFor(ctx context.Context, cfg settingsstore.AnkiExportConfig, book koreader.Book) (string, error) {
	deck := cfg.ParentDeck
	if cfg.PerBookDecks && book.Title != "" {
		deck = cfg.ParentDeck + "::" + anki.SanitizeDeckName(book.Title)
	}
	if _, err := s.remote.CreateDeck(ctx, deck); err != nil {
		return "", fmt.Errorf("failed to create deck %q: %w", deck, err)
	}
	return deck, nil
}

func (s *ExportService) tagsFor(cfg settingsstore.AnkiExportConfig, book koreader.Book) []string {
	if !cfg.AddTags {
		return nil
	}
	tags := []string{BaseTag}
	if book.Title != "" {
		tags = append(tags, "book::"+tagSafe(book.Title))
	}
	return tags
}

// tagSafe makes a book title usable as an Anki tag. Tags are
// whitespace-separated in Anki, so spaces become underscores.
func tagSafe(title string) string {
	safe := anki.SanitizeDeckName(title)
	safe = strings.Join(strings.Fields(safe), "_")
	return safe
}
