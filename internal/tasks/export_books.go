package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/orhnk/Mahfouz/internal/koreader"
	"github.com/orhnk/Mahfouz/internal/services"
)

// ExportBooksTask exports the highlights of one or more sidecar files to
// Anki. Either a directory to scan or an explicit file list is given.
type ExportBooksTask struct {
	SidecarDir   string   `json:"sidecar_dir,omitempty"`
	SidecarPaths []string `json:"sidecar_paths,omitempty"`
}

// Config returns the queue configuration for export tasks.
func (t ExportBooksTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "export_books",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     10 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ExportBooksProcessor creates a processor function for ExportBooksTask.
func ExportBooksProcessor(svc *services.ExportService) backlite.QueueProcessor[ExportBooksTask] {
	return func(ctx context.Context, task ExportBooksTask) error {
		if svc == nil {
			return fmt.Errorf("export service not configured")
		}

		books, err := loadBooks(task)
		if err != nil {
			return err
		}
		if len(books) == 0 {
			log.Printf("[TASK] Export found no sidecar files to process")
			return nil
		}

		result, err := svc.ExportBooks(ctx, books, nil)
		if err != nil {
			return fmt.Errorf("export books: %w", err)
		}

		log.Printf("[TASK] Export session %d done: %s", result.SessionID, result.Summary())
		return nil
	}
}

func loadBooks(task ExportBooksTask) ([]koreader.Book, error) {
	var books []koreader.Book

	if task.SidecarDir != "" {
		scanned, err := koreader.ScanDir(task.SidecarDir)
		if err != nil {
			return nil, fmt.Errorf("scan sidecar dir: %w", err)
		}
		books = append(books, scanned...)
	}

	for _, path := range task.SidecarPaths {
		book, err := koreader.LoadSidecar(path)
		if err != nil {
			return nil, fmt.Errorf("load sidecar: %w", err)
		}
		books = append(books, book)
	}

	return books, nil
}

// NewExportBooksQueue creates a backlite queue for export tasks.
func NewExportBooksQueue(svc *services.ExportService) backlite.Queue {
	return backlite.NewQueue(ExportBooksProcessor(svc))
}
