package koreader

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// LoadSidecar reads one JSON-decoded sidecar dump and resolves the book's
// display identity from its document properties.
func LoadSidecar(path string) (Book, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Book{}, fmt.Errorf("failed to read sidecar %s: %w", path, err)
	}

	var meta map[string]any
	if err := json.Unmarshal(data, &meta); err != nil {
		return Book{}, fmt.Errorf("failed to decode sidecar %s: %w", path, err)
	}

	book := Book{Meta: meta}
	if props, ok := meta["doc_props"].(map[string]any); ok {
		book.Title = stringField(props, "title")
		book.Author = stringField(props, "authors")
	}
	if book.Title == "" {
		base := filepath.Base(path)
		book.Title = strings.TrimSuffix(base, filepath.Ext(base))
	}

	return book, nil
}

// ScanDir walks a directory tree and loads every sidecar dump it finds.
// Unreadable files are logged and skipped so one broken sidecar does not
// abort a directory export.
func ScanDir(root string) ([]Book, error) {
	var books []Book

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			log.Printf("Error accessing path %s: %v", path, err)
			return nil
		}
		if info.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}

		book, loadErr := LoadSidecar(path)
		if loadErr != nil {
			log.Printf("Skipping sidecar %s: %v", path, loadErr)
			return nil
		}
		books = append(books, book)
		return nil
	})
	if err != nil {
		return books, fmt.Errorf("failed to walk directory %s: %w", root, err)
	}

	return books, nil
}
