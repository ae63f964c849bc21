package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/orhnk/Mahfouz/internal/anki"
	"github.com/orhnk/Mahfouz/internal/config"
	"github.com/orhnk/Mahfouz/internal/database"
	"github.com/orhnk/Mahfouz/internal/database/sessions"
	"github.com/orhnk/Mahfouz/internal/database/settings"
	"github.com/orhnk/Mahfouz/internal/entities"
	"github.com/orhnk/Mahfouz/internal/export"
	"github.com/orhnk/Mahfouz/internal/koreader"
	"github.com/orhnk/Mahfouz/internal/services"
	"github.com/orhnk/Mahfouz/internal/settingsstore"
)

// ExportCommand exports KOReader sidecar highlights into Anki.
type ExportCommand struct {
	SidecarDir   string
	SidecarPath  string
	DatabasePath string
	DryRun       bool
	Verbose      bool

	// Overrides for stored settings; empty means "use the stored value"
	ParentDeck      string
	NoteType        string
	FrontContent    string
	AllowDuplicates bool
	FlatDeck        bool
}

// NewExportCommand creates a new ExportCommand
func NewExportCommand() *ExportCommand {
	return &ExportCommand{}
}

// ParseFlags parses command line flags
func (cmd *ExportCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)

	fs.StringVar(&cmd.SidecarDir, "dir", "", "Directory scanned recursively for sidecar dumps (.json)")
	fs.StringVar(&cmd.SidecarPath, "file", "", "Single sidecar dump to export")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the local database file")
	fs.BoolVar(&cmd.DryRun, "dry-run", false, "Materialize records and print them without touching Anki")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Enable verbose logging")

	fs.StringVar(&cmd.ParentDeck, "deck", "", "Parent deck (overrides the stored setting)")
	fs.StringVar(&cmd.NoteType, "note-type", "", "Note type (overrides the stored setting)")
	fs.StringVar(&cmd.FrontContent, "front", "", "Front content policy: highlight or comment (overrides the stored setting)")
	fs.BoolVar(&cmd.AllowDuplicates, "allow-duplicates", false, "Skip the duplicate pre-check")
	fs.BoolVar(&cmd.FlatDeck, "flat", false, "Export everything into the parent deck instead of one subdeck per book")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s export [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Export KOReader highlights into Anki via AnkiConnect.\n\n")
		fmt.Fprintf(os.Stderr, "Deck routing, note type and field mapping come from the stored\n")
		fmt.Fprintf(os.Stderr, "settings (see the /api/settings/anki endpoint) or ANKI_* environment\n")
		fmt.Fprintf(os.Stderr, "variables.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s export -dir ~/books/sidecars\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s export -file ./palace-walk.sdr.json -dry-run\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.SidecarDir == "" && cmd.SidecarPath == "" {
		return fmt.Errorf("either -dir or -file is required")
	}

	return nil
}

// Run executes the export
func (cmd *ExportCommand) Run() error {
	books, err := cmd.loadBooks()
	if err != nil {
		return err
	}
	if len(books) == 0 {
		fmt.Println("No sidecar files found")
		return nil
	}

	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	store := settingsstore.New(settings.NewRepository(db.DB))
	cmd.applyOverrides(store)

	if cmd.DryRun {
		return cmd.dryRun(books, store)
	}

	client := anki.NewClient(store.GetAnkiURL())
	sessionRepo := sessions.NewRepository(db.DB)
	svc := services.NewExportService(client, store, sessionRepo)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	var progress export.ProgressFunc
	if cmd.Verbose {
		progress = func(done, total int) {
			fmt.Printf("\r%d/%d records", done, total)
			if done == total {
				fmt.Println()
			}
		}
	}

	result, err := svc.ExportBooks(ctx, books, progress)
	if err != nil {
		return err
	}

	fmt.Println(result.Summary())
	for _, diag := range result.Outcome.Diagnostics {
		fmt.Println("  " + diag)
	}
	return nil
}

// dryRun resolves the stored mapping against the bundled note type's fields
// and prints what each record would look like, without any AnkiConnect
// traffic.
func (cmd *ExportCommand) dryRun(books []koreader.Book, store *settingsstore.SettingsStore) error {
	cfg := store.GetAnkiExportConfig()
	spec := export.DefaultNoteType()

	resolved, err := export.ResolveMapping(cfg.FieldMapping, spec.Fields)
	if err != nil {
		return fmt.Errorf("mapping cannot be resolved: %w", err)
	}

	normalizer := koreader.Normalizer{ShowRefPages: cfg.ShowRefPages}
	for _, book := range books {
		fmt.Printf("%s", book.Title)
		if book.Author != "" {
			fmt.Printf(" by %s", book.Author)
		}
		fmt.Println()

		records := normalizer.Highlights(book)
		skipped := 0
		for _, h := range records {
			materialized, ok := export.Materialize(cfg.ApplyIncludes(h), resolved, spec.Fields, cfg.FrontContent)
			if !ok {
				skipped++
				continue
			}
			cmd.printRecord(h, materialized)
		}
		if skipped > 0 {
			fmt.Printf("  (%d record(s) without highlight text or comment would be skipped)\n", skipped)
		}
	}
	return nil
}

func (cmd *ExportCommand) printRecord(h entities.CanonicalHighlight, record export.MaterializedRecord) {
	fmt.Printf("  [%s]\n", h.SourceID)
	for _, field := range []string{"Front", "Back", "Source", "Page", "Chapter", "Date"} {
		value, ok := record.Fields[field]
		if !ok || value == "" {
			continue
		}
		fmt.Printf("    %-8s %s\n", field+":", value)
	}
}

// applyOverrides pins flag values over stored settings for this run only.
func (cmd *ExportCommand) applyOverrides(store *settingsstore.SettingsStore) {
	if cmd.ParentDeck != "" {
		store.Override(entities.SettingKeyAnkiParentDeck, cmd.ParentDeck)
	}
	if cmd.NoteType != "" {
		store.Override(entities.SettingKeyAnkiNoteType, cmd.NoteType)
	}
	if cmd.FrontContent != "" {
		store.Override(entities.SettingKeyAnkiFrontContent, cmd.FrontContent)
	}
	if cmd.AllowDuplicates {
		store.Override(entities.SettingKeyAnkiAllowDuplicates, "true")
	}
	if cmd.FlatDeck {
		store.Override(entities.SettingKeyAnkiPerBookDecks, "false")
	}
}

func (cmd *ExportCommand) loadBooks() ([]koreader.Book, error) {
	if cmd.SidecarPath != "" {
		book, err := koreader.LoadSidecar(cmd.SidecarPath)
		if err != nil {
			return nil, err
		}
		return []koreader.Book{book}, nil
	}
	return koreader.ScanDir(cmd.SidecarDir)
}
