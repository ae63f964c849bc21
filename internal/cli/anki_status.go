package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/orhnk/Mahfouz/internal/anki"
	"github.com/orhnk/Mahfouz/internal/config"
)

// AnkiStatusCommand probes the AnkiConnect endpoint and lists the collection.
type AnkiStatusCommand struct {
	URL        string
	ListDecks  bool
	ListModels bool
}

// NewAnkiStatusCommand creates a new AnkiStatusCommand
func NewAnkiStatusCommand() *AnkiStatusCommand {
	return &AnkiStatusCommand{}
}

// ParseFlags parses command line flags
func (cmd *AnkiStatusCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("anki-status", flag.ExitOnError)

	defaultURL := os.Getenv("ANKI_CONNECT_URL")
	if defaultURL == "" {
		defaultURL = config.DefaultAnkiConnectURL
	}

	fs.StringVar(&cmd.URL, "url", defaultURL, "AnkiConnect endpoint")
	fs.BoolVar(&cmd.ListDecks, "decks", false, "List all decks")
	fs.BoolVar(&cmd.ListModels, "models", false, "List all note types")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s anki-status [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Check the AnkiConnect connection and optionally list the collection.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

// Run executes the status check
func (cmd *AnkiStatusCommand) Run() error {
	client := anki.NewClient(cmd.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	version, err := client.Version(ctx)
	if err != nil {
		return fmt.Errorf("AnkiConnect is not reachable at %s: %w", client.URL(), err)
	}
	fmt.Printf("AnkiConnect v%d at %s\n", version, client.URL())

	if cmd.ListDecks {
		decks, err := client.DeckNamesAndIDs(ctx)
		if err != nil {
			return fmt.Errorf("failed to list decks: %w", err)
		}
		names := make([]string, 0, len(decks))
		for name := range decks {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Printf("\nDecks (%d):\n", len(names))
		for _, name := range names {
			fmt.Printf("  %s (id %d)\n", name, decks[name])
		}
	}

	if cmd.ListModels {
		models, err := client.ModelNames(ctx, true)
		if err != nil {
			return fmt.Errorf("failed to list note types: %w", err)
		}
		fmt.Printf("\nNote types (%d):\n", len(models))
		for _, model := range models {
			fmt.Println("  " + model)
		}
	}

	return nil
}
