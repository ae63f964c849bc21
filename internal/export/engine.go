// Package export implements the reconciliation engine that turns canonical
// highlights into submitted flashcard notes: note-type reconciliation, field
// mapping resolution, record materialization and duplicate-aware batch
// submission.
package export

import (
	"context"
	"fmt"

	"github.com/orhnk/Mahfouz/internal/anki"
	"github.com/orhnk/Mahfouz/internal/entities"
)

// RemoteCollection is everything the engine needs from the remote side on the
// submission path. anki.Client satisfies it.
type RemoteCollection interface {
	ModelFieldNames(ctx context.Context, model string) ([]string, error)
	Submitter
}

// Options configures one export invocation.
type Options struct {
	DeckName        string
	NoteType        string
	Mapping         entities.FieldMapping // declared mapping; nil selects the default
	AllowDuplicates bool
	FrontContent    entities.FrontContentPolicy
	Tags            []string
	Progress        ProgressFunc
}

// Engine drives one export invocation end to end. It is safe to call from
// exactly one worker context at a time and is not reentrant: two concurrent
// exports against the same note type would race field additions.
type Engine struct {
	remote    RemoteCollection
	batchSize int
}

// NewEngine creates an engine over a remote collection.
func NewEngine(remote RemoteCollection) *Engine {
	return &Engine{remote: remote, batchSize: BatchSize}
}

// Export resolves the declared mapping against the live note type,
// materializes every highlight and submits the result in batches.
//
// The error return is reserved for precondition violations discovered before
// any submission begins (unreachable remote, empty field list). Once past the
// precondition check the caller always receives a complete outcome: per-record
// and per-batch failures are folded into counters and diagnostics, never
// raised.
func (e *Engine) Export(ctx context.Context, highlights []entities.CanonicalHighlight, opts Options) (Outcome, error) {
	fields, err := e.remote.ModelFieldNames(ctx, opts.NoteType)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to fetch fields for note type %q: %w", opts.NoteType, err)
	}

	declared := opts.Mapping
	if declared == nil {
		declared = entities.DefaultFieldMapping
	}

	resolved, err := ResolveMapping(declared, fields)
	if err != nil {
		return Outcome{}, err
	}

	total := len(highlights)
	processed := 0
	skipped := 0
	var subs []Submission

	for _, h := range highlights {
		rec, ok := Materialize(h, resolved, fields, opts.FrontContent)
		if !ok {
			skipped++
			processed++
			if opts.Progress != nil {
				opts.Progress(processed, total)
			}
			continue
		}
		subs = append(subs, Submission{
			Note: anki.Note{
				DeckName:  opts.DeckName,
				ModelName: opts.NoteType,
				Fields:    rec.Fields,
				Options: anki.NoteOptions{
					AllowDuplicate: opts.AllowDuplicates,
					DuplicateScope: "deck",
				},
				Tags: opts.Tags,
			},
			Preview: rec.Preview,
		})
	}

	out := submitBatches(ctx, e.remote, subs, e.batchSize, opts.AllowDuplicates, opts.Progress, processed, total)

	if total == 0 && opts.Progress != nil {
		opts.Progress(0, 0)
	}

	if skipped > 0 {
		out.Failed += skipped
		out.SkippedEmpty = skipped
		out.Diagnostics = append(out.Diagnostics,
			fmt.Sprintf("skipped-empty: %d record(s) had no highlight text or comment and were not submitted", skipped))
	}

	return out, nil
}
