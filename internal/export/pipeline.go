package export

import (
	"context"
	"log"

	"github.com/orhnk/Mahfouz/internal/anki"
)

// BatchSize bounds how many records one remote call carries. It also bounds
// per-batch diagnostic volume.
const BatchSize = 50

// ProgressFunc receives (itemsProcessedSoFar, totalItemsAttempted) after each
// batch and after each dropped record. The done value is monotonically
// non-decreasing and reaches the total exactly once, at the end.
type ProgressFunc func(done, total int)

// Submitter is the slice of the remote collaborator the batch pipeline needs.
type Submitter interface {
	CanAddNotes(ctx context.Context, notes []anki.Note) ([]bool, error)
	AddNotes(ctx context.Context, notes []anki.Note) ([]*int64, error)
}

// Submission couples one submission-ready note with its diagnostic preview.
type Submission struct {
	Note    anki.Note
	Preview RecordPreview
}

// submitBatches partitions records into fixed-size batches and submits them
// sequentially. Batch n+1 is not started until batch n's outcome, including
// its progress report, is recorded. processed and total continue the caller's
// progress accounting across the record-drop pre-pass.
func submitBatches(ctx context.Context, submitter Submitter, records []Submission, batchSize int, allowDuplicates bool, progress ProgressFunc, processed, total int) Outcome {
	var out Outcome

	batchNo := 0
	for start := 0; start < len(records); start += batchSize {
		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]
		batchNo++

		eligible := batch
		if !allowDuplicates {
			eligible = filterDuplicates(ctx, submitter, batch, batchNo, &out)
		}

		if len(eligible) > 0 {
			submitOne(ctx, submitter, eligible, batchNo, &out)
		}

		processed += len(batch)
		if progress != nil {
			progress(processed, total)
		}
	}

	return out
}

// filterDuplicates asks the remote side which records are addable. The
// eligibility check is an optimization, not a correctness requirement: when
// it fails the whole batch is submitted unfiltered.
func filterDuplicates(ctx context.Context, submitter Submitter, batch []Submission, batchNo int, out *Outcome) []Submission {
	flags, err := submitter.CanAddNotes(ctx, notesOf(batch))
	if err != nil || len(flags) != len(batch) {
		log.Printf("Eligibility check failed for batch %d, submitting unfiltered: %v", batchNo, err)
		return batch
	}

	eligible := make([]Submission, 0, len(batch))
	for i, ok := range flags {
		if ok {
			eligible = append(eligible, batch[i])
			continue
		}
		out.Failed++
		out.Diagnostics = append(out.Diagnostics, formatDiagnostic(KindDuplicateSkipped, batchNo, batch[i].Preview))
	}
	return eligible
}

// submitOne submits the eligible subset of one batch and accounts per-slot
// results. A transport-level failure fails every record in the batch with the
// raw error as the batch's single diagnostic.
func submitOne(ctx context.Context, submitter Submitter, eligible []Submission, batchNo int, out *Outcome) {
	ids, err := submitter.AddNotes(ctx, notesOf(eligible))
	if err != nil {
		out.Failed += len(eligible)
		out.Diagnostics = append(out.Diagnostics, err.Error())
		return
	}

	for i, sub := range eligible {
		if i < len(ids) && ids[i] != nil {
			out.Succeeded++
			continue
		}
		out.Failed++
		out.Diagnostics = append(out.Diagnostics, formatDiagnostic(KindSubmissionFailed, batchNo, sub.Preview))
	}
}

func notesOf(subs []Submission) []anki.Note {
	notes := make([]anki.Note, len(subs))
	for i, s := range subs {
		notes[i] = s.Note
	}
	return notes
}
