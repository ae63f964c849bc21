package export

import (
	"fmt"
)

// Failure kinds used in diagnostics.
const (
	KindDuplicateSkipped = "duplicate-skipped"
	KindSubmissionFailed = "submission-failed"
)

// previewLimit bounds how much record content a diagnostic may carry.
const previewLimit = 80

// Outcome is the terminal value of one export run. Failed includes the
// skipped-empty records after the final fold-in; SkippedEmpty tracks that
// subset separately for session bookkeeping.
type Outcome struct {
	Succeeded    int      `json:"succeeded"`
	Failed       int      `json:"failed"`
	SkippedEmpty int      `json:"skipped_empty"`
	Diagnostics  []string `json:"diagnostics,omitempty"`
}

// Merge folds another outcome into this one, preserving diagnostic order.
func (o *Outcome) Merge(other Outcome) {
	o.Succeeded += other.Succeeded
	o.Failed += other.Failed
	o.SkippedEmpty += other.SkippedEmpty
	o.Diagnostics = append(o.Diagnostics, other.Diagnostics...)
}

// RecordPreview is a debug snapshot of one materialized record, used only for
// diagnostics, never for logic.
type RecordPreview struct {
	Front   string
	Back    string
	Book    string
	Chapter string
	Page    string
}

// formatDiagnostic renders one per-record failure line with bounded previews.
func formatDiagnostic(kind string, batch int, p RecordPreview) string {
	return fmt.Sprintf("%s @batch %d: book='%s' chapter='%s' page='%s' front='%s' back='%s'",
		kind, batch, p.Book, p.Chapter, p.Page, truncate(p.Front, previewLimit), truncate(p.Back, previewLimit))
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
