package export

import (
	"context"
	"log"

	"github.com/orhnk/Mahfouz/internal/anki"
)

// NoteTypeSpec describes the note type an export wants to target: its name,
// ordered field list, styling and card templates.
type NoteTypeSpec struct {
	Name      string
	Fields    []string
	CSS       string
	Templates []anki.CardTemplate
}

// SchemaClient is the slice of the remote collaborator the reconciler needs.
type SchemaClient interface {
	ModelNames(ctx context.Context, forceRefresh bool) ([]string, error)
	ModelFieldNames(ctx context.Context, model string) ([]string, error)
	CreateModel(ctx context.Context, name string, fields []string, css string, templates []anki.CardTemplate) error
	AddModelField(ctx context.Context, model, field string, index int) error
	UpdateModelStyling(ctx context.Context, model, css string) error
	UpdateModelTemplates(ctx context.Context, model string, templates []anki.CardTemplate) error
}

// Reconciler guarantees, best-effort, that a note type exists with an
// expected field superset and presentation template.
//
// The operation is idempotent and non-destructive: it never removes fields
// and never deletes existing cards. Every remote call is individually
// tolerated; a rejected field add or template update degrades functionality
// instead of aborting the run.
type Reconciler struct {
	client SchemaClient
}

// NewReconciler creates a reconciler over a schema client.
func NewReconciler(client SchemaClient) *Reconciler {
	return &Reconciler{client: client}
}

// Ensure makes the note type conform to spec as far as the remote side
// allows. It never returns an error; reconciliation failures leave the caller
// free to fall back to a different, pre-existing note type.
func (r *Reconciler) Ensure(ctx context.Context, spec NoteTypeSpec) {
	names, err := r.client.ModelNames(ctx, true)
	if err != nil {
		log.Printf("Could not list note types, proceeding as if none exist: %v", err)
		names = nil
	}

	if !contains(names, spec.Name) {
		if err := r.client.CreateModel(ctx, spec.Name, spec.Fields, spec.CSS, spec.Templates); err != nil {
			log.Printf("Could not create note type %q: %v", spec.Name, err)
		}
		return
	}

	r.addMissingFields(ctx, spec)

	if err := r.client.UpdateModelStyling(ctx, spec.Name, spec.CSS); err != nil {
		log.Printf("Could not update styling for note type %q: %v", spec.Name, err)
	}
	if err := r.client.UpdateModelTemplates(ctx, spec.Name, spec.Templates); err != nil {
		log.Printf("Could not update templates for note type %q: %v", spec.Name, err)
	}
}

// addMissingFields adds each desired field the live note type lacks, one by
// one. Fields are additive only; a per-field rejection (external permission
// restrictions, renames) is logged and skipped.
func (r *Reconciler) addMissingFields(ctx context.Context, spec NoteTypeSpec) {
	current, err := r.client.ModelFieldNames(ctx, spec.Name)
	if err != nil {
		log.Printf("Could not fetch fields for note type %q, skipping field reconciliation: %v", spec.Name, err)
		return
	}

	existing := make(map[string]bool, len(current))
	for _, f := range current {
		existing[f] = true
	}

	index := len(current)
	for _, field := range spec.Fields {
		if existing[field] {
			continue
		}
		if err := r.client.AddModelField(ctx, spec.Name, field, index); err != nil {
			log.Printf("Could not add field %q to note type %q: %v", field, spec.Name, err)
			continue
		}
		index++
	}
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
