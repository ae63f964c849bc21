package export

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orhnk/Mahfouz/internal/anki"
)

type fieldAdd struct {
	field string
	index int
}

// fakeSchema records schema calls and fails the ones named in failures.
type fakeSchema struct {
	models    []string
	fields    []string
	fieldsErr error
	namesErr  error
	failures  map[string]bool

	created       []string
	createdFields [][]string
	added         []fieldAdd
	styled        int
	templated     int
}

func (f *fakeSchema) ModelNames(ctx context.Context, forceRefresh bool) ([]string, error) {
	return f.models, f.namesErr
}

func (f *fakeSchema) ModelFieldNames(ctx context.Context, model string) ([]string, error) {
	return f.fields, f.fieldsErr
}

func (f *fakeSchema) CreateModel(ctx context.Context, name string, fields []string, css string, templates []anki.CardTemplate) error {
	if f.failures["createModel"] {
		return errors.New("createModel rejected")
	}
	f.created = append(f.created, name)
	f.createdFields = append(f.createdFields, fields)
	return nil
}

func (f *fakeSchema) AddModelField(ctx context.Context, model, field string, index int) error {
	if f.failures["addField:"+field] {
		return errors.New("field rejected")
	}
	f.added = append(f.added, fieldAdd{field: field, index: index})
	return nil
}

func (f *fakeSchema) UpdateModelStyling(ctx context.Context, model, css string) error {
	if f.failures["styling"] {
		return errors.New("styling rejected")
	}
	f.styled++
	return nil
}

func (f *fakeSchema) UpdateModelTemplates(ctx context.Context, model string, templates []anki.CardTemplate) error {
	if f.failures["templates"] {
		return errors.New("templates rejected")
	}
	f.templated++
	return nil
}

func TestReconciler_CreatesAbsentNoteType(t *testing.T) {
	schema := &fakeSchema{models: []string{"Basic", "Cloze"}}
	spec := DefaultNoteType()

	NewReconciler(schema).Ensure(context.Background(), spec)

	require.Equal(t, []string{spec.Name}, schema.created)
	assert.Equal(t, spec.Fields, schema.createdFields[0])
	assert.Empty(t, schema.added, "a freshly created note type needs no field additions")
}

func TestReconciler_ListFailureTreatedAsAbsent(t *testing.T) {
	schema := &fakeSchema{namesErr: errors.New("timeout")}
	spec := DefaultNoteType()

	NewReconciler(schema).Ensure(context.Background(), spec)

	assert.Equal(t, []string{spec.Name}, schema.created)
}

func TestReconciler_AddsOnlyMissingFields(t *testing.T) {
	spec := DefaultNoteType()
	schema := &fakeSchema{
		models: []string{spec.Name},
		fields: []string{"Front", "Back", "Extra"},
	}

	NewReconciler(schema).Ensure(context.Background(), spec)

	assert.Empty(t, schema.created)
	require.Equal(t, []fieldAdd{
		{field: "Source", index: 3},
		{field: "Page", index: 4},
		{field: "Chapter", index: 5},
		{field: "Date", index: 6},
	}, schema.added)
	assert.Equal(t, 1, schema.styled)
	assert.Equal(t, 1, schema.templated)
}

func TestReconciler_Idempotent(t *testing.T) {
	spec := DefaultNoteType()
	schema := &fakeSchema{
		models: []string{spec.Name},
		fields: spec.Fields,
	}

	r := NewReconciler(schema)
	r.Ensure(context.Background(), spec)
	r.Ensure(context.Background(), spec)

	assert.Empty(t, schema.created)
	assert.Empty(t, schema.added, "a conforming note type gets no field additions")
}

func TestReconciler_PerFieldRejectionSkipped(t *testing.T) {
	spec := DefaultNoteType()
	schema := &fakeSchema{
		models:   []string{spec.Name},
		fields:   []string{"Front", "Back"},
		failures: map[string]bool{"addField:Page": true},
	}

	NewReconciler(schema).Ensure(context.Background(), spec)

	// Page is rejected; the insertion index is not advanced past it.
	require.Equal(t, []fieldAdd{
		{field: "Source", index: 2},
		{field: "Chapter", index: 3},
		{field: "Date", index: 4},
	}, schema.added)
}

func TestReconciler_FieldFetchFailureSkipsReconciliation(t *testing.T) {
	spec := DefaultNoteType()
	schema := &fakeSchema{
		models:    []string{spec.Name},
		fieldsErr: errors.New("boom"),
	}

	NewReconciler(schema).Ensure(context.Background(), spec)

	assert.Empty(t, schema.added)
	assert.Equal(t, 1, schema.styled, "presentation updates still run")
	assert.Equal(t, 1, schema.templated)
}

func TestReconciler_ToleratesPresentationFailures(t *testing.T) {
	spec := DefaultNoteType()
	schema := &fakeSchema{
		models:   []string{spec.Name},
		fields:   spec.Fields,
		failures: map[string]bool{"styling": true, "templates": true},
	}

	// Must not panic or abort.
	NewReconciler(schema).Ensure(context.Background(), spec)
}
