package export

import "errors"

// ErrNoFieldsAvailable indicates mapping resolution found a note type with an
// empty field list. This is a precondition violation: no records can be
// exported into a schema with zero fields, so the export aborts before any
// submission begins.
var ErrNoFieldsAvailable = errors.New("note type has no fields to map content into")
