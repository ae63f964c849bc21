package anki

import (
	"errors"
	"fmt"
)

// ErrUnreachable indicates the AnkiConnect endpoint could not be reached
var ErrUnreachable = errors.New("could not connect to Anki; is Anki running with the AnkiConnect add-on?")

// APIError represents an error returned inside an AnkiConnect response body
type APIError struct {
	Action  string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("AnkiConnect %s failed: %s", e.Action, e.Message)
}
