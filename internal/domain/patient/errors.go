package patient

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a record with the requested id does not exist.
var ErrNotFound = errors.New("patient not found")

// FieldError reports a field of a source record that could not be decoded
// into the expected type.
type FieldError struct {
	Index    int
	RecordID string
	Field    string
	Err      error
}

func (e *FieldError) Error() string {
	id := e.RecordID
	if id == "" {
		id = fmt.Sprintf("#%d", e.Index)
	}
	return fmt.Sprintf("record %s: field %q: %v", id, e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }
