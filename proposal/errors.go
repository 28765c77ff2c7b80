package proposal

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMinimumItems is returned by RemoveLast when removing would leave the
// proposal without any row. The sequence is left unchanged.
var ErrMinimumItems = errors.New("a proposal keeps at least one item")

// Generation preconditions.
var (
	ErrClientRequired = errors.New("client name is required")
	ErrNoItems        = errors.New("at least one item is required")
)

// EditMismatchError is returned when an edit payload does not correspond
// one-to-one with the stored items.
type EditMismatchError struct {
	Want int // stored items
	Got  int // supplied edits
	ID   ID  // unknown or duplicated identity, if any
}

func (e *EditMismatchError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("edit references unknown or repeated item %s", e.ID)
	}
	return fmt.Sprintf("edit payload has %d rows, ledger has %d items", e.Got, e.Want)
}

// MissingColumnsError is returned when an import source lacks required
// columns. The whole import is rejected.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Columns, ", "))
}

// PreconditionError collects every reason a document cannot be generated.
type PreconditionError struct {
	Errors []error
}

func (e *PreconditionError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Unwrap returns the underlying errors for errors.Is.
func (e *PreconditionError) Unwrap() []error {
	return e.Errors
}

// CheckGenerate verifies that a snapshot can be turned into a document:
// the client name must be set and there must be at least one item.
func CheckGenerate(s Snapshot) error {
	var errs []error
	if strings.TrimSpace(s.Metadata.Client) == "" {
		errs = append(errs, ErrClientRequired)
	}
	if s.IsEmpty() {
		errs = append(errs, ErrNoItems)
	}
	if len(errs) > 0 {
		return &PreconditionError{Errors: errs}
	}
	return nil
}
