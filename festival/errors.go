package festival

import (
	"errors"
	"fmt"
)

// ErrNotFound is the sentinel under every NotFoundError.
var ErrNotFound = errors.New("not found")

// NotFoundError identifies the missing entity by kind and id instead of
// interpolated prose.
type NotFoundError struct {
	Kind string // "festival", "family", ...
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Kind, e.ID, ErrNotFound)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// IsNotFound returns true if the error indicates a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
