package errs

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation is returned when a request carries a value outside the allowed set.
	// Nothing is written when it is returned.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a referenced order or menu item does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a concurrent writer changed the row first
	// or holds the lease on it.
	ErrConflict = errors.New("concurrent modification")

	// ErrTransientStore is returned when the store could not be reached.
	ErrTransientStore = errors.New("transient store failure")
)

// Validationf builds an error wrapping ErrValidation.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// PartialApplicationError reports a multi-step operation that stopped partway.
// Committed steps stand; Failed steps were not applied.
type PartialApplicationError struct {
	Operation string
	Committed []string
	Failed    []string
	Err       error
}

func (e *PartialApplicationError) Error() string {
	return fmt.Sprintf(
		"%s partially applied: committed [%s], failed [%s]: %v",
		e.Operation,
		strings.Join(e.Committed, ", "),
		strings.Join(e.Failed, ", "),
		e.Err,
	)
}

func (e *PartialApplicationError) Unwrap() error {
	return e.Err
}

// AsPartial extracts a *PartialApplicationError from err.
func AsPartial(err error) (*PartialApplicationError, bool) {
	var partial *PartialApplicationError
	if errors.As(err, &partial) {
		return partial, true
	}

	return nil, false
}
