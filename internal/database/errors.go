package database

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidProperty is returned when a property token is not registered
	// for the entity being queried. No statement is executed in that case.
	ErrInvalidProperty = errors.New("invalid property")
	// ErrDuplicate matches storage errors caused by a unique constraint.
	ErrDuplicate = errors.New("duplicate value")
)

// StorageError wraps a failure reported by the database driver.
type StorageError struct {
	Op        string
	Table     string
	Err       error
	duplicate bool
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Table, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == ErrDuplicate && e.duplicate
}

func invalidProperty(e Entity, p *Property) error {
	return fmt.Errorf("%w: %s is not a property of %s", ErrInvalidProperty, p, e)
}
