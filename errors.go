package quartermaster

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidValue      = errors.New("invalid enumeration value")
	ErrInvalidDate       = errors.New("invalid calendar date")
	ErrStorage           = errors.New("storage failure")
	ErrNotFound          = errors.New("item not found")
	ErrAlreadyPersisted  = errors.New("item already persisted")
	ErrInvalidMultiplier = errors.New("ration multiplier must be positive")
)

// UnknownValueError reports a condition, unit or record type that the
// store's lookup tables do not know.
type UnknownValueError struct {
	Kind  string
	Value string
}

func (e *UnknownValueError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Kind, e.Value)
}

func (e *UnknownValueError) Unwrap() error { return ErrInvalidValue }

// InvalidDateError carries the out-of-range date produced by shelf-life arithmetic.
type InvalidDateError struct {
	Year  int
	Month int
	Day   int
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("%04d-%02d-%02d is not a calendar date", e.Year, e.Month, e.Day)
}

func (e *InvalidDateError) Unwrap() error { return ErrInvalidDate }

// StorageError wraps a database or file failure with the store operation
// that hit it.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
