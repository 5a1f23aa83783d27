package labentry

import "errors"

// ErrStudentNotFound is returned when an admission number is not on the roster.
var ErrStudentNotFound = errors.New("labentry: student not found")

// ValidationError reports missing or malformed caller input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// StorageError wraps an unexpected failure of the backing store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	if e == nil {
		return ""
	}
	return "labentry: " + e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
