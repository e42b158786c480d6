package domain

import (
	"errors"
	"fmt"
)

// codeError is a sentinel error carrying a stable code for log summaries.
type codeError struct {
	code string
	msg  string
}

func (e *codeError) Error() string { return e.msg }

// Code returns the stable error code used by handler summary logging.
func (e *codeError) Code() string { return e.code }

var (
	// ErrDuplicateKey reports a commit that would violate a natural key
	// (object address, per-chat filter name).
	ErrDuplicateKey error = &codeError{code: "DUPLICATE_KEY", msg: "record already exists"}

	// ErrNotFound reports a referenced record that no longer exists, e.g.
	// an object picked from a menu snapshot that was removed before commit.
	ErrNotFound error = &codeError{code: "NOT_FOUND", msg: "record not found"}
)

// StorageError wraps an I/O or driver failure from a repository
// implementation. It is recoverable at the session level: the draft is
// preserved and the confirm action may be retried.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

// Code identifies storage failures in log summaries.
func (e *StorageError) Code() string { return "STORAGE" }

func (e *StorageError) Unwrap() error { return e.Err }

// WrapStorage wraps err as a StorageError unless it already belongs to
// the taxonomy (duplicate, not-found, or another storage error).
func WrapStorage(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrDuplicateKey) || errors.Is(err, ErrNotFound) {
		return err
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// IsStorage reports whether err is (or wraps) a StorageError.
func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
