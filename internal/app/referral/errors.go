package referral

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrPackageNotFound = errors.New("package not found")
	ErrUserNotFound    = errors.New("user not found")
)

// ValidationError rejects a distribution request before any ledger write.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failure: " + e.Reason
}

func invalid(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// StorageError means the distribution transaction could not commit and was rolled
// back as a whole. Retrying is safe.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func IsValidation(err error) bool {
	_, ok := errors.Cause(err).(*ValidationError)
	return ok
}

func IsStorage(err error) bool {
	_, ok := errors.Cause(err).(*StorageError)
	return ok
}
