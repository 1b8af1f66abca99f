package artifact

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no artifact version matches a reference.
	ErrNotFound = errors.New("artifact not found")

	// ErrInvalidReference is returned when a reference or artifact name is malformed.
	ErrInvalidReference = errors.New("invalid artifact reference")

	// ErrMissingType is returned when publishing without an artifact type.
	ErrMissingType = errors.New("artifact type is required")

	// ErrTypeMismatch is returned when publishing under a name already bound to another type.
	ErrTypeMismatch = errors.New("artifact type mismatch")

	// ErrDigestMismatch is returned when stored content does not hash to its recorded digest.
	ErrDigestMismatch = errors.New("artifact digest mismatch")

	// ErrMissingBucket is returned when an S3 store is opened without a bucket.
	ErrMissingBucket = errors.New("s3 bucket is required")
)

// ResolutionError is returned by Resolve when a reference cannot be located
// or materialized. Err holds the underlying cause.
type ResolutionError struct {
	// Ref is the reference as given by the caller.
	Ref string

	// Err is the underlying error.
	Err error
}

// Error implements error.
func (e *ResolutionError) Error() string {
	return fmt.Sprintf("failed to resolve artifact %q: %v", e.Ref, e.Err)
}

// Unwrap returns the underlying error.
func (e *ResolutionError) Unwrap() error {
	return e.Err
}
