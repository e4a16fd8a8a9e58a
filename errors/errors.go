// Package errors provides error types and handling for blob store operations.
package errors

import (
	"errors"
	"fmt"
)

// Error represents a blob store operation error with context about the
// operation that failed. It wraps the underlying backend error with
// additional context for better debugging.
type Error struct {
	// Op is the operation that failed (e.g., "upload", "signURL", "completeMultipart")
	Op string

	// Bucket is the bucket name (if applicable)
	Bucket string

	// Key is the object key (if applicable)
	Key string

	// Err is the underlying error from the backend SDK or other source
	Err error
}

// Error implements the error interface by providing a formatted error message.
func (e *Error) Error() string {
	if e.Bucket != "" && e.Key != "" {
		return fmt.Sprintf("blobstore.%s %s/%s: %v", e.Op, e.Bucket, e.Key, e.Err)
	}
	if e.Bucket != "" {
		return fmt.Sprintf("blobstore.%s bucket %s: %v", e.Op, e.Bucket, e.Err)
	}
	if e.Key != "" {
		return fmt.Sprintf("blobstore.%s object %s: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("blobstore.%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error chaining support.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithBucket adds bucket context to an existing error.
func (e *Error) WithBucket(bucket string) *Error {
	e.Bucket = bucket
	return e
}

// WithKey adds object key context to an existing error.
func (e *Error) WithKey(key string) *Error {
	e.Key = key
	return e
}

// WithMessage wraps the underlying error with a custom message.
func (e *Error) WithMessage(message string) *Error {
	e.Err = fmt.Errorf("%s: %w", message, e.Err)
	return e
}

// NewError creates a new Error with the given operation and underlying error.
func NewError(op string, err error) *Error {
	return &Error{
		Op:  op,
		Err: err,
	}
}

// NewObjectError creates a new Error with bucket and key context.
func NewObjectError(op, bucket, key string, err error) *Error {
	return &Error{
		Op:     op,
		Bucket: bucket,
		Key:    key,
		Err:    err,
	}
}

// Sentinel errors for common blob store operation failures.
// These can be used with errors.Is() for error checking.
var (
	// ErrTransport indicates a network or backend failure on an individual
	// request. The multipart engine surfaces these without retrying;
	// retry policy belongs to the transport layer.
	ErrTransport = errors.New("blobstore: transport error")

	// ErrInvalidInput indicates that the provided input is invalid
	ErrInvalidInput = errors.New("blobstore: invalid input")

	// ErrCredential indicates a signing credential could not be obtained
	ErrCredential = errors.New("blobstore: credential unavailable")

	// ErrSigning indicates signature computation failed
	ErrSigning = errors.New("blobstore: signing failed")

	// ErrObjectNotFound indicates that the requested object does not exist
	ErrObjectNotFound = errors.New("blobstore: object not found")

	// ErrBucketNotFound indicates that the requested bucket does not exist
	ErrBucketNotFound = errors.New("blobstore: bucket not found")

	// ErrAccessDenied indicates that access to the resource is denied
	ErrAccessDenied = errors.New("blobstore: access denied")

	// ErrPreconditionFailed indicates a conditional request was rejected
	// because the destination already exists
	ErrPreconditionFailed = errors.New("blobstore: precondition failed")

	// ErrInvalidBucketName indicates that the bucket name is invalid.
	// It matches ErrInvalidInput under errors.Is.
	ErrInvalidBucketName = fmt.Errorf("%w: invalid bucket name", ErrInvalidInput)

	// ErrInvalidObjectKey indicates that the object key is invalid.
	// It matches ErrInvalidInput under errors.Is.
	ErrInvalidObjectKey = fmt.Errorf("%w: invalid object key", ErrInvalidInput)

	// ErrInvalidRange indicates that the requested byte range is invalid.
	// It matches ErrInvalidInput under errors.Is.
	ErrInvalidRange = fmt.Errorf("%w: invalid range", ErrInvalidInput)

	// ErrUploadAborted indicates the multipart upload was abandoned before
	// completion; uploaded parts are reclaimed by the backend, not the client
	ErrUploadAborted = errors.New("blobstore: upload aborted")
)

// IsObjectNotFound checks if an error indicates that an object was not found.
// This is a convenience function that handles both sentinel errors and wrapped errors.
func IsObjectNotFound(err error) bool {
	return errors.Is(err, ErrObjectNotFound)
}

// IsAccessDenied checks if an error indicates access was denied.
func IsAccessDenied(err error) bool {
	return errors.Is(err, ErrAccessDenied)
}

// IsInvalidInput checks if an error indicates invalid input.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsPreconditionFailed checks if an error indicates a failed conditional write,
// typically a CopyIfNotExists against an existing destination.
func IsPreconditionFailed(err error) bool {
	return errors.Is(err, ErrPreconditionFailed)
}

// IsCredential checks if an error indicates a credential acquisition failure.
func IsCredential(err error) bool {
	return errors.Is(err, ErrCredential)
}
