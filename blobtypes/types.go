// Package blobtypes provides shared type definitions for the blob store module.
package blobtypes

import (
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/input-output-hk/catalyst-forge-libs/fs"
)

// StorageClass represents the storage class for objects.
type StorageClass string

// Predefined storage classes
const (
	// StorageClassStandard is the default storage class
	StorageClassStandard StorageClass = "STANDARD"

	// StorageClassStandardIA provides infrequent access storage
	StorageClassStandardIA StorageClass = "STANDARD_IA"

	// StorageClassOneZoneIA provides one zone infrequent access storage
	StorageClassOneZoneIA StorageClass = "ONEZONE_IA"

	// StorageClassIntelligentTiering provides intelligent tiering storage
	StorageClassIntelligentTiering StorageClass = "INTELLIGENT_TIERING"

	// StorageClassGlacier provides archival storage
	StorageClassGlacier StorageClass = "GLACIER"
)

// MultipartID identifies an in-progress multipart upload session.
// Backends without a session concept use an empty string sentinel; in that
// case uniqueness is implied by the object key alone and concurrent sessions
// on the same key race at completion time, last completion wins.
type MultipartID string

// PartID is the backend-issued token standing in for an uploaded part
// during completion. It is bound to the (object, index) pair at upload time
// and must be retained in index order; reusing a PartID across objects is
// invalid.
type PartID struct {
	// Index is the zero-based, order-significant part ordinal
	Index int

	// ETag is the opaque backend token for the uploaded part
	ETag string

	// Size is the uploaded part size in bytes
	Size int64
}

// SignedURL is a time-limited authorized URL for direct access to one object.
// The URL is valid strictly until Expiry; the signature is never recomputed
// or extended after issuance.
type SignedURL struct {
	// URL is the fully signed request URL
	URL string

	// Method is the HTTP method the signature authorizes
	Method string

	// Expiry is the absolute instant at which the authorization lapses
	Expiry time.Time
}

// Object represents a stored object with its basic metadata.
type Object struct {
	// Key is the object key (path)
	Key string

	// Size is the object size in bytes
	Size int64

	// LastModified is when the object was last modified
	LastModified time.Time

	// ETag is the entity tag for the object
	ETag string

	// StorageClass is the storage class
	StorageClass string
}

// ObjectMetadata contains detailed metadata about a stored object.
type ObjectMetadata struct {
	// ContentType is the MIME type of the object
	ContentType string

	// ContentLength is the size of the object in bytes
	ContentLength int64

	// LastModified is when the object was last modified
	LastModified time.Time

	// ETag is the entity tag for the object
	ETag string

	// Metadata contains user-defined metadata
	Metadata map[string]string
}

// ProgressTracker defines the interface for tracking transfer progress.
// Implementations can provide real-time progress updates during uploads and downloads.
type ProgressTracker interface {
	// Update is called periodically with transfer progress
	Update(bytesTransferred, totalBytes int64)

	// Complete is called when the transfer completes successfully
	Complete()

	// Error is called when the transfer fails
	Error(err error)
}

// UploadConfig holds configuration for upload operations.
type UploadConfig struct {
	ContentType     string
	Metadata        map[string]string
	StorageClass    StorageClass
	ProgressTracker ProgressTracker
	MinPartSize     int
	Concurrency     int
}

// UploadResult contains the result of an upload operation.
type UploadResult struct {
	// Key is the object key that was uploaded
	Key string

	// Size is the size of the uploaded object in bytes
	Size int64

	// ETag is the entity tag for the uploaded object
	ETag string

	// VersionID is the version ID if versioning is enabled
	VersionID string

	// Duration is how long the upload took
	Duration time.Duration
}

// DownloadConfig holds configuration for download operations.
type DownloadConfig struct {
	ProgressTracker ProgressTracker
	RangeSpec       string
}

// DownloadResult contains the result of a download operation.
type DownloadResult struct {
	// Key is the object key that was downloaded
	Key string

	// Size is the size of the downloaded object in bytes
	Size int64

	// ETag is the entity tag for the downloaded object
	ETag string

	// VersionID is the version ID if versioning is enabled
	VersionID string

	// Duration is how long the download took
	Duration time.Duration
}

// DeleteResult contains the result of a batch delete operation.
type DeleteResult struct {
	// Deleted contains successfully deleted objects
	Deleted []Object

	// Errors contains any errors that occurred during deletion
	Errors []DeleteError

	// Duration is how long the operation took
	Duration time.Duration
}

// DeleteError represents an error that occurred during a delete operation.
type DeleteError struct {
	// Key is the object key that failed to delete
	Key string

	// Code is the error code
	Code string

	// Message is the error message
	Message string
}

// ListResult contains the result of a list operation.
type ListResult struct {
	// Objects contains the listed objects
	Objects []Object

	// CommonPrefixes contains the grouped key prefixes when listing with a
	// delimiter (the "directories" of the listing)
	CommonPrefixes []string

	// IsTruncated indicates if the results were truncated
	IsTruncated bool

	// NextContinuationToken is the token for the next page of results
	NextContinuationToken string

	// Duration is how long the operation took
	Duration time.Duration
}

// Configuration types for functional options

// ClientConfig holds configuration for the blob store client.
type ClientConfig struct {
	Region           string
	Endpoint         string
	MaxRetries       int
	Timeout          time.Duration
	Concurrency      int
	MinPartSize      int
	ForcePathStyle   bool
	CustomAWSConfig  *aws.Config
	CustomHTTPClient *http.Client
	Filesystem       fs.Filesystem // Filesystem abstraction for file operations

	// StaticCredentials bypasses the default credential chain when set.
	StaticCredentials *StaticCredentials
}

// StaticCredentials holds a fixed access key pair.
type StaticCredentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// UploadOptionConfig holds configuration for upload operations via functional options.
type UploadOptionConfig struct {
	ContentType     string
	Metadata        map[string]string
	StorageClass    StorageClass
	ProgressTracker ProgressTracker
	MinPartSize     int
	Concurrency     int
}

// DownloadOptionConfig holds configuration for download operations via functional options.
type DownloadOptionConfig struct {
	ProgressTracker ProgressTracker
	RangeSpec       string // renamed from "range" to avoid Go keyword conflict
}

// ListOptionConfig holds configuration for list operations via functional options.
type ListOptionConfig struct {
	Prefix     string
	Delimiter  string
	MaxKeys    int32
	StartAfter string
}

// Option is a functional option for configuring the blob store client.
type (
	Option func(*ClientConfig)
	// UploadOption is a functional option for configuring upload operations.
	UploadOption func(*UploadOptionConfig)
	// DownloadOption is a functional option for configuring download operations.
	DownloadOption func(*DownloadOptionConfig)
	// ListOption is a functional option for configuring list operations.
	ListOption func(*ListOptionConfig)
)
