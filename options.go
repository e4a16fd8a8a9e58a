package blobstore

import (
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/input-output-hk/catalyst-forge-libs/fs"

	"github.com/blobworks/blobstore/blobtypes"
)

// WithRegion sets the region for storage operations.
// If not specified, uses the default region from the credential chain.
func WithRegion(region string) blobtypes.Option {
	return func(c *blobtypes.ClientConfig) {
		c.Region = region
	}
}

// WithEndpoint sets a custom endpoint URL.
// This is useful for S3-compatible services or local testing.
func WithEndpoint(endpoint string) blobtypes.Option {
	return func(c *blobtypes.ClientConfig) {
		c.Endpoint = endpoint
	}
}

// WithMaxRetries sets the maximum number of retry attempts for failed operations.
// Default is 3 retries. Set to 0 to disable retries.
func WithMaxRetries(maxRetries int) blobtypes.Option {
	return func(c *blobtypes.ClientConfig) {
		c.MaxRetries = maxRetries
	}
}

// WithTimeout sets the timeout for individual operations.
// Default is no timeout (0). Values should be positive durations.
func WithTimeout(timeout time.Duration) blobtypes.Option {
	return func(c *blobtypes.ClientConfig) {
		c.Timeout = timeout
	}
}

// WithConcurrency sets the maximum number of concurrent part transfers.
// Default is 5.
func WithConcurrency(concurrency int) blobtypes.Option {
	return func(c *blobtypes.ClientConfig) {
		if concurrency > 0 {
			c.Concurrency = concurrency
		}
	}
}

// WithMinPartSize sets the minimum part size for multipart uploads.
// Default is 8MB. The backend requires at least 5MB per part.
func WithMinPartSize(size int) blobtypes.Option {
	return func(c *blobtypes.ClientConfig) {
		if size > 0 {
			c.MinPartSize = size
		}
	}
}

// WithStaticCredentials sets a fixed access key pair, bypassing the default
// credential chain. Pass an empty session token for long-lived keys.
func WithStaticCredentials(accessKeyID, secretAccessKey, sessionToken string) blobtypes.Option {
	return func(c *blobtypes.ClientConfig) {
		c.StaticCredentials = &blobtypes.StaticCredentials{
			AccessKeyID:     accessKeyID,
			SecretAccessKey: secretAccessKey,
			SessionToken:    sessionToken,
		}
	}
}

// WithForcePathStyle forces path-style URLs instead of virtual-hosted style.
// This is required for S3-compatible services that don't support virtual hosting.
func WithForcePathStyle(forcePathStyle bool) blobtypes.Option {
	return func(c *blobtypes.ClientConfig) {
		c.ForcePathStyle = forcePathStyle
	}
}

// WithAWSConfig allows providing a custom AWS configuration.
// This overrides the default configuration loading behavior.
func WithAWSConfig(config *aws.Config) blobtypes.Option {
	return func(c *blobtypes.ClientConfig) {
		c.CustomAWSConfig = config
	}
}

// WithCustomHTTPClient sets a custom HTTP client for backend requests.
func WithCustomHTTPClient(client *http.Client) blobtypes.Option {
	return func(c *blobtypes.ClientConfig) {
		c.CustomHTTPClient = client
	}
}

// WithFilesystem sets the filesystem abstraction used for file uploads
// and downloads. Default is the OS filesystem.
func WithFilesystem(filesystem fs.Filesystem) blobtypes.Option {
	return func(c *blobtypes.ClientConfig) {
		c.Filesystem = filesystem
	}
}

// Upload options

// WithContentType sets the MIME type for the uploaded object.
// If not set, the content type is detected from the data.
func WithContentType(contentType string) blobtypes.UploadOption {
	return func(c *blobtypes.UploadOptionConfig) {
		c.ContentType = contentType
	}
}

// WithMetadata attaches user-defined metadata to the uploaded object.
func WithMetadata(metadata map[string]string) blobtypes.UploadOption {
	return func(c *blobtypes.UploadOptionConfig) {
		if c.Metadata == nil {
			c.Metadata = make(map[string]string, len(metadata))
		}
		for k, v := range metadata {
			c.Metadata[k] = v
		}
	}
}

// WithStorageClass sets the storage class for the uploaded object.
func WithStorageClass(storageClass blobtypes.StorageClass) blobtypes.UploadOption {
	return func(c *blobtypes.UploadOptionConfig) {
		c.StorageClass = storageClass
	}
}

// WithProgress sets a progress tracker for the upload.
func WithProgress(tracker blobtypes.ProgressTracker) blobtypes.UploadOption {
	return func(c *blobtypes.UploadOptionConfig) {
		c.ProgressTracker = tracker
	}
}

// WithUploadPartSize sets the minimum part size for this upload.
func WithUploadPartSize(size int) blobtypes.UploadOption {
	return func(c *blobtypes.UploadOptionConfig) {
		if size > 0 {
			c.MinPartSize = size
		}
	}
}

// WithUploadConcurrency sets the part upload concurrency for this upload.
func WithUploadConcurrency(concurrency int) blobtypes.UploadOption {
	return func(c *blobtypes.UploadOptionConfig) {
		if concurrency > 0 {
			c.Concurrency = concurrency
		}
	}
}

// Download options

// WithRange restricts the download to a byte range, e.g. "bytes=0-1023".
func WithRange(rangeSpec string) blobtypes.DownloadOption {
	return func(c *blobtypes.DownloadOptionConfig) {
		c.RangeSpec = rangeSpec
	}
}

// WithDownloadProgress sets a progress tracker for the download.
func WithDownloadProgress(tracker blobtypes.ProgressTracker) blobtypes.DownloadOption {
	return func(c *blobtypes.DownloadOptionConfig) {
		c.ProgressTracker = tracker
	}
}

// List options

// WithPrefix restricts the listing to keys beginning with the prefix.
func WithPrefix(prefix string) blobtypes.ListOption {
	return func(c *blobtypes.ListOptionConfig) {
		c.Prefix = prefix
	}
}

// WithDelimiter groups keys by the delimiter into common prefixes.
func WithDelimiter(delimiter string) blobtypes.ListOption {
	return func(c *blobtypes.ListOptionConfig) {
		c.Delimiter = delimiter
	}
}

// WithMaxKeys limits the number of keys returned per page.
// The backend caps this at 1000.
func WithMaxKeys(maxKeys int32) blobtypes.ListOption {
	return func(c *blobtypes.ListOptionConfig) {
		if maxKeys > 0 {
			c.MaxKeys = maxKeys
		}
	}
}

// WithStartAfter starts the listing after the given key.
func WithStartAfter(key string) blobtypes.ListOption {
	return func(c *blobtypes.ListOptionConfig) {
		c.StartAfter = key
	}
}
