// Package blobstore provides a high-level client for S3-compatible object
// storage. It wraps AWS SDK v2 to provide an intuitive interface for common
// object operations while keeping the backend swappable through a custom
// endpoint.
//
// The package emphasizes streaming: uploads of unknown size are carved into
// parts and sent concurrently, downloads flow through io.Writer, and full
// listings page transparently through a channel.
//
// Key features:
//   - Simple, zero-configuration usage with the AWS credential chain
//   - Progressive enhancement through functional options
//   - Streaming multipart uploads with bounded concurrency
//   - Explicit multipart sessions for caller-driven uploads
//   - Batch and parallel deletes with per-key failure reporting
//   - Locally computed presigned URLs, batched under one credential fetch
//
// Example usage:
//
//	client, err := blobstore.New(blobstore.WithRegion("us-west-2"))
//	if err != nil {
//	    return err
//	}
//
//	// Upload a file
//	result, err := client.UploadFile(ctx, "my-bucket", "path/file.txt", "/local/file.txt")
//	if err != nil {
//	    return err
//	}
package blobstore
