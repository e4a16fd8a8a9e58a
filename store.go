package blobstore

import (
	"context"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"

	"github.com/blobworks/blobstore/blobtypes"
	"github.com/blobworks/blobstore/errors"
	"github.com/blobworks/blobstore/internal/backendapi"
	"github.com/blobworks/blobstore/internal/operations/list"
	"github.com/blobworks/blobstore/internal/validation"
)

const (
	// DefaultContentType is used when content type detection fails
	DefaultContentType = "application/octet-stream"

	// deleteParallelism bounds concurrent delete batches in DeleteMany
	deleteParallelism = 3
)

// Upload uploads data from an io.Reader.
// Large streams automatically switch to a concurrent multipart upload; the
// content is never buffered whole in memory.
//
// Errors:
//   - ErrInvalidInput: If bucket or key is invalid, or reader is nil
//   - ErrAccessDenied: If the credentials lack permission to upload
//   - Network errors or SDK errors wrapped in Error type
func (c *Client) Upload(
	ctx context.Context,
	bucket, key string,
	reader io.Reader,
	opts ...blobtypes.UploadOption,
) (*blobtypes.UploadResult, error) {
	if err := c.validatePath("upload", bucket, key); err != nil {
		return nil, err
	}
	if reader == nil {
		return nil, errors.NewObjectError("upload", bucket, key, errors.ErrInvalidInput).
			WithMessage("reader cannot be nil")
	}

	config := c.uploadConfig(key, opts)
	startTime := time.Now()

	result, err := c.uploader.Upload(ctx, bucket, key, reader, config, startTime)
	if err != nil {
		return nil, errors.NewError("upload", err).WithBucket(bucket).WithKey(key)
	}
	return result, nil
}

// UploadFile uploads a file from the client's filesystem.
// The content type is sniffed from the file when not set explicitly.
func (c *Client) UploadFile(
	ctx context.Context,
	bucket, key, path string,
	opts ...blobtypes.UploadOption,
) (*blobtypes.UploadResult, error) {
	if err := c.validatePath("uploadFile", bucket, key); err != nil {
		return nil, err
	}

	fsys := c.filesystem()
	info, err := fsys.Stat(path)
	if err != nil {
		return nil, errors.NewObjectError("uploadFile", bucket, key, err).
			WithMessage("cannot stat " + path)
	}
	file, err := fsys.Open(path)
	if err != nil {
		return nil, errors.NewObjectError("uploadFile", bucket, key, err).
			WithMessage("cannot open " + path)
	}
	defer file.Close()

	config := c.uploadConfig(path, opts)
	startTime := time.Now()

	result, err := c.uploader.UploadFile(ctx, bucket, key, file, info.Size(), config, startTime)
	if err != nil {
		return nil, errors.NewError("uploadFile", err).WithBucket(bucket).WithKey(key)
	}
	return result, nil
}

// Put uploads a byte slice as a single request.
// This is a convenience method for small objects; use Upload for streaming.
func (c *Client) Put(ctx context.Context, bucket, key string, data []byte, opts ...blobtypes.UploadOption) error {
	if err := c.validatePath("put", bucket, key); err != nil {
		return err
	}

	config := c.uploadConfig(key, opts)
	if config.ContentType == DefaultContentType && len(data) > 0 {
		if mt := mimetype.Detect(data); mt != nil {
			config.ContentType = mt.String()
		}
	}

	if _, err := c.uploader.UploadSimple(ctx, bucket, key, data, config, time.Now()); err != nil {
		return errors.NewError("put", err).WithBucket(bucket).WithKey(key)
	}
	return nil
}

// Download fetches an object and writes it to an io.Writer.
// It provides stream-based downloading with memory-efficient handling of
// large objects. Progress tracking and range requests can be configured via
// DownloadOption parameters.
//
// Errors:
//   - ErrInvalidInput: If bucket or key is invalid, or writer is nil
//   - ErrObjectNotFound: If the specified object doesn't exist
//   - ErrAccessDenied: If the credentials lack permission to download
func (c *Client) Download(
	ctx context.Context,
	bucket, key string,
	writer io.Writer,
	opts ...blobtypes.DownloadOption,
) (*blobtypes.DownloadResult, error) {
	if err := c.validatePath("download", bucket, key); err != nil {
		return nil, err
	}
	if writer == nil {
		return nil, errors.NewObjectError("download", bucket, key, errors.ErrInvalidInput).
			WithMessage("writer cannot be nil")
	}

	config := downloadConfig(opts)
	return c.downloader.Download(ctx, bucket, key, writer, config, time.Now())
}

// DownloadFile fetches an object into a file on the client's filesystem.
// The file is created if missing and truncated otherwise.
func (c *Client) DownloadFile(
	ctx context.Context,
	bucket, key, path string,
	opts ...blobtypes.DownloadOption,
) (*blobtypes.DownloadResult, error) {
	if err := c.validatePath("downloadFile", bucket, key); err != nil {
		return nil, err
	}

	config := downloadConfig(opts)
	return c.downloader.DownloadFile(ctx, bucket, key, path, c.filesystem(), config, time.Now())
}

// Get fetches an entire object and returns it as a byte slice.
// This is a convenience method for small objects that fit in memory.
func (c *Client) Get(ctx context.Context, bucket, key string, opts ...blobtypes.DownloadOption) ([]byte, error) {
	if err := c.validatePath("get", bucket, key); err != nil {
		return nil, err
	}

	config := downloadConfig(opts)
	return c.downloader.Get(ctx, bucket, key, config, time.Now())
}

// GetMetadata retrieves metadata for an object without downloading the
// content. Uses a HEAD request to retrieve content type, size, last
// modified time, ETag, and any user metadata.
func (c *Client) GetMetadata(ctx context.Context, bucket, key string) (*blobtypes.ObjectMetadata, error) {
	if err := c.validatePath("getMetadata", bucket, key); err != nil {
		return nil, err
	}

	input := &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}

	result, err := c.api.HeadObject(ctx, input)
	if err != nil {
		return nil, errors.NewError("getMetadata", backendapi.TranslateError(err)).
			WithBucket(bucket).
			WithKey(key)
	}

	metadata := &blobtypes.ObjectMetadata{
		ContentType:   aws.ToString(result.ContentType),
		ContentLength: aws.ToInt64(result.ContentLength),
		LastModified:  aws.ToTime(result.LastModified),
		ETag:          aws.ToString(result.ETag),
	}

	if len(result.Metadata) > 0 {
		metadata.Metadata = make(map[string]string, len(result.Metadata))
		for k, v := range result.Metadata {
			metadata.Metadata[k] = v
		}
	}

	return metadata, nil
}

// Exists reports whether an object exists.
// A missing object is not an error; only transport or permission failures
// return one.
func (c *Client) Exists(ctx context.Context, bucket, key string) (bool, error) {
	if err := c.validatePath("exists", bucket, key); err != nil {
		return false, err
	}

	input := &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}

	if _, err := c.api.HeadObject(ctx, input); err != nil {
		translated := backendapi.TranslateError(err)
		if errors.IsObjectNotFound(translated) {
			return false, nil
		}
		return false, errors.NewError("exists", translated).WithBucket(bucket).WithKey(key)
	}

	return true, nil
}

// Delete deletes a single object.
// This operation is idempotent; deleting a non-existent object does not
// return an error.
func (c *Client) Delete(ctx context.Context, bucket, key string) error {
	if err := c.validatePath("delete", bucket, key); err != nil {
		return err
	}

	input := &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}

	if _, err := c.api.DeleteObject(ctx, input); err != nil {
		return errors.NewError("delete", backendapi.TranslateError(err)).WithBucket(bucket).WithKey(key)
	}
	return nil
}

// DeleteMany deletes multiple objects in batches.
// Per-key failures are reported in the result rather than as an error, so a
// partial failure still deletes everything it can.
func (c *Client) DeleteMany(ctx context.Context, bucket string, keys []string) (*blobtypes.DeleteResult, error) {
	if err := validation.ValidateBucketName(bucket); err != nil {
		return nil, err
	}
	for _, key := range keys {
		if err := validation.ValidateObjectKey(key); err != nil {
			return nil, err
		}
	}

	startTime := time.Now()

	result, err := c.deleter.DeleteParallel(ctx, bucket, keys, deleteParallelism)
	if err != nil {
		return nil, errors.NewError("deleteMany", err).WithBucket(bucket)
	}

	result.Duration = time.Since(startTime)
	return result, nil
}

// List lists objects under a prefix, one page at a time.
// Use WithDelimiter to group keys into common prefixes and WithMaxKeys to
// bound the page size. Pagination state travels in NextContinuationToken.
func (c *Client) List(
	ctx context.Context,
	bucket, prefix string,
	opts ...blobtypes.ListOption,
) (*blobtypes.ListResult, error) {
	if err := validation.ValidateBucketName(bucket); err != nil {
		return nil, err
	}

	config := &blobtypes.ListOptionConfig{Prefix: prefix}
	for _, opt := range opts {
		opt(config)
	}

	startTime := time.Now()

	result, err := c.lister.List(ctx, &list.Config{
		Bucket:     bucket,
		Prefix:     config.Prefix,
		Delimiter:  config.Delimiter,
		MaxKeys:    config.MaxKeys,
		StartAfter: config.StartAfter,
	})
	if err != nil {
		return nil, errors.NewError("list", err).WithBucket(bucket)
	}

	result.Duration = time.Since(startTime)
	return result, nil
}

// ListWithDelimiter lists one hierarchy level: objects directly under the
// prefix plus the common prefixes below it.
func (c *Client) ListWithDelimiter(
	ctx context.Context,
	bucket, prefix, delimiter string,
	opts ...blobtypes.ListOption,
) (*blobtypes.ListResult, error) {
	return c.List(ctx, bucket, prefix, append(opts, WithDelimiter(delimiter))...)
}

// ObjectResult wraps a streamed object or the error that ended the stream.
type ObjectResult struct {
	Object blobtypes.Object
	Err    error
}

// ListAll streams every object under the prefix through a channel,
// paginating transparently. The channel closes when the listing is
// exhausted, an error has been delivered, or the context ends.
func (c *Client) ListAll(ctx context.Context, bucket, prefix string) <-chan ObjectResult {
	out := make(chan ObjectResult, 100)

	go func() {
		defer close(out)

		if err := validation.ValidateBucketName(bucket); err != nil {
			out <- ObjectResult{Err: err}
			return
		}

		for result := range c.lister.ListAll(ctx, &list.Config{Bucket: bucket, Prefix: prefix}) {
			select {
			case out <- ObjectResult{Object: result.Object, Err: result.Err}:
			case <-ctx.Done():
				return
			}
			if result.Err != nil {
				return
			}
		}
	}()

	return out
}

// Copy copies an object server-side, overwriting any existing destination.
// No data moves through the client.
func (c *Client) Copy(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) error {
	if err := c.validatePath("copy", srcBucket, srcKey); err != nil {
		return err
	}
	if err := c.validatePath("copy", dstBucket, dstKey); err != nil {
		return err
	}

	return c.copier.Copy(ctx, srcBucket, srcKey, dstBucket, dstKey, nil)
}

// CopyIfNotExists copies an object server-side only when the destination
// does not already exist. The check is enforced atomically by the backend;
// a lost race returns ErrPreconditionFailed.
func (c *Client) CopyIfNotExists(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) error {
	if err := c.validatePath("copyIfNotExists", srcBucket, srcKey); err != nil {
		return err
	}
	if err := c.validatePath("copyIfNotExists", dstBucket, dstKey); err != nil {
		return err
	}

	return c.copier.CopyIfNotExists(ctx, srcBucket, srcKey, dstBucket, dstKey, nil)
}

// Move copies an object to the destination and deletes the source.
// The copy and delete are not atomic; if the delete fails the source is
// left in place and the destination exists.
func (c *Client) Move(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) error {
	if err := c.Copy(ctx, srcBucket, srcKey, dstBucket, dstKey); err != nil {
		return errors.NewError("move", err).WithBucket(srcBucket).WithKey(srcKey)
	}

	if err := c.Delete(ctx, srcBucket, srcKey); err != nil {
		return errors.NewError("move", err).
			WithBucket(srcBucket).
			WithKey(srcKey).
			WithMessage("copied to destination but failed to delete source")
	}

	return nil
}

// validatePath validates a bucket and key pair for an operation.
func (c *Client) validatePath(op, bucket, key string) error {
	if err := validation.ValidateBucketName(bucket); err != nil {
		return errors.NewObjectError(op, bucket, key, err)
	}
	if err := validation.ValidateObjectKey(key); err != nil {
		return errors.NewObjectError(op, bucket, key, err)
	}
	return nil
}

// uploadConfig resolves upload options onto client defaults.
func (c *Client) uploadConfig(path string, opts []blobtypes.UploadOption) *blobtypes.UploadConfig {
	config := &blobtypes.UploadOptionConfig{
		ContentType:  DefaultContentType,
		StorageClass: blobtypes.StorageClassStandard,
		Metadata:     make(map[string]string),
		MinPartSize:  c.clientCfg.MinPartSize,
		Concurrency:  c.clientCfg.Concurrency,
	}
	for _, opt := range opts {
		opt(config)
	}

	if config.ContentType == DefaultContentType {
		config.ContentType = c.detectContentType(path)
	}

	return &blobtypes.UploadConfig{
		ContentType:     config.ContentType,
		Metadata:        config.Metadata,
		StorageClass:    config.StorageClass,
		ProgressTracker: config.ProgressTracker,
		MinPartSize:     config.MinPartSize,
		Concurrency:     config.Concurrency,
	}
}

func downloadConfig(opts []blobtypes.DownloadOption) *blobtypes.DownloadConfig {
	config := &blobtypes.DownloadOptionConfig{}
	for _, opt := range opts {
		opt(config)
	}
	return &blobtypes.DownloadConfig{
		ProgressTracker: config.ProgressTracker,
		RangeSpec:       config.RangeSpec,
	}
}

// detectContentType determines a content type for the given path.
// If the path names a readable local file its content is sniffed, otherwise
// detection falls back to the extension.
func (c *Client) detectContentType(path string) string {
	fsys := c.filesystem()

	info, err := fsys.Stat(path)
	if err != nil || info.IsDir() {
		return c.detectContentTypeFromExtension(path)
	}

	file, err := fsys.Open(path)
	if err != nil {
		return c.detectContentTypeFromExtension(path)
	}
	defer file.Close()

	buf := make([]byte, 512)
	n, _ := file.Read(buf)
	if n > 0 {
		if mt := mimetype.Detect(buf[:n]); mt != nil {
			return mt.String()
		}
	}

	return c.detectContentTypeFromExtension(path)
}

// detectContentTypeFromExtension maps a file extension to a MIME type.
func (c *Client) detectContentTypeFromExtension(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return DefaultContentType
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return DefaultContentType
}
