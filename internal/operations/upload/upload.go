// Package upload handles object upload operations.
// This includes simple uploads, streaming multipart uploads through the
// transfer engine, and the explicit multipart session primitives
// (create, upload part, complete, abort).
package upload

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awstypes "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/blobworks/blobstore/blobtypes"
	"github.com/blobworks/blobstore/errors"
	"github.com/blobworks/blobstore/internal/backendapi"
	"github.com/blobworks/blobstore/internal/transfer/multipart"
)

// MultipartThreshold is the size at which Upload switches from a single
// PutObject to a streaming multipart upload (100MB).
const MultipartThreshold = 100 * 1024 * 1024

// Uploader handles upload operations with automatic multipart detection.
type Uploader struct {
	client backendapi.API
}

// New creates a new Uploader instance.
func New(client backendapi.API) *Uploader {
	return &Uploader{
		client: client,
	}
}

// Upload uploads data from an io.Reader.
// It automatically switches to a streaming multipart upload once the data
// exceeds MultipartThreshold.
func (u *Uploader) Upload(
	ctx context.Context,
	bucket, key string,
	reader io.Reader,
	config *blobtypes.UploadConfig,
	startTime time.Time,
) (*blobtypes.UploadResult, error) {
	// Buffer up to the threshold. Anything larger streams through the
	// multipart engine without being held in memory whole.
	head := make([]byte, 0, 64*1024)
	buf := bytes.NewBuffer(head)
	n, err := io.CopyN(buf, reader, MultipartThreshold)
	if err != nil && err != io.EOF {
		return nil, errors.NewError("upload", err).WithBucket(bucket).WithKey(key)
	}

	if n < MultipartThreshold {
		return u.uploadSimple(ctx, bucket, key, buf.Bytes(), config, startTime)
	}

	return u.uploadStream(ctx, bucket, key, io.MultiReader(buf, reader), config, startTime)
}

// UploadFile uploads content of a known size.
// It switches to a streaming multipart upload at MultipartThreshold.
func (u *Uploader) UploadFile(
	ctx context.Context,
	bucket, key string,
	reader io.Reader,
	size int64,
	config *blobtypes.UploadConfig,
	startTime time.Time,
) (*blobtypes.UploadResult, error) {
	if size >= MultipartThreshold {
		return u.uploadStream(ctx, bucket, key, reader, config, startTime)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.NewError("uploadFile", err).WithBucket(bucket).WithKey(key)
	}

	return u.uploadSimple(ctx, bucket, key, data, config, startTime)
}

// UploadSimple performs a single PutObject upload regardless of size.
func (u *Uploader) UploadSimple(
	ctx context.Context,
	bucket, key string,
	data []byte,
	config *blobtypes.UploadConfig,
	startTime time.Time,
) (*blobtypes.UploadResult, error) {
	return u.uploadSimple(ctx, bucket, key, data, config, startTime)
}

// uploadSimple performs a single PutObject upload.
func (u *Uploader) uploadSimple(
	ctx context.Context,
	bucket, key string,
	data []byte,
	config *blobtypes.UploadConfig,
	startTime time.Time,
) (*blobtypes.UploadResult, error) {
	size := int64(len(data))

	input := &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(size),
	}

	if config.ContentType != "" {
		input.ContentType = aws.String(config.ContentType)
	}
	if config.StorageClass != "" {
		input.StorageClass = awstypes.StorageClass(config.StorageClass)
	}
	if len(config.Metadata) > 0 {
		input.Metadata = config.Metadata
	}

	output, err := u.client.PutObject(ctx, input)
	if err != nil {
		return nil, errors.NewError("uploadSimple", err).WithBucket(bucket).WithKey(key)
	}

	result := &blobtypes.UploadResult{
		Key:       key,
		Size:      size,
		ETag:      aws.ToString(output.ETag),
		VersionID: aws.ToString(output.VersionId),
		Duration:  time.Since(startTime),
	}

	if config.ProgressTracker != nil {
		config.ProgressTracker.Update(size, size)
		config.ProgressTracker.Complete()
	}

	return result, nil
}

// uploadStream performs a streaming multipart upload for large content.
// On failure the upload session is left to the bucket's lifecycle policy
// to expire; no abort is issued.
func (u *Uploader) uploadStream(
	ctx context.Context,
	bucket, key string,
	reader io.Reader,
	config *blobtypes.UploadConfig,
	startTime time.Time,
) (*blobtypes.UploadResult, error) {
	uploadID, err := u.CreateMultipart(ctx, bucket, key, config)
	if err != nil {
		return nil, err
	}

	session := &Session{
		client:   u.client,
		bucket:   bucket,
		key:      key,
		uploadID: string(uploadID),
	}

	w := multipart.NewWriter(ctx, session, multipart.Config{
		MinPartSize: int64(config.MinPartSize),
		Concurrency: config.Concurrency,
	})

	written, err := io.Copy(w, reader)
	if err != nil {
		return nil, errors.NewError("upload", err).WithBucket(bucket).WithKey(key)
	}
	if err := w.Close(); err != nil {
		return nil, errors.NewError("upload", err).WithBucket(bucket).WithKey(key)
	}

	result := &blobtypes.UploadResult{
		Key:      key,
		Size:     written,
		ETag:     session.etag(),
		Duration: time.Since(startTime),
	}

	if config.ProgressTracker != nil {
		config.ProgressTracker.Update(written, written)
		config.ProgressTracker.Complete()
	}

	return result, nil
}

// CreateMultipart starts a new multipart upload session.
func (u *Uploader) CreateMultipart(
	ctx context.Context,
	bucket, key string,
	config *blobtypes.UploadConfig,
) (blobtypes.MultipartID, error) {
	input := &s3.CreateMultipartUploadInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}

	if config != nil {
		if config.ContentType != "" {
			input.ContentType = aws.String(config.ContentType)
		}
		if config.StorageClass != "" {
			input.StorageClass = awstypes.StorageClass(config.StorageClass)
		}
		if len(config.Metadata) > 0 {
			input.Metadata = config.Metadata
		}
	}

	output, err := u.client.CreateMultipartUpload(ctx, input)
	if err != nil {
		return "", errors.NewError("createMultipart", err).WithBucket(bucket).WithKey(key)
	}

	return blobtypes.MultipartID(aws.ToString(output.UploadId)), nil
}

// UploadPart uploads one part of an existing multipart session.
// Index is zero-based; the backend part number is index+1.
func (u *Uploader) UploadPart(
	ctx context.Context,
	bucket, key string,
	id blobtypes.MultipartID,
	index int,
	data []byte,
) (blobtypes.PartID, error) {
	input := &s3.UploadPartInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		UploadId:      aws.String(string(id)),
		PartNumber:    aws.Int32(int32(index + 1)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}

	output, err := u.client.UploadPart(ctx, input)
	if err != nil {
		return blobtypes.PartID{}, errors.NewError("uploadPart", err).WithBucket(bucket).WithKey(key)
	}

	return blobtypes.PartID{
		Index: index,
		ETag:  aws.ToString(output.ETag),
		Size:  int64(len(data)),
	}, nil
}

// CompleteMultipart finalizes a multipart session from its uploaded parts.
// Parts must be ordered by index with no gaps or duplicates; the caller is
// expected to have validated the list.
func (u *Uploader) CompleteMultipart(
	ctx context.Context,
	bucket, key string,
	id blobtypes.MultipartID,
	parts []blobtypes.PartID,
) (*blobtypes.UploadResult, error) {
	completed := make([]awstypes.CompletedPart, len(parts))
	var total int64
	for i, part := range parts {
		completed[i] = awstypes.CompletedPart{
			ETag:       aws.String(part.ETag),
			PartNumber: aws.Int32(int32(part.Index + 1)),
		}
		total += part.Size
	}

	input := &s3.CompleteMultipartUploadInput{
		Bucket:   aws.String(bucket),
		Key:      aws.String(key),
		UploadId: aws.String(string(id)),
		MultipartUpload: &awstypes.CompletedMultipartUpload{
			Parts: completed,
		},
	}

	output, err := u.client.CompleteMultipartUpload(ctx, input)
	if err != nil {
		return nil, errors.NewError("completeMultipart", err).WithBucket(bucket).WithKey(key)
	}

	return &blobtypes.UploadResult{
		Key:  key,
		Size: total,
		ETag: aws.ToString(output.ETag),
	}, nil
}

// AbortMultipart abandons a multipart session and releases its parts.
func (u *Uploader) AbortMultipart(
	ctx context.Context,
	bucket, key string,
	id blobtypes.MultipartID,
) error {
	input := &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(bucket),
		Key:      aws.String(key),
		UploadId: aws.String(string(id)),
	}

	if _, err := u.client.AbortMultipartUpload(ctx, input); err != nil {
		return errors.NewError("abortMultipart", err).WithBucket(bucket).WithKey(key)
	}
	return nil
}
