package blobstore

import (
	"context"
	"fmt"
	"io"

	"github.com/blobworks/blobstore/blobtypes"
	"github.com/blobworks/blobstore/errors"
	"github.com/blobworks/blobstore/internal/operations/upload"
	"github.com/blobworks/blobstore/internal/transfer/multipart"
)

// NewMultipartWriter starts a multipart upload and returns an
// io.WriteCloser that streams parts concurrently as data is written.
// Writes are accumulated into parts of at least the configured minimum
// size; Close uploads the final part and finalizes the object.
//
// If any part fails, Close returns the first failure and the object is
// never finalized. The abandoned session is left for the bucket's
// lifecycle policy to reclaim; call AbortMultipart to release it eagerly.
func (c *Client) NewMultipartWriter(
	ctx context.Context,
	bucket, key string,
	opts ...blobtypes.UploadOption,
) (io.WriteCloser, error) {
	if err := c.validatePath("newMultipartWriter", bucket, key); err != nil {
		return nil, err
	}

	config := c.uploadConfig(key, opts)

	id, err := c.uploader.CreateMultipart(ctx, bucket, key, config)
	if err != nil {
		return nil, err
	}

	session := upload.NewSession(c.api, bucket, key, id)
	return multipart.NewWriter(ctx, session, multipart.Config{
		MinPartSize: int64(config.MinPartSize),
		Concurrency: config.Concurrency,
	}), nil
}

// CreateMultipart starts a multipart upload session and returns its ID.
// Use UploadPart, CompleteMultipart, and AbortMultipart to drive the
// session explicitly; use NewMultipartWriter for the streaming interface.
func (c *Client) CreateMultipart(
	ctx context.Context,
	bucket, key string,
	opts ...blobtypes.UploadOption,
) (blobtypes.MultipartID, error) {
	if err := c.validatePath("createMultipart", bucket, key); err != nil {
		return "", err
	}

	config := c.uploadConfig(key, opts)
	return c.uploader.CreateMultipart(ctx, bucket, key, config)
}

// UploadPart uploads one part of an open multipart session. Index is
// zero-based; parts may be uploaded concurrently and in any order. The
// returned PartID must be retained for CompleteMultipart.
func (c *Client) UploadPart(
	ctx context.Context,
	bucket, key string,
	id blobtypes.MultipartID,
	index int,
	data []byte,
) (blobtypes.PartID, error) {
	if err := c.validatePath("uploadPart", bucket, key); err != nil {
		return blobtypes.PartID{}, err
	}
	if index < 0 {
		return blobtypes.PartID{}, errors.NewObjectError("uploadPart", bucket, key, errors.ErrInvalidInput).
			WithMessage(fmt.Sprintf("part index must be non-negative, got %d", index))
	}

	return c.uploader.UploadPart(ctx, bucket, key, id, index, data)
}

// CompleteMultipart finalizes a multipart session from its uploaded parts.
// The parts list must be sorted by index starting at zero with no gaps or
// duplicates; a malformed list is rejected before any backend call so the
// session stays open and retryable.
func (c *Client) CompleteMultipart(
	ctx context.Context,
	bucket, key string,
	id blobtypes.MultipartID,
	parts []blobtypes.PartID,
) (*blobtypes.UploadResult, error) {
	if err := c.validatePath("completeMultipart", bucket, key); err != nil {
		return nil, err
	}
	if err := validateCompletionList(parts); err != nil {
		return nil, errors.NewObjectError("completeMultipart", bucket, key, err)
	}

	return c.uploader.CompleteMultipart(ctx, bucket, key, id, parts)
}

// AbortMultipart abandons a multipart session and releases its uploaded
// parts. Aborting a session that was already completed or aborted is a
// backend-level no-op.
func (c *Client) AbortMultipart(
	ctx context.Context,
	bucket, key string,
	id blobtypes.MultipartID,
) error {
	if err := c.validatePath("abortMultipart", bucket, key); err != nil {
		return err
	}

	return c.uploader.AbortMultipart(ctx, bucket, key, id)
}

// validateCompletionList rejects completion lists that are unsorted, have
// index gaps, or repeat an index.
func validateCompletionList(parts []blobtypes.PartID) error {
	if len(parts) == 0 {
		return fmt.Errorf("%w: completion list is empty", errors.ErrInvalidInput)
	}
	for i, part := range parts {
		if part.Index != i {
			return fmt.Errorf("%w: completion list must be sorted with no gaps, index %d at position %d",
				errors.ErrInvalidInput, part.Index, i)
		}
	}
	return nil
}
