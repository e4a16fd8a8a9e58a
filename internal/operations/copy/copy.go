// Package copy handles server-side object copy operations.
//
// Copies never move data through the client; the backend copies between
// keys directly. The conditional variant only succeeds when the
// destination does not already exist.
package copy

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awstypes "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go/middleware"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/blobworks/blobstore/blobtypes"
	"github.com/blobworks/blobstore/errors"
	"github.com/blobworks/blobstore/internal/backendapi"
)

// Copier handles server-side copy operations.
type Copier struct {
	client backendapi.API
}

// NewCopier creates a new copy operation handler.
func NewCopier(client backendapi.API) *Copier {
	return &Copier{
		client: client,
	}
}

// Copy performs a server-side copy, overwriting the destination if it
// already exists.
func (c *Copier) Copy(
	ctx context.Context,
	srcBucket, srcKey, dstBucket, dstKey string,
	config *blobtypes.UploadConfig,
) error {
	input := c.buildInput(srcBucket, srcKey, dstBucket, dstKey, config)

	if _, err := c.client.CopyObject(ctx, input); err != nil {
		return errors.NewError("copy", backendapi.TranslateError(err)).
			WithBucket(dstBucket).
			WithKey(dstKey).
			WithMessage("failed to copy from " + srcBucket + "/" + srcKey)
	}
	return nil
}

// CopyIfNotExists performs a server-side copy that fails with
// ErrPreconditionFailed when the destination already exists. The existence
// check is enforced by the backend, not by a separate head request.
func (c *Copier) CopyIfNotExists(
	ctx context.Context,
	srcBucket, srcKey, dstBucket, dstKey string,
	config *blobtypes.UploadConfig,
) error {
	input := c.buildInput(srcBucket, srcKey, dstBucket, dstKey, config)

	if _, err := c.client.CopyObject(ctx, input, withIfNoneMatch()); err != nil {
		return errors.NewError("copyIfNotExists", backendapi.TranslateError(err)).
			WithBucket(dstBucket).
			WithKey(dstKey).
			WithMessage("failed to copy from " + srcBucket + "/" + srcKey)
	}
	return nil
}

func (c *Copier) buildInput(
	srcBucket, srcKey, dstBucket, dstKey string,
	config *blobtypes.UploadConfig,
) *s3.CopyObjectInput {
	input := &s3.CopyObjectInput{
		Bucket:     aws.String(dstBucket),
		Key:        aws.String(dstKey),
		CopySource: aws.String(srcBucket + "/" + srcKey),
	}

	if config != nil {
		if len(config.Metadata) > 0 {
			input.Metadata = config.Metadata
			input.MetadataDirective = awstypes.MetadataDirectiveReplace
		}
		if config.StorageClass != "" {
			input.StorageClass = awstypes.StorageClass(config.StorageClass)
		}
		if config.ContentType != "" {
			input.ContentType = aws.String(config.ContentType)
		}
	}

	return input
}

// withIfNoneMatch adds an If-None-Match: * header to the copy request so
// the backend rejects the write with 412 when the destination exists.
func withIfNoneMatch() func(*s3.Options) {
	return func(o *s3.Options) {
		o.APIOptions = append(o.APIOptions, func(stack *middleware.Stack) error {
			return stack.Build.Add(middleware.BuildMiddlewareFunc(
				"CopyIfNoneMatch",
				func(ctx context.Context, in middleware.BuildInput, next middleware.BuildHandler) (
					middleware.BuildOutput, middleware.Metadata, error,
				) {
					if req, ok := in.Request.(*smithyhttp.Request); ok {
						req.Header.Set("If-None-Match", "*")
					}
					return next.HandleBuild(ctx, in)
				},
			), middleware.After)
		})
	}
}
