package backendapi

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/blobworks/blobstore/errors"
)

// TranslateError maps backend SDK failures onto the module's sentinel
// errors so callers can branch with errors.Is. Failures with no specific
// mapping are wrapped in ErrTransport; context cancellations pass through
// unchanged.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}

	var noSuchKey *types.NoSuchKey
	if stderrors.As(err, &noSuchKey) {
		return errors.ErrObjectNotFound
	}
	var notFound *types.NotFound
	if stderrors.As(err, &notFound) {
		return errors.ErrObjectNotFound
	}
	var noSuchBucket *types.NoSuchBucket
	if stderrors.As(err, &noSuchBucket) {
		return errors.ErrBucketNotFound
	}
	var noSuchUpload *types.NoSuchUpload
	if stderrors.As(err, &noSuchUpload) {
		return errors.ErrUploadAborted
	}

	var apiErr smithy.APIError
	if stderrors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return errors.ErrObjectNotFound
		case "NoSuchBucket":
			return errors.ErrBucketNotFound
		case "NoSuchUpload":
			return errors.ErrUploadAborted
		case "AccessDenied":
			return errors.ErrAccessDenied
		case "PreconditionFailed":
			return errors.ErrPreconditionFailed
		}
	}

	var respErr *smithyhttp.ResponseError
	if stderrors.As(err, &respErr) {
		switch respErr.HTTPStatusCode() {
		case http.StatusNotFound:
			return errors.ErrObjectNotFound
		case http.StatusForbidden:
			return errors.ErrAccessDenied
		case http.StatusPreconditionFailed:
			return errors.ErrPreconditionFailed
		}
	}

	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return err
	}

	return fmt.Errorf("%w: %w", errors.ErrTransport, err)
}
