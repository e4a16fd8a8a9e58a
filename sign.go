package blobstore

import (
	"context"
	"time"

	"github.com/blobworks/blobstore/blobtypes"
	"github.com/blobworks/blobstore/errors"
	"github.com/blobworks/blobstore/signer"
)

// SignURL issues a presigned URL authorizing the given HTTP method on one
// object for expiresIn from now. The URL is computed locally from the
// client's credentials; no request is made to the backend.
//
// Errors:
//   - ErrInvalidInput: If bucket, key, or expiry is invalid
//   - ErrCredential: If no signing credential could be obtained
//   - ErrSigning: If the signature could not be computed
func (c *Client) SignURL(
	ctx context.Context,
	method, bucket, key string,
	expiresIn time.Duration,
) (blobtypes.SignedURL, error) {
	urls, err := c.SignURLs(ctx, method, bucket, []string{key}, expiresIn)
	if err != nil {
		return blobtypes.SignedURL{}, err
	}
	return urls[0], nil
}

// SignURLs issues presigned URLs for many keys in one call. The signing
// credential is fetched once for the whole batch and every URL carries the
// same expiry instant. Results are returned in input order; if any key
// cannot be signed, no URLs are returned.
func (c *Client) SignURLs(
	ctx context.Context,
	method, bucket string,
	keys []string,
	expiresIn time.Duration,
) ([]blobtypes.SignedURL, error) {
	s := c.signerRef()
	if s == nil {
		return nil, errors.NewError("sign", errors.ErrCredential).
			WithBucket(bucket).
			WithMessage("client has no signer configured")
	}

	for _, key := range keys {
		if err := c.validatePath("sign", bucket, key); err != nil {
			return nil, err
		}
	}

	reqs := make([]signer.Request, 0, len(keys))
	for _, key := range keys {
		reqs = append(reqs, signer.Request{
			Method: method,
			Bucket: bucket,
			Key:    key,
		})
	}

	return s.SignBatch(ctx, reqs, expiresIn)
}
