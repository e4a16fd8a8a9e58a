package upload

import (
	"bytes"
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awstypes "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/blobworks/blobstore/blobtypes"
	"github.com/blobworks/blobstore/errors"
	"github.com/blobworks/blobstore/internal/backendapi"
)

// Session binds the transfer engine's part uploads to one multipart upload
// on one bucket and key. It implements multipart.PartUploader.
type Session struct {
	client   backendapi.API
	bucket   string
	key      string
	uploadID string

	mu        sync.Mutex
	finalETag string
}

// NewSession creates a part uploader bound to an existing multipart session.
func NewSession(client backendapi.API, bucket, key string, id blobtypes.MultipartID) *Session {
	return &Session{
		client:   client,
		bucket:   bucket,
		key:      key,
		uploadID: string(id),
	}
}

// UploadPart uploads one carved part. The zero-based engine index maps to
// the backend's one-based part number.
func (s *Session) UploadPart(ctx context.Context, data []byte, index int) (blobtypes.PartID, error) {
	input := &s3.UploadPartInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key),
		UploadId:      aws.String(s.uploadID),
		PartNumber:    aws.Int32(int32(index + 1)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}

	output, err := s.client.UploadPart(ctx, input)
	if err != nil {
		return blobtypes.PartID{}, errors.NewError("uploadPart", err).WithBucket(s.bucket).WithKey(s.key)
	}

	return blobtypes.PartID{
		Index: index,
		ETag:  aws.ToString(output.ETag),
		Size:  int64(len(data)),
	}, nil
}

// Complete finalizes the multipart upload from the uploaded parts.
func (s *Session) Complete(ctx context.Context, parts []blobtypes.PartID) error {
	completed := make([]awstypes.CompletedPart, len(parts))
	for i, part := range parts {
		completed[i] = awstypes.CompletedPart{
			ETag:       aws.String(part.ETag),
			PartNumber: aws.Int32(int32(part.Index + 1)),
		}
	}

	input := &s3.CompleteMultipartUploadInput{
		Bucket:   aws.String(s.bucket),
		Key:      aws.String(s.key),
		UploadId: aws.String(s.uploadID),
		MultipartUpload: &awstypes.CompletedMultipartUpload{
			Parts: completed,
		},
	}

	output, err := s.client.CompleteMultipartUpload(ctx, input)
	if err != nil {
		return errors.NewError("completeMultipart", err).WithBucket(s.bucket).WithKey(s.key)
	}

	s.mu.Lock()
	s.finalETag = aws.ToString(output.ETag)
	s.mu.Unlock()
	return nil
}

// etag returns the ETag of the completed object, or empty before completion.
func (s *Session) etag() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finalETag
}
