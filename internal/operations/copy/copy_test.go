package copy

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blobworks/blobstore/blobtypes"
	"github.com/blobworks/blobstore/errors"
	"github.com/blobworks/blobstore/internal/testutil"
)

func TestCopy(t *testing.T) {
	var captured *s3.CopyObjectInput
	mock := testutil.NewMockBuilder().
		WithCopyObject(func(_ context.Context, params *s3.CopyObjectInput) (*s3.CopyObjectOutput, error) {
			captured = params
			return &s3.CopyObjectOutput{}, nil
		}).
		Build()

	copier := NewCopier(mock)
	err := copier.Copy(context.Background(), "src-bucket", "a/b.txt", "dst-bucket", "c/d.txt", nil)
	require.NoError(t, err)

	require.NotNil(t, captured)
	assert.Equal(t, "dst-bucket", aws.ToString(captured.Bucket))
	assert.Equal(t, "c/d.txt", aws.ToString(captured.Key))
	assert.Equal(t, "src-bucket/a/b.txt", aws.ToString(captured.CopySource))
}

func TestCopyWithMetadataReplace(t *testing.T) {
	var captured *s3.CopyObjectInput
	mock := testutil.NewMockBuilder().
		WithCopyObject(func(_ context.Context, params *s3.CopyObjectInput) (*s3.CopyObjectOutput, error) {
			captured = params
			return &s3.CopyObjectOutput{}, nil
		}).
		Build()

	copier := NewCopier(mock)
	err := copier.Copy(context.Background(), "b", "src", "b", "dst", &blobtypes.UploadConfig{
		Metadata: map[string]string{"owner": "ops"},
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"owner": "ops"}, captured.Metadata)
	assert.Equal(t, "REPLACE", string(captured.MetadataDirective))
}

func TestCopyIfNotExistsRequestsConditionalWrite(t *testing.T) {
	var optCount int
	mock := &testutil.MockClient{
		CopyObjectFunc: func(_ context.Context, _ *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error) {
			optCount = len(optFns)
			// The conditional header travels as a per-request option so it
			// never leaks into plain copies.
			return &s3.CopyObjectOutput{}, nil
		},
	}

	copier := NewCopier(mock)
	require.NoError(t, copier.CopyIfNotExists(context.Background(), "b", "src", "b", "dst", nil))
	assert.Equal(t, 1, optCount)

	require.NoError(t, copier.Copy(context.Background(), "b", "src", "b", "dst", nil))
	assert.Equal(t, 0, optCount)
}

func TestCopyIfNotExistsPreconditionFailed(t *testing.T) {
	mock := &testutil.MockClient{
		CopyObjectFunc: func(_ context.Context, _ *s3.CopyObjectInput, _ ...func(*s3.Options)) (*s3.CopyObjectOutput, error) {
			return nil, &smithy.GenericAPIError{
				Code:    "PreconditionFailed",
				Message: "At least one of the pre-conditions you specified did not hold",
			}
		},
	}

	copier := NewCopier(mock)
	err := copier.CopyIfNotExists(context.Background(), "b", "src", "b", "dst", nil)
	require.Error(t, err)
	assert.True(t, errors.IsPreconditionFailed(err))
}
