package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blobworks/blobstore/errors"
	"github.com/blobworks/blobstore/internal/testutil"
)

func TestPut(t *testing.T) {
	var captured *s3.PutObjectInput
	mock := testutil.NewMockBuilder().
		WithPutObject(func(_ context.Context, params *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
			captured = params
			return &s3.PutObjectOutput{ETag: testutil.StringPtr(`"e"`)}, nil
		}).
		Build()

	client := NewWithClient(mock)
	err := client.Put(context.Background(), "test-bucket", "config.json", []byte(`{"a":1}`))
	require.NoError(t, err)

	require.NotNil(t, captured)
	assert.Equal(t, "test-bucket", aws.ToString(captured.Bucket))
	assert.Equal(t, "config.json", aws.ToString(captured.Key))
	// Content type is sniffed from the payload when not set explicitly.
	assert.Contains(t, aws.ToString(captured.ContentType), "json")
}

func TestPutExplicitContentType(t *testing.T) {
	var captured *s3.PutObjectInput
	mock := testutil.NewMockBuilder().
		WithPutObject(func(_ context.Context, params *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
			captured = params
			return &s3.PutObjectOutput{}, nil
		}).
		Build()

	client := NewWithClient(mock)
	err := client.Put(context.Background(), "test-bucket", "blob", []byte("xx"),
		WithContentType("application/x-custom"))
	require.NoError(t, err)
	assert.Equal(t, "application/x-custom", aws.ToString(captured.ContentType))
}

func TestPutInvalidBucket(t *testing.T) {
	client := NewWithClient(testutil.NewMockBuilder().Build())

	for _, bucket := range []string{"", "ab", "UPPER", "192.168.1.1", "bad..dots"} {
		err := client.Put(context.Background(), bucket, "key", []byte("x"))
		require.Error(t, err, "bucket %q", bucket)
		assert.True(t, errors.IsInvalidInput(err), "bucket %q", bucket)
	}
}

func TestPutInvalidKey(t *testing.T) {
	client := NewWithClient(testutil.NewMockBuilder().Build())

	for _, key := range []string{"", "/leading", "a/../b"} {
		err := client.Put(context.Background(), "test-bucket", key, []byte("x"))
		require.Error(t, err, "key %q", key)
		assert.True(t, errors.IsInvalidInput(err), "key %q", key)
	}
}

func TestUpload(t *testing.T) {
	mock := testutil.NewMockBuilder().WithSuccessfulUpload().Build()
	client := NewWithClient(mock)

	result, err := client.Upload(context.Background(), "test-bucket", "docs/readme.md",
		bytes.NewReader([]byte("# hi")))
	require.NoError(t, err)
	assert.Equal(t, `"test-etag"`, result.ETag)
	assert.Equal(t, int64(4), result.Size)
}

func TestUploadNilReader(t *testing.T) {
	client := NewWithClient(testutil.NewMockBuilder().Build())

	_, err := client.Upload(context.Background(), "test-bucket", "k", nil)
	require.Error(t, err)
	assert.True(t, errors.IsInvalidInput(err))
}

func TestGet(t *testing.T) {
	payload := []byte("hello")
	mock := testutil.NewMockBuilder().
		WithGetObject(func(_ context.Context, _ *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
			return &s3.GetObjectOutput{
				Body:          testutil.BodyFrom(payload),
				ContentLength: testutil.Int64Ptr(int64(len(payload))),
			}, nil
		}).
		Build()

	client := NewWithClient(mock)
	data, err := client.Get(context.Background(), "test-bucket", "k")
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestExists(t *testing.T) {
	mock := testutil.NewMockBuilder().
		WithHeadObject(func(_ context.Context, _ *s3.HeadObjectInput) (*s3.HeadObjectOutput, error) {
			return &s3.HeadObjectOutput{}, nil
		}).
		Build()

	client := NewWithClient(mock)
	ok, err := client.Exists(context.Background(), "test-bucket", "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestExistsNotFound(t *testing.T) {
	mock := testutil.NewMockBuilder().WithObjectNotFound().Build()

	client := NewWithClient(mock)
	ok, err := client.Exists(context.Background(), "test-bucket", "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetMetadata(t *testing.T) {
	mock := testutil.NewMockBuilder().
		WithHeadObject(func(_ context.Context, _ *s3.HeadObjectInput) (*s3.HeadObjectOutput, error) {
			return &s3.HeadObjectOutput{
				ContentType:   testutil.StringPtr("text/plain"),
				ContentLength: testutil.Int64Ptr(42),
				ETag:          testutil.StringPtr(`"m"`),
				Metadata:      map[string]string{"owner": "ops"},
			}, nil
		}).
		Build()

	client := NewWithClient(mock)
	meta, err := client.GetMetadata(context.Background(), "test-bucket", "k")
	require.NoError(t, err)
	assert.Equal(t, "text/plain", meta.ContentType)
	assert.Equal(t, int64(42), meta.ContentLength)
	assert.Equal(t, map[string]string{"owner": "ops"}, meta.Metadata)
}

func TestGetMetadataNotFound(t *testing.T) {
	mock := testutil.NewMockBuilder().WithObjectNotFound().Build()

	client := NewWithClient(mock)
	_, err := client.GetMetadata(context.Background(), "test-bucket", "missing")
	require.Error(t, err)
	assert.True(t, errors.IsObjectNotFound(err))
}

func TestDelete(t *testing.T) {
	var deleted string
	mock := testutil.NewMockBuilder().
		WithDeleteObject(func(_ context.Context, params *s3.DeleteObjectInput) (*s3.DeleteObjectOutput, error) {
			deleted = aws.ToString(params.Key)
			return &s3.DeleteObjectOutput{}, nil
		}).
		Build()

	client := NewWithClient(mock)
	require.NoError(t, client.Delete(context.Background(), "test-bucket", "old.txt"))
	assert.Equal(t, "old.txt", deleted)
}

func TestDeleteMany(t *testing.T) {
	mock := &testutil.MockClient{
		DeleteObjectsFunc: func(_ context.Context, params *s3.DeleteObjectsInput, _ ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
			out := &s3.DeleteObjectsOutput{}
			for _, obj := range params.Delete.Objects {
				key := aws.ToString(obj.Key)
				if key == "locked" {
					out.Errors = append(out.Errors, types.Error{
						Key:     obj.Key,
						Code:    testutil.StringPtr("AccessDenied"),
						Message: testutil.StringPtr("denied"),
					})
					continue
				}
				out.Deleted = append(out.Deleted, types.DeletedObject{Key: obj.Key})
			}
			return out, nil
		},
	}

	client := NewWithClient(mock)
	result, err := client.DeleteMany(context.Background(), "test-bucket", []string{"a", "locked", "b"})
	require.NoError(t, err)

	assert.Len(t, result.Deleted, 2)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "locked", result.Errors[0].Key)
	assert.Equal(t, "AccessDenied", result.Errors[0].Code)
}

func TestList(t *testing.T) {
	mock := testutil.NewMockBuilder().
		WithListObjectsV2(func(_ context.Context, params *s3.ListObjectsV2Input) (*s3.ListObjectsV2Output, error) {
			assert.Equal(t, "photos/", aws.ToString(params.Prefix))
			return &s3.ListObjectsV2Output{
				Contents: []types.Object{
					{Key: aws.String("photos/cat.jpg"), Size: aws.Int64(1024)},
				},
				IsTruncated: aws.Bool(false),
			}, nil
		}).
		Build()

	client := NewWithClient(mock)
	result, err := client.List(context.Background(), "test-bucket", "photos/")
	require.NoError(t, err)
	require.Len(t, result.Objects, 1)
	assert.Equal(t, "photos/cat.jpg", result.Objects[0].Key)
}

func TestListWithDelimiter(t *testing.T) {
	mock := testutil.NewMockBuilder().
		WithListObjectsV2(func(_ context.Context, params *s3.ListObjectsV2Input) (*s3.ListObjectsV2Output, error) {
			assert.Equal(t, "/", aws.ToString(params.Delimiter))
			return &s3.ListObjectsV2Output{
				CommonPrefixes: []types.CommonPrefix{
					{Prefix: aws.String("a/")},
					{Prefix: aws.String("b/")},
				},
			}, nil
		}).
		Build()

	client := NewWithClient(mock)
	result, err := client.ListWithDelimiter(context.Background(), "test-bucket", "", "/")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/", "b/"}, result.CommonPrefixes)
}

func TestListAll(t *testing.T) {
	mock := testutil.NewMockBuilder().
		WithListObjectsV2(func(_ context.Context, _ *s3.ListObjectsV2Input) (*s3.ListObjectsV2Output, error) {
			return &s3.ListObjectsV2Output{
				Contents: []types.Object{
					{Key: aws.String("x/1")},
					{Key: aws.String("x/2")},
				},
				IsTruncated: aws.Bool(false),
			}, nil
		}).
		Build()

	client := NewWithClient(mock)

	var keys []string
	for result := range client.ListAll(context.Background(), "test-bucket", "x/") {
		require.NoError(t, result.Err)
		keys = append(keys, result.Object.Key)
	}
	assert.Equal(t, []string{"x/1", "x/2"}, keys)
}

func TestCopy(t *testing.T) {
	var captured *s3.CopyObjectInput
	mock := testutil.NewMockBuilder().
		WithCopyObject(func(_ context.Context, params *s3.CopyObjectInput) (*s3.CopyObjectOutput, error) {
			captured = params
			return &s3.CopyObjectOutput{}, nil
		}).
		Build()

	client := NewWithClient(mock)
	require.NoError(t, client.Copy(context.Background(), "src-bucket", "a", "dst-bucket", "b"))
	assert.Equal(t, "src-bucket/a", aws.ToString(captured.CopySource))
}

func TestCopyIfNotExistsLosesRace(t *testing.T) {
	mock := &testutil.MockClient{
		CopyObjectFunc: func(_ context.Context, _ *s3.CopyObjectInput, _ ...func(*s3.Options)) (*s3.CopyObjectOutput, error) {
			return nil, &smithy.GenericAPIError{Code: "PreconditionFailed"}
		},
	}

	client := NewWithClient(mock)
	err := client.CopyIfNotExists(context.Background(), "test-bucket", "a", "test-bucket", "b")
	require.Error(t, err)
	assert.True(t, errors.IsPreconditionFailed(err))
}

func TestMove(t *testing.T) {
	var copied, deleted bool
	mock := testutil.NewMockBuilder().
		WithCopyObject(func(_ context.Context, _ *s3.CopyObjectInput) (*s3.CopyObjectOutput, error) {
			copied = true
			return &s3.CopyObjectOutput{}, nil
		}).
		WithDeleteObject(func(_ context.Context, _ *s3.DeleteObjectInput) (*s3.DeleteObjectOutput, error) {
			deleted = true
			return &s3.DeleteObjectOutput{}, nil
		}).
		Build()

	client := NewWithClient(mock)
	require.NoError(t, client.Move(context.Background(), "test-bucket", "a", "test-bucket", "b"))
	assert.True(t, copied)
	assert.True(t, deleted)
}

func TestMoveDeleteFails(t *testing.T) {
	mock := testutil.NewMockBuilder().
		WithCopyObject(func(_ context.Context, _ *s3.CopyObjectInput) (*s3.CopyObjectOutput, error) {
			return &s3.CopyObjectOutput{}, nil
		}).
		WithDeleteObject(func(_ context.Context, _ *s3.DeleteObjectInput) (*s3.DeleteObjectOutput, error) {
			return nil, fmt.Errorf("delete rejected")
		}).
		Build()

	client := NewWithClient(mock)
	err := client.Move(context.Background(), "test-bucket", "a", "test-bucket", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to delete source")
}
