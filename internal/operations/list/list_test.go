package list

import (
	"context"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blobworks/blobstore/internal/testutil"
)

func pagedMock(t *testing.T, pages [][]string) *testutil.MockClient {
	t.Helper()
	call := 0
	return testutil.NewMockBuilder().
		WithListObjectsV2(func(_ context.Context, params *s3.ListObjectsV2Input) (*s3.ListObjectsV2Output, error) {
			if call > 0 {
				require.NotNil(t, params.ContinuationToken, "follow-up pages must carry the continuation token")
			}
			require.Less(t, call, len(pages))
			keys := pages[call]
			call++

			contents := make([]types.Object, 0, len(keys))
			for _, key := range keys {
				contents = append(contents, types.Object{
					Key:  aws.String(key),
					Size: aws.Int64(int64(len(key))),
				})
			}

			out := &s3.ListObjectsV2Output{
				Contents:    contents,
				IsTruncated: aws.Bool(call < len(pages)),
				KeyCount:    aws.Int32(int32(len(keys))),
			}
			if call < len(pages) {
				out.NextContinuationToken = aws.String(fmt.Sprintf("token-%d", call))
			}
			return out, nil
		}).
		Build()
}

func TestList(t *testing.T) {
	var captured *s3.ListObjectsV2Input
	mock := testutil.NewMockBuilder().
		WithListObjectsV2(func(_ context.Context, params *s3.ListObjectsV2Input) (*s3.ListObjectsV2Output, error) {
			captured = params
			return &s3.ListObjectsV2Output{
				Contents: []types.Object{
					{Key: aws.String("logs/a.log"), Size: aws.Int64(10)},
					{Key: aws.String("logs/b.log"), Size: aws.Int64(20)},
				},
				IsTruncated: aws.Bool(false),
			}, nil
		}).
		Build()

	lister := New(mock)
	result, err := lister.List(context.Background(), &Config{
		Bucket: "test-bucket",
		Prefix: "logs/",
	})
	require.NoError(t, err)

	assert.Equal(t, "logs/", aws.ToString(captured.Prefix))
	assert.Equal(t, int32(1000), aws.ToInt32(captured.MaxKeys))
	require.Len(t, result.Objects, 2)
	assert.Equal(t, "logs/a.log", result.Objects[0].Key)
	assert.False(t, result.IsTruncated)
}

func TestListWithDelimiter(t *testing.T) {
	mock := testutil.NewMockBuilder().
		WithListObjectsV2(func(_ context.Context, params *s3.ListObjectsV2Input) (*s3.ListObjectsV2Output, error) {
			assert.Equal(t, "/", aws.ToString(params.Delimiter))
			return &s3.ListObjectsV2Output{
				Contents: []types.Object{
					{Key: aws.String("root.txt")},
				},
				CommonPrefixes: []types.CommonPrefix{
					{Prefix: aws.String("docs/")},
					{Prefix: aws.String("logs/")},
				},
			}, nil
		}).
		Build()

	lister := New(mock)
	result, err := lister.List(context.Background(), &Config{
		Bucket:    "test-bucket",
		Delimiter: "/",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"docs/", "logs/"}, result.CommonPrefixes)
	require.Len(t, result.Objects, 1)
}

func TestPaginator(t *testing.T) {
	mock := pagedMock(t, [][]string{
		{"a", "b"},
		{"c"},
	})

	lister := New(mock)
	paginator := lister.ListWithPaginator(&Config{Bucket: "test-bucket"})

	var keys []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(context.Background())
		require.NoError(t, err)
		for _, obj := range page.Objects {
			keys = append(keys, obj.Key)
		}
	}

	assert.Equal(t, []string{"a", "b", "c"}, keys)
	assert.False(t, paginator.HasMorePages())
}

func TestListAll(t *testing.T) {
	mock := pagedMock(t, [][]string{
		{"x/1", "x/2"},
		{"x/3", "x/4"},
		{"x/5"},
	})

	lister := New(mock)

	var keys []string
	for result := range lister.ListAll(context.Background(), &Config{Bucket: "test-bucket", Prefix: "x/"}) {
		require.NoError(t, result.Err)
		keys = append(keys, result.Object.Key)
	}

	assert.Equal(t, []string{"x/1", "x/2", "x/3", "x/4", "x/5"}, keys)
}

func TestListAllError(t *testing.T) {
	mock := testutil.NewMockBuilder().
		WithListObjectsV2(func(_ context.Context, _ *s3.ListObjectsV2Input) (*s3.ListObjectsV2Output, error) {
			return nil, fmt.Errorf("throttled")
		}).
		Build()

	lister := New(mock)

	var sawErr bool
	for result := range lister.ListAll(context.Background(), &Config{Bucket: "test-bucket"}) {
		if result.Err != nil {
			sawErr = true
		}
	}
	assert.True(t, sawErr)
}
