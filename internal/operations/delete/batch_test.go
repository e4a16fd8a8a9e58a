package delete

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// deleteMock records every DeleteObjects batch it receives.
type deleteMock struct {
	mu      sync.Mutex
	batches [][]string
	failKey string
}

func (m *deleteMock) DeleteObjects(_ context.Context, input *s3.DeleteObjectsInput, _ ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
	keys := make([]string, 0, len(input.Delete.Objects))
	for _, obj := range input.Delete.Objects {
		keys = append(keys, aws.ToString(obj.Key))
	}

	m.mu.Lock()
	m.batches = append(m.batches, keys)
	m.mu.Unlock()

	out := &s3.DeleteObjectsOutput{}
	for _, obj := range input.Delete.Objects {
		if aws.ToString(obj.Key) == m.failKey {
			out.Errors = append(out.Errors, types.Error{
				Key:     obj.Key,
				Code:    aws.String("InternalError"),
				Message: aws.String("transient failure"),
			})
			continue
		}
		out.Deleted = append(out.Deleted, types.DeletedObject{Key: obj.Key})
	}
	return out, nil
}

func (m *deleteMock) DeleteObject(_ context.Context, input *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	return &s3.DeleteObjectOutput{}, nil
}

func makeKeys(n int) []string {
	keys := make([]string, n)
	for i := range keys {
		keys[i] = fmt.Sprintf("obj-%04d", i)
	}
	return keys
}

func TestDeleteBatchEmpty(t *testing.T) {
	mock := &deleteMock{}
	deleter := New(mock)

	result, err := deleter.DeleteBatch(context.Background(), "test-bucket", nil)
	require.NoError(t, err)
	assert.Empty(t, result.Deleted)
	assert.Empty(t, mock.batches)
}

func TestDeleteBatchSingle(t *testing.T) {
	mock := &deleteMock{}
	deleter := New(mock)

	keys := makeKeys(10)
	result, err := deleter.DeleteBatch(context.Background(), "test-bucket", keys)
	require.NoError(t, err)

	assert.Len(t, result.Deleted, 10)
	assert.Empty(t, result.Errors)
	require.Len(t, mock.batches, 1)
	assert.Equal(t, keys, mock.batches[0])
}

func TestDeleteBatchPartialFailure(t *testing.T) {
	mock := &deleteMock{failKey: "obj-0003"}
	deleter := New(mock)

	result, err := deleter.DeleteBatch(context.Background(), "test-bucket", makeKeys(5))
	require.NoError(t, err)

	assert.Len(t, result.Deleted, 4)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "obj-0003", result.Errors[0].Key)
	assert.Equal(t, "InternalError", result.Errors[0].Code)
}

func TestDeleteBatchSplitsLargeSets(t *testing.T) {
	mock := &deleteMock{}
	deleter := New(mock)

	result, err := deleter.DeleteBatch(context.Background(), "test-bucket", makeKeys(2500))
	require.NoError(t, err)

	assert.Len(t, result.Deleted, 2500)
	require.Len(t, mock.batches, 3)
	assert.Len(t, mock.batches[0], 1000)
	assert.Len(t, mock.batches[1], 1000)
	assert.Len(t, mock.batches[2], 500)
}

func TestDeleteParallel(t *testing.T) {
	mock := &deleteMock{}
	deleter := New(mock)

	result, err := deleter.DeleteParallel(context.Background(), "test-bucket", makeKeys(3200), 4)
	require.NoError(t, err)

	assert.Len(t, result.Deleted, 3200)
	assert.Empty(t, result.Errors)
	assert.Len(t, mock.batches, 4)
}

func TestSplitIntoBatches(t *testing.T) {
	deleter := New(&deleteMock{})

	batches := deleter.splitIntoBatches(makeKeys(7), 3)
	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 3)
	assert.Len(t, batches[1], 3)
	assert.Len(t, batches[2], 1)
}
