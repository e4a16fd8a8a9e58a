// Package delete handles batch deletion of objects.
package delete

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/blobworks/blobstore/blobtypes"
)

// API defines the backend operations batch deletion needs.
type API interface {
	DeleteObjects(
		ctx context.Context,
		input *s3.DeleteObjectsInput,
		opts ...func(*s3.Options),
	) (*s3.DeleteObjectsOutput, error)
	DeleteObject(
		ctx context.Context,
		input *s3.DeleteObjectInput,
		opts ...func(*s3.Options),
	) (*s3.DeleteObjectOutput, error)
}

// maxBatchSize is the backend's limit per DeleteObjects request.
const maxBatchSize = 1000

// BatchDeleter handles optimized batch deletion of objects.
type BatchDeleter struct {
	client       API
	maxBatchSize int
}

// New creates a new BatchDeleter.
func New(client API) *BatchDeleter {
	return &BatchDeleter{
		client:       client,
		maxBatchSize: maxBatchSize,
	}
}

// DeleteBatch deletes objects in optimal batch sizes.
// Per-key failures are reported in the result, not as an error.
func (b *BatchDeleter) DeleteBatch(ctx context.Context, bucket string, keys []string) (*blobtypes.DeleteResult, error) {
	if len(keys) == 0 {
		return &blobtypes.DeleteResult{}, nil
	}

	if len(keys) <= b.maxBatchSize {
		return b.deleteBatchDirect(ctx, bucket, keys)
	}

	return b.deleteLargeBatch(ctx, bucket, keys)
}

// deleteBatchDirect handles a single batch deletion.
func (b *BatchDeleter) deleteBatchDirect(
	ctx context.Context,
	bucket string,
	keys []string,
) (*blobtypes.DeleteResult, error) {
	deleteObjects := make([]types.ObjectIdentifier, 0, len(keys))
	for _, key := range keys {
		deleteObjects = append(deleteObjects, types.ObjectIdentifier{
			Key: aws.String(key),
		})
	}

	input := &s3.DeleteObjectsInput{
		Bucket: aws.String(bucket),
		Delete: &types.Delete{
			Objects: deleteObjects,
			Quiet:   aws.Bool(false), // Get detailed results
		},
	}

	output, err := b.client.DeleteObjects(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("delete objects: %w", err)
	}

	return b.convertOutput(output), nil
}

// deleteLargeBatch handles deletion of more than maxBatchSize objects.
func (b *BatchDeleter) deleteLargeBatch(
	ctx context.Context,
	bucket string,
	keys []string,
) (*blobtypes.DeleteResult, error) {
	result := &blobtypes.DeleteResult{
		Deleted: make([]blobtypes.Object, 0, len(keys)),
		Errors:  make([]blobtypes.DeleteError, 0),
	}

	for i := 0; i < len(keys); i += b.maxBatchSize {
		end := i + b.maxBatchSize
		if end > len(keys) {
			end = len(keys)
		}

		batchResult, err := b.deleteBatchDirect(ctx, bucket, keys[i:end])
		if err != nil {
			for j := i; j < end; j++ {
				result.Errors = append(result.Errors, blobtypes.DeleteError{
					Key:     keys[j],
					Code:    "BatchError",
					Message: err.Error(),
				})
			}
			continue
		}

		result.Deleted = append(result.Deleted, batchResult.Deleted...)
		result.Errors = append(result.Errors, batchResult.Errors...)
	}

	return result, nil
}

// DeleteParallel deletes objects in parallel batches.
func (b *BatchDeleter) DeleteParallel(
	ctx context.Context,
	bucket string,
	keys []string,
	parallelism int,
) (*blobtypes.DeleteResult, error) {
	if parallelism <= 0 {
		parallelism = 3
	}

	if len(keys) <= b.maxBatchSize {
		return b.DeleteBatch(ctx, bucket, keys)
	}

	batches := b.splitIntoBatches(keys, b.maxBatchSize)

	resultChan := make(chan *blobtypes.DeleteResult, len(batches))
	errorChan := make(chan error, len(batches))
	sem := make(chan struct{}, parallelism)

	var wg sync.WaitGroup

	for _, batch := range batches {
		wg.Add(1)
		sem <- struct{}{} // Acquire semaphore

		go func(batchKeys []string) {
			defer func() {
				<-sem // Release semaphore
				wg.Done()
			}()

			result, err := b.deleteBatchDirect(ctx, bucket, batchKeys)
			if err != nil {
				errorChan <- err
				return
			}
			resultChan <- result
		}(batch)
	}

	wg.Wait()
	close(resultChan)
	close(errorChan)

	finalResult := &blobtypes.DeleteResult{
		Deleted: make([]blobtypes.Object, 0, len(keys)),
		Errors:  make([]blobtypes.DeleteError, 0),
	}

	for result := range resultChan {
		finalResult.Deleted = append(finalResult.Deleted, result.Deleted...)
		finalResult.Errors = append(finalResult.Errors, result.Errors...)
	}

	for err := range errorChan {
		finalResult.Errors = append(finalResult.Errors, blobtypes.DeleteError{
			Code:    "ParallelBatchError",
			Message: err.Error(),
		})
	}

	return finalResult, nil
}

// convertOutput converts backend output to our DeleteResult type.
func (b *BatchDeleter) convertOutput(output *s3.DeleteObjectsOutput) *blobtypes.DeleteResult {
	result := &blobtypes.DeleteResult{
		Deleted: make([]blobtypes.Object, 0),
		Errors:  make([]blobtypes.DeleteError, 0),
	}

	for _, deleted := range output.Deleted {
		result.Deleted = append(result.Deleted, blobtypes.Object{
			Key: aws.ToString(deleted.Key),
		})
	}

	for _, err := range output.Errors {
		result.Errors = append(result.Errors, blobtypes.DeleteError{
			Key:     aws.ToString(err.Key),
			Code:    aws.ToString(err.Code),
			Message: aws.ToString(err.Message),
		})
	}

	return result
}

// splitIntoBatches splits a slice into batches of the given size.
func (b *BatchDeleter) splitIntoBatches(keys []string, batchSize int) [][]string {
	batches := make([][]string, 0, (len(keys)+batchSize-1)/batchSize)

	for i := 0; i < len(keys); i += batchSize {
		end := i + batchSize
		if end > len(keys) {
			end = len(keys)
		}
		batches = append(batches, keys[i:end])
	}

	return batches
}
