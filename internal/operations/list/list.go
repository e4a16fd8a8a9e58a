// Package list handles efficient listing of objects.
package list

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/blobworks/blobstore/blobtypes"
)

// API defines the backend operations listing needs.
type API interface {
	ListObjectsV2(
		ctx context.Context,
		input *s3.ListObjectsV2Input,
		opts ...func(*s3.Options),
	) (*s3.ListObjectsV2Output, error)
}

// Lister handles efficient listing of objects.
type Lister struct {
	client API
}

// New creates a new Lister.
func New(client API) *Lister {
	return &Lister{
		client: client,
	}
}

// Config holds configuration for list operations.
type Config struct {
	Bucket            string
	Prefix            string
	Delimiter         string
	MaxKeys           int32
	StartAfter        string
	ContinuationToken string
}

// List performs a single page listing.
func (l *Lister) List(ctx context.Context, config *Config) (*blobtypes.ListResult, error) {
	pageSize := config.MaxKeys
	if pageSize <= 0 || pageSize > 1000 {
		pageSize = 1000 // Backend maximum
	}

	input := &s3.ListObjectsV2Input{
		Bucket:  aws.String(config.Bucket),
		Prefix:  aws.String(config.Prefix),
		MaxKeys: aws.Int32(pageSize),
	}

	if config.Delimiter != "" {
		input.Delimiter = aws.String(config.Delimiter)
	}
	if config.StartAfter != "" {
		input.StartAfter = aws.String(config.StartAfter)
	}
	if config.ContinuationToken != "" {
		input.ContinuationToken = aws.String(config.ContinuationToken)
	}

	output, err := l.client.ListObjectsV2(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}

	return convertOutput(output), nil
}

// ListWithPaginator creates a paginator for multi-page listing.
func (l *Lister) ListWithPaginator(config *Config) *Paginator {
	return &Paginator{
		client:    l.client,
		config:    config,
		pageSize:  optimalPageSize(config),
		firstPage: true,
	}
}

// ObjectResult wraps an object or error for streaming listings.
type ObjectResult struct {
	Object blobtypes.Object
	Err    error
}

// ListAll streams every object under the prefix. The channel is closed when
// the listing is exhausted, an error is delivered, or the context ends.
func (l *Lister) ListAll(ctx context.Context, config *Config) <-chan ObjectResult {
	resultChan := make(chan ObjectResult, 100)

	go func() {
		defer close(resultChan)

		paginator := l.ListWithPaginator(config)

		for paginator.HasMorePages() {
			page, err := paginator.NextPage(ctx)
			if err != nil {
				resultChan <- ObjectResult{Err: err}
				return
			}

			for _, obj := range page.Objects {
				select {
				case resultChan <- ObjectResult{Object: obj}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return resultChan
}

// Paginator handles continuation-token pagination.
type Paginator struct {
	client            API
	config            *Config
	pageSize          int32
	continuationToken *string
	hasMorePages      bool
	firstPage         bool
}

// HasMorePages returns true if there are more pages to fetch.
func (p *Paginator) HasMorePages() bool {
	return p.firstPage || p.hasMorePages
}

// NextPage fetches the next page of results.
func (p *Paginator) NextPage(ctx context.Context) (*blobtypes.ListResult, error) {
	input := &s3.ListObjectsV2Input{
		Bucket:  aws.String(p.config.Bucket),
		Prefix:  aws.String(p.config.Prefix),
		MaxKeys: aws.Int32(p.pageSize),
	}

	if p.config.Delimiter != "" {
		input.Delimiter = aws.String(p.config.Delimiter)
	}

	if !p.firstPage && p.continuationToken != nil {
		input.ContinuationToken = p.continuationToken
	} else if p.config.StartAfter != "" {
		input.StartAfter = aws.String(p.config.StartAfter)
	}

	output, err := p.client.ListObjectsV2(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("list objects page: %w", err)
	}

	p.firstPage = false
	p.hasMorePages = aws.ToBool(output.IsTruncated)
	p.continuationToken = output.NextContinuationToken

	return convertOutput(output), nil
}

// convertOutput converts backend output to our ListResult type.
func convertOutput(output *s3.ListObjectsV2Output) *blobtypes.ListResult {
	result := &blobtypes.ListResult{
		Objects:        make([]blobtypes.Object, 0, len(output.Contents)),
		CommonPrefixes: make([]string, 0, len(output.CommonPrefixes)),
		IsTruncated:    aws.ToBool(output.IsTruncated),
	}

	if output.NextContinuationToken != nil {
		result.NextContinuationToken = *output.NextContinuationToken
	}

	for _, obj := range output.Contents {
		result.Objects = append(result.Objects, blobtypes.Object{
			Key:          aws.ToString(obj.Key),
			Size:         aws.ToInt64(obj.Size),
			LastModified: aws.ToTime(obj.LastModified),
			ETag:         aws.ToString(obj.ETag),
			StorageClass: string(obj.StorageClass),
		})
	}

	for _, prefix := range output.CommonPrefixes {
		result.CommonPrefixes = append(result.CommonPrefixes, aws.ToString(prefix.Prefix))
	}

	return result
}

func optimalPageSize(config *Config) int32 {
	if config.MaxKeys > 0 && config.MaxKeys <= 1000 {
		return config.MaxKeys
	}
	return 1000
}
