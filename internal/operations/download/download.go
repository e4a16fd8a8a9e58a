// Package download handles object download operations.
// This includes stream-based downloads, file downloads, and range requests.
//
// The package provides memory-efficient streaming for large objects and
// supports progress tracking during download operations.
package download

import (
	"bytes"
	"context"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	fs "github.com/input-output-hk/catalyst-forge-libs/fs"

	"github.com/blobworks/blobstore/blobtypes"
	"github.com/blobworks/blobstore/errors"
	"github.com/blobworks/blobstore/internal/backendapi"
)

// Downloader handles download operations with progress tracking support.
type Downloader struct {
	client backendapi.API
}

// New creates a new Downloader instance.
func New(client backendapi.API) *Downloader {
	return &Downloader{
		client: client,
	}
}

// Download fetches an object and writes it to an io.Writer.
// This provides stream-based downloading with memory-efficient handling
// of large objects.
func (d *Downloader) Download(
	ctx context.Context,
	bucket, key string,
	writer io.Writer,
	config *blobtypes.DownloadConfig,
	startTime time.Time,
) (*blobtypes.DownloadResult, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}

	if config.RangeSpec != "" {
		if !validRangeSpec(config.RangeSpec) {
			return nil, errors.NewObjectError("download", bucket, key, errors.ErrInvalidRange).
				WithMessage("malformed range " + config.RangeSpec)
		}
		input.Range = aws.String(config.RangeSpec)
	}

	output, err := d.client.GetObject(ctx, input)
	if err != nil {
		return nil, errors.NewError("download", backendapi.TranslateError(err)).WithBucket(bucket).WithKey(key)
	}
	defer output.Body.Close()

	size := aws.ToInt64(output.ContentLength)

	var reader io.Reader = output.Body
	if config.ProgressTracker != nil {
		reader = &progressReader{
			reader:          output.Body,
			progressTracker: config.ProgressTracker,
			total:           size,
		}
	}

	bytesWritten, err := io.Copy(writer, reader)
	if err != nil {
		return nil, errors.NewError("download", err).WithBucket(bucket).WithKey(key)
	}

	if size == 0 {
		size = bytesWritten
	}

	if config.ProgressTracker != nil {
		config.ProgressTracker.Update(bytesWritten, size)
		config.ProgressTracker.Complete()
	}

	return &blobtypes.DownloadResult{
		Key:       key,
		Size:      size,
		ETag:      aws.ToString(output.ETag),
		VersionID: aws.ToString(output.VersionId),
		Duration:  time.Since(startTime),
	}, nil
}

// DownloadFile fetches an object into a file on the given filesystem.
// The file is created if missing and truncated otherwise.
func (d *Downloader) DownloadFile(
	ctx context.Context,
	bucket, key, filepath string,
	fsys fs.Filesystem,
	config *blobtypes.DownloadConfig,
	startTime time.Time,
) (*blobtypes.DownloadResult, error) {
	file, err := fsys.Create(filepath)
	if err != nil {
		return nil, errors.NewError("downloadFile", err).WithBucket(bucket).WithKey(key)
	}
	defer file.Close()

	return d.Download(ctx, bucket, key, file, config, startTime)
}

// Get fetches an entire object and returns it as a byte slice.
// This is a convenience method for small objects that fit in memory.
func (d *Downloader) Get(
	ctx context.Context,
	bucket, key string,
	config *blobtypes.DownloadConfig,
	startTime time.Time,
) ([]byte, error) {
	var buf bytes.Buffer
	_, err := d.Download(ctx, bucket, key, &buf, config, startTime)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// validRangeSpec reports whether spec is a well-formed single byte range,
// e.g. "bytes=0-1023", "bytes=500-", or "bytes=-500".
func validRangeSpec(spec string) bool {
	const prefix = "bytes="
	if !strings.HasPrefix(spec, prefix) {
		return false
	}
	start, end, ok := strings.Cut(spec[len(prefix):], "-")
	if !ok || (start == "" && end == "") {
		return false
	}
	for _, part := range []string{start, end} {
		for _, r := range part {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}

// progressReader wraps an io.Reader to track progress
type progressReader struct {
	reader          io.Reader
	progressTracker blobtypes.ProgressTracker
	total           int64
	bytesRead       int64
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	if n > 0 {
		pr.bytesRead += int64(n)
		pr.progressTracker.Update(pr.bytesRead, pr.total)
	}
	//nolint:wrapcheck // io.Reader interface contract - error comes from underlying reader
	return n, err
}
