// Package multipart implements a streaming multipart upload engine.
//
// The Writer accepts a stream of writes of arbitrary size, accumulates them
// into parts of at least a configured minimum size, and uploads parts
// concurrently through a PartUploader. Part indices are assigned in the order
// parts are carved from the stream, so the completed part list always reflects
// stream order regardless of upload completion order.
package multipart

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/blobworks/blobstore/blobtypes"
	"github.com/blobworks/blobstore/internal/pool"
)

const (
	// DefaultMinPartSize is the minimum accumulated size before a part is
	// carved from the stream (5MB).
	DefaultMinPartSize = 5 * 1024 * 1024
	// DefaultConcurrency is the default number of concurrent part uploads.
	DefaultConcurrency = 8
)

// PartUploader uploads individual parts and finalizes the assembled object.
// Implementations are responsible for tracking whatever backend state
// (upload session, destination key) the parts belong to.
type PartUploader interface {
	// UploadPart uploads one part. The data slice must not be retained
	// after the call returns. Index is zero-based and unique per part.
	UploadPart(ctx context.Context, data []byte, index int) (blobtypes.PartID, error)

	// Complete finalizes the object from the given parts. The parts are
	// ordered by index with no gaps.
	Complete(ctx context.Context, parts []blobtypes.PartID) error
}

// Config controls Writer behavior.
type Config struct {
	// MinPartSize is the minimum part size in bytes. Parts are carved once
	// the accumulation buffer reaches this size. Zero means DefaultMinPartSize.
	MinPartSize int64
	// Concurrency is the maximum number of parts uploading at once.
	// Zero means DefaultConcurrency.
	Concurrency int
}

// Writer streams data to a PartUploader as an io.WriteCloser.
// It is not safe for concurrent use by multiple goroutines.
type Writer struct {
	ctx      context.Context
	uploader PartUploader
	minPart  int64
	sem      chan struct{}
	wg       sync.WaitGroup

	buf       []byte
	nextIndex int

	mu    sync.Mutex
	parts []blobtypes.PartID
	err   error

	closed   bool
	closeErr error
}

// NewWriter creates a streaming multipart writer. The context governs all
// part uploads and the final completion call.
func NewWriter(ctx context.Context, uploader PartUploader, cfg Config) *Writer {
	minPart := cfg.MinPartSize
	if minPart <= 0 {
		minPart = DefaultMinPartSize
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Writer{
		ctx:      ctx,
		uploader: uploader,
		minPart:  minPart,
		sem:      make(chan struct{}, concurrency),
	}
}

// Write accumulates p and carves a part once the accumulated data reaches
// the minimum part size. It blocks when the configured number of part
// uploads is already in flight.
func (w *Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, fmt.Errorf("write on closed multipart writer")
	}
	if err := w.firstError(); err != nil {
		return 0, err
	}

	if w.buf == nil {
		w.buf = pool.Get(int(w.minPart))
	}
	w.buf = append(w.buf, p...)

	if int64(len(w.buf)) >= w.minPart {
		if err := w.carve(); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

// carve dispatches the entire accumulation buffer as one part.
func (w *Writer) carve() error {
	data := w.buf
	w.buf = nil
	index := w.nextIndex
	w.nextIndex++

	// Reserve the slot for this index before the upload completes so the
	// completed list keeps stream order.
	w.mu.Lock()
	w.parts = append(w.parts, blobtypes.PartID{Index: index})
	w.mu.Unlock()

	if err := w.ctx.Err(); err != nil {
		w.recordError(err)
		return err
	}

	// Backpressure: block the stream until an upload slot frees up.
	select {
	case w.sem <- struct{}{}:
	case <-w.ctx.Done():
		w.recordError(w.ctx.Err())
		return w.ctx.Err()
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer func() { <-w.sem }()

		part, err := w.uploader.UploadPart(w.ctx, data, index)
		pool.Put(data)
		if err != nil {
			w.recordError(err)
			return
		}

		w.mu.Lock()
		w.parts[index] = part
		w.mu.Unlock()
	}()
	return nil
}

// Close flushes any buffered data as a final part, waits for all in-flight
// uploads, and finalizes the object. If any part failed, Close returns the
// first failure and the object is never finalized. Close does not reclaim
// already-uploaded parts; backend lifecycle policy is expected to expire
// orphaned parts.
func (w *Writer) Close() error {
	if w.closed {
		return w.closeErr
	}
	w.closed = true
	w.closeErr = w.finish()
	return w.closeErr
}

func (w *Writer) finish() error {
	// A failed part already dooms the session; don't waste an upload on
	// the buffered remainder.
	if err := w.firstError(); err != nil {
		w.wg.Wait()
		if w.buf != nil {
			pool.Put(w.buf)
			w.buf = nil
		}
		return err
	}

	// A final short part is always allowed. An object with no writes still
	// gets one empty part so completion produces a zero-byte object.
	if len(w.buf) > 0 || w.nextIndex == 0 {
		if w.buf == nil {
			w.buf = []byte{}
		}
		if err := w.carve(); err != nil {
			w.wg.Wait()
			return err
		}
	}

	w.wg.Wait()

	if err := w.firstError(); err != nil {
		return err
	}

	w.mu.Lock()
	parts := make([]blobtypes.PartID, len(w.parts))
	copy(parts, w.parts)
	w.mu.Unlock()

	sort.Slice(parts, func(i, j int) bool { return parts[i].Index < parts[j].Index })

	return w.uploader.Complete(w.ctx, parts)
}

func (w *Writer) firstError() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

func (w *Writer) recordError(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err == nil {
		w.err = err
	}
}
