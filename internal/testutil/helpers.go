package testutil

import (
	"bytes"
	"io"
	"time"
)

// BodyFrom wraps a byte slice in a ReadCloser suitable for response bodies.
func BodyFrom(data []byte) io.ReadCloser {
	return io.NopCloser(bytes.NewReader(data))
}

// StringPtr returns a pointer to the given string.
func StringPtr(s string) *string {
	return &s
}

// BoolPtr returns a pointer to the given bool.
func BoolPtr(b bool) *bool {
	return &b
}

// Int32Ptr returns a pointer to the given int32.
func Int32Ptr(i int32) *int32 {
	return &i
}

// Int64Ptr returns a pointer to the given int64.
func Int64Ptr(i int64) *int64 {
	return &i
}

// TimePtr returns a pointer to the given time.
func TimePtr(t time.Time) *time.Time {
	return &t
}
