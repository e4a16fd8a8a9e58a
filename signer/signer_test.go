package signer

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blobworks/blobstore/errors"
)

var testCredential = Credential{
	AccessKeyID:     "AKIDEXAMPLE",
	SecretAccessKey: "wJalrXUtnFEMI/K7MDENG+bPxRfiCYEXAMPLEKEY",
}

func newTestSigner(provider CredentialProvider) *Signer {
	s := New(provider, Config{
		Region:   "us-east-1",
		Endpoint: "https://s3.us-east-1.amazonaws.com",
	})
	s.now = func() time.Time {
		return time.Date(2024, 5, 13, 9, 30, 0, 0, time.UTC)
	}
	return s
}

func TestSign(t *testing.T) {
	s := newTestSigner(StaticCredentialProvider{Credential: testCredential})

	signed, err := s.Sign(context.Background(), Request{
		Method: "GET",
		Bucket: "test-bucket",
		Key:    "reports/q1 2024.pdf",
	}, 15*time.Minute)
	require.NoError(t, err)

	assert.Equal(t, "GET", signed.Method)
	assert.Equal(t, time.Date(2024, 5, 13, 9, 45, 0, 0, time.UTC), signed.Expiry)

	parsed, err := url.Parse(signed.URL)
	require.NoError(t, err)
	assert.Equal(t, "s3.us-east-1.amazonaws.com", parsed.Host)
	assert.Equal(t, "/test-bucket/reports/q1 2024.pdf", parsed.Path)
	assert.True(t, strings.Contains(signed.URL, "reports/q1%202024.pdf"), "space must be %%20 escaped")

	query := parsed.Query()
	assert.Equal(t, "AWS4-HMAC-SHA256", query.Get("X-Amz-Algorithm"))
	assert.Equal(t, "AKIDEXAMPLE/20240513/us-east-1/s3/aws4_request", query.Get("X-Amz-Credential"))
	assert.Equal(t, "20240513T093000Z", query.Get("X-Amz-Date"))
	assert.Equal(t, "900", query.Get("X-Amz-Expires"))
	assert.Equal(t, "host", query.Get("X-Amz-SignedHeaders"))
	assert.Len(t, query.Get("X-Amz-Signature"), 64)
	assert.Empty(t, query.Get("X-Amz-Security-Token"))
}

func TestSignDeterministic(t *testing.T) {
	s := newTestSigner(StaticCredentialProvider{Credential: testCredential})
	req := Request{Method: "PUT", Bucket: "b", Key: "k"}

	first, err := s.Sign(context.Background(), req, time.Hour)
	require.NoError(t, err)
	second, err := s.Sign(context.Background(), req, time.Hour)
	require.NoError(t, err)

	// Same credential, clock, and request sign identically.
	assert.Equal(t, first.URL, second.URL)
}

func TestSignSessionToken(t *testing.T) {
	cred := testCredential
	cred.SessionToken = "FQoGZXIvYXdzEJr"
	s := newTestSigner(StaticCredentialProvider{Credential: cred})

	signed, err := s.Sign(context.Background(), Request{Method: "GET", Bucket: "b", Key: "k"}, time.Minute)
	require.NoError(t, err)

	parsed, err := url.Parse(signed.URL)
	require.NoError(t, err)
	assert.Equal(t, "FQoGZXIvYXdzEJr", parsed.Query().Get("X-Amz-Security-Token"))
}

func TestSignExpiryBounds(t *testing.T) {
	s := newTestSigner(StaticCredentialProvider{Credential: testCredential})
	req := Request{Method: "GET", Bucket: "b", Key: "k"}

	for _, expiry := range []time.Duration{0, -time.Minute, MaxExpiry + time.Second} {
		_, err := s.Sign(context.Background(), req, expiry)
		require.Error(t, err, "expiry %s", expiry)
		assert.True(t, errors.IsInvalidInput(err))
	}
}

type countingProvider struct {
	calls int
	cred  Credential
	err   error
}

func (p *countingProvider) Retrieve(_ context.Context) (Credential, error) {
	p.calls++
	if p.err != nil {
		return Credential{}, p.err
	}
	return p.cred, nil
}

func TestSignBatch(t *testing.T) {
	provider := &countingProvider{cred: testCredential}
	s := newTestSigner(provider)

	reqs := []Request{
		{Method: "GET", Bucket: "b", Key: "first"},
		{Method: "PUT", Bucket: "b", Key: "second"},
		{Method: "DELETE", Bucket: "b", Key: "third"},
	}

	urls, err := s.SignBatch(context.Background(), reqs, 10*time.Minute)
	require.NoError(t, err)
	require.Len(t, urls, 3)

	// One credential fetch for the whole batch.
	assert.Equal(t, 1, provider.calls)

	// Output order matches input order and all URLs share one expiry.
	for i, signed := range urls {
		assert.Equal(t, reqs[i].Method, signed.Method)
		assert.Contains(t, signed.URL, "/b/"+reqs[i].Key+"?")
		assert.Equal(t, urls[0].Expiry, signed.Expiry)
	}
}

func TestSignBatchAtomic(t *testing.T) {
	s := newTestSigner(StaticCredentialProvider{Credential: testCredential})

	reqs := []Request{
		{Method: "GET", Bucket: "b", Key: "ok"},
		{Method: "GET", Bucket: "b", Key: ""}, // unsignable
	}

	urls, err := s.SignBatch(context.Background(), reqs, time.Minute)
	require.Error(t, err)
	assert.Nil(t, urls)
	assert.True(t, stderrors.Is(err, errors.ErrSigning))
}

func TestSignCredentialFailure(t *testing.T) {
	provider := &countingProvider{err: fmt.Errorf("metadata service unreachable")}
	s := newTestSigner(provider)

	_, err := s.Sign(context.Background(), Request{Method: "GET", Bucket: "b", Key: "k"}, time.Minute)
	require.Error(t, err)
	assert.True(t, errors.IsCredential(err))
	assert.Contains(t, err.Error(), "metadata service unreachable")
}
