// Package signer issues time-limited presigned URLs for direct object
// access. Signing is done locally from a credential; no network round trip
// is needed per URL.
package signer

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/blobworks/blobstore/blobtypes"
	"github.com/blobworks/blobstore/errors"
)

const (
	algorithm       = "AWS4-HMAC-SHA256"
	serviceName     = "s3"
	unsignedPayload = "UNSIGNED-PAYLOAD"

	// MaxExpiry is the longest lifetime a presigned URL may carry.
	MaxExpiry = 7 * 24 * time.Hour
)

// Credential is one set of signing material.
type Credential struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// CredentialProvider supplies signing credentials on demand.
type CredentialProvider interface {
	Retrieve(ctx context.Context) (Credential, error)
}

// StaticCredentialProvider returns a fixed credential.
type StaticCredentialProvider struct {
	Credential Credential
}

// Retrieve implements CredentialProvider.
func (p StaticCredentialProvider) Retrieve(_ context.Context) (Credential, error) {
	return p.Credential, nil
}

// AWSCredentialProvider adapts an SDK credentials provider, so the signer
// can share the credential chain the client already resolved.
type AWSCredentialProvider struct {
	Provider aws.CredentialsProvider
}

// Retrieve implements CredentialProvider.
func (p AWSCredentialProvider) Retrieve(ctx context.Context) (Credential, error) {
	creds, err := p.Provider.Retrieve(ctx)
	if err != nil {
		return Credential{}, err
	}
	return Credential{
		AccessKeyID:     creds.AccessKeyID,
		SecretAccessKey: creds.SecretAccessKey,
		SessionToken:    creds.SessionToken,
	}, nil
}

// Config holds signer settings.
type Config struct {
	// Region is the signing region.
	Region string
	// Endpoint is the base endpoint, e.g. "https://s3.us-east-1.amazonaws.com".
	// Bucket and key are appended path-style.
	Endpoint string
}

// Request identifies one object access to authorize.
type Request struct {
	Method string
	Bucket string
	Key    string
}

// Signer issues presigned URLs from a credential provider.
type Signer struct {
	provider CredentialProvider
	region   string
	endpoint string

	now func() time.Time
}

// New creates a Signer.
func New(provider CredentialProvider, cfg Config) *Signer {
	return &Signer{
		provider: provider,
		region:   cfg.Region,
		endpoint: strings.TrimSuffix(cfg.Endpoint, "/"),
		now:      time.Now,
	}
}

// Sign issues one presigned URL valid for expiresIn from now.
func (s *Signer) Sign(ctx context.Context, req Request, expiresIn time.Duration) (blobtypes.SignedURL, error) {
	urls, err := s.SignBatch(ctx, []Request{req}, expiresIn)
	if err != nil {
		return blobtypes.SignedURL{}, err
	}
	return urls[0], nil
}

// SignBatch issues presigned URLs for all requests, in input order. The
// credential is fetched exactly once and the expiry instant is computed
// once, so every URL in the batch lapses at the same moment. If any request
// cannot be signed, no URLs are returned.
func (s *Signer) SignBatch(ctx context.Context, reqs []Request, expiresIn time.Duration) ([]blobtypes.SignedURL, error) {
	if expiresIn <= 0 || expiresIn > MaxExpiry {
		return nil, errors.NewError("sign", errors.ErrInvalidInput).
			WithMessage(fmt.Sprintf("expiry must be in (0, %s], got %s", MaxExpiry, expiresIn))
	}

	cred, err := s.provider.Retrieve(ctx)
	if err != nil {
		return nil, errors.NewError("sign", fmt.Errorf("%w: %w", errors.ErrCredential, err))
	}
	if cred.AccessKeyID == "" || cred.SecretAccessKey == "" {
		return nil, errors.NewError("sign", errors.ErrCredential).
			WithMessage("provider returned empty credential")
	}

	now := s.now().UTC()
	expiry := now.Add(expiresIn)

	urls := make([]blobtypes.SignedURL, 0, len(reqs))
	for _, req := range reqs {
		signed, err := s.presign(cred, req, now, expiresIn)
		if err != nil {
			return nil, errors.NewObjectError("sign", req.Bucket, req.Key,
				fmt.Errorf("%w: %w", errors.ErrSigning, err))
		}
		urls = append(urls, blobtypes.SignedURL{
			URL:    signed,
			Method: req.Method,
			Expiry: expiry,
		})
	}

	return urls, nil
}

// presign builds one query-signed URL.
func (s *Signer) presign(cred Credential, req Request, now time.Time, expiresIn time.Duration) (string, error) {
	if req.Method == "" || req.Bucket == "" || req.Key == "" {
		return "", fmt.Errorf("method, bucket, and key are required")
	}

	base, err := url.Parse(s.endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}
	host := base.Host
	if host == "" {
		return "", fmt.Errorf("endpoint %q has no host", s.endpoint)
	}

	date := now.Format("20060102")
	datetime := now.Format("20060102T150405Z")
	scope := fmt.Sprintf("%s/%s/%s/aws4_request", date, s.region, serviceName)

	canonicalURI := "/" + req.Bucket + "/" + escapePath(req.Key)

	query := url.Values{}
	query.Set("X-Amz-Algorithm", algorithm)
	query.Set("X-Amz-Credential", cred.AccessKeyID+"/"+scope)
	query.Set("X-Amz-Date", datetime)
	query.Set("X-Amz-Expires", fmt.Sprintf("%d", int64(expiresIn.Seconds())))
	query.Set("X-Amz-SignedHeaders", "host")
	if cred.SessionToken != "" {
		query.Set("X-Amz-Security-Token", cred.SessionToken)
	}

	canonicalQuery := canonicalQueryString(query)
	canonicalHeaders := "host:" + host + "\n"

	canonicalRequest := strings.Join([]string{
		req.Method,
		canonicalURI,
		canonicalQuery,
		canonicalHeaders,
		"host",
		unsignedPayload,
	}, "\n")

	stringToSign := strings.Join([]string{
		algorithm,
		datetime,
		scope,
		sha256Hex([]byte(canonicalRequest)),
	}, "\n")

	signature := hex.EncodeToString(hmacSHA256(
		signingKey(cred.SecretAccessKey, date, s.region),
		[]byte(stringToSign),
	))

	return base.Scheme + "://" + host + canonicalURI + "?" + canonicalQuery +
		"&X-Amz-Signature=" + signature, nil
}

// canonicalQueryString encodes query parameters in sorted order with
// strict RFC 3986 escaping, as the signature requires.
func canonicalQueryString(query url.Values) string {
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, escapeQuery(k)+"="+escapeQuery(query.Get(k)))
	}
	return strings.Join(parts, "&")
}

// escapePath escapes a key for use in the canonical URI, preserving the
// "/" separators between segments.
func escapePath(key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = escapeQuery(seg)
	}
	return strings.Join(segments, "/")
}

// escapeQuery applies the strict percent-encoding the signature algorithm
// expects: everything except unreserved characters is escaped, spaces
// become %20, and hex digits are uppercase.
func escapeQuery(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z',
			c >= 'A' && c <= 'Z',
			c >= '0' && c <= '9',
			c == '-', c == '.', c == '_', c == '~':
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}

func signingKey(secret, date, region string) []byte {
	kDate := hmacSHA256([]byte("AWS4"+secret), []byte(date))
	kRegion := hmacSHA256(kDate, []byte(region))
	kService := hmacSHA256(kRegion, []byte(serviceName))
	return hmacSHA256(kService, []byte("aws4_request"))
}

func hmacSHA256(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
