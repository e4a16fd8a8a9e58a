package blobstore

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/input-output-hk/catalyst-forge-libs/fs"
	"github.com/input-output-hk/catalyst-forge-libs/fs/billy"

	"github.com/blobworks/blobstore/blobtypes"
	"github.com/blobworks/blobstore/errors"
	"github.com/blobworks/blobstore/internal/backendapi"
	"github.com/blobworks/blobstore/internal/operations/copy"
	"github.com/blobworks/blobstore/internal/operations/delete"
	"github.com/blobworks/blobstore/internal/operations/download"
	"github.com/blobworks/blobstore/internal/operations/list"
	"github.com/blobworks/blobstore/internal/operations/upload"
	"github.com/blobworks/blobstore/signer"
)

// Default tuning values applied when options leave them unset.
const (
	defaultMaxRetries  = 3
	defaultConcurrency = 5
	defaultMinPartSize = 8 * 1024 * 1024
)

// Client provides thread-safe access to object storage operations with
// built-in retry logic, concurrency control, and progress tracking.
type Client struct {
	// api is the backend interface all operations go through
	api backendapi.API

	// rawClient holds the actual SDK client when one was constructed
	rawClient *s3.Client

	// config holds the resolved AWS configuration
	config aws.Config

	// clientCfg holds the resolved client options
	clientCfg blobtypes.ClientConfig

	// mu protects concurrent access to client configuration
	mu sync.RWMutex

	// fs is the filesystem abstraction for file operations
	fs fs.Filesystem

	urlSigner *signer.Signer

	uploader   *upload.Uploader
	downloader *download.Downloader
	copier     *copy.Copier
	deleter    *delete.BatchDeleter
	lister     *list.Lister
}

// New creates a new client with the provided options.
// It loads credentials using the default credential chain and applies the
// specified configuration options.
//
// Example:
//
//	client, err := blobstore.New(
//	    blobstore.WithRegion("us-west-2"),
//	    blobstore.WithMaxRetries(3),
//	)
func New(opts ...blobtypes.Option) (*Client, error) {
	clientCfg := blobtypes.ClientConfig{
		MaxRetries:  defaultMaxRetries,
		Concurrency: defaultConcurrency,
		MinPartSize: defaultMinPartSize,
	}

	for _, opt := range opts {
		opt(&clientCfg)
	}

	var cfg aws.Config
	var err error

	if clientCfg.CustomAWSConfig != nil {
		cfg = *clientCfg.CustomAWSConfig
	} else {
		cfg, err = config.LoadDefaultConfig(context.Background())
		if err != nil {
			return nil, errors.NewError("client initialization", err)
		}
	}

	if clientCfg.Region != "" {
		cfg.Region = clientCfg.Region
	} else if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	if sc := clientCfg.StaticCredentials; sc != nil {
		cfg.Credentials = credentials.NewStaticCredentialsProvider(
			sc.AccessKeyID, sc.SecretAccessKey, sc.SessionToken)
	}

	if clientCfg.MaxRetries > 0 {
		cfg.RetryMaxAttempts = clientCfg.MaxRetries
	}

	var s3Opts []func(*s3.Options)

	if clientCfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	if clientCfg.Endpoint != "" {
		endpoint := clientCfg.Endpoint
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}

	if clientCfg.CustomHTTPClient != nil {
		httpClient := clientCfg.CustomHTTPClient
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.HTTPClient = httpClient
		})
	} else if clientCfg.Timeout > 0 {
		httpClient := &http.Client{
			Timeout: clientCfg.Timeout,
		}
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.HTTPClient = httpClient
		})
	}

	s3Client := s3.NewFromConfig(cfg, s3Opts...)

	signEndpoint := clientCfg.Endpoint
	if signEndpoint == "" {
		signEndpoint = fmt.Sprintf("https://s3.%s.amazonaws.com", cfg.Region)
	}
	urlSigner := signer.New(
		signer.AWSCredentialProvider{Provider: cfg.Credentials},
		signer.Config{Region: cfg.Region, Endpoint: signEndpoint},
	)

	var filesystem fs.Filesystem
	if clientCfg.Filesystem != nil {
		filesystem = clientCfg.Filesystem
	} else {
		filesystem = billy.NewOSFS("/")
	}

	client := &Client{
		api:       s3Client,
		rawClient: s3Client,
		config:    cfg,
		clientCfg: clientCfg,
		fs:        filesystem,
		urlSigner: urlSigner,
	}
	client.initOperations()

	return client, nil
}

// NewWithClient creates a client around a custom backend implementation.
// This is primarily used for testing with mocked clients.
func NewWithClient(api backendapi.API) *Client {
	client := &Client{
		api: api,
		clientCfg: blobtypes.ClientConfig{
			MaxRetries:  defaultMaxRetries,
			Concurrency: defaultConcurrency,
			MinPartSize: defaultMinPartSize,
		},
		config: aws.Config{},
		fs:     billy.NewOSFS("/"),
	}
	client.initOperations()
	return client
}

func (c *Client) initOperations() {
	c.uploader = upload.New(c.api)
	c.downloader = download.New(c.api)
	c.copier = copy.NewCopier(c.api)
	c.deleter = delete.New(c.api)
	c.lister = list.New(c.api)
}

// SetFilesystem sets the filesystem implementation for the client.
// This is useful for testing or redirecting file operations.
func (c *Client) SetFilesystem(filesystem fs.Filesystem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fs = filesystem
}

// SetSigner replaces the URL signer. Clients created with NewWithClient
// have no signer until one is set.
func (c *Client) SetSigner(s *signer.Signer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.urlSigner = s
}

func (c *Client) filesystem() fs.Filesystem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fs
}

func (c *Client) signerRef() *signer.Signer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.urlSigner
}

// Close releases any resources held by the client.
// Currently a no-op but included for future extensibility.
func (c *Client) Close() error {
	return nil
}
