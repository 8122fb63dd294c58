// Package s3store implements the s3 backend on an S3-compatible bucket.
//
// Open is the remote handshake: it builds the client from configuration,
// then checks that the bucket is reachable with the given credentials,
// optionally creating it. Until Open succeeds the backend is not usable.
package s3store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/five82/tally/internal/backend"
)

const defaultRegion = "us-east-1"

// API is the subset of *s3.Client the store needs.
type API interface {
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, in *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Config describes the bucket and credentials.
type Config struct {
	Bucket          string
	Region          string
	Endpoint        string // custom endpoint (MinIO, localstack); enables path-style
	Prefix          string // key prefix inside the bucket
	AccessKeyID     string
	SecretAccessKey string
	CreateBucket    bool
}

// Store is a backend.Driver over S3.
type Store struct {
	cfg Config

	mu     sync.RWMutex
	client API
	open   bool
}

var _ backend.Driver = (*Store)(nil)

// New returns an unopened store. The AWS client is built during Open.
func New(cfg Config) *Store {
	return &Store{cfg: cfg}
}

// NewWithClient returns an unopened store using an existing client.
func NewWithClient(client API, cfg Config) *Store {
	return &Store{cfg: cfg, client: client}
}

func (s *Store) Kind() backend.Kind { return backend.S3 }

// Open builds the client when needed and verifies the bucket.
func (s *Store) Open(ctx context.Context) error {
	if strings.TrimSpace(s.cfg.Bucket) == "" {
		return errors.New("s3 bucket is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.open {
		return nil
	}

	if s.client == nil {
		client, err := newClient(ctx, s.cfg)
		if err != nil {
			return err
		}
		s.client = client
	}

	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.cfg.Bucket)})
	if err != nil {
		if !isNotFound(err) || !s.cfg.CreateBucket {
			return fmt.Errorf("reach bucket %s: %w", s.cfg.Bucket, err)
		}
		if err := s.createBucket(ctx); err != nil {
			return err
		}
	}
	s.open = true
	return nil
}

func (s *Store) createBucket(ctx context.Context) error {
	in := &s3.CreateBucketInput{Bucket: aws.String(s.cfg.Bucket)}
	if region := s.region(); region != defaultRegion {
		in.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(region),
		}
	}
	if _, err := s.client.CreateBucket(ctx, in); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.cfg.Bucket, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, p string) ([]byte, error) {
	p, err := backend.CleanPath(p)
	if err != nil {
		return nil, err
	}
	client, err := s.handle()
	if err != nil {
		return nil, err
	}
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(s.key(p)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, backend.ErrNotFound
		}
		return nil, fmt.Errorf("get object %s: %w", p, err)
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", p, err)
	}
	return data, nil
}

func (s *Store) Put(ctx context.Context, p string, value []byte) error {
	p, err := backend.CleanPath(p)
	if err != nil {
		return err
	}
	client, err := s.handle()
	if err != nil {
		return err
	}
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(s.key(p)),
		Body:        bytes.NewReader(value),
		ContentType: aws.String("application/octet-stream"),
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", p, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	prefix, err := backend.CleanPrefix(prefix)
	if err != nil {
		return nil, err
	}
	client, err := s.handle()
	if err != nil {
		return nil, err
	}

	base := s.key("")
	paginator := s3.NewListObjectsV2Paginator(client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.cfg.Bucket),
		Prefix: aws.String(base + prefix),
	})

	var paths []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list objects %q: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			paths = append(paths, strings.TrimPrefix(aws.ToString(obj.Key), base))
		}
	}
	return paths, nil
}

// Close is a no-op; the AWS client holds no resources that need releasing.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = false
	return nil
}

func (s *Store) handle() (API, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.open {
		return nil, errors.New("s3 store is not open")
	}
	return s.client, nil
}

func (s *Store) key(p string) string {
	prefix := strings.Trim(s.cfg.Prefix, "/")
	if prefix == "" {
		return p
	}
	if p == "" {
		return prefix + "/"
	}
	return path.Join(prefix, p)
}

func (s *Store) region() string {
	if r := strings.TrimSpace(s.cfg.Region); r != "" {
		return r
	}
	return defaultRegion
}

func newClient(ctx context.Context, cfg Config) (*s3.Client, error) {
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = defaultRegion
	}

	var opts []func(*awsconfig.LoadOptions) error
	opts = append(opts, awsconfig.WithRegion(region))
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	if cfg.Endpoint != "" {
		return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}), nil
	}
	return s3.NewFromConfig(awsCfg), nil
}

func isNotFound(err error) bool {
	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return true
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var noBucket *types.NoSuchBucket
	if errors.As(err, &noBucket) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "NoSuchBucket":
			return true
		}
	}
	return false
}
