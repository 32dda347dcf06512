package view

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the subset of the S3 client used by S3Source.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source fetches views from an S3 bucket. Object keys are prefix + name.
//
// Example usage:
//
//	src, err := view.NewS3SourceFromConfig(ctx, view.S3Options{
//	    Bucket: "cveboard-views",
//	    Prefix: "v2/",
//	    Region: "eu-west-1",
//	})
type S3Source struct {
	client  S3API
	bucket  string
	prefix  string
	maxSize int64
}

// S3Options configures NewS3SourceFromConfig.
type S3Options struct {
	Bucket string
	Prefix string
	Region string

	// Endpoint overrides the S3 endpoint (e.g. MinIO). Path-style addressing
	// is used when set.
	Endpoint string
}

// defaultMaxViewSize caps a single view object at 4MB.
const defaultMaxViewSize = 4 << 20

// NewS3Source creates an S3Source with an existing client.
func NewS3Source(client S3API, bucket, prefix string) *S3Source {
	return &S3Source{
		client:  client,
		bucket:  bucket,
		prefix:  prefix,
		maxSize: defaultMaxViewSize,
	}
}

// NewS3SourceFromConfig builds an S3 client from the default AWS credential
// chain and wraps it in an S3Source.
func NewS3SourceFromConfig(ctx context.Context, opts S3Options) (*S3Source, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3Source(client, opts.Bucket, opts.Prefix), nil
}

// Open implements Source.
func (s *S3Source) Open(ctx context.Context, name string) ([]byte, error) {
	key := s.prefix + name
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 get %s/%s: %w", s.bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(io.LimitReader(out.Body, s.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("s3 read %s/%s: %w", s.bucket, key, err)
	}
	if int64(len(data)) > s.maxSize {
		return nil, fmt.Errorf("s3 object %s/%s exceeds %d bytes", s.bucket, key, s.maxSize)
	}
	return data, nil
}
