package publish

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"goupi/internal/goupi"
)

// uploader is the part of manager.Uploader used by S3Publisher.
type uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// bucketHeader is the part of s3.Client used to validate the bucket.
type bucketHeader interface {
	HeadBucket(ctx context.Context, input *s3.HeadBucketInput, opts ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3Options configures an S3Publisher.
type S3Options struct {
	Bucket          string
	Prefix          string // prepended to every key
	Region          string
	Endpoint        string // custom endpoint for S3-compatible stores; enables path-style addressing
	AccessKeyID     string
	SecretAccessKey string
}

// S3Publisher uploads a site to an S3 bucket.
type S3Publisher struct {
	name     string
	bucket   string
	prefix   string
	client   bucketHeader
	uploader uploader
}

// NewS3Publisher builds a client from the default AWS configuration chain,
// overridden by any region, endpoint or static credentials in opts.
func NewS3Publisher(ctx context.Context, name string, opts S3Options) (*S3Publisher, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 publisher requires s3_bucket to be set")
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Publisher(name, opts.Bucket, opts.Prefix, client, manager.NewUploader(client)), nil
}

func newS3Publisher(name, bucket, prefix string, client bucketHeader, up uploader) *S3Publisher {
	return &S3Publisher{
		name:     name,
		bucket:   bucket,
		prefix:   prefix,
		client:   client,
		uploader: up,
	}
}

func (p *S3Publisher) Name() string {
	return p.name
}

// Put uploads the object to bucket/prefix/key.
func (p *S3Publisher) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	objectKey := p.objectKey(key)
	_, err := p.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(objectKey),
		Body:          r,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("uploading s3://%s/%s: %w", p.bucket, objectKey, err)
	}
	return nil
}

func (p *S3Publisher) objectKey(key string) string {
	if p.prefix == "" {
		return key
	}
	return path.Join(p.prefix, key)
}

// ValidateSetup checks that the bucket exists and the credentials can reach it.
func (p *S3Publisher) ValidateSetup(ctx context.Context) error {
	if _, err := p.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(p.bucket)}); err != nil {
		return fmt.Errorf("bucket %s not accessible: %w", p.bucket, err)
	}
	return nil
}

var _ goupi.Publisher = (*S3Publisher)(nil)
