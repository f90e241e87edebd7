package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ReportArchive keeps a durable copy of rendered reports in object storage.
type ReportArchive interface {
	Upload(ctx context.Context, name string, content []byte) (string, error)
}

type ArchiveOptions struct {
	Bucket    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Prefix    string
}

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type s3Archive struct {
	client objectPutter
	bucket string
	prefix string
}

// NewS3Archive builds an archive over S3 or an S3-compatible endpoint such as R2.
// Static credentials are used when both keys are set, the default chain otherwise.
func NewS3Archive(ctx context.Context, opts ArchiveOptions) (ReportArchive, error) {
	if opts.Bucket == "" {
		return nil, errors.New("archive bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	if opts.AccessKey != "" && opts.SecretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Archive(client, opts.Bucket, opts.Prefix), nil
}

func newS3Archive(client objectPutter, bucket, prefix string) *s3Archive {
	return &s3Archive{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}
}

// Upload stores the report under prefix/name and returns its s3:// location.
func (a *s3Archive) Upload(ctx context.Context, name string, content []byte) (string, error) {
	key := path.Join(a.prefix, name)

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(MimeDOCX),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload report %s: %w", name, err)
	}

	return fmt.Sprintf("s3://%s/%s", a.bucket, key), nil
}
