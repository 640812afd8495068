// Package publish uploads rendered images to S3-compatible storage.
package publish

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"github.com/df07/go-ppm-raytracer/pkg/core"
)

// DefaultUploadTimeout bounds a single PutObject call
const DefaultUploadTimeout = 30 * time.Second

// ErrNoBucket is returned when publishing without a configured bucket
var ErrNoBucket = errors.New("no S3 bucket configured")

// S3Config holds the connection settings for an S3-compatible endpoint
type S3Config struct {
	AccessKey string
	SecretKey string
	Endpoint  string // empty uses the AWS default for Region
	Region    string
	Bucket    string
	Prefix    string // key prefix for uploaded objects
	ACL       string // e.g. "public-read"; empty leaves the bucket default
}

// NewS3Client creates an S3 client with static credentials and path-style addressing
func NewS3Client(cfg S3Config) (s3iface.S3API, error) {
	awsConfig := &aws.Config{
		Credentials:      credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, ""),
		Region:           aws.String(cfg.Region),
		S3ForcePathStyle: aws.Bool(true),
	}
	if cfg.Endpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.Endpoint)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 session: %w", err)
	}
	return s3.New(sess), nil
}

// Publisher uploads render artifacts to a single bucket
type Publisher struct {
	client  s3iface.S3API
	bucket  string
	prefix  string
	acl     string
	timeout time.Duration
	logger  core.Logger
}

// NewPublisher creates a publisher for cfg.Bucket using the given client
func NewPublisher(client s3iface.S3API, cfg S3Config, logger core.Logger) (*Publisher, error) {
	if cfg.Bucket == "" {
		return nil, ErrNoBucket
	}
	return &Publisher{
		client:  client,
		bucket:  cfg.Bucket,
		prefix:  cfg.Prefix,
		acl:     cfg.ACL,
		timeout: DefaultUploadTimeout,
		logger:  logger,
	}, nil
}

// SetTimeout overrides the per-upload timeout
func (p *Publisher) SetTimeout(d time.Duration) {
	p.timeout = d
}

// Key returns the object key used for a file name
func (p *Publisher) Key(name string) string {
	if p.prefix == "" {
		return name
	}
	return path.Join(p.prefix, name)
}

// Upload stores data under name and returns the full object key
func (p *Publisher) Upload(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	key := p.Key(name)
	size := int64(len(data))
	input := &s3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	}
	if p.acl != "" {
		input.ACL = aws.String(p.acl)
	}

	if _, err := p.client.PutObjectWithContext(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}

	if p.logger != nil {
		p.logger.Printf("Uploaded %s to s3://%s (%d bytes)\n", key, p.bucket, size)
	}
	return key, nil
}
