// Package s3blob stores the paper-trade ledger and pass snapshots in an
// S3-compatible bucket (AWS, MinIO, R2, iDrive e2) using AWS SDK v2.
package s3blob

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ClientConfig describes the bucket holding the ledger and archives.
type ClientConfig struct {
	Endpoint       string // empty for AWS itself
	Region         string
	Bucket         string
	AccessKey      string
	SecretKey      string
	UseSSL         bool // scheme used when Endpoint has none
	ForcePathStyle bool
}

// Validate reports the first missing required field.
func (cfg ClientConfig) Validate() error {
	switch {
	case strings.TrimSpace(cfg.Bucket) == "":
		return errors.New("s3blob: bucket name is required")
	case strings.TrimSpace(cfg.Region) == "":
		return errors.New("s3blob: region is required")
	case (cfg.AccessKey == "") != (cfg.SecretKey == ""):
		return errors.New("s3blob: access key and secret key must be set together")
	}
	return nil
}

// Client holds the SDK client bound to one bucket.
type Client struct {
	s3     *s3.Client
	bucket string
}

// New builds a Client for cfg. Static credentials are used when a key pair
// is configured; otherwise the SDK's default chain applies.
func New(ctx context.Context, cfg ClientConfig) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("s3blob: load aws config: %w", err)
	}

	return &Client{
		s3:     s3.NewFromConfig(awsCfg, clientOptions(cfg)),
		bucket: cfg.Bucket,
	}, nil
}

func clientOptions(cfg ClientConfig) func(*s3.Options) {
	return func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(normaliseEndpoint(cfg.Endpoint, cfg.UseSSL))
		}
		o.UsePathStyle = cfg.ForcePathStyle
	}
}

// Health checks that the bucket is reachable with the configured
// credentials. Its signature matches the server's health probe.
func (c *Client) Health(ctx context.Context) error {
	if _, err := c.s3.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(c.bucket)}); err != nil {
		return fmt.Errorf("s3blob: head bucket %s: %w", c.bucket, err)
	}
	return nil
}

// S3 returns the SDK client for the reader and writer.
func (c *Client) S3() *s3.Client { return c.s3 }

// Bucket returns the bound bucket name.
func (c *Client) Bucket() string { return c.bucket }

// normaliseEndpoint prefixes a scheme when endpoint has none.
func normaliseEndpoint(endpoint string, useSSL bool) string {
	if u, err := url.Parse(endpoint); err == nil && u.Scheme != "" && u.Host != "" {
		return endpoint
	}
	if useSSL {
		return "https://" + endpoint
	}
	return "http://" + endpoint
}
