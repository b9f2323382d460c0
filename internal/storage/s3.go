package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/CleanAfricaNow/civic-service/internal/config"
)

// Client uploads citizen photos and registration documents to an
// S3-compatible bucket and hands back public URLs.
type Client struct {
	s3         *s3.Client
	bucket     string
	publicBase string
}

type Option func(*Client)

func WithPublicBase(base string) Option {
	return func(c *Client) { c.publicBase = strings.TrimRight(base, "/") }
}

func NewClient(ctx context.Context, cfg config.StorageConfig, opts ...Option) (*Client, error) {
	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("storage: load aws config: %w", err)
	}

	s3Opts := func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	}

	c := &Client{
		s3:         s3.NewFromConfig(awsCfg, s3Opts),
		bucket:     cfg.Bucket,
		publicBase: strings.TrimRight(cfg.PublicBase, "/"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Upload stores the object under a date-partitioned random key and
// returns its public URL. prefix segments the namespace, e.g. "reports"
// or "registration-docs".
func (c *Client) Upload(ctx context.Context, prefix string, body io.Reader, size int64, contentType string) (string, error) {
	key := fmt.Sprintf("%s/%s/%s", prefix, time.Now().Format("2006/01/02"), uuid.NewString())

	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("storage: put %s: %w", key, err)
	}
	return c.URL(key), nil
}

// Delete removes a previously uploaded object by its public URL.
// Unknown URLs are ignored.
func (c *Client) Delete(ctx context.Context, publicURL string) error {
	key, ok := c.keyFromURL(publicURL)
	if !ok {
		return nil
	}
	_, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("storage: delete %s: %w", key, err)
	}
	return nil
}

func (c *Client) URL(key string) string {
	return c.publicBase + "/" + key
}

func (c *Client) keyFromURL(u string) (string, bool) {
	if c.publicBase == "" || !strings.HasPrefix(u, c.publicBase+"/") {
		return "", false
	}
	return strings.TrimPrefix(u, c.publicBase+"/"), true
}
