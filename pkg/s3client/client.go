package s3client

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Config struct {
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	UseSSL          bool   `yaml:"use_ssl"`
	Bucket          string `yaml:"bucket"`
}

func (c *Config) Enabled() bool {
	return c != nil && c.Endpoint != ""
}

type Client struct {
	cfg            *Config
	minio          *minio.Client
	ensuredBuckets sync.Map
}

func New(cfg *Config) (*Client, error) {
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}

	c := &Client{
		cfg:   cfg,
		minio: mc,
	}

	return c, nil
}

func (c *Client) EnsureBucket(ctx context.Context, bucket string) error {
	if _, ok := c.ensuredBuckets.Load(bucket); ok {
		return nil
	}

	exists, err := c.minio.BucketExists(ctx, bucket)
	if err != nil {
		return err
	}
	if !exists {
		if err := c.minio.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return err
		}
	}
	c.ensuredBuckets.Store(bucket, struct{}{})
	return nil
}

// Archive stores an aligner document under the configured bucket.
func (c *Client) Archive(ctx context.Context, objectName string, data []byte) error {
	if err := c.EnsureBucket(ctx, c.cfg.Bucket); err != nil {
		return fmt.Errorf("failed to ensure bucket %s: %w", c.cfg.Bucket, err)
	}

	_, err := c.minio.PutObject(ctx, c.cfg.Bucket, objectName, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("failed to put %s: %w", objectName, err)
	}

	return nil
}
