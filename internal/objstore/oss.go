package objstore

import (
	"context"
	"io"
	"time"

	oss "github.com/aliyun/aliyun-oss-go-sdk/oss"
)

type ossStore struct {
	bk  *oss.Bucket
	ttl time.Duration
}

func openOSS(c Config) (Store, error) {
	cli, err := oss.New(c.Endpoint, c.AccessKey, c.SecretKey)
	if err != nil {
		return nil, err
	}
	bk, err := cli.Bucket(c.Bucket)
	if err != nil {
		return nil, err
	}
	ttl := c.SignedURLTTL
	if ttl == 0 {
		ttl = 15 * time.Minute
	}
	return &ossStore{bk: bk, ttl: ttl}, nil
}

func (s *ossStore) Put(_ context.Context, key string, r io.Reader, contentType string) error {
	var opts []oss.Option
	if contentType != "" {
		opts = append(opts, oss.ContentType(contentType))
	}
	return s.bk.PutObject(sanitizeKey(key), r, opts...)
}

func (s *ossStore) SignedURL(_ context.Context, key string, expiry time.Duration) (string, error) {
	if expiry <= 0 {
		expiry = s.ttl
	}
	return s.bk.SignURL(sanitizeKey(key), oss.HTTPGet, int64(expiry/time.Second))
}

func (s *ossStore) Delete(_ context.Context, key string) error {
	return s.bk.DeleteObject(sanitizeKey(key))
}
