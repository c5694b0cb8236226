package objstore

import (
	"context"
	"io"
	"time"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/s3blob"
)

// blobStore serves both the s3 and local-file drivers through gocloud.
type blobStore struct {
	bk  *blob.Bucket
	ttl time.Duration
}

func openBlob(ctx context.Context, url string, ttl time.Duration) (Store, error) {
	bk, err := blob.OpenBucket(ctx, url)
	if err != nil {
		return nil, err
	}
	if ttl == 0 {
		ttl = 15 * time.Minute
	}
	return &blobStore{bk: bk, ttl: ttl}, nil
}

func (s *blobStore) Put(ctx context.Context, key string, r io.Reader, contentType string) error {
	w, err := s.bk.NewWriter(ctx, sanitizeKey(key), &blob.WriterOptions{ContentType: contentType})
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func (s *blobStore) SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if expiry <= 0 {
		expiry = s.ttl
	}
	return s.bk.SignedURL(ctx, sanitizeKey(key), &blob.SignedURLOptions{Expiry: expiry})
}

func (s *blobStore) Delete(ctx context.Context, key string) error {
	return s.bk.Delete(ctx, sanitizeKey(key))
}
