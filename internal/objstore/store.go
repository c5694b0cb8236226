package objstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Store holds ticket attachments. Keys are ticket-scoped, see AttachmentKey.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type Config struct {
	Driver       string // "s3", "oss", "file", or "" for disabled
	Bucket       string
	Region       string
	Endpoint     string
	AccessKey    string
	SecretKey    string
	BaseDir      string
	SignedURLTTL time.Duration
}

// Open dispatches on Driver. An empty driver returns (nil, nil): attachment
// uploads are rejected but the rest of the service runs.
func Open(ctx context.Context, c Config) (Store, error) {
	switch strings.ToLower(c.Driver) {
	case "":
		return nil, nil
	case "s3":
		if c.Bucket == "" {
			return nil, errors.New("bucket required for s3 driver")
		}
		return openBlob(ctx, buildS3URL(c), c.SignedURLTTL)
	case "oss":
		if c.Bucket == "" || c.Endpoint == "" {
			return nil, errors.New("bucket and endpoint required for oss driver")
		}
		if c.AccessKey == "" || c.SecretKey == "" {
			return nil, errors.New("access_key/secret_key required for oss driver")
		}
		return openOSS(c)
	case "file":
		if c.BaseDir == "" {
			return nil, errors.New("base_dir required for file driver")
		}
		if err := os.MkdirAll(c.BaseDir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure base_dir: %w", err)
		}
		return openBlob(ctx, "file://"+filepath.ToSlash(c.BaseDir)+"?no_tmp_dir=true", c.SignedURLTTL)
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", c.Driver)
	}
}

// AttachmentKey builds the storage key for an uploaded file. The filename is
// flattened so user input cannot introduce path segments.
func AttachmentKey(ticketID uint, filename string) string {
	base := filepath.Base(filepath.ToSlash(filename))
	if base == "." || base == "/" || base == "" {
		base = "attachment"
	}
	return fmt.Sprintf("tickets/%d/%s", ticketID, base)
}

// sanitizeKey prevents path traversal.
func sanitizeKey(key string) string {
	key = strings.TrimLeft(filepath.ToSlash(key), "/")
	parts := strings.Split(key, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" || p == "." || p == ".." {
			continue
		}
		out = append(out, p)
	}
	return strings.Join(out, "/")
}

func buildS3URL(c Config) string {
	u := url.URL{Scheme: "s3", Host: c.Bucket}
	q := url.Values{}
	if c.Region != "" {
		q.Set("region", c.Region)
	}
	if c.Endpoint != "" {
		q.Set("endpoint", c.Endpoint)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
