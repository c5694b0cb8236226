package cache

import (
	"context"
	"testing"
	"time"
)

func TestBucketNames(t *testing.T) {
	if BucketAdminCategories != "ticket-admin-categories" {
		t.Fatalf("list bucket renamed: %q", BucketAdminCategories)
	}
	if got := BucketCategory("bug-report"); got != "ticket-category:bug-report" {
		t.Fatalf("slug bucket: %q", got)
	}
}

func TestNoopStore(t *testing.T) {
	s := New("") // unconfigured -> noop
	ctx := context.Background()
	s.Set(ctx, "k", []byte("v"), time.Minute)
	if _, ok := s.Get(ctx, "k"); ok {
		t.Fatal("noop store must always miss")
	}
	s.Del(ctx, "k") // must not panic
	InvalidateCategory(ctx, s, "bug-report")
}

func TestBadURLFallsBackToNoop(t *testing.T) {
	s := New("not-a-redis-url")
	if _, ok := s.Get(context.Background(), "k"); ok {
		t.Fatal("expected noop fallback")
	}
}
