package objstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAttachmentKey(t *testing.T) {
	if got := AttachmentKey(42, "crash.log"); got != "tickets/42/crash.log" {
		t.Fatalf("got %q", got)
	}
	if got := AttachmentKey(7, "../../etc/passwd"); got != "tickets/7/passwd" {
		t.Fatalf("traversal not flattened: %q", got)
	}
	if got := AttachmentKey(7, ""); got != "tickets/7/attachment" {
		t.Fatalf("empty name: %q", got)
	}
}

func TestSanitizeKey(t *testing.T) {
	if got := sanitizeKey("/a/../b//c"); got != "a/b/c" {
		t.Fatalf("got %q", got)
	}
}

func TestOpenFileDriverRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(context.Background(), Config{Driver: "file", BaseDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	key := AttachmentKey(1, "note.txt")
	if err := s.Put(ctx, key, strings.NewReader("hello"), "text/plain"); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(filepath.Join(dir, "tickets", "1", "note.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "hello" {
		t.Fatalf("content: %q", b)
	}
	if err := s.Delete(ctx, key); err != nil {
		t.Fatal(err)
	}
}

func TestOpenDisabled(t *testing.T) {
	s, err := Open(context.Background(), Config{})
	if err != nil || s != nil {
		t.Fatalf("disabled driver: %v %v", s, err)
	}
	if _, err := Open(context.Background(), Config{Driver: "ftp"}); err == nil {
		t.Fatal("unknown driver accepted")
	}
}
