package chain

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Writer appends hash-chained JSON lines. Each event carries the hash of its
// predecessor, so truncation or edits in the middle of the file are
// detectable with Verify.
type Writer struct {
	mu   sync.Mutex
	f    *os.File
	prev []byte
}

func NewWriter(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &Writer{f: f, prev: make([]byte, sha256.Size)}, nil
}

func (w *Writer) Close() error { return w.f.Close() }

// Event is one audit record. Kind names the admin action
// (e.g. "ticket-settings.create"), Target the affected entity.
type Event struct {
	Time   time.Time         `json:"time"`
	Kind   string            `json:"kind"`
	Actor  string            `json:"actor"`
	Target string            `json:"target"`
	Meta   map[string]string `json:"meta,omitempty"`
	Prev   string            `json:"prev"`
	Hash   string            `json:"hash"`
}

func (w *Writer) Log(kind, actor, target string, meta map[string]string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	ev := Event{Time: time.Now().UTC(), Kind: kind, Actor: actor, Target: target, Meta: meta, Prev: hex.EncodeToString(w.prev)}
	b, _ := json.Marshal(ev)
	h := sha256.Sum256(append(w.prev, b...))
	ev.Hash = hex.EncodeToString(h[:])
	b, _ = json.Marshal(ev)
	if _, err := w.f.Write(append(b, '\n')); err != nil {
		return err
	}
	copy(w.prev, h[:])
	return nil
}

// Verify re-walks a log file and checks every link of the chain. It returns
// the number of valid events, or an error at the first broken link.
func Verify(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	prev := make([]byte, sha256.Size)
	n := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var ev Event
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			return n, fmt.Errorf("line %d: %w", n+1, err)
		}
		if ev.Prev != hex.EncodeToString(prev) {
			return n, fmt.Errorf("line %d: chain broken", n+1)
		}
		wantHash := ev.Hash
		ev.Hash = ""
		b, _ := json.Marshal(ev)
		h := sha256.Sum256(append(prev, b...))
		if hex.EncodeToString(h[:]) != wantHash {
			return n, fmt.Errorf("line %d: hash mismatch", n+1)
		}
		copy(prev, h[:])
		n++
	}
	return n, sc.Err()
}
