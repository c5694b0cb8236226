package directory

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleYAML = `servers:
  - id: rust-main
    name: Rust Main
    category: Rust
  - id: mc-survival
    name: Survival
    category: Minecraft
  - id: rust-mods
    name: Rust Modded
    category: Rust
`

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "servers.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAndResolve(t *testing.T) {
	d, err := Load(writeSample(t))
	if err != nil {
		t.Fatal(err)
	}
	if got := len(d.Servers()); got != 3 {
		t.Fatalf("servers: %d", got)
	}
	name, ok := d.ServerName("rust-main")
	if !ok || name != "Rust Main" {
		t.Fatalf("resolve: %q %v", name, ok)
	}
	if _, ok := d.ServerName("gone"); ok {
		t.Fatal("unknown id must not resolve")
	}
}

func TestGrouped(t *testing.T) {
	d, err := Load(writeSample(t))
	if err != nil {
		t.Fatal(err)
	}
	groups := d.Grouped()
	if len(groups) != 2 {
		t.Fatalf("groups: %d", len(groups))
	}
	if groups[0].Category != "Minecraft" || groups[1].Category != "Rust" {
		t.Fatalf("order: %q %q", groups[0].Category, groups[1].Category)
	}
	if len(groups[1].Servers) != 2 || groups[1].Servers[0].ID != "rust-main" {
		t.Fatalf("rust group: %+v", groups[1].Servers)
	}
}

func TestLoadEmptyPath(t *testing.T) {
	d, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if len(d.Servers()) != 0 {
		t.Fatal("expected empty directory")
	}
	if _, ok := d.ServerName("x"); ok {
		t.Fatal("empty directory resolves nothing")
	}
}
