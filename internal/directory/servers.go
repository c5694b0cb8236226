package directory

import (
	"context"
	"log/slog"
	"os"
	"sort"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Server is one game server the community runs; Category groups servers in
// the picker widgets ("Rust", "Minecraft", ...).
type Server struct {
	ID       string `yaml:"id" json:"id"`
	Name     string `yaml:"name" json:"name"`
	Category string `yaml:"category" json:"category"`
	Address  string `yaml:"address,omitempty" json:"address,omitempty"`
}

// Directory serves the server list for the server/server-grid widgets and
// resolves ids for the ticket viewer. The backing YAML file is hot-reloaded
// on change, so adding a server does not need a restart.
type Directory struct {
	mu      sync.RWMutex
	path    string
	servers []Server
	byID    map[string]Server
}

type fileDoc struct {
	Servers []Server `yaml:"servers"`
}

// Load reads the directory file. A missing path yields an empty directory
// (widgets render, resolution falls back to raw ids).
func Load(path string) (*Directory, error) {
	d := &Directory{path: path, byID: map[string]Server{}}
	if path == "" {
		return d, nil
	}
	if err := d.reload(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Directory) reload() error {
	b, err := os.ReadFile(d.path)
	if err != nil {
		return err
	}
	var doc fileDoc
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return err
	}
	byID := make(map[string]Server, len(doc.Servers))
	for _, s := range doc.Servers {
		byID[s.ID] = s
	}
	d.mu.Lock()
	d.servers = doc.Servers
	d.byID = byID
	d.mu.Unlock()
	slog.Info("server directory loaded", "path", d.path, "servers", len(doc.Servers))
	return nil
}

// Watch reloads the file on every write until ctx is done. Reload failures
// keep the last good list.
func (d *Directory) Watch(ctx context.Context) error {
	if d.path == "" {
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(d.path); err != nil {
		w.Close()
		return err
	}
	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					if err := d.reload(); err != nil {
						slog.Warn("server directory reload", "error", err)
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.Warn("server directory watch", "error", err)
			}
		}
	}()
	return nil
}

// Servers returns the current list in file order.
func (d *Directory) Servers() []Server {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Server, len(d.servers))
	copy(out, d.servers)
	return out
}

// Grouped returns servers per category, categories sorted by name, servers
// in file order within each group.
func (d *Directory) Grouped() []ServerGroup {
	d.mu.RLock()
	defer d.mu.RUnlock()
	byCat := map[string][]Server{}
	var order []string
	for _, s := range d.servers {
		if _, seen := byCat[s.Category]; !seen {
			order = append(order, s.Category)
		}
		byCat[s.Category] = append(byCat[s.Category], s)
	}
	sort.Strings(order)
	out := make([]ServerGroup, 0, len(order))
	for _, c := range order {
		out = append(out, ServerGroup{Category: c, Servers: byCat[c]})
	}
	return out
}

type ServerGroup struct {
	Category string   `json:"category"`
	Servers  []Server `json:"servers"`
}

// ServerName implements forms.ServerResolver.
func (d *Directory) ServerName(id string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.byID[id]
	if !ok {
		return "", false
	}
	return s.Name, true
}
