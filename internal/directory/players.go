package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hxlane/ticketforge/internal/forms"
)

// PlayerClient looks players up in the community's player API. Used by the
// players/players-grid widgets for typeahead search and by the ticket viewer
// to turn stored ids into names and avatars. The backend being down degrades
// to raw ids, never to an error page.
type PlayerClient struct {
	base string
	http *http.Client
}

// NewPlayerClient returns a client, or nil when base is empty. A nil client
// is valid: callers fall back to raw ids.
func NewPlayerClient(base string) *PlayerClient {
	if base == "" {
		return nil
	}
	return &PlayerClient{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: 5 * time.Second},
	}
}

// Search finds players whose name or steam id matches q.
func (c *PlayerClient) Search(ctx context.Context, q string) ([]forms.PlayerProfile, error) {
	u := c.base + "/players/search?q=" + url.QueryEscape(q)
	return c.fetch(ctx, u)
}

// Players resolves a batch of steam ids. Implements forms.PlayerResolver.
func (c *PlayerClient) Players(ctx context.Context, ids []string) ([]forms.PlayerProfile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	u := c.base + "/players?ids=" + url.QueryEscape(strings.Join(ids, ","))
	return c.fetch(ctx, u)
}

func (c *PlayerClient) fetch(ctx context.Context, u string) ([]forms.PlayerProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("player api: status %d", resp.StatusCode)
	}
	var out struct {
		Players []forms.PlayerProfile `json:"players"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out.Players, nil
}
