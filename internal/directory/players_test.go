package directory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPlayerClientSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/players/search" {
			t.Errorf("path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("q"); got != "alice" {
			t.Errorf("q: %q", got)
		}
		w.Write([]byte(`{"players":[{"steam_id":"76561198000000001","name":"alice","avatar_url":"https://a/1.png"}]}`))
	}))
	defer srv.Close()

	c := NewPlayerClient(srv.URL)
	players, err := c.Search(context.Background(), "alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(players) != 1 || players[0].Name != "alice" {
		t.Fatalf("players: %+v", players)
	}
}

func TestPlayerClientBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("ids"); got != "1,2" {
			t.Errorf("ids: %q", got)
		}
		w.Write([]byte(`{"players":[{"steam_id":"1","name":"a"},{"steam_id":"2","name":"b"}]}`))
	}))
	defer srv.Close()

	c := NewPlayerClient(srv.URL)
	players, err := c.Players(context.Background(), []string{"1", "2"})
	if err != nil {
		t.Fatal(err)
	}
	if len(players) != 2 {
		t.Fatalf("players: %+v", players)
	}
}

func TestPlayerClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewPlayerClient(srv.URL)
	if _, err := c.Search(context.Background(), "x"); err == nil {
		t.Fatal("expected error on 502")
	}
	if got, err := c.Players(context.Background(), nil); err != nil || got != nil {
		t.Fatalf("empty batch: %v %v", got, err)
	}
}

func TestNewPlayerClientEmptyBase(t *testing.T) {
	if NewPlayerClient("") != nil {
		t.Fatal("empty base must yield nil client")
	}
}
