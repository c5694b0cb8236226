package token

import (
	"testing"
	"time"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	m := NewManager("secret")
	tok, err := m.Sign(Identity{Username: "alice", UserID: 7, Roles: []string{"support"}}, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	id, err := m.Verify(tok)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if id.Username != "alice" || id.UserID != 7 || len(id.Roles) != 1 {
		t.Fatalf("identity: %+v", id)
	}
}

func TestVerifyRejects(t *testing.T) {
	m := NewManager("secret")
	tok, _ := m.Sign(Identity{Username: "alice"}, time.Hour)

	if _, err := NewManager("other").Verify(tok); err == nil {
		t.Fatal("wrong secret accepted")
	}
	if _, err := m.Verify("not.a.token"); err == nil {
		t.Fatal("garbage accepted")
	}
	if _, err := m.Verify(tok + "x"); err == nil {
		t.Fatal("tampered signature accepted")
	}

	expired, _ := m.Sign(Identity{Username: "alice"}, -time.Minute)
	if _, err := m.Verify(expired); err == nil {
		t.Fatal("expired token accepted")
	}
}
