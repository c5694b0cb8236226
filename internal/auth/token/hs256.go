package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Manager signs and verifies HS256 session tokens.
type Manager struct{ secret []byte }

func NewManager(secret string) *Manager { return &Manager{secret: []byte(secret)} }

// Identity is the verified content of a session token.
type Identity struct {
	Username string
	UserID   uint
	Roles    []string
}

type claims struct {
	Sub   string   `json:"sub"`
	UID   uint     `json:"uid"`
	Roles []string `json:"roles"`
	Exp   int64    `json:"exp"`
}

func b64enc(b []byte) string          { return base64.RawURLEncoding.EncodeToString(b) }
func b64dec(s string) ([]byte, error) { return base64.RawURLEncoding.DecodeString(s) }

func (m *Manager) Sign(id Identity, ttl time.Duration) (string, error) {
	header := map[string]string{"alg": "HS256", "typ": "JWT"}
	h, _ := json.Marshal(header)
	c, _ := json.Marshal(claims{Sub: id.Username, UID: id.UserID, Roles: id.Roles, Exp: time.Now().Add(ttl).Unix()})
	payload := b64enc(h) + "." + b64enc(c)
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(payload))
	return payload + "." + b64enc(mac.Sum(nil)), nil
}

func (m *Manager) Verify(tok string) (Identity, error) {
	parts := strings.Split(tok, ".")
	if len(parts) != 3 {
		return Identity{}, errors.New("bad token")
	}
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(parts[0] + "." + parts[1]))
	got, err := b64dec(parts[2])
	if err != nil {
		return Identity{}, err
	}
	if !hmac.Equal(mac.Sum(nil), got) {
		return Identity{}, errors.New("bad signature")
	}
	cb, err := b64dec(parts[1])
	if err != nil {
		return Identity{}, err
	}
	var c claims
	if err := json.Unmarshal(cb, &c); err != nil {
		return Identity{}, err
	}
	if c.Exp > 0 && time.Now().Unix() > c.Exp {
		return Identity{}, errors.New("expired")
	}
	return Identity{Username: c.Sub, UserID: c.UID, Roles: c.Roles}, nil
}
