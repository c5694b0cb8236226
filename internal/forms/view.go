package forms

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ServerResolver maps a server id to its display name.
type ServerResolver interface {
	ServerName(id string) (string, bool)
}

// PlayerProfile is the resolved display form of a steam id.
type PlayerProfile struct {
	SteamID   string `json:"steamId"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// PlayerResolver resolves steam ids to profiles. Best effort: an error means
// the caller falls back to showing raw ids.
type PlayerResolver interface {
	Players(ctx context.Context, ids []string) ([]PlayerProfile, error)
}

// Answer is one decoded question/answer pair of a stored ticket.
type Answer struct {
	Key     string          `json:"key"`
	Label   string          `json:"label"`
	Type    FieldType       `json:"type,omitempty"` // empty when the suffix was unknown
	Display string          `json:"display"`
	Players []PlayerProfile `json:"players,omitempty"`
}

// RenderAnswers rebuilds the Q&A list of a stored content map. It depends
// only on the type tags embedded in the keys, never on the category still
// existing. Keys with an unknown suffix are shown verbatim. Output is sorted
// by key for determinism; stored maps carry no order.
func RenderAnswers(ctx context.Context, content map[string]any, servers ServerResolver, players PlayerResolver) []Answer {
	keys := make([]string, 0, len(content))
	for k := range content {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Answer, 0, len(keys))
	for _, stored := range keys {
		val := content[stored]
		key, t, known := DecodeKey(stored)
		a := Answer{Key: key, Label: labelFor(key), Type: t}
		if !known {
			a.Display = stringify(val)
			out = append(out, a)
			continue
		}
		switch t {
		case FieldServer, FieldServerGrid:
			a.Display = resolveServer(servers, val)
		case FieldPlayersGrid, FieldPlayers:
			a.Players, a.Display = resolvePlayers(ctx, players, val)
		default:
			a.Display = stringify(val)
		}
		out = append(out, a)
	}
	return out
}

// labelFor recovers a display label from a field key: underscores become
// spaces and each word is capitalized.
func labelFor(key string) string {
	words := strings.Split(key, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func resolveServer(servers ServerResolver, val any) string {
	id, ok := val.(string)
	if !ok {
		return stringify(val)
	}
	if servers != nil {
		if name, found := servers.ServerName(id); found {
			return name
		}
	}
	return id // unresolved: raw id beats an error
}

func resolvePlayers(ctx context.Context, players PlayerResolver, val any) ([]PlayerProfile, string) {
	ids, ok := toStringList(val)
	if !ok {
		return nil, stringify(val)
	}
	if players != nil {
		if profiles, err := players.Players(ctx, ids); err == nil && len(profiles) > 0 {
			names := make([]string, 0, len(profiles))
			for _, p := range profiles {
				names = append(names, p.Name)
			}
			return profiles, strings.Join(names, ", ")
		}
	}
	return nil, strings.Join(ids, ", ")
}

// stringify is the fallback display strategy: arrays joined with ", ",
// numbers grouped per locale convention, everything else default-formatted.
func stringify(val any) string {
	switch t := val.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return formatNumber(t)
	case int:
		return formatNumber(float64(t))
	case int64:
		return formatNumber(float64(t))
	case []string:
		return strings.Join(t, ", ")
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			parts = append(parts, stringify(e))
		}
		return strings.Join(parts, ", ")
	}
	return fmt.Sprintf("%v", val)
}

// formatNumber renders with thousands separators (1234567.5 -> "1,234,567.5").
func formatNumber(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, d := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	out := b.String()
	if frac != "" {
		out += "." + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}
