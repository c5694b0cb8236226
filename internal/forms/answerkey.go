package forms

import "strings"

// keySep joins a field key and its type tag in stored ticket content.
// This is a storage contract: existing tickets carry it, so it must not
// change.
const keySep = "--"

// EncodeKey builds the self-describing content key "<key>--<type>".
func EncodeKey(key string, t FieldType) string { return key + keySep + string(t) }

// DecodeKey splits a stored content key into the field key and its type tag.
// known is false when the suffix is not one of the supported types (or there
// is no separator at all); callers must then fall back to verbatim display.
// Splitting on the last separator keeps keys that legitimately contain "--"
// (none are produced by Slugify, but stored data is ground truth) decodable.
func DecodeKey(stored string) (key string, t FieldType, known bool) {
	i := strings.LastIndex(stored, keySep)
	if i < 0 {
		return stored, "", false
	}
	key, t = stored[:i], FieldType(stored[i+len(keySep):])
	if !ValidType(t) {
		return stored, "", false
	}
	return key, t, true
}

// EncodeContent maps raw {key: value} answers to the stored
// {"<key>--<type>": value} shape. Only keys that exist in the category are
// encoded; anything else was never part of the schema and is dropped.
func EncodeContent(c *Category, values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for _, st := range c.Steps {
		for _, f := range st.Fields {
			if v, ok := values[f.Key]; ok {
				out[EncodeKey(f.Key, f.Type)] = v
			}
		}
	}
	return out
}
