package forms

import (
	"strconv"
	"strings"
	"unicode"
)

// Options carries the type-specific settings of a field. Which keys are
// meaningful depends on the field type (see typeTable.OptionKeys); unknown
// keys are preserved on load but ignored by the compiler.
type Options struct {
	MinLength   *int     `json:"minLength,omitempty"`
	MaxLength   *int     `json:"maxLength,omitempty"`
	Min         *float64 `json:"min,omitempty"` // value bound for number, cardinality bound for player lists
	Max         *float64 `json:"max,omitempty"`
	Placeholder string   `json:"placeholder,omitempty"`
	Description string   `json:"description,omitempty"`
	DefaultValue *bool   `json:"defaultValue,omitempty"`
	EnumOptions []string `json:"enumOptions,omitempty"`
	MinDate     string   `json:"minDate,omitempty"` // ISO date
	MaxDate     string   `json:"maxDate,omitempty"`
}

// Field is one question in a step.
type Field struct {
	Key      string    `json:"key"`
	Label    string    `json:"label"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required"`
	Options  Options   `json:"options"`
}

// Step is one page of the submission wizard. Order of Fields is the display
// and validation order; there is no other ordering source.
type Step struct {
	ID     uint    `json:"id,omitempty"` // assigned on persist, 0 until then
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`
}

// Category is an admin-defined ticket template.
type Category struct {
	Slug  string `json:"slug"`
	Name  string `json:"name"`
	Steps []Step `json:"steps"`
}

// NewField builds a field with its key derived from the label.
func NewField(label string, t FieldType, required bool, opts Options) Field {
	return Field{Key: Slugify(label), Label: label, Type: t, Required: required, Options: opts}
}

// Slugify lowercases s and collapses every run of non-alphanumeric characters
// to a single underscore. The result never contains '-', so it can never
// collide with the "--" answer-key separator.
func Slugify(s string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.TrimSpace(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(unicode.ToLower(r))
		default:
			pendingSep = true
		}
	}
	return b.String()
}

// Validate checks the category invariants: non-empty name, at least one step,
// named steps, valid field types, and non-empty keys unique within each step.
// Two fields whose labels slugify to the same key are rejected rather than
// silently overwriting each other in the stored answer map.
// Steps may have zero fields while being edited.
func (c *Category) Validate() FieldErrors {
	errs := FieldErrors{}
	if strings.TrimSpace(c.Name) == "" {
		errs["name"] = "name is required"
	}
	if strings.HasPrefix(c.Slug, "/") {
		errs["slug"] = "slug must not start with /"
	}
	if len(c.Steps) == 0 {
		errs["steps"] = "a category needs at least one step"
	}
	for si, st := range c.Steps {
		pos := "steps." + itoa(si)
		if strings.TrimSpace(st.Name) == "" {
			errs[pos+".name"] = "step name is required"
		}
		seen := map[string]string{}
		for fi, f := range st.Fields {
			fpos := pos + ".fields." + itoa(fi)
			if !ValidType(f.Type) {
				errs[fpos+".type"] = "unknown field type " + string(f.Type)
			}
			if f.Key == "" {
				errs[fpos+".key"] = "field key is empty (label has no usable characters)"
				continue
			}
			if prev, dup := seen[f.Key]; dup {
				errs[fpos+".key"] = "key " + f.Key + " collides with field " + prev + " in the same step"
				continue
			}
			seen[f.Key] = f.Label
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// FieldAt returns the field with the given key, searching all steps.
func (c *Category) FieldAt(key string) (Field, bool) {
	for _, st := range c.Steps {
		for _, f := range st.Fields {
			if f.Key == key {
				return f, true
			}
		}
	}
	return Field{}, false
}

// Move relocates the element at from to index to, shifting the rest. Out of
// range indices leave s untouched; the move is in place.
func Move[T any](s []T, from, to int) {
	if from < 0 || from >= len(s) || to < 0 || to >= len(s) || from == to {
		return
	}
	v := s[from]
	if from < to {
		copy(s[from:to], s[from+1:to+1])
	} else {
		copy(s[to+1:from+1], s[to:from])
	}
	s[to] = v
}

// ReorderSteps moves a step within the category.
func (c *Category) ReorderSteps(from, to int) { Move(c.Steps, from, to) }

// ReorderFields moves a field within one step. Cross-step moves are not a
// thing: callers address a single step, so a drag into another step simply
// never reaches here.
func (s *Step) ReorderFields(from, to int) { Move(s.Fields, from, to) }

func itoa(i int) string { return strconv.Itoa(i) }
