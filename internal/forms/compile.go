package forms

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// FieldErrors maps field keys to one human-readable error each. It is the
// collected result of validating a submission: every field is checked
// independently, nothing short-circuits.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	if len(e) == 0 {
		return "valid"
	}
	parts := make([]string, 0, len(e))
	for k, v := range e {
		parts = append(parts, k+": "+v)
	}
	return strings.Join(parts, "; ")
}

// Validator is a whole-submission validator compiled from a category schema.
// The same instance serves step gating (ValidateStep) and final submission
// (Validate) with identical per-field semantics.
type Validator struct {
	cat *Category
}

// Compile derives the validator from the category's current steps and fields.
// Enum rules close over the option lists as they are now; recompile after
// editing the schema.
func Compile(cat *Category) *Validator { return &Validator{cat: cat} }

// Validate checks every field of every step.
func (v *Validator) Validate(values map[string]any) FieldErrors {
	errs := FieldErrors{}
	for _, st := range v.cat.Steps {
		v.checkStep(st, values, errs)
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ValidateStep checks only the fields of step i, gating wizard advancement.
// An out-of-range index validates nothing.
func (v *Validator) ValidateStep(i int, values map[string]any) FieldErrors {
	if i < 0 || i >= len(v.cat.Steps) {
		return nil
	}
	errs := FieldErrors{}
	v.checkStep(v.cat.Steps[i], values, errs)
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func (v *Validator) checkStep(st Step, values map[string]any, errs FieldErrors) {
	for _, f := range st.Fields {
		val, present := values[f.Key]
		if msg := checkField(f, val, present); msg != "" {
			errs[f.Key] = msg
		}
	}
}

// checkField applies the base rule for the field's type narrowed by its
// options, wrapped as optional unless the field is required. It returns ""
// when the value passes.
func checkField(f Field, val any, present bool) string {
	if !present || isEmpty(val) {
		if f.Required {
			return "this field is required"
		}
		return ""
	}
	switch f.Type {
	case FieldString, FieldTextarea:
		return checkText(f.Options, val)
	case FieldNumber:
		return checkNumber(f.Options, val)
	case FieldBoolean:
		if _, ok := val.(bool); !ok {
			return "expected true or false"
		}
		return ""
	case FieldEnum:
		return checkEnum(f.Options, val)
	case FieldDate:
		return checkDate(f.Options, val)
	case FieldPlayers, FieldPlayersGrid:
		return checkPlayerList(f.Options, val)
	case FieldServer, FieldServerGrid:
		if _, ok := val.(string); !ok {
			return "expected a server id"
		}
		return ""
	}
	return "unknown field type " + string(f.Type)
}

// isEmpty reports the values that count as "not answered": empty strings and
// empty lists. false is a legitimate boolean answer, zero a legitimate number.
func isEmpty(val any) bool {
	switch t := val.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []string:
		return len(t) == 0
	case []any:
		return len(t) == 0
	}
	return false
}

func checkText(o Options, val any) string {
	s, ok := val.(string)
	if !ok {
		return "expected text"
	}
	n := utf8.RuneCountInString(s)
	if o.MinLength != nil && n < *o.MinLength {
		return fmt.Sprintf("must be at least %d characters", *o.MinLength)
	}
	if o.MaxLength != nil && n > *o.MaxLength {
		return fmt.Sprintf("must be at most %d characters", *o.MaxLength)
	}
	return ""
}

func checkNumber(o Options, val any) string {
	n, ok := toFloat(val)
	if !ok {
		return "expected a number"
	}
	// bounds are inclusive
	if o.Min != nil && n < *o.Min {
		return fmt.Sprintf("must be at least %s", trimFloat(*o.Min))
	}
	if o.Max != nil && n > *o.Max {
		return fmt.Sprintf("must be at most %s", trimFloat(*o.Max))
	}
	return ""
}

func toFloat(val any) (float64, bool) {
	switch t := val.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	}
	return 0, false
}

func trimFloat(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func checkEnum(o Options, val any) string {
	s, ok := val.(string)
	if !ok {
		return "expected one of the listed options"
	}
	for _, opt := range o.EnumOptions {
		if opt == s {
			return ""
		}
	}
	// an option removed after the form was opened fails here rather than
	// being silently accepted
	return fmt.Sprintf("%q is not one of the allowed options", s)
}

// dateLayouts accepted for date answers and option bounds.
var dateLayouts = []string{"2006-01-02", time.RFC3339}

func parseDate(s string) (time.Time, bool) {
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func checkDate(o Options, val any) string {
	s, ok := val.(string)
	if !ok {
		return "expected a date"
	}
	d, ok := parseDate(s)
	if !ok {
		return "expected an ISO date"
	}
	if o.MinDate != "" {
		if min, ok := parseDate(o.MinDate); ok && d.Before(min) {
			return "date is before " + o.MinDate
		}
	}
	if o.MaxDate != "" {
		if max, ok := parseDate(o.MaxDate); ok && d.After(max) {
			return "date is after " + o.MaxDate
		}
	}
	return ""
}

func checkPlayerList(o Options, val any) string {
	ids, ok := toStringList(val)
	if !ok {
		return "expected a list of player ids"
	}
	n := len(ids)
	if o.Min != nil && float64(n) < *o.Min {
		return fmt.Sprintf("select at least %s players", trimFloat(*o.Min))
	}
	if o.Max != nil && float64(n) > *o.Max {
		return fmt.Sprintf("select at most %s players", trimFloat(*o.Max))
	}
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			return "player ids must not be empty"
		}
	}
	return ""
}

func toStringList(val any) ([]string, bool) {
	switch t := val.(type) {
	case []string:
		return t, true
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}
