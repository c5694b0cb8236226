package forms

// Wizard drives a multi-step submission through a category schema. It holds
// the collected answers and the current step index; nothing is persisted, so
// abandoning a wizard simply drops the state (no draft recovery).
type Wizard struct {
	cat    *Category
	v      *Validator
	step   int
	values map[string]any
}

// NewWizard starts at step 0 with every field seeded to its type's zero
// value.
func NewWizard(cat *Category) *Wizard {
	values := map[string]any{}
	for _, st := range cat.Steps {
		for _, f := range st.Fields {
			if f.Type == FieldBoolean && f.Options.DefaultValue != nil {
				values[f.Key] = *f.Options.DefaultValue
				continue
			}
			values[f.Key] = ZeroValue(f.Type)
		}
	}
	return &Wizard{cat: cat, v: Compile(cat), values: values}
}

// Step returns the current step index, always within [0, len(steps)-1].
func (w *Wizard) Step() int { return w.step }

// OnLastStep reports whether Submit is reachable.
func (w *Wizard) OnLastStep() bool { return w.step == len(w.cat.Steps)-1 }

// Set records an answer for a field key. Unknown keys are ignored; they are
// not part of the schema and would be dropped at encoding anyway.
func (w *Wizard) Set(key string, val any) {
	if _, ok := w.cat.FieldAt(key); ok {
		w.values[key] = val
	}
}

// Value returns the current answer for a key.
func (w *Wizard) Value(key string) any { return w.values[key] }

// Next validates only the current step's fields. On success the index
// advances exactly one step, clamped to the last; on failure the index stays
// put and the per-field errors are returned.
func (w *Wizard) Next() FieldErrors {
	if errs := w.v.ValidateStep(w.step, w.values); errs != nil {
		return errs
	}
	if w.step < len(w.cat.Steps)-1 {
		w.step++
	}
	return nil
}

// Prev steps back without re-validation, clamped at 0.
func (w *Wizard) Prev() {
	if w.step > 0 {
		w.step--
	}
}

// Submit validates the full form and, on success, returns the encoded
// content map ready for the ticket-creation endpoint. Calling it before the
// last step returns nothing: the caller has steps left to walk.
func (w *Wizard) Submit() (map[string]any, FieldErrors) {
	if !w.OnLastStep() {
		return nil, FieldErrors{"_step": "not on the last step"}
	}
	if errs := w.v.Validate(w.values); errs != nil {
		return nil, errs
	}
	return EncodeContent(w.cat, w.values), nil
}

// ToggleServer implements the single-select grid gesture: clicking the
// selected server again deselects it.
func ToggleServer(current, clicked string) string {
	if current == clicked {
		return ""
	}
	return clicked
}

// TogglePlayer implements the multi-select grid gesture: clicking a selected
// id removes it, clicking a new one appends it. A click past the max cap is
// ignored, not an error: the selection comes back unchanged.
func TogglePlayer(selected []string, id string, max *float64) []string {
	for i, s := range selected {
		if s == id {
			return append(append([]string{}, selected[:i]...), selected[i+1:]...)
		}
	}
	if max != nil && float64(len(selected)) >= *max {
		return selected
	}
	return append(append([]string{}, selected...), id)
}
