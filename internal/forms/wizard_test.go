package forms

import "testing"

func twoStep() *Category {
	return &Category{
		Slug: "appeal",
		Name: "Ban appeal",
		Steps: []Step{
			{Name: "Who", Fields: []Field{
				{Key: "steam_id", Label: "Steam ID", Type: FieldString, Required: true},
			}},
			{Name: "Why", Fields: []Field{
				{Key: "reason", Label: "Reason", Type: FieldTextarea, Required: true},
			}},
		},
	}
}

func TestWizard_NextGatesOnCurrentStep(t *testing.T) {
	w := NewWizard(twoStep())
	if w.Step() != 0 {
		t.Fatalf("must start at 0, got %d", w.Step())
	}
	if errs := w.Next(); errs == nil {
		t.Fatal("invalid required field must not advance")
	}
	if w.Step() != 0 {
		t.Fatalf("index moved on failed Next: %d", w.Step())
	}
	w.Set("steam_id", "76561198000000000")
	if errs := w.Next(); errs != nil {
		t.Fatalf("fixed field must advance: %v", errs)
	}
	if w.Step() != 1 {
		t.Fatalf("must advance exactly one step, got %d", w.Step())
	}
	// clamped at the last step
	w.Set("reason", "griefing on main")
	_ = w.Next()
	if w.Step() != 1 {
		t.Fatalf("Next past the last step must clamp, got %d", w.Step())
	}
}

func TestWizard_PrevUnconditional(t *testing.T) {
	w := NewWizard(twoStep())
	w.Prev()
	if w.Step() != 0 {
		t.Fatalf("Prev at 0 must clamp, got %d", w.Step())
	}
	w.Set("steam_id", "x")
	_ = w.Next()
	w.Set("steam_id", "") // make current state invalid again
	w.Prev()
	if w.Step() != 0 {
		t.Fatal("Prev never re-validates")
	}
}

func TestWizard_Submit(t *testing.T) {
	w := NewWizard(twoStep())
	if _, errs := w.Submit(); errs == nil {
		t.Fatal("Submit is only reachable from the last step")
	}
	w.Set("steam_id", "76561198000000000")
	_ = w.Next()
	if _, errs := w.Submit(); errs == nil {
		t.Fatal("full validation must fail while reason is empty")
	}
	w.Set("reason", "because")
	content, errs := w.Submit()
	if errs != nil {
		t.Fatalf("unexpected: %v", errs)
	}
	if content["steam_id--string"] != "76561198000000000" || content["reason--textarea"] != "because" {
		t.Fatalf("encoded content wrong: %v", content)
	}
}

func TestWizard_BooleanDefaultSeed(t *testing.T) {
	yes := true
	cat := &Category{Slug: "b", Name: "B", Steps: []Step{{Name: "S", Fields: []Field{
		{Key: "urgent", Label: "Urgent", Type: FieldBoolean, Options: Options{DefaultValue: &yes}},
	}}}}
	w := NewWizard(cat)
	if w.Value("urgent") != true {
		t.Fatalf("defaultValue must seed the field, got %v", w.Value("urgent"))
	}
}

func TestToggleServer(t *testing.T) {
	if got := ToggleServer("", "srv1"); got != "srv1" {
		t.Fatalf("select: %q", got)
	}
	if got := ToggleServer("srv1", "srv1"); got != "" {
		t.Fatalf("clicking the selected server must deselect: %q", got)
	}
	if got := ToggleServer("srv1", "srv2"); got != "srv2" {
		t.Fatalf("switch: %q", got)
	}
}

func TestTogglePlayer_MaxCapSilentlyIgnores(t *testing.T) {
	max := 2.0
	sel := []string{}
	sel = TogglePlayer(sel, "a", &max)
	sel = TogglePlayer(sel, "b", &max)
	sel = TogglePlayer(sel, "c", &max)
	if len(sel) != 2 || sel[0] != "a" || sel[1] != "b" {
		t.Fatalf("third selection past max must leave selection unchanged: %v", sel)
	}
	sel = TogglePlayer(sel, "a", &max)
	if len(sel) != 1 || sel[0] != "b" {
		t.Fatalf("toggle off: %v", sel)
	}
}
