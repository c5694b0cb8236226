package validation

import (
	"strings"
	"testing"
)

func TestCheckCategoryJSONAccepts(t *testing.T) {
	doc := `{
		"name": "Bug Report",
		"slug": "bug_report",
		"steps": [
			{"name": "Details", "fields": [
				{"key": "summary", "label": "Summary", "type": "string", "required": true,
				 "options": {"minLength": 5, "maxLength": 200}}
			]}
		]
	}`
	if err := CheckCategoryJSON([]byte(doc)); err != nil {
		t.Fatalf("valid payload rejected: %v", err)
	}
}

func TestCheckCategoryJSONRejectsShape(t *testing.T) {
	cases := map[string]string{
		"steps not array":   `{"name": "x", "steps": {}}`,
		"missing name":      `{"steps": []}`,
		"field key number":  `{"name": "x", "steps": [{"name": "s", "fields": [{"key": 1, "type": "string"}]}]}`,
		"options as string": `{"name": "x", "steps": [{"name": "s", "fields": [{"key": "k", "type": "string", "options": "nope"}]}]}`,
		"not json":          `{`,
	}
	for name, doc := range cases {
		if err := CheckCategoryJSON([]byte(doc)); err == nil {
			t.Errorf("%s: accepted", name)
		}
	}
}

func TestCheckCategoryJSONErrorIsCapped(t *testing.T) {
	// many bad fields at once, only the first few reported
	var sb strings.Builder
	sb.WriteString(`{"name": 1, "slug": 2, "steps": [`)
	for i := 0; i < 8; i++ {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(`{"name": 3, "fields": "bad"}`)
	}
	sb.WriteString(`]}`)
	err := CheckCategoryJSON([]byte(sb.String()))
	if err == nil {
		t.Fatal("expected error")
	}
	if n := strings.Count(err.Error(), ";"); n > 4 {
		t.Fatalf("error not capped: %d separators", n)
	}
}
