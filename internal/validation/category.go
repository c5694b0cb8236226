package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// categorySchema is the structural gate for admin-submitted category
// payloads. It rejects malformed JSON shape before the domain rules run, so
// the builder never sees a step list that is not a list or options that are
// not an object.
const categorySchema = `{
  "type": "object",
  "required": ["name", "steps"],
  "properties": {
    "slug": {"type": "string"},
    "name": {"type": "string"},
    "steps": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "fields"],
        "properties": {
          "id": {"type": "integer", "minimum": 0},
          "name": {"type": "string"},
          "fields": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["key", "type"],
              "properties": {
                "key": {"type": "string"},
                "label": {"type": "string"},
                "type": {"type": "string"},
                "required": {"type": "boolean"},
                "options": {
                  "type": "object",
                  "properties": {
                    "minLength": {"type": "integer", "minimum": 0},
                    "maxLength": {"type": "integer", "minimum": 0},
                    "min": {"type": "number"},
                    "max": {"type": "number"},
                    "placeholder": {"type": "string"},
                    "description": {"type": "string"},
                    "defaultValue": {"type": "boolean"},
                    "enumOptions": {"type": "array", "items": {"type": "string"}},
                    "minDate": {"type": "string"},
                    "maxDate": {"type": "string"}
                  }
                }
              }
            }
          }
        }
      }
    }
  }
}`

var categoryLoader = gojsonschema.NewStringLoader(categorySchema)

// CheckCategoryJSON validates the raw request body against the category
// shape. Returns at most the first five problems joined into one error.
func CheckCategoryJSON(doc []byte) error {
	res, err := gojsonschema.Validate(categoryLoader, gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if !res.Valid() {
		var msgs []string
		for i, e := range res.Errors() {
			if i >= 5 {
				break
			}
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%s", strings.Join(msgs, "; "))
	}
	return nil
}
