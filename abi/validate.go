package abi

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// infoSchemaJSON requires name and function to be present, non-empty
// strings, forbids any other key from holding a non-string value, and
// rejects a description that is present but blank. Every value Init
// returns is already a Go string by the time this runs, so the schema's
// job is to catch what the type system does not: missing keys and
// empty-string values a plugin left unset.
const infoSchemaJSON = `{
  "type": "object",
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "description": {"type": "string", "minLength": 1},
    "function": {"type": "string", "minLength": 1}
  },
  "required": ["name", "function"],
  "additionalProperties": {"type": "string"}
}`

var infoSchema = gojsonschema.NewStringLoader(infoSchemaJSON)

// InfoValidationError reports a schema violation in a plugin's Init result.
type InfoValidationError struct {
	Errors []string
}

func (e *InfoValidationError) Error() string {
	return fmt.Sprintf("abi: invalid plugin info: %v", e.Errors)
}

// ValidateInfo checks a plugin's Init() result against infoSchemaJSON. A nil or
// empty map always passes: a plugin that reports no metadata is not
// malformed, just minimal.
func ValidateInfo(info map[string]string) error {
	if len(info) == 0 {
		return nil
	}

	raw, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("abi: marshal info for validation: %w", err)
	}

	result, err := gojsonschema.Validate(infoSchema, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("abi: run schema validation: %w", err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return &InfoValidationError{Errors: msgs}
}
