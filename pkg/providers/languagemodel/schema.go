package languagemodel

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// stepsSchema is the correctness boundary of the synthesis stage: the model's
// structured output must be an array of non-empty strings. Anything else is
// rejected outright; no best-effort repair.
const stepsSchema = `{
	"type": "array",
	"items": {
		"type": "string",
		"minLength": 1
	}
}`

// ErrSchema wraps a schema-validation failure of the model output.
type ErrSchema struct {
	Detail string
}

func (e *ErrSchema) Error() string {
	return "step synthesis output failed schema validation: " + e.Detail
}

// ValidateSteps checks a raw JSON array against the steps schema and decodes
// it. The raw payload must be exactly the array, not an enclosing object.
func ValidateSteps(raw json.RawMessage) ([]string, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(stepsSchema),
		gojsonschema.NewBytesLoader(raw),
	)
	if err != nil {
		return nil, &ErrSchema{Detail: err.Error()}
	}

	if !result.Valid() {
		detail := "invalid"
		if errs := result.Errors(); len(errs) > 0 {
			detail = errs[0].String()
		}

		return nil, &ErrSchema{Detail: detail}
	}

	var steps []string
	if err := json.Unmarshal(raw, &steps); err != nil {
		return nil, fmt.Errorf("failed to decode validated steps: %w", err)
	}

	return steps, nil
}
