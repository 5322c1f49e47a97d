package computeruse

import (
	"encoding/json"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// SchemaJSON defines the JSON schema for computer use actions.
const SchemaJSON = `{
  "type": "object",
  "properties": {
    "action": {
      "type": "string",
      "description": "Computer use action to execute.",
      "enum": [
        "key",
        "type",
        "mouse_move",
        "left_click",
        "left_click_drag",
        "right_click",
        "middle_click",
        "double_click",
        "screenshot",
        "cursor_position",
        "scroll_up",
        "scroll_down",
        "get_screen_info"
      ]
    },
    "coordinate": {
      "type": "array",
      "items": {"type": "integer", "minimum": 0},
      "minItems": 2,
      "maxItems": 2,
      "description": "Target coordinate [x,y] in scaled pixels."
    },
    "text": {
      "type": "string",
      "description": "Text payload for key/type actions."
    }
  },
  "required": ["action"]
}`

var paramsSchema struct {
	once     sync.Once
	initErr  error
	compiled *jsonschema.Schema
}

// validateParams checks raw tool parameters against SchemaJSON before any
// dispatch-level validation runs, so malformed payloads fail with a schema
// path instead of a generic argument error.
func validateParams(raw []byte) error {
	paramsSchema.once.Do(func() {
		paramsSchema.compiled, paramsSchema.initErr = jsonschema.CompileString("computer_use", SchemaJSON)
	})
	if paramsSchema.initErr != nil {
		return paramsSchema.initErr
	}

	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}
	return paramsSchema.compiled.Validate(payload)
}
