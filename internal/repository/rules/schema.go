package rules

// configSchema is the JSON Schema every stored rule config must satisfy
// before the typed parse runs. The rule type is deliberately a free string
// here: unknown types must surface as a rule-level config error carrying the
// rule id, not as a generic schema failure.
const configSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["version", "rules"],
	"additionalProperties": false,
	"properties": {
		"version": {"type": "string", "minLength": 1},
		"rules": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id", "type", "params"],
				"additionalProperties": false,
				"properties": {
					"id": {"type": "string", "minLength": 1},
					"name": {"type": "string"},
					"type": {"type": "string", "minLength": 1},
					"weight": {"type": "number", "minimum": 0},
					"params": {"type": "object"}
				}
			}
		}
	}
}`
