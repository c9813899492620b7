package catalogs

const resourcesSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "name", "max_stack"],
    "properties": {
      "id": {"type": "integer", "minimum": 1},
      "name": {"type": "string", "minLength": 1},
      "max_stack": {"type": "integer", "minimum": 1},
      "deposit": {"type": "boolean"}
    },
    "additionalProperties": false
  }
}`

const recipesSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "definitions": {
    "amount": {
      "type": "object",
      "required": ["resource", "amount"],
      "properties": {
        "resource": {"type": "integer", "minimum": 1},
        "amount": {"type": "integer", "minimum": 1}
      },
      "additionalProperties": false
    }
  },
  "items": {
    "type": "object",
    "required": ["id", "inputs", "output", "duration_ticks"],
    "properties": {
      "id": {"type": "integer", "minimum": 1},
      "name": {"type": "string"},
      "inputs": {"type": "array", "maxItems": 3, "items": {"$ref": "#/definitions/amount"}},
      "output": {"$ref": "#/definitions/amount"},
      "duration_ticks": {"type": "integer", "minimum": 1}
    },
    "additionalProperties": false
  }
}`

const entitiesSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["name", "kind", "power"],
    "properties": {
      "name": {"type": "string", "minLength": 1},
      "kind": {"enum": ["transporter", "manipulator", "production"]},
      "category": {"enum": ["building", "mining", "storage"]},
      "power": {"type": "integer", "minimum": 1},
      "width": {"type": "integer", "minimum": 1},
      "height": {"type": "integer", "minimum": 1},
      "reach": {"type": "integer", "minimum": 1, "maximum": 2},
      "recipes": {"type": "array", "items": {"type": "integer", "minimum": 1}}
    },
    "additionalProperties": false
  }
}`
