// ABOUTME: JSON schema validation for client messages
// ABOUTME: Rejects malformed hello and analyze messages before they are handled
package protocol

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const clientSchemaURL = "drift-tracer://schema/client-message.json"

const clientSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["type", "payload"],
  "properties": {
    "type": {"enum": ["client/hello", "client/analyze"]},
    "payload": {"type": "object"}
  },
  "allOf": [
    {
      "if": {"properties": {"type": {"const": "client/hello"}}},
      "then": {"properties": {"payload": {"$ref": "#/$defs/hello"}}}
    },
    {
      "if": {"properties": {"type": {"const": "client/analyze"}}},
      "then": {"properties": {"payload": {"$ref": "#/$defs/analyze"}}}
    }
  ],
  "$defs": {
    "clock": {"enum": ["Std", "Sys"]},
    "hello": {
      "type": "object",
      "required": ["client_id", "name", "version"],
      "properties": {
        "client_id": {"type": "string", "minLength": 1},
        "name": {"type": "string"},
        "version": {"type": "integer", "minimum": 1},
        "device_info": {"type": "object"}
      }
    },
    "analyze": {
      "type": "object",
      "required": ["name", "data"],
      "properties": {
        "request_id": {"type": "string"},
        "name": {"type": "string", "minLength": 1},
        "local_clock": {"$ref": "#/$defs/clock"},
        "remote_clock": {"$ref": "#/$defs/clock"},
        "data": {"type": "string", "minLength": 1}
      }
    }
  }
}`

var clientMessageSchema = mustCompile(clientSchemaURL, clientSchema)

func mustCompile(url, schema string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(url, strings.NewReader(schema)); err != nil {
		panic(fmt.Sprintf("add schema resource: %v", err))
	}
	return compiler.MustCompile(url)
}

// ValidateClientMessage checks raw against the client message schema
func ValidateClientMessage(raw []byte) error {
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	if err := clientMessageSchema.Validate(payload); err != nil {
		return fmt.Errorf("invalid message: %w", err)
	}
	return nil
}
