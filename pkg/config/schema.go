package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// configSchema constrains types and lower bounds; cross-field rules live
// in Validate.
const configSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "thresholds": {
      "type": "object",
      "properties": {
        "function_lines":        {"type": "integer", "minimum": 1},
        "function_lines_severe": {"type": "integer", "minimum": 1},
        "complexity":            {"type": "integer", "minimum": 1},
        "file_lines":            {"type": "integer", "minimum": 1},
        "max_parameters":        {"type": "integer", "minimum": 1},
        "max_nesting":           {"type": "integer", "minimum": 1},
        "duplicate_min_lines":   {"type": "integer", "minimum": 2}
      }
    },
    "exclude": {
      "type": "object",
      "properties": {
        "patterns":  {"type": "array", "items": {"type": "string"}},
        "dirs":      {"type": "array", "items": {"type": "string"}},
        "gitignore": {"type": "boolean"}
      }
    },
    "scan": {
      "type": "object",
      "properties": {
        "workers":       {"type": "integer", "minimum": 0},
        "max_file_size": {"type": "integer", "minimum": 0}
      }
    },
    "output": {
      "type": "object",
      "properties": {
        "format":  {"type": "string"},
        "color":   {"type": "boolean"},
        "verbose": {"type": "boolean"}
      }
    }
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func loadSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(configSchema))
		if err != nil {
			schemaErr = err
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("config.schema.json", doc); err != nil {
			schemaErr = err
			return
		}
		compiledSchema, schemaErr = compiler.Compile("config.schema.json")
	})
	return compiledSchema, schemaErr
}

func validateSchema(c *Config) error {
	schema, err := loadSchema()
	if err != nil {
		return &ConfigurationError{Reason: fmt.Sprintf("schema: %v", err)}
	}

	raw, err := json.Marshal(c)
	if err != nil {
		return &ConfigurationError{Reason: err.Error()}
	}
	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return &ConfigurationError{Reason: err.Error()}
	}

	if err := schema.Validate(instance); err != nil {
		return &ConfigurationError{Reason: err.Error()}
	}
	return nil
}
