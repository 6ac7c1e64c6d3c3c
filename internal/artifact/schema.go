package artifact

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// schemaCache caches compiled JSON schemas by name.
var schemaCache sync.Map // map[string]*jsonschema.Schema

var fileNameSchema = map[string]any{
	"type":    "string",
	"pattern": `^[A-Za-z0-9][A-Za-z0-9._-]*$`,
}

var manifestSchema = map[string]any{
	"type":     "object",
	"required": []any{"format_version", "name"},
	"properties": map[string]any{
		"format_version": map[string]any{"type": "string", "minLength": 1},
		"name":           map[string]any{"type": "string", "minLength": 1},
		"description":    map[string]any{"type": "string"},
		"created_at":     map[string]any{"type": "string"},
		"files": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"model":      fileNameSchema,
				"vectorizer": fileNameSchema,
				"labels":     fileNameSchema,
			},
			"additionalProperties": false,
		},
	},
}

var numberRow = map[string]any{
	"type":     "array",
	"minItems": 1,
	"items":    map[string]any{"type": "number"},
}

var modelSchema = map[string]any{
	"type":     "object",
	"required": []any{"kind", "classes", "coef", "intercept"},
	"properties": map[string]any{
		"kind": map[string]any{"type": "string", "minLength": 1},
		"classes": map[string]any{
			"type":        "array",
			"minItems":    2,
			"uniqueItems": true,
			"items":       map[string]any{"type": "integer"},
		},
		"coef": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items":    numberRow,
		},
		"intercept":   numberRow,
		"multi_class": map[string]any{"enum": []any{"multinomial", "ovr"}},
		"platt": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items": map[string]any{
				"type":     "object",
				"required": []any{"a", "b"},
				"properties": map[string]any{
					"a": map[string]any{"type": "number"},
					"b": map[string]any{"type": "number"},
				},
			},
		},
	},
}

var vectorizerSchema = map[string]any{
	"type":     "object",
	"required": []any{"vocabulary"},
	"properties": map[string]any{
		"vocabulary": map[string]any{
			"type":                 "object",
			"minProperties":        1,
			"additionalProperties": map[string]any{"type": "integer", "minimum": 0},
		},
		"idf": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "number", "exclusiveMinimum": 0},
		},
		"lowercase":     map[string]any{"type": "boolean"},
		"strip_accents": map[string]any{"enum": []any{nil, "", "unicode", "ascii"}},
		"token_pattern": map[string]any{"type": "string"},
		"ngram_range": map[string]any{
			"type":     "array",
			"minItems": 2,
			"maxItems": 2,
			"items":    map[string]any{"type": "integer", "minimum": 1},
		},
		"stop_words":   map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"sublinear_tf": map[string]any{"type": "boolean"},
		"use_idf":      map[string]any{"type": "boolean"},
		"norm":         map[string]any{"enum": []any{nil, "", "none", "l1", "l2"}},
	},
}

var labelsSchema = map[string]any{
	"type":                 "object",
	"minProperties":        1,
	"propertyNames":        map[string]any{"pattern": `^-?[0-9]+$`},
	"additionalProperties": map[string]any{"type": "string", "minLength": 1},
}

// validateJSON checks raw against the named schema definition.
func validateJSON(name string, definition map[string]any, raw []byte) error {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	compiled, err := getCompiledSchema(name, definition)
	if err != nil {
		return fmt.Errorf("compile schema %q: %w", name, err)
	}

	if err := compiled.Validate(parsed); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

// getCompiledSchema returns a cached compiled schema or compiles and caches it.
func getCompiledSchema(name string, definition map[string]any) (*jsonschema.Schema, error) {
	if cached, ok := schemaCache.Load(name); ok {
		return cached.(*jsonschema.Schema), nil
	}

	// The compiler wants a plain decoded JSON value, so round-trip the map.
	defBytes, err := json.Marshal(definition)
	if err != nil {
		return nil, fmt.Errorf("marshal schema definition: %w", err)
	}
	var defParsed any
	if err := json.Unmarshal(defBytes, &defParsed); err != nil {
		return nil, fmt.Errorf("parse schema definition: %w", err)
	}

	c := jsonschema.NewCompiler()
	schemaURL := fmt.Sprintf("schema://%s.json", name)
	if err := c.AddResource(schemaURL, defParsed); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}

	compiled, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}

	schemaCache.Store(name, compiled)
	return compiled, nil
}
