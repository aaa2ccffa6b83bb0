package apihttp

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const (
	querySchemaSrc = `{
  "type": "object",
  "required": ["question"],
  "properties": {
    "question":   {"type": "string", "minLength": 1},
    "session_id": {"type": "string"},
    "user_id":    {"type": "string"},
    "role":       {"type": "string"}
  }
}`
	chartSchemaSrc = `{
  "type": "object",
  "required": ["rows"],
  "properties": {
    "type":         {"type": "string"},
    "rows":         {"type": "array", "items": {"type": "object"}},
    "label_column": {"type": "string"},
    "value_column": {"type": "string"}
  }
}`
	checkSchemaSrc = `{
  "type": "object",
  "required": ["sql"],
  "properties": {"sql": {"type": "string"}}
}`
	exportSchemaSrc = `{
  "type": "object",
  "required": ["rows"],
  "properties": {
    "question":     {"type": "string"},
    "sql":          {"type": "string"},
    "columns":      {"type": "array", "items": {"type": "string"}},
    "rows":         {"type": "array", "items": {"type": "object"}},
    "chart_type":   {"type": "string"},
    "chart_base64": {"type": "string"}
  }
}`
)

var (
	querySchema  = mustCompile("query.json", querySchemaSrc)
	chartSchema  = mustCompile("chart.json", chartSchemaSrc)
	checkSchema  = mustCompile("check.json", checkSchemaSrc)
	exportSchema = mustCompile("export.json", exportSchemaSrc)
)

func mustCompile(name, src string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, strings.NewReader(src)); err != nil {
		panic(err)
	}
	return compiler.MustCompile(name)
}

// decodeChecked validates raw against schema and then decodes it into dst.
func decodeChecked(raw []byte, schema *jsonschema.Schema, dst any) error {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return fmt.Errorf("invalid request: %s", leafMessage(ve))
		}
		return fmt.Errorf("invalid request: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	return nil
}

func leafMessage(ve *jsonschema.ValidationError) string {
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	loc := ve.InstanceLocation
	if loc == "" {
		loc = "/"
	}
	return loc + ": " + ve.Message
}
