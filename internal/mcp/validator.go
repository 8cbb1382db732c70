package mcp

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ValidationError reports caller arguments rejected by a tool's input schema.
type ValidationError struct {
	Tool string
	Err  error
}

func (e *ValidationError) Error() string {
	var ve *jsonschema.ValidationError
	if errors.As(e.Err, &ve) {
		leaf := ve
		for len(leaf.Causes) > 0 {
			leaf = leaf.Causes[0]
		}
		loc := leaf.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		return fmt.Sprintf("invalid arguments for %s: %s: %s", e.Tool, loc, leaf.Message)
	}
	return fmt.Sprintf("invalid arguments for %s: %v", e.Tool, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// argumentValidator checks normalized parameters against a compiled schema.
type argumentValidator struct {
	tool   string
	schema *jsonschema.Schema
}

// compileValidator compiles the tool's input schema. Unknown properties are
// allowed so that parameters missing from the cached schema still reach the
// remote API.
func compileValidator(tool mcp.Tool) (*argumentValidator, error) {
	raw, err := json.Marshal(tool.InputSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal input schema for %s: %w", tool.Name, err)
	}
	schema, err := jsonschema.CompileString("mem://tools/"+tool.Name+".json", string(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to compile input schema for %s: %w", tool.Name, err)
	}
	return &argumentValidator{tool: tool.Name, schema: schema}, nil
}

// Validate returns a *ValidationError when params do not satisfy the schema.
// A nil validator accepts everything.
func (v *argumentValidator) Validate(params map[string]any) error {
	if v == nil {
		return nil
	}
	doc, err := toJSONValue(params)
	if err != nil {
		return &ValidationError{Tool: v.tool, Err: err}
	}
	if err := v.schema.Validate(doc); err != nil {
		return &ValidationError{Tool: v.tool, Err: err}
	}
	return nil
}

// toJSONValue re-decodes params so nested values have the shapes the
// validator expects (map[string]any, []any, json.Number).
func toJSONValue(params map[string]any) (any, error) {
	if params == nil {
		params = map[string]any{}
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}
