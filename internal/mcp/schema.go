package mcp

import (
	"fmt"
	"sort"

	"github.com/bobmcallan/genvr-mcp/internal/catalog"
	"github.com/mark3labs/mcp-go/mcp"
)

// Credential argument names accepted on every tool.
const (
	ArgUserID = "uid"
	ArgAPIKey = "api_key"
)

// reservedFields never appear in an exposed tool contract.
var reservedFields = map[string]bool{
	"category_genvr":    true,
	"subcategory_genvr": true,
	"uid":               true,
	"token":             true,
	"api_key":           true,
	"user_id":           true,
}

// IsReservedField reports whether name is an internal field hidden from callers.
func IsReservedField(name string) bool {
	return reservedFields[name]
}

// BuildParamOptions translates a raw model schema into tool options, one per
// exposed property in sorted name order. It returns false when the schema is
// missing or exposes no properties; callers then use FallbackParamOptions.
func BuildParamOptions(schema *catalog.Schema) ([]mcp.ToolOption, bool) {
	if schema == nil || len(schema.Properties) == 0 {
		return nil, false
	}

	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}

	names := make([]string, 0, len(schema.Properties))
	for name, prop := range schema.Properties {
		if prop.Hidden() || IsReservedField(name) {
			continue
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return nil, false
	}
	sort.Strings(names)

	opts := make([]mcp.ToolOption, 0, len(names)+2)
	for _, name := range names {
		opts = append(opts, buildParamOption(name, schema.Properties[name], required[name]))
	}
	return append(opts, credentialOptions()...), true
}

// FallbackParamOptions is the generic contract for models without a usable
// schema: a required free-text prompt plus the credential fields.
func FallbackParamOptions() []mcp.ToolOption {
	return append([]mcp.ToolOption{
		mcp.WithString("prompt",
			mcp.Description("Text prompt describing what to generate"),
			mcp.Required(),
		),
	}, credentialOptions()...)
}

func credentialOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString(ArgUserID, mcp.Description("GenVR user id. Optional when the server or connection supplies one.")),
		mcp.WithString(ArgAPIKey, mcp.Description("GenVR API key. Optional when the server or connection supplies one.")),
	}
}

// buildParamOption maps one raw property onto the matching mcp-go option.
func buildParamOption(name string, p catalog.Property, required bool) mcp.ToolOption {
	desc := p.Description
	if desc == "" {
		desc = fmt.Sprintf("Parameter: %s", name)
	}
	opts := []mcp.PropertyOption{mcp.Description(desc)}

	if len(p.Enum) > 0 {
		opts = append(opts, enumValues(p.Enum))
	}
	if p.Default != nil {
		opts = append(opts, defaultValue(p.Default))
	}
	if p.Minimum != nil {
		opts = append(opts, mcp.Min(*p.Minimum))
	}
	if p.Maximum != nil {
		opts = append(opts, mcp.Max(*p.Maximum))
	}
	if required {
		opts = append(opts, mcp.Required())
	}

	switch p.Kind() {
	case "string":
		return mcp.WithString(name, opts...)
	case "number", "integer":
		return mcp.WithNumber(name, opts...)
	case "boolean":
		return mcp.WithBoolean(name, opts...)
	case "array":
		if p.MaxItems != nil {
			opts = append(opts, mcp.MaxItems(*p.MaxItems))
		}
		if len(p.Items) > 0 {
			opts = append(opts, mcp.Items(p.Items))
		}
		return mcp.WithArray(name, opts...)
	default:
		return mcp.WithAny(name, opts...)
	}
}

// enumValues keeps enum members with their original JSON types; mcp.Enum
// only accepts strings.
func enumValues(values []any) mcp.PropertyOption {
	return func(schema map[string]any) {
		schema["enum"] = values
	}
}

func defaultValue(v any) mcp.PropertyOption {
	return func(schema map[string]any) {
		schema["default"] = v
	}
}
