// Package catalog loads the model catalog and the per-model parameter schema cache.
// Both are externally maintained data files; they are read once at startup and
// treated as immutable afterwards.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bobmcallan/genvr-mcp/internal/common"
	"gopkg.in/yaml.v3"
)

// maxDataFileSize caps catalog and schema files (16MB).
const maxDataFileSize = 16 << 20

// ModelDescriptor identifies one generative capability in the catalog.
type ModelDescriptor struct {
	Category    string `json:"category" yaml:"category"`
	Subcategory string `json:"subcategory" yaml:"subcategory"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Key returns the "category/subcategory" identity of the descriptor.
func (m ModelDescriptor) Key() string {
	return SchemaKey(m.Category, m.Subcategory)
}

// Property is one raw parameter definition from the schema cache.
type Property struct {
	Type        any            `json:"type,omitempty"`
	Description string         `json:"description,omitempty"`
	Enum        []any          `json:"enum,omitempty"`
	Default     any            `json:"default,omitempty"`
	Minimum     *float64       `json:"minimum,omitempty"`
	Maximum     *float64       `json:"maximum,omitempty"`
	MaxItems    *int           `json:"maxItems,omitempty"`
	Items       map[string]any `json:"items,omitempty"`
	Display     any            `json:"display,omitempty"`
}

// Kind returns the declared JSON type. A one-member list counts as that
// member; unions such as ["integer","null"] have no single kind and return "".
func (p Property) Kind() string {
	switch t := p.Type.(type) {
	case string:
		return strings.ToLower(t)
	case []any:
		if len(t) == 1 {
			if s, ok := t[0].(string); ok {
				return strings.ToLower(s)
			}
		}
	}
	return ""
}

// Hidden reports whether the property is marked display "hidden".
func (p Property) Hidden() bool {
	s, ok := p.Display.(string)
	return ok && strings.EqualFold(s, "hidden")
}

// Schema is the raw parameter schema of one model.
type Schema struct {
	Description string              `json:"description,omitempty"`
	Properties  map[string]Property `json:"properties"`
	Required    []string            `json:"required,omitempty"`
}

// SchemaCache maps "category/subcategory" to the model's raw schema.
type SchemaCache map[string]*Schema

// SchemaKey builds the schema cache key for a model.
func SchemaKey(category, subcategory string) string {
	return category + "/" + subcategory
}

// Lookup returns the schema for a model, or nil when none is cached.
func (c SchemaCache) Lookup(category, subcategory string) *Schema {
	if c == nil {
		return nil
	}
	return c[SchemaKey(category, subcategory)]
}

// LoadModels reads the catalog file. The document is either a list of
// descriptors or an object with a "models" list. Entries without a category
// or subcategory, and duplicates, are skipped with a warning.
func LoadModels(path string, logger *common.Logger) ([]ModelDescriptor, error) {
	raw, err := readDocument(path)
	if err != nil {
		return nil, err
	}

	var models []ModelDescriptor
	if err := json.Unmarshal(raw, &models); err != nil {
		var wrapped struct {
			Models []ModelDescriptor `json:"models"`
		}
		if werr := json.Unmarshal(raw, &wrapped); werr != nil {
			return nil, fmt.Errorf("failed to parse model catalog %s: %w", path, err)
		}
		models = wrapped.Models
	}

	return ValidateModels(models, logger), nil
}

// ValidateModels filters catalog entries, preserving order.
func ValidateModels(models []ModelDescriptor, logger *common.Logger) []ModelDescriptor {
	seen := make(map[string]bool, len(models))
	valid := make([]ModelDescriptor, 0, len(models))
	for _, m := range models {
		m.Category = strings.TrimSpace(m.Category)
		m.Subcategory = strings.TrimSpace(m.Subcategory)
		if m.Category == "" || m.Subcategory == "" {
			logger.Warn().Str("category", m.Category).Str("subcategory", m.Subcategory).Msg("skipping catalog entry with empty category or subcategory")
			continue
		}
		if seen[m.Key()] {
			logger.Warn().Str("model", m.Key()).Msg("skipping duplicate catalog entry")
			continue
		}
		seen[m.Key()] = true
		valid = append(valid, m)
	}
	return valid
}

// LoadSchemas reads the schema cache, keyed by category then subcategory.
// A missing path yields an empty cache. Entries that fail to decode are
// dropped so the model falls back to the generic contract.
func LoadSchemas(path string, logger *common.Logger) (SchemaCache, error) {
	cache := SchemaCache{}
	if path == "" {
		return cache, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Warn().Str("path", path).Msg("schema cache not found, all tools use the generic contract")
		return cache, nil
	}

	raw, err := readDocument(path)
	if err != nil {
		return nil, err
	}

	var byCategory map[string]map[string]json.RawMessage
	if err := json.Unmarshal(raw, &byCategory); err != nil {
		return nil, fmt.Errorf("failed to parse schema cache %s: %w", path, err)
	}

	categories := make([]string, 0, len(byCategory))
	for category := range byCategory {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	for _, category := range categories {
		for subcategory, entry := range byCategory[category] {
			schema, err := DecodeSchema(entry)
			if err != nil {
				logger.Warn().Str("model", SchemaKey(category, subcategory)).Str("error", err.Error()).Msg("ignoring malformed schema")
				continue
			}
			if schema == nil {
				continue
			}
			cache[SchemaKey(category, subcategory)] = schema
		}
	}
	return cache, nil
}

// DecodeSchema decodes one raw schema. A JSON null decodes to a nil schema.
func DecodeSchema(raw json.RawMessage) (*Schema, error) {
	var schema *Schema
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil, err
	}
	return schema, nil
}

// readDocument reads a JSON or YAML file and returns it as JSON.
func readDocument(path string) (json.RawMessage, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.Size() > maxDataFileSize {
		return nil, fmt.Errorf("%s too large: %d bytes (max %d)", path, info.Size(), maxDataFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse YAML %s: %w", path, err)
		}
		out, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to convert YAML %s: %w", path, err)
		}
		return out, nil
	default:
		return data, nil
	}
}
