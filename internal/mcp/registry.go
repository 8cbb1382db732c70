package mcp

import (
	"context"
	"fmt"
	"sync"

	"github.com/bobmcallan/genvr-mcp/internal/catalog"
	"github.com/bobmcallan/genvr-mcp/internal/common"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ToolDefinition is one generated tool bound to its model.
type ToolDefinition struct {
	Tool        mcp.Tool
	Category    string
	Subcategory string
	validator   *argumentValidator
}

// Registry turns the model catalog into tool definitions. The set is built
// lazily on first use and never changes afterwards, so concurrent reads
// need no locking.
type Registry struct {
	models    []catalog.ModelDescriptor
	schemas   catalog.SchemaCache
	router    *Router
	generator *Generator
	logger    *common.Logger

	once   sync.Once
	defs   []ToolDefinition
	byName map[string]int
}

// NewRegistry creates an unbuilt registry.
func NewRegistry(models []catalog.ModelDescriptor, schemas catalog.SchemaCache, router *Router, generator *Generator, logger *common.Logger) *Registry {
	return &Registry{
		models:    models,
		schemas:   schemas,
		router:    router,
		generator: generator,
		logger:    logger,
	}
}

func (r *Registry) build() {
	r.once.Do(func() {
		r.defs = make([]ToolDefinition, 0, len(r.models))
		r.byName = make(map[string]int, len(r.models))
		aliases := r.router.Aliases()
		unaliased := map[string]bool{}

		for _, m := range r.models {
			category := aliases.Canonical(m.Category)
			if !aliases.Known(category) && !unaliased[category] {
				unaliased[category] = true
				r.logger.Warn().Str("category", category).Msg("catalog category has no configured alias, tool names use it verbatim")
			}

			name := r.router.ToolName(category, m.Subcategory)
			parsedCategory, parsedSubcategory, err := r.router.ParseToolName(name)
			if err != nil || parsedCategory != category || parsedSubcategory != m.Subcategory {
				r.logger.Warn().Str("model", m.Key()).Str("tool", name).Msg("skipping model whose tool name does not parse back to it")
				continue
			}
			if _, dup := r.byName[name]; dup {
				r.logger.Warn().Str("tool", name).Msg("skipping duplicate tool name")
				continue
			}

			schema := r.schemas.Lookup(category, m.Subcategory)
			if schema == nil {
				schema = r.schemas.Lookup(m.Category, m.Subcategory)
			}
			params, ok := BuildParamOptions(schema)
			if !ok {
				params = FallbackParamOptions()
			}

			opts := append([]mcp.ToolOption{mcp.WithDescription(describeTool(category, m.Subcategory, m.Description, schema))}, params...)
			tool := mcp.NewTool(name, opts...)

			validator, err := compileValidator(tool)
			if err != nil {
				r.logger.Warn().Str("tool", name).Str("error", err.Error()).Msg("argument validation disabled for tool")
				validator = nil
			}

			r.byName[name] = len(r.defs)
			r.defs = append(r.defs, ToolDefinition{
				Tool:        tool,
				Category:    category,
				Subcategory: m.Subcategory,
				validator:   validator,
			})
		}

		r.logger.Info().Int("models", len(r.models)).Int("tools", len(r.defs)).Int("schemas", len(r.schemas)).Msg("tool registry built")
	})
}

// describeTool prefers the catalog description, then the schema's.
func describeTool(category, subcategory, modelDesc string, schema *catalog.Schema) string {
	desc := fmt.Sprintf("Generate %s content using the %s model.", category, subcategory)
	text := modelDesc
	if text == "" && schema != nil {
		text = schema.Description
	}
	if text != "" {
		desc += " " + text
	}
	return desc
}

// Definitions returns the tool definitions in catalog order.
func (r *Registry) Definitions() []ToolDefinition {
	r.build()
	out := make([]ToolDefinition, len(r.defs))
	copy(out, r.defs)
	return out
}

// Tools returns the mcp.Tool list in catalog order.
func (r *Registry) Tools() []mcp.Tool {
	r.build()
	tools := make([]mcp.Tool, len(r.defs))
	for i, d := range r.defs {
		tools[i] = d.Tool
	}
	return tools
}

// Len returns the number of generated tools.
func (r *Registry) Len() int {
	r.build()
	return len(r.defs)
}

// Lookup finds a generated tool by name.
func (r *Registry) Lookup(name string) (ToolDefinition, bool) {
	r.build()
	i, ok := r.byName[name]
	if !ok {
		return ToolDefinition{}, false
	}
	return r.defs[i], true
}

// ServerTools pairs every tool with its call handler.
func (r *Registry) ServerTools() []server.ServerTool {
	r.build()
	out := make([]server.ServerTool, len(r.defs))
	for i, d := range r.defs {
		out[i] = server.ServerTool{
			Tool:    d.Tool,
			Handler: r.generator.Handler(d.Tool.Name, d.validator),
		}
	}
	return out
}

// Register adds every generated tool to s and returns how many were added.
func (r *Registry) Register(s *server.MCPServer) int {
	tools := r.ServerTools()
	if len(tools) > 0 {
		s.AddTools(tools...)
	}
	return len(tools)
}

// Call invokes a tool directly, outside any transport. Names that are not in
// the catalog are still routed and submitted without argument validation.
func (r *Registry) Call(ctx context.Context, name string, args any) *mcp.CallToolResult {
	var validator *argumentValidator
	if d, ok := r.Lookup(name); ok {
		validator = d.validator
	}
	handler := r.generator.Handler(name, validator)
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	result, _ := handler(ctx, req)
	return result
}
