package mcp

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bobmcallan/genvr-mcp/internal/catalog"
	"github.com/bobmcallan/genvr-mcp/internal/genvr"
)

// ToolPrefix starts every generated tool name.
const ToolPrefix = "generate_"

var (
	// ErrUnknownTool is returned when a tool name does not follow the generated naming scheme.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrMissingArguments is returned when a call carries no argument object.
	ErrMissingArguments = errors.New("missing arguments")
)

// Invocation is a routed tool call ready for submission.
type Invocation struct {
	ToolName    string
	Category    string
	Subcategory string
	Parameters  map[string]any
	Credentials genvr.Credentials
}

// Body merges the parameters with category and subcategory.
func (i Invocation) Body() map[string]any {
	body := make(map[string]any, len(i.Parameters)+2)
	for k, v := range i.Parameters {
		body[k] = v
	}
	body["category"] = i.Category
	body["subcategory"] = i.Subcategory
	return body
}

// Router converts between tool names and (category, subcategory) pairs and
// normalizes inbound arguments. Naming and parsing share one alias table so
// that ParseToolName is the exact inverse of ToolName.
type Router struct {
	aliases *catalog.Aliases
}

// NewRouter creates a router over the given alias table.
func NewRouter(aliases *catalog.Aliases) *Router {
	if aliases == nil {
		aliases = catalog.NewAliases(nil)
	}
	return &Router{aliases: aliases}
}

// Aliases returns the category alias table.
func (r *Router) Aliases() *catalog.Aliases {
	return r.aliases
}

// ToolName builds generate_<short category>_<subcategory>.
func (r *Router) ToolName(category, subcategory string) string {
	return ToolPrefix + r.aliases.Short(category) + "_" + subcategory
}

// ParseToolName splits a tool name back into its canonical category and
// subcategory. The subcategory is everything after the first separator and
// may be empty.
func (r *Router) ParseToolName(name string) (string, string, error) {
	rest, ok := strings.CutPrefix(name, ToolPrefix)
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	category, subcategory, _ := strings.Cut(rest, "_")
	if category == "" {
		return "", "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return r.aliases.Canonical(category), subcategory, nil
}

// Route parses the tool name and normalizes the raw arguments:
//  1. a "parameters" object replaces the argument set
//  2. a second nested "parameters" object is unwrapped once more
//  3. "model" becomes the subcategory when the name carried none
//  4. category_genvr and subcategory_genvr are dropped
//
// Credential fields found at any level are lifted out of the parameters.
// The pair is not checked against the catalog.
func (r *Router) Route(toolName string, rawArgs any) (Invocation, error) {
	category, subcategory, err := r.ParseToolName(toolName)
	if err != nil {
		return Invocation{}, err
	}

	args, ok := rawArgs.(map[string]any)
	if !ok || args == nil {
		return Invocation{}, fmt.Errorf("%w: %s expects an object", ErrMissingArguments, toolName)
	}

	var creds genvr.Credentials
	params := args
	for range 2 {
		liftCredentials(params, &creds)
		nested, ok := params["parameters"].(map[string]any)
		if !ok {
			break
		}
		params = nested
	}
	liftCredentials(params, &creds)

	out := make(map[string]any, len(params))
	for k, v := range params {
		out[k] = v
	}

	if subcategory == "" {
		if model, ok := out["model"].(string); ok && model != "" {
			subcategory = model
			delete(out, "model")
		}
	}

	delete(out, "category_genvr")
	delete(out, "subcategory_genvr")
	delete(out, ArgUserID)
	delete(out, ArgAPIKey)

	return Invocation{
		ToolName:    toolName,
		Category:    category,
		Subcategory: subcategory,
		Parameters:  out,
		Credentials: creds,
	}, nil
}

// liftCredentials fills unset credential fields from string values in m.
// The outermost non-empty value wins.
func liftCredentials(m map[string]any, creds *genvr.Credentials) {
	if creds.UserID == "" {
		if v, ok := m[ArgUserID].(string); ok {
			creds.UserID = v
		}
	}
	if creds.APIKey == "" {
		if v, ok := m[ArgAPIKey].(string); ok {
			creds.APIKey = v
		}
	}
}
