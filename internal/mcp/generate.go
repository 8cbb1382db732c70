package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bobmcallan/genvr-mcp/internal/common"
	"github.com/bobmcallan/genvr-mcp/internal/genvr"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ErrMissingCredentials is returned when no uid or API key can be resolved for a call.
var ErrMissingCredentials = errors.New("missing credentials: provide uid and api_key as arguments, connection headers or server configuration")

// Submitter starts remote generation jobs.
type Submitter interface {
	Submit(ctx context.Context, category, subcategory string, params map[string]any, creds genvr.Credentials) (string, error)
}

// Awaiter waits for a submitted job to finish.
type Awaiter interface {
	Await(ctx context.Context, taskID, category, subcategory string, creds genvr.Credentials) (json.RawMessage, error)
}

// Generator runs one tool call end to end: route, resolve credentials,
// validate, submit, then await the result.
type Generator struct {
	router    *Router
	submitter Submitter
	awaiter   Awaiter
	defaults  genvr.Credentials
	logger    *common.Logger
}

// NewGenerator creates a Generator. defaults are used when neither the call
// nor the connection supplies credentials.
func NewGenerator(router *Router, submitter Submitter, awaiter Awaiter, defaults genvr.Credentials, logger *common.Logger) *Generator {
	return &Generator{
		router:    router,
		submitter: submitter,
		awaiter:   awaiter,
		defaults:  defaults,
		logger:    logger,
	}
}

// Generate executes a call and returns the remote result payload.
func (g *Generator) Generate(ctx context.Context, toolName string, rawArgs any, validator *argumentValidator) (json.RawMessage, error) {
	logger := g.logger.WithCorrelationId(uuid.NewString())

	inv, err := g.router.Route(toolName, rawArgs)
	if err != nil {
		return nil, err
	}
	if inv.Subcategory == "" {
		return nil, fmt.Errorf("%w: %s names no model and no model argument was given", ErrUnknownTool, toolName)
	}

	creds := resolveCredentials(ctx, inv.Credentials, g.defaults)
	if !creds.Complete() {
		return nil, ErrMissingCredentials
	}

	if err := validator.Validate(inv.Parameters); err != nil {
		return nil, err
	}

	start := time.Now()
	taskID, err := g.submitter.Submit(ctx, inv.Category, inv.Subcategory, inv.Parameters, creds)
	if err != nil {
		logger.Warn().Str("tool", toolName).Str("error", err.Error()).Msg("submit failed")
		return nil, err
	}
	logger.Info().Str("tool", toolName).Str("task_id", taskID).Str("category", inv.Category).Str("subcategory", inv.Subcategory).Msg("task submitted")

	result, err := g.awaiter.Await(ctx, taskID, inv.Category, inv.Subcategory, creds)
	if err != nil {
		logger.Warn().Str("tool", toolName).Str("task_id", taskID).Int64("duration_ms", time.Since(start).Milliseconds()).Str("error", err.Error()).Msg("task did not complete")
		return nil, err
	}

	logger.Info().Str("tool", toolName).Str("task_id", taskID).Int64("duration_ms", time.Since(start).Milliseconds()).Msg("task result fetched")
	return result, nil
}

// Handler returns the MCP handler for one tool. Every failure becomes an
// isError result; nothing is returned as a protocol error.
func (g *Generator) Handler(toolName string, validator *argumentValidator) server.ToolHandlerFunc {
	return func(ctx context.Context, r mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := g.Generate(ctx, toolName, r.GetRawArguments(), validator)
		if err != nil {
			return errorResult("Tool execution failed: " + err.Error()), nil
		}
		return successResult(result), nil
	}
}
