package app

import (
	"fmt"
	"strings"

	"github.com/bobmcallan/genvr-mcp/internal/catalog"
	"github.com/bobmcallan/genvr-mcp/internal/common"
	"github.com/bobmcallan/genvr-mcp/internal/config"
	"github.com/bobmcallan/genvr-mcp/internal/genvr"
	"github.com/bobmcallan/genvr-mcp/internal/handlers"
	"github.com/bobmcallan/genvr-mcp/internal/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// App holds all application components and dependencies.
type App struct {
	Config *config.Config
	Logger *common.Logger

	Models   []catalog.ModelDescriptor
	Schemas  catalog.SchemaCache
	Client   *genvr.Client
	Poller   *genvr.Poller
	Registry *mcp.Registry

	MCPServer *mcpserver.MCPServer

	// HTTP handlers
	MCPHandler     *mcp.Handler
	HealthHandler  *handlers.HealthHandler
	VersionHandler *handlers.VersionHandler
}

// Option customizes application construction.
type Option func(*options)

type options struct {
	pollerOpts []genvr.PollerOption
}

// WithPollerOptions passes extra options to the completion poller.
func WithPollerOptions(opts ...genvr.PollerOption) Option {
	return func(o *options) {
		o.pollerOpts = append(o.pollerOpts, opts...)
	}
}

// New initializes the application with all dependencies.
func New(cfg *config.Config, logger *common.Logger, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if issues := cfg.Validate(); len(issues) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(issues, "; "))
	}

	env := strings.ToLower(strings.TrimSpace(cfg.Environment))
	if env != "prod" && env != "dev" && env != "" {
		logger.Warn().
			Str("environment", cfg.Environment).
			Msg("unrecognized environment value, defaulting to prod behavior")
	}

	a := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := a.loadCatalog(); err != nil {
		return nil, err
	}
	a.initGenVR(o)
	a.initHandlers()

	logger.Info().
		Int("tools", a.Registry.Len()).
		Str("api_url", a.Client.BaseURL()).
		Msg("application initialization complete")

	return a, nil
}

func (a *App) loadCatalog() error {
	models, err := catalog.LoadModels(a.Config.Catalog.ModelsPath, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to load model catalog: %w", err)
	}
	schemas, err := catalog.LoadSchemas(a.Config.Catalog.SchemasPath, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to load schema cache: %w", err)
	}
	a.Models = models
	a.Schemas = schemas

	a.Logger.Debug().Int("models", len(models)).Int("schemas", len(schemas)).Msg("catalog loaded")
	return nil
}

func (a *App) initGenVR(o options) {
	cfg := a.Config

	a.Client = genvr.NewClient(cfg.API.BaseURL, a.Logger,
		genvr.WithTimeout(cfg.API.GetTimeout()),
		genvr.WithMaxResponseMB(cfg.API.MaxResponseMB),
	)

	a.Poller = genvr.NewPoller(a.Client, genvr.PollerConfig{
		MaxAttempts:  cfg.Poller.MaxAttempts,
		InitialDelay: cfg.Poller.GetInitialDelay(),
		Multiplier:   cfg.Poller.Multiplier,
		MaxDelay:     cfg.Poller.GetMaxDelay(),
	}, a.Logger, o.pollerOpts...)

	router := mcp.NewRouter(catalog.NewAliases(cfg.Catalog.Aliases))
	defaults := genvr.Credentials{
		UserID: cfg.Credentials.UserID,
		APIKey: cfg.Credentials.APIKey,
	}
	generator := mcp.NewGenerator(router, a.Client, a.Poller, defaults, a.Logger)

	a.Registry = mcp.NewRegistry(a.Models, a.Schemas, router, generator, a.Logger)
	a.MCPServer = mcp.NewMCPServer(cfg.Server.Name, common.GetVersion(), a.Registry, a.Logger)
}

// initHandlers initializes all HTTP handlers.
func (a *App) initHandlers() {
	a.MCPHandler = mcp.NewHandler(a.MCPServer, a.Logger)
	a.HealthHandler = handlers.NewHealthHandler(a.Logger, a.Registry.Len)
	a.VersionHandler = handlers.NewVersionHandler(a.Logger)

	a.Logger.Debug().Msg("HTTP handlers initialized")
}

// Close closes all application resources.
func (a *App) Close() error {
	return nil
}
