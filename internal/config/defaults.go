package config

import "github.com/bobmcallan/genvr-mcp/internal/common"

// NewDefaultConfig creates a configuration with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "prod",
		Server: ServerConfig{
			Name: "genvr-mcp",
			Port: 4250,
			Host: "localhost",
		},
		API: APIConfig{
			BaseURL:       "https://api.genvrresearch.com/v2",
			Timeout:       "60s",
			MaxResponseMB: 50,
		},
		Poller: PollerConfig{
			MaxAttempts:  60,
			InitialDelay: "2s",
			Multiplier:   1.5,
			MaxDelay:     "10s",
		},
		Catalog: CatalogConfig{
			ModelsPath:  "data/models.json",
			SchemasPath: "data/schemas.json",
		},
		Logging: common.LoggingConfig{
			Level:      "info",
			Outputs:    []string{"console"},
			FilePath:   "logs/genvr-mcp.log",
			MaxSizeMB:  100,
			MaxBackups: 3,
		},
	}
}
