package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bobmcallan/genvr-mcp/internal/common"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration.
type Config struct {
	Environment string               `toml:"environment"`
	Server      ServerConfig         `toml:"server"`
	API         APIConfig            `toml:"api"`
	Credentials CredentialsConfig    `toml:"credentials"`
	Poller      PollerConfig         `toml:"poller"`
	Catalog     CatalogConfig        `toml:"catalog"`
	Logging     common.LoggingConfig `toml:"logging"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Name string `toml:"name"`
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

// APIConfig points at the remote generation API.
type APIConfig struct {
	BaseURL       string `toml:"base_url"`
	Timeout       string `toml:"timeout"`
	MaxResponseMB int    `toml:"max_response_mb"`
}

// GetTimeout parses and returns the HTTP client timeout.
func (c APIConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 60 * time.Second
	}
	return d
}

// CredentialsConfig holds fallback credentials for callers that supply none,
// typically a single-user stdio session.
type CredentialsConfig struct {
	UserID string `toml:"uid"`
	APIKey string `toml:"api_key"`
}

// PollerConfig controls the task completion loop.
type PollerConfig struct {
	MaxAttempts  int     `toml:"max_attempts"`
	InitialDelay string  `toml:"initial_delay"`
	Multiplier   float64 `toml:"multiplier"`
	MaxDelay     string  `toml:"max_delay"`
}

// GetInitialDelay parses the first backoff delay.
func (c PollerConfig) GetInitialDelay() time.Duration {
	return parseDurationOr(c.InitialDelay, 2*time.Second)
}

// GetMaxDelay parses the backoff cap.
func (c PollerConfig) GetMaxDelay() time.Duration {
	return parseDurationOr(c.MaxDelay, 10*time.Second)
}

// CatalogConfig locates the model catalog and schema cache data files.
type CatalogConfig struct {
	ModelsPath  string            `toml:"models_path"`
	SchemasPath string            `toml:"schemas_path"`
	Aliases     map[string]string `toml:"aliases"`
}

// LoadFromFiles loads configuration from multiple files with priority:
// defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies GENVR_* environment variable overrides to config.
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("GENVR_ENV"); env != "" {
		config.Environment = env
	}
	if port := os.Getenv("GENVR_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("GENVR_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if url := os.Getenv("GENVR_API_URL"); url != "" {
		config.API.BaseURL = url
	}
	if uid := os.Getenv("GENVR_UID"); uid != "" {
		config.Credentials.UserID = uid
	}
	if key := os.Getenv("GENVR_API_KEY"); key != "" {
		config.Credentials.APIKey = key
	}
	if models := os.Getenv("GENVR_MODELS_PATH"); models != "" {
		config.Catalog.ModelsPath = models
	}
	if schemas := os.Getenv("GENVR_SCHEMAS_PATH"); schemas != "" {
		config.Catalog.SchemasPath = schemas
	}
	if attempts := os.Getenv("GENVR_POLL_MAX_ATTEMPTS"); attempts != "" {
		if n, err := strconv.Atoi(attempts); err == nil {
			config.Poller.MaxAttempts = n
		}
	}
	if level := os.Getenv("GENVR_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config.
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate returns a list of human-readable configuration problems.
// Credentials are not checked: they may arrive per request.
func (c *Config) Validate() []string {
	var issues []string
	if c.API.BaseURL == "" {
		issues = append(issues, "api.base_url is required (GENVR_API_URL)")
	} else if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		issues = append(issues, fmt.Sprintf("api.base_url %q must start with http:// or https://", c.API.BaseURL))
	}
	if c.Catalog.ModelsPath == "" {
		issues = append(issues, "catalog.models_path is required (GENVR_MODELS_PATH)")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		issues = append(issues, fmt.Sprintf("server.port %d is out of range", c.Server.Port))
	}
	if c.Poller.MaxAttempts <= 0 {
		issues = append(issues, "poller.max_attempts must be positive")
	}
	if c.Poller.Multiplier < 1.0 {
		issues = append(issues, "poller.multiplier must be >= 1.0")
	}
	return issues
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
