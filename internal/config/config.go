// Package config loads the daemon configuration from config/<env>.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/searchd/internal/datareader"
	"github.com/kailas-cloud/searchd/internal/domain/query"
)

// Config holds the searchd configuration.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Logging     LoggingConfig     `yaml:"logging"`
	Query       QueryConfig       `yaml:"query"`
	Reader      ReaderConfig      `yaml:"reader"`
	Optimize    OptimizeConfig    `yaml:"optimize"`
	Maintenance MaintenanceConfig `yaml:"maintenance"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int   `yaml:"port"`
	ReadTimeoutSec  int   `yaml:"read_timeout_sec"`
	WriteTimeoutSec int   `yaml:"write_timeout_sec"`
	ShutdownSec     int   `yaml:"shutdown_timeout_sec"`
	MaxBodyBytes    int64 `yaml:"max_body_bytes"`
}

// QueryConfig holds the parser defaults shared by every request.
type QueryConfig struct {
	AgentQueryTimeoutMs int           `yaml:"agent_query_timeout_ms"`
	Collation           string        `yaml:"collation"`
	AllowDeprecated     bool          `yaml:"allow_deprecated"`
	Plugins             PluginsConfig `yaml:"plugins"`
}

// PluginsConfig lists the plugin names the parser accepts.
type PluginsConfig struct {
	Rankers      []string `yaml:"rankers"`
	TokenFilters []string `yaml:"token_filters"`
}

// ReaderConfig holds index file access settings.
type ReaderConfig struct {
	Access     string `yaml:"access"` // file, mmap, mmap_preread, mlock
	DocsBuffer int    `yaml:"docs_buffer"`
	ReadBuffer int    `yaml:"read_buffer"`
}

// OptimizeConfig holds background optimize settings.
type OptimizeConfig struct {
	Workers   int    `yaml:"workers"`
	QueueSize int    `yaml:"queue_size"`
	DataDir   string `yaml:"data_dir"`
}

// MaintenanceConfig switches the query endpoint off.
type MaintenanceConfig struct {
	Enabled bool   `yaml:"enabled"`
	Message string `yaml:"message"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		c.HTTP.MaxBodyBytes = 8 << 20
	}
	if c.Query.AgentQueryTimeoutMs <= 0 {
		c.Query.AgentQueryTimeoutMs = 3000
	}
	if c.Query.Collation == "" {
		c.Query.Collation = query.CollationLibcCI.String()
	}
	if c.Reader.Access == "" {
		c.Reader.Access = datareader.AccessMmap.String()
	}
	if c.Reader.DocsBuffer <= 0 {
		c.Reader.DocsBuffer = datareader.DefaultFactoryBuffer
	}
	if c.Reader.ReadBuffer <= 0 {
		c.Reader.ReadBuffer = datareader.DefaultReaderBuffer
	}
	if c.Optimize.Workers <= 0 {
		c.Optimize.Workers = 1
	}
	if c.Optimize.QueueSize <= 0 {
		c.Optimize.QueueSize = 64
	}
	if c.Maintenance.Message == "" {
		c.Maintenance.Message = "server is in maintenance mode"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if _, err := query.ParseCollation(c.Query.Collation); err != nil {
		return fmt.Errorf("query.collation: %w", err)
	}
	if _, err := datareader.ParseAccess(c.Reader.Access); err != nil {
		return fmt.Errorf("reader.access: %w", err)
	}
	if c.Optimize.DataDir == "" {
		return fmt.Errorf("optimize.data_dir is required")
	}
	for _, name := range c.Query.Plugins.Rankers {
		if name == "" || strings.ContainsAny(name, " \t:") {
			return fmt.Errorf("query.plugins.rankers: bad plugin name %q", name)
		}
	}
	for _, name := range c.Query.Plugins.TokenFilters {
		if name == "" || strings.ContainsAny(name, " \t:") {
			return fmt.Errorf("query.plugins.token_filters: bad plugin name %q", name)
		}
	}
	return nil
}

// Collation returns the parsed query collation. Call after Validate.
func (c *Config) Collation() query.Collation {
	coll, _ := query.ParseCollation(c.Query.Collation)
	return coll
}

// Access returns the parsed reader access mode. Call after Validate.
func (c *Config) Access() datareader.Access {
	a, _ := datareader.ParseAccess(c.Reader.Access)
	return a
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
