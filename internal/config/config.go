// Package config loads the wikisql YAML configuration file.
//
// The file is decoded with yaml.v3 and checked against an embedded CUE
// schema (schema.cue) before it is applied on top of the defaults. Command
// line flags override file values; that merge happens in the cli package.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"

	"github.com/roach88/wikisql/internal/endpoint"
	"github.com/roach88/wikisql/internal/queryir"
)

//go:embed schema.cue
var schemaSource string

// EnvConfigPath names the environment variable that points at a config file
// when --config is not given.
const EnvConfigPath = "WIKISQL_CONFIG"

// Config is the complete runtime configuration.
type Config struct {
	Language   string `yaml:"language"`
	ShowSPARQL bool   `yaml:"show_sparql"`
	Format     string `yaml:"format"`

	Endpoint EndpointConfig `yaml:"endpoint"`
	History  HistoryConfig  `yaml:"history"`
	Log      LogConfig      `yaml:"log"`
}

// EndpointConfig configures the SPARQL endpoint client.
type EndpointConfig struct {
	URL       string `yaml:"url"`
	UserAgent string `yaml:"user_agent"`
	Timeout   string `yaml:"timeout"`
	MaxRows   int    `yaml:"max_rows"`
}

// HistoryConfig configures the SQLite query history.
type HistoryConfig struct {
	Path     string `yaml:"path"`
	Disabled bool   `yaml:"disabled"`
}

// LogConfig configures logging. An empty File logs to stderr.
type LogConfig struct {
	File       string `yaml:"file"`
	Level      string `yaml:"level"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Language: queryir.DefaultLanguage,
		Format:   "text",
		Endpoint: EndpointConfig{
			URL:       endpoint.DefaultURL,
			UserAgent: endpoint.DefaultUserAgent,
			Timeout:   endpoint.DefaultTimeout.String(),
			MaxRows:   endpoint.DefaultMaxRows,
		},
		History: HistoryConfig{
			Path: DefaultHistoryPath(),
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
			Compress:   true,
		},
	}
}

// DefaultHistoryPath returns the history database location under the user's
// config directory, or a file in the working directory when there is none.
func DefaultHistoryPath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return ".wikisql_history.db"
	}
	return filepath.Join(dir, "wikisql", "history.db")
}

// ResolvePath picks the config file: the flag value, then $WIKISQL_CONFIG.
// An empty result means "use defaults".
func ResolvePath(flag string) string {
	if flag != "" {
		return flag
	}
	return os.Getenv(EnvConfigPath)
}

// Load reads and validates the file at path. An empty path returns Default().
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Message: "can't read config file", Err: err}
	}
	return Parse(data, path)
}

// Parse validates YAML config data against the schema and applies it over
// the defaults. path is used in error messages only.
func Parse(data []byte, path string) (*Config, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Path: path, Message: "invalid YAML", Err: err}
	}
	if err := validateSchema(raw); err != nil {
		return nil, &ConfigError{Path: path, Message: "schema violation", Err: err}
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &ConfigError{Path: path, Message: "invalid YAML", Err: err}
	}
	if err := cfg.Validate(); err != nil {
		return nil, &ConfigError{Path: path, Message: "invalid value", Err: err}
	}
	return cfg, nil
}

// validateSchema checks the decoded document against #Config.
func validateSchema(raw map[string]any) error {
	if raw == nil {
		// empty file
		return nil
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	def := schema.LookupPath(cue.ParsePath("#Config"))
	doc := ctx.Encode(raw)
	if err := doc.Err(); err != nil {
		return err
	}

	if err := def.Unify(doc).Validate(cue.Concrete(true)); err != nil {
		return firstCUEError(err)
	}
	return nil
}

// firstCUEError reduces a CUE error list to its first entry.
func firstCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	return errors.New(errs[0].Error())
}

// Validate checks the values the schema can't express.
func (c *Config) Validate() error {
	if _, err := queryir.NormalizeLanguage(c.Language); err != nil {
		return err
	}
	if _, err := c.Endpoint.TimeoutDuration(); err != nil {
		return err
	}
	return nil
}

// TimeoutDuration parses Timeout. Empty means endpoint.DefaultTimeout.
func (e EndpointConfig) TimeoutDuration() (time.Duration, error) {
	if e.Timeout == "" {
		return endpoint.DefaultTimeout, nil
	}
	d, err := time.ParseDuration(e.Timeout)
	if err != nil {
		return 0, fmt.Errorf("endpoint.timeout: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("endpoint.timeout must be positive, got %s", e.Timeout)
	}
	return d, nil
}

// EndpointClientConfig converts the endpoint section for endpoint.New.
func (c *Config) EndpointClientConfig() endpoint.Config {
	timeout, err := c.Endpoint.TimeoutDuration()
	if err != nil {
		timeout = endpoint.DefaultTimeout
	}
	return endpoint.Config{
		URL:       c.Endpoint.URL,
		UserAgent: c.Endpoint.UserAgent,
		Timeout:   timeout,
		MaxRows:   c.Endpoint.MaxRows,
	}
}

// ConfigError reports a config file that could not be loaded.
type ConfigError struct {
	Path    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config %s: %s: %v", e.Path, e.Message, e.Err)
	}
	return fmt.Sprintf("config %s: %s", e.Path, e.Message)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Err
}
