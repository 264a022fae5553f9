// Package config loads simdplan project configuration.
//
// Configuration is loaded from a single file specified by:
//   - SIMDPLAN_CONFIG environment variable, or
//   - --config flag passed to the command
//
// Files ending in .yaml or .yml are parsed as YAML. Files ending in .json or
// .jsonc are parsed as JSON with // and /* */ comments and trailing commas
// allowed. Paths may reference ${VAR} and ${VAR:-default}; ${CONFIG_DIR}
// expands to the directory holding the file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/albertocavalcante/go-simdplan/backend"
	"github.com/albertocavalcante/go-simdplan/platform"
	"github.com/albertocavalcante/go-simdplan/strategy"
)

// EnvVar names the environment variable that locates the config file.
const EnvVar = "SIMDPLAN_CONFIG"

// ErrNoConfig is returned by Load when SIMDPLAN_CONFIG is not set.
var ErrNoConfig = errors.New(EnvVar + " environment variable not set")

// Format is a config file syntax.
type Format int

const (
	// YAML is parsed with gopkg.in/yaml.v3.
	YAML Format = iota
	// JSONC is JSON with comments and trailing commas.
	JSONC
)

func (f Format) String() string {
	switch f {
	case YAML:
		return "yaml"
	case JSONC:
		return "jsonc"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// FormatFor picks the format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML, nil
	case ".json", ".jsonc":
		return JSONC, nil
	default:
		return 0, fmt.Errorf("config %s: unknown extension %q (want .yaml, .yml, .json or .jsonc)", path, filepath.Ext(path))
	}
}

// Config is a simdplan project file.
type Config struct {
	// Platform describes the build target.
	Platform PlatformConfig `yaml:"platform" json:"platform"`

	// Overrides are developer overrides of the computed strategy and flags.
	Overrides strategy.Overrides `yaml:"overrides" json:"overrides"`

	// Backend configures the optional parallel backend.
	Backend BackendConfig `yaml:"backend" json:"backend"`

	// Tables locates the platform tables file.
	Tables TablesConfig `yaml:"tables" json:"tables"`
}

// PlatformConfig describes the build target.
type PlatformConfig struct {
	// Host uses the signals of the running machine, with explicit signal
	// fields overlaid. When unset, the host is used only if no signal field
	// is given.
	Host *bool `yaml:"host,omitempty" json:"host,omitempty"`

	platform.Signals `yaml:",inline"`
}

// BackendConfig configures the optional parallel backend.
type BackendConfig struct {
	// Enabled requests the backend.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// AllowFetch permits fetching the backend when no installation is found.
	AllowFetch bool `yaml:"allow_fetch" json:"allow_fetch"`

	// Prefixes are installation prefixes searched for pkg-config files.
	Prefixes []string `yaml:"prefixes" json:"prefixes"`

	// Stdlib names the C++ standard library ("libc++", "libstdc++").
	Stdlib string `yaml:"stdlib" json:"stdlib"`
}

// TablesConfig locates the platform tables.
type TablesConfig struct {
	// Path is a tables file. Empty means the built-in tables.
	Path string `yaml:"path" json:"path"`
}

// Default returns the default configuration: host platform, no overrides,
// backend off, built-in tables.
func Default() *Config {
	return &Config{}
}

// UsesHost reports whether the host machine supplies the platform signals.
func (p PlatformConfig) UsesHost() bool {
	if p.Host != nil {
		return *p.Host
	}
	return reflect.ValueOf(p.Signals).IsZero()
}

// Load loads configuration from the SIMDPLAN_CONFIG environment variable.
// There is no fallback or discovery; an unset variable is ErrNoConfig.
func Load() (*Config, error) {
	path := os.Getenv(EnvVar)
	if path == "" {
		return nil, ErrNoConfig
	}
	return LoadFile(path)
}

// LoadFile loads and validates configuration from path.
func LoadFile(path string) (*Config, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	cfg, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	cfg.expandVariables(dir)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes configuration data over Default. Variables are not
// expanded and the result is not validated.
func Parse(data []byte, format Format) (*Config, error) {
	cfg := Default()
	switch format {
	case YAML:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing YAML config: %w", err)
		}
	case JSONC:
		if err := json.Unmarshal(jsonc.ToJSON(data), cfg); err != nil {
			return nil, fmt.Errorf("parsing JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown config format %v", format)
	}
	return cfg, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables(dir string) {
	vars := map[string]string{
		"CONFIG_DIR": dir,
		"HOME":       os.Getenv("HOME"),
	}

	c.Tables.Path = expandVars(c.Tables.Path, vars)
	for i, prefix := range c.Backend.Prefixes {
		c.Backend.Prefixes[i] = expandVars(prefix, vars)
	}
	if c.Tables.Path != "" && !filepath.IsAbs(c.Tables.Path) {
		c.Tables.Path = filepath.Join(dir, c.Tables.Path)
	}
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		name, defaultValue := parts[1], parts[2]

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors. All problems are reported.
// The strategy override is not checked here: an unknown spelling is a fatal
// resolution error.
func (c *Config) Validate() error {
	var errs []error

	if _, err := c.Overrides.CapabilityFlags(); err != nil {
		errs = append(errs, fmt.Errorf("overrides.flags: %w", err))
	}
	if w := c.Platform.PointerWidth; w != 0 && w != 32 && w != 64 {
		errs = append(errs, fmt.Errorf("platform.pointer_width must be 32 or 64, got %d", w))
	}
	if c.Backend.AllowFetch && !c.Backend.Enabled {
		errs = append(errs, errors.New("backend.allow_fetch requires backend.enabled"))
	}
	for i, prefix := range c.Backend.Prefixes {
		if prefix == "" {
			errs = append(errs, fmt.Errorf("backend.prefixes[%d] is empty", i))
		}
	}

	return errors.Join(errs...)
}

// Signals returns the effective platform signals: host signals when
// requested, overlaid with every explicitly set field.
func (c *Config) Signals() platform.Signals {
	explicit := c.Platform.Signals
	if !c.Platform.UsesHost() {
		return explicit
	}
	s := platform.HostSignals()
	if len(explicit.TargetArchitectures) > 0 {
		s.TargetArchitectures = explicit.TargetArchitectures
	}
	overlay(&s.CompilerArchitectureID, explicit.CompilerArchitectureID)
	overlay(&s.SystemProcessor, explicit.SystemProcessor)
	overlay(&s.SystemName, explicit.SystemName)
	overlay(&s.CompilerID, explicit.CompilerID)
	overlay(&s.CompilerFrontendVariant, explicit.CompilerFrontendVariant)
	overlay(&s.AndroidABI, explicit.AndroidABI)
	if explicit.PointerWidth != 0 {
		s.PointerWidth = explicit.PointerWidth
	}
	return s
}

func overlay(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

// Request returns the backend request.
func (c *Config) Request() backend.Request {
	return backend.Request{Requested: c.Backend.Enabled, AllowFetch: c.Backend.AllowFetch}
}
