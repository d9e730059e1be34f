// Package config loads the YAML file describing logging, the HTTP server and
// the dictionaries to load.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"dictlookup/internal/array"
)

const (
	FormatCSV   = "csv"
	FormatJSON  = "json"
	FormatArrow = "arrow"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config is the root of the YAML document.
type Config struct {
	Logging      LoggingConfig `yaml:"logging" json:"logging"`
	Server       ServerConfig  `yaml:"server" json:"server"`
	Metrics      MetricsConfig `yaml:"metrics" json:"metrics"`
	Dictionaries []Dictionary  `yaml:"dictionaries" json:"dictionaries"`
}

// LoggingConfig selects the log level and the output format (console or json).
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

type ServerConfig struct {
	Address string `yaml:"address" json:"address"`
	// Readers bounds the number of readers built per dictionary.
	Readers int `yaml:"readers" json:"readers"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// Dictionary describes one dictionary source file.
type Dictionary struct {
	Name       string      `yaml:"name" json:"name"`
	Format     string      `yaml:"format" json:"format"`
	Path       string      `yaml:"path" json:"path"`
	Key        string      `yaml:"key" json:"key"`
	Delimiter  string      `yaml:"delimiter,omitempty" json:"delimiter,omitempty"`
	NullValues []string    `yaml:"null_values,omitempty" json:"null_values,omitempty"`
	Attributes []Attribute `yaml:"attributes" json:"attributes"`
}

// Attribute is one dictionary attribute. Column defaults to Name; an empty
// Type is inferred from the data (csv) or the file schema (arrow).
type Attribute struct {
	Name   string `yaml:"name" json:"name"`
	Type   string `yaml:"type,omitempty" json:"type,omitempty"`
	Column string `yaml:"column,omitempty" json:"column,omitempty"`
}

// SourceColumn is the column read from the source file.
func (a Attribute) SourceColumn() string {
	if a.Column != "" {
		return a.Column
	}
	return a.Name
}

// DataType parses Type. ok is false when the type is left to inference.
func (a Attribute) DataType() (array.DataType, bool, error) {
	if a.Type == "" {
		return array.DataType{}, false, nil
	}
	t, err := array.ParseDataType(a.Type)
	if err != nil {
		return array.DataType{}, false, err
	}
	return t, true, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info", Format: "console"},
		Server:  ServerConfig{Address: ":8080", Readers: 4},
		Metrics: MetricsConfig{Enabled: true},
	}
}

// Load reads path over the defaults and validates the result. Relative
// dictionary paths are resolved against the config file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	base := filepath.Dir(path)
	for i := range cfg.Dictionaries {
		if p := cfg.Dictionaries[i].Path; p != "" && !filepath.IsAbs(p) {
			cfg.Dictionaries[i].Path = filepath.Join(base, p)
		}
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Readers < 1 {
		return fmt.Errorf("%w: server.readers must be >= 1, got %d", ErrInvalidConfig, c.Server.Readers)
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("%w: logging.format must be console or json, got %q", ErrInvalidConfig, c.Logging.Format)
	}
	seen := make(map[string]struct{}, len(c.Dictionaries))
	for i := range c.Dictionaries {
		d := &c.Dictionaries[i]
		if d.Name == "" {
			return fmt.Errorf("%w: dictionaries[%d]: name required", ErrInvalidConfig, i)
		}
		if _, ok := seen[d.Name]; ok {
			return fmt.Errorf("%w: duplicate dictionary %s", ErrInvalidConfig, d.Name)
		}
		seen[d.Name] = struct{}{}
		if err := d.validate(); err != nil {
			return fmt.Errorf("%w: dictionary %s: %v", ErrInvalidConfig, d.Name, err)
		}
	}
	return nil
}

func (d *Dictionary) validate() error {
	switch d.Format {
	case FormatCSV, FormatJSON, FormatArrow:
	default:
		return fmt.Errorf("unknown format %q", d.Format)
	}
	if d.Path == "" {
		return fmt.Errorf("path required")
	}
	if d.Key == "" {
		return fmt.Errorf("key column required")
	}
	if len([]rune(d.Delimiter)) > 1 {
		return fmt.Errorf("delimiter must be a single character, got %q", d.Delimiter)
	}
	if len(d.Attributes) == 0 {
		return fmt.Errorf("at least one attribute required")
	}
	names := make(map[string]struct{}, len(d.Attributes))
	for _, a := range d.Attributes {
		if a.Name == "" {
			return fmt.Errorf("attribute name required")
		}
		if _, ok := names[a.Name]; ok {
			return fmt.Errorf("duplicate attribute %s", a.Name)
		}
		names[a.Name] = struct{}{}
		if _, _, err := a.DataType(); err != nil {
			return fmt.Errorf("attribute %s: %w", a.Name, err)
		}
		if a.Type == "" && d.Format == FormatJSON {
			return fmt.Errorf("attribute %s: type required for %s sources", a.Name, d.Format)
		}
	}
	return nil
}

// Lookup returns the dictionary named name.
func (c *Config) Lookup(name string) (Dictionary, bool) {
	for _, d := range c.Dictionaries {
		if d.Name == name {
			return d, true
		}
	}
	return Dictionary{}, false
}
