// Package config loads fsmap settings from HCL or YAML files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/hclsimple"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config is the root of an fsmap configuration file.
type Config struct {
	// LogLevel is a logrus level name. Empty keeps the default (info).
	LogLevel string `hcl:"log_level,optional" yaml:"log_level"`
	// AllowOverride lets a later extractor take over a suffix already
	// claimed by an earlier one instead of failing startup.
	AllowOverride bool `hcl:"allow_override,optional" yaml:"allow_override"`

	Exiftool *Exiftool `hcl:"exiftool,block" yaml:"exiftool"`
	PDFText  *PDFText  `hcl:"pdftext,block" yaml:"pdftext"`
	Outline  *Outline  `hcl:"outline,block" yaml:"outline"`
	JSON     *JSON     `hcl:"json,block" yaml:"json"`
}

// Exiftool configures the persistent metadata co-process.
type Exiftool struct {
	Disabled   bool     `hcl:"disabled,optional" yaml:"disabled"`
	Path       string   `hcl:"path,optional" yaml:"path"`
	TagFilters []string `hcl:"tag_filters,optional" yaml:"tag_filters"`
	// HeaderLines and TrailerLines describe the shape of the -X output
	// for the exiftool version in use.
	HeaderLines  int `hcl:"header_lines,optional" yaml:"header_lines"`
	TrailerLines int `hcl:"trailer_lines,optional" yaml:"trailer_lines"`
}

// PDFText configures the one-shot pdftohtml extraction.
type PDFText struct {
	Disabled bool   `hcl:"disabled,optional" yaml:"disabled"`
	Path     string `hcl:"path,optional" yaml:"path"`
}

// Outline configures the tree-sitter outline extractor.
type Outline struct {
	Disabled bool `hcl:"disabled,optional" yaml:"disabled"`
}

// JSON configures the JSON structure extractor.
type JSON struct {
	Disabled bool `hcl:"disabled,optional" yaml:"disabled"`
	// Selectors are JSONPath expressions whose matches are reported.
	Selectors []string `hcl:"selectors,optional" yaml:"selectors"`
}

// DefaultTagFilters exclude the tool, file-system and system groups, which
// duplicate what the FSML attributes already carry.
var DefaultTagFilters = []string{"--Exiftool:*", "--File:*", "--System:*"}

const (
	DefaultHeaderLines  = 4
	DefaultTrailerLines = 2
)

// Default returns a configuration with every extractor enabled.
func Default() *Config {
	c := &Config{}
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills unset values.
func (c *Config) ApplyDefaults() {
	if c.Exiftool == nil {
		c.Exiftool = &Exiftool{}
	}
	if c.Exiftool.Path == "" {
		c.Exiftool.Path = "exiftool"
	}
	if len(c.Exiftool.TagFilters) == 0 {
		c.Exiftool.TagFilters = append([]string(nil), DefaultTagFilters...)
	}
	if c.Exiftool.HeaderLines == 0 {
		c.Exiftool.HeaderLines = DefaultHeaderLines
	}
	if c.Exiftool.TrailerLines == 0 {
		c.Exiftool.TrailerLines = DefaultTrailerLines
	}
	if c.PDFText == nil {
		c.PDFText = &PDFText{}
	}
	if c.PDFText.Path == "" {
		c.PDFText.Path = "pdftohtml"
	}
	if c.Outline == nil {
		c.Outline = &Outline{}
	}
	if c.JSON == nil {
		c.JSON = &JSON{}
	}
}

// Validate reports settings fsmap cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.LogLevel != "" {
		if _, err := log.ParseLevel(c.LogLevel); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Exiftool != nil {
		if len(c.Exiftool.TagFilters) < 2 {
			errs = append(errs, fmt.Errorf("exiftool: at least two tag filters required, got %d", len(c.Exiftool.TagFilters)))
		}
		if c.Exiftool.HeaderLines < 0 || c.Exiftool.TrailerLines < 0 {
			errs = append(errs, errors.New("exiftool: header_lines and trailer_lines must not be negative"))
		}
	}
	return errors.Join(errs...)
}

// Load reads a configuration file. The syntax follows the extension:
// .hcl and .json through HCL, .yaml and .yml through YAML.
// An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		switch ext := strings.ToLower(filepath.Ext(path)); ext {
		case ".hcl", ".json":
			if err := hclsimple.DecodeFile(path, nil, cfg); err != nil {
				return nil, fmt.Errorf("decode %s: %w", path, err)
			}
		case ".yaml", ".yml":
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read config: %w", err)
			}
			dec := yaml.NewDecoder(bytes.NewReader(data))
			dec.KnownFields(true)
			if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("decode %s: %w", path, err)
			}
		default:
			return nil, fmt.Errorf("unsupported config format %q", ext)
		}
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// DefaultPath is where fsmap looks for a configuration when none is given.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home dir: %w", err)
	}
	return filepath.Join(home, ".agentic-research", "fsmap", "fsmap.hcl"), nil
}
