// Package config loads fmigen project configuration from fmigen.yaml or
// fmigen.toml.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/roach88/fmigen/pkg/description"
	"github.com/roach88/fmigen/pkg/ir"
)

// FileNames are the configuration files looked up by Find, in order.
var FileNames = []string{"fmigen.yaml", "fmigen.yml", "fmigen.toml"}

// Defaults.
const (
	DefaultOutDir   = "target/fmu"
	DefaultEncoding = "UTF-8"
	DefaultGo       = "go"
)

// ErrUnknownFormat is returned for configuration files that are neither
// YAML nor TOML.
var ErrUnknownFormat = errors.New("unknown configuration format")

// Config is the project configuration. Zero fields fall back to defaults.
type Config struct {
	OutDir       string           `yaml:"out_dir" toml:"out_dir"`
	Platform     string           `yaml:"platform" toml:"platform"`
	Encoding     string           `yaml:"encoding" toml:"encoding"`
	Experiment   Experiment       `yaml:"experiment" toml:"experiment"`
	Capabilities *ir.Capabilities `yaml:"capabilities" toml:"capabilities"`
	Go           string           `yaml:"go" toml:"go"`
	DB           string           `yaml:"db" toml:"db"`

	// Path is the file the configuration was loaded from, empty for defaults.
	Path string `yaml:"-" toml:"-"`
}

// Experiment overrides the default experiment. Unset fields keep the
// built-in value.
type Experiment struct {
	StartTime *float64 `yaml:"start_time" toml:"start_time"`
	StopTime  *float64 `yaml:"stop_time" toml:"stop_time"`
	Tolerance *float64 `yaml:"tolerance" toml:"tolerance"`
	StepSize  *float64 `yaml:"step_size" toml:"step_size"`
}

// Apply overlays the set fields on base.
func (e Experiment) Apply(base ir.Experiment) ir.Experiment {
	if e.StartTime != nil {
		base.StartTime = *e.StartTime
	}
	if e.StopTime != nil {
		base.StopTime = *e.StopTime
	}
	if e.Tolerance != nil {
		base.Tolerance = *e.Tolerance
	}
	if e.StepSize != nil {
		base.StepSize = *e.StepSize
	}
	return base
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		OutDir:   DefaultOutDir,
		Encoding: DefaultEncoding,
		Go:       DefaultGo,
	}
}

// Load parses the configuration file at path. The format follows the file
// extension. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	cfg := &Config{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse error in %s: %w", path, err)
		}
	case ".toml":
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, fmt.Errorf("parse error in %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			sort.Strings(keys)
			return nil, fmt.Errorf("parse error in %s: unknown keys %s", path, strings.Join(keys, ", "))
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}

	cfg.fill()
	cfg.Path = path
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Find walks up from dir looking for one of FileNames and loads the first
// match. Without a configuration file it returns Default().
func Find(dir string) (*Config, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	for {
		for _, name := range FileNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return Load(path)
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}

func (c *Config) fill() {
	def := Default()
	if c.OutDir == "" {
		c.OutDir = def.OutDir
	}
	if c.Encoding == "" {
		c.Encoding = def.Encoding
	}
	if c.Go == "" {
		c.Go = def.Go
	}
}

// Validate checks the platform and encoding names.
func (c *Config) Validate() error {
	if c.Platform != "" {
		if _, err := ir.ParsePlatform(c.Platform); err != nil {
			return err
		}
	}
	if c.Encoding != "" {
		if err := description.CheckEncoding(c.Encoding); err != nil {
			return fmt.Errorf("unsupported encoding %q: %w", c.Encoding, err)
		}
	}
	return nil
}

// TargetPlatform returns the configured platform, or the host platform.
func (c *Config) TargetPlatform() (ir.Platform, error) {
	if c.Platform == "" {
		return ir.HostPlatform()
	}
	return ir.ParsePlatform(c.Platform)
}

// ModelExperiment returns the experiment defaults a model starts from
// before its own experiment block is applied.
func (c *Config) ModelExperiment() ir.Experiment {
	return c.Experiment.Apply(ir.DefaultExperiment())
}

// ModelCapabilities returns the configured capability flags, or the
// defaults.
func (c *Config) ModelCapabilities() ir.Capabilities {
	if c.Capabilities != nil {
		return *c.Capabilities
	}
	return ir.DefaultCapabilities()
}
