// Package config holds the translator and runner settings shared by the
// command line tools. Settings come from defaults, then an optional TOML or
// YAML file, then command line flags.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"hackvm/pkg/translator"
)

// Bootstrap modes.
const (
	BootstrapAuto   = "auto"   // only for directory inputs
	BootstrapAlways = "always" // also for single files
	BootstrapNever  = "never"
)

const (
	DefaultEntry     = "Sys.init"
	DefaultMaxCycles = 50_000_000
)

// ErrUnknownFormat is returned by Load for files that are neither TOML nor YAML.
var ErrUnknownFormat = errors.New("unknown config format")

type Config struct {
	StackBase   uint16 `toml:"stack_base" yaml:"stack_base"`
	Entry       string `toml:"entry" yaml:"entry"`
	Bootstrap   string `toml:"bootstrap" yaml:"bootstrap"`
	StaticScope string `toml:"static_scope" yaml:"static_scope"`
	Comments    bool   `toml:"comments" yaml:"comments"`
	MaxCycles   uint64 `toml:"max_cycles" yaml:"max_cycles"`
}

func Default() *Config {
	return &Config{
		StackBase:   translator.DefaultStackBase,
		Entry:       DefaultEntry,
		Bootstrap:   BootstrapAuto,
		StaticScope: translator.StaticPerUnit.String(),
		MaxCycles:   DefaultMaxCycles,
	}
}

// Load reads path over the defaults. The format follows the extension:
// .toml, or .yaml/.yml.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %s", path)
	}

	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, errors.Wrapf(err, "parsing %s", path)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "parsing %s", path)
		}
	default:
		return nil, errors.Wrapf(ErrUnknownFormat, "%s", path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config %s", path)
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	// Below 16 the stack would overlap the pointer, temp and scratch cells;
	// at the screen it would overwrite the memory map.
	if c.StackBase < 16 || c.StackBase >= 0x4000 {
		result = multierror.Append(result, errors.Errorf("stack_base %d outside [16, 16384)", c.StackBase))
	}
	if c.Entry == "" {
		result = multierror.Append(result, errors.New("entry must not be empty"))
	}
	switch c.Bootstrap {
	case BootstrapAuto, BootstrapAlways, BootstrapNever:
	default:
		result = multierror.Append(result, errors.Errorf("bootstrap %q is not one of auto, always, never", c.Bootstrap))
	}
	if _, err := translator.ParseStaticScope(c.StaticScope); err != nil {
		result = multierror.Append(result, err)
	}
	if c.MaxCycles == 0 {
		result = multierror.Append(result, errors.New("max_cycles must be positive"))
	}

	return result.ErrorOrNil()
}

// Options converts the settings into generator options. Validate must have
// succeeded.
func (c *Config) Options() translator.Options {
	statics, _ := translator.ParseStaticScope(c.StaticScope)
	return translator.Options{StackBase: c.StackBase, Statics: statics}
}

// WantBootstrap tells whether a program read from a directory (multiUnit) or
// a single file gets the bootstrap prefix.
func (c *Config) WantBootstrap(multiUnit bool) bool {
	switch c.Bootstrap {
	case BootstrapAlways:
		return true
	case BootstrapNever:
		return false
	}
	return multiUnit
}
