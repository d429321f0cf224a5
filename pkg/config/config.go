// Package config loads the astrolabe configuration file.
//
// The file is TOML and lives at $XDG_CONFIG_HOME/astrolabe/config.toml, or
// ~/.config/astrolabe/config.toml when XDG_CONFIG_HOME is unset. A missing
// file is not an error: every field has a default.
//
//	data_dir = ".astrolabe"
//	excluded_libraries = ["MyVendoredLib"]
//	log_level = "debug"
//	metrics_file = "/var/lib/node_exporter/astrolabe.prom"
//	sessions_dir = "/home/me/.config/astrolabe/sessions"
//
// Libraries named in excluded_libraries are added to
// [cache.DefaultExcludedLibraries]; set replace_excluded = true to use the
// list as given.
package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/astrolabe/pkg/cache"
	"github.com/matzehuels/astrolabe/pkg/errors"
	"github.com/matzehuels/astrolabe/pkg/pipeline"
)

const (
	// AppName names the configuration directory.
	AppName = "astrolabe"

	// FileName is the configuration file inside [Dir].
	FileName = "config.toml"
)

// Config is the user configuration.
type Config struct {
	// DataDir is the per-project data directory, relative to the project root.
	DataDir string `toml:"data_dir"`

	// ExcludedLibraries extends the dependency libraries left out of the
	// artifact hash.
	ExcludedLibraries []string `toml:"excluded_libraries"`

	// ReplaceExcluded uses ExcludedLibraries verbatim instead of extending
	// the defaults.
	ReplaceExcluded bool `toml:"replace_excluded"`

	// LogLevel is one of debug, info, warn, error. Defaults to info.
	LogLevel string `toml:"log_level"`

	// MetricsFile receives a Prometheus textfile snapshot after each command.
	// Empty disables metrics.
	MetricsFile string `toml:"metrics_file"`

	// SessionsDir holds the recently opened projects. Defaults to
	// session.DefaultDir.
	SessionsDir string `toml:"sessions_dir"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	var c Config
	c.SetDefaults()
	return c
}

// SetDefaults fills zero fields with their defaults and merges the excluded
// libraries with the built-in list.
func (c *Config) SetDefaults() {
	if c.DataDir == "" {
		c.DataDir = cache.DefaultDataDir
	}
	if !c.ReplaceExcluded {
		merged := slices.Clone(cache.DefaultExcludedLibraries)
		for _, lib := range c.ExcludedLibraries {
			if !slices.Contains(merged, lib) {
				merged = append(merged, lib)
			}
		}
		c.ExcludedLibraries = merged
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate checks the data directory and the log level.
func (c *Config) Validate() error {
	if err := pipeline.ValidateDataDir(c.DataDir); err != nil {
		return err
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "log_level %q", c.LogLevel)
	}
	for _, lib := range c.ExcludedLibraries {
		if strings.TrimSpace(lib) == "" || strings.ContainsAny(lib, `/\`) {
			return errors.New(errors.ErrCodeInvalidInput, "excluded_libraries: invalid library name %q", lib)
		}
	}
	return nil
}

// Level returns the parsed log level. Invalid levels fall back to info.
func (c *Config) Level() log.Level {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// Dir returns $XDG_CONFIG_HOME/astrolabe, falling back to ~/.config/astrolabe.
func Dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeIOFailure, err, "get home dir")
	}
	return filepath.Join(home, ".config", AppName), nil
}

// DefaultPath returns the configuration file inside [Dir].
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// Load reads the configuration at path, or at [DefaultPath] when path is
// empty. A missing file yields [Default]. Unknown keys are rejected so typos
// do not go unnoticed.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return Default(), nil
		}
		path = p
	}

	var c Config
	md, err := toml.DecodeFile(path, &c)
	switch {
	case os.IsNotExist(err) && !explicit:
		return Default(), nil
	case os.IsNotExist(err):
		return Config{}, errors.New(errors.ErrCodeNotFound, "config file %s does not exist", path)
	case err != nil:
		return Config{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, errors.New(errors.ErrCodeInvalidInput, "%s: unknown keys %s", path, strings.Join(keys, ", "))
	}

	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// LoadOptions returns the load template derived from the configuration.
func (c *Config) LoadOptions() pipeline.Options {
	return pipeline.Options{
		DataDir:           c.DataDir,
		ExcludedLibraries: slices.Clone(c.ExcludedLibraries),
	}
}
