// Package config loads variantforge configuration with viper.
//
// Precedence, lowest to highest: defaults, the config file, VARIANTFORGE_*
// environment variables, then command-line flags applied by the caller.
package config

import (
	"github.com/cockroachdb/errors"

	"github.com/roach88/variantforge/internal/layout"
)

// Config is the full configuration tree.
type Config struct {
	Layout     LayoutConfig     `mapstructure:"layout"`
	Generation GenerationConfig `mapstructure:"generation"`
	Store      StoreConfig      `mapstructure:"store"`
	Log        LogConfig        `mapstructure:"log"`
	Server     ServerConfig     `mapstructure:"server"`
}

// LayoutConfig holds the placement grid constants.
type LayoutConfig struct {
	Padding  float64 `mapstructure:"padding"`
	RowWidth float64 `mapstructure:"row_width"`
}

// Grid converts the layout section into a layout.Grid.
func (l LayoutConfig) Grid() layout.Grid {
	return layout.Grid{Padding: l.Padding, RowWidth: l.RowWidth}
}

// GenerationConfig controls expansion.
type GenerationConfig struct {
	// TextSamples is the default sample count per TEXT property.
	TextSamples int `mapstructure:"text_samples"`
	// MaxCombinations caps the instances one request may produce; 0 disables.
	MaxCombinations int `mapstructure:"max_combinations"`
	// Seed fixes the text generator; 0 seeds from the clock.
	Seed uint64 `mapstructure:"seed"`
}

type StoreConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	JSON    bool `mapstructure:"json"`
	Verbose bool `mapstructure:"verbose"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	// AllowedOrigins restricts websocket upgrades. Empty allows any origin.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Layout.Padding < 0 {
		return errors.Newf("layout.padding must be >= 0, got %v", c.Layout.Padding)
	}
	if c.Layout.RowWidth < 0 {
		return errors.Newf("layout.row_width must be >= 0, got %v", c.Layout.RowWidth)
	}
	if c.Generation.TextSamples < 0 {
		return errors.Newf("generation.text_samples must be >= 0, got %d", c.Generation.TextSamples)
	}
	if c.Generation.MaxCombinations < 0 {
		return errors.Newf("generation.max_combinations must be >= 0, got %d", c.Generation.MaxCombinations)
	}
	if c.Server.Addr == "" {
		return errors.New("server.addr must not be empty")
	}
	return nil
}
