package config

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. VARIANTFORGE_LAYOUT_PADDING.
const EnvPrefix = "VARIANTFORGE"

// SetDefaults configures default values for all options.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("layout.padding", 40)
	v.SetDefault("layout.row_width", 4000)

	v.SetDefault("generation.text_samples", 0)
	v.SetDefault("generation.max_combinations", 0) // unlimited
	v.SetDefault("generation.seed", 0)             // clock-seeded

	v.SetDefault("store.path", "variantforge.db")

	v.SetDefault("log.json", false)
	v.SetDefault("log.verbose", false)

	v.SetDefault("server.addr", "127.0.0.1:7474")
	v.SetDefault("server.allowed_origins", []string{})
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// Load reads configuration. An empty path uses defaults and environment
// only; otherwise the file must exist and its format follows its extension.
func Load(path string) (*Config, error) {
	v := New()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config file %s", path)
		}
	}
	return LoadWithViper(v)
}

// LoadWithViper unmarshals and validates configuration from v.
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	return &cfg, nil
}
