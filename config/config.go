// Package config loads automigrate settings from defaults, automigrate.yaml,
// AUTOMIGRATE_* environment variables and command-line flags.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Defaults
const (
	DefaultConfigFile    = "automigrate.yaml"
	DefaultSchemaFile    = "schema.yaml"
	DefaultModelsDir     = "models"
	DefaultMigrationsDir = "migrations"
	EnvPrefix            = "AUTOMIGRATE_"
)

// Model sources
const (
	SourceYAML    = "yaml"
	SourceStructs = "structs"
)

// Config holds every setting the CLI reads.
type Config struct {
	Source        string        `koanf:"source"`
	SchemaFile    string        `koanf:"schema_file"`
	ModelsDir     string        `koanf:"models_dir"`
	MigrationsDir string        `koanf:"migrations_dir"`
	DatabaseURL   string        `koanf:"database_url"`
	Interactive   bool          `koanf:"interactive"`
	Verbose       bool          `koanf:"verbose"`
	AssumeRenames bool          `koanf:"assume_renames"`
	LockTimeout   time.Duration `koanf:"lock_timeout"`

	// Defaults maps model -> field -> one-off backfill value used when
	// running without a terminal.
	Defaults map[string]map[string]string `koanf:"defaults"`

	// File is the config file that was read, if any.
	File string `koanf:"-"`
}

// Load reads configuration. Precedence (highest to lowest):
// flags > env vars > config file > defaults. A .env file in the working
// directory is loaded into the environment first.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	// Missing .env is fine
	_ = godotenv.Load()

	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"source":         SourceYAML,
		"schema_file":    DefaultSchemaFile,
		"models_dir":     DefaultModelsDir,
		"migrations_dir": DefaultMigrationsDir,
		"interactive":    true,
		"verbose":        false,
		"assume_renames": false,
		"lock_timeout":   "0s",
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	used := cfgFile
	if used == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			used = DefaultConfigFile
		}
	}
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", used, err)
		}
	}

	// 3. DATABASE_URL as used by the rest of the tooling, then AUTOMIGRATE_*
	if url := os.Getenv("DATABASE_URL"); url != "" {
		if err := k.Set("database_url", url); err != nil {
			return nil, fmt.Errorf("failed to set database url: %w", err)
		}
	}
	// Transform: AUTOMIGRATE_MIGRATIONS_DIR -> migrations_dir
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags that were explicitly set
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			if key == "no_input" {
				return "interactive", !posflag.FlagVal(flags, f).(bool)
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.File = used

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks setting values.
func (c *Config) Validate() error {
	switch c.Source {
	case SourceYAML, SourceStructs:
	default:
		return fmt.Errorf("unknown model source %q (use %s or %s)", c.Source, SourceYAML, SourceStructs)
	}
	if c.MigrationsDir == "" {
		return fmt.Errorf("migrations_dir must not be empty")
	}
	if c.LockTimeout < 0 {
		return fmt.Errorf("lock_timeout must not be negative")
	}
	return nil
}

// BackfillDefaults flattens Defaults to "model.field" keys.
func (c *Config) BackfillDefaults() map[string]string {
	out := make(map[string]string)
	for model, fields := range c.Defaults {
		for field, value := range fields {
			out[strings.ToLower(model)+"."+field] = value
		}
	}
	return out
}
