// Package config loads the engine configuration: defaults, overridden by
// mentor.yaml, overridden by MENTOR_* environment variables, overridden by
// flags bound through viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/abhisek/mentor/internal/extractor"
	"github.com/abhisek/mentor/internal/interview"
	"github.com/abhisek/mentor/internal/mastery"
	"github.com/abhisek/mentor/internal/progress"
	"github.com/abhisek/mentor/internal/roadmap"
	"github.com/abhisek/mentor/internal/validate"
)

// Config is the full engine configuration tree. LLM provider settings are
// deliberately not part of the file: API keys live in the environment only
// (see the llm package).
type Config struct {
	// Learner identifies whose state commands operate on.
	Learner string `mapstructure:"learner"`
	// DB is the store DSN: a SQLite path, or postgres:// for PostgreSQL.
	// Empty means the default XDG data path.
	DB string `mapstructure:"db"`
	// Graph is the path to the skill graph document.
	Graph string `mapstructure:"graph"`
	// JSON switches log output from console to JSON encoding.
	JSON bool `mapstructure:"json"`
	// Debug enables debug-level logging.
	Debug bool `mapstructure:"debug"`

	Mastery   mastery.Config   `mapstructure:"mastery"`
	Extractor extractor.Config `mapstructure:"extractor"`
	Roadmap   roadmap.Config   `mapstructure:"roadmap"`
	Interview interview.Config `mapstructure:"interview"`
	Progress  progress.Config  `mapstructure:"progress"`
}

// Default composes every component's defaults.
func Default() Config {
	return Config{
		Learner:   "default",
		Graph:     "skills.yaml",
		Mastery:   mastery.DefaultConfig(),
		Extractor: extractor.DefaultConfig(),
		Roadmap:   roadmap.DefaultConfig(),
		Interview: interview.DefaultConfig(),
		Progress:  progress.DefaultConfig(),
	}
}

// Load reads configuration into v and decodes it. cfgFile empty means search
// for mentor.yaml in the working directory and ~/.config/mentor; a missing
// file is fine then, every value has a default. An explicitly given file
// must exist.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("mentor")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "mentor"))
		}
	}
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := Default()
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// bindEnv wires the scalar keys to MENTOR_* variables. Nested tunables come
// from the file; secrets and provider selection are read by the llm package
// directly.
func bindEnv(v *viper.Viper) {
	for key, env := range map[string]string{
		"learner": "MENTOR_LEARNER",
		"db":      "MENTOR_DB",
		"graph":   "MENTOR_GRAPH",
		"json":    "MENTOR_JSON",
		"debug":   "MENTOR_DEBUG",
	} {
		// BindEnv only errors on an empty key.
		_ = v.BindEnv(key, env)
	}
}

// Validate checks the whole tree, component by component, so a failure names
// the component that rejected its values.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Learner) == "" {
		return &validate.ValidationError{
			Subject: "config",
			Fields:  []validate.FieldError{{Field: "Learner", Rule: "required", Value: c.Learner}},
		}
	}
	if strings.TrimSpace(c.Graph) == "" {
		return &validate.ValidationError{
			Subject: "config",
			Fields:  []validate.FieldError{{Field: "Graph", Rule: "required", Value: c.Graph}},
		}
	}
	for _, component := range []interface{ Validate() error }{
		c.Mastery, c.Extractor, c.Roadmap, c.Interview, c.Progress,
	} {
		if err := component.Validate(); err != nil {
			return err
		}
	}
	return nil
}
