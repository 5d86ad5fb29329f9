// Package config loads shipshape settings from defaults, an optional YAML
// file, SHIPSHAPE_* environment variables and bound command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/dshills/shipshape/internal/narrative"
	"github.com/dshills/shipshape/internal/store"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "SHIPSHAPE"

// Settings is the resolved configuration.
type Settings struct {
	Store     StoreSettings     `mapstructure:"store"`
	Assets    AssetSettings     `mapstructure:"assets"`
	Narrative NarrativeSettings `mapstructure:"narrative"`
	Report    ReportSettings    `mapstructure:"report"`
	Log       LogSettings       `mapstructure:"log"`
}

type StoreSettings struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
}

type AssetSettings struct {
	BaseURL      string        `mapstructure:"base_url"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
	CheckTimeout time.Duration `mapstructure:"check_timeout"`
	// CheckLimit bounds concurrent asset checks per page.
	CheckLimit int `mapstructure:"check_limit"`
}

type NarrativeSettings struct {
	Provider    string        `mapstructure:"provider"`
	Endpoint    string        `mapstructure:"endpoint"`
	Model       string        `mapstructure:"model"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Redact      bool          `mapstructure:"redact"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
}

type ReportSettings struct {
	ID       string `mapstructure:"id"`
	Template string `mapstructure:"template"`
}

type LogSettings struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// SetDefaults registers the documented defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("store.driver", store.DriverFile)
	v.SetDefault("store.path", ".shipshape")
	v.SetDefault("assets.base_url", "")
	v.SetDefault("assets.cache_ttl", 10*time.Minute)
	v.SetDefault("assets.check_timeout", 10*time.Second)
	v.SetDefault("assets.check_limit", 4)
	v.SetDefault("narrative.provider", narrative.ProviderNone)
	v.SetDefault("narrative.endpoint", "")
	v.SetDefault("narrative.model", "")
	v.SetDefault("narrative.timeout", 60*time.Second)
	v.SetDefault("narrative.redact", true)
	v.SetDefault("narrative.temperature", 0.2)
	v.SetDefault("narrative.max_tokens", 0)
	v.SetDefault("report.id", "default")
	v.SetDefault("report.template", "default")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
}

// FlagKeys maps command-line flag names to configuration keys.
var FlagKeys = map[string]string{
	"store":         "store.driver",
	"store-path":    "store.path",
	"report-id":     "report.id",
	"asset-base":    "assets.base_url",
	"narrative":     "narrative.provider",
	"endpoint":      "narrative.endpoint",
	"model":         "narrative.model",
	"timeout":       "narrative.timeout",
	"redact":        "narrative.redact",
	"template":      "report.template",
	"log-file":      "log.file",
	"check-timeout": "assets.check_timeout",
}

// BindFlags binds every flag in fs that appears in FlagKeys. Flags only
// override file and environment values when set explicitly.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range FlagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("config.BindFlags: %s: %w", name, err)
		}
	}
	return nil
}

// New returns a viper instance with defaults and environment overrides
// registered.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// SearchPaths returns the directories searched for shipshape.yaml.
func SearchPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "shipshape"))
	}
	return paths
}

// Load reads the config file at path, or searches SearchPaths for
// shipshape.yaml when path is empty. A missing searched file is not an
// error; a missing explicit file is.
func Load(v *viper.Viper, path string) (*Settings, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("shipshape")
		v.SetConfigType("yaml")
		for _, p := range SearchPaths() {
			v.AddConfigPath(p)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config.Load: %w", err)
		}
	}

	s := &Settings{}
	if err := v.Unmarshal(s); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	if err := Validate(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks enumerated values.
func Validate(s *Settings) error {
	var problems []string
	switch s.Store.Driver {
	case store.DriverMemory, store.DriverFile, store.DriverSQLite:
	default:
		problems = append(problems, fmt.Sprintf("store.driver %q is not one of memory, file, sqlite", s.Store.Driver))
	}
	switch s.Narrative.Provider {
	case narrative.ProviderNone, narrative.ProviderAuto, narrative.ProviderService,
		narrative.ProviderAnthropic, narrative.ProviderOpenAI:
	default:
		problems = append(problems, fmt.Sprintf("narrative.provider %q is not recognized", s.Narrative.Provider))
	}
	if s.Narrative.Provider == narrative.ProviderService && s.Narrative.Endpoint == "" {
		problems = append(problems, "narrative.endpoint is required for the http provider")
	}
	if s.Assets.CheckLimit < 0 {
		problems = append(problems, "assets.check_limit must not be negative")
	}
	if len(problems) > 0 {
		return fmt.Errorf("config.Validate: %s", strings.Join(problems, "; "))
	}
	return nil
}

// NarrativeOptions converts the narrative settings for narrative.Resolve.
func (s *Settings) NarrativeOptions() narrative.Options {
	return narrative.Options{
		Provider: s.Narrative.Provider,
		Endpoint: s.Narrative.Endpoint,
		Model:    s.Narrative.Model,
		Timeout:  s.Narrative.Timeout,
		Settings: narrative.Settings{
			Model:       s.Narrative.Model,
			Temperature: s.Narrative.Temperature,
			MaxTokens:   s.Narrative.MaxTokens,
		},
	}
}
