package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config is the file form of the registry options, e.g.
//
//	default_locale: en
//	fallbacks:
//	  pt-BR: [pt-PT, es]
//	on_missing_variable: emit_placeholder
//	on_template_error: drop
type Config struct {
	// DefaultLocale is tried last for every lookup, "en" if empty.
	DefaultLocale string `yaml:"default_locale" toml:"default_locale"`

	// Fallbacks lists, per locale, the locales tried right after it:
	// "zh-TW": {"zh-Hant", "zh"}
	Fallbacks map[string][]string `yaml:"fallbacks" toml:"fallbacks"`

	OnMissingVariable MissingVariablePolicy `yaml:"on_missing_variable" toml:"on_missing_variable"`
	OnTemplateError   TemplateErrorPolicy   `yaml:"on_template_error" toml:"on_template_error"`
}

// LoadConfig reads a YAML (.yaml, .yml) or TOML (.toml) config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg, err := DecodeConfig(data, strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// DecodeConfig decodes data in the given format: "yaml", "yml" or "toml".
func DecodeConfig(data []byte, format string) (Config, error) {
	var cfg Config
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("yaml unmarshal: %w", err)
		}
	case "toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("toml unmarshal: %w", err)
		}
	default:
		return Config{}, fmt.Errorf("unsupported config format %q", format)
	}
	return cfg, nil
}

// Options converts the config to registry options.
func (c Config) Options() []Option {
	opts := []Option{
		WithMissingVariable(c.OnMissingVariable),
		WithTemplateErrors(c.OnTemplateError),
	}
	if c.DefaultLocale != "" {
		opts = append(opts, WithDefaultLocale(c.DefaultLocale))
	}
	for loc, chain := range c.Fallbacks {
		opts = append(opts, WithFallbacks(loc, chain...))
	}
	return opts
}
