package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/gastos-dev/gastos/internal/category"
)

// FileName is the default config file name written by init.
const FileName = "gastos.yaml"

// EnvPrefix prefixes environment overrides, e.g. GASTOS_CLASSIFIER_MODEL.
const EnvPrefix = "GASTOS"

// Config represents the top-level gastos.yaml configuration.
type Config struct {
	Profile    string           `yaml:"profile" mapstructure:"profile"`
	Classifier ClassifierConfig `yaml:"classifier" mapstructure:"classifier"`
	Categories CategoriesConfig `yaml:"categories" mapstructure:"categories"`
	Input      InputConfig      `yaml:"input" mapstructure:"input"`
	Output     OutputConfig     `yaml:"output" mapstructure:"output"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
}

// ClassifierConfig selects the model and how it is called.
type ClassifierConfig struct {
	Provider          string `yaml:"provider" mapstructure:"provider"` // groq, openai, gemini
	Model             string `yaml:"model" mapstructure:"model"`
	BaseURL           string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	APIKeyEnv         string `yaml:"api_key_env" mapstructure:"api_key_env"`
	EnvFile           string `yaml:"env_file" mapstructure:"env_file"`
	TimeoutSeconds    int    `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
	Workers           int    `yaml:"workers" mapstructure:"workers"`
	Attempts          int    `yaml:"attempts" mapstructure:"attempts"`
	BackoffMillis     int    `yaml:"backoff_ms" mapstructure:"backoff_ms"`
	RequestsPerMinute int    `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
	KeepGoing         bool   `yaml:"keep_going" mapstructure:"keep_going"`
}

// CategoriesConfig is the closed label set and the instructions for it.
type CategoriesConfig struct {
	Labels        []string          `yaml:"labels" mapstructure:"labels"`
	Fallback      string            `yaml:"fallback" mapstructure:"fallback"`
	Prompt        string            `yaml:"prompt" mapstructure:"prompt"`
	Colors        map[string]string `yaml:"colors" mapstructure:"colors"`
	FallbackColor string            `yaml:"fallback_color" mapstructure:"fallback_color"`
}

// InputConfig locates statements for batch runs.
type InputConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// OutputConfig locates batch artifacts.
type OutputConfig struct {
	CSV      string `yaml:"csv" mapstructure:"csv"`
	AuditLog string `yaml:"audit_log,omitempty" mapstructure:"audit_log"`
}

// ServerConfig controls the interactive web view.
type ServerConfig struct {
	Addr        string `yaml:"addr" mapstructure:"addr"`
	MaxUploadMB int    `yaml:"max_upload_mb" mapstructure:"max_upload_mb"`
}

// Timeout bounds a single classification call.
func (c ClassifierConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Backoff is the delay before the first retry.
func (c ClassifierConfig) Backoff() time.Duration {
	return time.Duration(c.BackoffMillis) * time.Millisecond
}

// LabelSet builds the allow-list for the configured categories.
func (c *Config) LabelSet() (*category.Set, error) {
	return category.NewSet(c.Categories.Labels, c.Categories.Fallback)
}

// Palette builds the chart colour table.
func (c *Config) Palette() category.Palette {
	return category.NewPalette(c.Categories.Colors, c.Categories.FallbackColor)
}

// Validate checks values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	var errs []error
	switch c.Profile {
	case category.ProfileBatch, category.ProfileInteractive:
	default:
		errs = append(errs, fmt.Errorf("profile: unknown profile %q (want %s or %s)",
			c.Profile, category.ProfileBatch, category.ProfileInteractive))
	}
	switch c.Classifier.Provider {
	case "groq", "openai", "gemini":
	default:
		errs = append(errs, fmt.Errorf("classifier.provider: unknown provider %q", c.Classifier.Provider))
	}
	if strings.TrimSpace(c.Classifier.Model) == "" {
		errs = append(errs, errors.New("classifier.model is required"))
	}
	if c.Classifier.Workers < 1 {
		errs = append(errs, errors.New("classifier.workers must be at least 1"))
	}
	if c.Classifier.Attempts < 1 {
		errs = append(errs, errors.New("classifier.attempts must be at least 1"))
	}
	if c.Classifier.TimeoutSeconds < 1 {
		errs = append(errs, errors.New("classifier.timeout_seconds must be at least 1"))
	}
	if !strings.Contains(c.Categories.Prompt, "{text}") {
		errs = append(errs, errors.New("categories.prompt must contain {text}"))
	}
	if _, err := c.LabelSet(); err != nil {
		errs = append(errs, fmt.Errorf("categories: %w", err))
	}
	return errors.Join(errs...)
}

// Load reads a gastos.yaml file layered over the defaults of its profile.
// A missing file is not an error; GASTOS_* env vars override both.
func Load(path string) (*Config, error) {
	profile := category.ProfileInteractive
	// viper folds map keys to lower case, so label colours are read as-is.
	var head struct {
		Profile    string `yaml:"profile"`
		Categories struct {
			Colors map[string]string `yaml:"colors"`
		} `yaml:"categories"`
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &head); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
		if head.Profile != "" {
			profile = head.Profile
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if env := os.Getenv(EnvPrefix + "_PROFILE"); env != "" {
		profile = env
	}

	defaults := Default(profile)
	v := viper.New()
	setDefaults(v, defaults)
	v.SetConfigType("yaml")
	v.SetConfigFile(path)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.Categories.Colors = defaults.Categories.Colors
	if head.Categories.Colors != nil {
		cfg.Categories.Colors = head.Categories.Colors
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config for the named category profile.
func Default(profile string) *Config {
	p := category.DefaultProfile(profile)
	return &Config{
		Profile: p.Name,
		Classifier: ClassifierConfig{
			Provider:       "groq",
			Model:          p.Model,
			BaseURL:        "https://api.groq.com/openai/v1",
			APIKeyEnv:      "GROQ_API_KEY",
			EnvFile:        "key.env",
			TimeoutSeconds: 30,
			Workers:        1,
			Attempts:       1,
			BackoffMillis:  500,
		},
		Categories: CategoriesConfig{
			Labels:        p.Labels,
			Fallback:      p.Fallback,
			Prompt:        p.Prompt,
			Colors:        category.DefaultColors(),
			FallbackColor: category.DefaultFallbackColor,
		},
		Input: InputConfig{
			Dir: "extratos",
		},
		Output: OutputConfig{
			CSV:      "Planilha.csv",
			AuditLog: "logs/classificacao.csv",
		},
		Server: ServerConfig{
			Addr:        ":8501",
			MaxUploadMB: 20,
		},
	}
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("profile", d.Profile)
	v.SetDefault("classifier.provider", d.Classifier.Provider)
	v.SetDefault("classifier.model", d.Classifier.Model)
	v.SetDefault("classifier.base_url", d.Classifier.BaseURL)
	v.SetDefault("classifier.api_key_env", d.Classifier.APIKeyEnv)
	v.SetDefault("classifier.env_file", d.Classifier.EnvFile)
	v.SetDefault("classifier.timeout_seconds", d.Classifier.TimeoutSeconds)
	v.SetDefault("classifier.workers", d.Classifier.Workers)
	v.SetDefault("classifier.attempts", d.Classifier.Attempts)
	v.SetDefault("classifier.backoff_ms", d.Classifier.BackoffMillis)
	v.SetDefault("classifier.requests_per_minute", d.Classifier.RequestsPerMinute)
	v.SetDefault("classifier.keep_going", d.Classifier.KeepGoing)
	v.SetDefault("categories.labels", d.Categories.Labels)
	v.SetDefault("categories.fallback", d.Categories.Fallback)
	v.SetDefault("categories.prompt", d.Categories.Prompt)
	v.SetDefault("categories.fallback_color", d.Categories.FallbackColor)
	v.SetDefault("input.dir", d.Input.Dir)
	v.SetDefault("output.csv", d.Output.CSV)
	v.SetDefault("output.audit_log", d.Output.AuditLog)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.max_upload_mb", d.Server.MaxUploadMB)
}
