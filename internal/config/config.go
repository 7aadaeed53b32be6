// Package config loads ruleset-meta settings from YAML, .env and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata" // timezone setting must work on hosts without zoneinfo

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/xxxbrian/ruleset-meta/internal/ruleset"
)

const (
	DefaultConfigFile = "ruleset-meta.yaml"
	ConfigPathEnv     = "RULESET_META_CONFIG"

	DefaultRoot        = "rules"
	DefaultRepoDir     = "."
	DefaultTemplateDir = "template"
	DefaultListExt     = ".list"
	DefaultReadmeName  = "README.md"

	DefaultLogLevel      = "info"
	DefaultLogFormat     = "console"
	DefaultMaxLogSizeMB  = 10
	DefaultMaxLogBackups = 3
)

// ErrConfigNotFound is returned when an explicitly requested config file does not exist.
var ErrConfigNotFound = errors.New("config file does not exist")

// Config is the full tool configuration.
type Config struct {
	Root        string       `yaml:"root" validate:"required"`
	RepoDir     string       `yaml:"repo_dir" validate:"required"`
	TemplateDir string       `yaml:"template_dir"`
	Exclude     []string     `yaml:"exclude" validate:"dive,required"`
	ListExt     string       `yaml:"list_ext" validate:"required,startswith=."`
	ReadmeName  string       `yaml:"readme_name" validate:"required"`
	Timezone    string       `yaml:"timezone" validate:"omitempty,timezone"`
	Readme      ReadmeConfig `yaml:"readme"`
	Log         LogConfig    `yaml:"log"`
}

// ReadmeConfig holds the template placeholders substituted in READMEs.
type ReadmeConfig struct {
	DatetimePlaceholder string `yaml:"datetime_placeholder" validate:"required"`
	NamePlaceholder     string `yaml:"name_placeholder" validate:"required"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level      string `yaml:"level" validate:"loglevel"`
	Format     string `yaml:"format" validate:"logformat"`
	File       string `yaml:"file,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `yaml:"max_backups" validate:"gte=0"`
}

// NewDefaultConfig returns the built-in defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Root:        DefaultRoot,
		RepoDir:     DefaultRepoDir,
		TemplateDir: DefaultTemplateDir,
		Exclude:     []string{".git", ".github"},
		ListExt:     DefaultListExt,
		ReadmeName:  DefaultReadmeName,
		Readme: ReadmeConfig{
			DatetimePlaceholder: ruleset.DefaultDatetimePlaceholder,
			NamePlaceholder:     ruleset.DefaultNamePlaceholder,
		},
		Log: LogConfig{
			Level:      DefaultLogLevel,
			Format:     DefaultLogFormat,
			MaxSizeMB:  DefaultMaxLogSizeMB,
			MaxBackups: DefaultMaxLogBackups,
		},
	}
}

// ResolvePath picks the config file: the explicit path, then
// RULESET_META_CONFIG, then ruleset-meta.yaml in the working directory.
// explicit is false when the path is only a default that may be absent.
func ResolvePath(flagPath string) (path string, explicit bool) {
	if flagPath != "" {
		return flagPath, true
	}
	if env := strings.TrimSpace(os.Getenv(ConfigPathEnv)); env != "" {
		return env, true
	}
	return DefaultConfigFile, false
}

// Load builds the configuration from defaults, an optional YAML file, a
// .env file in the working directory and RULESET_* environment variables,
// then validates it.
func Load(flagPath string) (*Config, error) {
	_ = godotenv.Load()

	cfg := NewDefaultConfig()

	path, explicit := ResolvePath(flagPath)
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		if explicit {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg.applyEnv()

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	overrides := []struct {
		key string
		dst *string
	}{
		{"RULESET_ROOT", &c.Root},
		{"RULESET_REPO_DIR", &c.RepoDir},
		{"RULESET_TEMPLATE_DIR", &c.TemplateDir},
		{"RULESET_TIMEZONE", &c.Timezone},
		{"RULESET_LOG_LEVEL", &c.Log.Level},
		{"RULESET_LOG_FORMAT", &c.Log.Format},
		{"RULESET_LOG_FILE", &c.Log.File},
	}
	for _, o := range overrides {
		if v := strings.TrimSpace(os.Getenv(o.key)); v != "" {
			*o.dst = v
		}
	}
}

// ReadmeRewriter returns the README rewriter for the configured placeholders.
func (c *Config) ReadmeRewriter() ruleset.ReadmeRewriter {
	return ruleset.ReadmeRewriter{
		DatetimePlaceholder: c.Readme.DatetimePlaceholder,
		NamePlaceholder:     c.Readme.NamePlaceholder,
	}
}

// Location returns the configured time zone, or time.Local when unset.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}
