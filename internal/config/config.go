package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultAPIOrigin   = "http://192.168.20.43:8083"
	DefaultAPIBasePath = "/api/v1"
	DefaultTimeout     = 10 * time.Second
	DefaultLocale      = "tr-TR"
	DefaultLogLevel    = "info"
)

type Config struct {
	APIOrigin    string        `yaml:"api_origin"`
	APIBasePath  string        `yaml:"api_base_path"`
	Timeout      time.Duration `yaml:"timeout"`
	DataDir      string        `yaml:"data_dir"`
	Locale       string        `yaml:"locale"`
	VoiceCommand string        `yaml:"voice_command"` // external speech-to-text program; empty disables voice input
	LogLevel     string        `yaml:"log_level"`
}

func Default() *Config {
	return &Config{
		APIOrigin:   DefaultAPIOrigin,
		APIBasePath: DefaultAPIBasePath,
		Timeout:     DefaultTimeout,
		DataDir:     defaultDataDir(),
		Locale:      DefaultLocale,
		LogLevel:    DefaultLogLevel,
	}
}

func defaultDataDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		homeDir, herr := os.UserHomeDir()
		if herr != nil {
			return ".thronemind"
		}
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "thronemind")
}

// DefaultPath is where Load looks for the YAML file when no path is given.
func DefaultPath() string {
	return filepath.Join(defaultDataDir(), "config.yaml")
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Load layers defaults, the YAML file at path (missing file is fine) and
// THRONEMIND_* environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}
	if err := loadFile(path, cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.APIOrigin = getEnv("THRONEMIND_API_ORIGIN", cfg.APIOrigin)
	cfg.APIBasePath = getEnv("THRONEMIND_API_BASE_PATH", cfg.APIBasePath)
	cfg.DataDir = getEnv("THRONEMIND_DATA_DIR", cfg.DataDir)
	cfg.Locale = getEnv("THRONEMIND_LOCALE", cfg.Locale)
	cfg.VoiceCommand = getEnv("THRONEMIND_VOICE_CMD", cfg.VoiceCommand)
	cfg.LogLevel = getEnv("THRONEMIND_LOG_LEVEL", cfg.LogLevel)
	if v := os.Getenv("THRONEMIND_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("THRONEMIND_TIMEOUT: %w", err)
		}
		cfg.Timeout = d
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func (c *Config) Validate() error {
	if c.APIOrigin == "" {
		return errors.New("api_origin must be set")
	}
	if !strings.HasPrefix(c.APIOrigin, "http://") && !strings.HasPrefix(c.APIOrigin, "https://") {
		return fmt.Errorf("api_origin %q must start with http:// or https://", c.APIOrigin)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	return nil
}

// BaseURL is the API root with a trailing slash, e.g. http://host/api/v1/.
func (c *Config) BaseURL() string {
	base := strings.TrimRight(c.APIOrigin, "/")
	p := strings.Trim(c.APIBasePath, "/")
	if p != "" {
		base += "/" + p
	}
	return base + "/"
}

func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "thronemind.db")
}

func (c *Config) LogPath() string {
	return filepath.Join(c.DataDir, "thronemind.log")
}
