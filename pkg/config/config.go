package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed config.toml.sample
var configTemplate string

// Color modes accepted by SearchConfig.Color.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

const (
	defaultHost            = "localhost"
	defaultPort            = "8080"
	defaultMaxContentBytes = 10 << 20
	defaultShutdownTimeout = 10 * time.Second
)

type Config struct {
	Search SearchConfig `toml:"search"`
	Server ServerConfig `toml:"server"`
	Log    LogConfig    `toml:"log"`
}

// SearchConfig holds the default mode flags of the grep command. Command line
// flags and their environment variables take precedence.
type SearchConfig struct {
	IgnoreCase  bool   `toml:"ignore_case"`
	LineNumbers bool   `toml:"line_numbers"`
	Count       bool   `toml:"count"`
	Color       string `toml:"color"`
	// MaxFileBytes bounds files loaded by the CLI. Zero means no limit.
	MaxFileBytes int64 `toml:"max_file_bytes"`
}

type ServerConfig struct {
	Host string `toml:"host"`
	Port string `toml:"port"`
	// MaxContentBytes bounds decoded request bodies.
	MaxContentBytes int64    `toml:"max_content_bytes"`
	CORS            bool     `toml:"cors"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
}

type LogConfig struct {
	File       string `toml:"file"`
	MaxSize    int    `toml:"max_size"`
	MaxBackups int    `toml:"max_backups"`
	MaxAge     int    `toml:"max_age"`
	Compress   bool   `toml:"compress"`
	// DebugServices names loggers that print debug output without --debug.
	DebugServices []string `toml:"debug_services,omitempty"`
}

type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func GetDefaultConfig() *Config {
	return &Config{
		Search: SearchConfig{
			Color: ColorAuto,
		},
		Server: ServerConfig{
			Host:            defaultHost,
			Port:            defaultPort,
			MaxContentBytes: defaultMaxContentBytes,
			CORS:            true,
			ShutdownTimeout: Duration{defaultShutdownTimeout},
		},
		Log: LogConfig{
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     30,
			Compress:   true,
		},
	}
}

// LoadConfig reads the TOML file at configPath. A missing file yields the
// defaults; keys absent from the file keep their default values.
func LoadConfig(configPath string) (*Config, error) {
	config := GetDefaultConfig()

	data, err := os.ReadFile(configPath)
	if errors.Is(err, os.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if config.Search.Color == "" {
		config.Search.Color = ColorAuto
	}
	if config.Server.Host == "" {
		config.Server.Host = defaultHost
	}
	if config.Server.Port == "" {
		config.Server.Port = defaultPort
	}
	if config.Server.ShutdownTimeout.Duration == 0 {
		config.Server.ShutdownTimeout = Duration{defaultShutdownTimeout}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) Validate() error {
	if err := ValidateColor(c.Search.Color); err != nil {
		return err
	}
	if c.Search.MaxFileBytes < 0 {
		return errors.New("config search.max_file_bytes must not be negative")
	}
	if port, err := strconv.Atoi(c.Server.Port); err != nil || port < 0 || port > 65535 {
		return fmt.Errorf("config server.port %q is not a valid port", c.Server.Port)
	}
	if c.Server.MaxContentBytes <= 0 {
		return errors.New("config server.max_content_bytes must be positive")
	}
	if c.Server.ShutdownTimeout.Duration < 0 {
		return errors.New("config server.shutdown_timeout must not be negative")
	}
	return nil
}

// ValidateColor checks a color mode name.
func ValidateColor(mode string) error {
	switch mode {
	case ColorAuto, ColorAlways, ColorNever:
		return nil
	}
	return fmt.Errorf("invalid color mode %q (want auto, always or never)", mode)
}

// SaveConfig writes c as plain TOML, without the sample's comments.
func (c *Config) SaveConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(configPath, data, 0644)
}

// SaveTemplateConfig writes the commented sample configuration.
func SaveTemplateConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return os.WriteFile(configPath, []byte(configTemplate), 0644)
}

// ServerAddr returns host:port for the HTTP server.
func (c *Config) ServerAddr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// GetConfigDir returns the configuration directory for minigrep
func GetConfigDir() (string, error) {
	// Use XDG_CONFIG_HOME if set, otherwise use ~/.config
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "minigrep"), nil
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}
