// Package config loads the ventolog configuration from defaults, an
// optional YAML file, and the environment, in that order of
// precedence (environment wins).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the full application configuration.
type Config struct {
	Server struct {
		Address  string `mapstructure:"address"`
		HTTPPort string `mapstructure:"http_port"`
		// Production trusts X-Forwarded-For for client addresses, as
		// set by the reverse proxy in front of the service.
		Production bool `mapstructure:"production"`
	} `mapstructure:"server"`

	Storage struct {
		DataFile string `mapstructure:"data_file"`
	} `mapstructure:"storage"`

	HTTP struct {
		// AllowedOrigins is "*" or a comma-separated origin list.
		AllowedOrigins string `mapstructure:"allowed_origins"`
		// RateLimits can be switched off for test rigs.
		RateLimits bool `mapstructure:"rate_limits"`
	} `mapstructure:"http"`

	Logging struct {
		Level  string `mapstructure:"level"`  // trace|debug|info|warning|error|fatal
		Format string `mapstructure:"format"` // text|json
		File   string `mapstructure:"file"`   // empty: stdout only
	} `mapstructure:"logs"`
}

// Origins returns the allowed CORS origins as a list. "*" stays a
// single wildcard entry.
func (c *Config) Origins() []string {
	parts := strings.Split(c.HTTP.AllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}

// ListenAddr returns the address:port the HTTP server binds to.
func (c *Config) ListenAddr() string {
	return c.Server.Address + ":" + c.Server.HTTPPort
}

// Load reads the configuration from env and optional file, applying
// defaults.
//
// The data file, proxy trust and CORS origins also honor the plain
// environment names the previous deployment used: DATA_FILE,
// PRODUCTION and ALLOWED_ORIGINS.
func Load() (*Config, error) {
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("server.address", "0.0.0.0")
	viper.SetDefault("server.http_port", "5000")
	viper.SetDefault("server.production", false)

	viper.SetDefault("storage.data_file", filepath.Join("data", "ventolog.json"))

	viper.SetDefault("http.allowed_origins", "*")
	viper.SetDefault("http.rate_limits", true)

	viper.SetDefault("logs.level", "info")
	viper.SetDefault("logs.format", "text")
	viper.SetDefault("logs.file", "")

	// Legacy environment aliases; the first set name in each call wins.
	_ = viper.BindEnv("storage.data_file", "STORAGE_DATA_FILE", "VENTOLOG_DATA_FILE", "DATA_FILE")
	_ = viper.BindEnv("server.production", "SERVER_PRODUCTION", "PRODUCTION")
	_ = viper.BindEnv("http.allowed_origins", "HTTP_ALLOWED_ORIGINS", "ALLOWED_ORIGINS")

	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			viper.AddConfigPath(filepath.Join(xdg, "ventolog"))
		}
		viper.AddConfigPath("/etc/ventolog")
	}

	// The file is optional; only a malformed one is an error.
	if err := viper.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			return nil, fmt.Errorf("config read error: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal error: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(c *Config) error {
	if strings.TrimSpace(c.Storage.DataFile) == "" {
		return errors.New("storage.data_file must not be empty")
	}
	if strings.TrimSpace(c.Server.Address) == "" {
		return errors.New("server.address must not be empty")
	}
	if strings.TrimSpace(c.Server.HTTPPort) == "" {
		return errors.New("server.http_port must not be empty")
	}
	return nil
}
