package main

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const envPrefix = "REQECHO_"

type TLSConfig struct {
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

type ServerConfig struct {
	Address            string        `yaml:"address"`
	Port               int           `yaml:"port"`
	Name               string        `yaml:"name"`
	ReadTimeout        time.Duration `yaml:"read_timeout"`
	WriteTimeout       time.Duration `yaml:"write_timeout"`
	MaxRequestBodySize int           `yaml:"max_request_body_size"`
	StreamRequestBody  bool          `yaml:"stream_request_body"`
	TLS                TLSConfig     `yaml:"tls"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json|console
	Access bool   `yaml:"access"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address:            "0.0.0.0",
			Port:               9999,
			Name:               "reqecho",
			ReadTimeout:        10 * time.Second,
			WriteTimeout:       10 * time.Second,
			MaxRequestBodySize: 4 << 20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Addr returns host:port for the listener.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Address, strconv.Itoa(c.Server.Port))
}

// TLSEnabled reports whether both halves of the key pair are configured.
func (c *Config) TLSEnabled() bool {
	return c.Server.TLS.CertFile != "" && c.Server.TLS.KeyFile != ""
}

// LoadConfig layers the YAML file at path over the defaults and then applies
// REQECHO_* environment overrides. A missing file is only an error when the
// path was given explicitly.
func LoadConfig(path string, explicit bool) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ResolveConfigPath prefers the flag value when it was set and falls back to
// REQECHO_CONFIG.
func ResolveConfigPath(flagPath string, flagSet bool) (string, bool) {
	if flagSet {
		return flagPath, true
	}
	if p := os.Getenv(envPrefix + "CONFIG"); p != "" {
		return p, true
	}
	return flagPath, false
}

func (c *Config) applyEnv(getenv func(string) string) error {
	env := func(name string) string {
		return strings.TrimSpace(getenv(envPrefix + name))
	}

	if v := env("ADDR"); v != "" {
		if err := c.SetAddr(v); err != nil {
			return fmt.Errorf("%sADDR: %w", envPrefix, err)
		}
	} else {
		if v := env("ADDRESS"); v != "" {
			c.Server.Address = v
		}
		if v := env("PORT"); v != "" {
			p, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%sPORT: %w", envPrefix, err)
			}
			c.Server.Port = p
		}
	}

	if v := env("MAX_BODY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sMAX_BODY: %w", envPrefix, err)
		}
		c.Server.MaxRequestBodySize = n
	}
	if v := env("STREAM_BODY"); v != "" {
		c.Server.StreamRequestBody = parseBool(v)
	}
	if v := env("TLS_CERT"); v != "" {
		c.Server.TLS.CertFile = v
	}
	if v := env("TLS_KEY"); v != "" {
		c.Server.TLS.KeyFile = v
	}
	if v := env("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v := env("LOG_FORMAT"); v != "" {
		c.Logging.Format = strings.ToLower(v)
	}
	if v := env("ACCESS_LOG"); v != "" {
		c.Logging.Access = parseBool(v)
	}
	if v := env("METRICS"); v != "" {
		c.Metrics.Enabled = parseBool(v)
	}
	if v := env("METRICS_PATH"); v != "" {
		c.Metrics.Path = v
	}
	return nil
}

func parseBool(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// SetAddr accepts either host:port or a bare host.
func (c *Config) SetAddr(addr string) error {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		c.Server.Address = addr
		return nil
	}
	p, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("invalid port %q", port)
	}
	c.Server.Address = host
	c.Server.Port = p
	return nil
}

func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Server.MaxRequestBodySize < 0 {
		return fmt.Errorf("server.max_request_body_size must not be negative")
	}
	if (c.Server.TLS.CertFile == "") != (c.Server.TLS.KeyFile == "") {
		return errors.New("server.tls needs both cert_file and key_file")
	}
	if _, err := zap.ParseAtomicLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	if c.Metrics.Enabled {
		p := c.Metrics.Path
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("metrics.path must start with /: %q", p)
		}
		if p == "/" || p == healthPath || matchPrefix(p, jsonPrefix) || matchPrefix(p, rawPrefix) {
			return fmt.Errorf("metrics.path %q collides with a built-in route", p)
		}
	}
	return nil
}
