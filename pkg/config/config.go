// Package config loads venuedir configuration from a YAML file with
// environment-variable overrides and command-line flags layered on top:
// defaults, then file, then env, then flags.
package config

import (
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the main configuration struct.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Security   SecurityConfig   `yaml:"security"`
	Pagination PaginationConfig `yaml:"pagination"`
	Logging    LoggingConfig    `yaml:"logging"`
	Retention  RetentionConfig  `yaml:"retention"`
}

// ServerConfig holds http, storage and tls settings.
type ServerConfig struct {
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
	DBPath  string `yaml:"db_path"`
	// MaxBodyBytes caps request bodies on mutating endpoints.
	MaxBodyBytes SizeBytes `yaml:"max_body_bytes"`
	TLS          TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate configuration.
type TLSConfig struct {
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// SecurityConfig holds security related settings.
type SecurityConfig struct {
	// CursorSecret signs pagination cursors. Required; startup fails when it
	// is empty or left at a placeholder value.
	CursorSecret string `yaml:"cursor_secret"`
	CORS         struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`
	RateLimit struct {
		RPS   float64 `yaml:"rps"`
		Burst int     `yaml:"burst"`
	} `yaml:"rate_limit"`
}

// PaginationConfig tunes the cursor engine.
type PaginationConfig struct {
	DefaultTTLHours   int `yaml:"default_ttl_hours"`
	MaxTTLHours       int `yaml:"max_ttl_hours"`
	GeoPrecision      int `yaml:"geo_precision"`
	FingerprintLength int `yaml:"fingerprint_length"`
	DefaultPageSize   int `yaml:"default_page_size"`
	MaxPageSize       int `yaml:"max_page_size"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// RetentionConfig holds configuration for the automatic purge runner.
type RetentionConfig struct {
	Enabled   bool     `yaml:"enabled"`
	Cron      string   `yaml:"cron"`
	Period    Duration `yaml:"period"`
	BatchSize int      `yaml:"batch_size"`
	DryRun    bool     `yaml:"dry_run"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Address = ""
	cfg.Server.Port = 8080
	cfg.Server.DBPath = "./.database"
	cfg.Server.MaxBodyBytes = 1 << 20
	cfg.Pagination.DefaultTTLHours = 24
	cfg.Pagination.MaxTTLHours = 72
	cfg.Pagination.GeoPrecision = 4
	cfg.Pagination.FingerprintLength = 16
	cfg.Pagination.DefaultPageSize = 20
	cfg.Pagination.MaxPageSize = 100
	cfg.Logging.Level = "info"
	cfg.Retention.Cron = "0 2 * * *"
	cfg.Retention.Period = Duration(720 * 3600 * 1e9) // 30 days
	cfg.Retention.BatchSize = 100
	return cfg
}

// Addr returns the host:port listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Address, strconv.Itoa(c.Server.Port))
}

// Load reads and parses the YAML config file at path over the defaults. A
// missing file is not an error: env and flags may carry everything.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overlays VENUEDIR_* environment variables onto cfg.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv("VENUEDIR_ADDR"); v != "" {
		if h, p, err := net.SplitHostPort(v); err == nil {
			cfg.Server.Address = h
			if pi, err := strconv.Atoi(p); err == nil {
				cfg.Server.Port = pi
			}
		} else {
			cfg.Server.Address = v
		}
	}
	if v := os.Getenv("VENUEDIR_PORT"); v != "" {
		if pi, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = pi
		}
	}
	if v := os.Getenv("VENUEDIR_DB_PATH"); v != "" {
		cfg.Server.DBPath = v
	}
	if v := os.Getenv("VENUEDIR_CURSOR_SECRET"); v != "" {
		cfg.Security.CursorSecret = v
	}
	if v := os.Getenv("VENUEDIR_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("VENUEDIR_CORS_ORIGINS"); v != "" {
		origins := []string{}
		for _, p := range strings.Split(v, ",") {
			if s := strings.TrimSpace(p); s != "" {
				origins = append(origins, s)
			}
		}
		cfg.Security.CORS.AllowedOrigins = origins
	}
	if v := os.Getenv("VENUEDIR_RATE_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Security.RateLimit.RPS = f
		}
	}
	if v := os.Getenv("VENUEDIR_RATE_BURST"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Security.RateLimit.Burst = i
		}
	}
	if v := os.Getenv("VENUEDIR_CURSOR_TTL_HOURS"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Pagination.DefaultTTLHours = i
		}
	}
}

// Flags holds parsed command-line flag values and which were set.
type Flags struct {
	Addr   string
	DB     string
	Config string
	Set    map[string]bool
}

// ParseFlags parses command-line flags and returns them as a Flags struct.
func ParseFlags() Flags {
	addrPtr := flag.String("addr", ":8080", "HTTP listen address")
	dbPtr := flag.String("db", "./.database", "Pebble DB path")
	cfgPtr := flag.String("config", "./config.yaml", "Path to config file")
	flag.Parse()
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return Flags{Addr: *addrPtr, DB: *dbPtr, Config: *cfgPtr, Set: set}
}

// LoadEffective builds the effective configuration: defaults, overlaid by the
// config file, overlaid by env vars, overlaid by explicitly set flags.
func LoadEffective(flags Flags) (*Config, error) {
	path := flags.Config
	if !flags.Set["config"] {
		if v := os.Getenv("VENUEDIR_CONFIG"); v != "" {
			path = v
		}
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	ApplyEnv(cfg)
	if flags.Set["addr"] {
		if h, p, err := net.SplitHostPort(flags.Addr); err == nil {
			cfg.Server.Address = h
			if pi, err := strconv.Atoi(p); err == nil {
				cfg.Server.Port = pi
			}
		}
	}
	if flags.Set["db"] {
		cfg.Server.DBPath = flags.DB
	}
	return cfg, nil
}
