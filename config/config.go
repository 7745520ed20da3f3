// Package config loads FinCrypt settings from an optional YAML file and
// FINCRYPT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ruteri/fincrypt/cryptoutils"
	"gopkg.in/yaml.v3"
)

// Config is the resolved configuration shared by the CLI and the HTTP server.
type Config struct {
	// KeyStores lists key store URIs, tried in order.
	KeyStores  []string `yaml:"keyStores"`
	ArmorWidth int      `yaml:"armorWidth"`
	Compress   bool     `yaml:"compress"`

	// MaxPlaintextBytes caps the inflated size of a received message.
	MaxPlaintextBytes int64 `yaml:"maxPlaintextBytes"`

	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
}

type ServerConfig struct {
	ListenAddr   string          `yaml:"listenAddr"`
	MetricsAddr  string          `yaml:"metricsAddr"`
	MaxBodyBytes int64           `yaml:"maxBodyBytes"`
	RateLimit    RateLimitConfig `yaml:"rateLimit"`
}

// RateLimitConfig bounds requests per client address. RPS <= 0 disables it.
type RateLimitConfig struct {
	RPS     float64       `yaml:"rps"`
	Burst   int           `yaml:"burst"`
	IdleTTL time.Duration `yaml:"idleTTL"`
}

type LogConfig struct {
	JSON    bool   `yaml:"json"`
	Debug   bool   `yaml:"debug"`
	Service string `yaml:"service"`
}

func Default() Config {
	return Config{
		KeyStores:  []string{"file://."},
		ArmorWidth: cryptoutils.DefaultArmorWidth,
		Compress:   true,

		MaxPlaintextBytes: cryptoutils.DefaultMaxPlaintextSize,
		Server: ServerConfig{
			ListenAddr:   "127.0.0.1:8080",
			MetricsAddr:  "127.0.0.1:8090",
			MaxBodyBytes: 1 << 20,
			RateLimit: RateLimitConfig{
				RPS:     10,
				Burst:   20,
				IdleTTL: 10 * time.Minute,
			},
		},
		Log: LogConfig{Service: "fincrypt"},
	}
}

// fileConfig mirrors Config with optional fields so that an absent key keeps
// the default.
type fileConfig struct {
	KeyStores  []string `yaml:"keyStores"`
	ArmorWidth *int     `yaml:"armorWidth"`
	Compress   *bool    `yaml:"compress"`

	MaxPlaintextBytes int64 `yaml:"maxPlaintextBytes"`
	Server            struct {
		ListenAddr   string  `yaml:"listenAddr"`
		MetricsAddr  *string `yaml:"metricsAddr"`
		MaxBodyBytes int64   `yaml:"maxBodyBytes"`
		RateLimit    struct {
			RPS     *float64      `yaml:"rps"`
			Burst   int           `yaml:"burst"`
			IdleTTL time.Duration `yaml:"idleTTL"`
		} `yaml:"rateLimit"`
	} `yaml:"server"`
	Log struct {
		JSON    *bool  `yaml:"json"`
		Debug   *bool  `yaml:"debug"`
		Service string `yaml:"service"`
	} `yaml:"log"`
}

// LoadFromPath reads the YAML file at path over the defaults and then applies
// environment overrides. An empty path skips the file; a missing file is an
// error only when the path was given explicitly.
func LoadFromPath(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return cfg, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}

		var parsed fileConfig
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		merge(&cfg, parsed)
	}

	if err := ApplyEnvOverrides(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func merge(dst *Config, src fileConfig) {
	if src.KeyStores != nil {
		dst.KeyStores = src.KeyStores
	}
	if src.ArmorWidth != nil {
		dst.ArmorWidth = *src.ArmorWidth
	}
	if src.Compress != nil {
		dst.Compress = *src.Compress
	}
	if src.MaxPlaintextBytes != 0 {
		dst.MaxPlaintextBytes = src.MaxPlaintextBytes
	}
	if src.Server.ListenAddr != "" {
		dst.Server.ListenAddr = src.Server.ListenAddr
	}
	if src.Server.MetricsAddr != nil {
		dst.Server.MetricsAddr = *src.Server.MetricsAddr
	}
	if src.Server.MaxBodyBytes != 0 {
		dst.Server.MaxBodyBytes = src.Server.MaxBodyBytes
	}
	if src.Server.RateLimit.RPS != nil {
		dst.Server.RateLimit.RPS = *src.Server.RateLimit.RPS
	}
	if src.Server.RateLimit.Burst != 0 {
		dst.Server.RateLimit.Burst = src.Server.RateLimit.Burst
	}
	if src.Server.RateLimit.IdleTTL != 0 {
		dst.Server.RateLimit.IdleTTL = src.Server.RateLimit.IdleTTL
	}
	if src.Log.JSON != nil {
		dst.Log.JSON = *src.Log.JSON
	}
	if src.Log.Debug != nil {
		dst.Log.Debug = *src.Log.Debug
	}
	if src.Log.Service != "" {
		dst.Log.Service = src.Log.Service
	}
}

// ApplyEnvOverrides applies FINCRYPT_* variables. FINCRYPT_KEYSTORES is a
// comma-separated URI list.
func ApplyEnvOverrides(cfg *Config) error {
	if v := env("FINCRYPT_KEYSTORES"); v != "" {
		var uris []string
		for _, uri := range strings.Split(v, ",") {
			if uri = strings.TrimSpace(uri); uri != "" {
				uris = append(uris, uri)
			}
		}
		cfg.KeyStores = uris
	}
	if v := env("FINCRYPT_ARMOR_WIDTH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("FINCRYPT_ARMOR_WIDTH: %w", err)
		}
		cfg.ArmorWidth = n
	}
	if err := envBool("FINCRYPT_COMPRESS", &cfg.Compress); err != nil {
		return err
	}
	if v := env("FINCRYPT_MAX_PLAINTEXT_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("FINCRYPT_MAX_PLAINTEXT_BYTES: %w", err)
		}
		cfg.MaxPlaintextBytes = n
	}
	if v := env("FINCRYPT_LISTEN_ADDR"); v != "" {
		cfg.Server.ListenAddr = v
	}
	if v, ok := os.LookupEnv("FINCRYPT_METRICS_ADDR"); ok {
		cfg.Server.MetricsAddr = strings.TrimSpace(v)
	}
	if v := env("FINCRYPT_RATE_LIMIT_RPS"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("FINCRYPT_RATE_LIMIT_RPS: %w", err)
		}
		cfg.Server.RateLimit.RPS = rps
	}
	if v := env("FINCRYPT_RATE_LIMIT_BURST"); v != "" {
		burst, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("FINCRYPT_RATE_LIMIT_BURST: %w", err)
		}
		cfg.Server.RateLimit.Burst = burst
	}
	if err := envBool("FINCRYPT_LOG_JSON", &cfg.Log.JSON); err != nil {
		return err
	}
	return envBool("FINCRYPT_LOG_DEBUG", &cfg.Log.Debug)
}

// Validate rejects settings no component can run with.
func (c Config) Validate() error {
	if len(c.KeyStores) == 0 {
		return errors.New("no key stores configured")
	}
	if c.ArmorWidth < 0 {
		return fmt.Errorf("armor width %d is negative", c.ArmorWidth)
	}
	if c.MaxPlaintextBytes <= 0 {
		return fmt.Errorf("max plaintext size %d must be positive", c.MaxPlaintextBytes)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("max body size %d must be positive", c.Server.MaxBodyBytes)
	}
	if c.Server.RateLimit.RPS > 0 && c.Server.RateLimit.Burst <= 0 {
		return fmt.Errorf("rate limit burst %d must be positive", c.Server.RateLimit.Burst)
	}
	return nil
}

func env(name string) string {
	return strings.TrimSpace(os.Getenv(name))
}

func envBool(name string, dst *bool) error {
	raw := env(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = v
	return nil
}
