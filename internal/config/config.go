// Package config builds the process-wide configuration once at startup.
// The resulting struct is passed explicitly into constructors; nothing in
// the service reads settings from globals after main.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete service configuration.
type Config struct {
	ListenAddr  string `yaml:"listen_addr"`
	DatabaseURL string `yaml:"database_url"`

	JWT        JWTConfig        `yaml:"jwt"`
	PulsePoint PulsePointConfig `yaml:"pulsepoint"`

	CORSOrigins []string `yaml:"cors_origins"`

	RateBurst  int `yaml:"rate_burst"`
	RatePerSec int `yaml:"rate_per_sec"`
}

// JWTConfig controls token signing. Secret is required; rotating it
// invalidates all outstanding tokens.
type JWTConfig struct {
	Secret          string `yaml:"secret"`
	Algorithm       string `yaml:"algorithm"`
	ExpirationHours int    `yaml:"expiration_hours"`
}

// Lifetime returns the configured token lifetime.
func (c JWTConfig) Lifetime() time.Duration {
	return time.Duration(c.ExpirationHours) * time.Hour
}

// PulsePointConfig points at the delegated identity provider. Username and
// Password are service-level directory credentials.
type PulsePointConfig struct {
	BaseURL   string `yaml:"base_url"`
	ProjectID int    `yaml:"project_id"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		ListenAddr: ":8000",
		JWT: JWTConfig{
			Algorithm:       "HS256",
			ExpirationHours: 12,
		},
		PulsePoint: PulsePointConfig{
			BaseURL:   "https://api.pulsepoint.clinotag.com",
			ProjectID: 20,
		},
		CORSOrigins: []string{"http://localhost:3000"},
		RateBurst:   20,
		RatePerSec:  10,
	}
}

// Load builds the configuration: defaults, then an optional YAML file
// (explicit path, SCANANDGO_CONFIG, ./config.yaml), then SCANANDGO_* env
// overrides, then validation.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if file := discoverFile(path); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", file, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", file, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate fails loudly at startup on misconfiguration the service cannot
// recover from per-request.
func (c Config) Validate() error {
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return errors.New("config: jwt secret is required")
	}
	if c.JWT.ExpirationHours <= 0 {
		return errors.New("config: jwt expiration_hours must be positive")
	}
	if strings.TrimSpace(c.PulsePoint.BaseURL) == "" {
		return errors.New("config: pulsepoint base_url is required")
	}
	return nil
}

func discoverFile(path string) string {
	if path != "" {
		return path
	}
	if env := os.Getenv("SCANANDGO_CONFIG"); env != "" {
		return env
	}
	if _, err := os.Stat("config.yaml"); err == nil {
		return "config.yaml"
	}
	return ""
}

func applyEnv(cfg *Config) {
	setString(&cfg.ListenAddr, "SCANANDGO_LISTEN_ADDR")
	setString(&cfg.DatabaseURL, "SCANANDGO_DATABASE_URL")
	setString(&cfg.JWT.Secret, "SCANANDGO_JWT_SECRET")
	setString(&cfg.JWT.Algorithm, "SCANANDGO_JWT_ALGORITHM")
	setInt(&cfg.JWT.ExpirationHours, "SCANANDGO_JWT_EXPIRATION_HOURS")
	setString(&cfg.PulsePoint.BaseURL, "SCANANDGO_PULSEPOINT_URL")
	setInt(&cfg.PulsePoint.ProjectID, "SCANANDGO_PULSEPOINT_PROJECT_ID")
	setString(&cfg.PulsePoint.Username, "SCANANDGO_PULSEPOINT_USERNAME")
	setString(&cfg.PulsePoint.Password, "SCANANDGO_PULSEPOINT_PASSWORD")
	setInt(&cfg.RateBurst, "SCANANDGO_RATE_BURST")
	setInt(&cfg.RatePerSec, "SCANANDGO_RATE_PER_SEC")

	if v := os.Getenv("SCANANDGO_CORS_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.CORSOrigins = origins
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
