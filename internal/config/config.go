// Package config resolves the immutable process configuration from
// environment variables and, when present, a platform service-binding
// document (VCAP_SERVICES). The resulting Config is built once in main and
// passed down; core logic never reads the environment itself.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Driver selects the database/sql driver used for the real login.
type Driver string

const (
	DriverHDB      Driver = "hdb"
	DriverPostgres Driver = "postgres"
	DriverMySQL    Driver = "mysql"
)

// Defaults.
const (
	DefaultTargetPort      = 443
	DefaultSchema          = "SMART_RETAIL1"
	DefaultListenPort      = "8080"
	DefaultPrecheckTimeout = 8 * time.Second
	DefaultLoginTimeout    = 15 * time.Second
)

// Config holds everything the proxy needs to run. Read-only after Load.
type Config struct {
	ListenPort string

	Host     string
	Port     int
	User     string
	Password string
	Schema   string
	Driver   Driver

	APIKey string

	// ValidateCertificate governs whether a failed TLS precheck is fatal
	// and whether the real login verifies the server certificate.
	ValidateCertificate bool

	PrecheckTimeout time.Duration
	LoginTimeout    time.Duration
}

// Load builds the configuration from the process environment.
// A HANA service binding in VCAP_SERVICES supplies host/port/user/password
// defaults; explicit HANA_* variables win over the binding.
func Load() (*Config, error) {
	return loadFrom(os.Getenv)
}

func loadFrom(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		ListenPort: firstNonEmpty(getenv("PORT"), DefaultListenPort),
		Host:       firstNonEmpty(getenv("HANA_HOST"), getenv("HANA_ADDRESS")),
		Port:       DefaultTargetPort,
		User:       getenv("HANA_USER"),
		Password:   getenv("HANA_PASSWORD"),
		Schema:     firstNonEmpty(getenv("HANA_SCHEMA"), DefaultSchema),
		APIKey:     getenv("PROXY_API_KEY"),

		PrecheckTimeout: DefaultPrecheckTimeout,
		LoginTimeout:    DefaultLoginTimeout,
	}

	// Service binding fills the gaps the environment left open.
	if raw := getenv("VCAP_SERVICES"); raw != "" {
		binding, err := bindingFromVCAP(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid VCAP_SERVICES: %w", err)
		}
		if binding != nil {
			cfg.applyBinding(binding)
		}
	}

	if v := getenv("HANA_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid HANA_PORT %q", v)
		}
		cfg.Port = port
	}

	cfg.ValidateCertificate = parseBool(getenv("HANA_SSL_VALIDATE"))

	switch d := Driver(strings.ToLower(getenv("HANA_DRIVER"))); d {
	case "":
		cfg.Driver = DriverHDB
	case DriverHDB, DriverPostgres, DriverMySQL:
		cfg.Driver = d
	default:
		return nil, fmt.Errorf("unknown HANA_DRIVER %q", getenv("HANA_DRIVER"))
	}

	if v := getenv("PRECHECK_TIMEOUT"); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid PRECHECK_TIMEOUT: %w", err)
		}
		cfg.PrecheckTimeout = d
	}
	if v := getenv("LOGIN_TIMEOUT"); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid LOGIN_TIMEOUT: %w", err)
		}
		cfg.LoginTimeout = d
	}

	return cfg, nil
}

func (c *Config) applyBinding(b *binding) {
	if c.Host == "" {
		c.Host = b.Host
	}
	if b.Port > 0 {
		c.Port = b.Port
	}
	if c.User == "" {
		c.User = b.User
	}
	if c.Password == "" {
		c.Password = b.Password
	}
	if b.Schema != "" && c.Schema == DefaultSchema {
		c.Schema = b.Schema
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// parseDuration accepts Go duration syntax ("8s", "1m") or a plain number
// of seconds ("8", "2.5").
func parseDuration(s string) (time.Duration, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("expected seconds or Go duration, got %q", s)
	}
	return time.Duration(sec * float64(time.Second)), nil
}
