// Package config loads the service configuration from a YAML file and the environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/journey/internal/logging"
)

// Version is the supported config file version.
const Version = 1

// Session store backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQL    = "sql"
	BackendFile   = "file"
)

// Config is the service configuration.
type Config struct {
	Version int           `yaml:"version"`
	Journey string        `yaml:"journey"`
	Server  ServerConfig  `yaml:"server"`
	Session SessionConfig `yaml:"session"`
	Log     LogConfig     `yaml:"log"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	Matcher MatcherConfig `yaml:"matcher"`
}

type ServerConfig struct {
	Port        int           `yaml:"port"`
	BasePath    string        `yaml:"base_path"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

type SessionConfig struct {
	Backend      string        `yaml:"backend"`
	TTL          time.Duration `yaml:"ttl"`
	CookieName   string        `yaml:"cookie_name"`
	SecureCookie bool          `yaml:"secure_cookie"`
	RedisAddr    string        `yaml:"redis_addr"`
	DSN          string        `yaml:"dsn"`
	Dir          string        `yaml:"dir"`

	// Secret enables encryption at rest. It is never read from the file.
	Secret string `yaml:"-"`
	// FallbackSecrets are retired secrets still accepted for decryption.
	FallbackSecrets []string `yaml:"-"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type MQTTConfig struct {
	// Broker enables analytics events when set, e.g. tcp://localhost:1883.
	Broker      string `yaml:"broker"`
	TopicPrefix string `yaml:"topic_prefix"`
	ClientID    string `yaml:"client_id"`
}

type MatcherConfig struct {
	// URL is the base URL of the national insurance number matching API.
	URL string `yaml:"url"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Version: Version,
		Journey: "journeys/nino.yaml",
		Server: ServerConfig{
			Port:        8080,
			BasePath:    "/check",
			IdleTimeout: 65 * time.Second,
		},
		Session: SessionConfig{
			Backend:    BackendMemory,
			TTL:        2 * time.Hour,
			CookieName: "service_session",
			Dir:        ".journey/sessions",
		},
		Log: LogConfig{
			Level:  "info",
			Format: logging.FormatJSON,
		},
		MQTT: MQTTConfig{
			TopicPrefix: "journey/events",
			ClientID:    "journey",
		},
	}
}

// Load reads path (optional), then applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := cfg.decode(data); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		return err
	}
	if c.Version != Version {
		return fmt.Errorf("unsupported config version %d (want %d)", c.Version, Version)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Journey, "JOURNEY_FILE")
	setString(&c.Server.BasePath, "BASE_PATH")
	setString(&c.Session.Backend, "SESSION_BACKEND")
	setString(&c.Session.RedisAddr, "REDIS_ADDR")
	setString(&c.Session.DSN, "SESSION_DSN")
	setString(&c.Session.Dir, "SESSION_DIR")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")
	setString(&c.MQTT.Broker, "MQTT_BROKER")
	setString(&c.Matcher.URL, "NINO_MATCH_URL")

	var errs []error
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("PORT: %w", err))
		}
		c.Server.Port = port
	}
	if v := os.Getenv("SESSION_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("SESSION_TTL: %w", err))
		}
		c.Session.TTL = ttl
	}

	secret, err := ResolveSecret("SESSION_SECRET")
	if err != nil {
		errs = append(errs, err)
	}
	c.Session.Secret = secret

	fallbacks, err := ResolveSecret("SESSION_SECRET_FALLBACKS")
	if err != nil {
		errs = append(errs, err)
	}
	c.Session.FallbackSecrets = splitList(fallbacks)

	return errors.Join(errs...)
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if c.Journey == "" {
		errs = append(errs, errors.New("journey: file is required"))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port: %d out of range", c.Server.Port))
	}
	if !strings.HasPrefix(c.Server.BasePath, "/") {
		errs = append(errs, fmt.Errorf("server.base_path: %q must start with /", c.Server.BasePath))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("session.ttl: must be positive"))
	}
	switch c.Session.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Session.RedisAddr == "" {
			errs = append(errs, errors.New("session.redis_addr: required for the redis backend"))
		}
	case BackendSQL:
		if c.Session.DSN == "" {
			errs = append(errs, errors.New("session.dsn: required for the sql backend"))
		}
	case BackendFile:
		if c.Session.Dir == "" {
			errs = append(errs, errors.New("session.dir: required for the file backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("session.backend: unknown backend %q", c.Session.Backend))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if c.Log.Format != logging.FormatJSON && c.Log.Format != logging.FormatText {
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Server.Port)
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
