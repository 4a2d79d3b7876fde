package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"google.golang.org/api/option"
	"gopkg.in/yaml.v3"

	"github.com/kndndrj/bqrunner/bqrunner"
)

type LookupFunc func(string) (string, bool)

type Config struct {
	Auth            bqrunner.AuthKind `yaml:"auth"`
	ProjectID       string            `yaml:"project_id"`
	JSONKeyFile     string            `yaml:"json_key_file"`
	PollInterval    time.Duration     `yaml:"poll_interval"`
	MaxPollAttempts int               `yaml:"max_poll_attempts"`
	HTTPTimeout     time.Duration     `yaml:"http_timeout"`
	// Endpoint overrides the BigQuery REST base path, e.g. for an emulator.
	Endpoint string      `yaml:"endpoint"`
	Query    QueryConfig `yaml:"query"`
	Log      LogConfig   `yaml:"log"`
}

type QueryConfig struct {
	Location          string `yaml:"location"`
	MaxBytesBilled    int64  `yaml:"max_bytes_billed"`
	UseLegacySQL      *bool  `yaml:"use_legacy_sql"`
	DisableQueryCache bool   `yaml:"disable_query_cache"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

func Default() Config {
	return Config{
		Auth:         bqrunner.AuthJWT,
		PollInterval: bqrunner.DefaultPollInterval,
		HTTPTimeout:  bqrunner.DefaultHTTPTimeout,
		Log: LogConfig{
			Level: "info",
		},
	}
}

func LoadFromEnv() (Config, error) {
	return Load(os.LookupEnv)
}

// Load builds the config from defaults overridden by BQRUNNER_* variables.
func Load(lookup LookupFunc) (Config, error) {
	return apply(Default(), lookup)
}

// LoadFile reads a yaml config file and applies BQRUNNER_* overrides on top.
func LoadFile(path string, lookup LookupFunc) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("os.ReadFile: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("yaml.Unmarshal: %w", err)
	}

	return apply(cfg, lookup)
}

func apply(cfg Config, lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, errors.New("lookup function is required")
	}

	var auth string
	if err := applyString(lookup, "BQRUNNER_AUTH", &auth); err != nil {
		return Config{}, err
	}
	if auth != "" {
		cfg.Auth = bqrunner.AuthKind(strings.ToLower(auth))
	}
	if err := applyString(lookup, "BQRUNNER_PROJECT_ID", &cfg.ProjectID); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "BQRUNNER_JSON_KEY_FILE", &cfg.JSONKeyFile); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "BQRUNNER_POLL_INTERVAL", &cfg.PollInterval); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "BQRUNNER_MAX_POLL_ATTEMPTS", &cfg.MaxPollAttempts); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "BQRUNNER_HTTP_TIMEOUT", &cfg.HTTPTimeout); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "BQRUNNER_ENDPOINT", &cfg.Endpoint); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "BQRUNNER_LOCATION", &cfg.Query.Location); err != nil {
		return Config{}, err
	}
	if err := applyInt64(lookup, "BQRUNNER_MAX_BYTES_BILLED", &cfg.Query.MaxBytesBilled); err != nil {
		return Config{}, err
	}
	if err := applyOptionalBool(lookup, "BQRUNNER_USE_LEGACY_SQL", &cfg.Query.UseLegacySQL); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "BQRUNNER_DISABLE_QUERY_CACHE", &cfg.Query.DisableQueryCache); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "BQRUNNER_LOG_LEVEL", &cfg.Log.Level); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "BQRUNNER_LOG_JSON", &cfg.Log.JSON); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the selected auth kind has what it needs.
func (c Config) Validate() error {
	switch c.Auth {
	case bqrunner.AuthJWT:
		if c.ProjectID == "" {
			return errors.New("project id is required for jwt auth")
		}
		if c.JSONKeyFile == "" {
			return errors.New("json key file is required for jwt auth")
		}
	case bqrunner.AuthMetadata:
	default:
		return fmt.Errorf("invalid auth: %q", c.Auth)
	}
	if c.PollInterval <= 0 {
		return errors.New("poll interval must be positive")
	}
	if c.MaxPollAttempts < 0 {
		return errors.New("max poll attempts must not be negative")
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

func (c Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("invalid log level: %w", err)
	}
	return level, nil
}

// Credentials returns the credential strategy selected by Auth.
func (c Config) Credentials() (bqrunner.Credentials, error) {
	return bqrunner.NewCredentials(c.Auth, c.ProjectID, c.JSONKeyFile)
}

// Options converts the config to runner options.
func (c Config) Options() []bqrunner.Option {
	opts := []bqrunner.Option{
		bqrunner.WithPollInterval(c.PollInterval),
		bqrunner.WithMaxPollAttempts(c.MaxPollAttempts),
		bqrunner.WithHTTPTimeout(c.HTTPTimeout),
		bqrunner.WithQueryOptions(bqrunner.QueryOptions{
			Location:          c.Query.Location,
			MaxBytesBilled:    c.Query.MaxBytesBilled,
			UseLegacySQL:      c.Query.UseLegacySQL,
			DisableQueryCache: c.Query.DisableQueryCache,
		}),
	}
	if c.Endpoint != "" {
		opts = append(opts, bqrunner.WithClientOptions(option.WithEndpoint(c.Endpoint)))
	}
	return opts
}

func applyString(lookup LookupFunc, key string, dst *string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	*dst = strings.TrimSpace(raw)
	return nil
}

func applyDuration(lookup LookupFunc, key string, dst *time.Duration) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyBool(lookup LookupFunc, key string, dst *bool) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyOptionalBool(lookup LookupFunc, key string, dst **bool) error {
	var value bool
	if _, ok := lookup(key); !ok {
		return nil
	}
	if err := applyBool(lookup, key, &value); err != nil {
		return err
	}
	*dst = &value
	return nil
}

func applyInt(lookup LookupFunc, key string, dst *int) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyInt64(lookup LookupFunc, key string, dst *int64) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}
