// Package config loads the bot configuration from a YAML (or JSON) file.
//
// Decoding is strict: unknown keys are rejected so typos fail at startup
// instead of silently falling back to defaults. Durations are Go duration
// strings ("10s", "24h").
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "go.yaml.in/yaml/v3"
)

type Config struct {
	Telegram  TelegramConfig  `json:"telegram"`
	Log       LogConfig       `json:"log,omitempty"`
	Storage   StorageConfig   `json:"storage,omitempty"`
	Content   ContentConfig   `json:"content,omitempty"`
	Notifier  NotifierConfig  `json:"notifier,omitempty"`
	Scheduler SchedulerConfig `json:"scheduler,omitempty"`
}

type TelegramConfig struct {
	// Token may be omitted in the file and supplied via BOT_TOKEN instead
	// (keeps secrets out of checked-in configs).
	Token       string `json:"token,omitempty"`
	PollTimeout string `json:"poll_timeout,omitempty"` // default 10s
}

type LogConfig struct {
	Level   string `json:"level,omitempty"` // trace|debug|info|warn|error
	Console bool   `json:"console,omitempty"`
}

type StorageConfig struct {
	Path        string `json:"path,omitempty"`         // default ./data/bot.db
	BusyTimeout string `json:"busy_timeout,omitempty"` // default 5s
}

type ContentConfig struct {
	URL          string `json:"url,omitempty"`
	FetchTimeout string `json:"fetch_timeout,omitempty"` // default 10s
	CacheTTL     string `json:"cache_ttl,omitempty"`     // default 24h
}

type NotifierConfig struct {
	Workers       int    `json:"workers,omitempty"`
	QueueSize     int    `json:"queue_size,omitempty"`
	RatePerSec    int    `json:"rate_per_sec,omitempty"`
	RetryMax      int    `json:"retry_max,omitempty"`
	RetryBase     string `json:"retry_base,omitempty"`
	RetryMaxDelay string `json:"retry_max_delay,omitempty"`
}

type SchedulerConfig struct {
	FireTimeout string `json:"fire_timeout,omitempty"` // default 30s
}

// DefaultContentURL is the article the original catalogue is scraped from.
const DefaultContentURL = "https://www.verywellmind.com/positivity-boosting-compliments-1717559"

// Load reads, decodes and validates the config at path. The BOT_TOKEN
// environment variable overrides telegram.token when set.
func Load(path string) (*Config, error) {
	cfg, err := Parse(path)
	if err != nil {
		return nil, err
	}
	if tok := strings.TrimSpace(os.Getenv("BOT_TOKEN")); tok != "" {
		cfg.Telegram.Token = tok
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes the file without applying env overrides or validation.
func Parse(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	jb, err := coerceToJSONBytes(path, b)
	if err != nil {
		return nil, err
	}

	var cfg Config
	dec := json.NewDecoder(bytes.NewReader(jb))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	// Reject trailing tokens (e.g. concatenated documents).
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("config %s: trailing data", path)
		}
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required fields and all duration strings.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Telegram.Token) == "" {
		return errors.New("telegram token is required (telegram.token or BOT_TOKEN)")
	}
	for _, d := range []struct{ path, raw string }{
		{"telegram.poll_timeout", c.Telegram.PollTimeout},
		{"storage.busy_timeout", c.Storage.BusyTimeout},
		{"content.fetch_timeout", c.Content.FetchTimeout},
		{"content.cache_ttl", c.Content.CacheTTL},
		{"notifier.retry_base", c.Notifier.RetryBase},
		{"notifier.retry_max_delay", c.Notifier.RetryMaxDelay},
		{"scheduler.fire_timeout", c.Scheduler.FireTimeout},
	} {
		if _, err := ParseDurationField(d.path, d.raw); err != nil {
			return err
		}
	}
	return nil
}

// Duration resolvers with package defaults. Validate has already rejected
// malformed strings, so errors here only occur for configs that skipped it.

func (c *Config) PollTimeout() time.Duration {
	return durationOr(c.Telegram.PollTimeout, 10*time.Second)
}

func (c *Config) StoragePath() string {
	if strings.TrimSpace(c.Storage.Path) == "" {
		return "./data/bot.db"
	}
	return c.Storage.Path
}

func (c *Config) BusyTimeout() time.Duration {
	return durationOr(c.Storage.BusyTimeout, 5*time.Second)
}

func (c *Config) ContentURL() string {
	if strings.TrimSpace(c.Content.URL) == "" {
		return DefaultContentURL
	}
	return c.Content.URL
}

func (c *Config) FetchTimeout() time.Duration {
	return durationOr(c.Content.FetchTimeout, 10*time.Second)
}

func (c *Config) CacheTTL() time.Duration {
	return durationOr(c.Content.CacheTTL, 24*time.Hour)
}

func (c *Config) RetryBase() time.Duration {
	return durationOr(c.Notifier.RetryBase, 500*time.Millisecond)
}

func (c *Config) RetryMaxDelay() time.Duration {
	return durationOr(c.Notifier.RetryMaxDelay, 10*time.Second)
}

func (c *Config) FireTimeout() time.Duration {
	return durationOr(c.Scheduler.FireTimeout, 30*time.Second)
}

// ParseDurationField parses a non-negative duration string; empty means 0.
func ParseDurationField(path, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", path)
	}
	return d, nil
}

func durationOr(raw string, def time.Duration) time.Duration {
	d, err := ParseDurationField("", raw)
	if err != nil || d == 0 {
		return def
	}
	return d
}

// coerceToJSONBytes converts YAML config to JSON bytes so the strict JSON
// decoder (DisallowUnknownFields) covers both formats.
func coerceToJSONBytes(path string, data []byte) ([]byte, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return data, nil
	}

	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("yaml unmarshal: %w", err)
	}
	v = normalizeYAML(v)

	j, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("yaml->json marshal: %w", err)
	}
	return j, nil
}

// normalizeYAML ensures all map keys are strings so the result can be
// JSON-marshaled.
func normalizeYAML(in any) any {
	switch x := in.(type) {
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, v := range x {
			m[fmt.Sprint(k)] = normalizeYAML(v)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, v := range x {
			m[k] = normalizeYAML(v)
		}
		return m
	case []any:
		for i := range x {
			x[i] = normalizeYAML(x[i])
		}
		return x
	default:
		return in
	}
}
