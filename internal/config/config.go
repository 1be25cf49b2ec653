// Package config loads watchdog settings from defaults, an optional YAML file,
// an optional .env file and the process environment, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"

	"github.com/hamed0406/routerwatch/internal/monitor"
)

// ErrInvalidValue is wrapped by every malformed or out-of-range setting.
var ErrInvalidValue = errors.New("invalid config value")

type Config struct {
	Log     LogConfig     `yaml:"log"`
	Webhook WebhookConfig `yaml:"webhook"`
	Monitor MonitorConfig `yaml:"monitor"`
	Probe   ProbeConfig   `yaml:"probe"`
	Status  StatusConfig  `yaml:"status"`

	SlackWebhookURL string `yaml:"slack_webhook_url"`
}

type LogConfig struct {
	Dir      string `yaml:"dir"`
	Level    string `yaml:"level"`
	Timezone string `yaml:"timezone"` // IANA name or "Local"
}

type WebhookConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	ID        string `yaml:"id"`
	UseHTTPS  bool   `yaml:"use_https"`
	VerifyTLS bool   `yaml:"verify_tls"`
	TimeoutMS int    `yaml:"timeout_ms"`
}

// MonitorConfig holds intervals in whole seconds.
type MonitorConfig struct {
	SleepWhileOffline  int `yaml:"sleep_while_offline"`
	SleepWhileOnline   int `yaml:"sleep_while_online"`
	SleepAfterReset    int `yaml:"sleep_after_reset"`
	FailedPingsToReset int `yaml:"failed_pings_to_reset"`
	AttemptsToLogAlive int `yaml:"attempts_to_log_alive"`
	MaxResets          int `yaml:"max_resets"`
}

type ProbeConfig struct {
	Mode           string `yaml:"mode"` // tcp, http or dns
	Target         string `yaml:"target"`
	TimeoutMS      int    `yaml:"timeout_ms"`
	RetryAttempts  int    `yaml:"retry_attempts"`
	RetryBackoffMS int    `yaml:"retry_backoff_ms"`
}

type StatusConfig struct {
	Addr            string   `yaml:"addr"` // empty disables the status server
	APIKeys         []string `yaml:"api_keys"`
	RateLimitPerMin int      `yaml:"rate_limit_per_min"`
	RateBurst       int      `yaml:"rate_burst"`
}

func Default() Config {
	return Config{
		Log: LogConfig{Dir: "logs", Level: "info", Timezone: "Local"},
		Webhook: WebhookConfig{
			Host:      "192.168.1.116",
			Port:      8123,
			ID:        "-1r22edZi_iswfPBM0u1XVnf6",
			UseHTTPS:  true,
			VerifyTLS: false,
			TimeoutMS: 10_000,
		},
		Monitor: MonitorConfig{
			SleepWhileOffline:  60,
			SleepWhileOnline:   30,
			SleepAfterReset:    120,
			FailedPingsToReset: 3,
			AttemptsToLogAlive: 20,
			MaxResets:          3,
		},
		Probe: ProbeConfig{
			Mode:           "tcp",
			Target:         "8.8.8.8:53",
			TimeoutMS:      3000,
			RetryAttempts:  1,
			RetryBackoffMS: 300,
		},
		Status: StatusConfig{RateLimitPerMin: 120, RateBurst: 60},
	}
}

// FromEnv loads the configuration. CONFIG_FILE names an optional YAML file and
// ENV_FILE an optional dotenv file (default ".env"); a missing .env is ignored.
func FromEnv() (Config, error) {
	cfg := Default()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := loadYAML(path, &cfg); err != nil {
			return cfg, err
		}
	}

	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	dotenv, err := godotenv.Read(envFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("read env file %s: %w", envFile, err)
	}

	if err := applyEnv(&cfg, lookupFunc(dotenv)); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func loadYAML(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	return nil
}

// lookupFunc prefers the real environment over dotenv values.
func lookupFunc(dotenv map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	var errs error

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			multierr.AppendInto(&errs, fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidValue, key, v))
			return
		}
		*dst = n
	}
	flag := func(key string, dst *bool) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			multierr.AppendInto(&errs, fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalidValue, key, v))
			return
		}
		*dst = b
	}

	str("LOG_DIR", &cfg.Log.Dir)
	str("LOG_LEVEL", &cfg.Log.Level)
	str("MONITOR_TIMEZONE", &cfg.Log.Timezone)

	str("HA_HOST", &cfg.Webhook.Host)
	num("HA_PORT", &cfg.Webhook.Port)
	str("HA_WEBHOOK_ID", &cfg.Webhook.ID)
	flag("HA_USE_HTTPS", &cfg.Webhook.UseHTTPS)
	flag("HA_VERIFY_TLS", &cfg.Webhook.VerifyTLS)
	num("RESET_TIMEOUT_MS", &cfg.Webhook.TimeoutMS)

	num("SLEEP_WHILE_OFFLINE", &cfg.Monitor.SleepWhileOffline)
	num("SLEEP_WHILE_ONLINE", &cfg.Monitor.SleepWhileOnline)
	num("SLEEP_AFTER_RESET", &cfg.Monitor.SleepAfterReset)
	num("NUMBER_OF_FAILED_PINGS_TO_RESET", &cfg.Monitor.FailedPingsToReset)
	num("NUMBER_OF_ATTEMPTS_TO_LOG_ALIVE", &cfg.Monitor.AttemptsToLogAlive)
	num("MAX_NUMBER_OF_RESETS", &cfg.Monitor.MaxResets)

	str("PROBE_MODE", &cfg.Probe.Mode)
	str("PROBE_TARGET", &cfg.Probe.Target)
	num("PROBE_TIMEOUT_MS", &cfg.Probe.TimeoutMS)
	num("RETRY_ATTEMPTS", &cfg.Probe.RetryAttempts)
	num("RETRY_BACKOFF_MS", &cfg.Probe.RetryBackoffMS)

	str("STATUS_ADDR", &cfg.Status.Addr)
	if v, ok := lookup("STATUS_API_KEYS"); ok {
		cfg.Status.APIKeys = splitList(v)
	}
	num("STATUS_RATE_LIMIT_PER_MIN", &cfg.Status.RateLimitPerMin)
	num("STATUS_RATE_BURST", &cfg.Status.RateBurst)

	str("SLACK_WEBHOOK_URL", &cfg.SlackWebhookURL)

	return errs
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

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs error
	bad := func(format string, args ...any) {
		multierr.AppendInto(&errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidValue}, args...)...))
	}

	if strings.TrimSpace(c.Log.Dir) == "" {
		bad("log dir is empty")
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		bad("log level %q", c.Log.Level)
	}
	if _, err := c.Location(); err != nil {
		bad("timezone %q: %v", c.Log.Timezone, err)
	}

	if strings.TrimSpace(c.Webhook.Host) == "" {
		bad("webhook host is empty")
	}
	if c.Webhook.Port < 1 || c.Webhook.Port > 65535 {
		bad("webhook port %d out of range", c.Webhook.Port)
	}
	if strings.TrimSpace(c.Webhook.ID) == "" {
		bad("webhook id is empty")
	}

	switch strings.ToLower(c.Probe.Mode) {
	case "tcp", "http", "dns":
	default:
		bad("probe mode %q (use tcp, http or dns)", c.Probe.Mode)
	}
	if strings.TrimSpace(c.Probe.Target) == "" {
		bad("probe target is empty")
	}
	if c.Probe.TimeoutMS <= 0 {
		bad("probe timeout must be > 0, got %dms", c.Probe.TimeoutMS)
	}
	if c.Probe.RetryAttempts < 1 {
		bad("retry attempts must be >= 1, got %d", c.Probe.RetryAttempts)
	}
	if c.Probe.RetryBackoffMS < 0 {
		bad("retry backoff cannot be negative, got %dms", c.Probe.RetryBackoffMS)
	}

	if c.Status.RateLimitPerMin < 0 || c.Status.RateBurst < 0 {
		bad("status rate limit cannot be negative")
	}

	// webhook timeout and every monitor interval/threshold
	multierr.AppendInto(&errs, c.MonitorConfig().Validate())
	return errs
}

// Location resolves Log.Timezone; "Local" and "" mean the host zone.
func (c Config) Location() (*time.Location, error) {
	tz := strings.TrimSpace(c.Log.Timezone)
	if tz == "" || strings.EqualFold(tz, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(tz)
}

// MonitorConfig converts the flat settings into the monitor's policy.
func (c Config) MonitorConfig() monitor.Config {
	return monitor.Config{
		OfflinePollInterval: seconds(c.Monitor.SleepWhileOffline),
		OnlinePollInterval:  seconds(c.Monitor.SleepWhileOnline),
		PostResetCooldown:   seconds(c.Monitor.SleepAfterReset),
		ResetTimeout:        millis(c.Webhook.TimeoutMS),
		FailuresBeforeReset: c.Monitor.FailedPingsToReset,
		HeartbeatInterval:   c.Monitor.AttemptsToLogAlive,
		MaxResetsPerOutage:  c.Monitor.MaxResets,
	}
}

// URL is the webhook endpoint, {scheme}://{host}:{port}/api/webhook/{id}.
func (w WebhookConfig) URL() string {
	scheme := "http"
	if w.UseHTTPS {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d/api/webhook/%s", scheme, w.Host, w.Port, w.ID)
}

func (w WebhookConfig) Timeout() time.Duration { return millis(w.TimeoutMS) }

func (p ProbeConfig) Timeout() time.Duration      { return millis(p.TimeoutMS) }
func (p ProbeConfig) RetryBackoff() time.Duration { return millis(p.RetryBackoffMS) }

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }
func millis(n int) time.Duration  { return time.Duration(n) * time.Millisecond }
