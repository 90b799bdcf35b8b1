package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/payroll-sentinel/internal/common"
)

// EnvPrefix namespaces environment overrides, e.g. SENTINEL_ALERTS_COOLDOWN.
const EnvPrefix = "SENTINEL"

// Sources and backends.
const (
	BalanceSourcePlaid     = "plaid"
	BalanceSourceOFX       = "ofx"
	BalanceSourceSimpleFIN = "simplefin"

	PayrollSourceStorage = "storage"
	PayrollSourceCheck   = "check"

	HistoryBackendMemory   = "memory"
	HistoryBackendSQLite   = "sqlite"
	HistoryBackendPostgres = "postgres"
)

// Config is the full application configuration.
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Risk      RiskConfig      `mapstructure:"risk"`
	Alerts    AlertsConfig    `mapstructure:"alerts"`
	Balance   BalanceConfig   `mapstructure:"balance"`
	Payroll   PayrollConfig   `mapstructure:"payroll"`
	Plaid     PlaidConfig     `mapstructure:"plaid"`
	Check     CheckConfig     `mapstructure:"check"`
	Slack     SlackConfig     `mapstructure:"slack"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Server    ServerConfig    `mapstructure:"server"`
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig selects the slog level and handler.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// RiskConfig tunes the assessment.
type RiskConfig struct {
	SafetyMultiplier float64 `mapstructure:"safety_multiplier"`
}

// AlertsConfig tunes suppression and where sent alerts are remembered.
type AlertsConfig struct {
	HistoryBackend string        `mapstructure:"history_backend"`
	PostgresDSN    string        `mapstructure:"postgres_dsn"`
	Cooldown       time.Duration `mapstructure:"cooldown"`
	MaxPerDay      int           `mapstructure:"max_per_day"`
	HistoryLimit   int           `mapstructure:"history_limit"`
}

// BalanceConfig selects where cash balances come from.
type BalanceConfig struct {
	Source           string        `mapstructure:"source"`
	OFXDir           string        `mapstructure:"ofx_dir"`
	SimpleFINTimeout time.Duration `mapstructure:"simplefin_timeout"`
}

// PayrollConfig selects where payroll obligations come from.
type PayrollConfig struct {
	Source      string `mapstructure:"source"`
	MonthsAhead int    `mapstructure:"months_ahead"`
}

// PlaidConfig holds Plaid API credentials.
type PlaidConfig struct {
	ClientID    string `mapstructure:"client_id"`
	Secret      string `mapstructure:"secret"`
	Environment string `mapstructure:"environment"`
}

// CheckConfig holds Check payroll API credentials.
type CheckConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// SlackConfig configures the Slack webhook channel.
type SlackConfig struct {
	WebhookURL string `mapstructure:"webhook_url"`
	Channel    string `mapstructure:"channel"`
}

// TelegramConfig configures the Telegram bot channel.
type TelegramConfig struct {
	Token  string `mapstructure:"token"`
	ChatID int64  `mapstructure:"chat_id"`
}

// SchedulerConfig configures periodic checks.
type SchedulerConfig struct {
	Spec        string        `mapstructure:"spec"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Concurrency int           `mapstructure:"concurrency"`
	RunOnStart  bool          `mapstructure:"run_on_start"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// SetDefaults registers every key with its default so environment overrides
// are picked up by Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", "$HOME/.local/share/sentinel/sentinel.db")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("risk.safety_multiplier", 1.1)
	v.SetDefault("alerts.history_backend", HistoryBackendSQLite)
	v.SetDefault("alerts.postgres_dsn", "")
	v.SetDefault("alerts.cooldown", 240*time.Minute)
	v.SetDefault("alerts.max_per_day", 10)
	v.SetDefault("alerts.history_limit", 100)
	v.SetDefault("balance.source", BalanceSourcePlaid)
	v.SetDefault("balance.ofx_dir", "")
	v.SetDefault("balance.simplefin_timeout", 30*time.Second)
	v.SetDefault("payroll.source", PayrollSourceStorage)
	v.SetDefault("payroll.months_ahead", 3)
	v.SetDefault("plaid.client_id", "")
	v.SetDefault("plaid.secret", "")
	v.SetDefault("plaid.environment", "sandbox")
	v.SetDefault("check.api_key", "")
	v.SetDefault("check.base_url", "https://sandbox.checkhq.com")
	v.SetDefault("check.timeout", 30*time.Second)
	v.SetDefault("slack.webhook_url", "")
	v.SetDefault("slack.channel", "")
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.chat_id", 0)
	v.SetDefault("scheduler.spec", "0 */4 * * *")
	v.SetDefault("scheduler.timeout", 10*time.Minute)
	v.SetDefault("scheduler.concurrency", 4)
	v.SetDefault("scheduler.run_on_start", true)
	v.SetDefault("server.addr", ":8080")
}

// BindEnv enables SENTINEL_* environment overrides on v.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load builds a validated Config from v. Defaults are applied first.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}
	cfg.Database.Path = ExpandPath(cfg.Database.Path)
	cfg.Balance.OFXDir = ExpandPath(cfg.Balance.OFXDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail deep inside a run.
// Credentials are checked only for the sources that are selected.
func (c *Config) Validate() error {
	switch {
	case c.Risk.SafetyMultiplier <= 0:
		return fmt.Errorf("%w: risk.safety_multiplier must be positive", common.ErrInvalidConfig)
	case c.Alerts.Cooldown <= 0:
		return fmt.Errorf("%w: alerts.cooldown must be positive", common.ErrInvalidConfig)
	case c.Alerts.MaxPerDay <= 0:
		return fmt.Errorf("%w: alerts.max_per_day must be positive", common.ErrInvalidConfig)
	case c.Payroll.MonthsAhead <= 0:
		return fmt.Errorf("%w: payroll.months_ahead must be positive", common.ErrInvalidConfig)
	case c.Scheduler.Concurrency <= 0:
		return fmt.Errorf("%w: scheduler.concurrency must be positive", common.ErrInvalidConfig)
	}

	switch c.Alerts.HistoryBackend {
	case HistoryBackendMemory, HistoryBackendSQLite:
	case HistoryBackendPostgres:
		if c.Alerts.PostgresDSN == "" {
			return fmt.Errorf("%w: alerts.postgres_dsn is required for the postgres history backend", common.ErrMissingConfig)
		}
	default:
		return fmt.Errorf("%w: unknown alerts.history_backend %q", common.ErrInvalidConfig, c.Alerts.HistoryBackend)
	}

	switch c.Balance.Source {
	case BalanceSourcePlaid, BalanceSourceSimpleFIN:
	case BalanceSourceOFX:
		if c.Balance.OFXDir == "" {
			return fmt.Errorf("%w: balance.ofx_dir is required for the ofx balance source", common.ErrMissingConfig)
		}
	default:
		return fmt.Errorf("%w: unknown balance.source %q", common.ErrInvalidConfig, c.Balance.Source)
	}

	switch c.Payroll.Source {
	case PayrollSourceStorage, PayrollSourceCheck:
	default:
		return fmt.Errorf("%w: unknown payroll.source %q", common.ErrInvalidConfig, c.Payroll.Source)
	}

	return nil
}
