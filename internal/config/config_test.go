package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/payroll-sentinel/internal/common"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.InDelta(t, 1.1, cfg.Risk.SafetyMultiplier, 0)
	assert.Equal(t, 240*time.Minute, cfg.Alerts.Cooldown)
	assert.Equal(t, 10, cfg.Alerts.MaxPerDay)
	assert.Equal(t, HistoryBackendSQLite, cfg.Alerts.HistoryBackend)
	assert.Equal(t, 3, cfg.Payroll.MonthsAhead)
	assert.Equal(t, "0 */4 * * *", cfg.Scheduler.Spec)
	assert.Equal(t, 4, cfg.Scheduler.Concurrency)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 30*time.Second, cfg.Check.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Balance.SimpleFINTimeout)
	assert.NotContains(t, cfg.Database.Path, "$HOME")
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("SENTINEL_ALERTS_COOLDOWN", "30m")
	t.Setenv("SENTINEL_ALERTS_MAX_PER_DAY", "3")
	t.Setenv("SENTINEL_TELEGRAM_CHAT_ID", "-100200300")
	t.Setenv("SENTINEL_RISK_SAFETY_MULTIPLIER", "1.25")
	t.Setenv("SENTINEL_BALANCE_SOURCE", "simplefin")

	v := viper.New()
	BindEnv(v)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, cfg.Alerts.Cooldown)
	assert.Equal(t, 3, cfg.Alerts.MaxPerDay)
	assert.Equal(t, int64(-100200300), cfg.Telegram.ChatID)
	assert.Equal(t, BalanceSourceSimpleFIN, cfg.Balance.Source)
	assert.InDelta(t, 1.25, cfg.Risk.SafetyMultiplier, 0)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
alerts:
  history_backend: postgres
  postgres_dsn: postgres://sentinel@localhost/sentinel?sslmode=disable
payroll:
  source: check
  months_ahead: 2
balance:
  source: ofx
  ofx_dir: `+dir+`
`), 0o600))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, HistoryBackendPostgres, cfg.Alerts.HistoryBackend)
	assert.Equal(t, PayrollSourceCheck, cfg.Payroll.Source)
	assert.Equal(t, 2, cfg.Payroll.MonthsAhead)
	assert.Equal(t, dir, cfg.Balance.OFXDir)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		mutate  func(*Config)
		wantErr error
		name    string
	}{
		{name: "zero multiplier", mutate: func(c *Config) { c.Risk.SafetyMultiplier = 0 }, wantErr: common.ErrInvalidConfig},
		{name: "negative cooldown", mutate: func(c *Config) { c.Alerts.Cooldown = -time.Minute }, wantErr: common.ErrInvalidConfig},
		{name: "zero daily cap", mutate: func(c *Config) { c.Alerts.MaxPerDay = 0 }, wantErr: common.ErrInvalidConfig},
		{name: "zero horizon", mutate: func(c *Config) { c.Payroll.MonthsAhead = 0 }, wantErr: common.ErrInvalidConfig},
		{name: "unknown backend", mutate: func(c *Config) { c.Alerts.HistoryBackend = "redis" }, wantErr: common.ErrInvalidConfig},
		{name: "postgres without dsn", mutate: func(c *Config) { c.Alerts.HistoryBackend = HistoryBackendPostgres }, wantErr: common.ErrMissingConfig},
		{name: "ofx without dir", mutate: func(c *Config) { c.Balance.Source = BalanceSourceOFX }, wantErr: common.ErrMissingConfig},
		{name: "unknown balance source", mutate: func(c *Config) { c.Balance.Source = "csv" }, wantErr: common.ErrInvalidConfig},
		{name: "unknown payroll source", mutate: func(c *Config) { c.Payroll.Source = "gusto" }, wantErr: common.ErrInvalidConfig},
		{name: "memory backend", mutate: func(c *Config) { c.Alerts.HistoryBackend = HistoryBackendMemory }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(viper.New())
			require.NoError(t, err)
			tt.mutate(cfg)

			err = cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("SENTINEL_TEST_DIR", "/var/lib/sentinel")

	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "~", want: home},
		{in: "~/data/sentinel.db", want: filepath.Join(home, "data", "sentinel.db")},
		{in: "$SENTINEL_TEST_DIR/sentinel.db", want: "/var/lib/sentinel/sentinel.db"},
		{in: "/abs/path.db", want: "/abs/path.db"},
		{in: "~user/path", want: "~user/path"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.in))
		})
	}
}
