package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"

	"github.com/Veraticus/payroll-sentinel/internal/alert"
	"github.com/Veraticus/payroll-sentinel/internal/config"
	"github.com/Veraticus/payroll-sentinel/internal/model"
	"github.com/Veraticus/payroll-sentinel/internal/monitor"
	"github.com/Veraticus/payroll-sentinel/internal/notify"
	"github.com/Veraticus/payroll-sentinel/internal/observability"
	"github.com/Veraticus/payroll-sentinel/internal/ofx"
	"github.com/Veraticus/payroll-sentinel/internal/payroll"
	"github.com/Veraticus/payroll-sentinel/internal/plaid"
	"github.com/Veraticus/payroll-sentinel/internal/risk"
	"github.com/Veraticus/payroll-sentinel/internal/service"
	"github.com/Veraticus/payroll-sentinel/internal/simplefin"
	"github.com/Veraticus/payroll-sentinel/internal/storage"
)

// loadConfig builds the typed config from the global viper instance.
func loadConfig() (*config.Config, error) {
	return config.Load(viper.GetViper())
}

// initStorage opens and migrates the SQLite database.
func initStorage(ctx context.Context, cfg *config.Config) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	store.SetHistoryLimit(cfg.Alerts.HistoryLimit)

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

// historyStore is a HistoryStore that can also list recent alerts.
type historyStore interface {
	alert.HistoryStore
	ListAlerts(ctx context.Context, companyID string, limit int) ([]model.AlertHistoryEntry, error)
}

// buildHistoryStore selects where sent alerts are remembered. The returned
// closer releases any extra connection.
func buildHistoryStore(ctx context.Context, cfg *config.Config, store *storage.SQLiteStorage) (alert.HistoryStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Alerts.HistoryBackend {
	case config.HistoryBackendMemory:
		slog.Warn("Alert history is in memory; cooldowns reset on restart")
		return alert.NewMemoryStore(cfg.Alerts.HistoryLimit), noop, nil
	case config.HistoryBackendPostgres:
		db, err := storage.NewPostgresConnection(cfg.Alerts.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		pg := storage.NewPostgresHistoryStore(db)
		if err := pg.Migrate(ctx); err != nil {
			_ = pg.Close()
			return nil, nil, err
		}
		return pg, pg.Close, nil
	default:
		return store, noop, nil
	}
}

func buildBalanceProvider(cfg *config.Config, store *storage.SQLiteStorage) (service.BalanceProvider, error) {
	switch cfg.Balance.Source {
	case config.BalanceSourceOFX:
		return ofx.NewFileBalanceProvider(cfg.Balance.OFXDir), nil
	case config.BalanceSourceSimpleFIN:
		return simplefin.NewBalanceProvider(simplefin.NewClient(cfg.Balance.SimpleFINTimeout), store), nil
	default:
		client, err := plaid.NewClient(plaid.Config{
			ClientID:    cfg.Plaid.ClientID,
			Secret:      cfg.Plaid.Secret,
			Environment: cfg.Plaid.Environment,
		})
		if err != nil {
			return nil, err
		}
		return plaid.NewBalanceProvider(client, store), nil
	}
}

func buildPayrollProvider(cfg *config.Config, store *storage.SQLiteStorage) (service.PayrollProvider, error) {
	switch cfg.Payroll.Source {
	case config.PayrollSourceCheck:
		client, err := payroll.NewCheckClient(payroll.CheckConfig{
			APIKey:  cfg.Check.APIKey,
			BaseURL: cfg.Check.BaseURL,
			Timeout: cfg.Check.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return payroll.NewStorageProvider(store), nil
	}
}

// buildNotifier chains every configured channel, Telegram first, then Slack.
// Alerts are only logged when neither is configured.
func buildNotifier(cfg *config.Config, store *storage.SQLiteStorage) (alert.Notifier, error) {
	var channels []alert.Notifier

	if cfg.Telegram.Token != "" {
		bot, err := notify.NewTelegramBot(cfg.Telegram.Token)
		if err != nil {
			return nil, err
		}
		channels = append(channels, notify.NewTelegramNotifier(bot, cfg.Telegram.ChatID, companyChat(store)))
	}
	if cfg.Slack.WebhookURL != "" {
		slack, err := notify.NewSlackNotifier(cfg.Slack.WebhookURL, cfg.Slack.Channel, companySlackChannel(store))
		if err != nil {
			return nil, err
		}
		channels = append(channels, slack)
	}

	return notify.NewChain(channels...), nil
}

// companyChat resolves a company's own Telegram chat, if it has one.
func companyChat(store *storage.SQLiteStorage) notify.ChatResolver {
	return func(ctx context.Context, companyID string) (int64, error) {
		company, err := store.GetCompany(ctx, companyID)
		if err != nil {
			return 0, err
		}
		return company.TelegramChatID, nil
	}
}

// companySlackChannel resolves a company's own Slack channel, if it has one.
func companySlackChannel(store *storage.SQLiteStorage) notify.ChannelResolver {
	return func(ctx context.Context, companyID string) (string, error) {
		company, err := store.GetCompany(ctx, companyID)
		if err != nil {
			return "", err
		}
		return company.SlackChannel, nil
	}
}

// app is everything a monitoring command needs.
type app struct {
	cfg     *config.Config
	store   *storage.SQLiteStorage
	history alert.HistoryStore
	metrics *observability.Metrics
	monitor *monitor.Monitor
	closers []func() error
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

// newApp wires providers, storage, the dispatcher and the monitor.
func newApp(ctx context.Context, reg prometheus.Registerer, dryRun bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	store, err := initStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, store: store, closers: []func() error{store.Close}}

	history, closeHistory, err := buildHistoryStore(ctx, cfg, store)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.history = history
	a.closers = append(a.closers, closeHistory)

	balances, err := buildBalanceProvider(cfg, store)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	payrolls, err := buildPayrollProvider(cfg, store)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	var notifier alert.Notifier = notify.NewLogNotifier()
	if !dryRun {
		if notifier, err = buildNotifier(cfg, store); err != nil {
			_ = a.Close()
			return nil, err
		}
	}

	a.metrics = observability.NewMetrics(reg)
	dispatcher := alert.NewDispatcher(history, notifier, alert.Policy{
		Cooldown:        cfg.Alerts.Cooldown,
		MaxAlertsPerDay: cfg.Alerts.MaxPerDay,
	}, alert.WithObserver(a.metrics))

	a.monitor = monitor.New(balances, payrolls, store,
		risk.NewAssessor(risk.WithSafetyMultiplier(cfg.Risk.SafetyMultiplier)),
		dispatcher, a.metrics, monitor.Options{
			MonthsAhead: cfg.Payroll.MonthsAhead,
			Concurrency: cfg.Scheduler.Concurrency,
			DryRun:      dryRun,
		})

	return a, nil
}

// parseDate accepts YYYY-MM-DD in UTC.
func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", s, err)
	}
	return t, nil
}
