package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/payroll-sentinel/internal/api"
	"github.com/Veraticus/payroll-sentinel/internal/scheduler"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the scheduled checks",
		RunE:  runServe,
	}

	cmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
	cmd.Flags().Bool("no-scheduler", false, "Serve the API without scheduled checks")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, prometheus.DefaultRegisterer, false)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = a.cfg.Server.Addr
	}
	noScheduler, _ := cmd.Flags().GetBool("no-scheduler")

	server := api.NewServer(a.store, a.monitor,
		api.WithSafetyMultiplier(a.cfg.Risk.SafetyMultiplier),
		api.WithMetrics(prometheus.DefaultGatherer))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(gctx, addr)
	})

	if !noScheduler {
		sched, err := scheduler.New(a.cfg.Scheduler.Spec, a.cfg.Scheduler.Timeout, func(ctx context.Context) error {
			_, err := a.monitor.CheckAll(ctx, nil)
			return err
		})
		if err != nil {
			return err
		}

		if a.cfg.Scheduler.RunOnStart {
			g.Go(func() error {
				// Failures are logged by the scheduler; the next tick retries.
				_ = sched.RunNow(gctx)
				return nil
			})
		}
		sched.Start()

		g.Go(func() error {
			<-gctx.Done()
			stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			return sched.Stop(stopCtx)
		})
	}

	slog.Info("Payroll sentinel running", "addr", addr, "scheduler", !noScheduler)
	if err := g.Wait(); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
