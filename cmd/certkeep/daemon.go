package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/certkeep/certkeep/pkg/events"
	"github.com/certkeep/certkeep/pkg/log"
	"github.com/certkeep/certkeep/pkg/metrics"
	"github.com/certkeep/certkeep/pkg/store"
	"github.com/certkeep/certkeep/pkg/types"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the certkeep event loop",
	Long: `Run certkeep as a long-lived daemon.

The daemon handles lifecycle events sequentially: installation on first
start, configuration reloads on SIGHUP, and a periodic update-status
cycle that picks up pending certificate requests and renewal signals
set by the cron job.`,
	RunE: runDaemon,
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, configPath, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	st, err := store.NewBoltStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	metrics.Register()
	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.StartServer(cfg.MetricsAddr); err != nil {
				log.Errorf("metrics server failed", err)
			}
		}()
	}

	coord := buildCoordinator(cfg, configPath, st)

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Single consumer: events are handled to completion, one at a
	// time, in publish order.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case ev := <-sub:
				if err := coord.Dispatch(ctx, ev); err != nil {
					log.Logger.Error().Err(err).Str("event", string(ev.Type)).Msg("event handler failed")
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	// First activation installs the client and opens the ports; it is
	// a no-op on every later start.
	broker.Emit(types.EventInstall)
	broker.Emit(types.EventUpdateStatus)

	ticker := time.NewTicker(cfg.CycleInterval)
	defer ticker.Stop()

	hupCh := make(chan os.Signal, 1)
	signal.Notify(hupCh, syscall.SIGHUP)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	log.Logger.Info().Str("config", configPath).Dur("cycle_interval", cfg.CycleInterval).Msg("daemon started")

	for {
		select {
		case <-ticker.C:
			broker.Emit(types.EventUpdateStatus)
		case <-hupCh:
			log.Info("reloading configuration")
			broker.Emit(types.EventConfigChanged)
		case <-sigCh:
			log.Info("shutting down")
			cancel()
			<-done
			return nil
		}
	}
}
