package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run continuously on the configured interval",
		Long: "Runs the pipeline on the configured interval until interrupted. " +
			"SIGUSR1 triggers the next run immediately.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			lockPath := filepath.Join(cfg.Paths.DataDir, "airlog.lock")
			lock := flock.New(lockPath)
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire lock %s: %w", lockPath, err)
			}
			if !locked {
				return fmt.Errorf("another airlog watch is already running (lock %s)", lockPath)
			}
			defer func() { _ = lock.Unlock() }()

			orchestrator, runs, err := ctx.buildOrchestrator(cmd.Context())
			if err != nil {
				return err
			}
			defer runs.Close()

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			wake := make(chan os.Signal, 1)
			signal.Notify(wake, syscall.SIGUSR1)
			defer signal.Stop(wake)
			go func() {
				for range wake {
					orchestrator.TriggerNow()
				}
			}()

			err = orchestrator.Watch(runCtx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}
