package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harun/flowmind/internal/metrics"
	"github.com/harun/flowmind/internal/server"
	"github.com/harun/flowmind/pkg/atoms"
	"github.com/harun/flowmind/pkg/executor"
	"github.com/harun/flowmind/pkg/history"
	"github.com/harun/flowmind/pkg/schedule"
	"github.com/harun/flowmind/pkg/validator"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the flowmind HTTP server",
	Long: `Run the flowmind HTTP server. It exposes plan generation, validation,
execution, the atom catalog, run history, and a WebSocket run stream.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()
	zl := a.log.GetZerolog()

	// Catalog reloads swap the registry pointer; readers always see a
	// complete snapshot.
	var registry atomic.Pointer[atoms.Registry]
	registry.Store(a.registry)

	if a.cfg.WatchAtoms {
		loader := atoms.NewLoader(a.cfg.AtomsDir, zl)
		watcher, err := atoms.NewWatcher(loader, func(reloaded *atoms.Registry) {
			registry.Store(reloaded)
		}, zl)
		if err != nil {
			zl.Warn().Err(err).Msg("Atom catalog watching disabled")
		} else if err := watcher.Start(); err != nil {
			zl.Warn().Err(err).Msg("Atom catalog watching disabled")
		} else {
			defer watcher.Stop()
		}
	}

	var store *history.Store
	if a.cfg.History.Enabled {
		store, err = history.Open(a.cfg.History.Path, zl)
		if err != nil {
			return fmt.Errorf("failed to open run history: %w", err)
		}
		defer store.Close()
	}

	mets := metrics.NewMetrics()

	sched := schedule.New(scheduledRun(&registry, a.executor, store, mets), zl)
	sched.Start()
	defer sched.Stop()

	srv, err := server.New(
		server.Options{Host: a.cfg.Server.Host, Port: a.cfg.Server.Port},
		registry.Load,
		a.planner,
		a.executor,
		store,
		sched,
		mets,
		zl,
	)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		zl.Info().Str("signal", sig.String()).Msg("Shutting down")
		return srv.Stop()
	}
}

// scheduledRun is the pipeline behind recurring plans: validate, execute, and
// record when history is enabled.
func scheduledRun(registry *atomic.Pointer[atoms.Registry], exec *executor.Executor, store *history.Store, mets *metrics.Metrics) schedule.RunFunc {
	return func(ctx context.Context, doc map[string]any) error {
		reg := registry.Load()
		verdict, err := validator.Validate(doc, reg)
		if err != nil {
			return err
		}
		result, err := exec.Execute(ctx, doc, verdict, reg)
		if err != nil {
			return err
		}
		if mets != nil {
			status := "failure"
			if result.Success {
				status = "success"
			}
			mets.ScheduledRunsTotal.WithLabelValues(status).Inc()
		}
		if store != nil {
			if _, err := store.Record(ctx, doc, verdict, result); err != nil {
				return err
			}
		}
		if !result.Success {
			for _, sr := range result.StepResults {
				if sr.Status == executor.StatusFailed {
					return fmt.Errorf("step %s failed: %s", sr.StepID, sr.Error)
				}
			}
			return fmt.Errorf("run failed: %s", result.Error)
		}
		return nil
	}
}
