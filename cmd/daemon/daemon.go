// Package daemon provides the long-running pipeline command.
package daemon

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/camdex/camdex-go/internal/backup"
	"github.com/camdex/camdex-go/internal/conf"
	"github.com/camdex/camdex-go/internal/datastore"
	"github.com/camdex/camdex-go/internal/discovery"
	"github.com/camdex/camdex-go/internal/imageprovider"
	"github.com/camdex/camdex-go/internal/logging"
	"github.com/camdex/camdex-go/internal/scheduler"
)

// Command creates the daemon command that runs discovery and backups on a
// schedule until interrupted.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the discovery pipeline continuously",
		Long:  "Start the scheduler: periodic discovery passes, daily store backups, and quota resets at local midnight. Runs until SIGINT or SIGTERM.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(settings)
		},
	}
	return cmd
}

func runDaemon(settings *conf.Settings) error {
	store := datastore.New(settings)
	if store == nil {
		return fmt.Errorf("no record store is enabled in the configuration")
	}
	if err := store.Open(); err != nil {
		return fmt.Errorf("failed to open record store: %w", err)
	}
	defer closeStore(store)

	acquirer := imageprovider.NewAcquirer(settings)
	quota := discovery.NewDailyQuota(settings.Discovery.DailyQuota)
	engine := discovery.New(settings, store, acquirer, quota)
	backups := backup.NewManager(settings, store.StorePath())

	sched := scheduler.New(settings, engine, backups, quota)
	sched.Start()

	logger := logging.ForService("daemon")
	logger.Info("Pipeline daemon running",
		"store", store.StorePath(),
		"interval_hours", settings.Scheduler.IntervalHours)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	logger.Info("Shutdown signal received, stopping scheduler", "signal", sig.String())
	sched.Stop()
	return nil
}

func closeStore(store datastore.Interface) {
	if err := store.Close(); err != nil {
		logging.ForService("daemon").Error("Failed to close record store", "error", err)
	}
}
