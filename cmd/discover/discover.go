// Package discover provides the one-shot discovery pass command.
package discover

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/camdex/camdex-go/internal/conf"
	"github.com/camdex/camdex-go/internal/datastore"
	"github.com/camdex/camdex-go/internal/discovery"
	"github.com/camdex/camdex-go/internal/imageprovider"
)

// Command creates the discover command that runs exactly one discovery pass
// and prints its summary.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Run a single discovery pass",
		Long:  "Walk the seed catalog once, saving new cameras and their images until the daily quota is reached, then exit.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiscover(settings)
		},
	}
	return cmd
}

func runDiscover(settings *conf.Settings) error {
	store := datastore.New(settings)
	if store == nil {
		return fmt.Errorf("no record store is enabled in the configuration")
	}
	if err := store.Open(); err != nil {
		return fmt.Errorf("failed to open record store: %w", err)
	}
	defer func() {
		_ = store.Close()
	}()

	acquirer := imageprovider.NewAcquirer(settings)
	quota := discovery.NewDailyQuota(settings.Discovery.DailyQuota)
	engine := discovery.New(settings, store, acquirer, quota)

	// Ctrl+C finishes the current candidate and exits cleanly.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	run, err := engine.RunPass(ctx)
	if err != nil {
		return fmt.Errorf("discovery pass failed: %w", err)
	}

	fmt.Printf("Discovery pass %s finished: status=%s discovered=%d saved=%d errors=%d (%.1fs)\n",
		run.RunID, run.Status, run.CamerasDiscovered, run.CamerasSaved, run.ErrorCount, run.DurationSeconds)

	total, err := store.CountAll()
	if err == nil {
		fmt.Printf("Record store now holds %d cameras\n", total)
	}
	return nil
}
