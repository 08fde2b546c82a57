// Package images provides the image backfill command.
package images

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/camdex/camdex-go/internal/conf"
	"github.com/camdex/camdex-go/internal/datastore"
	"github.com/camdex/camdex-go/internal/imageprovider"
)

// Command creates the images command that retries image acquisition for
// cameras still missing a real photograph.
func Command(settings *conf.Settings) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "images",
		Short: "Backfill missing or placeholder camera images",
		Long:  "Walk stored cameras whose image is missing or still a generated placeholder and retry acquisition through the provider chain.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackfill(settings, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of cameras to process")
	return cmd
}

func runBackfill(settings *conf.Settings, limit int) error {
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

	cameras, err := store.ListNeedingImages(limit)
	if err != nil {
		return fmt.Errorf("failed to list cameras needing images: %w", err)
	}
	if len(cameras) == 0 {
		fmt.Println("All stored cameras already have real images")
		return nil
	}

	acquirer := imageprovider.NewAcquirer(settings)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	upgraded := 0
	for i := range cameras {
		cam := &cameras[i]
		if ctx.Err() != nil {
			break
		}

		acquisition := acquirer.Acquire(ctx, cam.Brand, cam.Model, cam.Slug)
		if err := store.UpdateImageFields(cam.ID, datastore.ImageFieldsUpdate{
			ImageURL:         acquisition.ImageURL,
			LocalImagePath:   acquisition.LocalImagePath,
			ThumbPath:        acquisition.ThumbPath,
			ImageAttribution: acquisition.Attribution,
			ImageSource:      acquisition.Source,
		}); err != nil {
			fmt.Printf("  %s: failed to record image fields: %v\n", cam.Slug, err)
			continue
		}

		if acquisition.Source == datastore.ImageSourceReal {
			upgraded++
			if err := store.SaveAttribution(&datastore.ImageAttribution{
				CameraID:   cam.ID,
				SourceName: acquisition.SourceName,
				SourceURL:  acquisition.SourceURL,
				ImageURL:   acquisition.ImageURL,
				License:    acquisition.License,
			}); err != nil {
				fmt.Printf("  %s: failed to record attribution: %v\n", cam.Slug, err)
			}
			fmt.Printf("  %s: real image acquired from %s\n", cam.Slug, acquisition.SourceName)
		}

		// Politeness delay between cameras that caused source traffic.
		select {
		case <-ctx.Done():
		case <-time.After(time.Duration(settings.Discovery.CandidateDelayMs) * time.Millisecond):
		}
	}

	fmt.Printf("Processed %d cameras, %d upgraded to real images\n", len(cameras), upgraded)
	return nil
}
