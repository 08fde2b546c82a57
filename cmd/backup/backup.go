// Package backup provides the manual backup command.
package backup

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/camdex/camdex-go/internal/backup"
	"github.com/camdex/camdex-go/internal/conf"
)

// Command creates and returns the backup command
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Perform an immediate backup of the record store",
		Long:  "Create a timestamped snapshot of the SQLite record store and prune snapshots beyond the retention count.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackup(settings)
		},
	}
	return cmd
}

func runBackup(settings *conf.Settings) error {
	if !settings.Backup.Enabled {
		return fmt.Errorf("backup functionality is not enabled in configuration")
	}
	if !settings.Output.SQLite.Enabled {
		return fmt.Errorf("no SQLite record store is enabled, nothing to back up")
	}

	manager := backup.NewManager(settings, settings.Output.SQLite.Path)
	path, err := manager.SnapshotAndPrune()
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}

	fmt.Printf("Backup completed successfully: %s\n", path)
	return nil
}
