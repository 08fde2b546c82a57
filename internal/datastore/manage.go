package datastore

import (
	"fmt"

	"github.com/camdex/camdex-go/internal/logging"
	"gorm.io/gorm"
)

// performAutoMigration runs GORM automigration for all record store tables.
func performAutoMigration(db *gorm.DB, debug bool, dbType, connectionInfo string) error {
	if err := db.AutoMigrate(&Camera{}, &ImageAttribution{}, &DiscoveryRun{}); err != nil {
		return fmt.Errorf("failed to auto-migrate %s database: %w", dbType, err)
	}

	if debug {
		logging.Debug("Database connection initialized",
			"type", dbType,
			"connection", connectionInfo)
	}
	return nil
}
