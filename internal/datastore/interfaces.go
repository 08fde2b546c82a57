// interfaces.go: this code defines the interface for the record store operations
package datastore

import (
	"fmt"
	"strings"
	"time"

	"github.com/camdex/camdex-go/internal/conf"
	"github.com/camdex/camdex-go/internal/errors"
	"github.com/camdex/camdex-go/internal/slugify"
	"gorm.io/gorm"
)

// Interface abstracts the underlying database implementation and defines the
// operations the discovery pipeline needs from the record store.
type Interface interface {
	Open() error
	Close() error

	// Camera records
	Exists(brand, model string) (bool, error)
	SlugExists(slug string) (bool, error)
	GetBySlug(slug string) (*Camera, error)
	Upsert(camera *Camera) (uint, error)
	UpdateImageFields(id uint, update ImageFieldsUpdate) error
	CountAll() (int64, error)
	ListNeedingImages(limit int) ([]Camera, error)

	// Attribution records
	SaveAttribution(attribution *ImageAttribution) error

	// Discovery run audit trail
	SaveRun(run *DiscoveryRun) error
	FinalizeRun(run *DiscoveryRun) error
	GetLastRun() (*DiscoveryRun, error)

	// StorePath returns the path of the backing store file, used by the
	// backup manager. Empty for stores without a single backing file.
	StorePath() string
}

// ImageFieldsUpdate is the narrow update applied by the image acquisition
// path. It deliberately touches only image columns so it cannot clobber
// spec fields updated concurrently by a discovery pass.
type ImageFieldsUpdate struct {
	ImageURL         string
	LocalImagePath   string
	ThumbPath        string
	ImageAttribution string
	ImageSource      string
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB *gorm.DB // GORM database instance
}

// New creates a new store instance based on the provided configuration.
func New(settings *conf.Settings) Interface {
	switch {
	case settings.Output.SQLite.Enabled:
		return &SQLiteStore{
			Settings: settings,
		}
	default:
		return nil
	}
}

// Exists reports whether a camera with the exact (brand, model) pair is
// already stored. The pair is backed by a unique composite index so the
// lookup stays indexed as the catalog grows.
func (ds *DataStore) Exists(brand, model string) (bool, error) {
	var count int64
	err := ds.DB.Model(&Camera{}).
		Where("brand = ? AND model = ?", brand, model).
		Count(&count).Error
	if err != nil {
		return false, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "exists").
			Context("brand", brand).
			Context("model", model).
			Build()
	}
	return count > 0, nil
}

// SlugExists reports whether a slug is already assigned.
func (ds *DataStore) SlugExists(slug string) (bool, error) {
	var count int64
	if err := ds.DB.Model(&Camera{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return false, fmt.Errorf("checking slug %q: %w", slug, err)
	}
	return count > 0, nil
}

// GetBySlug retrieves a camera by its slug.
func (ds *DataStore) GetBySlug(slug string) (*Camera, error) {
	var camera Camera
	if err := ds.DB.Where("slug = ?", slug).First(&camera).Error; err != nil {
		return nil, fmt.Errorf("getting camera with slug %q: %w", slug, err)
	}
	return &camera, nil
}

// Upsert inserts a new camera or partially updates an existing one matched
// by (brand, model). Only non-zero supplied fields overwrite existing
// values; a discovery pass that lacks a field never nulls out known data.
// Slugs are derived at insert time and never recomputed afterwards.
func (ds *DataStore) Upsert(camera *Camera) (uint, error) {
	var existing Camera
	err := ds.DB.Where("brand = ? AND model = ?", camera.Brand, camera.Model).
		First(&existing).Error

	switch {
	case err == nil:
		update := *camera
		update.ID = 0
		update.Slug = "" // slugs are immutable once assigned
		update.CreatedAt = time.Time{}
		if err := ds.DB.Model(&existing).Updates(update).Error; err != nil {
			return 0, errors.New(err).
				Component("datastore").
				Category(errors.CategoryDatabase).
				Context("operation", "upsert-update").
				Context("brand", camera.Brand).
				Context("model", camera.Model).
				Build()
		}
		camera.ID = existing.ID
		camera.Slug = existing.Slug
		return existing.ID, nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		return ds.insert(camera)

	default:
		return 0, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "upsert-lookup").
			Context("brand", camera.Brand).
			Context("model", camera.Model).
			Build()
	}
}

func (ds *DataStore) insert(camera *Camera) (uint, error) {
	candidate := slugify.Slugify(camera.Brand, camera.Model)
	camera.Slug = slugify.ResolveUnique(candidate, func(s string) bool {
		taken, err := ds.SlugExists(s)
		return err == nil && taken
	})

	if err := ds.DB.Create(camera).Error; err != nil {
		if !isUniqueConstraintError(err) {
			return 0, errors.New(err).
				Component("datastore").
				Category(errors.CategoryDatabase).
				Context("operation", "insert").
				Context("brand", camera.Brand).
				Context("model", camera.Model).
				Build()
		}
		// Slug raced with a concurrent insert; re-resolve once and retry.
		camera.ID = 0
		camera.Slug = slugify.ResolveUnique(camera.Slug, func(s string) bool {
			taken, err := ds.SlugExists(s)
			return err == nil && taken
		})
		if err := ds.DB.Create(camera).Error; err != nil {
			return 0, errors.New(err).
				Component("datastore").
				Category(errors.CategoryDatabase).
				Context("operation", "insert-retry").
				Context("slug", camera.Slug).
				Build()
		}
	}
	return camera.ID, nil
}

// UpdateImageFields applies the narrow image-column update for one camera.
func (ds *DataStore) UpdateImageFields(id uint, update ImageFieldsUpdate) error {
	err := ds.DB.Model(&Camera{}).Where("id = ?", id).Updates(map[string]any{
		"image_url":         update.ImageURL,
		"local_image_path":  update.LocalImagePath,
		"thumb_path":        update.ThumbPath,
		"image_attribution": update.ImageAttribution,
		"image_source":      update.ImageSource,
	}).Error
	if err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "update-image-fields").
			Context("camera_id", id).
			Build()
	}
	return nil
}

// CountAll returns the number of stored cameras.
func (ds *DataStore) CountAll() (int64, error) {
	var count int64
	if err := ds.DB.Model(&Camera{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("counting cameras: %w", err)
	}
	return count, nil
}

// ListNeedingImages returns cameras whose image is missing or still a
// generated placeholder, oldest first. Drives the image backfill pass.
func (ds *DataStore) ListNeedingImages(limit int) ([]Camera, error) {
	var cameras []Camera
	err := ds.DB.
		Where("local_image_path IS NULL OR local_image_path = '' OR image_source = ?", ImageSourcePlaceholder).
		Order("id asc").
		Limit(limit).
		Find(&cameras).Error
	if err != nil {
		return nil, fmt.Errorf("listing cameras needing images: %w", err)
	}
	return cameras, nil
}

// SaveAttribution stores one immutable attribution record.
func (ds *DataStore) SaveAttribution(attribution *ImageAttribution) error {
	if attribution.DownloadedAt.IsZero() {
		attribution.DownloadedAt = time.Now()
	}
	if err := ds.DB.Create(attribution).Error; err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "save-attribution").
			Context("camera_id", attribution.CameraID).
			Build()
	}
	return nil
}

// SaveRun creates the audit row for a discovery pass at run start.
func (ds *DataStore) SaveRun(run *DiscoveryRun) error {
	if err := ds.DB.Create(run).Error; err != nil {
		return fmt.Errorf("saving discovery run %s: %w", run.RunID, err)
	}
	return nil
}

// FinalizeRun persists the end-of-run counters and status.
func (ds *DataStore) FinalizeRun(run *DiscoveryRun) error {
	err := ds.DB.Model(&DiscoveryRun{}).Where("run_id = ?", run.RunID).Updates(map[string]any{
		"finished_at":        run.FinishedAt,
		"cameras_discovered": run.CamerasDiscovered,
		"cameras_saved":      run.CamerasSaved,
		"error_count":        run.ErrorCount,
		"duration_seconds":   run.DurationSeconds,
		"status":             run.Status,
	}).Error
	if err != nil {
		return fmt.Errorf("finalizing discovery run %s: %w", run.RunID, err)
	}
	return nil
}

// GetLastRun returns the most recently started discovery run, or nil when
// no run has been recorded yet.
func (ds *DataStore) GetLastRun() (*DiscoveryRun, error) {
	var run DiscoveryRun
	err := ds.DB.Order("started_at desc").First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting last discovery run: %w", err)
	}
	return &run, nil
}

// isUniqueConstraintError reports whether err is a uniqueness violation.
// SQLite reports these as "UNIQUE constraint failed: table.column".
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "constraint failed")
}
