package datastore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *DataStore {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, performAutoMigration(db, false, "SQLite", path))

	return &DataStore{DB: db}
}

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }

func TestUpsertInsertAndExists(t *testing.T) {
	t.Parallel()
	ds := newTestStore(t)

	cam := &Camera{Brand: "Canon", Model: "EOS R5", Category: "mirrorless"}
	id, err := ds.Upsert(cam)
	require.NoError(t, err)
	assert.NotZero(t, id)
	assert.Equal(t, "canon-eos-r5", cam.Slug)

	exists, err := ds.Exists("Canon", "EOS R5")
	require.NoError(t, err)
	assert.True(t, exists)

	// Exact match is case-sensitive by contract; a different brand casing
	// is a different candidate.
	exists, err = ds.Exists("Nikon", "EOS R5")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUpsertSlugCollision(t *testing.T) {
	t.Parallel()
	ds := newTestStore(t)

	first := &Camera{Brand: "Acme", Model: "Cam 1"}
	_, err := ds.Upsert(first)
	require.NoError(t, err)

	// Slugs identically to "acme-cam-1" but is a distinct (brand, model).
	second := &Camera{Brand: "Acme", Model: "Cam-1"}
	_, err = ds.Upsert(second)
	require.NoError(t, err)

	assert.Equal(t, "acme-cam-1", first.Slug)
	assert.Equal(t, "acme-cam-1-2", second.Slug)

	count, err := ds.CountAll()
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestUpsertPartialUpdatePreservesKnownFields(t *testing.T) {
	t.Parallel()
	ds := newTestStore(t)

	full := &Camera{
		Brand:    "Sony",
		Model:    "A7 IV",
		Category: "mirrorless",
		Sensor:   SensorSpecs{Megapixels: floatPtr(33.0), ISOMax: intPtr(51200)},
	}
	id, err := ds.Upsert(full)
	require.NoError(t, err)

	// A later pass that only knows about the image URL must not null out
	// previously stored sensor data.
	sparse := &Camera{Brand: "Sony", Model: "A7 IV", ImageURL: "https://example.com/a7iv.jpg"}
	sparseID, err := ds.Upsert(sparse)
	require.NoError(t, err)
	assert.Equal(t, id, sparseID)

	stored, err := ds.GetBySlug("sony-a7-iv")
	require.NoError(t, err)
	require.NotNil(t, stored.Sensor.Megapixels)
	assert.InDelta(t, 33.0, *stored.Sensor.Megapixels, 0.001)
	assert.Equal(t, "https://example.com/a7iv.jpg", stored.ImageURL)

	count, err := ds.CountAll()
	require.NoError(t, err)
	assert.EqualValues(t, 1, count, "upsert must never duplicate a (brand, model) pair")
}

func TestUpsertDoesNotRecomputeSlug(t *testing.T) {
	t.Parallel()
	ds := newTestStore(t)

	cam := &Camera{Brand: "Nikon", Model: "Z8"}
	_, err := ds.Upsert(cam)
	require.NoError(t, err)
	originalSlug := cam.Slug

	again := &Camera{Brand: "Nikon", Model: "Z8", FullName: "Nikon Z8 Body"}
	_, err = ds.Upsert(again)
	require.NoError(t, err)

	stored, err := ds.GetBySlug(originalSlug)
	require.NoError(t, err)
	assert.Equal(t, originalSlug, stored.Slug)
	assert.Equal(t, "Nikon Z8 Body", stored.FullName)
}

func TestUpdateImageFieldsIsNarrow(t *testing.T) {
	t.Parallel()
	ds := newTestStore(t)

	cam := &Camera{
		Brand:  "Fujifilm",
		Model:  "X-T5",
		Sensor: SensorSpecs{Megapixels: floatPtr(40.2)},
	}
	id, err := ds.Upsert(cam)
	require.NoError(t, err)

	err = ds.UpdateImageFields(id, ImageFieldsUpdate{
		ImageURL:         "https://example.com/xt5.jpg",
		LocalImagePath:   "images/fujifilm-x-t5.jpg",
		ThumbPath:        "images/thumbs/fujifilm-x-t5-thumb.jpg",
		ImageAttribution: "Photo via Example Retail — Fair Use — Educational",
		ImageSource:      ImageSourceReal,
	})
	require.NoError(t, err)

	stored, err := ds.GetBySlug("fujifilm-x-t5")
	require.NoError(t, err)
	assert.Equal(t, "images/fujifilm-x-t5.jpg", stored.LocalImagePath)
	assert.Equal(t, ImageSourceReal, stored.ImageSource)
	require.NotNil(t, stored.Sensor.Megapixels, "image update must not touch spec columns")
	assert.InDelta(t, 40.2, *stored.Sensor.Megapixels, 0.001)
}

func TestListNeedingImages(t *testing.T) {
	t.Parallel()
	ds := newTestStore(t)

	noImage := &Camera{Brand: "Leica", Model: "M11"}
	_, err := ds.Upsert(noImage)
	require.NoError(t, err)

	placeholder := &Camera{Brand: "Leica", Model: "Q3"}
	phID, err := ds.Upsert(placeholder)
	require.NoError(t, err)
	require.NoError(t, ds.UpdateImageFields(phID, ImageFieldsUpdate{
		LocalImagePath: "images/leica-q3.jpg",
		ThumbPath:      "images/thumbs/leica-q3-thumb.jpg",
		ImageSource:    ImageSourcePlaceholder,
	}))

	real := &Camera{Brand: "Leica", Model: "SL3"}
	realID, err := ds.Upsert(real)
	require.NoError(t, err)
	require.NoError(t, ds.UpdateImageFields(realID, ImageFieldsUpdate{
		LocalImagePath: "images/leica-sl3.jpg",
		ThumbPath:      "images/thumbs/leica-sl3-thumb.jpg",
		ImageSource:    ImageSourceReal,
	}))

	needing, err := ds.ListNeedingImages(10)
	require.NoError(t, err)
	require.Len(t, needing, 2)
	slugs := []string{needing[0].Slug, needing[1].Slug}
	assert.Contains(t, slugs, "leica-m11")
	assert.Contains(t, slugs, "leica-q3")
}

func TestAttributionLifecycle(t *testing.T) {
	t.Parallel()
	ds := newTestStore(t)

	cam := &Camera{Brand: "Canon", Model: "EOS R6"}
	id, err := ds.Upsert(cam)
	require.NoError(t, err)

	attr := &ImageAttribution{
		CameraID:   id,
		SourceName: "archive",
		SourceURL:  "https://commons.example.org/canon-eos-r6",
		ImageURL:   "https://commons.example.org/canon-eos-r6.jpg",
		License:    "CC BY-SA",
	}
	require.NoError(t, ds.SaveAttribution(attr))
	assert.False(t, attr.DownloadedAt.IsZero(), "DownloadedAt defaults to now")
}

func TestDiscoveryRunLifecycle(t *testing.T) {
	t.Parallel()
	ds := newTestStore(t)

	run := &DiscoveryRun{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		Status:    RunStatusPartial,
	}
	require.NoError(t, ds.SaveRun(run))

	finished := time.Now()
	run.FinishedAt = &finished
	run.CamerasDiscovered = 12
	run.CamerasSaved = 10
	run.ErrorCount = 2
	run.DurationSeconds = 42.5
	run.Status = RunStatusSuccess
	require.NoError(t, ds.FinalizeRun(run))

	last, err := ds.GetLastRun()
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, run.RunID, last.RunID)
	assert.Equal(t, 10, last.CamerasSaved)
	assert.Equal(t, RunStatusSuccess, last.Status)
}

func TestGetLastRunEmpty(t *testing.T) {
	t.Parallel()
	ds := newTestStore(t)

	last, err := ds.GetLastRun()
	require.NoError(t, err)
	assert.Nil(t, last)
}
