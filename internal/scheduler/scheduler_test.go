package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/camdex/camdex-go/internal/backup"
	"github.com/camdex/camdex-go/internal/conf"
	"github.com/camdex/camdex-go/internal/datastore"
	"github.com/camdex/camdex-go/internal/discovery"
	"github.com/camdex/camdex-go/internal/imageprovider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSettings(t *testing.T) *conf.Settings {
	t.Helper()
	dir := t.TempDir()

	s := &conf.Settings{}
	s.Main.Name = "CamDex-Go"
	s.Output.SQLite.Enabled = true
	s.Output.SQLite.Path = filepath.Join(dir, "camdex.db")
	s.Output.ImageDir = filepath.Join(dir, "images")
	s.Output.ThumbDir = filepath.Join(dir, "images", "thumbs")
	s.Output.AttributionDir = filepath.Join(dir, "attributions")
	s.Discovery.DailyQuota = 50
	s.Discovery.CandidateDelayMs = 0
	s.Discovery.MaxRetries = 1
	s.ImageProvider.TimeoutSeconds = 2
	s.ImageProvider.MinDimension = 100
	s.ImageProvider.MaxDownloadBytes = 20 * 1024 * 1024
	s.ImageProvider.MaxImageWidth = 1200
	s.ImageProvider.ThumbWidth = 400
	s.ImageProvider.NegativeCacheTTL = 60
	s.Scheduler.IntervalHours = 1000 // far enough out that the ticker never fires
	s.Scheduler.BackupTime = "03:30"
	s.Backup.Enabled = true
	s.Backup.Path = filepath.Join(dir, "backups")
	s.Backup.Retain = 7
	return s
}

type noopAcquirer struct{}

func (noopAcquirer) Acquire(_ context.Context, _, _, slug string) imageprovider.Acquisition {
	return imageprovider.Acquisition{
		LocalImagePath: "images/" + slug + ".jpg",
		ThumbPath:      "images/thumbs/" + slug + "-thumb.jpg",
		SourceName:     "generated",
		License:        imageprovider.LicensePlaceholder,
		Source:         datastore.ImageSourcePlaceholder,
	}
}

func newTestScheduler(t *testing.T, settings *conf.Settings) (*Scheduler, datastore.Interface) {
	t.Helper()

	store := datastore.New(settings)
	require.NotNil(t, store)
	require.NoError(t, store.Open())
	t.Cleanup(func() {
		_ = store.Close()
	})

	quota := discovery.NewDailyQuota(settings.Discovery.DailyQuota)
	engine := discovery.New(settings, store, noopAcquirer{}, quota)
	engine.SetCandidateSource(func() []discovery.Candidate {
		return []discovery.Candidate{{Brand: "Canon", Model: "EOS R5", Category: "mirrorless"}}
	})

	backups := backup.NewManager(settings, store.StorePath())
	return New(settings, engine, backups, quota), store
}

func TestStartStopIdempotent(t *testing.T) {
	settings := testSettings(t)
	settings.Scheduler.RunAtStart = false
	s, _ := newTestScheduler(t, settings)

	assert.False(t, s.IsRunning())

	s.Start()
	s.Start() // second Start is a no-op
	assert.True(t, s.IsRunning())

	s.Stop()
	s.Stop() // second Stop is a no-op
	assert.False(t, s.IsRunning())
}

func TestRunAtStartTriggersPass(t *testing.T) {
	settings := testSettings(t)
	settings.Scheduler.RunAtStart = true
	s, store := newTestScheduler(t, settings)

	s.Start()
	defer s.Stop()

	require.Eventually(t, func() bool {
		last, err := store.GetLastRun()
		return err == nil && last != nil && last.FinishedAt != nil
	}, 10*time.Second, 50*time.Millisecond, "startup pass must record a run")

	last, err := store.GetLastRun()
	require.NoError(t, err)
	assert.Equal(t, datastore.RunStatusSuccess, last.Status)
	assert.Equal(t, 1, last.CamerasSaved)
}

func TestStopWaitsForInFlightWork(t *testing.T) {
	settings := testSettings(t)
	settings.Scheduler.RunAtStart = true
	s, store := newTestScheduler(t, settings)

	s.Start()
	s.Stop()

	// After Stop returns, nothing may still be writing. The run row, if the
	// pass got far enough to start, must be finalized.
	last, err := store.GetLastRun()
	require.NoError(t, err)
	if last != nil {
		assert.NotNil(t, last.FinishedAt, "in-flight pass must complete before Stop returns")
	}
}

func TestNextBackupTime(t *testing.T) {
	t.Parallel()
	settings := testSettings(t)
	s := &Scheduler{settings: settings}

	loc := time.Local
	before := time.Date(2026, 8, 28, 2, 0, 0, 0, loc)
	next := s.nextBackupTime(before)
	assert.Equal(t, time.Date(2026, 8, 28, 3, 30, 0, 0, loc), next)

	after := time.Date(2026, 8, 28, 4, 0, 0, 0, loc)
	next = s.nextBackupTime(after)
	assert.Equal(t, time.Date(2026, 8, 29, 3, 30, 0, 0, loc), next)

	// Exactly at the slot: strictly after, so the next day.
	at := time.Date(2026, 8, 28, 3, 30, 0, 0, loc)
	next = s.nextBackupTime(at)
	assert.Equal(t, time.Date(2026, 8, 29, 3, 30, 0, 0, loc), next)
}

func TestNextBackupTimeInvalidFallsBack(t *testing.T) {
	t.Parallel()
	settings := testSettings(t)
	settings.Scheduler.BackupTime = "not-a-time"
	s := &Scheduler{settings: settings}

	now := time.Date(2026, 8, 28, 1, 0, 0, 0, time.Local)
	next := s.nextBackupTime(now)
	assert.Equal(t, 3, next.Hour())
	assert.Equal(t, 30, next.Minute())
}

func TestTriggerBackupDisabled(t *testing.T) {
	settings := testSettings(t)
	settings.Backup.Enabled = false
	s, _ := newTestScheduler(t, settings)

	s.triggerBackup()

	_, err := os.ReadDir(settings.Backup.Path)
	assert.True(t, os.IsNotExist(err), "disabled backups must not create the backup directory")
}
