// Package scheduler drives periodic discovery passes and daily store
// backups from a single goroutine, resetting the daily quota at local
// calendar date changes.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/camdex/camdex-go/internal/backup"
	"github.com/camdex/camdex-go/internal/conf"
	"github.com/camdex/camdex-go/internal/discovery"
	"github.com/camdex/camdex-go/internal/errors"
	"github.com/camdex/camdex-go/internal/logging"
)

// Scheduler manages the discovery interval and the daily backup slot.
type Scheduler struct {
	settings *conf.Settings
	engine   *discovery.Engine
	backups  *backup.Manager
	quota    *discovery.DailyQuota

	isRunning bool
	cancel    context.CancelFunc
	mu        sync.RWMutex
	wg        sync.WaitGroup
	logger    *slog.Logger
}

// New creates a scheduler around the discovery engine and backup manager.
func New(settings *conf.Settings, engine *discovery.Engine, backups *backup.Manager, quota *discovery.DailyQuota) *Scheduler {
	return &Scheduler{
		settings: settings,
		engine:   engine,
		backups:  backups,
		quota:    quota,
		logger:   logging.ForService("scheduler"),
	}
}

// Start begins the scheduler loop. Calling Start on a running scheduler is
// a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.isRunning = true

	s.wg.Add(1)
	go s.run(ctx)
	s.logger.Info("Scheduler started",
		"interval_hours", s.settings.Scheduler.IntervalHours,
		"backup_time", s.settings.Scheduler.BackupTime)
}

// Stop cancels the scheduler and waits for the in-flight work to finish so
// the current candidate's write completes before the process exits.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.cancel()
	s.isRunning = false
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("Scheduler stopped")
}

// IsRunning reports whether the scheduler loop is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// run is the main scheduler loop.
func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	if s.settings.Scheduler.RunAtStart {
		s.triggerDiscovery(ctx)
	}

	interval := time.Duration(s.settings.Scheduler.IntervalHours) * time.Hour
	discoveryTicker := time.NewTicker(interval)
	defer discoveryTicker.Stop()

	backupTimer := time.NewTimer(time.Until(s.nextBackupTime(time.Now())))
	defer backupTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-discoveryTicker.C:
			s.triggerDiscovery(ctx)
		case <-backupTimer.C:
			// Backups read the store file at the OS level and may overlap
			// a discovery pass; only discovery runs are mutually exclusive.
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				s.triggerBackup()
			}()
			backupTimer.Reset(time.Until(s.nextBackupTime(time.Now())))
		}
	}
}

// triggerDiscovery runs one discovery pass. Overlapping triggers are
// dropped by the engine's run guard; quota day-boundary resets happen
// before the pass starts.
func (s *Scheduler) triggerDiscovery(ctx context.Context) {
	s.quota.CheckReset()

	run, err := s.engine.RunPass(ctx)
	if err != nil {
		if errors.Is(err, discovery.ErrAlreadyRunning) {
			s.logger.Warn("Scheduled discovery skipped, previous pass still running")
			return
		}
		s.logger.Error("Discovery pass failed", "error", err)
		return
	}
	s.logger.Info("Scheduled discovery pass completed",
		"run_id", run.RunID,
		"status", run.Status,
		"saved", run.CamerasSaved)
}

func (s *Scheduler) triggerBackup() {
	if !s.settings.Backup.Enabled {
		return
	}
	path, err := s.backups.SnapshotAndPrune()
	if err != nil {
		s.logger.Error("Scheduled backup failed", "error", err)
		return
	}
	s.logger.Info("Scheduled backup completed", "path", path)
}

// nextBackupTime returns the next occurrence of the configured HH:MM in
// local time, strictly after now.
func (s *Scheduler) nextBackupTime(now time.Time) time.Time {
	hour, minute, err := conf.ParseBackupTime(s.settings.Scheduler.BackupTime)
	if err != nil {
		// Validated at startup; fall back to 03:30 if somehow mutated.
		hour, minute = 3, 30
	}

	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
