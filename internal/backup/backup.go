// Package backup produces timestamped snapshots of the record store file
// and prunes old snapshots beyond a retention count.
package backup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/camdex/camdex-go/internal/conf"
	"github.com/camdex/camdex-go/internal/errors"
	"github.com/camdex/camdex-go/internal/logging"
)

const (
	snapshotPrefix = "camdex-backup-"
	snapshotSuffix = ".db"
)

// Manager copies the store file into the backup directory and enforces the
// retention policy.
type Manager struct {
	storePath string
	backupDir string
	retain    int
	logger    interface {
		Info(msg string, args ...any)
		Warn(msg string, args ...any)
	}

	// now is replaceable in tests.
	now func() time.Time
}

// NewManager creates a backup manager for the given store file.
func NewManager(settings *conf.Settings, storePath string) *Manager {
	return &Manager{
		storePath: storePath,
		backupDir: settings.Backup.Path,
		retain:    settings.Backup.Retain,
		logger:    logging.ForService("backup"),
		now:       time.Now,
	}
}

// Snapshot copies the current store file to a timestamped path under the
// backup directory and returns the snapshot path. The copy goes through a
// temp file and rename so a crash never leaves a truncated snapshot that
// looks complete.
func (m *Manager) Snapshot() (string, error) {
	if err := os.MkdirAll(m.backupDir, 0o755); err != nil {
		return "", errors.New(err).
			Component("backup").
			Category(errors.CategoryFileIO).
			Context("dir", m.backupDir).
			Build()
	}

	// Unix milliseconds sort lexicographically in chronological order at
	// fixed width, which Prune relies on.
	name := fmt.Sprintf("%s%d%s", snapshotPrefix, m.now().UnixMilli(), snapshotSuffix)
	dst := filepath.Join(m.backupDir, name)

	if err := copyFile(m.storePath, dst); err != nil {
		return "", errors.New(err).
			Component("backup").
			Category(errors.CategoryBackup).
			Context("source", m.storePath).
			Context("destination", dst).
			Build()
	}

	m.logger.Info("Store snapshot written", "path", dst)
	return dst, nil
}

// Prune deletes the oldest snapshots beyond retain, sorted by the embedded
// timestamp. It never removes the last remaining snapshot, even when
// retain is misconfigured to zero.
func (m *Manager) Prune(retain int) error {
	if retain < 1 {
		m.logger.Warn("Backup retention below 1, keeping one snapshot", "configured", retain)
		retain = 1
	}

	snapshots, err := m.listSnapshots()
	if err != nil {
		return err
	}
	if len(snapshots) <= retain {
		return nil
	}

	// Oldest first; everything before the retention window goes.
	for _, victim := range snapshots[:len(snapshots)-retain] {
		if err := os.Remove(victim); err != nil {
			m.logger.Warn("Failed to remove old snapshot", "path", victim, "error", err)
			continue
		}
		m.logger.Info("Pruned old snapshot", "path", victim)
	}
	return nil
}

// SnapshotAndPrune runs a snapshot followed by retention pruning, the
// combination the scheduler triggers daily.
func (m *Manager) SnapshotAndPrune() (string, error) {
	path, err := m.Snapshot()
	if err != nil {
		return "", err
	}
	if err := m.Prune(m.retain); err != nil {
		return path, err
	}
	return path, nil
}

// listSnapshots returns snapshot paths sorted oldest to newest by the
// timestamp embedded in the filename.
func (m *Manager) listSnapshots() ([]string, error) {
	entries, err := os.ReadDir(m.backupDir)
	if err != nil {
		return nil, fmt.Errorf("reading backup directory: %w", err)
	}

	var snapshots []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, snapshotPrefix) || !strings.HasSuffix(name, snapshotSuffix) {
			continue
		}
		snapshots = append(snapshots, filepath.Join(m.backupDir, name))
	}
	sort.Strings(snapshots)
	return snapshots, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening store file: %w", err)
	}
	defer func() {
		_ = in.Close()
	}()

	tmp := dst + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating snapshot file: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("copying store file: %w", err)
	}
	if err := out.Sync(); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("syncing snapshot file: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("closing snapshot file: %w", err)
	}
	return os.Rename(tmp, dst)
}
