package discovery

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/camdex/camdex-go/internal/conf"
	"github.com/camdex/camdex-go/internal/datastore"
	"github.com/camdex/camdex-go/internal/errors"
	"github.com/camdex/camdex-go/internal/imageprovider"
	"github.com/camdex/camdex-go/internal/logging"
	"github.com/google/uuid"
)

const serviceName = "discovery"

// ErrAlreadyRunning is returned when a pass is triggered while another is
// still in progress. Triggers are dropped, never queued.
var ErrAlreadyRunning = errors.NewStd("discovery pass already running")

var packageLogger *slog.Logger

func init() {
	var err error
	packageLogger, _, err = logging.NewFileLogger("logs/discovery.log", serviceName, slog.LevelInfo)
	if err != nil || packageLogger == nil {
		packageLogger = logging.ForService(serviceName)
	}
}

// ImageAcquirer is the slice of the image acquisition surface the engine
// depends on. The real implementation never fails; tests substitute stubs.
type ImageAcquirer interface {
	Acquire(ctx context.Context, brand, model, slug string) imageprovider.Acquisition
}

// MetadataFunc supplies best-effort spec metadata for a candidate. The
// default returns an empty payload: spec fields stay null until a source
// provides them.
type MetadataFunc func(Candidate) SourcePayload

// Engine runs discovery passes against the record store.
type Engine struct {
	settings   *conf.Settings
	store      datastore.Interface
	acquirer   ImageAcquirer
	quota      *DailyQuota
	candidates func() []Candidate
	metadata   MetadataFunc

	// running guards the pass with a compare-and-swap so overlapping
	// triggers are dropped instead of queued.
	running atomic.Bool

	// delay between candidates; overridable in tests.
	candidateDelay time.Duration
}

// New creates a discovery engine over the seed catalog.
func New(settings *conf.Settings, store datastore.Interface, acquirer ImageAcquirer, quota *DailyQuota) *Engine {
	return &Engine{
		settings:       settings,
		store:          store,
		acquirer:       acquirer,
		quota:          quota,
		candidates:     SeedCandidates,
		metadata:       func(Candidate) SourcePayload { return SourcePayload{} },
		candidateDelay: time.Duration(settings.Discovery.CandidateDelayMs) * time.Millisecond,
	}
}

// SetCandidateSource replaces the candidate list source, used by tests and
// alternative catalogs.
func (e *Engine) SetCandidateSource(fn func() []Candidate) {
	e.candidates = fn
}

// SetMetadataFunc replaces the metadata source for candidates.
func (e *Engine) SetMetadataFunc(fn MetadataFunc) {
	e.metadata = fn
}

// IsRunning reports whether a pass is currently in progress.
func (e *Engine) IsRunning() bool {
	return e.running.Load()
}

// RunPass executes one discovery pass. Only one pass runs at a time;
// concurrent triggers return ErrAlreadyRunning. Per-candidate failures are
// counted and logged but never abort the pass.
func (e *Engine) RunPass(ctx context.Context) (*datastore.DiscoveryRun, error) {
	if !e.running.CompareAndSwap(false, true) {
		packageLogger.Warn("Discovery trigger dropped, pass already running")
		return nil, ErrAlreadyRunning
	}
	defer e.running.Store(false)

	e.quota.CheckReset()

	start := time.Now()
	run := &datastore.DiscoveryRun{
		RunID:     uuid.NewString(),
		StartedAt: start,
		Status:    datastore.RunStatusPartial,
	}

	if e.quota.Exhausted() {
		run.Status = datastore.RunStatusSkipped
		e.finalize(run, start, nil)
		packageLogger.Info("Discovery pass skipped, daily quota exhausted",
			"run_id", run.RunID,
			"quota_used", e.quota.Used())
		return run, nil
	}

	if err := e.store.SaveRun(run); err != nil {
		packageLogger.Error("Failed to record discovery run start",
			"run_id", run.RunID,
			"error", err)
	}

	packageLogger.Info("Discovery pass started",
		"run_id", run.RunID,
		"quota_remaining", e.quota.Remaining())

	var reportErrors []ReportError
	quotaHit := false

	for _, candidate := range e.candidates() {
		if ctx.Err() != nil {
			packageLogger.Info("Discovery pass cancelled",
				"run_id", run.RunID)
			break
		}

		exists, err := e.store.Exists(candidate.Brand, candidate.Model)
		if err != nil {
			run.ErrorCount++
			reportErrors = append(reportErrors, ReportError{
				Brand:   candidate.Brand,
				Model:   candidate.Model,
				Stage:   "exists-check",
				Message: err.Error(),
			})
			continue
		}
		if exists {
			continue
		}

		run.CamerasDiscovered++

		if err := e.processWithRetry(ctx, candidate); err != nil {
			run.ErrorCount++
			reportErrors = append(reportErrors, ReportError{
				Brand:   candidate.Brand,
				Model:   candidate.Model,
				Stage:   "save",
				Message: err.Error(),
			})
			packageLogger.Error("Candidate abandoned after repeated failures",
				"run_id", run.RunID,
				"brand", candidate.Brand,
				"model", candidate.Model,
				"error", err)
		} else {
			run.CamerasSaved++
			e.quota.Consume()
		}

		if e.quota.Exhausted() {
			quotaHit = true
			packageLogger.Info("Daily quota reached mid-run, deferring remaining candidates",
				"run_id", run.RunID,
				"saved", run.CamerasSaved)
			break
		}

		// Politeness delay between candidates that caused source traffic.
		select {
		case <-ctx.Done():
		case <-time.After(e.candidateDelay):
		}
	}

	switch {
	case quotaHit:
		run.Status = datastore.RunStatusQuotaExhausted
	case run.ErrorCount == 0:
		run.Status = datastore.RunStatusSuccess
	case run.CamerasSaved > 0:
		run.Status = datastore.RunStatusPartial
	default:
		run.Status = datastore.RunStatusFailed
	}

	e.finalize(run, start, reportErrors)

	packageLogger.Info("Discovery pass finished",
		"run_id", run.RunID,
		"status", run.Status,
		"discovered", run.CamerasDiscovered,
		"saved", run.CamerasSaved,
		"errors", run.ErrorCount,
		"duration_seconds", run.DurationSeconds)

	return run, nil
}

// processWithRetry saves one candidate, retrying transient failures. After
// the configured number of consecutive failures the candidate is abandoned;
// the next scheduled pass will naturally pick it up again.
func (e *Engine) processWithRetry(ctx context.Context, candidate Candidate) error {
	maxRetries := e.settings.Discovery.MaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if err := e.processCandidate(ctx, candidate); err != nil {
			lastErr = err
			packageLogger.Warn("Candidate processing failed",
				"brand", candidate.Brand,
				"model", candidate.Model,
				"attempt", attempt,
				"error", err)
			continue
		}
		return nil
	}
	return lastErr
}

// processCandidate builds the record, stores it, then acquires and attaches
// its image. The record is upserted first so the image acquirer works with
// the collision-resolved slug the store actually assigned.
func (e *Engine) processCandidate(ctx context.Context, candidate Candidate) error {
	payload := e.metadata(candidate)
	payload.Brand = candidate.Brand
	payload.Model = candidate.Model
	payload.Category = candidate.Category

	cam := Adapt(payload)
	id, err := e.store.Upsert(cam)
	if err != nil {
		return err
	}

	acquisition := e.acquirer.Acquire(ctx, candidate.Brand, candidate.Model, cam.Slug)

	if err := e.store.UpdateImageFields(id, datastore.ImageFieldsUpdate{
		ImageURL:         acquisition.ImageURL,
		LocalImagePath:   acquisition.LocalImagePath,
		ThumbPath:        acquisition.ThumbPath,
		ImageAttribution: acquisition.Attribution,
		ImageSource:      acquisition.Source,
	}); err != nil {
		return err
	}

	attribution := &datastore.ImageAttribution{
		CameraID:   id,
		SourceName: acquisition.SourceName,
		SourceURL:  acquisition.SourceURL,
		ImageURL:   acquisition.ImageURL,
		License:    acquisition.License,
	}
	if err := e.store.SaveAttribution(attribution); err != nil {
		// The camera and its image are already persisted; a failed
		// attribution row is logged but does not fail the candidate.
		packageLogger.Warn("Failed to save attribution record",
			"brand", candidate.Brand,
			"model", candidate.Model,
			"error", err)
	}
	return nil
}

func (e *Engine) finalize(run *datastore.DiscoveryRun, start time.Time, reportErrors []ReportError) {
	finished := time.Now()
	run.FinishedAt = &finished
	run.DurationSeconds = finished.Sub(start).Seconds()

	if run.Status != datastore.RunStatusSkipped {
		if err := e.store.FinalizeRun(run); err != nil {
			packageLogger.Error("Failed to finalize discovery run",
				"run_id", run.RunID,
				"error", err)
		}
	}

	if e.settings.Output.ReportPath != "" {
		if err := WriteReport(e.settings.Output.ReportPath, run, reportErrors); err != nil {
			packageLogger.Error("Failed to write run report",
				"run_id", run.RunID,
				"path", e.settings.Output.ReportPath,
				"error", err)
		}
	}
}
