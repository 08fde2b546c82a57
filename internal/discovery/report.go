package discovery

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/camdex/camdex-go/internal/datastore"
)

// ReportError is one diagnosable failure entry in the run summary.
type ReportError struct {
	Brand   string `json:"brand"`
	Model   string `json:"model"`
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// Report is the run summary written after each discovery pass, consumed by
// external monitoring.
type Report struct {
	Timestamp         time.Time     `json:"timestamp"`
	RunID             string        `json:"runId"`
	Status            string        `json:"status"`
	CamerasDiscovered int           `json:"camerasDiscovered"`
	CamerasSaved      int           `json:"camerasSaved"`
	Errors            []ReportError `json:"errors"`
	SuccessRate       float64       `json:"successRate"`
	DurationSeconds   float64       `json:"durationSeconds"`
}

// WriteReport writes the summary JSON atomically (temp file + rename).
func WriteReport(path string, run *datastore.DiscoveryRun, reportErrors []ReportError) error {
	if reportErrors == nil {
		reportErrors = []ReportError{}
	}

	successRate := 1.0
	if run.CamerasDiscovered > 0 {
		successRate = float64(run.CamerasSaved) / float64(run.CamerasDiscovered)
	}

	report := Report{
		Timestamp:         time.Now(),
		RunID:             run.RunID,
		Status:            run.Status,
		CamerasDiscovered: run.CamerasDiscovered,
		CamerasSaved:      run.CamerasSaved,
		Errors:            reportErrors,
		SuccessRate:       successRate,
		DurationSeconds:   run.DurationSeconds,
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling run report: %w", err)
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating report directory: %w", err)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing run report: %w", err)
	}
	return os.Rename(tmp, path)
}
