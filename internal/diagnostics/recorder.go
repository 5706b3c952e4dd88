// internal/diagnostics/recorder.go
package diagnostics

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// timestampLayout names run artifacts: <label>_<YYYYMMDD_HHMMSS>.
const timestampLayout = "20060102_150405"

// page is the single browser primitive the recorder needs.
type page interface {
	Screenshot(ctx context.Context) ([]byte, error)
}

// Recorder writes full-page screenshots to a dedicated output directory.
// Artifacts are write-only diagnostics; a failed capture is logged at warn
// level and never aborts the run.
type Recorder struct {
	page   page
	dir    string
	logger *zap.Logger
	clock  func() time.Time
}

// NewRecorder creates a recorder writing into dir, creating it if absent.
func NewRecorder(p page, dir string, logger *zap.Logger) *Recorder {
	return &Recorder{
		page:   p,
		dir:    dir,
		logger: logger.Named("diagnostics"),
		clock:  time.Now,
	}
}

// Capture takes a full-page screenshot and saves it as
// <label>_<timestamp>.png under the recorder's directory. The written path is
// returned for convenience; failures only produce a warning.
func (r *Recorder) Capture(ctx context.Context, label string) string {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		r.logger.Warn("Could not create screenshot directory.", zap.String("dir", r.dir), zap.Error(err))
		return ""
	}

	buf, err := r.page.Screenshot(ctx)
	if err != nil {
		r.logger.Warn("Screenshot capture failed.", zap.String("label", label), zap.Error(err))
		return ""
	}

	filename := filepath.Join(r.dir, fmt.Sprintf("%s_%s.png", label, r.clock().Format(timestampLayout)))
	if err := os.WriteFile(filename, buf, 0o644); err != nil {
		r.logger.Warn("Could not write screenshot.", zap.String("path", filename), zap.Error(err))
		return ""
	}

	r.logger.Info("Screenshot saved.", zap.String("path", filename))
	return filename
}

// RunLogFile computes the per-run log file path inside dir, named with the
// run's start timestamp, and makes sure the directory exists.
func RunLogFile(dir string, start time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("could not create log directory %q: %w", dir, err)
	}
	return filepath.Join(dir, fmt.Sprintf("run_%s.log", start.Format(timestampLayout))), nil
}
