package job

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"photo-restoration-studio/internal/artifact"
	"photo-restoration-studio/internal/logging"
	"photo-restoration-studio/internal/stage"
	"photo-restoration-studio/internal/worker"
)

// FinalOutputDir is where the worker leaves its results under the output root.
const FinalOutputDir = "final_output"

//go:generate mockgen -destination=mocks/mock_launcher.go -package=mocks photo-restoration-studio/internal/job Launcher,Recorder

// Launcher runs the worker and blocks until it exits.
type Launcher interface {
	Run(ctx context.Context, inv worker.Invocation) error
}

// Recorder receives every finished result.
type Recorder interface {
	Record(ctx context.Context, res Result) error
}

// Executor runs a request synchronously.
type Executor struct {
	launcher Launcher
	recorder Recorder
	logger   *logrus.Logger
	now      func() time.Time
}

// NewExecutor creates an executor. recorder may be nil.
func NewExecutor(launcher Launcher, recorder Recorder, logger *logrus.Logger) *Executor {
	return &Executor{
		launcher: launcher,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}
}

// Execute stages the input, runs the worker and resolves the artifact. It
// blocks for as long as the worker runs.
func (e *Executor) Execute(ctx context.Context, req Request) Result {
	res := Result{Request: req, Started: e.now()}
	res.OutputPath, res.Err = e.execute(ctx, req)
	res.Finished = e.now()

	entry := logging.WithJob(e.logger, req.ID).WithFields(logrus.Fields{
		"outcome":  res.Outcome(),
		"duration": res.Duration().String(),
	})
	if res.Err != nil {
		entry.WithError(res.Err).Error("Job failed")
	} else {
		entry.WithField("path", res.OutputPath).Info("Job completed")
	}

	if e.recorder != nil {
		if err := e.recorder.Record(ctx, res); err != nil {
			entry.WithError(err).Warn("Failed to record job in history")
		}
	}
	return res
}

func (e *Executor) execute(ctx context.Context, req Request) (string, error) {
	entry := logging.WithJob(e.logger, req.ID).WithFields(logrus.Fields{
		"input":      req.InputPath,
		"output_dir": req.OutputDir,
	})

	if _, err := os.Stat(req.InputPath); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInputMissing, err)
	}

	outputDir, err := filepath.Abs(req.OutputDir)
	if err != nil {
		return "", fmt.Errorf("%w: resolve output directory: %w", ErrStaging, err)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create output directory: %w", ErrStaging, err)
	}

	staged, err := stage.Prepare(req.InputPath, outputDir)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrStaging, err)
	}
	entry.WithFields(logrus.Fields{
		"staged_dir": staged.Dir,
		"owned":      staged.Owned,
	}).Debug("Input staged")

	inv := worker.Invocation{
		InputDir:    staged.Dir,
		OutputDir:   outputDir,
		Device:      req.Device,
		WithScratch: req.WithScratch,
		HighRes:     req.HighRes,
	}
	if err := e.launcher.Run(ctx, inv); err != nil {
		return "", err
	}

	resultsDir := filepath.Join(outputDir, FinalOutputDir)
	path, ok := artifact.Latest(resultsDir)
	if !ok {
		return "", fmt.Errorf("%w under %s", ErrNoArtifact, resultsDir)
	}
	return path, nil
}
