// Package job orchestrates one restoration run: stage the input, launch the
// worker, resolve the produced artifact.
package job

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"photo-restoration-studio/internal/worker"
)

var (
	// ErrInputMissing rejects a request whose input does not exist.
	ErrInputMissing = errors.New("input not found")
	// ErrStaging reports a filesystem failure before the worker was launched.
	ErrStaging = errors.New("staging failed")
	// ErrNoArtifact reports a worker that exited cleanly but left no result.
	ErrNoArtifact = errors.New("no output image found")
	// ErrBusy rejects a submission while another job is running.
	ErrBusy = errors.New("a job is already running")
)

// Outcome names used in logs and the history ledger.
const (
	OutcomeOK                = "ok"
	OutcomeInputMissing      = "input_missing"
	OutcomeStagingFailure    = "staging_failure"
	OutcomeWorkerUnavailable = "worker_unavailable"
	OutcomeWorkerFailed      = "worker_failed"
	OutcomeNoArtifact        = "no_artifact"
	OutcomeError             = "error"
)

// Request is one run of the worker. It is built fresh for every trigger.
type Request struct {
	ID          string
	InputPath   string
	OutputDir   string
	Device      int
	WithScratch bool
	HighRes     bool
}

// NewRequest builds a request with a fresh id.
func NewRequest(inputPath, outputDir string, device int, withScratch, highRes bool) Request {
	return Request{
		ID:          uuid.NewString(),
		InputPath:   inputPath,
		OutputDir:   outputDir,
		Device:      device,
		WithScratch: withScratch,
		HighRes:     highRes,
	}
}

// Result is the outcome of a request. Exactly one of OutputPath and Err is set.
type Result struct {
	Request    Request
	OutputPath string
	Err        error
	Started    time.Time
	Finished   time.Time
}

// OK reports whether the job produced an artifact.
func (r Result) OK() bool {
	return r.Err == nil
}

// Duration is the wall time spent in the job.
func (r Result) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

// Outcome classifies the result.
func (r Result) Outcome() string {
	return Classify(r.Err)
}

// Classify maps an error to its outcome name.
func Classify(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrInputMissing):
		return OutcomeInputMissing
	case errors.Is(err, ErrStaging):
		return OutcomeStagingFailure
	case errors.Is(err, worker.ErrWorkerUnavailable):
		return OutcomeWorkerUnavailable
	case errors.Is(err, worker.ErrWorkerFailed):
		return OutcomeWorkerFailed
	case errors.Is(err, ErrNoArtifact):
		return OutcomeNoArtifact
	default:
		return OutcomeError
	}
}
