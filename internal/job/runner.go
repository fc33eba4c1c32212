package job

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"photo-restoration-studio/internal/logging"
)

// ExecuteFunc runs one request to completion.
type ExecuteFunc func(ctx context.Context, req Request) Result

// Runner executes one job at a time on a background goroutine.
//
// Submit returns immediately. Each accepted submission produces exactly one
// Result on Results(). A new job is accepted only once the previous result
// has been received, so results arrive in submission order and at most one
// is ever pending. The consumer may submit again as soon as it receives.
type Runner struct {
	ctx     context.Context
	execute ExecuteFunc
	logger  *logrus.Logger

	mu      sync.Mutex
	running bool
	results chan Result
}

// NewRunner creates an idle runner. ctx bounds the lifetime of the worker
// processes it starts.
func NewRunner(ctx context.Context, execute ExecuteFunc, logger *logrus.Logger) *Runner {
	return &Runner{
		ctx:     ctx,
		execute: execute,
		logger:  logger,
		results: make(chan Result, 1),
	}
}

// Submit starts req in the background. It fails with ErrBusy while another
// job is in flight or its result has not been received yet.
func (r *Runner) Submit(req Request) error {
	r.mu.Lock()
	if r.running || len(r.results) > 0 {
		r.mu.Unlock()
		return ErrBusy
	}
	r.running = true
	r.mu.Unlock()

	logging.WithJob(r.logger, req.ID).WithFields(logrus.Fields{
		"input":        req.InputPath,
		"device":       req.Device,
		"with_scratch": req.WithScratch,
		"high_res":     req.HighRes,
	}).Info("Job submitted")

	go r.run(req)
	return nil
}

// Results delivers finished jobs. It has a single consumer.
func (r *Runner) Results() <-chan Result {
	return r.results
}

// Running reports whether a job is in flight.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *Runner) run(req Request) {
	res := r.safeExecute(req)

	// The buffer is empty here: Submit refuses while a result is pending.
	r.mu.Lock()
	r.results <- res
	r.running = false
	r.mu.Unlock()
}

func (r *Runner) safeExecute(req Request) (res Result) {
	started := time.Now()
	defer func() {
		if p := recover(); p != nil {
			logging.WithJob(r.logger, req.ID).WithField("panic", p).Error("Job panicked")
			res = Result{
				Request:  req,
				Err:      fmt.Errorf("job panicked: %v", p),
				Started:  started,
				Finished: time.Now(),
			}
		}
	}()
	return r.execute(r.ctx, req)
}
