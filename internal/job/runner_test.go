package job

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photo-restoration-studio/internal/logging"
)

const waitFor = 2 * time.Second

func receive(t *testing.T, r *Runner) Result {
	t.Helper()
	select {
	case res := <-r.Results():
		return res
	case <-time.After(waitFor):
		t.Fatal("timed out waiting for a result")
		return Result{}
	}
}

func assertNoResult(t *testing.T, r *Runner) {
	t.Helper()
	select {
	case res := <-r.Results():
		t.Fatalf("unexpected extra result for job %s", res.Request.ID)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRunnerDeliversExactlyOneResult(t *testing.T) {
	var calls atomic.Int32
	r := NewRunner(context.Background(), func(_ context.Context, req Request) Result {
		calls.Add(1)
		return Result{Request: req, OutputPath: "/out/final_output/x.png"}
	}, logging.Discard())

	req := NewRequest("/in/photo.jpg", "/out", -1, true, false)
	require.NoError(t, r.Submit(req))

	res := receive(t, r)
	assert.Equal(t, req.ID, res.Request.ID)
	assert.Equal(t, "/out/final_output/x.png", res.OutputPath)
	assert.False(t, r.Running())

	assertNoResult(t, r)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRunnerRejectsSubmissionWhileRunning(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	r := NewRunner(context.Background(), func(_ context.Context, req Request) Result {
		close(started)
		<-release
		return Result{Request: req, Err: ErrNoArtifact}
	}, logging.Discard())

	first := NewRequest("/in/a.jpg", "/out", -1, false, false)
	require.NoError(t, r.Submit(first))
	<-started

	assert.True(t, r.Running())
	assert.ErrorIs(t, r.Submit(NewRequest("/in/b.jpg", "/out", -1, false, false)), ErrBusy)
	assertNoResult(t, r)

	close(release)
	res := receive(t, r)
	assert.Equal(t, first.ID, res.Request.ID)
	assert.ErrorIs(t, res.Err, ErrNoArtifact)
	assertNoResult(t, r)
}

func TestRunnerAcceptsNextJobOnceResultReceived(t *testing.T) {
	r := NewRunner(context.Background(), func(_ context.Context, req Request) Result {
		return Result{Request: req, OutputPath: req.InputPath + ".out"}
	}, logging.Discard())

	for i, input := range []string{"/in/1.jpg", "/in/2.jpg", "/in/3.jpg"} {
		req := NewRequest(input, "/out", -1, false, false)
		require.NoError(t, r.Submit(req), "submission %d", i)
		res := receive(t, r)
		assert.Equal(t, req.ID, res.Request.ID)
		assert.Equal(t, input+".out", res.OutputPath)
	}
}

func TestRunnerRejectsSubmissionWhileResultUndrained(t *testing.T) {
	r := NewRunner(context.Background(), func(_ context.Context, req Request) Result {
		return Result{Request: req, OutputPath: req.InputPath + ".out"}
	}, logging.Discard())

	first := NewRequest("/in/1.jpg", "/out", -1, false, false)
	require.NoError(t, r.Submit(first))
	require.Eventually(t, func() bool { return !r.Running() }, waitFor, 5*time.Millisecond)

	assert.ErrorIs(t, r.Submit(NewRequest("/in/2.jpg", "/out", -1, false, false)), ErrBusy)

	assert.Equal(t, first.ID, receive(t, r).Request.ID)

	second := NewRequest("/in/3.jpg", "/out", -1, false, false)
	require.NoError(t, r.Submit(second))
	assert.Equal(t, second.ID, receive(t, r).Request.ID)
	assertNoResult(t, r)
}

func TestRunnerTurnsPanicIntoFailure(t *testing.T) {
	r := NewRunner(context.Background(), func(context.Context, Request) Result {
		panic("boom")
	}, logging.Discard())

	req := NewRequest("/in/photo.jpg", "/out", -1, false, false)
	require.NoError(t, r.Submit(req))

	res := receive(t, r)
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "boom")
	assert.Equal(t, req.ID, res.Request.ID)
	assert.False(t, r.Running())
}

func TestRunnerPassesContext(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "app")
	r := NewRunner(ctx, func(ctx context.Context, req Request) Result {
		if ctx.Value(key{}) != "app" {
			return Result{Request: req, Err: errors.New("wrong context")}
		}
		return Result{Request: req, OutputPath: "ok"}
	}, logging.Discard())

	require.NoError(t, r.Submit(NewRequest("/in", "/out", -1, false, false)))
	assert.NoError(t, receive(t, r).Err)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, OutcomeOK},
		{ErrInputMissing, OutcomeInputMissing},
		{ErrStaging, OutcomeStagingFailure},
		{ErrNoArtifact, OutcomeNoArtifact},
		{errors.New("other"), OutcomeError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.err))
	}
}
