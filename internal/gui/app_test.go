package gui

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photo-restoration-studio/internal/job"
	"photo-restoration-studio/internal/logging"
	"photo-restoration-studio/internal/preview"
	"photo-restoration-studio/internal/worker"
)

type fakeRunner struct {
	submitted []job.Request
	err       error
	results   chan job.Result
}

func (f *fakeRunner) Submit(req job.Request) error {
	if f.err != nil {
		return f.err
	}
	f.submitted = append(f.submitted, req)
	return nil
}

func (f *fakeRunner) Results() <-chan job.Result { return f.results }

func newTestApp(t *testing.T, runner *fakeRunner) *Application {
	t.Helper()
	app := test.NewTempApp(t)
	logger := logging.Discard()
	return NewApplication(app, Options{
		BuildTag:    "test",
		OutputRoot:  t.TempDir(),
		Device:      worker.NoDevice,
		WithScratch: true,
		Runner:      runner,
		Renderer:    preview.NewRenderer(nil, logger),
		Logger:      logger,
	})
}

func writeImage(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: 90, G: 60, B: 30, A: 255})
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func status(t *testing.T, a *Application) string {
	t.Helper()
	s, err := a.status.Get()
	require.NoError(t, err)
	return s
}

func TestInitialState(t *testing.T) {
	a := newTestApp(t, &fakeRunner{})
	assert.Equal(t, StatusReady, status(t, a))
	assert.Equal(t, "Photo Restoration Studio (GUI test)", a.window.Title())
	assert.True(t, a.scratchCheck.Checked)
	assert.False(t, a.hrCheck.Checked)
	assert.False(t, a.runButton.Disabled())
}

func TestInputSelectedRendersPreview(t *testing.T) {
	a := newTestApp(t, &fakeRunner{})
	path := writeImage(t, t.TempDir(), "photo.png", 64, 48)

	a.onInputSelected(path)

	assert.Equal(t, path, a.inputEntry.Text)
	assert.Equal(t, "Selected: photo.png", status(t, a))
	assert.Equal(t, "Photo Restoration Studio (GUI test) - photo.png", a.window.Title())
	require.NotNil(t, a.inputSlot.Current())
	assert.Equal(t, "photo.png", a.inputSlot.Current().Label)
	assert.Nil(t, a.outputSlot.Current())
}

func TestInputSelectedKeepsSelectionOnRenderFailure(t *testing.T) {
	a := newTestApp(t, &fakeRunner{})
	path := filepath.Join(t.TempDir(), "broken.jpg")
	require.NoError(t, os.WriteFile(path, []byte("nope"), 0o644))

	a.onInputSelected(path)

	assert.Equal(t, path, a.inputEntry.Text)
	assert.Equal(t, "Selected: broken.jpg", status(t, a))
	assert.Nil(t, a.inputSlot.Current())
}

func TestRunRequiresExistingInput(t *testing.T) {
	runner := &fakeRunner{}
	a := newTestApp(t, runner)

	a.onRun()
	a.inputEntry.SetText(filepath.Join(t.TempDir(), "missing.jpg"))
	a.onRun()

	assert.Empty(t, runner.submitted)
	assert.False(t, a.runButton.Disabled())
	assert.Equal(t, StatusReady, status(t, a))
}

func TestRunSubmitsRequest(t *testing.T) {
	runner := &fakeRunner{}
	a := newTestApp(t, runner)
	path := writeImage(t, t.TempDir(), "photo.png", 8, 8)

	a.inputEntry.SetText(path)
	a.scratchCheck.SetChecked(false)
	a.hrCheck.SetChecked(true)
	a.onRun()

	require.Len(t, runner.submitted, 1)
	req := runner.submitted[0]
	assert.Equal(t, path, req.InputPath)
	assert.Equal(t, a.opts.OutputRoot, req.OutputDir)
	assert.Equal(t, worker.NoDevice, req.Device)
	assert.False(t, req.WithScratch)
	assert.True(t, req.HighRes)
	assert.NotEmpty(t, req.ID)

	assert.True(t, a.runButton.Disabled())
	assert.Equal(t, StatusRunning, status(t, a))
}

func TestRunRejectedByBusyRunner(t *testing.T) {
	runner := &fakeRunner{err: job.ErrBusy}
	a := newTestApp(t, runner)
	a.inputEntry.SetText(writeImage(t, t.TempDir(), "photo.png", 8, 8))

	a.onRun()

	assert.False(t, a.runButton.Disabled())
	assert.Equal(t, StatusReady, status(t, a))
}

func TestJobDoneShowsOutput(t *testing.T) {
	a := newTestApp(t, &fakeRunner{})
	out := writeImage(t, t.TempDir(), "restored.png", 32, 32)

	a.runButton.Disable()
	a.onJobDone(job.Result{OutputPath: out})

	assert.False(t, a.runButton.Disabled())
	assert.Equal(t, "", status(t, a))
	require.NotNil(t, a.outputSlot.Current())
	assert.Equal(t, out, a.outputSlot.Current().Source)
}

func TestJobDoneFailureReenablesRun(t *testing.T) {
	a := newTestApp(t, &fakeRunner{})

	a.runButton.Disable()
	a.onJobDone(job.Result{Err: job.ErrNoArtifact})

	assert.False(t, a.runButton.Disabled())
	assert.Equal(t, "", status(t, a))
	assert.Nil(t, a.outputSlot.Current())
}
