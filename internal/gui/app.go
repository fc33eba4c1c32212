// Package gui is the desktop front-end: input selection, job trigger and the
// two preview panes.
package gui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"photo-restoration-studio/internal/job"
	"photo-restoration-studio/internal/logging"
	"photo-restoration-studio/internal/preview"
)

const (
	StatusReady   = "Ready"
	StatusRunning = "Running..."
)

var errNoInput = errors.New("please choose an input file first")

// Submitter runs one job at a time and reports each outcome once.
type Submitter interface {
	Submit(req job.Request) error
	Results() <-chan job.Result
}

// Options carries what the window needs from the rest of the program.
type Options struct {
	BuildTag    string
	OutputRoot  string
	Device      int
	WithScratch bool
	HighRes     bool

	Runner   Submitter
	Renderer *preview.Renderer
	Logger   *logrus.Logger
}

// Application is the main window.
type Application struct {
	app    fyne.App
	window fyne.Window
	logger *logrus.Logger
	opts   Options

	picker *Picker

	inputEntry   *widget.Entry
	scratchCheck *widget.Check
	hrCheck      *widget.Check
	runButton    *widget.Button
	status       binding.String

	inputSlot  *DisplaySlot
	outputSlot *DisplaySlot
}

func NewApplication(app fyne.App, opts Options) *Application {
	window := app.NewWindow(windowTitle(opts.BuildTag, ""))
	window.Resize(fyne.NewSize(1100, 650))
	window.CenterOnScreen()

	a := &Application{
		app:    app,
		window: window,
		logger: opts.Logger,
		opts:   opts,
		status: binding.NewString(),
	}
	_ = a.status.Set(StatusReady)

	a.initializeGUI()
	a.setupLayout()
	return a
}

func windowTitle(buildTag, selected string) string {
	title := fmt.Sprintf("Photo Restoration Studio (GUI %s)", buildTag)
	if selected != "" {
		title += " - " + selected
	}
	return title
}

func (a *Application) initializeGUI() {
	a.picker = NewPicker(a.window, a.logger)
	a.picker.SetCallback(a.onInputSelected)

	a.inputEntry = widget.NewEntry()
	a.inputEntry.SetPlaceHolder("Image file or folder")

	a.scratchCheck = widget.NewCheck("With scratch", nil)
	a.scratchCheck.SetChecked(a.opts.WithScratch)
	a.hrCheck = widget.NewCheck("HR", nil)
	a.hrCheck.SetChecked(a.opts.HighRes)

	a.runButton = widget.NewButton("Modify Photo", a.onRun)
	a.runButton.Importance = widget.HighImportance

	a.inputSlot = NewDisplaySlot("Input Preview")
	a.outputSlot = NewDisplaySlot("Output Preview")
}

func (a *Application) setupLayout() {
	top := container.NewBorder(nil, nil,
		widget.NewLabel("Input file:"),
		container.NewHBox(
			widget.NewButton("Browse", a.picker.OpenFile),
			widget.NewButton("Folder", a.picker.OpenFolder),
			a.picker.AllFilesToggle(),
		),
		a.inputEntry,
	)

	actions := container.NewHBox(
		a.scratchCheck,
		a.hrCheck,
		widget.NewSeparator(),
		a.runButton,
		widget.NewButton("Exit", a.app.Quit),
		widget.NewLabelWithData(a.status),
	)

	panes := container.NewGridWithColumns(2, a.inputSlot.Container(), a.outputSlot.Container())
	statusBar := widget.NewLabelWithData(a.status)

	a.window.SetMainMenu(a.picker.MainMenu())
	a.window.SetContent(container.NewBorder(
		container.NewVBox(top, actions),
		statusBar,
		nil, nil,
		panes,
	))
}

// ShowAndRun shows the window and blocks until it is closed. Job results are
// moved onto the fyne thread until ctx ends.
func (a *Application) ShowAndRun(ctx context.Context) {
	a.logger.Info("Showing main application window")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go a.pump(ctx)

	a.window.SetCloseIntercept(func() {
		a.logger.Info("Main window closed")
		cancel()
		a.app.Quit()
	})

	a.window.ShowAndRun()
}

func (a *Application) pump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case res := <-a.opts.Runner.Results():
			fyne.Do(func() { a.onJobDone(res) })
		}
	}
}

func (a *Application) onInputSelected(path string) {
	name := filepath.Base(path)
	a.inputEntry.SetText(path)
	_ = a.status.Set("Selected: " + name)
	a.window.SetTitle(windowTitle(a.opts.BuildTag, name))

	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return
	}
	a.render(a.inputSlot, path)
}

func (a *Application) onRun() {
	input := strings.TrimSpace(a.inputEntry.Text)
	if input == "" {
		a.showError("No Input", errNoInput)
		return
	}
	if _, err := os.Stat(input); err != nil {
		a.showError("Input Not Found", fmt.Errorf("%w: %s", job.ErrInputMissing, input))
		return
	}

	req := job.NewRequest(input, a.opts.OutputRoot, a.opts.Device, a.scratchCheck.Checked, a.hrCheck.Checked)

	a.runButton.Disable()
	if err := a.opts.Runner.Submit(req); err != nil {
		a.runButton.Enable()
		a.showError("Cannot Start Job", err)
		return
	}
	_ = a.status.Set(StatusRunning)
	logging.WithJob(a.logger, req.ID).WithField("input", input).Info("Job submitted")
}

func (a *Application) onJobDone(res job.Result) {
	a.runButton.Enable()
	_ = a.status.Set("")

	if !res.OK() {
		a.showError("Restoration Failed", res.Err)
		return
	}
	a.render(a.outputSlot, res.OutputPath)
}

func (a *Application) render(slot *DisplaySlot, path string) {
	r, err := a.opts.Renderer.Render(path, slot.Size())
	if err != nil {
		a.showError("Preview Error", err)
		return
	}
	slot.Show(r)
}

func (a *Application) showError(title string, err error) {
	a.logger.WithError(err).Error(title)
	dialog.ShowError(err, a.window)
}
