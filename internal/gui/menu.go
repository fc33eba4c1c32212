package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"
)

// ImageExtensions are offered by the file dialog unless all files are shown.
var ImageExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".tif", ".tiff"}

// Picker opens the input dialogs and reports the chosen path.
type Picker struct {
	window   fyne.Window
	logger   *logrus.Logger
	allFiles *widget.Check

	onSelected func(string)
}

func NewPicker(window fyne.Window, logger *logrus.Logger) *Picker {
	return &Picker{
		window:   window,
		logger:   logger,
		allFiles: widget.NewCheck("All files", nil),
	}
}

func (p *Picker) SetCallback(onSelected func(string)) {
	p.onSelected = onSelected
}

// AllFilesToggle drops the extension filter when checked.
func (p *Picker) AllFilesToggle() fyne.CanvasObject {
	return p.allFiles
}

func (p *Picker) MainMenu() *fyne.MainMenu {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Image...", p.OpenFile),
		fyne.NewMenuItem("Open Folder...", p.OpenFolder),
	)
	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", p.showAbout),
	)
	return fyne.NewMainMenu(fileMenu, helpMenu)
}

func (p *Picker) OpenFile() {
	p.logger.Debug("Opening file dialog for input selection")

	fileDialog := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			p.showError("File Dialog Error", err)
			return
		}
		if reader == nil {
			return
		}
		path := reader.URI().Path()
		_ = reader.Close()
		p.selected(path)
	}, p.window)

	if !p.allFiles.Checked {
		fileDialog.SetFilter(storage.NewExtensionFileFilter(ImageExtensions))
	}
	fileDialog.Show()
}

func (p *Picker) OpenFolder() {
	p.logger.Debug("Opening folder dialog for input selection")

	folderDialog := dialog.NewFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil {
			p.showError("Folder Dialog Error", err)
			return
		}
		if uri == nil {
			return
		}
		p.selected(uri.Path())
	}, p.window)
	folderDialog.Show()
}

func (p *Picker) selected(path string) {
	p.logger.WithField("path", path).Info("Input selected")
	if p.onSelected != nil {
		p.onSelected(path)
	}
}

func (p *Picker) showAbout() {
	content := container.NewVBox(
		widget.NewLabel("Photo Restoration Studio"),
		widget.NewSeparator(),
		widget.NewLabel("Front-end for the old photo restoration pipeline."),
		widget.NewLabel("Pick an image or a folder, then press Modify Photo."),
		widget.NewSeparator(),
		widget.NewLabel("Built with Go, Fyne v2.6 and OpenCV"),
	)
	about := dialog.NewCustom("About", "Close", content, p.window)
	about.Resize(fyne.NewSize(400, 260))
	about.Show()
}

func (p *Picker) showError(title string, err error) {
	p.logger.WithError(err).Error(title)
	dialog.ShowError(err, p.window)
}
