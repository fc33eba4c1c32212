// Package preview prepares image files for the two display panes.
package preview

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
)

// ErrDisplay marks a file that could not be shown. It only concerns the pane
// that tried to show it.
var ErrDisplay = errors.New("cannot display image")

const (
	// MinPane is the smallest pane edge the fit is computed for.
	MinPane = 520
	// A pane reporting less than this has not been laid out yet.
	unlaidThreshold = 200
	unlaidWidth     = 800
	unlaidHeight    = 600

	// Room left for the pane title and the filename label.
	marginWidth  = 20
	marginHeight = 60
	minBox       = 100
)

// Size is a pixel extent.
type Size struct {
	Width  int
	Height int
}

// Rendered is a bitmap ready to be attached to a pane.
type Rendered struct {
	Image  *image.NRGBA
	Label  string
	Source string
}

// FitBounds returns the largest box an image may occupy inside a pane of the
// given size.
func FitBounds(pane Size) Size {
	floorW, floorH := MinPane, MinPane
	if pane.Width < unlaidThreshold || pane.Height < unlaidThreshold {
		floorW, floorH = unlaidWidth, unlaidHeight
	}
	w := max(pane.Width, floorW)
	h := max(pane.Height, floorH)
	return Size{
		Width:  max(w-marginWidth, minBox),
		Height: max(h-marginHeight, minBox),
	}
}

// Renderer turns files into pane-sized bitmaps.
type Renderer struct {
	decoder Decoder
	logger  *logrus.Logger
}

// NewRenderer creates a renderer. A nil decoder selects NativeDecoder.
func NewRenderer(decoder Decoder, logger *logrus.Logger) *Renderer {
	if decoder == nil {
		decoder = NativeDecoder{}
	}
	return &Renderer{decoder: decoder, logger: logger}
}

// Render decodes path, makes it upright and opaque, and scales it down to fit
// pane while keeping its aspect ratio. Images already inside the box are not
// enlarged.
func (r *Renderer) Render(path string, pane Size) (*Rendered, error) {
	img, err := r.decoder.Decode(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDisplay, filepath.Base(path), err)
	}

	flat := Flatten(img)
	box := FitBounds(pane)
	fitted := imaging.Fit(flat, box.Width, box.Height, imaging.Lanczos)

	r.logger.WithFields(logrus.Fields{
		"path":     path,
		"source":   fmt.Sprintf("%dx%d", flat.Bounds().Dx(), flat.Bounds().Dy()),
		"rendered": fmt.Sprintf("%dx%d", fitted.Bounds().Dx(), fitted.Bounds().Dy()),
		"pane":     fmt.Sprintf("%dx%d", pane.Width, pane.Height),
	}).Debug("Preview rendered")

	return &Rendered{
		Image:  fitted,
		Label:  filepath.Base(path),
		Source: path,
	}, nil
}

// Flatten composites img over white so every pixel is opaque RGB.
func Flatten(img image.Image) *image.NRGBA {
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}
