// Package cvdecode decodes preview images through OpenCV.
package cvdecode

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"photo-restoration-studio/internal/preview"
)

var supportedFormats = []string{".jpg", ".jpeg", ".png", ".tiff", ".tif", ".bmp", ".webp"}

// Loader reads image files with OpenCV. IMRead applies the EXIF orientation
// when loading in color mode, so results are already upright.
type Loader struct {
	logger *logrus.Logger
}

var _ preview.Decoder = (*Loader)(nil)

func NewLoader(logger *logrus.Logger) *Loader {
	return &Loader{logger: logger}
}

// Decode implements preview.Decoder.
func (l *Loader) Decode(path string) (image.Image, error) {
	l.logger.WithField("filepath", path).Debug("Loading image")

	if !IsSupported(path) {
		return nil, fmt.Errorf("unsupported image format: %s", filepath.Ext(path))
	}

	mat := gocv.IMRead(path, gocv.IMReadColor)
	defer mat.Close()
	if mat.Empty() {
		return nil, fmt.Errorf("failed to load image: %s", path)
	}
	if mat.Cols() > preview.MaxDimension || mat.Rows() > preview.MaxDimension {
		return nil, fmt.Errorf("image too large: %dx%d (max: %d)", mat.Cols(), mat.Rows(), preview.MaxDimension)
	}

	l.logger.WithFields(logrus.Fields{
		"filepath": path,
		"width":    mat.Cols(),
		"height":   mat.Rows(),
		"channels": mat.Channels(),
	}).Debug("Image loaded")

	img, err := mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("convert image: %w", err)
	}
	return img, nil
}

// IsSupported reports whether path has an extension OpenCV is expected to read.
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range supportedFormats {
		if ext == format {
			return true
		}
	}
	return false
}
