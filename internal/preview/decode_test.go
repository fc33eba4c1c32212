package preview

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photo-restoration-studio/internal/logging"
)

// exifSegment returns a big-endian APP1 segment whose IFD0 holds only the
// orientation tag.
func exifSegment(orientation uint16) []byte {
	var tiff bytes.Buffer
	tiff.WriteString("MM")
	_ = binary.Write(&tiff, binary.BigEndian, uint16(0x2a))
	_ = binary.Write(&tiff, binary.BigEndian, uint32(8))
	_ = binary.Write(&tiff, binary.BigEndian, uint16(1))      // entries
	_ = binary.Write(&tiff, binary.BigEndian, uint16(0x0112)) // Orientation
	_ = binary.Write(&tiff, binary.BigEndian, uint16(3))      // SHORT
	_ = binary.Write(&tiff, binary.BigEndian, uint32(1))
	_ = binary.Write(&tiff, binary.BigEndian, orientation)
	_ = binary.Write(&tiff, binary.BigEndian, uint16(0))
	_ = binary.Write(&tiff, binary.BigEndian, uint32(0)) // no next IFD

	payload := append([]byte("Exif\x00\x00"), tiff.Bytes()...)
	seg := []byte{0xff, 0xe1}
	seg = binary.BigEndian.AppendUint16(seg, uint16(len(payload)+2))
	return append(seg, payload...)
}

// writeOrientedJPEG writes a w×h JPEG carrying the given EXIF orientation.
func writeOrientedJPEG(t *testing.T, dir string, w, h int, orientation uint16) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 120, G: 100, B: 80, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))

	data := buf.Bytes()
	require.Equal(t, []byte{0xff, 0xd8}, data[:2])
	out := append([]byte{0xff, 0xd8}, exifSegment(orientation)...)
	out = append(out, data[2:]...)

	path := filepath.Join(dir, "oriented.jpg")
	require.NoError(t, os.WriteFile(path, out, 0o644))
	return path
}

func TestReadOrientationFromJPEG(t *testing.T) {
	path := writeOrientedJPEG(t, t.TempDir(), 40, 20, 6)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, 6, readOrientation(f))
}

func TestNativeDecoderAppliesExifOrientation(t *testing.T) {
	tests := []struct {
		orientation uint16
		w, h        int
	}{
		{1, 40, 20},
		{3, 40, 20},
		{6, 20, 40},
		{8, 20, 40},
	}
	for _, tt := range tests {
		path := writeOrientedJPEG(t, t.TempDir(), 40, 20, tt.orientation)

		img, err := NativeDecoder{}.Decode(path)
		require.NoError(t, err, "orientation %d", tt.orientation)
		assert.Equal(t, tt.w, img.Bounds().Dx(), "orientation %d", tt.orientation)
		assert.Equal(t, tt.h, img.Bounds().Dy(), "orientation %d", tt.orientation)
	}
}

func TestRenderUprightsExifImage(t *testing.T) {
	path := writeOrientedJPEG(t, t.TempDir(), 40, 20, 6)

	out, err := NewRenderer(nil, logging.Discard()).Render(path, Size{600, 600})
	require.NoError(t, err)
	assert.Equal(t, 20, out.Image.Bounds().Dx())
	assert.Equal(t, 40, out.Image.Bounds().Dy())
}
