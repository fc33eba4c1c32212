package gui

import (
	"image"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"photo-restoration-studio/internal/preview"
)

// DisplaySlot is one preview pane. It exclusively owns the bitmap it shows:
// a replacement is attached to the pane before the previous bitmap is let go.
type DisplaySlot struct {
	card    *widget.Card
	label   *widget.Label
	content *fyne.Container

	image   *canvas.Image
	current *preview.Rendered
}

func NewDisplaySlot(title string) *DisplaySlot {
	s := &DisplaySlot{
		label: widget.NewLabel(""),
		image: placeholder(),
	}
	s.content = container.NewStack(s.image)
	s.card = widget.NewCard(title, "", container.NewBorder(s.label, nil, nil, nil, s.content))
	return s
}

func placeholder() *canvas.Image {
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.White)
	c := canvas.NewImageFromImage(img)
	c.FillMode = canvas.ImageFillStretch
	c.SetMinSize(fyne.NewSize(preview.MinPane/2, preview.MinPane/2))
	return c
}

func (s *DisplaySlot) Container() fyne.CanvasObject {
	return s.card
}

// Size is the pixel extent currently available for an image. It is zero until
// the window has been laid out.
func (s *DisplaySlot) Size() preview.Size {
	size := s.content.Size()
	scale := s.scale()
	return preview.Size{
		Width:  int(size.Width * scale),
		Height: int(size.Height * scale),
	}
}

func (s *DisplaySlot) scale() float32 {
	if app := fyne.CurrentApp(); app != nil {
		if c := app.Driver().CanvasForObject(s.content); c != nil && c.Scale() > 0 {
			return c.Scale()
		}
	}
	return 1
}

// Show replaces the pane content with r. The bitmap is drawn at its own pixel
// size, centred, and never stretched to the pane. Must run on the fyne thread.
func (s *DisplaySlot) Show(r *preview.Rendered) {
	b := r.Image.Bounds()
	scale := s.scale()

	next := canvas.NewImageFromImage(r.Image)
	next.FillMode = canvas.ImageFillContain
	next.ScaleMode = canvas.ImageScaleSmooth
	next.SetMinSize(fyne.NewSize(float32(b.Dx())/scale, float32(b.Dy())/scale))

	s.content.Objects = []fyne.CanvasObject{container.NewCenter(next)}
	s.content.Refresh()
	s.label.SetText(r.Label)

	prev := s.image
	s.image = next
	s.current = r
	prev.Image = nil
}

// Current returns what the pane shows, or nil.
func (s *DisplaySlot) Current() *preview.Rendered {
	return s.current
}
