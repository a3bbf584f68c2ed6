// Package render draws the clock face: the time in a large font on top and
// the scheduled message in a small strip underneath.
package render

import (
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"
	"time"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"toddlerclock/internal/battery"
	"toddlerclock/internal/config"
)

// Options controls frame geometry and colours.
type Options struct {
	Width  int
	Height int
	// Bottom is where the message strip starts.
	Bottom int

	Background color.RGBA
	Foreground color.RGBA

	ClockFontSize   float64
	MessageFontSize float64
}

// OptionsFromConfig converts the display section of the config.
func OptionsFromConfig(d config.DisplayConfig) (Options, error) {
	bg, err := ParseHexColor(d.Background)
	if err != nil {
		return Options{}, err
	}
	fg, err := ParseHexColor(d.Foreground)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Width:           d.Width,
		Height:          d.Height,
		Bottom:          d.Bottom,
		Background:      bg,
		Foreground:      fg,
		ClockFontSize:   d.ClockFontSize,
		MessageFontSize: d.MessageFontSize,
	}, nil
}

// Renderer holds parsed font faces. Faces keep glyph caches, so a Renderer
// must not be used from more than one goroutine at a time.
type Renderer struct {
	opts      Options
	clockFace font.Face
	msgFace   font.Face
}

// New parses the embedded Go fonts at the configured sizes.
func New(opts Options) (*Renderer, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("render: invalid frame size %dx%d", opts.Width, opts.Height)
	}
	if opts.Bottom <= 0 || opts.Bottom > opts.Height {
		return nil, fmt.Errorf("render: bottom %d outside frame height %d", opts.Bottom, opts.Height)
	}

	clockFace, err := newFace(gobold.TTF, opts.ClockFontSize)
	if err != nil {
		return nil, fmt.Errorf("render: clock font: %w", err)
	}
	msgFace, err := newFace(goregular.TTF, opts.MessageFontSize)
	if err != nil {
		return nil, fmt.Errorf("render: message font: %w", err)
	}

	return &Renderer{opts: opts, clockFace: clockFace, msgFace: msgFace}, nil
}

func newFace(ttf []byte, size float64) (font.Face, error) {
	f, err := opentype.Parse(ttf)
	if err != nil {
		return nil, err
	}
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// Bounds returns the frame rectangle.
func (r *Renderer) Bounds() image.Rectangle {
	return image.Rect(0, 0, r.opts.Width, r.opts.Height)
}

// Frame draws "HH:MM" for now and the message below it. An empty message
// leaves the strip blank. bat, when non-nil, is shown as a percentage in
// the top right corner.
func (r *Renderer) Frame(now time.Time, message string, bat *battery.Status) *image.RGBA {
	img := image.NewRGBA(r.Bounds())
	draw.Draw(img, img.Bounds(), image.NewUniform(r.opts.Background), image.Point{}, draw.Src)

	clockArea := image.Rect(0, 0, r.opts.Width, r.opts.Bottom)
	msgArea := image.Rect(0, r.opts.Bottom, r.opts.Width, r.opts.Height)

	r.centered(img, clockArea, r.clockFace, now.Format("15:04"))
	if message != "" {
		r.centered(img, msgArea, r.msgFace, message)
	}

	if bat != nil {
		label := strconv.Itoa(bat.Percent) + "%"
		w := font.MeasureString(r.msgFace, label).Ceil()
		ascent := r.msgFace.Metrics().Ascent.Ceil()
		r.drawString(img, r.msgFace, r.opts.Width-w-4, 4+ascent, label)
	}

	return img
}

// centered draws s in the middle of area. Text wider than the area is
// clipped on both sides.
func (r *Renderer) centered(img *image.RGBA, area image.Rectangle, face font.Face, s string) {
	m := face.Metrics()
	w := font.MeasureString(face, s).Ceil()
	h := (m.Ascent + m.Descent).Ceil()

	x := area.Min.X + (area.Dx()-w)/2
	y := area.Min.Y + (area.Dy()-h)/2 + m.Ascent.Ceil()
	r.drawString(img, face, x, y, s)
}

func (r *Renderer) drawString(img *image.RGBA, face font.Face, x, baseline int, s string) {
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(r.opts.Foreground),
		Face: face,
		Dot:  fixed.P(x, baseline),
	}
	d.DrawString(s)
}

// ParseHexColor parses "#rrggbb" (the leading '#' is optional).
func ParseHexColor(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return color.RGBA{}, fmt.Errorf("render: bad colour %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("render: bad colour %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
