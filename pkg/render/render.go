// Package render draws chassis frames: module positions and their velocity
// vectors, one arrow layer per vector kind.
package render

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/fogleman/gg"
	"github.com/pkg/errors"

	"github.com/tigerbot-team/swervesim/pkg/angle"
	"github.com/tigerbot-team/swervesim/pkg/swerve"
	"github.com/tigerbot-team/swervesim/pkg/vec"
)

var (
	colourBackground = color.White
	colourAxes       = color.Gray{Y: 0xd0}
	colourModule     = color.RGBA{R: 0x1f, G: 0x3f, B: 0xd0, A: 0xff}
	colourComponent  = color.RGBA{R: 0xd0, G: 0x20, B: 0x20, A: 0xff}
	colourTotal      = color.RGBA{R: 0x20, G: 0xa0, B: 0x20, A: 0xff}
)

const (
	componentHead = 0.2
	totalHead     = 0.5
	moduleRadius  = 4
	lineWidth     = 2
)

// Renderer maps the world square [-Bound, Bound]² onto a Size×Size image,
// +Y up.
type Renderer struct {
	Size  int
	Bound float64

	mu     sync.Mutex
	layers Layer
}

func New(size int, bound float64, layers Layer) *Renderer {
	return &Renderer{Size: size, Bound: bound, layers: layers}
}

func (r *Renderer) Layers() Layer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.layers
}

func (r *Renderer) SetLayers(l Layer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.layers = l
}

// ToggleLayer flips one layer and returns the new set.
func (r *Renderer) ToggleLayer(l Layer) Layer {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.layers = r.layers.Toggle(l)
	return r.layers
}

// Draw renders one frame.
func (r *Renderer) Draw(states []swerve.ModuleState) image.Image {
	layers := r.Layers()
	dc := gg.NewContext(r.Size, r.Size)
	dc.SetColor(colourBackground)
	dc.Clear()

	dc.SetColor(colourAxes)
	dc.SetLineWidth(1)
	origin := r.toPixel(vec.Zero)
	dc.DrawLine(0, origin.Y, float64(r.Size), origin.Y)
	dc.DrawLine(origin.X, 0, origin.X, float64(r.Size))
	dc.Stroke()

	dc.SetLineWidth(lineWidth)
	for _, s := range states {
		if layers.Has(LayerTranslational) {
			r.drawArrow(dc, s.Position, s.TranslationalVelocity, componentHead, colourComponent)
		}
		if layers.Has(LayerRotational) {
			// Drawn from the tip of the translational arrow so the two add
			// up visually to the total.
			r.drawArrow(dc, s.Position.Add(s.TranslationalVelocity), s.RotationalVelocity, componentHead, colourComponent)
		}
		if layers.Has(LayerTotal) {
			r.drawArrow(dc, s.Position, s.Velocity, totalHead, colourTotal)
		}
	}

	for i, s := range states {
		p := r.toPixel(s.Position)
		dc.SetColor(colourModule)
		dc.DrawCircle(p.X, p.Y, moduleRadius)
		dc.Fill()
		dc.DrawString(fmt.Sprintf("%d: %.0fdeg", i, angle.FromRadians(s.SteerTarget).Degrees()), p.X+moduleRadius+2, p.Y-moduleRadius-2)
	}
	return dc.Image()
}

func (r *Renderer) scale() float64 {
	return float64(r.Size) / (2 * r.Bound)
}

func (r *Renderer) toPixel(p vec.Vector2) vec.Vector2 {
	s := r.scale()
	return vec.New((p.X+r.Bound)*s, (r.Bound-p.Y)*s)
}

// drawArrow draws from start along delta; the head is inside the length.
func (r *Renderer) drawArrow(dc *gg.Context, start, delta vec.Vector2, head float64, c color.Color) {
	length := delta.Norm()
	if length == 0 {
		return
	}
	if head > length {
		head = length
	}
	dir := delta.Mul(1 / length)
	tip := start.Add(delta)
	back := tip.Sub(dir.Mul(head))
	side := dir.Ortho().Mul(head / 2)

	dc.SetColor(c)
	from, to := r.toPixel(start), r.toPixel(back)
	dc.DrawLine(from.X, from.Y, to.X, to.Y)
	dc.Stroke()

	t, left, right := r.toPixel(tip), r.toPixel(back.Add(side)), r.toPixel(back.Sub(side))
	dc.MoveTo(t.X, t.Y)
	dc.LineTo(left.X, left.Y)
	dc.LineTo(right.X, right.Y)
	dc.ClosePath()
	dc.Fill()
}

func SavePNG(path string, img image.Image) error {
	return errors.Wrapf(gg.SavePNG(path, img), "saving %s", path)
}

// WriteRGB565 writes img to a 16bpp little-endian framebuffer such as
// /dev/fb1, starting at offset 0.
func WriteRGB565(w io.WriteSeeker, img image.Image) error {
	b := img.Bounds()
	buf := make([]byte, 0, b.Dx()*b.Dy()*2)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA() // 16-bit pre-multiplied

			rb := uint16(r >> (16 - 5))
			gb := uint16(g >> (16 - 6)) // Green has 6 bits
			bb := uint16(bl >> (16 - 5))
			px := rb<<11 | gb<<5 | bb
			buf = append(buf, byte(px), byte(px>>8))
		}
	}
	if _, err := w.Seek(0, io.SeekStart); err != nil {
		return errors.Wrap(err, "framebuffer seek")
	}
	_, err := w.Write(buf)
	return errors.Wrap(err, "framebuffer write")
}

// FrameSink saves numbered PNG frames into a directory.
type FrameSink struct {
	dir  string
	next int
}

func NewFrameSink(dir string) (*FrameSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating frame dir %s", dir)
	}
	return &FrameSink{dir: dir}, nil
}

// Write saves img and returns its path.
func (s *FrameSink) Write(img image.Image) (string, error) {
	path := filepath.Join(s.dir, fmt.Sprintf("frame-%06d.png", s.next))
	if err := SavePNG(path, img); err != nil {
		return "", err
	}
	s.next++
	return path, nil
}
