package spotlight

import (
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

type hitRegion struct {
	rect    image.Rectangle
	onClick func()
}

// Surface is the 2D pixel buffer projected onto the laptop screen. Renderers
// re-upload it whenever Version changes.
type Surface struct {
	Width   int
	Height  int
	Image   *image.RGBA
	version uint64
	regions []hitRegion
}

func NewSurface(width, height int) *Surface {
	return &Surface{
		Width:  width,
		Height: height,
		Image:  image.NewRGBA(image.Rect(0, 0, width, height)),
	}
}

func (s *Surface) Version() uint64 {
	return s.version
}

func (s *Surface) Bounds() image.Rectangle {
	return s.Image.Bounds()
}

func (s *Surface) touch() {
	s.version++
}

// HitTest returns the click handler of the top-most region containing the point.
func (s *Surface) HitTest(x, y int) (func(), bool) {
	p := image.Pt(x, y)
	for i := len(s.regions) - 1; i >= 0; i-- {
		if p.In(s.regions[i].rect) {
			return s.regions[i].onClick, true
		}
	}
	return nil, false
}

func (s *Surface) Canvas() *Canvas {
	return &Canvas{surface: s, face: basicfont.Face7x13}
}

// Canvas is the drawing API handed to screen units.
type Canvas struct {
	surface *Surface
	face    font.Face
}

func (c *Canvas) Bounds() image.Rectangle {
	return c.surface.Bounds()
}

func (c *Canvas) Image() *image.RGBA {
	return c.surface.Image
}

// Clear fills the whole surface and drops all hit regions.
func (c *Canvas) Clear(col color.Color) {
	draw.Draw(c.surface.Image, c.surface.Image.Bounds(), image.NewUniform(col), image.Point{}, draw.Src)
	c.surface.regions = c.surface.regions[:0]
	c.surface.touch()
}

func (c *Canvas) Fill(r image.Rectangle, col color.Color) {
	draw.Draw(c.surface.Image, r, image.NewUniform(col), image.Point{}, draw.Over)
	c.surface.touch()
}

// FillGradient fills r with a vertical gradient from top to bottom.
func (c *Canvas) FillGradient(r image.Rectangle, top, bottom color.RGBA) {
	r = r.Intersect(c.surface.Image.Bounds())
	h := r.Dy()
	if h <= 0 {
		return
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		t := float64(y-r.Min.Y) / float64(h)
		row := color.RGBA{
			R: lerpByte(top.R, bottom.R, t),
			G: lerpByte(top.G, bottom.G, t),
			B: lerpByte(top.B, bottom.B, t),
			A: lerpByte(top.A, bottom.A, t),
		}
		draw.Draw(c.surface.Image, image.Rect(r.Min.X, y, r.Max.X, y+1), image.NewUniform(row), image.Point{}, draw.Over)
	}
	c.surface.touch()
}

func (c *Canvas) Border(r image.Rectangle, width int, col color.Color) {
	c.Fill(image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+width), col)
	c.Fill(image.Rect(r.Min.X, r.Max.Y-width, r.Max.X, r.Max.Y), col)
	c.Fill(image.Rect(r.Min.X, r.Min.Y, r.Min.X+width, r.Max.Y), col)
	c.Fill(image.Rect(r.Max.X-width, r.Min.Y, r.Max.X, r.Max.Y), col)
}

// Text draws s with its baseline at y.
func (c *Canvas) Text(x, y int, s string, col color.Color) {
	d := font.Drawer{
		Dst:  c.surface.Image,
		Src:  image.NewUniform(col),
		Face: c.face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
	c.surface.touch()
}

func (c *Canvas) MeasureText(s string) int {
	return font.MeasureString(c.face, s).Ceil()
}

func (c *Canvas) LineHeight() int {
	return c.face.Metrics().Height.Ceil()
}

// TextCentered centers a single line of text inside r.
func (c *Canvas) TextCentered(r image.Rectangle, s string, col color.Color) {
	m := c.face.Metrics()
	w := c.MeasureText(s)
	x := r.Min.X + (r.Dx()-w)/2
	y := r.Min.Y + (r.Dy()+m.Ascent.Ceil()-m.Descent.Ceil())/2
	c.Text(x, y, s, col)
}

// Region registers a click target. Later regions win over earlier ones.
func (c *Canvas) Region(r image.Rectangle, onClick func()) {
	c.surface.regions = append(c.surface.regions, hitRegion{rect: r, onClick: onClick})
}

func (c *Canvas) Button(r image.Rectangle, label string, bg, fg color.Color, onClick func()) {
	c.Fill(r, bg)
	c.TextCentered(r, label, fg)
	if onClick != nil {
		c.Region(r, onClick)
	}
}

// DrawImage scales img into r.
func (c *Canvas) DrawImage(r image.Rectangle, img image.Image) {
	xdraw.CatmullRom.Scale(c.surface.Image, r, img, img.Bounds(), xdraw.Over, nil)
	c.surface.touch()
}

func lerpByte(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t + 0.5)
}
