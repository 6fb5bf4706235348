package spotlight

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// SurfaceDef places the 2D surface in the scene. Width and Height are in
// surface pixels; Scale converts pixels to world units.
type SurfaceDef struct {
	Width    float32
	Height   float32
	Position mgl32.Vec3
	Rotation mgl32.Vec3
	Scale    float32
}

func DefaultSurfaceDef() SurfaceDef {
	return SurfaceDef{
		Width:    800,
		Height:   500,
		Position: mgl32.Vec3{-0.001, 0.09, -0.1},
		Rotation: mgl32.Vec3{-0.24, 0, 0},
		Scale:    0.00033,
	}
}

// Model applies scale, then XYZ Euler rotation, then translation.
func (d SurfaceDef) Model() mgl32.Mat4 {
	return mgl32.Translate3D(d.Position.X(), d.Position.Y(), d.Position.Z()).
		Mul4(mgl32.HomogRotate3DX(d.Rotation.X())).
		Mul4(mgl32.HomogRotate3DY(d.Rotation.Y())).
		Mul4(mgl32.HomogRotate3DZ(d.Rotation.Z())).
		Mul4(mgl32.Scale3D(d.Scale, d.Scale, d.Scale))
}

// LocalCorners returns the corners centered on the origin in the order
// top-left, top-right, bottom-right, bottom-left.
func (d SurfaceDef) LocalCorners() [4]mgl32.Vec3 {
	hw, hh := d.Width/2, d.Height/2
	return [4]mgl32.Vec3{
		{-hw, hh, 0},
		{hw, hh, 0},
		{hw, -hh, 0},
		{-hw, -hh, 0},
	}
}

func (d SurfaceDef) WorldCorners() [4]mgl32.Vec3 {
	model := d.Model()
	var out [4]mgl32.Vec3
	for i, c := range d.LocalCorners() {
		out[i] = mgl32.TransformCoordinate(c, model)
	}
	return out
}

// ProjectedSurface is the surface as seen by the camera in one frame.
type ProjectedSurface struct {
	Clip     [4]mgl32.Vec4
	Corners  [4]mgl32.Vec2
	Viewport [2]int
	Visible  bool

	inverse mgl32.Mat3
}

func ProjectSurface(def SurfaceDef, cam *CameraComponent, viewportW, viewportH int) ProjectedSurface {
	p := ProjectedSurface{Viewport: [2]int{viewportW, viewportH}, Visible: viewportW > 0 && viewportH > 0}
	mvp := cam.ViewProjection().Mul4(def.Model())
	for i, c := range def.LocalCorners() {
		clip := mvp.Mul4x1(c.Vec4(1))
		p.Clip[i] = clip
		if clip.W() <= 1e-6 {
			p.Visible = false
			continue
		}
		p.Corners[i] = mgl32.Vec2{
			(clip.X()/clip.W() + 1) * 0.5 * float32(viewportW),
			(1 - clip.Y()/clip.W()) * 0.5 * float32(viewportH),
		}
	}
	if p.Visible {
		h, ok := squareToQuad(p.Corners)
		if ok && math.Abs(float64(h.Det())) > 1e-12 {
			p.inverse = h.Inv()
		} else {
			p.Visible = false
		}
	}
	return p
}

// Unproject maps a viewport pixel to normalized surface coordinates in
// [0,1]², with (0,0) at the top-left of the surface.
func (p ProjectedSurface) Unproject(x, y float32) (s, t float32, ok bool) {
	if !p.Visible {
		return 0, 0, false
	}
	v := p.inverse.Mul3x1(mgl32.Vec3{x, y, 1})
	if math.Abs(float64(v.Z())) < 1e-9 {
		return 0, 0, false
	}
	s, t = v.X()/v.Z(), v.Y()/v.Z()
	return s, t, s >= 0 && s <= 1 && t >= 0 && t <= 1
}

// SurfacePixel maps a viewport pixel to surface pixel coordinates.
func (p ProjectedSurface) SurfacePixel(def SurfaceDef, x, y float32) (int, int, bool) {
	s, t, ok := p.Unproject(x, y)
	if !ok {
		return 0, 0, false
	}
	return int(s * def.Width), int(t * def.Height), true
}

// Bounds is the viewport-space bounding box of the projected quad.
func (p ProjectedSurface) Bounds() (minX, minY, maxX, maxY float32) {
	minX, minY = p.Corners[0].X(), p.Corners[0].Y()
	maxX, maxY = minX, minY
	for _, c := range p.Corners[1:] {
		minX, maxX = min(minX, c.X()), max(maxX, c.X())
		minY, maxY = min(minY, c.Y()), max(maxY, c.Y())
	}
	return
}

// squareToQuad builds the projective map taking the unit square corners
// (0,0) (1,0) (1,1) (0,1) to q[0..3].
func squareToQuad(q [4]mgl32.Vec2) (mgl32.Mat3, bool) {
	x0, y0 := float64(q[0].X()), float64(q[0].Y())
	x1, y1 := float64(q[1].X()), float64(q[1].Y())
	x2, y2 := float64(q[2].X()), float64(q[2].Y())
	x3, y3 := float64(q[3].X()), float64(q[3].Y())

	dx3 := x0 - x1 + x2 - x3
	dy3 := y0 - y1 + y2 - y3

	var a, b, c, d, e, f, g, h float64
	if math.Abs(dx3) < 1e-9 && math.Abs(dy3) < 1e-9 {
		a, b, c = x1-x0, x3-x0, x0
		d, e, f = y1-y0, y3-y0, y0
	} else {
		dx1, dx2 := x1-x2, x3-x2
		dy1, dy2 := y1-y2, y3-y2
		det := dx1*dy2 - dx2*dy1
		if math.Abs(det) < 1e-12 {
			return mgl32.Mat3{}, false
		}
		g = (dx3*dy2 - dx2*dy3) / det
		h = (dx1*dy3 - dx3*dy1) / det
		a, b, c = x1-x0+g*x1, x3-x0+h*x3, x0
		d, e, f = y1-y0+g*y1, y3-y0+h*y3, y0
	}
	return mgl32.Mat3{
		float32(a), float32(d), float32(g),
		float32(b), float32(e), float32(h),
		float32(c), float32(f), 1,
	}, true
}
