package spotlight

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/go-gl/mathgl/mgl32"
)

// SoftwareTarget is the framebuffer shared by the software layers. The scene
// layer clears it; the surface layer composites over it.
type SoftwareTarget struct {
	Image *image.RGBA
	depth []float32
}

func NewSoftwareTarget(width, height int) *SoftwareTarget {
	t := &SoftwareTarget{}
	t.resize(max(width, 1), max(height, 1))
	return t
}

func (t *SoftwareTarget) Size() (int, int) {
	b := t.Image.Bounds()
	return b.Dx(), b.Dy()
}

func (t *SoftwareTarget) resize(width, height int) {
	if t.Image != nil {
		if w, h := t.Size(); w == width && h == height {
			return
		}
	}
	t.Image = image.NewRGBA(image.Rect(0, 0, width, height))
	t.depth = make([]float32, width*height)
}

func (t *SoftwareTarget) clear(bg [3]float32) {
	c := color.RGBA{R: unitByte(bg[0]), G: unitByte(bg[1]), B: unitByte(bg[2]), A: 255}
	pix := t.Image.Pix
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = c.R, c.G, c.B, c.A
	}
	for i := range t.depth {
		t.depth[i] = math.MaxFloat32
	}
}

func unitByte(v float32) uint8 {
	return uint8(mgl32.Clamp(v, 0, 1)*255 + 0.5)
}

// clipVertex carries the interpolated attributes of one vertex through
// clipping and rasterization.
type clipVertex struct {
	clip     mgl32.Vec4
	world    mgl32.Vec3
	normal   mgl32.Vec3
	color    mgl32.Vec3
	material float32
}

func lerpClipVertex(a, b clipVertex, t float32) clipVertex {
	return clipVertex{
		clip:     a.clip.Add(b.clip.Sub(a.clip).Mul(t)),
		world:    lerpVec3(a.world, b.world, t),
		normal:   lerpVec3(a.normal, b.normal, t),
		color:    lerpVec3(a.color, b.color, t),
		material: a.material,
	}
}

// clipNear clips a polygon against the near plane z >= -w.
func clipNear(poly []clipVertex) []clipVertex {
	dist := func(v clipVertex) float32 { return v.clip.Z() + v.clip.W() }
	out := make([]clipVertex, 0, len(poly)+1)
	for i := range poly {
		cur, next := poly[i], poly[(i+1)%len(poly)]
		dc, dn := dist(cur), dist(next)
		if dc >= 0 {
			out = append(out, cur)
		}
		if (dc >= 0) != (dn >= 0) {
			out = append(out, lerpClipVertex(cur, next, dc/(dc-dn)))
		}
	}
	return out
}

// softwareSceneRenderer rasterizes the scene layer on the CPU with the same
// lighting model as the GPU shader.
type softwareSceneRenderer struct {
	target      *SoftwareTarget
	mesh        *Mesh
	meshVersion uint64
	hasMesh     bool
}

func newSoftwareSceneRenderer(target *SoftwareTarget) *softwareSceneRenderer {
	return &softwareSceneRenderer{target: target}
}

func (r *softwareSceneRenderer) SetViewportSize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	r.target.resize(width, height)
}

func (r *softwareSceneRenderer) Render(scene *Scene, camera *CameraComponent) error {
	if r.target == nil {
		return fmt.Errorf("software scene layer disposed")
	}
	if !r.hasMesh || r.meshVersion != scene.Version() {
		r.mesh, r.meshVersion, r.hasMesh = scene.Flatten(), scene.Version(), true
	}
	r.target.clear(scene.Background)

	vp := camera.ViewProjection()
	verts := make([]clipVertex, len(r.mesh.Vertices))
	for i, v := range r.mesh.Vertices {
		verts[i] = clipVertex{
			clip:     vp.Mul4x1(v.Position.Vec4(1)),
			world:    v.Position,
			normal:   v.Normal,
			color:    v.Color,
			material: v.Material,
		}
	}
	for i := 0; i+2 < len(r.mesh.Indices); i += 3 {
		poly := clipNear([]clipVertex{
			verts[r.mesh.Indices[i]],
			verts[r.mesh.Indices[i+1]],
			verts[r.mesh.Indices[i+2]],
		})
		for k := 1; k+1 < len(poly); k++ {
			r.rasterize(scene, poly[0], poly[k], poly[k+1])
		}
	}
	return nil
}

type screenVertex struct {
	x, y, z float32
	invW    float32
	v       clipVertex
}

func (r *softwareSceneRenderer) toScreen(v clipVertex) screenVertex {
	w, h := r.target.Size()
	invW := 1 / v.clip.W()
	return screenVertex{
		x:    (v.clip.X()*invW + 1) * 0.5 * float32(w),
		y:    (1 - v.clip.Y()*invW) * 0.5 * float32(h),
		z:    v.clip.Z() * invW,
		invW: invW,
		v:    v,
	}
}

func edge(ax, ay, bx, by, px, py float32) float32 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

func (r *softwareSceneRenderer) rasterize(scene *Scene, a, b, c clipVertex) {
	if a.clip.W() <= 0 || b.clip.W() <= 0 || c.clip.W() <= 0 {
		return
	}
	sa, sb, sc := r.toScreen(a), r.toScreen(b), r.toScreen(c)
	area := edge(sa.x, sa.y, sb.x, sb.y, sc.x, sc.y)
	if area == 0 || math.IsNaN(float64(area)) {
		return
	}
	w, h := r.target.Size()
	minX := max(int(min(sa.x, sb.x, sc.x)), 0)
	maxX := min(int(max(sa.x, sb.x, sc.x))+1, w-1)
	minY := max(int(min(sa.y, sb.y, sc.y)), 0)
	maxY := min(int(max(sa.y, sb.y, sc.y))+1, h-1)

	img := r.target.Image
	for py := minY; py <= maxY; py++ {
		for px := minX; px <= maxX; px++ {
			fx, fy := float32(px)+0.5, float32(py)+0.5
			w0 := edge(sb.x, sb.y, sc.x, sc.y, fx, fy) / area
			w1 := edge(sc.x, sc.y, sa.x, sa.y, fx, fy) / area
			w2 := edge(sa.x, sa.y, sb.x, sb.y, fx, fy) / area
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			z := w0*sa.z + w1*sb.z + w2*sc.z
			idx := py*w + px
			if z < -1 || z > 1 || z >= r.target.depth[idx] {
				continue
			}
			r.target.depth[idx] = z

			// perspective-correct attribute weights
			p0, p1, p2 := w0*sa.invW, w1*sb.invW, w2*sc.invW
			norm := 1 / (p0 + p1 + p2)
			p0, p1, p2 = p0*norm, p1*norm, p2*norm
			world := sa.v.world.Mul(p0).Add(sb.v.world.Mul(p1)).Add(sc.v.world.Mul(p2))
			normal := sa.v.normal.Mul(p0).Add(sb.v.normal.Mul(p1)).Add(sc.v.normal.Mul(p2))
			base := sa.v.color.Mul(p0).Add(sb.v.color.Mul(p1)).Add(sc.v.color.Mul(p2))

			var col mgl32.Vec3
			if a.material > 1.5 {
				col = base
			} else {
				if a.material > 0.5 && scene.Floor.GridSpacing > 0 {
					if gridLine(world.X(), scene.Floor.GridSpacing) || gridLine(world.Z(), scene.Floor.GridSpacing) {
						base = base.Mul(1.8)
					}
				}
				col = toneMap(shade(scene.Lights, base, world, normal), scene.Exposure)
			}
			o := img.PixOffset(px, py)
			img.Pix[o], img.Pix[o+1], img.Pix[o+2], img.Pix[o+3] = unitByte(col.X()), unitByte(col.Y()), unitByte(col.Z()), 255
		}
	}
}

func gridLine(coord, spacing float32) bool {
	f := coord/spacing - float32(math.Floor(float64(coord/spacing)))
	return f < 0.02 || f > 0.98
}

func (r *softwareSceneRenderer) Dispose() {
	r.mesh = nil
	r.hasMesh = false
	r.target = nil
}

// softwareSurfaceRenderer composites the surface image into the target
// through the inverse homography of the projected quad.
type softwareSurfaceRenderer struct {
	target    *SoftwareTarget
	surface   *Surface
	attached  bool
	projected ProjectedSurface
}

func newSoftwareSurfaceRenderer(target *SoftwareTarget, surface *Surface) *softwareSurfaceRenderer {
	return &softwareSurfaceRenderer{target: target, surface: surface, attached: true}
}

func (r *softwareSurfaceRenderer) Surface() *Surface {
	return r.surface
}

func (r *softwareSurfaceRenderer) Attach() {
	r.attached = true
}

func (r *softwareSurfaceRenderer) Detach() {
	r.attached = false
}

func (r *softwareSurfaceRenderer) Projected() ProjectedSurface {
	return r.projected
}

func (r *softwareSurfaceRenderer) SetViewportSize(width, height int) {
	if width <= 0 || height <= 0 || r.target == nil {
		return
	}
	r.target.resize(width, height)
}

func (r *softwareSurfaceRenderer) Render(scene *Scene, camera *CameraComponent) error {
	if r.target == nil {
		return fmt.Errorf("software surface layer disposed")
	}
	w, h := r.target.Size()
	r.projected = ProjectSurface(scene.Surface, camera, w, h)
	if !r.attached || !r.projected.Visible {
		return nil
	}
	src := r.surface.Image
	sb := src.Bounds()
	minX, minY, maxX, maxY := r.projected.Bounds()
	x0, y0 := max(int(minX), 0), max(int(minY), 0)
	x1, y1 := min(int(maxX)+1, w), min(int(maxY)+1, h)
	dst := r.target.Image
	for py := y0; py < y1; py++ {
		for px := x0; px < x1; px++ {
			s, t, ok := r.projected.Unproject(float32(px)+0.5, float32(py)+0.5)
			if !ok {
				continue
			}
			sx := min(int(s*float32(sb.Dx())), sb.Dx()-1)
			sy := min(int(t*float32(sb.Dy())), sb.Dy()-1)
			so := src.PixOffset(sx, sy)
			alpha := uint32(src.Pix[so+3])
			if alpha == 0 {
				continue
			}
			do := dst.PixOffset(px, py)
			for k := 0; k < 3; k++ {
				dst.Pix[do+k] = uint8((uint32(src.Pix[so+k])*alpha + uint32(dst.Pix[do+k])*(255-alpha)) / 255)
			}
			dst.Pix[do+3] = 255
		}
	}
	return nil
}

func (r *softwareSurfaceRenderer) Dispose() {
	r.attached = false
	r.target = nil
}

// SnapshotPresenter counts presented frames and writes the last one as an
// image file on demand.
type SnapshotPresenter struct {
	target *SoftwareTarget
	Frames int
}

func NewSnapshotPresenter(target *SoftwareTarget) *SnapshotPresenter {
	return &SnapshotPresenter{target: target}
}

func (p *SnapshotPresenter) Present() error {
	p.Frames++
	return nil
}

// Save writes the framebuffer to path. A positive width downscales the
// image, keeping the aspect ratio.
func (p *SnapshotPresenter) Save(path string, width int) error {
	var img image.Image = p.target.Image
	if width > 0 && width < p.target.Image.Bounds().Dx() {
		img = imaging.Resize(img, width, 0, imaging.Lanczos)
	}
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("save snapshot %s: %w", path, err)
	}
	return nil
}
