package spotlight

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSurfaceDef() SurfaceDef {
	return SurfaceDef{Width: 400, Height: 300, Scale: 0.01}
}

func testCamera(position mgl32.Vec3) *CameraComponent {
	cam := NewCamera(45, 800.0/600.0, 0.1, 100)
	cam.SetPose(CameraPose{Position: position})
	return cam
}

func TestProjectSurface_FacingCamera(t *testing.T) {
	def := testSurfaceDef()
	p := ProjectSurface(def, testCamera(mgl32.Vec3{0, 0, 10}), 800, 600)
	require.True(t, p.Visible)

	center := [2]float32{400, 300}
	s, u, ok := p.Unproject(center[0], center[1])
	require.True(t, ok)
	assert.InDelta(t, 0.5, s, 1e-4)
	assert.InDelta(t, 0.5, u, 1e-4)

	minX, minY, maxX, maxY := p.Bounds()
	assert.Less(t, minX, maxX)
	assert.Less(t, minY, maxY)
	assert.InDelta(t, p.Corners[0].X(), minX, 1e-3, "top-left is left-most")
	assert.InDelta(t, p.Corners[0].Y(), minY, 1e-3, "top-left is top-most")
}

func TestProjectSurface_CornerRoundTrip(t *testing.T) {
	want := [4][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	for _, pos := range []mgl32.Vec3{{0, 0, 10}, {0, 3, 8}, {4, 2, 6}} {
		p := ProjectSurface(testSurfaceDef(), testCamera(pos), 800, 600)
		require.True(t, p.Visible, "camera at %v", pos)
		for i, c := range p.Corners {
			s, u, _ := p.Unproject(c.X(), c.Y())
			assert.InDelta(t, want[i][0], s, 1e-3, "corner %d from %v", i, pos)
			assert.InDelta(t, want[i][1], u, 1e-3, "corner %d from %v", i, pos)
		}
	}
}

func TestProjectSurface_DiagonalsMeetAtCenter(t *testing.T) {
	p := ProjectSurface(testSurfaceDef(), testCamera(mgl32.Vec3{0, 3, 8}), 800, 600)
	require.True(t, p.Visible)

	// intersection of the projected diagonals is the projected center
	a, b, c, d := p.Corners[0], p.Corners[2], p.Corners[1], p.Corners[3]
	r := b.Sub(a)
	q := d.Sub(c)
	denom := r.X()*q.Y() - r.Y()*q.X()
	require.NotZero(t, denom)
	k := ((c.X()-a.X())*q.Y() - (c.Y()-a.Y())*q.X()) / denom
	x, y := a.X()+k*r.X(), a.Y()+k*r.Y()

	s, u, ok := p.Unproject(x, y)
	require.True(t, ok)
	assert.InDelta(t, 0.5, s, 1e-3)
	assert.InDelta(t, 0.5, u, 1e-3)

	px, py, ok := p.SurfacePixel(testSurfaceDef(), x, y)
	require.True(t, ok)
	assert.InDelta(t, 200, px, 1)
	assert.InDelta(t, 150, py, 1)
}

func TestProjectSurface_OutsideQuad(t *testing.T) {
	p := ProjectSurface(testSurfaceDef(), testCamera(mgl32.Vec3{0, 0, 10}), 800, 600)
	_, _, ok := p.Unproject(1, 1)
	assert.False(t, ok)
	_, _, ok = p.SurfacePixel(testSurfaceDef(), 799, 599)
	assert.False(t, ok)
}

func TestProjectSurface_BehindCamera(t *testing.T) {
	cam := NewCamera(45, 1, 0.1, 100)
	cam.SetPose(CameraPose{Position: mgl32.Vec3{0, 0, -10}, LookAt: mgl32.Vec3{0, 0, -20}})

	p := ProjectSurface(testSurfaceDef(), cam, 800, 600)
	assert.False(t, p.Visible)
	_, _, ok := p.Unproject(400, 300)
	assert.False(t, ok)
}

func TestProjectSurface_EmptyViewport(t *testing.T) {
	p := ProjectSurface(testSurfaceDef(), testCamera(mgl32.Vec3{0, 0, 10}), 0, 600)
	assert.False(t, p.Visible)
}

func TestSurfaceDef_WorldCorners(t *testing.T) {
	def := SurfaceDef{Width: 200, Height: 100, Scale: 0.01, Position: mgl32.Vec3{1, 2, 3}}
	corners := def.WorldCorners()
	assertVec3(t, mgl32.Vec3{0, 2.5, 3}, corners[0])
	assertVec3(t, mgl32.Vec3{2, 1.5, 3}, corners[2])

	def.Rotation = mgl32.Vec3{mgl32.DegToRad(90), 0, 0}
	corners = def.WorldCorners()
	// laid flat: the top edge ends up toward +z
	assertVec3(t, mgl32.Vec3{0, 2, 3.5}, corners[0])
}

func assertVec3(t *testing.T, want, got mgl32.Vec3) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-5, "component %d of %v", i, got)
	}
}
