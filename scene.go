package spotlight

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Vertex is the scene layer vertex layout. Material selects the shading:
// materialLit, materialGrid for the floor pattern or materialUnlit.
type Vertex struct {
	Position mgl32.Vec3 `gekko:"layout" location:"0" format:"float3"`
	Normal   mgl32.Vec3 `gekko:"layout" location:"1" format:"float3"`
	Color    mgl32.Vec3 `gekko:"layout" location:"2" format:"float3"`
	Material float32    `gekko:"layout" location:"3" format:"float"`
}

const (
	materialLit   float32 = 0
	materialGrid  float32 = 1
	materialUnlit float32 = 2
)

type Mesh struct {
	Name     string
	Vertices []Vertex
	Indices  []uint32
}

func (m *Mesh) append(other *Mesh, transform mgl32.Mat4) {
	base := uint32(len(m.Vertices))
	normalMx := transform.Mat3().Inv().Transpose()
	for _, v := range other.Vertices {
		n := normalMx.Mul3x1(v.Normal)
		if n.Len() > 0 {
			n = n.Normalize()
		}
		m.Vertices = append(m.Vertices, Vertex{
			Position: mgl32.TransformCoordinate(v.Position, transform),
			Normal:   n,
			Color:    v.Color,
			Material: v.Material,
		})
	}
	for _, idx := range other.Indices {
		m.Indices = append(m.Indices, base+idx)
	}
}

// MeshInstance places a mesh in the world.
type MeshInstance struct {
	Mesh      *Mesh
	Transform mgl32.Mat4
}

type FloorDef struct {
	Size        float32
	Y           float32
	Color       [3]float32
	GridSpacing float32
}

func DefaultFloorDef() FloorDef {
	return FloorDef{
		Size:        50,
		Y:           -0.008,
		Color:       hexColor(0x333333),
		GridSpacing: 50.0 / 64.0,
	}
}

// Scene is everything the scene layer draws plus the surface placement the
// surface layer projects.
type Scene struct {
	Instances  []MeshInstance
	Lights     []LightDef
	Surface    SurfaceDef
	Floor      FloorDef
	Background [3]float32
	Exposure   float32
	version    uint64
}

type SceneDef struct {
	Model    *ModelAsset
	Lights   []LightDef
	Surface  SurfaceDef
	Floor    FloorDef
	Exposure float32
}

// BuildScene assembles the laptop scene. Without a model the procedural
// laptop stands in.
func BuildScene(def SceneDef) *Scene {
	scene := &Scene{
		Lights:     def.Lights,
		Surface:    def.Surface,
		Floor:      def.Floor,
		Background: [3]float32{0, 0, 0},
		Exposure:   def.Exposure,
	}
	if scene.Exposure <= 0 {
		scene.Exposure = 1.2
	}
	if def.Floor.Size > 0 {
		scene.Add(floorMesh(def.Floor), mgl32.Ident4())
	}
	if def.Model != nil {
		for _, inst := range def.Model.Instances {
			scene.Add(inst.Mesh, inst.Transform)
		}
	} else {
		for _, inst := range proceduralLaptop(def.Surface) {
			scene.Add(inst.Mesh, inst.Transform)
		}
	}
	return scene
}

func (s *Scene) Add(mesh *Mesh, transform mgl32.Mat4) {
	s.Instances = append(s.Instances, MeshInstance{Mesh: mesh, Transform: transform})
	s.version++
}

// Version changes whenever geometry is added.
func (s *Scene) Version() uint64 {
	return s.version
}

// Flatten bakes all instances into one world-space mesh.
func (s *Scene) Flatten() *Mesh {
	out := &Mesh{Name: "scene"}
	for _, inst := range s.Instances {
		out.append(inst.Mesh, inst.Transform)
	}
	return out
}

func floorMesh(def FloorDef) *Mesh {
	h := def.Size / 2
	col := mgl32.Vec3(def.Color)
	up := mgl32.Vec3{0, 1, 0}
	return &Mesh{
		Name: "floor",
		Vertices: []Vertex{
			{Position: mgl32.Vec3{-h, def.Y, -h}, Normal: up, Color: col, Material: materialGrid},
			{Position: mgl32.Vec3{-h, def.Y, h}, Normal: up, Color: col, Material: materialGrid},
			{Position: mgl32.Vec3{h, def.Y, h}, Normal: up, Color: col, Material: materialGrid},
			{Position: mgl32.Vec3{h, def.Y, -h}, Normal: up, Color: col, Material: materialGrid},
		},
		Indices: []uint32{0, 1, 2, 0, 2, 3},
	}
}

// boxMesh builds an axis-aligned box centered on the origin with CCW faces.
func boxMesh(name string, size mgl32.Vec3, color mgl32.Vec3) *Mesh {
	hx, hy, hz := size.X()/2, size.Y()/2, size.Z()/2
	faces := []struct {
		normal mgl32.Vec3
		quad   [4]mgl32.Vec3
	}{
		{mgl32.Vec3{0, 0, 1}, [4]mgl32.Vec3{{-hx, -hy, hz}, {hx, -hy, hz}, {hx, hy, hz}, {-hx, hy, hz}}},
		{mgl32.Vec3{0, 0, -1}, [4]mgl32.Vec3{{hx, -hy, -hz}, {-hx, -hy, -hz}, {-hx, hy, -hz}, {hx, hy, -hz}}},
		{mgl32.Vec3{1, 0, 0}, [4]mgl32.Vec3{{hx, -hy, hz}, {hx, -hy, -hz}, {hx, hy, -hz}, {hx, hy, hz}}},
		{mgl32.Vec3{-1, 0, 0}, [4]mgl32.Vec3{{-hx, -hy, -hz}, {-hx, -hy, hz}, {-hx, hy, hz}, {-hx, hy, -hz}}},
		{mgl32.Vec3{0, 1, 0}, [4]mgl32.Vec3{{-hx, hy, hz}, {hx, hy, hz}, {hx, hy, -hz}, {-hx, hy, -hz}}},
		{mgl32.Vec3{0, -1, 0}, [4]mgl32.Vec3{{-hx, -hy, -hz}, {hx, -hy, -hz}, {hx, -hy, hz}, {-hx, -hy, hz}}},
	}
	mesh := &Mesh{Name: name}
	for _, f := range faces {
		base := uint32(len(mesh.Vertices))
		for _, p := range f.quad {
			mesh.Vertices = append(mesh.Vertices, Vertex{Position: p, Normal: f.normal, Color: color})
		}
		mesh.Indices = append(mesh.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	return mesh
}

// proceduralLaptop builds a base and a lid sized around the screen surface.
func proceduralLaptop(surface SurfaceDef) []MeshInstance {
	body := mgl32.Vec3(hexColor(0x2b2b2e))
	bezel := mgl32.Vec3(hexColor(0x111113))

	screenW := surface.Width * surface.Scale
	screenH := surface.Height * surface.Scale
	baseDepth := screenH * 1.45

	base := boxMesh("laptop_base", mgl32.Vec3{screenW * 1.12, 0.012, baseDepth}, body)
	baseMx := mgl32.Translate3D(surface.Position.X(), 0.006, surface.Position.Z()+baseDepth/2)

	lid := boxMesh("laptop_lid", mgl32.Vec3{screenW * 1.08, screenH * 1.14, 0.006}, bezel)
	lidMx := mgl32.Translate3D(surface.Position.X(), surface.Position.Y(), surface.Position.Z()).
		Mul4(mgl32.HomogRotate3DX(surface.Rotation.X())).
		Mul4(mgl32.Translate3D(0, 0, -0.0035))

	return []MeshInstance{
		{Mesh: base, Transform: baseMx},
		{Mesh: lid, Transform: lidMx},
	}
}

// fallbackScreenMesh is the flat placeholder drawn in the scene layer when
// the surface layer is unavailable.
func fallbackScreenMesh(surface SurfaceDef) MeshInstance {
	w, h := 400*surface.Scale, 300*surface.Scale
	magenta := mgl32.Vec3{1, 0, 1}
	n := mgl32.Vec3{0, 0, 1}
	mesh := &Mesh{
		Name: "fallback_screen",
		Vertices: []Vertex{
			{Position: mgl32.Vec3{-w / 2, -h / 2, 0.0005}, Normal: n, Color: magenta, Material: materialUnlit},
			{Position: mgl32.Vec3{w / 2, -h / 2, 0.0005}, Normal: n, Color: magenta, Material: materialUnlit},
			{Position: mgl32.Vec3{w / 2, h / 2, 0.0005}, Normal: n, Color: magenta, Material: materialUnlit},
			{Position: mgl32.Vec3{-w / 2, h / 2, 0.0005}, Normal: n, Color: magenta, Material: materialUnlit},
		},
		Indices: []uint32{0, 1, 2, 0, 2, 3},
	}
	transform := mgl32.Translate3D(surface.Position.X(), surface.Position.Y(), surface.Position.Z()).
		Mul4(mgl32.HomogRotate3DX(surface.Rotation.X())).
		Mul4(mgl32.HomogRotate3DY(surface.Rotation.Y())).
		Mul4(mgl32.HomogRotate3DZ(surface.Rotation.Z()))
	return MeshInstance{Mesh: mesh, Transform: transform}
}
