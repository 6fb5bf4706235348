package spotlight

import (
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// writeTestModel saves a GLB with one triangle mesh referenced by a parent
// and a child node.
func writeTestModel(t *testing.T) string {
	t.Helper()
	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	ind := modeler.WriteIndices(doc, []uint16{0, 1, 2})
	doc.Materials = []*gltf.Material{{
		Name:                 "aluminium",
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{BaseColorFactor: &[4]float64{0.5, 0.5, 1, 1}},
	}}
	doc.Meshes = []*gltf.Mesh{{
		Name: "lid",
		Primitives: []*gltf.Primitive{{
			Indices:    gltf.Index(ind),
			Attributes: gltf.PrimitiveAttributes{gltf.POSITION: pos},
			Material:   gltf.Index(0),
		}},
	}}
	doc.Nodes = []*gltf.Node{
		{Name: "base", Mesh: gltf.Index(0), Translation: [3]float64{0, 2, 0}, Rotation: gltf.DefaultRotation, Scale: gltf.DefaultScale, Children: []int{1}},
		{Name: "hinge", Mesh: gltf.Index(0), Translation: [3]float64{1, 0, 0}, Rotation: gltf.DefaultRotation, Scale: gltf.DefaultScale},
	}
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)

	path := filepath.Join(t.TempDir(), "laptop.glb")
	if err := gltf.SaveBinary(doc, path); err != nil {
		t.Fatalf("save model: %v", err)
	}
	return path
}

func TestLoadModel(t *testing.T) {
	server := NewAssetServer()
	model, err := server.LoadModel(writeTestModel(t), mgl32.Ident4(), 0.5)
	if err != nil {
		t.Fatalf("LoadModel: %v", err)
	}

	if len(model.Instances) != 2 {
		t.Fatalf("Expected 2 instances, got %d", len(model.Instances))
	}
	if model.Instances[0].Mesh != model.Instances[1].Mesh {
		t.Errorf("Expected the shared mesh to be read once")
	}

	mesh := model.Instances[0].Mesh
	if len(mesh.Vertices) != 3 || len(mesh.Indices) != 3 {
		t.Fatalf("Expected 3 vertices and 3 indices, got %d and %d", len(mesh.Vertices), len(mesh.Indices))
	}
	if got := mesh.Vertices[0].Color; got != (mgl32.Vec3{0.25, 0.25, 0.5}) {
		t.Errorf("Expected tinted base color, got %v", got)
	}
	if n := mesh.Vertices[0].Normal; n.Sub(mgl32.Vec3{0, 0, 1}).Len() > 1e-5 {
		t.Errorf("Expected computed normal +z, got %v", n)
	}

	// child inherits the parent translation
	if model.Min != (mgl32.Vec3{0, 2, 0}) || model.Max != (mgl32.Vec3{2, 3, 0}) {
		t.Errorf("Unexpected bounds %v..%v", model.Min, model.Max)
	}
	if _, ok := server.Model(model.Id); !ok {
		t.Errorf("Expected model to be registered under %s", model.Id)
	}
}

func TestLoadModel_RootTransform(t *testing.T) {
	server := NewAssetServer()
	root := mgl32.Translate3D(0, -2, 0).Mul4(mgl32.Scale3D(2, 2, 2))
	model, err := server.LoadModel(writeTestModel(t), root, 1)
	if err != nil {
		t.Fatalf("LoadModel: %v", err)
	}
	if model.Min != (mgl32.Vec3{0, 2, 0}) || model.Max != (mgl32.Vec3{4, 4, 0}) {
		t.Errorf("Unexpected bounds %v..%v", model.Min, model.Max)
	}
}

func TestLoadModel_Missing(t *testing.T) {
	server := NewAssetServer()
	_, err := server.LoadModel(filepath.Join(t.TempDir(), "macbook.glb"), mgl32.Ident4(), 1)
	if !errors.Is(err, ErrModelNotFound) {
		t.Errorf("Expected ErrModelNotFound, got %v", err)
	}
}

func TestLoadImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallpaper.png")
	src := imaging.New(8, 4, color.NRGBA{0x20, 0x40, 0x80, 0xff})
	if err := imaging.Save(src, path); err != nil {
		t.Fatalf("save image: %v", err)
	}

	server := NewAssetServer()
	asset, err := server.LoadImage(path)
	if err != nil {
		t.Fatalf("LoadImage: %v", err)
	}
	if asset.Image.Bounds() != image.Rect(0, 0, 8, 4) {
		t.Errorf("Unexpected bounds %v", asset.Image.Bounds())
	}
	if _, ok := server.Image(asset.Id); !ok {
		t.Errorf("Expected image to be registered")
	}

	if _, err := server.LoadImage(filepath.Join(t.TempDir(), "nope.png")); err == nil {
		t.Errorf("Expected error for missing image")
	}
}

func TestComputeNormals(t *testing.T) {
	m := &Mesh{
		Vertices: []Vertex{
			{Position: mgl32.Vec3{0, 0, 0}},
			{Position: mgl32.Vec3{0, 0, 1}},
			{Position: mgl32.Vec3{1, 0, 0}},
		},
		Indices: []uint32{0, 1, 2, 0, 1, 7},
	}
	computeNormals(m)
	for i, v := range m.Vertices {
		if v.Normal.Sub(mgl32.Vec3{0, 1, 0}).Len() > 1e-5 {
			t.Errorf("vertex %d: expected +y normal, got %v", i, v.Normal)
		}
	}
}

func TestNodeTransform(t *testing.T) {
	node := &gltf.Node{Translation: [3]float64{1, 2, 3}, Scale: [3]float64{2, 2, 2}}
	p := mgl32.TransformCoordinate(mgl32.Vec3{1, 1, 1}, nodeTransform(node))
	if p.Sub(mgl32.Vec3{3, 4, 5}).Len() > 1e-5 {
		t.Errorf("Expected (3,4,5), got %v", p)
	}

	if nodeTransform(&gltf.Node{}) != mgl32.Ident4() {
		t.Errorf("Expected identity for an empty node")
	}
}
