package spotlight

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"

	"github.com/disintegration/imaging"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

var ErrModelNotFound = errors.New("model not found")

type AssetId string

// ModelAsset is a loaded model flattened into mesh instances.
type ModelAsset struct {
	Id        AssetId
	Path      string
	Instances []MeshInstance
	Min, Max  mgl32.Vec3
}

type ImageAsset struct {
	Id    AssetId
	Path  string
	Image image.Image
}

type AssetServer struct {
	models map[AssetId]*ModelAsset
	images map[AssetId]*ImageAsset
}

type AssetServerModule struct{}

func (AssetServerModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(NewAssetServer())
}

func NewAssetServer() *AssetServer {
	return &AssetServer{
		models: make(map[AssetId]*ModelAsset),
		images: make(map[AssetId]*ImageAsset),
	}
}

func (server *AssetServer) Model(id AssetId) (*ModelAsset, bool) {
	m, ok := server.models[id]
	return m, ok
}

func (server *AssetServer) Image(id AssetId) (*ImageAsset, bool) {
	img, ok := server.images[id]
	return img, ok
}

// LoadImage decodes an image file. Format is detected from the content.
func (server *AssetServer) LoadImage(path string) (*ImageAsset, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load image %s: %w", path, err)
	}
	asset := &ImageAsset{Id: makeAssetId(), Path: path, Image: img}
	server.images[asset.Id] = asset
	return asset, nil
}

// LoadModel reads a glTF/GLB file. Vertex colors come from the material base
// color, darkened by tint. root is applied on top of the node hierarchy.
func (server *AssetServer) LoadModel(path string, root mgl32.Mat4, tint float32) (*ModelAsset, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, path)
	}
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model %s: %w", path, err)
	}

	asset := &ModelAsset{Id: makeAssetId(), Path: path}
	meshes := make(map[int]*Mesh)

	var visit func(nodeIdx int, parent mgl32.Mat4) error
	visit = func(nodeIdx int, parent mgl32.Mat4) error {
		if nodeIdx < 0 || nodeIdx >= len(doc.Nodes) {
			return fmt.Errorf("node %d out of range", nodeIdx)
		}
		node := doc.Nodes[nodeIdx]
		world := parent.Mul4(nodeTransform(node))
		if node.Mesh != nil {
			mesh, ok := meshes[*node.Mesh]
			if !ok {
				mesh, err = readMesh(doc, *node.Mesh, tint)
				if err != nil {
					return err
				}
				meshes[*node.Mesh] = mesh
			}
			asset.Instances = append(asset.Instances, MeshInstance{Mesh: mesh, Transform: world})
		}
		for _, child := range node.Children {
			if err := visit(child, world); err != nil {
				return err
			}
		}
		return nil
	}

	for _, nodeIdx := range rootNodes(doc) {
		if err := visit(nodeIdx, root); err != nil {
			return nil, fmt.Errorf("load model %s: %w", path, err)
		}
	}
	if len(asset.Instances) == 0 {
		return nil, fmt.Errorf("load model %s: no meshes", path)
	}
	asset.Min, asset.Max = modelBounds(asset.Instances)
	server.models[asset.Id] = asset
	return asset, nil
}

func rootNodes(doc *gltf.Document) []int {
	if len(doc.Scenes) > 0 {
		idx := 0
		if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
			idx = *doc.Scene
		}
		return doc.Scenes[idx].Nodes
	}
	// no scenes: treat every node nobody references as a root
	child := make(map[int]bool)
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			child[c] = true
		}
	}
	var roots []int
	for i := range doc.Nodes {
		if !child[i] {
			roots = append(roots, i)
		}
	}
	return roots
}

func nodeTransform(node *gltf.Node) mgl32.Mat4 {
	if node.Matrix != [16]float64{} && node.Matrix != gltf.DefaultMatrix {
		var m mgl32.Mat4
		for i, v := range node.Matrix {
			m[i] = float32(v)
		}
		return m
	}
	t := node.Translation
	r := node.Rotation
	s := node.Scale
	if r == [4]float64{} {
		r = [4]float64{0, 0, 0, 1}
	}
	if s == [3]float64{} {
		s = [3]float64{1, 1, 1}
	}
	q := mgl32.Quat{W: float32(r[3]), V: mgl32.Vec3{float32(r[0]), float32(r[1]), float32(r[2])}}.Normalize()
	return mgl32.Translate3D(float32(t[0]), float32(t[1]), float32(t[2])).
		Mul4(q.Mat4()).
		Mul4(mgl32.Scale3D(float32(s[0]), float32(s[1]), float32(s[2])))
}

func readMesh(doc *gltf.Document, meshIdx int, tint float32) (*Mesh, error) {
	if meshIdx < 0 || meshIdx >= len(doc.Meshes) {
		return nil, fmt.Errorf("mesh %d out of range", meshIdx)
	}
	src := doc.Meshes[meshIdx]
	mesh := &Mesh{Name: src.Name}
	for pi, prim := range src.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			continue
		}
		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}
		positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
		if err != nil {
			return nil, fmt.Errorf("mesh %q primitive %d positions: %w", src.Name, pi, err)
		}
		var normals [][3]float32
		if nIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
			normals, err = modeler.ReadNormal(doc, doc.Accessors[nIdx], nil)
			if err != nil {
				return nil, fmt.Errorf("mesh %q primitive %d normals: %w", src.Name, pi, err)
			}
		}
		var indices []uint32
		if prim.Indices != nil {
			indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
			if err != nil {
				return nil, fmt.Errorf("mesh %q primitive %d indices: %w", src.Name, pi, err)
			}
		} else {
			indices = make([]uint32, len(positions))
			for i := range indices {
				indices[i] = uint32(i)
			}
		}

		color := materialColor(doc, prim.Material).Mul(tint)
		part := &Mesh{Indices: indices}
		for i, p := range positions {
			v := Vertex{Position: mgl32.Vec3(p), Color: color}
			if i < len(normals) {
				v.Normal = mgl32.Vec3(normals[i])
			}
			part.Vertices = append(part.Vertices, v)
		}
		if len(normals) == 0 {
			computeNormals(part)
		}
		mesh.append(part, mgl32.Ident4())
	}
	return mesh, nil
}

func materialColor(doc *gltf.Document, material *int) mgl32.Vec3 {
	fallback := mgl32.Vec3{0.6, 0.6, 0.62}
	if material == nil || *material < 0 || *material >= len(doc.Materials) {
		return fallback
	}
	pbr := doc.Materials[*material].PBRMetallicRoughness
	if pbr == nil || pbr.BaseColorFactor == nil {
		return fallback
	}
	f := pbr.BaseColorFactor
	return mgl32.Vec3{float32(f[0]), float32(f[1]), float32(f[2])}
}

// computeNormals fills smooth normals by accumulating face normals.
func computeNormals(m *Mesh) {
	for i := 0; i+2 < len(m.Indices); i += 3 {
		a, b, c := m.Indices[i], m.Indices[i+1], m.Indices[i+2]
		if int(max(a, b, c)) >= len(m.Vertices) {
			continue
		}
		pa, pb, pc := m.Vertices[a].Position, m.Vertices[b].Position, m.Vertices[c].Position
		n := pb.Sub(pa).Cross(pc.Sub(pa))
		m.Vertices[a].Normal = m.Vertices[a].Normal.Add(n)
		m.Vertices[b].Normal = m.Vertices[b].Normal.Add(n)
		m.Vertices[c].Normal = m.Vertices[c].Normal.Add(n)
	}
	for i := range m.Vertices {
		if m.Vertices[i].Normal.Len() > 0 {
			m.Vertices[i].Normal = m.Vertices[i].Normal.Normalize()
		}
	}
}

func modelBounds(instances []MeshInstance) (mgl32.Vec3, mgl32.Vec3) {
	first := true
	var lo, hi mgl32.Vec3
	for _, inst := range instances {
		for _, v := range inst.Mesh.Vertices {
			p := mgl32.TransformCoordinate(v.Position, inst.Transform)
			if first {
				lo, hi, first = p, p, false
				continue
			}
			for k := 0; k < 3; k++ {
				lo[k] = min(lo[k], p[k])
				hi[k] = max(hi[k], p[k])
			}
		}
	}
	return lo, hi
}

func makeAssetId() AssetId {
	return AssetId(uuid.NewString())
}
