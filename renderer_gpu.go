package spotlight

import (
	"fmt"
	"math"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

const maxGpuLights = 8

const sceneShader = `
struct Light {
	pos_type: vec4<f32>,
	target_range: vec4<f32>,
	color_intensity: vec4<f32>,
	ground_decay: vec4<f32>,
	cone: vec4<f32>,
};

struct Uniforms {
	view_proj: mat4x4<f32>,
	camera_pos: vec4<f32>,
	// exposure, grid spacing, light count, unused
	params: vec4<f32>,
	lights: array<Light, 8>,
};

@group(0) @binding(0) var<uniform> u: Uniforms;

struct VsIn {
	@location(0) position: vec3<f32>,
	@location(1) normal: vec3<f32>,
	@location(2) color: vec3<f32>,
	@location(3) material: f32,
};

struct VsOut {
	@builtin(position) clip: vec4<f32>,
	@location(0) world: vec3<f32>,
	@location(1) normal: vec3<f32>,
	@location(2) color: vec3<f32>,
	@location(3) material: f32,
};

@vertex
fn vs_main(in: VsIn) -> VsOut {
	var out: VsOut;
	var clip = u.view_proj * vec4<f32>(in.position, 1.0);
	// GL style depth range to WebGPU [0,1]
	clip.z = (clip.z + clip.w) * 0.5;
	out.clip = clip;
	out.world = in.position;
	out.normal = in.normal;
	out.color = in.color;
	out.material = in.material;
	return out;
}

fn grid_line(coord: f32, spacing: f32) -> f32 {
	let f = fract(coord / spacing);
	return select(0.0, 1.0, f < 0.02 || f > 0.98);
}

@fragment
fn fs_main(in: VsOut) -> @location(0) vec4<f32> {
	if (in.material > 1.5) {
		return vec4<f32>(in.color, 1.0);
	}
	var base = in.color;
	if (in.material > 0.5 && u.params.y > 0.0) {
		let line = max(grid_line(in.world.x, u.params.y), grid_line(in.world.z, u.params.y));
		base = mix(base, base * 1.8, line);
	}
	var n = in.normal;
	if (length(n) > 0.0) {
		n = normalize(n);
	}
	var acc = vec3<f32>(0.0);
	let count = u32(u.params.z);
	for (var i = 0u; i < count; i = i + 1u) {
		let l = u.lights[i];
		let kind = u32(l.pos_type.w);
		let col = l.color_intensity.rgb;
		let intensity = l.color_intensity.w;
		if (kind == 3u) {
			acc = acc + col * intensity;
			continue;
		}
		if (kind == 4u) {
			let t = n.y * 0.5 + 0.5;
			acc = acc + mix(l.ground_decay.rgb, col, t) * intensity;
			continue;
		}
		let to_light = l.pos_type.xyz - in.world;
		let dist = length(to_light);
		let range = l.target_range.w;
		if (dist == 0.0 || (range > 0.0 && dist > range)) {
			continue;
		}
		let dir = to_light / dist;
		let ndotl = max(dot(n, dir), 0.0);
		var cone = 1.0;
		if (kind == 2u) {
			var axis = l.target_range.xyz - l.pos_type.xyz;
			if (length(axis) > 0.0) {
				axis = normalize(axis);
			}
			cone = smoothstep(l.cone.x, l.cone.y, dot(axis, -dir));
		}
		var atten = 1.0;
		if (range > 0.0) {
			atten = pow(clamp(1.0 - dist / range, 0.0, 1.0), max(l.ground_decay.w, 0.0));
		}
		acc = acc + col * (intensity * l.cone.z * cone * atten * ndotl);
	}
	let c = base * acc * u.params.x;
	return vec4<f32>(c / (vec3<f32>(1.0) + c), 1.0);
}
`

type gpuLight struct {
	PosType        mgl32.Vec4
	TargetRange    mgl32.Vec4
	ColorIntensity mgl32.Vec4
	GroundDecay    mgl32.Vec4
	Cone           mgl32.Vec4
}

type sceneUniforms struct {
	ViewProj  mgl32.Mat4
	CameraPos mgl32.Vec4
	Params    mgl32.Vec4
	Lights    [maxGpuLights]gpuLight
}

func packLights(lights []LightDef) ([maxGpuLights]gpuLight, int) {
	var out [maxGpuLights]gpuLight
	n := min(len(lights), maxGpuLights)
	for i := 0; i < n; i++ {
		l := lights[i]
		cosOuter := float32(math.Cos(float64(l.ConeAngle)))
		cosInner := float32(math.Cos(float64(l.ConeAngle * (1 - l.Penumbra))))
		out[i] = gpuLight{
			PosType:        l.Position.Vec4(float32(l.Type)),
			TargetRange:    l.Target.Vec4(l.Range),
			ColorIntensity: mgl32.Vec3(l.Color).Vec4(l.Intensity),
			GroundDecay:    mgl32.Vec3(l.GroundColor).Vec4(l.Decay),
			Cone:           mgl32.Vec4{cosOuter, cosInner, spotIntensityScale, 0},
		}
	}
	return out, n
}

// gpuSceneRenderer draws the lit scene layer. It clears the frame and owns
// the depth buffer.
type gpuSceneRenderer struct {
	gpu        *GpuState
	pipeline   *wgpu.RenderPipeline
	uniformBuf *wgpu.Buffer
	bindGroup  *wgpu.BindGroup

	vertexBuf    *wgpu.Buffer
	indexBuf     *wgpu.Buffer
	indexCount   uint32
	meshVersion  uint64
	meshUploaded bool

	depthTex  *wgpu.Texture
	depthView *wgpu.TextureView
	width     int
	height    int
}

func newGpuSceneRenderer(gpu *GpuState) (*gpuSceneRenderer, error) {
	r := &gpuSceneRenderer{gpu: gpu}
	var err error
	r.pipeline, err = createRenderPipeline("Scene", sceneShader, pipelineOptions{vertexType: Vertex{}, depth: true}, gpu)
	if err != nil {
		return nil, err
	}
	r.uniformBuf, err = createUniformBuffer("Scene Uniforms", wgpu.ToBytes([]sceneUniforms{{}}), gpu)
	if err != nil {
		r.Dispose()
		return nil, err
	}
	r.bindGroup, err = createBindGroup(r.pipeline, 0, []wgpu.BindGroupEntry{
		{Binding: 0, Buffer: r.uniformBuf, Size: wgpu.WholeSize},
	}, gpu.device)
	if err != nil {
		r.Dispose()
		return nil, err
	}
	r.SetViewportSize(int(gpu.surfaceConfig.Width), int(gpu.surfaceConfig.Height))
	return r, nil
}

func (r *gpuSceneRenderer) SetViewportSize(width, height int) {
	if width <= 0 || height <= 0 || (width == r.width && height == r.height && r.depthView != nil) {
		return
	}
	r.gpu.Resize(width, height)
	r.releaseDepth()
	tex, view, err := createDepthTexture(width, height, r.gpu)
	if err != nil {
		// next Render reports the missing depth buffer
		return
	}
	r.depthTex, r.depthView = tex, view
	r.width, r.height = width, height
}

func (r *gpuSceneRenderer) uploadMesh(scene *Scene) error {
	if r.meshUploaded && r.meshVersion == scene.Version() {
		return nil
	}
	r.releaseMesh()
	mesh := scene.Flatten()
	r.meshVersion = scene.Version()
	r.meshUploaded = true
	if len(mesh.Indices) == 0 {
		return nil
	}
	vb, ib, err := createVertexIndexBuffers(mesh.Vertices, mesh.Indices, r.gpu.device)
	if err != nil {
		return err
	}
	r.vertexBuf, r.indexBuf, r.indexCount = vb, ib, uint32(len(mesh.Indices))
	return nil
}

func (r *gpuSceneRenderer) Render(scene *Scene, camera *CameraComponent) error {
	if r.depthView == nil {
		return fmt.Errorf("scene layer has no depth buffer for %dx%d", r.width, r.height)
	}
	if err := r.uploadMesh(scene); err != nil {
		return err
	}

	lights, count := packLights(scene.Lights)
	uniforms := sceneUniforms{
		ViewProj:  camera.ViewProjection(),
		CameraPos: camera.Position.Vec4(1),
		Params:    mgl32.Vec4{scene.Exposure, scene.Floor.GridSpacing, float32(count), 0},
		Lights:    lights,
	}
	if err := r.gpu.queue.WriteBuffer(r.uniformBuf, 0, wgpu.ToBytes([]sceneUniforms{uniforms})); err != nil {
		return fmt.Errorf("write scene uniforms: %w", err)
	}

	frame, err := r.gpu.beginFrame()
	if err != nil {
		return err
	}
	bg := scene.Background
	pass := frame.encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       frame.view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{R: float64(bg[0]), G: float64(bg[1]), B: float64(bg[2]), A: 1},
		}},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            r.depthView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	})
	if r.indexCount > 0 {
		pass.SetPipeline(r.pipeline)
		pass.SetBindGroup(0, r.bindGroup, nil)
		pass.SetVertexBuffer(0, r.vertexBuf, 0, wgpu.WholeSize)
		pass.SetIndexBuffer(r.indexBuf, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
		pass.DrawIndexed(r.indexCount, 1, 0, 0, 0)
	}
	if err := pass.End(); err != nil {
		return fmt.Errorf("scene pass: %w", err)
	}
	return nil
}

func (r *gpuSceneRenderer) releaseMesh() {
	if r.vertexBuf != nil {
		r.vertexBuf.Release()
		r.vertexBuf = nil
	}
	if r.indexBuf != nil {
		r.indexBuf.Release()
		r.indexBuf = nil
	}
	r.indexCount = 0
	r.meshUploaded = false
}

func (r *gpuSceneRenderer) releaseDepth() {
	if r.depthView != nil {
		r.depthView.Release()
		r.depthView = nil
	}
	if r.depthTex != nil {
		r.depthTex.Release()
		r.depthTex = nil
	}
}

func (r *gpuSceneRenderer) Dispose() {
	r.releaseMesh()
	r.releaseDepth()
	if r.bindGroup != nil {
		r.bindGroup.Release()
		r.bindGroup = nil
	}
	if r.uniformBuf != nil {
		r.uniformBuf.Release()
		r.uniformBuf = nil
	}
	if r.pipeline != nil {
		r.pipeline.Release()
		r.pipeline = nil
	}
}

const surfaceShader = `
struct Quad {
	corners: array<vec4<f32>, 4>,
};

@group(0) @binding(0) var<uniform> quad: Quad;
@group(0) @binding(1) var content: texture_2d<f32>;
@group(0) @binding(2) var content_sampler: sampler;

struct VsOut {
	@builtin(position) clip: vec4<f32>,
	@location(0) uv: vec2<f32>,
};

@vertex
fn vs_main(@builtin(vertex_index) index: u32) -> VsOut {
	var order = array<u32, 6>(0u, 1u, 2u, 0u, 2u, 3u);
	var uvs = array<vec2<f32>, 4>(
		vec2<f32>(0.0, 0.0),
		vec2<f32>(1.0, 0.0),
		vec2<f32>(1.0, 1.0),
		vec2<f32>(0.0, 1.0),
	);
	let corner = order[index];
	var out: VsOut;
	var clip = quad.corners[corner];
	// drawn over the scene without depth testing
	clip.z = 0.0;
	out.clip = clip;
	out.uv = uvs[corner];
	return out;
}

@fragment
fn fs_main(in: VsOut) -> @location(0) vec4<f32> {
	return textureSample(content, content_sampler, in.uv);
}
`

// gpuSurfaceRenderer draws the screen surface as a textured quad over the
// scene layer, using the same camera.
type gpuSurfaceRenderer struct {
	gpu        *GpuState
	surfaceDef SurfaceDef
	surface    *Surface
	attached   bool

	pipeline    *wgpu.RenderPipeline
	uniformBuf  *wgpu.Buffer
	sampler     *wgpu.Sampler
	texture     *wgpu.Texture
	textureView *wgpu.TextureView
	bindGroup   *wgpu.BindGroup
	uploaded    uint64
	hasUpload   bool

	width     int
	height    int
	projected ProjectedSurface
}

func newGpuSurfaceRenderer(gpu *GpuState, def SurfaceDef, surface *Surface) (*gpuSurfaceRenderer, error) {
	r := &gpuSurfaceRenderer{gpu: gpu, surfaceDef: def, surface: surface, attached: true}
	var err error
	r.pipeline, err = createRenderPipeline("Surface", surfaceShader, pipelineOptions{blend: alphaBlend}, gpu)
	if err != nil {
		return nil, err
	}
	r.uniformBuf, err = createUniformBuffer("Surface Quad", wgpu.ToBytes(make([]mgl32.Vec4, 4)), gpu)
	if err != nil {
		r.Dispose()
		return nil, err
	}
	r.sampler, err = gpu.device.CreateSampler(&wgpu.SamplerDescriptor{
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeLinear,
		MaxAnisotropy: 1,
	})
	if err != nil {
		r.Dispose()
		return nil, fmt.Errorf("surface sampler: %w", err)
	}
	b := surface.Bounds()
	r.texture, r.textureView, err = createRGBATexture("Surface Content", b.Dx(), b.Dy(), gpu)
	if err != nil {
		r.Dispose()
		return nil, err
	}
	r.bindGroup, err = createBindGroup(r.pipeline, 0, []wgpu.BindGroupEntry{
		{Binding: 0, Buffer: r.uniformBuf, Size: wgpu.WholeSize},
		{Binding: 1, TextureView: r.textureView},
		{Binding: 2, Sampler: r.sampler},
	}, gpu.device)
	if err != nil {
		r.Dispose()
		return nil, err
	}
	r.width, r.height = int(gpu.surfaceConfig.Width), int(gpu.surfaceConfig.Height)
	return r, nil
}

func (r *gpuSurfaceRenderer) Surface() *Surface {
	return r.surface
}

func (r *gpuSurfaceRenderer) Attach() {
	r.attached = true
}

func (r *gpuSurfaceRenderer) Detach() {
	r.attached = false
}

func (r *gpuSurfaceRenderer) Projected() ProjectedSurface {
	return r.projected
}

func (r *gpuSurfaceRenderer) SetViewportSize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	r.gpu.Resize(width, height)
	r.width, r.height = width, height
}

func (r *gpuSurfaceRenderer) Render(scene *Scene, camera *CameraComponent) error {
	r.surfaceDef = scene.Surface
	r.projected = ProjectSurface(r.surfaceDef, camera, r.width, r.height)
	if !r.attached || !r.projected.Visible {
		return nil
	}

	if !r.hasUpload || r.uploaded != r.surface.Version() {
		b := r.surface.Bounds()
		if err := writeRGBATexture(r.texture, r.surface.Image.Pix, b.Dx(), b.Dy(), r.gpu); err != nil {
			return fmt.Errorf("upload surface: %w", err)
		}
		r.uploaded, r.hasUpload = r.surface.Version(), true
	}
	if err := r.gpu.queue.WriteBuffer(r.uniformBuf, 0, wgpu.ToBytes(r.projected.Clip[:])); err != nil {
		return fmt.Errorf("write surface quad: %w", err)
	}

	frame, err := r.gpu.beginFrame()
	if err != nil {
		return err
	}
	pass := frame.encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:    frame.view,
			LoadOp:  wgpu.LoadOpLoad,
			StoreOp: wgpu.StoreOpStore,
		}},
	})
	pass.SetPipeline(r.pipeline)
	pass.SetBindGroup(0, r.bindGroup, nil)
	pass.Draw(6, 1, 0, 0)
	if err := pass.End(); err != nil {
		return fmt.Errorf("surface pass: %w", err)
	}
	return nil
}

func (r *gpuSurfaceRenderer) Dispose() {
	if r.bindGroup != nil {
		r.bindGroup.Release()
		r.bindGroup = nil
	}
	if r.textureView != nil {
		r.textureView.Release()
		r.textureView = nil
	}
	if r.texture != nil {
		r.texture.Release()
		r.texture = nil
	}
	if r.sampler != nil {
		r.sampler.Release()
		r.sampler = nil
	}
	if r.uniformBuf != nil {
		r.uniformBuf.Release()
		r.uniformBuf = nil
	}
	if r.pipeline != nil {
		r.pipeline.Release()
		r.pipeline = nil
	}
	r.attached = false
}
