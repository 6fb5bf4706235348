package spotlight

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

var ErrNoAdapter = errors.New("no compatible GPU adapter")

type WindowState struct {
	// glfw
	windowGlfw   *glfw.Window
	WindowWidth  int
	WindowHeight int
	windowTitle  string
}

// GpuState owns the device and the swapchain. Both render layers record into
// the same frame; Present submits it.
type GpuState struct {
	surface       *wgpu.Surface
	adapter       *wgpu.Adapter
	device        *wgpu.Device
	queue         *wgpu.Queue
	surfaceConfig *wgpu.SurfaceConfiguration
	frame         *gpuFrame
}

type gpuFrame struct {
	texture *wgpu.Texture
	view    *wgpu.TextureView
	encoder *wgpu.CommandEncoder
}

// createWindowState must run on the goroutine locked to the main thread.
func createWindowState(windowWidth int, windowHeight int, windowTitle string) (*WindowState, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("init glfw: %w", err)
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // Important: tell GLFW we don't want OpenGL
	glfw.WindowHint(glfw.Resizable, glfw.True)

	win, err := glfw.CreateWindow(windowWidth, windowHeight, windowTitle, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("create window: %w", err)
	}

	// framebuffer size differs from the window size on HiDPI displays
	fbWidth, fbHeight := win.GetFramebufferSize()
	return &WindowState{
		windowGlfw:   win,
		WindowWidth:  fbWidth,
		WindowHeight: fbHeight,
		windowTitle:  windowTitle,
	}, nil
}

func (s *WindowState) ShouldClose() bool {
	return s.windowGlfw == nil || s.windowGlfw.ShouldClose()
}

func (s *WindowState) Destroy() {
	if s.windowGlfw == nil {
		return
	}
	s.windowGlfw.Destroy()
	s.windowGlfw = nil
	glfw.Terminate()
}

func createGpuState(s *WindowState) (gpuState *GpuState, err error) {
	// the native layer panics on some driver failures
	defer func() {
		if r := recover(); r != nil {
			gpuState, err = nil, fmt.Errorf("gpu init panic: %v", r)
		}
	}()

	instance := wgpu.CreateInstance(nil)
	defer instance.Release()
	// wraps GLFW window into a wgpu surface.
	surface := instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(s.windowGlfw))
	// finds a suitable GPU (discrete GPU preferred)
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		surface.Release()
		return nil, fmt.Errorf("%w: %w", ErrNoAdapter, err)
	}
	// allocates the device and command queue
	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Spotlight Device",
	})
	if err != nil {
		adapter.Release()
		surface.Release()
		return nil, fmt.Errorf("request device: %w", err)
	}
	queue := device.GetQueue()

	caps := surface.GetCapabilities(adapter)
	if len(caps.Formats) == 0 || len(caps.AlphaModes) == 0 {
		device.Release()
		adapter.Release()
		surface.Release()
		return nil, fmt.Errorf("%w: surface reports no formats", ErrNoAdapter)
	}
	// defines how the swapchain behaves (size, format, vsync)
	surfaceConfig := wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      caps.Formats[0],
		Width:       uint32(max(s.WindowWidth, 1)),
		Height:      uint32(max(s.WindowHeight, 1)),
		PresentMode: wgpu.PresentModeFifo, // vsync
		AlphaMode:   caps.AlphaModes[0],
	}

	surface.Configure(adapter, device, &surfaceConfig)

	return &GpuState{
		surface:       surface,
		adapter:       adapter,
		device:        device,
		queue:         queue,
		surfaceConfig: &surfaceConfig,
	}, nil
}

// Resize reconfigures the swapchain. Repeated calls with the current size
// are no-ops so both layers may forward the same resize.
func (g *GpuState) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	if g.surfaceConfig.Width == uint32(width) && g.surfaceConfig.Height == uint32(height) {
		return
	}
	g.dropFrame()
	g.surfaceConfig.Width = uint32(width)
	g.surfaceConfig.Height = uint32(height)
	g.surface.Configure(g.adapter, g.device, g.surfaceConfig)
}

// beginFrame returns the frame being recorded, acquiring the next swapchain
// texture when none is open.
func (g *GpuState) beginFrame() (*gpuFrame, error) {
	if g.frame != nil {
		return g.frame, nil
	}
	texture, err := g.surface.GetCurrentTexture()
	if err != nil {
		return nil, fmt.Errorf("acquire surface texture: %w", err)
	}
	view, err := texture.CreateView(nil)
	if err != nil {
		texture.Release()
		return nil, fmt.Errorf("create surface view: %w", err)
	}
	encoder, err := g.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		texture.Release()
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	g.frame = &gpuFrame{texture: texture, view: view, encoder: encoder}
	return g.frame, nil
}

// Present submits the recorded frame and shows it.
func (g *GpuState) Present() error {
	frame := g.frame
	if frame == nil {
		return nil
	}
	g.frame = nil
	defer frame.release()

	cmd, err := frame.encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("finish frame: %w", err)
	}
	defer cmd.Release()
	g.queue.Submit(cmd)
	g.surface.Present()
	return nil
}

func (g *GpuState) dropFrame() {
	if g.frame != nil {
		g.frame.release()
		g.frame = nil
	}
}

func (f *gpuFrame) release() {
	f.encoder.Release()
	f.view.Release()
	f.texture.Release()
}

func (g *GpuState) Release() {
	g.dropFrame()
	if g.device != nil {
		g.device.Release()
		g.device = nil
	}
	if g.adapter != nil {
		g.adapter.Release()
		g.adapter = nil
	}
	if g.surface != nil {
		g.surface.Release()
		g.surface = nil
	}
}

type pipelineOptions struct {
	vertexType any
	blend      *wgpu.BlendState
	depth      bool
}

var alphaBlend = &wgpu.BlendState{
	Color: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorSrcAlpha,
		DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
		Operation: wgpu.BlendOperationAdd,
	},
	Alpha: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorOne,
		DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
		Operation: wgpu.BlendOperationAdd,
	},
}

const depthFormat = wgpu.TextureFormatDepth24Plus

func createRenderPipeline(name string, shaderCode string, opts pipelineOptions, gpuState *GpuState) (*wgpu.RenderPipeline, error) {
	shader, err := gpuState.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          name,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaderCode},
	})
	if err != nil {
		return nil, fmt.Errorf("%s shader: %w", name, err)
	}
	defer shader.Release()

	var buffers []wgpu.VertexBufferLayout
	if opts.vertexType != nil {
		layout, err := createVertexBufferLayout(opts.vertexType)
		if err != nil {
			return nil, fmt.Errorf("%s vertex layout: %w", name, err)
		}
		buffers = append(buffers, layout)
	}

	var depthStencil *wgpu.DepthStencilState
	if opts.depth {
		depthStencil = &wgpu.DepthStencilState{
			Format:            depthFormat,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		}
	}

	pipeline, err := gpuState.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: name,
		Vertex: wgpu.VertexState{
			Module:     shader,
			EntryPoint: "vs_main",
			Buffers:    buffers,
		},
		Fragment: &wgpu.FragmentState{
			Module:     shader,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format:    gpuState.surfaceConfig.Format,
					Blend:     opts.blend,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			// imported models do not guarantee winding
			CullMode: wgpu.CullModeNone,
		},
		DepthStencil: depthStencil,
		Multisample: wgpu.MultisampleState{
			Count:                  1,
			Mask:                   0xFFFFFFFF,
			AlphaToCoverageEnabled: false,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%s pipeline: %w", name, err)
	}
	return pipeline, nil
}

func createVertexIndexBuffers(vertices []Vertex, indices []uint32, device *wgpu.Device) (vertexBuf *wgpu.Buffer, indexBuf *wgpu.Buffer, err error) {
	vertexBuf, err = device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "Vertex Buffer",
		Contents: wgpu.ToBytes(vertices),
		Usage:    wgpu.BufferUsageVertex,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("vertex buffer: %w", err)
	}
	indexBuf, err = device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "Index Buffer",
		Contents: wgpu.ToBytes(indices),
		Usage:    wgpu.BufferUsageIndex,
	})
	if err != nil {
		vertexBuf.Release()
		return nil, nil, fmt.Errorf("index buffer: %w", err)
	}
	return vertexBuf, indexBuf, nil
}

func createUniformBuffer(name string, contents []byte, gpuState *GpuState) (*wgpu.Buffer, error) {
	buffer, err := gpuState.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    name,
		Contents: contents,
		Usage:    wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return buffer, nil
}

func createDepthTexture(width, height int, gpuState *GpuState) (*wgpu.Texture, *wgpu.TextureView, error) {
	texture, err := gpuState.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Depth Texture",
		Size: wgpu.Extent3D{
			Width:              uint32(max(width, 1)),
			Height:             uint32(max(height, 1)),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        depthFormat,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("depth texture: %w", err)
	}
	view, err := texture.CreateView(nil)
	if err != nil {
		texture.Release()
		return nil, nil, fmt.Errorf("depth view: %w", err)
	}
	return texture, view, nil
}

func createRGBATexture(name string, width, height int, gpuState *GpuState) (*wgpu.Texture, *wgpu.TextureView, error) {
	texture, err := gpuState.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: name,
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatRGBA8Unorm,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", name, err)
	}
	view, err := texture.CreateView(nil)
	if err != nil {
		texture.Release()
		return nil, nil, fmt.Errorf("%s view: %w", name, err)
	}
	return texture, view, nil
}

func writeRGBATexture(texture *wgpu.Texture, pix []byte, width, height int, gpuState *GpuState) error {
	extent := wgpu.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1}
	return gpuState.queue.WriteTexture(
		texture.AsImageCopy(),
		pix,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(width * 4),
			RowsPerImage: uint32(height),
		},
		&extent,
	)
}

func createVertexBufferLayout(vertexType any) (wgpu.VertexBufferLayout, error) {
	t := reflect.TypeOf(vertexType)
	if t.Kind() != reflect.Struct {
		return wgpu.VertexBufferLayout{}, fmt.Errorf("vertex must be a struct, got %s", t)
	}

	var attributes []wgpu.VertexAttribute
	var offset uint64 = 0

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if "layout" == field.Tag.Get("gekko") {
			format, err := parseFormat(field.Tag.Get("format"))
			if err != nil {
				return wgpu.VertexBufferLayout{}, fmt.Errorf("field %s: %w", field.Name, err)
			}
			location, err := strconv.Atoi(field.Tag.Get("location"))
			if nil != err {
				return wgpu.VertexBufferLayout{}, fmt.Errorf("field %s location: %w", field.Name, err)
			}

			attributes = append(attributes, wgpu.VertexAttribute{
				ShaderLocation: uint32(location),
				Offset:         offset,
				Format:         format,
			})
		}

		// Add size of field to offset
		offset += uint64(field.Type.Size())
	}

	return wgpu.VertexBufferLayout{
		ArrayStride: offset,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes:  attributes,
	}, nil
}

func parseFormat(name string) (wgpu.VertexFormat, error) {
	switch name {
	case "float":
		return wgpu.VertexFormatFloat32, nil
	case "float2":
		return wgpu.VertexFormatFloat32x2, nil
	case "float3":
		return wgpu.VertexFormatFloat32x3, nil
	case "float4":
		return wgpu.VertexFormatFloat32x4, nil
	default:
		return 0, fmt.Errorf("unsupported vertex layout format: %q", name)
	}
}

func createBindGroup(pipeline *wgpu.RenderPipeline, group uint32, entries []wgpu.BindGroupEntry, device *wgpu.Device) (*wgpu.BindGroup, error) {
	bindGroupLayout := pipeline.GetBindGroupLayout(group)
	defer bindGroupLayout.Release()

	bindGroup, err := device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout:  bindGroupLayout,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("bind group %d: %w", group, err)
	}
	return bindGroup, nil
}
