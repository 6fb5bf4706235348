package spotlight

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// PointerSignal is the pointer position in normalized device coordinates.
// Values are not clamped: a pointer outside the viewport reads beyond [-1,1].
type PointerSignal struct {
	X, Y float32
	Seen bool
}

// ScrollSignal is the page scroll progress in [0,1].
type ScrollSignal struct {
	Progress float32
	Seen     bool
}

// SignalSampler stores the latest pointer and scroll readings. Latest value wins.
type SignalSampler struct {
	Pointer PointerSignal
	Scroll  ScrollSignal
}

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s *SignalSampler) OnPointerMove(rawX, rawY, viewportW, viewportH float64) {
	if viewportW <= 0 || viewportH <= 0 || !finite(rawX, rawY, viewportW, viewportH) {
		return
	}
	s.Pointer = PointerSignal{
		X:    float32(rawX/viewportW*2 - 1),
		Y:    float32(-(rawY/viewportH*2 - 1)),
		Seen: true,
	}
}

func (s *SignalSampler) OnScroll(offset, scrollableHeight, viewportHeight float64) {
	if !finite(offset, scrollableHeight, viewportHeight) {
		return
	}
	progress := offset / math.Max(scrollableHeight-viewportHeight, 1)
	s.Scroll = ScrollSignal{
		Progress: mgl32.Clamp(float32(progress), 0, 1),
		Seen:     true,
	}
}

// ScrollPage emulates a tall document scrolled by the mouse wheel. The page
// is Viewports viewport heights tall.
type ScrollPage struct {
	Viewports      float64
	LineHeight     float64
	ViewportHeight float64
	Offset         float64
}

func NewScrollPage(viewports, lineHeight, viewportHeight float64) *ScrollPage {
	if viewports < 1 {
		viewports = 1
	}
	return &ScrollPage{
		Viewports:      viewports,
		LineHeight:     lineHeight,
		ViewportHeight: viewportHeight,
	}
}

func (p *ScrollPage) ScrollableHeight() float64 {
	return p.Viewports * p.ViewportHeight
}

func (p *ScrollPage) maxOffset() float64 {
	return math.Max(p.ScrollableHeight()-p.ViewportHeight, 0)
}

// Wheel applies a wheel delta. Positive dy scrolls up, as glfw reports it.
func (p *ScrollPage) Wheel(dy float64, sampler *SignalSampler) {
	if !finite(dy) {
		return
	}
	p.Offset = math.Min(math.Max(p.Offset-dy*p.LineHeight, 0), p.maxOffset())
	sampler.OnScroll(p.Offset, p.ScrollableHeight(), p.ViewportHeight)
}

// Resize keeps the scroll progress when the viewport changes height.
func (p *ScrollPage) Resize(viewportHeight float64, sampler *SignalSampler) {
	if viewportHeight <= 0 || !finite(viewportHeight) {
		return
	}
	progress := 0.0
	if limit := p.maxOffset(); limit > 0 {
		progress = p.Offset / limit
	}
	p.ViewportHeight = viewportHeight
	p.Offset = progress * p.maxOffset()
	if sampler.Scroll.Seen {
		sampler.OnScroll(p.Offset, p.ScrollableHeight(), p.ViewportHeight)
	}
}

// SetProgress jumps to a progress value in [0,1].
func (p *ScrollPage) SetProgress(progress float64, sampler *SignalSampler) {
	if !finite(progress) {
		return
	}
	p.Offset = math.Min(math.Max(progress, 0), 1) * p.maxOffset()
	sampler.OnScroll(p.Offset, p.ScrollableHeight(), p.ViewportHeight)
}
