package spotlight

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

type LightType uint32

const (
	LightTypePoint      LightType = 0
	LightTypeSpot       LightType = 2
	LightTypeAmbient    LightType = 3
	LightTypeHemisphere LightType = 4
)

// LightDef describes one light. Spot lights aim at Target; ConeAngle is the
// half angle in radians. Hemisphere lights blend Color (sky) and GroundColor
// by the surface normal.
type LightDef struct {
	Type        LightType
	Position    mgl32.Vec3
	Target      mgl32.Vec3
	Color       [3]float32
	GroundColor [3]float32
	Intensity   float32
	Range       float32
	ConeAngle   float32
	Penumbra    float32
	Decay       float32
}

func hexColor(rgb uint32) [3]float32 {
	return [3]float32{
		float32((rgb>>16)&0xff) / 255,
		float32((rgb>>8)&0xff) / 255,
		float32(rgb&0xff) / 255,
	}
}

// DefaultLights is the spotlight rig: a white key spot from above, a blue
// accent spot and soft ambient/hemisphere fill.
func DefaultLights() []LightDef {
	return []LightDef{
		{Type: LightTypeAmbient, Color: hexColor(0x404040), Intensity: 0.4},
		{Type: LightTypeHemisphere, Color: hexColor(0x87ceeb), GroundColor: hexColor(0x404040), Intensity: 0.6},
		{
			Type:      LightTypeSpot,
			Position:  mgl32.Vec3{0, 6, 0},
			Color:     hexColor(0xffffff),
			Intensity: 200,
			Range:     20,
			ConeAngle: math.Pi * 0.07,
			Penumbra:  0.5,
			Decay:     1,
		},
		{
			Type:      LightTypeSpot,
			Position:  mgl32.Vec3{3, 3, -2},
			Color:     hexColor(0x4444ff),
			Intensity: 25,
			Range:     12,
			ConeAngle: math.Pi * 0.08,
			Penumbra:  0.4,
			Decay:     1.2,
		},
	}
}

// spotIntensityScale maps photometric spot intensities onto the unitless
// range used by the shaders.
const spotIntensityScale = 1.0 / 36.0

func smoothstep(e0, e1, x float32) float32 {
	if e0 == e1 {
		if x < e0 {
			return 0
		}
		return 1
	}
	t := mgl32.Clamp((x-e0)/(e1-e0), 0, 1)
	return t * t * (3 - 2*t)
}

// shade computes the lit color of a surface point. It mirrors the fragment
// shader of the GPU scene layer.
func shade(lights []LightDef, base, pos, normal mgl32.Vec3) mgl32.Vec3 {
	n := normal
	if n.Len() > 0 {
		n = n.Normalize()
	}
	var acc mgl32.Vec3
	for _, l := range lights {
		col := mgl32.Vec3(l.Color)
		switch l.Type {
		case LightTypeAmbient:
			acc = acc.Add(col.Mul(l.Intensity))
		case LightTypeHemisphere:
			t := n.Y()*0.5 + 0.5
			acc = acc.Add(lerpVec3(mgl32.Vec3(l.GroundColor), col, t).Mul(l.Intensity))
		case LightTypeSpot, LightTypePoint:
			toLight := l.Position.Sub(pos)
			dist := toLight.Len()
			if dist == 0 || (l.Range > 0 && dist > l.Range) {
				continue
			}
			dir := toLight.Mul(1 / dist)
			ndotl := max(n.Dot(dir), 0)
			if ndotl == 0 {
				continue
			}
			cone := float32(1)
			if l.Type == LightTypeSpot {
				axis := l.Target.Sub(l.Position)
				if axis.Len() > 0 {
					axis = axis.Normalize()
				}
				cosOuter := float32(math.Cos(float64(l.ConeAngle)))
				cosInner := float32(math.Cos(float64(l.ConeAngle * (1 - l.Penumbra))))
				cone = smoothstep(cosOuter, cosInner, axis.Dot(dir.Mul(-1)))
			}
			atten := float32(1)
			if l.Range > 0 {
				atten = float32(math.Pow(float64(mgl32.Clamp(1-dist/l.Range, 0, 1)), float64(max(l.Decay, 0))))
			}
			acc = acc.Add(col.Mul(l.Intensity * spotIntensityScale * cone * atten * ndotl))
		}
	}
	return mgl32.Vec3{base.X() * acc.X(), base.Y() * acc.Y(), base.Z() * acc.Z()}
}

// toneMap applies Reinhard tone mapping with the given exposure.
func toneMap(c mgl32.Vec3, exposure float32) mgl32.Vec3 {
	var out mgl32.Vec3
	for i := 0; i < 3; i++ {
		v := c[i] * exposure
		out[i] = v / (1 + v)
	}
	return out
}
