package spotlight

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

type CameraPose struct {
	Position mgl32.Vec3
	LookAt   mgl32.Vec3
}

func (p CameraPose) finite() bool {
	for i := 0; i < 3; i++ {
		if !finite(float64(p.Position[i]), float64(p.LookAt[i])) {
			return false
		}
	}
	return true
}

// CameraRigConfig holds the orbit and zoom constants of the rig.
type CameraRigConfig struct {
	BaseRadius           float32
	MaxRadius            float32
	Smoothing            float32
	InitialHeight        float32
	ScrollHeightFactor   float32
	BaseSensitivity      float32
	SensitivityReduction float32
	MaxAngleX            float32
	MaxAngleY            float32
	InitialPosition      mgl32.Vec3
	FinalPosition        mgl32.Vec3
	InitialLookAt        mgl32.Vec3
	FinalLookAt          mgl32.Vec3
}

func DefaultCameraRigConfig() CameraRigConfig {
	return CameraRigConfig{
		BaseRadius:           6,
		MaxRadius:            10,
		Smoothing:            0.08,
		InitialHeight:        2,
		ScrollHeightFactor:   3,
		BaseSensitivity:      1,
		SensitivityReduction: 0.6,
		MaxAngleX:            math.Pi * 0.3,
		MaxAngleY:            math.Pi * 0.25,
		InitialPosition:      mgl32.Vec3{-4, 2, 4},
		FinalPosition:        mgl32.Vec3{0, 0.2, 0.5},
		InitialLookAt:        mgl32.Vec3{0, 0, 0},
		FinalLookAt:          mgl32.Vec3{0, 0.1, 0},
	}
}

// CameraRig smooths the live camera pose toward a target derived from the
// pointer and scroll signals. Each Tick moves the pose a fixed fraction of the
// remaining distance, so it never overshoots.
type CameraRig struct {
	Config CameraRigConfig
	Pose   CameraPose

	pointerTarget mgl32.Vec3
	progress      float32
}

func NewCameraRig(cfg CameraRigConfig) *CameraRig {
	if cfg.Smoothing <= 0 || cfg.Smoothing > 1 {
		cfg.Smoothing = DefaultCameraRigConfig().Smoothing
	}
	return &CameraRig{
		Config: cfg,
		Pose: CameraPose{
			Position: cfg.InitialPosition,
			LookAt:   cfg.InitialLookAt,
		},
		pointerTarget: cfg.InitialPosition,
	}
}

func (r *CameraRig) OrbitRadius(progress float32) float32 {
	return r.Config.BaseRadius + (r.Config.MaxRadius-r.Config.BaseRadius)*progress
}

func (r *CameraRig) Sensitivity(progress float32) float32 {
	return r.Config.BaseSensitivity - progress*r.Config.SensitivityReduction
}

func (r *CameraRig) ComputePointerTarget(pointer PointerSignal, progress float32) mgl32.Vec3 {
	s := r.Sensitivity(progress)
	angleX := float64(pointer.X * r.Config.MaxAngleX * s)
	angleY := float64(pointer.Y * r.Config.MaxAngleY * s * 0.5)
	radius := float64(r.OrbitRadius(progress))
	height := float64(r.Config.InitialHeight + progress*r.Config.ScrollHeightFactor)

	return mgl32.Vec3{
		float32(radius * math.Sin(angleX) * math.Cos(angleY)),
		float32(height + radius*math.Sin(angleY)*0.3),
		float32(radius * math.Cos(angleX) * math.Cos(angleY)),
	}
}

func (r *CameraRig) ComputeFrameTarget(pointerTarget mgl32.Vec3, progress float32) CameraPose {
	return CameraPose{
		Position: lerpVec3(pointerTarget, r.Config.FinalPosition, progress),
		LookAt:   lerpVec3(r.Config.InitialLookAt, r.Config.FinalLookAt, progress),
	}
}

// Target is the pose the rig is currently converging to.
func (r *CameraRig) Target() CameraPose {
	return r.ComputeFrameTarget(r.pointerTarget, r.progress)
}

// Tick advances the pose one frame. Until the pointer has been seen the
// pointer target stays at the initial camera position. Non-finite signals are
// ignored and the last good values are used instead.
func (r *CameraRig) Tick(pointer PointerSignal, scroll ScrollSignal) CameraPose {
	if scroll.Seen && finite(float64(scroll.Progress)) {
		r.progress = mgl32.Clamp(scroll.Progress, 0, 1)
	}
	if pointer.Seen && finite(float64(pointer.X), float64(pointer.Y)) {
		r.pointerTarget = r.ComputePointerTarget(pointer, r.progress)
	}

	target := r.Target()
	next := CameraPose{
		Position: r.Pose.Position.Add(target.Position.Sub(r.Pose.Position).Mul(r.Config.Smoothing)),
		LookAt:   r.Pose.LookAt.Add(target.LookAt.Sub(r.Pose.LookAt).Mul(r.Config.Smoothing)),
	}
	if next.finite() {
		r.Pose = next
	}
	return r.Pose
}

func (r *CameraRig) Reset() {
	r.Pose = CameraPose{Position: r.Config.InitialPosition, LookAt: r.Config.InitialLookAt}
	r.pointerTarget = r.Config.InitialPosition
	r.progress = 0
}

func lerpVec3(a, b mgl32.Vec3, t float32) mgl32.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}
