package armature

import (
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/tiendc/go-deepcopy"
)

// Pose is a transient snapshot of local rotations keyed by bone name, plus the
// root's world position when the pose was produced by root-motion playback.
// Poses are plain data — copy/paste them, blend them, mirror them — and are
// not owned by any skeleton.
type Pose struct {
	Rotations    map[string]mgl64.Vec3
	RootPosition mgl64.Vec2

	// HasRootMotion marks poses whose RootPosition is meaningful. ApplyPose
	// leaves the skeleton root untouched for poses without it.
	HasRootMotion bool
}

// NewPose returns an empty pose.
func NewPose() Pose {
	return Pose{Rotations: make(map[string]mgl64.Vec3)}
}

// Clone returns an independent deep copy of the pose.
func (p Pose) Clone() Pose {
	var out Pose
	deepcopy.Copy(&out, p)
	return out
}

// BlendPoses linearly interpolates two poses by weight in [0, 1] (clamped).
// The result covers the union of both bone sets; a bone missing from one side
// contributes the rest value (0,0,0). Blending performs no constraint
// clamping — apply the result through Skeleton.ApplyPose to re-clamp.
func BlendPoses(a, b Pose, weight float64) Pose {
	if weight < 0 {
		weight = 0
	} else if weight > 1 {
		weight = 1
	}
	out := Pose{
		Rotations:     make(map[string]mgl64.Vec3, len(a.Rotations)),
		HasRootMotion: a.HasRootMotion || b.HasRootMotion,
	}
	for name, ra := range a.Rotations {
		rb := b.Rotations[name] // zero vec when absent
		out.Rotations[name] = lerpVec3(ra, rb, weight)
	}
	for name, rb := range b.Rotations {
		if _, ok := a.Rotations[name]; !ok {
			out.Rotations[name] = lerpVec3(mgl64.Vec3{}, rb, weight)
		}
	}
	out.RootPosition = mgl64.Vec2{
		a.RootPosition[0] + (b.RootPosition[0]-a.RootPosition[0])*weight,
		a.RootPosition[1] + (b.RootPosition[1]-a.RootPosition[1])*weight,
	}
	return out
}

// MirrorPose swaps rotations between tag-paired bones (e.g. "_l" and "_r"),
// negating the in-plane (z) axis whose sign encodes left/right asymmetry.
// Bones without a counterpart, and bones carrying neither tag, are copied
// unchanged.
//
// The mirror itself never clamps, so mirroring twice restores the input
// bit-for-bit. When left/right constraints are asymmetric the clamp happens
// later, at ApplyPose — a mirrored rotation outside the counterpart's range is
// corrected there, and a subsequent mirror of the *applied* pose will not
// round-trip.
func MirrorPose(p Pose, fromTag, toTag string) Pose {
	out := p.Clone()
	for name, rot := range p.Rotations {
		if !strings.Contains(name, fromTag) {
			continue
		}
		counterpart := strings.Replace(name, fromTag, toTag, 1)
		crot, ok := p.Rotations[counterpart]
		if !ok {
			continue
		}
		out.Rotations[name] = mgl64.Vec3{crot[0], crot[1], -crot[2]}
		out.Rotations[counterpart] = mgl64.Vec3{rot[0], rot[1], -rot[2]}
	}
	return out
}
