package armature

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Structural and lookup errors. Operations that reference a bone by name wrap
// these with the offending name; use errors.Is to classify.
var (
	// ErrUnknownBone is returned when a bone name is absent from the skeleton.
	ErrUnknownBone = errors.New("armature: unknown bone")

	// ErrUnknownParent is returned by AddBone when the bone names a parent
	// that does not exist in the skeleton.
	ErrUnknownParent = errors.New("armature: unknown parent bone")

	// ErrDuplicateName is returned by AddBone when the name is already taken.
	ErrDuplicateName = errors.New("armature: duplicate bone name")

	// ErrInvalidHierarchy is returned when an edit or a loaded document would
	// break the rooted-tree invariant (second root, cycle, orphaned subtree).
	ErrInvalidHierarchy = errors.New("armature: invalid hierarchy")

	// ErrInvalidConstraint is returned when a constraint has min > max on any axis.
	ErrInvalidConstraint = errors.New("armature: invalid constraint")
)

// degToRad converts degrees to radians.
func degToRad(d float64) float64 { return d * math.Pi / 180 }

// radToDeg converts radians to degrees.
func radToDeg(r float64) float64 { return r * 180 / math.Pi }

// normalizeDeg wraps an angle in degrees to (-180, 180].
func normalizeDeg(a float64) float64 {
	a = math.Mod(a, 360)
	if a > 180 {
		a -= 360
	} else if a <= -180 {
		a += 360
	}
	return a
}

// angleDir returns the unit vector at angle rad on the posing plane.
func angleDir(rad float64) mgl64.Vec2 {
	return mgl64.Vec2{math.Cos(rad), math.Sin(rad)}
}

// cross2 is the scalar (z) cross product of two plane vectors.
func cross2(a, b mgl64.Vec2) float64 {
	return a[0]*b[1] - a[1]*b[0]
}

// lerpVec3 linearly interpolates each component.
func lerpVec3(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	return mgl64.Vec3{
		a[0] + (b[0]-a[0])*t,
		a[1] + (b[1]-a[1])*t,
		a[2] + (b[2]-a[2])*t,
	}
}
