package armature

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Constraint limits a bone's local rotation to a per-axis range in degrees.
// Clamping to a constraint is silent, expected behavior — posing never fails
// because a value is out of range, it is corrected to the nearest boundary.
type Constraint struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// Unlimited returns a constraint allowing the full ±180° range on every axis.
func Unlimited() Constraint {
	return Constraint{
		Min: mgl64.Vec3{-180, -180, -180},
		Max: mgl64.Vec3{180, 180, 180},
	}
}

// NewConstraint builds a constraint from per-axis (min, max) pairs and
// validates it. Construction fails with ErrInvalidConstraint if any axis has
// min > max.
func NewConstraint(min, max mgl64.Vec3) (Constraint, error) {
	c := Constraint{Min: min, Max: max}
	if err := c.Validate(); err != nil {
		return Constraint{}, err
	}
	return c, nil
}

// Validate reports ErrInvalidConstraint if min > max on any axis.
func (c Constraint) Validate() error {
	for i := 0; i < 3; i++ {
		if c.Min[i] > c.Max[i] {
			return fmt.Errorf("%w: axis %d has min %v > max %v", ErrInvalidConstraint, i, c.Min[i], c.Max[i])
		}
	}
	return nil
}

// Clamp returns rot with each axis clamped into [Min, Max].
func (c Constraint) Clamp(rot mgl64.Vec3) mgl64.Vec3 {
	for i := 0; i < 3; i++ {
		if rot[i] < c.Min[i] {
			rot[i] = c.Min[i]
		} else if rot[i] > c.Max[i] {
			rot[i] = c.Max[i]
		}
	}
	return rot
}

// Contains reports whether rot lies within the constraint on every axis.
func (c Constraint) Contains(rot mgl64.Vec3) bool {
	for i := 0; i < 3; i++ {
		if rot[i] < c.Min[i] || rot[i] > c.Max[i] {
			return false
		}
	}
	return true
}

// Symmetric reports whether the constraint is mirror-symmetric on the
// in-plane axis (Min.Z == -Max.Z). MirrorPose round-trips exactly only for
// poses whose bones all satisfy this.
func (c Constraint) Symmetric() bool {
	return c.Min[2] == -c.Max[2]
}
