package armature

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// BoneType tags a bone's anatomical role. It is informational only — forward
// kinematics never consults it. Renderers and auto-riggers use it to pick
// styling and constraint presets.
type BoneType uint8

const (
	BoneRoot BoneType = iota
	BoneSpine
	BoneLimb
	BoneExtremity
	BoneHead
)

// String returns the lowercase tag name used in serialized documents.
func (t BoneType) String() string {
	switch t {
	case BoneRoot:
		return "root"
	case BoneSpine:
		return "spine"
	case BoneLimb:
		return "limb"
	case BoneExtremity:
		return "extremity"
	case BoneHead:
		return "head"
	}
	return "unknown"
}

// boneTypeFromString is the inverse of BoneType.String.
func boneTypeFromString(s string) (BoneType, bool) {
	switch s {
	case "root":
		return BoneRoot, true
	case "spine":
		return BoneSpine, true
	case "limb":
		return BoneLimb, true
	case "extremity":
		return BoneExtremity, true
	case "head":
		return BoneHead, true
	}
	return 0, false
}

// Bone is a single rigid segment in a skeletal hierarchy. A single flat struct
// holds every bone role; the Type tag is advisory only.
//
// RestRotation is fixed at creation and encodes the bone's bind-pose
// orientation; LocalRotation is the animatable part, always kept within Limits.
// Both are Euler-degree triples combined by component-wise addition during FK.
// Thickness and ZOrder are cosmetic hints for renderers and do not affect FK.
//
// A bone is owned by exactly one Skeleton; mutate rotation through the
// skeleton's methods so constraint clamping and transform invalidation apply.
type Bone struct {
	Name       string
	ParentName string // empty only on the root
	Type       BoneType

	RestLength   float64
	RestRotation mgl64.Vec3

	LocalRotation mgl64.Vec3
	Limits        Constraint

	Thickness float64
	ZOrder    int

	// World transform cache, valid when dirty is false. Maintained by the
	// owning skeleton's FK traversal.
	worldStart mgl64.Vec2
	worldEnd   mgl64.Vec2
	worldTotal mgl64.Vec3
	dirty      bool
}

// NewBone creates a bone with the given name, parent (empty for the root),
// rest length and rest rotation. Limits default to Unlimited and Thickness
// to 0.05.
func NewBone(name, parent string, length float64, rest mgl64.Vec3) (*Bone, error) {
	if name == "" {
		return nil, fmt.Errorf("armature: bone name must not be empty")
	}
	if length < 0 {
		return nil, fmt.Errorf("armature: bone %q rest length must be >= 0, got %v", name, length)
	}
	b := &Bone{
		Name:         name,
		ParentName:   parent,
		RestLength:   length,
		RestRotation: rest,
		Limits:       Unlimited(),
		Thickness:    0.05,
		dirty:        true,
	}
	return b, nil
}

// SetLimits replaces the bone's constraint and re-clamps the current local
// rotation. Fails with ErrInvalidConstraint if the range is inverted.
func (b *Bone) SetLimits(c Constraint) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("bone %q: %w", b.Name, err)
	}
	b.Limits = c
	b.LocalRotation = c.Clamp(b.LocalRotation)
	b.dirty = true
	return nil
}

// IsRoot reports whether this bone has no parent.
func (b *Bone) IsRoot() bool { return b.ParentName == "" }
