package armature

import "github.com/go-gl/mathgl/mgl64"

// BodyType selects a preset proportion set for the humanoid auto-rig.
type BodyType uint8

const (
	BodyNormal BodyType = iota
	BodyMuscular
	BodyThin
	BodyChild
	BodyGiant
)

// Proportions holds the tunable measurements of the humanoid rig. All values
// are relative to a base character height of 2 units; HeightScale multiplies
// every segment.
type Proportions struct {
	HeightScale float64

	SpineLength   float64
	NeckLength    float64
	HeadSize      float64
	ShoulderWidth float64

	UpperArmLength float64
	ForearmLength  float64
	HandSize       float64

	ThighLength float64
	ShinLength  float64
	FootSize    float64

	BoneThickness float64
}

// DefaultProportions returns average human proportions.
func DefaultProportions() Proportions {
	return Proportions{
		HeightScale:    1,
		SpineLength:    0.6,
		NeckLength:     0.15,
		HeadSize:       0.25,
		ShoulderWidth:  0.4,
		UpperArmLength: 0.35,
		ForearmLength:  0.35,
		HandSize:       0.12,
		ThighLength:    0.45,
		ShinLength:     0.45,
		FootSize:       0.15,
		BoneThickness:  0.05,
	}
}

// ForBodyType returns the proportions of a preset body type.
func ForBodyType(bt BodyType) Proportions {
	p := DefaultProportions()
	switch bt {
	case BodyMuscular:
		p.ShoulderWidth = 0.5
		p.UpperArmLength = 0.38
		p.ForearmLength = 0.38
		p.BoneThickness = 0.08
	case BodyThin:
		p.ShoulderWidth = 0.3
		p.UpperArmLength = 0.4
		p.ForearmLength = 0.4
		p.ThighLength = 0.5
		p.ShinLength = 0.5
		p.BoneThickness = 0.03
	case BodyChild:
		p.HeightScale = 0.7
		p.HeadSize = 0.3
		p.SpineLength = 0.5
		p.UpperArmLength = 0.28
		p.ForearmLength = 0.28
		p.ThighLength = 0.35
		p.ShinLength = 0.35
	case BodyGiant:
		p.HeightScale = 1.5
		p.ShoulderWidth = 0.6
		p.SpineLength = 0.7
		p.BoneThickness = 0.1
	}
	return p
}

// ProportionProfile converts a body type into a per-bone multiplier map for
// Skeleton.ApplyProportionProfile, relative to the normal body. Use it to
// reshape an already-built rig in place instead of rebuilding it.
func ProportionProfile(bt BodyType) map[string]Proportion {
	base := DefaultProportions()
	p := ForBodyType(bt)
	h := p.HeightScale / base.HeightScale
	th := p.BoneThickness / base.BoneThickness

	ratio := func(a, b float64) float64 { return a * h / b }
	profile := map[string]Proportion{
		"pelvis":      {Length: h, Thickness: th},
		"spine":       {Length: ratio(p.SpineLength, base.SpineLength), Thickness: th},
		"neck":        {Length: ratio(p.NeckLength, base.NeckLength), Thickness: th},
		"head":        {Length: ratio(p.HeadSize, base.HeadSize), Thickness: th},
		"upper_arm_l": {Length: ratio(p.UpperArmLength, base.UpperArmLength), Thickness: th},
		"upper_arm_r": {Length: ratio(p.UpperArmLength, base.UpperArmLength), Thickness: th},
		"forearm_l":   {Length: ratio(p.ForearmLength, base.ForearmLength), Thickness: th},
		"forearm_r":   {Length: ratio(p.ForearmLength, base.ForearmLength), Thickness: th},
		"hand_l":      {Length: ratio(p.HandSize, base.HandSize), Thickness: th},
		"hand_r":      {Length: ratio(p.HandSize, base.HandSize), Thickness: th},
		"thigh_l":     {Length: ratio(p.ThighLength, base.ThighLength), Thickness: th},
		"thigh_r":     {Length: ratio(p.ThighLength, base.ThighLength), Thickness: th},
		"shin_l":      {Length: ratio(p.ShinLength, base.ShinLength), Thickness: th},
		"shin_r":      {Length: ratio(p.ShinLength, base.ShinLength), Thickness: th},
		"foot_l":      {Length: ratio(p.FootSize, base.FootSize), Thickness: th},
		"foot_r":      {Length: ratio(p.FootSize, base.FootSize), Thickness: th},
	}
	return profile
}

// humanoidBoneSpec describes one bone of the stick-figure template.
type humanoidBoneSpec struct {
	name, parent string
	typ          BoneType
	length       float64 // before HeightScale
	restZ        float64 // bind-pose in-plane angle, degrees
	thickness    float64 // multiplier on BoneThickness
	min, max     mgl64.Vec3
	zOrder       int
}

// NewHumanoid builds a complete 16-bone stick-figure skeleton, pelvis-rooted,
// with anatomical rest rotations and per-joint rotation limits. The rig is
// upright: the spine points up (+90°), legs hang down slightly splayed, arms
// hang at the sides.
//
// Elbows and knees carry single-sided hinge limits (an elbow only folds one
// way); those constraints are deliberately asymmetric between left and right.
func NewHumanoid(name string, bt BodyType) *Skeleton {
	p := ForBodyType(bt)
	sk := NewSkeleton(name)

	specs := []humanoidBoneSpec{
		{"pelvis", "", BoneRoot, 0.1, 90, 1.5,
			mgl64.Vec3{-30, -30, -180}, mgl64.Vec3{30, 30, 180}, 0},
		{"spine", "pelvis", BoneSpine, p.SpineLength, 0, 1.2,
			mgl64.Vec3{-20, -10, -45}, mgl64.Vec3{20, 10, 45}, 0},
		{"neck", "spine", BoneSpine, p.NeckLength, 0, 0.7,
			mgl64.Vec3{-30, -40, -60}, mgl64.Vec3{30, 40, 60}, 1},
		{"head", "neck", BoneHead, p.HeadSize * 2, 0, 2,
			mgl64.Vec3{-20, -20, -30}, mgl64.Vec3{20, 20, 30}, 1},

		{"upper_arm_l", "spine", BoneLimb, p.UpperArmLength, -205, 1,
			mgl64.Vec3{-90, -45, -180}, mgl64.Vec3{90, 45, 180}, 2},
		{"forearm_l", "upper_arm_l", BoneLimb, p.ForearmLength, 0, 0.9,
			mgl64.Vec3{0, 0, -150}, mgl64.Vec3{0, 0, 5}, 2},
		{"hand_l", "forearm_l", BoneExtremity, p.HandSize, 0, 0.8,
			mgl64.Vec3{-45, -45, -90}, mgl64.Vec3{45, 45, 90}, 2},

		{"upper_arm_r", "spine", BoneLimb, p.UpperArmLength, -155, 1,
			mgl64.Vec3{-90, -45, -180}, mgl64.Vec3{90, 45, 180}, -1},
		{"forearm_r", "upper_arm_r", BoneLimb, p.ForearmLength, 0, 0.9,
			mgl64.Vec3{0, 0, -5}, mgl64.Vec3{0, 0, 150}, -1},
		{"hand_r", "forearm_r", BoneExtremity, p.HandSize, 0, 0.8,
			mgl64.Vec3{-45, -45, -90}, mgl64.Vec3{45, 45, 90}, -1},

		{"thigh_l", "pelvis", BoneLimb, p.ThighLength, -185, 1.1,
			mgl64.Vec3{-45, -30, -120}, mgl64.Vec3{45, 30, 120}, 2},
		{"shin_l", "thigh_l", BoneLimb, p.ShinLength, 0, 1,
			mgl64.Vec3{0, 0, -5}, mgl64.Vec3{0, 0, 150}, 2},
		{"foot_l", "shin_l", BoneExtremity, p.FootSize, 85, 0.9,
			mgl64.Vec3{-30, -20, -45}, mgl64.Vec3{30, 20, 45}, 2},

		{"thigh_r", "pelvis", BoneLimb, p.ThighLength, -175, 1.1,
			mgl64.Vec3{-45, -30, -120}, mgl64.Vec3{45, 30, 120}, -1},
		{"shin_r", "thigh_r", BoneLimb, p.ShinLength, 0, 1,
			mgl64.Vec3{0, 0, -150}, mgl64.Vec3{0, 0, 5}, -1},
		{"foot_r", "shin_r", BoneExtremity, p.FootSize, 95, 0.9,
			mgl64.Vec3{-30, -20, -45}, mgl64.Vec3{30, 20, 45}, -1},
	}

	for _, bs := range specs {
		b, _ := NewBone(bs.name, bs.parent, bs.length*p.HeightScale, mgl64.Vec3{0, 0, bs.restZ})
		b.Type = bs.typ
		b.Thickness = p.BoneThickness * bs.thickness
		b.ZOrder = bs.zOrder
		b.SetLimits(Constraint{Min: bs.min, Max: bs.max})
		sk.AddBone(b)
	}
	return sk
}
