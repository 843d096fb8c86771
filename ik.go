package armature

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Solver computes joint rotations that place a chain's end-effector at a
// target. All solves write through SetBoneRotation, so joint constraints still
// clamp; an unreachable target is handled best-effort and is never an error.
// Only structural problems (unknown bones, a broken chain) fail.
type Solver struct {
	sk *Skeleton

	// MaxIterations bounds iterative solves (CCD). Always terminates within
	// this many passes.
	MaxIterations int

	// Tolerance is the end-effector distance below which a solve counts as
	// converged.
	Tolerance float64
}

// NewSolver creates a solver for the given skeleton with the default
// iteration budget (20) and tolerance (0.01).
func NewSolver(sk *Skeleton) *Solver {
	return &Solver{sk: sk, MaxIterations: 20, Tolerance: 0.01}
}

// TwoBoneResult reports the outcome of an analytic two-bone solve.
type TwoBoneResult struct {
	// Clamped is set when the target was outside the reachable annulus and
	// the chain was clamped to full extension or full flexion.
	Clamped bool

	// EndEffector is the chain tip's world position after the solve.
	EndEffector mgl64.Vec2
}

// CCDResult reports the outcome of an iterative CCD solve. Non-convergence is
// a status, not a failure: the skeleton holds the best pose achieved.
type CCDResult struct {
	Converged  bool
	Iterations int
	Distance   float64
}

// SolveTwoBone solves a two-segment chain (shoulder→elbow→wrist,
// hip→knee→ankle) analytically with the law of cosines — closed form, single
// pass, no iteration.
//
// bone2 must be a direct child of bone1. A target beyond L1+L2 stretches the
// chain collinear toward it; a target inside |L1-L2| folds the chain to full
// flexion; both are best-effort placements, reported via Clamped. The optional
// pole picks which of the two valid bend directions the elbow/knee takes: the
// solution on the pole's side of the root→target line.
func (sv *Solver) SolveTwoBone(bone1, bone2 string, target mgl64.Vec2, pole *mgl64.Vec2) (TwoBoneResult, error) {
	b1, err := sv.sk.Bone(bone1)
	if err != nil {
		return TwoBoneResult{}, err
	}
	b2, err := sv.sk.Bone(bone2)
	if err != nil {
		return TwoBoneResult{}, err
	}
	if b2.ParentName != bone1 {
		return TwoBoneResult{}, fmt.Errorf("%w: %q is not the parent of %q", ErrInvalidHierarchy, bone1, bone2)
	}

	rootT, err := sv.sk.WorldTransform(bone1)
	if err != nil {
		return TwoBoneResult{}, err
	}
	root := rootT.Start
	l1 := b1.RestLength * sv.sk.Scale
	l2 := b2.RestLength * sv.sk.Scale

	toTarget := target.Sub(root)
	dist := toTarget.Len()

	var res TwoBoneResult
	maxReach := l1 + l2
	minReach := math.Abs(l1 - l2)
	if dist >= maxReach {
		dist = maxReach
		res.Clamped = true
	} else if dist <= minReach {
		dist = minReach
		res.Clamped = true
	}

	// Law of cosines. alpha is the angle at the root between the root→target
	// line and the first segment; beta the interior elbow angle.
	var alpha, beta float64
	if l1 > 0 && dist > 0 {
		alpha = math.Acos(clampUnit((l1*l1 + dist*dist - l2*l2) / (2 * l1 * dist)))
	}
	if l1 > 0 && l2 > 0 {
		beta = math.Acos(clampUnit((l1*l1 + l2*l2 - dist*dist) / (2 * l1 * l2)))
	} else {
		beta = math.Pi
	}

	phi := math.Atan2(toTarget[1], toTarget[0])

	// Two mirror solutions exist; pick the bend side from the pole vector
	// (the sign of its cross product with the root→target line).
	side := -1.0
	if pole != nil {
		if c := cross2(toTarget, pole.Sub(root)); c > 0 {
			side = 1
		}
	}

	world1 := phi + side*alpha
	world2 := world1 - side*(math.Pi-beta)

	// Write world angles back as local z rotations; constraints clamp here.
	parentZ := 0.0
	if b1.ParentName != "" {
		pt, err := sv.sk.WorldTransform(b1.ParentName)
		if err != nil {
			return TwoBoneResult{}, err
		}
		parentZ = pt.TotalRotation[2]
	}
	local1 := normalizeDeg(radToDeg(world1) - parentZ - b1.RestRotation[2])
	sv.sk.SetBoneRotation(bone1, b1.LocalRotation[0], b1.LocalRotation[1], local1)

	t1, _ := sv.sk.WorldTransform(bone1)
	local2 := normalizeDeg(radToDeg(world2) - t1.TotalRotation[2] - b2.RestRotation[2])
	sv.sk.SetBoneRotation(bone2, b2.LocalRotation[0], b2.LocalRotation[1], local2)

	t2, _ := sv.sk.WorldTransform(bone2)
	res.EndEffector = t2.End
	return res, nil
}

// SolveCCD runs cyclic coordinate descent over a chain of bone names ordered
// root→end-effector. Each pass walks the chain tip-to-root, rotating every
// joint by the in-plane angle that swings the current end-effector toward the
// target, clamped by that joint's constraint. The solve stops early once the
// end-effector is within Tolerance and always terminates within
// MaxIterations, returning the best pose achieved either way.
func (sv *Solver) SolveCCD(chain []string, target mgl64.Vec2) (CCDResult, error) {
	if len(chain) < 2 {
		return CCDResult{}, fmt.Errorf("armature: ccd chain needs at least 2 bones, got %d", len(chain))
	}
	bones := make([]*Bone, len(chain))
	for i, name := range chain {
		b, err := sv.sk.Bone(name)
		if err != nil {
			return CCDResult{}, err
		}
		bones[i] = b
	}
	effector := chain[len(chain)-1]

	var res CCDResult
	for iter := 0; iter < sv.MaxIterations; iter++ {
		res.Iterations = iter + 1

		for i := len(chain) - 1; i >= 0; i-- {
			jointT, err := sv.sk.WorldTransform(chain[i])
			if err != nil {
				return res, err
			}
			endT, _ := sv.sk.WorldTransform(effector)

			toEnd := endT.End.Sub(jointT.Start)
			toTarget := target.Sub(jointT.Start)
			if toEnd.Len() < 1e-9 || toTarget.Len() < 1e-9 {
				continue
			}
			delta := math.Atan2(toTarget[1], toTarget[0]) - math.Atan2(toEnd[1], toEnd[0])

			b := bones[i]
			r := b.LocalRotation
			sv.sk.SetBoneRotation(chain[i], r[0], r[1], normalizeDeg(r[2]+radToDeg(delta)))
		}

		endT, _ := sv.sk.WorldTransform(effector)
		res.Distance = target.Sub(endT.End).Len()
		if res.Distance < sv.Tolerance {
			res.Converged = true
			return res, nil
		}
	}
	return res, nil
}

// SolveLookAt rotates a single joint (a head, an eye) so its bone points at
// the target, clamped by the joint's own constraint. When the full look angle
// is outside the constraint the joint turns as far as it is allowed — a
// partial look, not an error.
func (sv *Solver) SolveLookAt(bone string, target mgl64.Vec2) error {
	b, err := sv.sk.Bone(bone)
	if err != nil {
		return err
	}
	t, err := sv.sk.WorldTransform(bone)
	if err != nil {
		return err
	}
	toTarget := target.Sub(t.Start)
	if toTarget.Len() < 1e-9 {
		return nil
	}
	world := radToDeg(math.Atan2(toTarget[1], toTarget[0]))

	parentZ := 0.0
	if b.ParentName != "" {
		pt, err := sv.sk.WorldTransform(b.ParentName)
		if err != nil {
			return err
		}
		parentZ = pt.TotalRotation[2]
	}
	local := normalizeDeg(world - parentZ - b.RestRotation[2])
	return sv.sk.SetBoneRotation(bone, b.LocalRotation[0], b.LocalRotation[1], local)
}

// GroundFoot keeps a leg's ankle from sinking below groundY. When the ankle
// (the shin's end) is already at or above the ground it is a no-op; otherwise
// the ankle's ground-axis coordinate is clamped to groundY and the leg is
// re-solved with the two-bone solver. Not a separate algorithm — just a
// target clamp feeding SolveTwoBone.
func (sv *Solver) GroundFoot(thigh, shin, foot string, groundY float64) (TwoBoneResult, error) {
	ft, err := sv.sk.WorldTransform(foot)
	if err != nil {
		return TwoBoneResult{}, err
	}
	ankle := ft.Start
	if ankle[1] >= groundY {
		return TwoBoneResult{EndEffector: ankle}, nil
	}
	target := mgl64.Vec2{ankle[0], groundY}
	return sv.SolveTwoBone(thigh, shin, target, nil)
}

// HandToBone aims a two-bone arm at another bone's position plus an offset —
// hand on head, hand on hip. Convenience over SolveTwoBone.
func (sv *Solver) HandToBone(upperArm, forearm, targetBone string, offset mgl64.Vec2) (TwoBoneResult, error) {
	tt, err := sv.sk.WorldTransform(targetBone)
	if err != nil {
		return TwoBoneResult{}, err
	}
	return sv.SolveTwoBone(upperArm, forearm, tt.Start.Add(offset), nil)
}

// clampUnit clamps x into [-1, 1] before acos; the law-of-cosines ratios can
// drift just past the domain from float rounding.
func clampUnit(x float64) float64 {
	if x < -1 {
		return -1
	}
	if x > 1 {
		return 1
	}
	return x
}
