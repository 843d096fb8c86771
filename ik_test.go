package armature

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// armSkeleton builds a two-segment arm hanging off a zero-length anchor at
// the origin: anchor -> upper (len 1) -> fore (len 1), unconstrained.
func armSkeleton(t *testing.T) *Skeleton {
	t.Helper()
	sk := NewSkeleton("arm")
	mustAdd(t, sk, mustBone(t, "anchor", "", 0, 0))
	mustAdd(t, sk, mustBone(t, "upper", "anchor", 1, 0))
	mustAdd(t, sk, mustBone(t, "fore", "upper", 1, 0))
	return sk
}

func TestTwoBoneReachableTarget(t *testing.T) {
	sk := armSkeleton(t)
	sv := NewSolver(sk)

	target := mgl64.Vec2{1.2, 0.3}
	res, err := sv.SolveTwoBone("upper", "fore", target, nil)
	if err != nil {
		t.Fatalf("SolveTwoBone: %v", err)
	}
	if res.Clamped {
		t.Errorf("reachable target reported clamped")
	}
	if d := res.EndEffector.Sub(target).Len(); d >= sv.Tolerance {
		t.Errorf("end-effector distance = %v, want < %v", d, sv.Tolerance)
	}
}

func TestTwoBoneUnreachableClampsToFullExtension(t *testing.T) {
	sk := armSkeleton(t)
	sv := NewSolver(sk)

	target := mgl64.Vec2{5, 3}
	res, err := sv.SolveTwoBone("upper", "fore", target, nil)
	if err != nil {
		t.Fatalf("SolveTwoBone: %v", err)
	}
	if !res.Clamped {
		t.Errorf("overreach not reported clamped")
	}

	// Both joints collinear, end-effector at L1+L2 along root->target.
	root, _ := sk.WorldTransform("upper")
	dir := target.Sub(root.Start)
	dir = dir.Mul(1 / dir.Len())
	want := root.Start.Add(dir.Mul(2))
	if d := res.EndEffector.Sub(want).Len(); d > 1e-9 {
		t.Errorf("end-effector = %v, want %v (off by %v)", res.EndEffector, want, d)
	}

	upper, _ := sk.WorldTransform("upper")
	fore, _ := sk.WorldTransform("fore")
	assertNear(t, "collinear segments", upper.TotalRotation[2], fore.TotalRotation[2])
}

func TestTwoBoneInnerRadiusClampsToFullFlexion(t *testing.T) {
	sk := NewSkeleton("arm")
	mustAdd(t, sk, mustBone(t, "anchor", "", 0, 0))
	mustAdd(t, sk, mustBone(t, "upper", "anchor", 2, 0))
	mustAdd(t, sk, mustBone(t, "fore", "upper", 1, 0))
	sv := NewSolver(sk)

	// Inside |L1-L2| = 1: best effort is the fully folded chain, effector
	// at distance 1 from the root.
	res, err := sv.SolveTwoBone("upper", "fore", mgl64.Vec2{0.2, 0}, nil)
	if err != nil {
		t.Fatalf("SolveTwoBone: %v", err)
	}
	if !res.Clamped {
		t.Errorf("inner-radius target not reported clamped")
	}
	root, _ := sk.WorldTransform("upper")
	assertNear(t, "flexion distance", res.EndEffector.Sub(root.Start).Len(), 1)
}

func TestTwoBonePoleVectorPicksBendSide(t *testing.T) {
	target := mgl64.Vec2{1.2, 0}

	solveElbow := func(pole *mgl64.Vec2) mgl64.Vec2 {
		sk := armSkeleton(t)
		sv := NewSolver(sk)
		if _, err := sv.SolveTwoBone("upper", "fore", target, pole); err != nil {
			t.Fatalf("SolveTwoBone: %v", err)
		}
		upper, _ := sk.WorldTransform("upper")
		return upper.End
	}

	up := mgl64.Vec2{0.6, 5}
	down := mgl64.Vec2{0.6, -5}
	elbowUp := solveElbow(&up)
	elbowDown := solveElbow(&down)

	if elbowUp[1] <= 0 {
		t.Errorf("pole above line: elbow y = %v, want > 0", elbowUp[1])
	}
	if elbowDown[1] >= 0 {
		t.Errorf("pole below line: elbow y = %v, want < 0", elbowDown[1])
	}
}

func TestTwoBoneStructuralErrors(t *testing.T) {
	sk := armSkeleton(t)
	sv := NewSolver(sk)

	if _, err := sv.SolveTwoBone("nope", "fore", mgl64.Vec2{1, 0}, nil); !errors.Is(err, ErrUnknownBone) {
		t.Errorf("unknown bone1: got %v, want ErrUnknownBone", err)
	}
	if _, err := sv.SolveTwoBone("anchor", "fore", mgl64.Vec2{1, 0}, nil); !errors.Is(err, ErrInvalidHierarchy) {
		t.Errorf("non parent-child chain: got %v, want ErrInvalidHierarchy", err)
	}
}

func TestTwoBoneRespectsConstraints(t *testing.T) {
	sk := armSkeleton(t)
	fore, _ := sk.Bone("fore")
	fore.SetLimits(Constraint{Min: mgl64.Vec3{0, 0, -10}, Max: mgl64.Vec3{0, 0, 10}})
	sv := NewSolver(sk)

	// A sharply folded solution is outside the hinge range; the write goes
	// through SetBoneRotation, so the elbow stays clamped.
	sv.SolveTwoBone("upper", "fore", mgl64.Vec2{0.3, 0.9}, nil)
	if z := fore.LocalRotation[2]; z < -10-epsilon || z > 10+epsilon {
		t.Errorf("fore z = %v, outside clamped range [-10, 10]", z)
	}
}

// --- CCD ---

func ccdChain(t *testing.T, lengths ...float64) (*Skeleton, []string) {
	t.Helper()
	sk := NewSkeleton("chain")
	names := make([]string, len(lengths))
	parent := ""
	for i, l := range lengths {
		name := string(rune('a' + i))
		mustAdd(t, sk, mustBone(t, name, parent, l, 0))
		names[i] = name
		parent = name
	}
	return sk, names
}

func TestCCDConvergesWithinReach(t *testing.T) {
	sk, chain := ccdChain(t, 1, 1, 1)
	sv := NewSolver(sk)

	target := mgl64.Vec2{1.5, 1.2}
	res, err := sv.SolveCCD(chain, target)
	if err != nil {
		t.Fatalf("SolveCCD: %v", err)
	}
	if !res.Converged {
		t.Fatalf("did not converge: distance %v after %d iterations", res.Distance, res.Iterations)
	}
	if res.Iterations > sv.MaxIterations {
		t.Errorf("iterations = %d, exceeds budget %d", res.Iterations, sv.MaxIterations)
	}
	end, _ := sk.WorldTransform(chain[len(chain)-1])
	if d := target.Sub(end.End).Len(); d >= sv.Tolerance {
		t.Errorf("end distance = %v, want < %v", d, sv.Tolerance)
	}
}

func TestCCDTerminatesOnUnreachableTarget(t *testing.T) {
	sk, chain := ccdChain(t, 1, 1, 1)
	sv := NewSolver(sk)

	// Total reach is 3; a target at distance 5 can never converge. The
	// solve must exhaust its budget and report status, never error.
	res, err := sv.SolveCCD(chain, mgl64.Vec2{5, 0})
	if err != nil {
		t.Fatalf("SolveCCD: %v", err)
	}
	if res.Converged {
		t.Errorf("converged on unreachable target")
	}
	if res.Iterations != sv.MaxIterations {
		t.Errorf("iterations = %d, want full budget %d", res.Iterations, sv.MaxIterations)
	}
	// Best effort: the chain stretches toward the target.
	end, _ := sk.WorldTransform(chain[len(chain)-1])
	if d := math.Abs(mgl64.Vec2{5, 0}.Sub(end.End).Len() - 2); d > 0.1 {
		t.Errorf("chain not stretched toward target: residual %v", d)
	}
}

func TestCCDChainErrors(t *testing.T) {
	sk, _ := ccdChain(t, 1, 1)
	sv := NewSolver(sk)

	if _, err := sv.SolveCCD([]string{"a"}, mgl64.Vec2{1, 0}); err == nil {
		t.Errorf("single-bone chain accepted")
	}
	if _, err := sv.SolveCCD([]string{"a", "zz"}, mgl64.Vec2{1, 0}); !errors.Is(err, ErrUnknownBone) {
		t.Errorf("unknown chain bone: got %v, want ErrUnknownBone", err)
	}
}

// --- Look-at ---

func TestLookAtAimsBone(t *testing.T) {
	sk := NewSkeleton("head")
	mustAdd(t, sk, mustBone(t, "neck", "", 1, 90))
	mustAdd(t, sk, mustBone(t, "head", "neck", 0.5, 0))
	sv := NewSolver(sk)

	// Neck points up, so the head starts at (0,1). Look at a point to the
	// upper right.
	if err := sv.SolveLookAt("head", mgl64.Vec2{3, 4}); err != nil {
		t.Fatalf("SolveLookAt: %v", err)
	}
	ht, _ := sk.WorldTransform("head")
	want := radToDeg(math.Atan2(4-1, 3-0))
	assertNear(t, "head world z", ht.TotalRotation[2], want)
}

func TestLookAtClampedByConstraint(t *testing.T) {
	sk := NewSkeleton("head")
	mustAdd(t, sk, mustBone(t, "neck", "", 1, 90))
	head := mustBone(t, "head", "neck", 0.5, 0)
	head.SetLimits(Constraint{Min: mgl64.Vec3{0, 0, -30}, Max: mgl64.Vec3{0, 0, 30}})
	mustAdd(t, sk, head)
	sv := NewSolver(sk)

	// The target is straight down; the neck faces up, so the full turn is
	// far outside ±30°. The head turns as far as allowed.
	if err := sv.SolveLookAt("head", mgl64.Vec2{0, -10}); err != nil {
		t.Fatalf("SolveLookAt: %v", err)
	}
	z := head.LocalRotation[2]
	if z != -30 && z != 30 {
		t.Errorf("head z = %v, want a constraint boundary (±30)", z)
	}
}

// --- Foot grounding ---

func TestGroundFootLiftsAnkleToGround(t *testing.T) {
	sk := NewSkeleton("leg")
	mustAdd(t, sk, mustBone(t, "pelvis", "", 0, 0))
	mustAdd(t, sk, mustBone(t, "thigh", "pelvis", 1, -90))
	mustAdd(t, sk, mustBone(t, "shin", "thigh", 1, 0))
	mustAdd(t, sk, mustBone(t, "foot", "shin", 0.3, 90))
	sv := NewSolver(sk)

	// Straight leg: ankle at y=-2. Ground at -1.5 pushes it up.
	res, err := sv.GroundFoot("thigh", "shin", "foot", -1.5)
	if err != nil {
		t.Fatalf("GroundFoot: %v", err)
	}
	assertNear(t, "ankle y on ground", res.EndEffector[1], -1.5)

	// Already above ground: no-op.
	before, _ := sk.Bone("thigh")
	beforeZ := before.LocalRotation[2]
	if _, err := sv.GroundFoot("thigh", "shin", "foot", -5); err != nil {
		t.Fatalf("GroundFoot (above): %v", err)
	}
	assertNear(t, "thigh unchanged above ground", before.LocalRotation[2], beforeZ)
}

func TestHandToBone(t *testing.T) {
	sk := NewHumanoid("hero", BodyNormal)
	sv := NewSolver(sk)

	res, err := sv.HandToBone("upper_arm_r", "forearm_r", "head", mgl64.Vec2{0.1, 0})
	if err != nil {
		t.Fatalf("HandToBone: %v", err)
	}
	head, _ := sk.WorldTransform("head")
	want := head.Start.Add(mgl64.Vec2{0.1, 0})
	// The arm may not fully reach the head on every body type; reachable or
	// not, the solve must land on the root->target ray best-effort.
	if !res.Clamped {
		if d := res.EndEffector.Sub(want).Len(); d >= sv.Tolerance {
			t.Errorf("hand distance to target = %v, want < %v", d, sv.Tolerance)
		}
	}
}
