package armature

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

const epsilon = 1e-9

func assertNear(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > epsilon {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func assertVec2Near(t *testing.T, name string, got, want mgl64.Vec2) {
	t.Helper()
	for i := range got {
		if math.Abs(got[i]-want[i]) > epsilon {
			t.Errorf("%s[%d] = %v, want %v (full: %v vs %v)", name, i, got[i], want[i], got, want)
		}
	}
}

func assertVec3Near(t *testing.T, name string, got, want mgl64.Vec3) {
	t.Helper()
	for i := range got {
		if math.Abs(got[i]-want[i]) > epsilon {
			t.Errorf("%s[%d] = %v, want %v (full: %v vs %v)", name, i, got[i], want[i], got, want)
		}
	}
}

// mustBone builds a bone or fails the test.
func mustBone(t *testing.T, name, parent string, length float64, restZ float64) *Bone {
	t.Helper()
	b, err := NewBone(name, parent, length, mgl64.Vec3{0, 0, restZ})
	if err != nil {
		t.Fatalf("NewBone(%q): %v", name, err)
	}
	return b
}

// mustAdd adds a bone or fails the test.
func mustAdd(t *testing.T, sk *Skeleton, b *Bone) {
	t.Helper()
	if err := sk.AddBone(b); err != nil {
		t.Fatalf("AddBone(%q): %v", b.Name, err)
	}
}

// legSkeleton is the FK scenario rig: pelvis root, left leg hanging at -95°.
func legSkeleton(t *testing.T) *Skeleton {
	t.Helper()
	sk := NewSkeleton("leg")
	mustAdd(t, sk, mustBone(t, "pelvis", "", 0.5, 0))
	mustAdd(t, sk, mustBone(t, "thigh_L", "pelvis", 4, -95))
	mustAdd(t, sk, mustBone(t, "shin_L", "thigh_L", 3.5, 0))
	mustAdd(t, sk, mustBone(t, "foot_L", "shin_L", 1.5, 0))
	return sk
}

// --- Construction ---

func TestAddBoneErrors(t *testing.T) {
	sk := NewSkeleton("test")
	mustAdd(t, sk, mustBone(t, "root", "", 1, 0))

	if err := sk.AddBone(mustBone(t, "root", "", 1, 0)); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("duplicate name: got %v, want ErrDuplicateName", err)
	}
	if err := sk.AddBone(mustBone(t, "arm", "missing", 1, 0)); !errors.Is(err, ErrUnknownParent) {
		t.Errorf("unknown parent: got %v, want ErrUnknownParent", err)
	}
	if err := sk.AddBone(mustBone(t, "root2", "", 1, 0)); !errors.Is(err, ErrInvalidHierarchy) {
		t.Errorf("second root: got %v, want ErrInvalidHierarchy", err)
	}

	// Failed adds leave the skeleton unchanged.
	if sk.Len() != 1 {
		t.Errorf("skeleton has %d bones after rejected adds, want 1", sk.Len())
	}
}

func TestWorldTransformUnknownBone(t *testing.T) {
	sk := NewSkeleton("test")
	mustAdd(t, sk, mustBone(t, "root", "", 1, 0))
	if _, err := sk.WorldTransform("nope"); !errors.Is(err, ErrUnknownBone) {
		t.Errorf("got %v, want ErrUnknownBone", err)
	}
}

func TestCyclicHierarchyRejected(t *testing.T) {
	// AddBone cannot create a cycle (parents must pre-exist), so cycles can
	// only arrive via reparenting or a loaded document.
	sk := NewSkeleton("test")
	mustAdd(t, sk, mustBone(t, "a", "", 1, 0))
	mustAdd(t, sk, mustBone(t, "b", "a", 1, 0))
	mustAdd(t, sk, mustBone(t, "c", "b", 1, 0))

	if err := sk.ReparentBone("b", "c"); !errors.Is(err, ErrInvalidHierarchy) {
		t.Errorf("reparent into own subtree: got %v, want ErrInvalidHierarchy", err)
	}
	if err := sk.ReparentBone("b", "b"); !errors.Is(err, ErrInvalidHierarchy) {
		t.Errorf("reparent under self: got %v, want ErrInvalidHierarchy", err)
	}

	// Validate catches a cycle wired up behind the API's back.
	ba, _ := sk.Bone("a")
	ba.ParentName = "c"
	if err := sk.Validate(); !errors.Is(err, ErrInvalidHierarchy) {
		t.Errorf("Validate on cyclic tree: got %v, want ErrInvalidHierarchy", err)
	}
}

func TestRemoveBoneSubtree(t *testing.T) {
	sk := legSkeleton(t)
	if err := sk.RemoveBone("shin_L"); err != nil {
		t.Fatalf("RemoveBone: %v", err)
	}
	if sk.Has("shin_L") || sk.Has("foot_L") {
		t.Errorf("subtree not removed: shin=%v foot=%v", sk.Has("shin_L"), sk.Has("foot_L"))
	}
	if !sk.Has("thigh_L") {
		t.Errorf("thigh_L removed but should remain")
	}
	if err := sk.RemoveBone("shin_L"); !errors.Is(err, ErrUnknownBone) {
		t.Errorf("removing absent bone: got %v, want ErrUnknownBone", err)
	}
}

func TestReparentBone(t *testing.T) {
	sk := NewSkeleton("test")
	mustAdd(t, sk, mustBone(t, "root", "", 1, 0))
	mustAdd(t, sk, mustBone(t, "a", "root", 1, 0))
	mustAdd(t, sk, mustBone(t, "b", "root", 1, 30))

	if err := sk.ReparentBone("b", "a"); err != nil {
		t.Fatalf("ReparentBone: %v", err)
	}
	bb, _ := sk.Bone("b")
	if bb.ParentName != "a" {
		t.Errorf("b.ParentName = %q, want %q", bb.ParentName, "a")
	}
	if err := sk.Validate(); err != nil {
		t.Errorf("tree invalid after reparent: %v", err)
	}

	// b now inherits a's chain: total = root(0) + a(0) + b(30).
	bt, _ := sk.WorldTransform("b")
	at, _ := sk.WorldTransform("a")
	assertVec2Near(t, "b.Start", bt.Start, at.End)
}

// --- Forward kinematics ---

func TestRootTransformIsRootPosition(t *testing.T) {
	sk := legSkeleton(t)
	sk.SetRootPosition(3, -2)
	sk.SetBoneRotation("thigh_L", 0, 0, 45)
	sk.SetBoneRotation("shin_L", 0, 0, 80)

	got, err := sk.WorldTransform("pelvis")
	if err != nil {
		t.Fatalf("WorldTransform: %v", err)
	}
	// The root's start is its own position no matter how descendants pose.
	assertVec2Near(t, "pelvis.Start", got.Start, mgl64.Vec2{3, -2})
}

func TestLegChainFK(t *testing.T) {
	sk := legSkeleton(t)

	pelvis, _ := sk.WorldTransform("pelvis")
	shin, _ := sk.WorldTransform("shin_L")

	// Both segments share total rotation -95° since local offsets are zero:
	// shin.End = pelvis.End + 4*dir(-95°) + 3.5*dir(-95°).
	dir := angleDir(degToRad(-95))
	want := pelvis.End.Add(dir.Mul(4)).Add(dir.Mul(3.5))
	assertVec2Near(t, "shin_L.End", shin.End, want)
	assertNear(t, "shin_L.TotalRotation.z", shin.TotalRotation[2], -95)
}

func TestFKScaled(t *testing.T) {
	sk := legSkeleton(t)
	sk.SetScale(2)

	pelvis, _ := sk.WorldTransform("pelvis")
	thigh, _ := sk.WorldTransform("thigh_L")
	want := pelvis.End.Add(angleDir(degToRad(-95)).Mul(8))
	assertVec2Near(t, "thigh_L.End scaled", thigh.End, want)
}

func TestRotationClampsToConstraint(t *testing.T) {
	sk := NewSkeleton("test")
	mustAdd(t, sk, mustBone(t, "shoulder", "", 1, 0))
	elbow := mustBone(t, "elbow", "shoulder", 1, 0)
	if err := elbow.SetLimits(Constraint{Min: mgl64.Vec3{0, 0, 0}, Max: mgl64.Vec3{0, 0, 135}}); err != nil {
		t.Fatalf("SetLimits: %v", err)
	}
	mustAdd(t, sk, elbow)

	// Out-of-range set is silent, expected correction — not an error.
	if err := sk.SetBoneRotation("elbow", 0, 0, 200); err != nil {
		t.Fatalf("SetBoneRotation: %v", err)
	}
	assertNear(t, "clamped z", elbow.LocalRotation[2], 135)

	if err := sk.SetBoneRotation("elbow", 0, 0, -40); err != nil {
		t.Fatalf("SetBoneRotation: %v", err)
	}
	assertNear(t, "clamped z low", elbow.LocalRotation[2], 0)
}

func TestResetToRestReproducesRestPose(t *testing.T) {
	sk := legSkeleton(t)

	rest := make(map[string]Transform)
	for _, name := range sk.BoneNames() {
		tr, _ := sk.WorldTransform(name)
		rest[name] = tr
	}

	sk.SetBoneRotation("thigh_L", 5, -3, 60)
	sk.SetBoneRotation("shin_L", 0, 0, 45)
	sk.SetBoneRotation("foot_L", 0, 0, -20)
	sk.ResetToRest()

	for _, name := range sk.BoneNames() {
		tr, _ := sk.WorldTransform(name)
		// Bit-for-bit: the same additions in the same order must reproduce
		// the exact same floats.
		if tr != rest[name] {
			t.Errorf("%s after reset = %+v, want %+v", name, tr, rest[name])
		}
	}
}

func TestTransformMemoization(t *testing.T) {
	sk := legSkeleton(t)
	sk.updateWorldTransforms()

	// A rotation on the shin dirties only its subtree; the thigh's cache
	// stays valid.
	sk.SetBoneRotation("shin_L", 0, 0, 30)
	thigh, _ := sk.Bone("thigh_L")
	shin, _ := sk.Bone("shin_L")
	foot, _ := sk.Bone("foot_L")
	if thigh.dirty {
		t.Errorf("thigh_L dirty after shin edit")
	}
	if !shin.dirty || !foot.dirty {
		t.Errorf("shin subtree not dirtied: shin=%v foot=%v", shin.dirty, foot.dirty)
	}
}

// --- Pose/proportion operations ---

func TestApplyProportionProfile(t *testing.T) {
	sk := legSkeleton(t)

	err := sk.ApplyProportionProfile(map[string]Proportion{
		"thigh_L": {Length: 2, Thickness: 1.5},
	})
	if err != nil {
		t.Fatalf("ApplyProportionProfile: %v", err)
	}
	thigh, _ := sk.Bone("thigh_L")
	assertNear(t, "thigh length", thigh.RestLength, 8)
	assertNear(t, "thigh thickness", thigh.Thickness, 0.05*1.5)

	// An unknown name rejects the whole profile before touching anything.
	before := thigh.RestLength
	err = sk.ApplyProportionProfile(map[string]Proportion{
		"thigh_L": {Length: 2, Thickness: 1},
		"nope":    {Length: 2, Thickness: 1},
	})
	if !errors.Is(err, ErrUnknownBone) {
		t.Fatalf("got %v, want ErrUnknownBone", err)
	}
	assertNear(t, "thigh length unchanged", thigh.RestLength, before)
}

func TestCurrentPoseApplyPoseRoundTrip(t *testing.T) {
	sk := legSkeleton(t)
	sk.SetBoneRotation("thigh_L", 0, 0, 40)
	sk.SetBoneRotation("shin_L", 0, 0, 25)
	sk.SetRootPosition(1, 2)

	pose := sk.CurrentPose()
	sk.ResetToRest()
	sk.SetRootPosition(0, 0)
	sk.ApplyPose(pose)

	thigh, _ := sk.Bone("thigh_L")
	shin, _ := sk.Bone("shin_L")
	assertNear(t, "thigh z", thigh.LocalRotation[2], 40)
	assertNear(t, "shin z", shin.LocalRotation[2], 25)
	assertVec2Near(t, "root", sk.RootPosition(), mgl64.Vec2{1, 2})
}

func TestClone(t *testing.T) {
	sk := legSkeleton(t)
	sk.SetBoneRotation("thigh_L", 0, 0, 30)
	cp := sk.Clone()

	// Mutating the clone leaves the original alone.
	cp.SetBoneRotation("thigh_L", 0, 0, 90)
	orig, _ := sk.Bone("thigh_L")
	assertNear(t, "original thigh z", orig.LocalRotation[2], 30)

	if cp.Len() != sk.Len() || cp.RootName() != sk.RootName() {
		t.Errorf("clone shape mismatch: len %d/%d root %q/%q", cp.Len(), sk.Len(), cp.RootName(), sk.RootName())
	}
	if err := cp.Validate(); err != nil {
		t.Errorf("clone invalid: %v", err)
	}
}
