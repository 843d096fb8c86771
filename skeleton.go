package armature

import (
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// Transform is a bone's world-space placement: the positions of its two
// endpoints and the accumulated Euler rotation of its ancestor chain plus its
// own rest and local rotation.
type Transform struct {
	Start         mgl64.Vec2
	End           mgl64.Vec2
	TotalRotation mgl64.Vec3
}

// Proportion scales a bone's rest length and thickness. Used by body-type
// profiles (muscular, child, giant) to reshape a rig without re-authoring it.
type Proportion struct {
	Length    float64
	Thickness float64
}

// Skeleton is a rooted tree of named bones with a uniform scale. Bone names
// are case-sensitive and unique. Exactly one bone has no parent; every other
// bone's parent resolves within the skeleton and parent chains never cycle —
// structural edits are rejected whole rather than applied partially.
//
// A skeleton is single-writer: one caller mutates rotations per tick (the
// animation evaluator or an IK solve). There is no internal locking; hosts
// embedding a skeleton in concurrent code must serialize access themselves.
type Skeleton struct {
	Name  string
	Scale float64

	bones    map[string]*Bone
	children map[string][]string
	rootName string
	rootPos  mgl64.Vec2
}

// NewSkeleton creates an empty skeleton with scale 1.
func NewSkeleton(name string) *Skeleton {
	return &Skeleton{
		Name:     name,
		Scale:    1,
		bones:    make(map[string]*Bone),
		children: make(map[string][]string),
	}
}

// --- Bone management ---

// AddBone inserts a bone into the skeleton. It fails with ErrDuplicateName if
// the name is taken, ErrUnknownParent if ParentName does not resolve, and
// ErrInvalidHierarchy if the bone would be a second root. The skeleton is
// unchanged on failure.
func (s *Skeleton) AddBone(b *Bone) error {
	if _, ok := s.bones[b.Name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateName, b.Name)
	}
	if b.ParentName == "" {
		if s.rootName != "" {
			return fmt.Errorf("%w: %q would be a second root (root is %q)", ErrInvalidHierarchy, b.Name, s.rootName)
		}
		s.rootName = b.Name
	} else {
		if _, ok := s.bones[b.ParentName]; !ok {
			return fmt.Errorf("%w: %q (parent of %q)", ErrUnknownParent, b.ParentName, b.Name)
		}
		s.children[b.ParentName] = append(s.children[b.ParentName], b.Name)
	}
	s.bones[b.Name] = b
	b.dirty = true
	return nil
}

// Bone returns the named bone, or ErrUnknownBone if absent.
func (s *Skeleton) Bone(name string) (*Bone, error) {
	b, ok := s.bones[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBone, name)
	}
	return b, nil
}

// Has reports whether the skeleton contains the named bone.
func (s *Skeleton) Has(name string) bool {
	_, ok := s.bones[name]
	return ok
}

// Len returns the number of bones.
func (s *Skeleton) Len() int { return len(s.bones) }

// RootName returns the name of the root bone, or "" for an empty skeleton.
func (s *Skeleton) RootName() string { return s.rootName }

// BoneNames returns all bone names in sorted order.
func (s *Skeleton) BoneNames() []string {
	names := make([]string, 0, len(s.bones))
	for name := range s.bones {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Children returns the names of the bone's direct children in insertion order.
// The returned slice must not be mutated.
func (s *Skeleton) Children(name string) []string {
	return s.children[name]
}

// RemoveBone detaches the named bone and its entire subtree from the skeleton.
// Removing the root empties the skeleton's root slot. Fails with
// ErrUnknownBone if the name is absent.
func (s *Skeleton) RemoveBone(name string) error {
	b, ok := s.bones[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownBone, name)
	}
	for _, child := range append([]string(nil), s.children[name]...) {
		s.RemoveBone(child)
	}
	if b.ParentName != "" {
		s.children[b.ParentName] = removeName(s.children[b.ParentName], name)
	}
	delete(s.children, name)
	delete(s.bones, name)
	if s.rootName == name {
		s.rootName = ""
	}
	return nil
}

// ReparentBone moves a bone (and its subtree) under a new parent. The root
// cannot be reparented, and the new parent must not lie inside the bone's own
// subtree — either case fails with ErrInvalidHierarchy and leaves the tree
// unchanged.
func (s *Skeleton) ReparentBone(name, newParent string) error {
	b, ok := s.bones[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownBone, name)
	}
	if _, ok := s.bones[newParent]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownParent, newParent)
	}
	if name == s.rootName {
		return fmt.Errorf("%w: cannot reparent root bone %q", ErrInvalidHierarchy, name)
	}
	if s.isDescendant(newParent, name) || newParent == name {
		return fmt.Errorf("%w: %q is inside the subtree of %q", ErrInvalidHierarchy, newParent, name)
	}
	s.children[b.ParentName] = removeName(s.children[b.ParentName], name)
	b.ParentName = newParent
	s.children[newParent] = append(s.children[newParent], name)
	s.markSubtreeDirty(name)
	return nil
}

// isDescendant reports whether name lies in the subtree rooted at ancestor.
func (s *Skeleton) isDescendant(name, ancestor string) bool {
	for _, child := range s.children[ancestor] {
		if child == name || s.isDescendant(name, child) {
			return true
		}
	}
	return false
}

// Validate checks the whole-tree invariant: exactly one root, every parent
// resolvable, and every bone's parent chain reaching the root in finite steps.
// Decoded documents are validated with this before a skeleton is returned.
func (s *Skeleton) Validate() error {
	if len(s.bones) == 0 {
		return nil
	}
	roots := 0
	for _, b := range s.bones {
		if b.ParentName == "" {
			roots++
		} else if _, ok := s.bones[b.ParentName]; !ok {
			return fmt.Errorf("%w: %q (parent of %q)", ErrUnknownParent, b.ParentName, b.Name)
		}
	}
	if roots != 1 {
		return fmt.Errorf("%w: skeleton has %d roots, want 1", ErrInvalidHierarchy, roots)
	}
	// Walk each parent chain; more steps than bones means a cycle.
	for name, b := range s.bones {
		steps := 0
		for cur := b; cur.ParentName != ""; cur = s.bones[cur.ParentName] {
			steps++
			if steps > len(s.bones) {
				return fmt.Errorf("%w: parent chain of %q cycles", ErrInvalidHierarchy, name)
			}
		}
	}
	return nil
}

// --- Pose manipulation ---

// SetBoneRotation sets a bone's local rotation, silently clamping each axis to
// the bone's constraint. Out-of-range values are expected input (a drag past a
// joint limit), not an error. Fails only with ErrUnknownBone.
func (s *Skeleton) SetBoneRotation(name string, x, y, z float64) error {
	b, ok := s.bones[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownBone, name)
	}
	b.LocalRotation = b.Limits.Clamp(mgl64.Vec3{x, y, z})
	s.markSubtreeDirty(name)
	return nil
}

// RotateBone adds a delta to a bone's local rotation, clamped to its
// constraint.
func (s *Skeleton) RotateBone(name string, dx, dy, dz float64) error {
	b, ok := s.bones[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownBone, name)
	}
	r := b.LocalRotation
	return s.SetBoneRotation(name, r[0]+dx, r[1]+dy, r[2]+dz)
}

// ResetToRest zeroes every bone's local rotation, returning the rig to its
// rest pose.
func (s *Skeleton) ResetToRest() {
	for _, b := range s.bones {
		b.LocalRotation = mgl64.Vec3{}
		b.dirty = true
	}
}

// SetRootPosition places the skeleton root in world space. Animation playback
// drives this from the clip's root-motion channel.
func (s *Skeleton) SetRootPosition(x, y float64) {
	s.rootPos = mgl64.Vec2{x, y}
	if s.rootName != "" {
		s.markSubtreeDirty(s.rootName)
	}
}

// RootPosition returns the skeleton root's world position.
func (s *Skeleton) RootPosition() mgl64.Vec2 { return s.rootPos }

// SetScale sets the uniform length multiplier applied to every bone.
func (s *Skeleton) SetScale(scale float64) {
	s.Scale = scale
	if s.rootName != "" {
		s.markSubtreeDirty(s.rootName)
	}
}

// ApplyProportionProfile multiplies named bones' rest length and thickness by
// the given factors. All names are validated before any bone is touched, so a
// bad profile leaves the skeleton unchanged (ErrUnknownBone).
func (s *Skeleton) ApplyProportionProfile(profile map[string]Proportion) error {
	for name := range profile {
		if _, ok := s.bones[name]; !ok {
			return fmt.Errorf("%w: %q in proportion profile", ErrUnknownBone, name)
		}
	}
	for name, p := range profile {
		b := s.bones[name]
		b.RestLength *= p.Length
		b.Thickness *= p.Thickness
		s.markSubtreeDirty(name)
	}
	return nil
}

// CurrentPose snapshots every bone's local rotation plus the root position.
func (s *Skeleton) CurrentPose() Pose {
	p := Pose{
		Rotations:     make(map[string]mgl64.Vec3, len(s.bones)),
		RootPosition:  s.rootPos,
		HasRootMotion: true,
	}
	for name, b := range s.bones {
		p.Rotations[name] = b.LocalRotation
	}
	return p
}

// ApplyPose writes a pose's rotations through constraint clamping. Bones
// named in the pose but absent from the skeleton are ignored; skeleton bones
// absent from the pose keep their rotation. The root position is applied only
// when the pose carries root motion.
func (s *Skeleton) ApplyPose(p Pose) {
	for name, rot := range p.Rotations {
		if _, ok := s.bones[name]; ok {
			s.SetBoneRotation(name, rot[0], rot[1], rot[2])
		}
	}
	if p.HasRootMotion {
		s.SetRootPosition(p.RootPosition[0], p.RootPosition[1])
	}
}

// --- Forward kinematics ---

// WorldTransform returns the bone's world-space placement, recomputing stale
// transforms first. Fails with ErrUnknownBone for an absent name.
func (s *Skeleton) WorldTransform(name string) (Transform, error) {
	b, ok := s.bones[name]
	if !ok {
		return Transform{}, fmt.Errorf("%w: %q", ErrUnknownBone, name)
	}
	s.updateWorldTransforms()
	return Transform{Start: b.worldStart, End: b.worldEnd, TotalRotation: b.worldTotal}, nil
}

// updateWorldTransforms runs FK over the whole tree, root first. Each bone's
// transform derives from its parent's cached transform, so the pass is O(n)
// and a clean subtree is never recomputed.
//
// The rig is a 2D puppet: rotations compose by component-wise Euler addition
// (no quaternions) and a bone extends from its parent's end along the in-plane
// (z) component of its total rotation. Reworking this into full 3D rotation
// composition would change the posing behavior, not improve it.
func (s *Skeleton) updateWorldTransforms() {
	if s.rootName == "" {
		return
	}
	s.updateBone(s.bones[s.rootName], nil, false)
}

func (s *Skeleton) updateBone(b *Bone, parent *Bone, parentRecomputed bool) {
	recompute := b.dirty || parentRecomputed
	if recompute {
		if parent == nil {
			b.worldStart = s.rootPos
			b.worldTotal = b.RestRotation.Add(b.LocalRotation)
		} else {
			b.worldStart = parent.worldEnd
			b.worldTotal = parent.worldTotal.Add(b.RestRotation).Add(b.LocalRotation)
		}
		theta := degToRad(b.worldTotal[2])
		b.worldEnd = b.worldStart.Add(angleDir(theta).Mul(b.RestLength * s.Scale))
		b.dirty = false
	}
	for _, child := range s.children[b.Name] {
		s.updateBone(s.bones[child], b, recompute)
	}
}

// markSubtreeDirty invalidates the cached world transform of a bone and all
// its descendants.
func (s *Skeleton) markSubtreeDirty(name string) {
	b, ok := s.bones[name]
	if !ok {
		return
	}
	b.dirty = true
	for _, child := range s.children[name] {
		s.markSubtreeDirty(child)
	}
}

// --- Cloning ---

// Clone returns an independent deep copy of the skeleton.
func (s *Skeleton) Clone() *Skeleton {
	out := NewSkeleton(s.Name)
	out.Scale = s.Scale
	out.rootPos = s.rootPos
	s.walkTopDown(func(b *Bone) {
		cp := *b
		cp.dirty = true
		out.AddBone(&cp)
	})
	return out
}

// walkTopDown visits every bone root-first, parents before children.
func (s *Skeleton) walkTopDown(fn func(*Bone)) {
	if s.rootName == "" {
		return
	}
	var visit func(name string)
	visit = func(name string) {
		fn(s.bones[name])
		for _, child := range s.children[name] {
			visit(child)
		}
	}
	visit(s.rootName)
}

// removeName deletes the first occurrence of name from names.
func removeName(names []string, name string) []string {
	for i, n := range names {
		if n == name {
			return append(names[:i], names[i+1:]...)
		}
	}
	return names
}

// Reach returns the summed scaled rest length along a chain of bone names.
// IK callers use it to pre-check whether a target is within range.
func (s *Skeleton) Reach(chain []string) (float64, error) {
	total := 0.0
	for _, name := range chain {
		b, ok := s.bones[name]
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrUnknownBone, name)
		}
		total += b.RestLength * s.Scale
	}
	return total, nil
}
