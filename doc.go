// Package armature is the character-posing core of a 2D puppet animation
// tool: a hierarchical skeletal rig with forward kinematics, constraint-
// limited joints, analytic and iterative inverse kinematics, and a keyframe
// animation engine with blending and root motion.
//
// Armature computes poses; it never draws pixels, touches files, or runs
// timers. Renderers consume named world transforms, editors feed it playback
// time and IK targets.
//
// # Quick start
//
// Build a rig (by hand with [Skeleton.AddBone], or with the [NewHumanoid]
// preset factory), pose it, and read back world transforms:
//
//	sk := armature.NewHumanoid("hero", armature.BodyNormal)
//	sk.SetBoneRotation("upper_arm_r", 0, 0, 40)
//	t, _ := sk.WorldTransform("hand_r")
//	// t.Start, t.End are the bone's world endpoints
//
// # Animation
//
// Clips hold per-bone keyframe channels. Evaluate one at a time to get a
// [Pose], then apply it:
//
//	clip := armature.NewClip("wave", 2, 60)
//	clip.SetKey("forearm_r", armature.Keyframe{Time: 0, Value: mgl64.Vec3{0, 0, 0}})
//	clip.SetKey("forearm_r", armature.Keyframe{Time: 1, Value: mgl64.Vec3{0, 0, 90}, Interp: armature.EaseInOut})
//	sk.ApplyPose(clip.Evaluate(0.5))
//
// [BlendPoses] crossfades two poses for clip transitions. A looping clip's
// root-motion channel accumulates across cycles so sustained movement (a
// moonwalk) keeps displacing the character in world space.
//
// # Inverse kinematics
//
// [Solver] offers the analytic two-bone solve with pole vectors, an iterative
// CCD solve for longer chains, single-joint look-at, and foot grounding. All
// solves respect joint constraints and handle unreachable targets
// best-effort — posing never fails mid-edit.
//
// # Rotation model
//
// The rig targets a 2D/2.5D puppet, not full 3D articulation: rotations are
// Euler-degree triples composed by component-wise addition, and bones extend
// along the in-plane (z) component of their accumulated rotation. There is
// deliberately no quaternion or matrix composition.
//
// # Concurrency
//
// Everything here is single-threaded and synchronous. Calls neither block nor
// spawn work; a host loop evaluates clips or solves IK once per tick. Hosts
// embedding a skeleton in concurrent code must serialize access themselves.
package armature
