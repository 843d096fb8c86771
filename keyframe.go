package armature

import (
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/tanema/gween/ease"
)

// Interpolation selects how a keyframe blends toward the next one.
type Interpolation uint8

const (
	Linear Interpolation = iota
	EaseIn
	EaseOut
	EaseInOut
	Step
	Bezier
)

// String returns the lowercase tag used in serialized documents.
func (i Interpolation) String() string {
	switch i {
	case Linear:
		return "linear"
	case EaseIn:
		return "ease_in"
	case EaseOut:
		return "ease_out"
	case EaseInOut:
		return "ease_in_out"
	case Step:
		return "step"
	case Bezier:
		return "bezier"
	}
	return "unknown"
}

// interpolationFromString is the inverse of Interpolation.String.
func interpolationFromString(s string) (Interpolation, bool) {
	switch s {
	case "linear":
		return Linear, true
	case "ease_in":
		return EaseIn, true
	case "ease_out":
		return EaseOut, true
	case "ease_in_out":
		return EaseInOut, true
	case "step":
		return Step, true
	case "bezier":
		return Bezier, true
	}
	return 0, false
}

// smoothstep is 3u²-2u³ in gween's TweenFunc shape, so it slots into the same
// table as the stock easing curves. gween ships piecewise quadratics for
// in-out but the rig wants the classic smoothstep ramp.
func smoothstep(t, b, c, d float32) float32 {
	u := t / d
	return c*u*u*(3-2*u) + b
}

// easeFuncs maps the eased interpolation kinds onto curves in [0,1]→[0,1].
// Step and Bezier are handled structurally in Channel.Evaluate.
var easeFuncs = map[Interpolation]ease.TweenFunc{
	Linear:    ease.Linear,
	EaseIn:    ease.InQuad,
	EaseOut:   ease.OutQuad,
	EaseInOut: smoothstep,
}

// Keyframe is a timestamped value with a rule for reaching the next key.
// Value is an Euler-degree rotation triple for rotation channels and a
// translation for root-motion channels. HandleOut/HandleIn are value-space
// offsets forming the middle control points of a Bezier segment (the outgoing
// handle of this key, the incoming handle of the key it eases toward).
type Keyframe struct {
	Time      float64
	Value     mgl64.Vec3
	Interp    Interpolation
	HandleOut mgl64.Vec3
	HandleIn  mgl64.Vec3
}

// ChannelKind distinguishes rotation channels from the root-motion
// translation channel, which loops differently (see Clip.Evaluate).
type ChannelKind uint8

const (
	ChannelRotation ChannelKind = iota
	ChannelTranslation
)

// Channel is the ordered keyframe sequence for one (bone, property) pair.
// Keys are strictly ascending in time and unique per time — every edit
// re-establishes that invariant.
type Channel struct {
	Kind ChannelKind
	Keys []Keyframe
}

// NewChannel returns an empty channel of the given kind.
func NewChannel(kind ChannelKind) *Channel {
	return &Channel{Kind: kind}
}

// Insert adds a keyframe, keeping keys sorted by time. A key at an existing
// time replaces that key rather than duplicating it. Negative times are
// clamped to zero.
func (c *Channel) Insert(k Keyframe) {
	if k.Time < 0 {
		k.Time = 0
	}
	i := sort.Search(len(c.Keys), func(i int) bool { return c.Keys[i].Time >= k.Time })
	if i < len(c.Keys) && c.Keys[i].Time == k.Time {
		c.Keys[i] = k
		return
	}
	c.Keys = append(c.Keys, Keyframe{})
	copy(c.Keys[i+1:], c.Keys[i:])
	c.Keys[i] = k
}

// RemoveAt deletes the key whose time is within tol of t, if any.
func (c *Channel) RemoveAt(t, tol float64) bool {
	for i, k := range c.Keys {
		if k.Time >= t-tol && k.Time <= t+tol {
			c.Keys = append(c.Keys[:i], c.Keys[i+1:]...)
			return true
		}
	}
	return false
}

// Evaluate samples the channel at time t.
//
// A t exactly on a key returns that key's value with no interpolation drift.
// Before the first key or after the last the nearest key's value is held —
// channels never extrapolate; looping is the owning clip's job and reduces t
// before it reaches here. Between keys the leading key's interpolation rule
// applies at fractional progress u.
func (c *Channel) Evaluate(t float64) mgl64.Vec3 {
	if len(c.Keys) == 0 {
		return mgl64.Vec3{}
	}
	// First key strictly after t.
	j := sort.Search(len(c.Keys), func(i int) bool { return c.Keys[i].Time > t })
	if j == 0 {
		return c.Keys[0].Value
	}
	i := j - 1
	ki := c.Keys[i]
	if ki.Time == t || j == len(c.Keys) {
		return ki.Value
	}
	kj := c.Keys[j]

	u := (t - ki.Time) / (kj.Time - ki.Time)

	switch ki.Interp {
	case Step:
		// Holds ki until exactly kj.Time; the exact-time branch above
		// handles the discontinuity.
		return ki.Value
	case Bezier:
		return bezierCubic(ki.Value, ki.Value.Add(ki.HandleOut), kj.Value.Add(kj.HandleIn), kj.Value, u)
	default:
		fn, ok := easeFuncs[ki.Interp]
		if !ok {
			fn = ease.Linear
		}
		eased := float64(fn(float32(u), 0, 1, 1))
		return lerpVec3(ki.Value, kj.Value, eased)
	}
}

// StartTime returns the first key's time, or 0 for an empty channel.
func (c *Channel) StartTime() float64 {
	if len(c.Keys) == 0 {
		return 0
	}
	return c.Keys[0].Time
}

// EndTime returns the last key's time, or 0 for an empty channel.
func (c *Channel) EndTime() float64 {
	if len(c.Keys) == 0 {
		return 0
	}
	return c.Keys[len(c.Keys)-1].Time
}

// validateOrdering reports whether keys are strictly ascending in time.
// Decoded documents are checked with this; in-memory edits maintain the
// invariant by construction.
func (c *Channel) validateOrdering() bool {
	for i := 1; i < len(c.Keys); i++ {
		if c.Keys[i].Time <= c.Keys[i-1].Time {
			return false
		}
	}
	return true
}

// bezierCubic evaluates a cubic Bezier with control points p0..p3 at u,
// component-wise:
//
//	B(u) = (1-u)³p0 + 3(1-u)²u·p1 + 3(1-u)u²·p2 + u³p3
func bezierCubic(p0, p1, p2, p3 mgl64.Vec3, u float64) mgl64.Vec3 {
	w := 1 - u
	a := w * w * w
	b := 3 * w * w * u
	c := 3 * w * u * u
	d := u * u * u
	return mgl64.Vec3{
		a*p0[0] + b*p1[0] + c*p2[0] + d*p3[0],
		a*p0[1] + b*p1[1] + c*p2[1] + d*p3[1],
		a*p0[2] + b*p1[2] + c*p2[2] + d*p3[2],
	}
}
