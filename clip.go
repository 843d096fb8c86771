package armature

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/tiendc/go-deepcopy"
)

// Clip is a keyframed animation: one rotation channel per animated bone, plus
// an optional root-motion translation channel. Duration is in seconds (the
// keyframe time axis); FrameRate only serves frame<->time conversion for
// frame-based editors and exporters.
type Clip struct {
	Name      string
	FrameRate float64
	Duration  float64
	Loop      bool

	Channels   map[string]*Channel
	RootMotion *Channel
}

// NewClip creates an empty clip.
func NewClip(name string, duration, frameRate float64) *Clip {
	return &Clip{
		Name:      name,
		FrameRate: frameRate,
		Duration:  duration,
		Channels:  make(map[string]*Channel),
	}
}

// SetKey inserts a rotation keyframe for a bone, creating the channel on
// first use. Channel ordering is maintained by the insert.
func (c *Clip) SetKey(bone string, k Keyframe) {
	ch, ok := c.Channels[bone]
	if !ok {
		ch = NewChannel(ChannelRotation)
		c.Channels[bone] = ch
	}
	ch.Insert(k)
}

// SetRootKey inserts a root-motion translation keyframe.
func (c *Clip) SetRootKey(k Keyframe) {
	if c.RootMotion == nil {
		c.RootMotion = NewChannel(ChannelTranslation)
	}
	c.RootMotion.Insert(k)
}

// Evaluate samples the clip at time t and assembles a pose.
//
// For looping clips t reduces modulo Duration for every rotation channel —
// rotations restart each cycle. The root-motion channel instead accumulates:
// each completed loop contributes the channel's net delta over one cycle, so
// repeated playback yields continuous world-space displacement (a moonwalk
// keeps sliding rather than snapping home). Non-looping clips clamp t into
// [0, Duration].
func (c *Clip) Evaluate(t float64) Pose {
	if t < 0 {
		t = 0
	}
	phase := t
	loops := 0.0
	if c.Loop && c.Duration > 0 {
		loops = math.Floor(t / c.Duration)
		phase = t - loops*c.Duration
	} else if t > c.Duration {
		phase = c.Duration
	}

	pose := Pose{Rotations: make(map[string]mgl64.Vec3, len(c.Channels))}
	for bone, ch := range c.Channels {
		pose.Rotations[bone] = ch.Evaluate(phase)
	}

	if c.RootMotion != nil {
		v := c.RootMotion.Evaluate(phase)
		if loops > 0 {
			delta := c.RootMotion.Evaluate(c.Duration).Sub(c.RootMotion.Evaluate(0))
			v = v.Add(delta.Mul(loops))
		}
		pose.RootPosition = mgl64.Vec2{v[0], v[1]}
		pose.HasRootMotion = true
	}
	return pose
}

// Clone returns an independent deep copy of the clip.
func (c *Clip) Clone() *Clip {
	out := &Clip{}
	deepcopy.Copy(out, c)
	return out
}

// FrameCount returns the clip length in whole frames.
func (c *Clip) FrameCount() int {
	return int(c.Duration * c.FrameRate)
}

// TimeAtFrame converts a frame number to seconds.
func (c *Clip) TimeAtFrame(frame int) float64 {
	if c.FrameRate == 0 {
		return 0
	}
	return float64(frame) / c.FrameRate
}

// FrameAtTime converts seconds to a frame number.
func (c *Clip) FrameAtTime(t float64) int {
	return int(t * c.FrameRate)
}

// --- Playback ---

// Player is a minimal transport over one clip. It owns nothing but a clock:
// call Update with the host loop's dt, then CurrentPose for the frame's pose.
// For looping clips Time grows without wrapping so root motion keeps
// accumulating across cycles.
type Player struct {
	Clip    *Clip
	Time    float64
	Playing bool
}

// NewPlayer creates a stopped player positioned at t=0.
func NewPlayer(clip *Clip) *Player {
	return &Player{Clip: clip}
}

// Play starts playback from the current time.
func (p *Player) Play() { p.Playing = true }

// Pause halts playback, keeping the current time.
func (p *Player) Pause() { p.Playing = false }

// Stop halts playback and rewinds to t=0.
func (p *Player) Stop() {
	p.Playing = false
	p.Time = 0
}

// Seek jumps to the given time, clamped to [0, Duration] for non-looping
// clips.
func (p *Player) Seek(t float64) {
	if t < 0 {
		t = 0
	}
	if !p.Clip.Loop && t > p.Clip.Duration {
		t = p.Clip.Duration
	}
	p.Time = t
}

// Update advances the clock by dt seconds. A non-looping clip stops at its
// end.
func (p *Player) Update(dt float64) {
	if !p.Playing {
		return
	}
	p.Time += dt
	if !p.Clip.Loop && p.Time >= p.Clip.Duration {
		p.Time = p.Clip.Duration
		p.Playing = false
	}
}

// CurrentPose evaluates the clip at the player's clock.
func (p *Player) CurrentPose() Pose {
	return p.Clip.Evaluate(p.Time)
}
