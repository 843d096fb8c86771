package armature

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/goccy/go-yaml"
)

// ParseError describes malformed rig or clip data encountered during decode,
// naming the offending field. Structural problems found after parsing (bad
// hierarchy, inverted constraints, unordered keys) are also reported this way,
// wrapping the matching sentinel error.
type ParseError struct {
	Field string
	Msg   string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("armature: parse %s: %s: %v", e.Field, e.Msg, e.Err)
	}
	return fmt.Sprintf("armature: parse %s: %s", e.Field, e.Msg)
}

func (e *ParseError) Unwrap() error { return e.Err }

// --- Document types ---
//
// These are the stable on-disk shape of a rig and its clips. Bones reference
// parents by name and are listed parents-first in encoded output; decode
// tolerates any order by inserting in two passes.

type SkeletonDoc struct {
	Name  string    `yaml:"name"`
	Scale float64   `yaml:"scale"`
	Root  []float64 `yaml:"root_position,omitempty"`
	Bones []BoneDoc `yaml:"bones"`
}

type BoneDoc struct {
	Name          string    `yaml:"name"`
	Parent        string    `yaml:"parent,omitempty"`
	Type          string    `yaml:"type"`
	Length        float64   `yaml:"length"`
	Thickness     float64   `yaml:"thickness"`
	ZOrder        int       `yaml:"z_order,omitempty"`
	RestRotation  []float64 `yaml:"rest_rotation"`
	LocalRotation []float64 `yaml:"local_rotation,omitempty"`
	LimitMin      []float64 `yaml:"limit_min"`
	LimitMax      []float64 `yaml:"limit_max"`
}

type ClipDoc struct {
	Name       string                `yaml:"name"`
	FrameRate  float64               `yaml:"frame_rate"`
	Duration   float64               `yaml:"duration"`
	Loop       bool                  `yaml:"loop"`
	Channels   map[string]ChannelDoc `yaml:"channels"`
	RootMotion *ChannelDoc           `yaml:"root_motion,omitempty"`
}

type ChannelDoc struct {
	Keys []KeyframeDoc `yaml:"keys"`
}

type KeyframeDoc struct {
	Time      float64   `yaml:"time"`
	Value     []float64 `yaml:"value"`
	Interp    string    `yaml:"interp"`
	HandleOut []float64 `yaml:"handle_out,omitempty"`
	HandleIn  []float64 `yaml:"handle_in,omitempty"`
}

// --- Skeleton codec ---

// EncodeSkeleton serializes a skeleton to YAML, bones listed parents-first.
func EncodeSkeleton(s *Skeleton) ([]byte, error) {
	doc := SkeletonDoc{
		Name:  s.Name,
		Scale: s.Scale,
		Root:  vec2Slice(s.rootPos),
	}
	s.walkTopDown(func(b *Bone) {
		doc.Bones = append(doc.Bones, BoneDoc{
			Name:          b.Name,
			Parent:        b.ParentName,
			Type:          b.Type.String(),
			Length:        b.RestLength,
			Thickness:     b.Thickness,
			ZOrder:        b.ZOrder,
			RestRotation:  vec3Slice(b.RestRotation),
			LocalRotation: vec3Slice(b.LocalRotation),
			LimitMin:      vec3Slice(b.Limits.Min),
			LimitMax:      vec3Slice(b.Limits.Max),
		})
	})
	return yaml.Marshal(doc)
}

// DecodeSkeleton parses a YAML rig document, validates every bone and the
// tree invariant, and returns a ready skeleton. Malformed fields surface as
// *ParseError; the skeleton is only returned when fully valid.
func DecodeSkeleton(data []byte) (*Skeleton, error) {
	var doc SkeletonDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Field: "skeleton", Msg: "invalid yaml", Err: err}
	}
	if doc.Name == "" {
		return nil, &ParseError{Field: "name", Msg: "missing skeleton name"}
	}
	if len(doc.Bones) == 0 {
		return nil, &ParseError{Field: "bones", Msg: "skeleton has no bones"}
	}

	sk := NewSkeleton(doc.Name)
	if doc.Scale != 0 {
		sk.Scale = doc.Scale
	}
	if doc.Root != nil {
		v, err := sliceVec2(doc.Root)
		if err != nil {
			return nil, &ParseError{Field: "root_position", Msg: err.Error()}
		}
		sk.rootPos = v
	}

	// First pass: build bones without wiring the hierarchy, surfacing
	// per-field problems.
	bones := make([]*Bone, 0, len(doc.Bones))
	for _, bd := range doc.Bones {
		field := fmt.Sprintf("bones[%q]", bd.Name)
		if bd.Name == "" {
			return nil, &ParseError{Field: "bones", Msg: "bone with empty name"}
		}
		rest, err := sliceVec3(bd.RestRotation)
		if err != nil {
			return nil, &ParseError{Field: field + ".rest_rotation", Msg: err.Error()}
		}
		b, err := NewBone(bd.Name, bd.Parent, bd.Length, rest)
		if err != nil {
			return nil, &ParseError{Field: field + ".length", Msg: err.Error()}
		}
		typ, ok := boneTypeFromString(bd.Type)
		if !ok {
			return nil, &ParseError{Field: field + ".type", Msg: fmt.Sprintf("unknown bone type %q", bd.Type)}
		}
		b.Type = typ
		b.Thickness = bd.Thickness
		b.ZOrder = bd.ZOrder

		min, err := sliceVec3(bd.LimitMin)
		if err != nil {
			return nil, &ParseError{Field: field + ".limit_min", Msg: err.Error()}
		}
		max, err := sliceVec3(bd.LimitMax)
		if err != nil {
			return nil, &ParseError{Field: field + ".limit_max", Msg: err.Error()}
		}
		limits, err := NewConstraint(min, max)
		if err != nil {
			return nil, &ParseError{Field: field + ".limit_min", Msg: "inverted range", Err: err}
		}
		b.Limits = limits

		if bd.LocalRotation != nil {
			local, err := sliceVec3(bd.LocalRotation)
			if err != nil {
				return nil, &ParseError{Field: field + ".local_rotation", Msg: err.Error()}
			}
			b.LocalRotation = limits.Clamp(local)
		}
		bones = append(bones, b)
	}

	// Second pass: insert parents-first regardless of document order, then
	// validate the whole tree.
	pending := bones
	for len(pending) > 0 {
		progressed := false
		rest := pending[:0]
		for _, b := range pending {
			if b.ParentName == "" || sk.Has(b.ParentName) {
				if err := sk.AddBone(b); err != nil {
					return nil, &ParseError{Field: fmt.Sprintf("bones[%q]", b.Name), Msg: "hierarchy", Err: err}
				}
				progressed = true
			} else {
				rest = append(rest, b)
			}
		}
		if !progressed {
			return nil, &ParseError{
				Field: fmt.Sprintf("bones[%q].parent", pending[0].Name),
				Msg:   "unresolvable parent chain",
				Err:   ErrInvalidHierarchy,
			}
		}
		pending = rest
	}
	if err := sk.Validate(); err != nil {
		return nil, &ParseError{Field: "bones", Msg: "hierarchy", Err: err}
	}
	return sk, nil
}

// --- Clip codec ---

// EncodeClip serializes a clip to YAML.
func EncodeClip(c *Clip) ([]byte, error) {
	doc := ClipDoc{
		Name:      c.Name,
		FrameRate: c.FrameRate,
		Duration:  c.Duration,
		Loop:      c.Loop,
		Channels:  make(map[string]ChannelDoc, len(c.Channels)),
	}
	for bone, ch := range c.Channels {
		doc.Channels[bone] = channelDoc(ch)
	}
	if c.RootMotion != nil {
		rm := channelDoc(c.RootMotion)
		doc.RootMotion = &rm
	}
	return yaml.Marshal(doc)
}

// DecodeClip parses a YAML clip document, enforcing per-channel key ordering.
func DecodeClip(data []byte) (*Clip, error) {
	var doc ClipDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Field: "clip", Msg: "invalid yaml", Err: err}
	}
	if doc.Name == "" {
		return nil, &ParseError{Field: "name", Msg: "missing clip name"}
	}
	if doc.Duration < 0 {
		return nil, &ParseError{Field: "duration", Msg: "negative duration"}
	}

	c := NewClip(doc.Name, doc.Duration, doc.FrameRate)
	c.Loop = doc.Loop
	for bone, chd := range doc.Channels {
		ch, err := decodeChannel(chd, ChannelRotation, fmt.Sprintf("channels[%q]", bone))
		if err != nil {
			return nil, err
		}
		c.Channels[bone] = ch
	}
	if doc.RootMotion != nil {
		ch, err := decodeChannel(*doc.RootMotion, ChannelTranslation, "root_motion")
		if err != nil {
			return nil, err
		}
		c.RootMotion = ch
	}
	return c, nil
}

func channelDoc(ch *Channel) ChannelDoc {
	doc := ChannelDoc{Keys: make([]KeyframeDoc, len(ch.Keys))}
	for i, k := range ch.Keys {
		kd := KeyframeDoc{
			Time:   k.Time,
			Value:  vec3Slice(k.Value),
			Interp: k.Interp.String(),
		}
		if k.Interp == Bezier {
			kd.HandleOut = vec3Slice(k.HandleOut)
			kd.HandleIn = vec3Slice(k.HandleIn)
		}
		doc.Keys[i] = kd
	}
	return doc
}

func decodeChannel(doc ChannelDoc, kind ChannelKind, field string) (*Channel, error) {
	ch := NewChannel(kind)
	ch.Keys = make([]Keyframe, 0, len(doc.Keys))
	for i, kd := range doc.Keys {
		kf := fmt.Sprintf("%s.keys[%d]", field, i)
		if kd.Time < 0 {
			return nil, &ParseError{Field: kf + ".time", Msg: "negative time"}
		}
		value, err := sliceVec3(kd.Value)
		if err != nil {
			return nil, &ParseError{Field: kf + ".value", Msg: err.Error()}
		}
		interp, ok := interpolationFromString(kd.Interp)
		if !ok {
			return nil, &ParseError{Field: kf + ".interp", Msg: fmt.Sprintf("unknown interpolation %q", kd.Interp)}
		}
		k := Keyframe{Time: kd.Time, Value: value, Interp: interp}
		if kd.HandleOut != nil {
			if k.HandleOut, err = sliceVec3(kd.HandleOut); err != nil {
				return nil, &ParseError{Field: kf + ".handle_out", Msg: err.Error()}
			}
		}
		if kd.HandleIn != nil {
			if k.HandleIn, err = sliceVec3(kd.HandleIn); err != nil {
				return nil, &ParseError{Field: kf + ".handle_in", Msg: err.Error()}
			}
		}
		ch.Keys = append(ch.Keys, k)
	}
	if !ch.validateOrdering() {
		return nil, &ParseError{Field: field + ".keys", Msg: "keyframe times not strictly ascending"}
	}
	return ch, nil
}

// --- Vector helpers ---

func vec3Slice(v mgl64.Vec3) []float64 { return []float64{v[0], v[1], v[2]} }
func vec2Slice(v mgl64.Vec2) []float64 { return []float64{v[0], v[1]} }

func sliceVec3(s []float64) (mgl64.Vec3, error) {
	if len(s) != 3 {
		return mgl64.Vec3{}, fmt.Errorf("want 3 components, got %d", len(s))
	}
	return mgl64.Vec3{s[0], s[1], s[2]}, nil
}

func sliceVec2(s []float64) (mgl64.Vec2, error) {
	if len(s) != 2 {
		return mgl64.Vec2{}, fmt.Errorf("want 2 components, got %d", len(s))
	}
	return mgl64.Vec2{s[0], s[1]}, nil
}
