// Walk Cycle — a looping stick-figure stride.
//
// A 16-bone humanoid plays a keyframed walk clip whose root-motion channel
// slides it across the screen. Root motion accumulates per loop, so the figure
// keeps walking instead of snapping back; it wraps when it leaves the right
// edge. Number keys swap body-type presets mid-stride.
//
// Demonstrates: NewHumanoid, Clip/Player playback, root-motion accumulation,
// ApplyPose, WorldTransform-driven rendering, proportion profiles.
package main

import (
	"fmt"
	"image/color"
	"log"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/phanxgames/armature"
)

// ---- configuration --------------------------------------------------------

const (
	screenW = 1280
	screenH = 720

	pixelsPerUnit = 160 // world unit -> screen pixels
	groundScreenY = 600 // screen y of the ground line

	strideLength = 1.2 // world units covered per cycle
	cycleSeconds = 1.0
)

var (
	boneColor   = color.RGBA{R: 230, G: 225, B: 210, A: 255}
	headColor   = color.RGBA{R: 240, G: 200, B: 120, A: 255}
	jointColor  = color.RGBA{R: 120, G: 160, B: 220, A: 255}
	groundColor = color.RGBA{R: 70, G: 70, B: 80, A: 255}
)

// bodyTypes maps the digit row onto presets.
var bodyTypes = []struct {
	key  ebiten.Key
	bt   armature.BodyType
	name string
}{
	{ebiten.Key1, armature.BodyNormal, "normal"},
	{ebiten.Key2, armature.BodyMuscular, "muscular"},
	{ebiten.Key3, armature.BodyThin, "thin"},
	{ebiten.Key4, armature.BodyChild, "child"},
	{ebiten.Key5, armature.BodyGiant, "giant"},
}

// ---- clip authoring -------------------------------------------------------

// makeWalkClip keyframes a full stride: legs scissor in anti-phase, knees
// fold on the back swing, arms counter-swing, and the root-motion channel
// advances strideLength per cycle.
func makeWalkClip() *armature.Clip {
	c := armature.NewClip("walk", cycleSeconds, 30)
	c.Loop = true

	zKeys := func(bone string, interp armature.Interpolation, keys ...[2]float64) {
		for _, k := range keys {
			c.SetKey(bone, armature.Keyframe{
				Time:   k[0] * cycleSeconds,
				Value:  mgl64.Vec3{0, 0, k[1]},
				Interp: interp,
			})
		}
	}

	// Legs: thigh swings +-35° around the hang angle, opposite phases.
	zKeys("thigh_l", armature.EaseInOut, [2]float64{0, 35}, [2]float64{0.5, -35}, [2]float64{1, 35})
	zKeys("thigh_r", armature.EaseInOut, [2]float64{0, -35}, [2]float64{0.5, 35}, [2]float64{1, -35})

	// Knees fold only while the leg swings forward. Hinge limits keep the
	// values anatomical even if these keys overshoot.
	zKeys("shin_l", armature.EaseOut, [2]float64{0, 5}, [2]float64{0.25, 60}, [2]float64{0.5, 5}, [2]float64{1, 5})
	zKeys("shin_r", armature.EaseOut, [2]float64{0, 5}, [2]float64{0.5, 5}, [2]float64{0.75, 60}, [2]float64{1, 5})

	// Feet stay roughly level through the stride.
	zKeys("foot_l", armature.Linear, [2]float64{0, -10}, [2]float64{0.5, 10}, [2]float64{1, -10})
	zKeys("foot_r", armature.Linear, [2]float64{0, 10}, [2]float64{0.5, -10}, [2]float64{1, 10})

	// Arms counter-swing against the legs.
	zKeys("upper_arm_l", armature.EaseInOut, [2]float64{0, -25}, [2]float64{0.5, 25}, [2]float64{1, -25})
	zKeys("upper_arm_r", armature.EaseInOut, [2]float64{0, 25}, [2]float64{0.5, -25}, [2]float64{1, 25})
	zKeys("forearm_l", armature.EaseInOut, [2]float64{0, -20}, [2]float64{0.5, -40}, [2]float64{1, -20})
	zKeys("forearm_r", armature.EaseInOut, [2]float64{0, 40}, [2]float64{0.5, 20}, [2]float64{1, 40})

	// A little torso bob sells the weight shift.
	zKeys("spine", armature.EaseInOut, [2]float64{0, 3}, [2]float64{0.25, -3}, [2]float64{0.5, 3},
		[2]float64{0.75, -3}, [2]float64{1, 3})

	// Root motion: linear drift along +x, accumulated across loops.
	c.SetRootKey(armature.Keyframe{Time: 0, Value: mgl64.Vec3{0, 0, 0}, Interp: armature.Linear})
	c.SetRootKey(armature.Keyframe{Time: cycleSeconds, Value: mgl64.Vec3{strideLength, 0, 0}, Interp: armature.Linear})
	return c
}

// ---- game -----------------------------------------------------------------

type game struct {
	rig    *armature.Skeleton
	player *armature.Player
	body   armature.BodyType
	label  string
}

func newGame() *game {
	g := &game{
		rig:   armature.NewHumanoid("walker", armature.BodyNormal),
		label: "normal",
	}
	g.player = armature.NewPlayer(makeWalkClip())
	g.player.Play()
	return g
}

func (g *game) Update() error {
	for _, bt := range bodyTypes {
		if inpututil.IsKeyJustPressed(bt.key) && bt.bt != g.body {
			g.rig = armature.NewHumanoid("walker", bt.bt)
			g.body = bt.bt
			g.label = bt.name
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		if g.player.Playing {
			g.player.Pause()
		} else {
			g.player.Play()
		}
	}

	g.player.Update(1.0 / float64(ebiten.TPS()))
	g.rig.ApplyPose(g.player.CurrentPose())
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	vector.StrokeLine(screen, 0, groundScreenY, screenW, groundScreenY, 2, groundColor, true)

	// Wrap the accumulated root x into screen range for display only; the
	// rig's own root keeps growing.
	root := g.rig.RootPosition()
	spanUnits := float64(screenW+200) / pixelsPerUnit
	wrappedX := math.Mod(root[0], spanUnits)
	offsetX := wrappedX*pixelsPerUnit - 100

	for _, name := range g.rig.BoneNames() {
		tf, err := g.rig.WorldTransform(name)
		if err != nil {
			continue
		}
		b, _ := g.rig.Bone(name)

		x0, y0 := g.toScreen(tf.Start, offsetX, root[0])
		x1, y1 := g.toScreen(tf.End, offsetX, root[0])

		col := boneColor
		width := float32(b.Thickness * pixelsPerUnit)
		if width < 2 {
			width = 2
		}
		if b.Type == armature.BoneHead {
			// Heads render as a circle at the bone's midpoint.
			cx, cy := (x0+x1)/2, (y0+y1)/2
			r := float32(b.RestLength * pixelsPerUnit / 2)
			vector.StrokeCircle(screen, cx, cy, r, width, headColor, true)
			continue
		}
		vector.StrokeLine(screen, x0, y0, x1, y1, width, col, true)
		vector.DrawFilledCircle(screen, x0, y0, width*0.6, jointColor, true)
	}

	ebitenutil.DebugPrint(screen, fmt.Sprintf(
		"walk cycle  t=%.2fs  distance=%.1f units\nbody: %s  (1-5 to swap, space to pause)",
		g.player.Time, root[0], g.label))
}

// toScreen maps a world point to screen pixels: y-up world, figure pinned to
// the ground line, horizontal root drift replaced by its wrapped version.
func (g *game) toScreen(p mgl64.Vec2, offsetX, rootX float64) (float32, float32) {
	x := (p[0]-rootX)*pixelsPerUnit + offsetX
	y := groundScreenY - (p[1]+1.0)*pixelsPerUnit
	return float32(x), float32(y)
}

func (g *game) Layout(_, _ int) (int, int) { return screenW, screenH }

// ---- main -----------------------------------------------------------------

func main() {
	ebiten.SetWindowSize(screenW, screenH)
	ebiten.SetWindowTitle("Armature — Walk Cycle")
	if err := ebiten.RunGame(newGame()); err != nil {
		log.Fatal(err)
	}
}
