// Reach — interactive inverse kinematics.
//
// A humanoid stands at screen center. Its right arm chases the mouse with the
// analytic two-bone solver; click to flip the elbow's pole side. A long tail
// chain bolted to the pelvis follows the same target with CCD, and the head
// tracks the cursor with the look-at solver. Unreachable targets clamp the arm
// to full extension instead of failing.
//
// Demonstrates: SolveTwoBone with pole vectors, SolveCCD, SolveLookAt,
// constraint clamping under IK, WorldTransform-driven rendering.
package main

import (
	"fmt"
	"image/color"
	"log"

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

	pixelsPerUnit = 220
	originX       = screenW / 2
	originY       = 560 // screen y of the rig's root

	tailSegments = 6
	tailLength   = 0.22 // per segment, world units
)

var (
	boneColor   = color.RGBA{R: 230, G: 225, B: 210, A: 255}
	armColor    = color.RGBA{R: 120, G: 200, B: 140, A: 255}
	tailColor   = color.RGBA{R: 200, G: 140, B: 220, A: 255}
	targetColor = color.RGBA{R: 240, G: 120, B: 100, A: 255}
	missColor   = color.RGBA{R: 160, G: 80, B: 70, A: 255}
)

// ---- game -----------------------------------------------------------------

type game struct {
	rig    *armature.Skeleton
	solver *armature.Solver
	tail   []string // CCD chain, root-adjacent first

	elbowUp bool
	status  string
}

func newGame() *game {
	rig := armature.NewHumanoid("reacher", armature.BodyNormal)

	// Bolt a free-swinging tail onto the pelvis for the CCD chain. Wide
	// z limits so the solver does the shaping, not the constraints.
	tail := make([]string, 0, tailSegments)
	parent := rig.RootName()
	for i := 0; i < tailSegments; i++ {
		name := fmt.Sprintf("tail_%d", i)
		restZ := 180.0 // first segment points away from the arm side
		if i > 0 {
			restZ = 0
		}
		b, err := armature.NewBone(name, parent, tailLength, mgl64.Vec3{0, 0, restZ})
		if err != nil {
			log.Fatal(err)
		}
		b.Type = armature.BoneLimb
		b.Thickness = 0.03
		b.SetLimits(armature.Constraint{
			Min: mgl64.Vec3{0, 0, -170},
			Max: mgl64.Vec3{0, 0, 170},
		})
		if err := rig.AddBone(b); err != nil {
			log.Fatal(err)
		}
		tail = append(tail, name)
		parent = name
	}

	return &game{
		rig:    rig,
		solver: armature.NewSolver(rig),
		tail:   tail,
	}
}

func (g *game) Update() error {
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		g.elbowUp = !g.elbowUp
	}

	mx, my := ebiten.CursorPosition()
	target := toWorld(mx, my)

	// Pole sits above or below the shoulder, flipping the elbow side.
	shoulder, err := g.rig.WorldTransform("upper_arm_r")
	if err != nil {
		return err
	}
	poleY := shoulder.Start[1] - 2
	if g.elbowUp {
		poleY = shoulder.Start[1] + 2
	}
	pole := mgl64.Vec2{shoulder.Start[0] + 0.5, poleY}

	res, err := g.solver.SolveTwoBone("upper_arm_r", "forearm_r", target, &pole)
	if err != nil {
		return err
	}
	switch {
	case res.Clamped:
		g.status = "out of reach (clamped)"
	default:
		g.status = "tracking"
	}

	ccd, err := g.solver.SolveCCD(g.tail, target)
	if err != nil {
		return err
	}
	if !ccd.Converged {
		g.status += fmt.Sprintf("  tail residual %.2f", ccd.Distance)
	}

	if err := g.solver.SolveLookAt("head", target); err != nil {
		return err
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	for _, name := range g.rig.BoneNames() {
		tf, err := g.rig.WorldTransform(name)
		if err != nil {
			continue
		}
		b, _ := g.rig.Bone(name)

		x0, y0 := toScreen(tf.Start)
		x1, y1 := toScreen(tf.End)
		width := float32(b.Thickness * pixelsPerUnit)
		if width < 2 {
			width = 2
		}

		col := boneColor
		switch {
		case name == "upper_arm_r" || name == "forearm_r" || name == "hand_r":
			col = armColor
		case len(name) > 5 && name[:5] == "tail_":
			col = tailColor
		}
		if b.Type == armature.BoneHead {
			cx, cy := (x0+x1)/2, (y0+y1)/2
			vector.StrokeCircle(screen, cx, cy, float32(b.RestLength*pixelsPerUnit/2), width, col, true)
			continue
		}
		vector.StrokeLine(screen, x0, y0, x1, y1, width, col, true)
	}

	// Target crosshair: dimmed when the arm can't reach it.
	mx, my := ebiten.CursorPosition()
	col := targetColor
	if g.status != "tracking" {
		col = missColor
	}
	vector.StrokeCircle(screen, float32(mx), float32(my), 8, 2, col, true)
	vector.StrokeLine(screen, float32(mx-12), float32(my), float32(mx+12), float32(my), 1, col, true)
	vector.StrokeLine(screen, float32(mx), float32(my-12), float32(mx), float32(my+12), 1, col, true)

	side := "down"
	if g.elbowUp {
		side = "up"
	}
	ebitenutil.DebugPrint(screen, fmt.Sprintf(
		"reach: %s\nelbow: %s (click to flip)", g.status, side))
}

func (g *game) Layout(_, _ int) (int, int) { return screenW, screenH }

// ---- coordinate mapping ---------------------------------------------------

func toScreen(p mgl64.Vec2) (float32, float32) {
	return float32(originX + p[0]*pixelsPerUnit), float32(originY - p[1]*pixelsPerUnit)
}

func toWorld(x, y int) mgl64.Vec2 {
	return mgl64.Vec2{
		(float64(x) - originX) / pixelsPerUnit,
		(originY - float64(y)) / pixelsPerUnit,
	}
}

// ---- main -----------------------------------------------------------------

func main() {
	ebiten.SetWindowSize(screenW, screenH)
	ebiten.SetWindowTitle("Armature — Reach")
	if err := ebiten.RunGame(newGame()); err != nil {
		log.Fatal(err)
	}
}
