package app

import (
	"math"
	"math/rand/v2"

	"github.com/gogpu/shapes"
)

// Scene produces the draw requests of one tick, in painting order.
type Scene interface {
	Frame(tick uint64) []shapes.Shape
}

// SceneFunc adapts a function to Scene.
type SceneFunc func(tick uint64) []shapes.Shape

// Frame calls f.
func (f SceneFunc) Frame(tick uint64) []shapes.Shape { return f(tick) }

// StaticScene draws the same shapes every tick.
type StaticScene []shapes.Shape

// Frame returns a copy of the shapes.
func (s StaticScene) Frame(uint64) []shapes.Shape {
	return append([]shapes.Shape(nil), s...)
}

const tau = 2 * math.Pi

// DemoScene draws a rectangle rotated half a turn and, on top of it, a
// small ellipse rotated a quarter turn at a random horizontal position
// in [-1, 1) every tick.
func DemoScene(rng *rand.Rand) Scene {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return SceneFunc(func(uint64) []shapes.Shape {
		x := float32(rng.Float64()*2 - 1)
		return []shapes.Shape{
			shapes.Rect(0.5, 0, 0.75, 0.75, 0.5*tau),
			shapes.NewEllipse(x, 0, 0.25, 0.25, 0.25*tau),
		}
	})
}
