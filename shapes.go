package shapes

import (
	"fmt"
	"strings"
)

// Kind selects the fragment behavior used to fill a shape's quad.
type Kind int

const (
	// Rectangle fills the whole quad.
	Rectangle Kind = iota

	// Ellipse fills the ellipse inscribed in the quad and discards the rest.
	Ellipse

	kindCount
)

// Kinds lists every shape kind in registry order.
func Kinds() []Kind {
	return []Kind{Rectangle, Ellipse}
}

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Rectangle:
		return "Rectangle"
	case Ellipse:
		return "Ellipse"
	default:
		return "Unknown"
	}
}

// Valid reports whether k names a known shape kind.
func (k Kind) Valid() bool {
	return k >= 0 && k < kindCount
}

// ParseKind parses a kind name, case-insensitively. "rect" and "circle"
// are accepted as aliases.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rectangle", "rect":
		return Rectangle, nil
	case "ellipse", "circle":
		return Ellipse, nil
	}
	return 0, fmt.Errorf("shapes: unknown shape kind %q", s)
}

// Shape is a single draw request. It is a value produced fresh each frame
// and consumed by the renderer immediately.
//
// X and Y place the quad's center, W and H are the half-extents along the
// quad's local axes (the unit quad spans [-1, 1]), Rotation is in radians.
type Shape struct {
	Kind     Kind
	X, Y     float32
	W, H     float32
	Rotation float32

	// Fill is the shape color. A zero Fill means opaque white unless it
	// was set with WithFill, which makes any color explicit, including
	// transparent black.
	Fill RGBA

	filled bool
}

// Rect returns a rectangle draw request.
func Rect(x, y, w, h, rotation float32) Shape {
	return Shape{Kind: Rectangle, X: x, Y: y, W: w, H: h, Rotation: rotation}
}

// NewEllipse returns an ellipse draw request.
func NewEllipse(x, y, w, h, rotation float32) Shape {
	return Shape{Kind: Ellipse, X: x, Y: y, W: w, H: h, Rotation: rotation}
}

// WithFill returns a copy of s filled with c.
func (s Shape) WithFill(c RGBA) Shape {
	s.Fill = c
	s.filled = true
	return s
}

// Model returns the shape's model transform.
func (s Shape) Model() Matrix4 {
	return ModelMatrix(s.X, s.Y, s.W, s.H, s.Rotation)
}

// FillColor returns the effective fill color.
func (s Shape) FillColor() RGBA {
	if !s.filled && s.Fill.IsZero() {
		return White
	}
	return s.Fill
}
