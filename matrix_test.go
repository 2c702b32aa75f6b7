package shapes

import (
	"math"
	"testing"
)

const matrixEpsilon = 1e-6

func matricesNear(a, b Matrix4) bool {
	for i := range a {
		if math.Abs(float64(a[i]-b[i])) > matrixEpsilon {
			return false
		}
	}
	return true
}

func TestModelMatrixNoRotation(t *testing.T) {
	got := ModelMatrix(0.5, -0.25, 0.75, 0.5, 0)
	want := Matrix4{
		0.75, 0, 0, 0,
		0, 0.5, 0, 0,
		0, 0, 1, 0,
		0.5, -0.25, 0, 1,
	}
	if !matricesNear(got, want) {
		t.Errorf("ModelMatrix(rotation=0) = %v, want %v", got, want)
	}
}

func TestModelMatrixQuarterTurn(t *testing.T) {
	const x, y, w, h = 0.1, 0.2, 2, 3
	got := ModelMatrix(x, y, w, h, math.Pi/2)

	// Row-major view of the expected product:
	//	| 0  -h  0  x |
	//	| w   0  0  y |
	//	| 0   0  1  0 |
	//	| 0   0  0  1 |
	rows := [4][4]float32{
		{0, -h, 0, x},
		{w, 0, 0, y},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			if math.Abs(float64(got.At(r, c)-rows[r][c])) > matrixEpsilon {
				t.Errorf("ModelMatrix(pi/2).At(%d, %d) = %v, want %v", r, c, got.At(r, c), rows[r][c])
			}
		}
	}

	// The quad's right edge midpoint (1, 0) lands at (x, y + w).
	px, py := got.TransformPoint(1, 0)
	if math.Abs(float64(px-x)) > matrixEpsilon || math.Abs(float64(py-(y+w))) > matrixEpsilon {
		t.Errorf("TransformPoint(1, 0) = (%v, %v), want (%v, %v)", px, py, x, y+w)
	}
}

func TestModelMatrixEqualsProduct(t *testing.T) {
	tests := []struct {
		name          string
		x, y, w, h, r float32
	}{
		{"identity", 0, 0, 1, 1, 0},
		{"half turn rect", 0.5, 0, 0.75, 0.75, 0.5 * 2 * math.Pi},
		{"quarter turn ellipse", -0.3, 0, 0.25, 0.25, 0.25 * 2 * math.Pi},
		{"negative rotation", 0.2, -0.7, 1.5, 0.1, -1.1},
		{"zero size", 1, 1, 0, 0, 3},
		{"mirrored", 0, 0, -1, 2, 0.3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := Translation(tt.x, tt.y, 0).Mul(RotationZ(tt.r)).Mul(Scaling(tt.w, tt.h, 1))
			got := ModelMatrix(tt.x, tt.y, tt.w, tt.h, tt.r)
			if !matricesNear(got, want) {
				t.Errorf("ModelMatrix() = %v, want %v", got, want)
			}
		})
	}
}

func TestMatrixMulIdentity(t *testing.T) {
	m := ModelMatrix(0.3, 0.4, 2, 5, 0.7)
	if got := Identity4().Mul(m); !matricesNear(got, m) {
		t.Errorf("I * m = %v, want %v", got, m)
	}
	if got := m.Mul(Identity4()); !matricesNear(got, m) {
		t.Errorf("m * I = %v, want %v", got, m)
	}
}

func TestMatrixMulOrder(t *testing.T) {
	// Translate after scale moves by the unscaled offset.
	m := Translation(1, 0, 0).Mul(Scaling(2, 2, 1))
	if x, y := m.TransformPoint(1, 1); x != 3 || y != 2 {
		t.Errorf("T*S applied to (1,1) = (%v, %v), want (3, 2)", x, y)
	}
	m = Scaling(2, 2, 1).Mul(Translation(1, 0, 0))
	if x, y := m.TransformPoint(1, 1); x != 4 || y != 2 {
		t.Errorf("S*T applied to (1,1) = (%v, %v), want (4, 2)", x, y)
	}
}

func BenchmarkModelMatrix(b *testing.B) {
	for b.Loop() {
		_ = ModelMatrix(0.5, 0, 0.75, 0.75, math.Pi)
	}
}
