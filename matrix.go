package shapes

import "math"

// Matrix4 is a 4x4 transformation matrix stored in column-major order,
// the layout a WGSL mat4x4<f32> expects:
//
//	| m[0]  m[4]  m[8]   m[12] |
//	| m[1]  m[5]  m[9]   m[13] |
//	| m[2]  m[6]  m[10]  m[14] |
//	| m[3]  m[7]  m[11]  m[15] |
//
// Vectors are columns; a product A.Mul(B) applied to v is A(B(v)).
type Matrix4 [16]float32

// Identity4 returns the identity matrix.
func Identity4() Matrix4 {
	return Matrix4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Translation creates a translation matrix.
func Translation(x, y, z float32) Matrix4 {
	m := Identity4()
	m[12], m[13], m[14] = x, y, z
	return m
}

// RotationZ creates a rotation about the Z axis (angle in radians,
// counter-clockwise).
func RotationZ(angle float32) Matrix4 {
	sin, cos := math.Sincos(float64(angle))
	s, c := float32(sin), float32(cos)
	m := Identity4()
	m[0], m[1] = c, s
	m[4], m[5] = -s, c
	return m
}

// Scaling creates a non-uniform scaling matrix.
func Scaling(x, y, z float32) Matrix4 {
	m := Identity4()
	m[0], m[5], m[10] = x, y, z
	return m
}

// At returns the element at the given row and column.
func (m Matrix4) At(row, col int) float32 {
	return m[col*4+row]
}

// Mul returns the product m * other.
func (m Matrix4) Mul(other Matrix4) Matrix4 {
	var r Matrix4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += m[k*4+row] * other[col*4+k]
			}
			r[col*4+row] = sum
		}
	}
	return r
}

// TransformPoint applies the matrix to the point (x, y, 0, 1) and returns
// the resulting x and y.
func (m Matrix4) TransformPoint(x, y float32) (float32, float32) {
	return m[0]*x + m[4]*y + m[12], m[1]*x + m[5]*y + m[13]
}

// ModelMatrix returns translate(x, y, 0) * rotateZ(rotation) * scale(w, h, 1).
// Applied to a unit quad vertex it scales first, then rotates, then
// translates.
func ModelMatrix(x, y, w, h, rotation float32) Matrix4 {
	sin, cos := math.Sincos(float64(rotation))
	s, c := float32(sin), float32(cos)

	// Closed form of the product above.
	return Matrix4{
		c * w, s * w, 0, 0,
		-s * h, c * h, 0, 0,
		0, 0, 1, 0,
		x, y, 0, 1,
	}
}
