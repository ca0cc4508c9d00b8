package geom

import "math"

// Matrix4 is a 4x4 matrix in row-major order operating on column vectors:
// row r, column c is M[r][c], and (M * v)[r] = sum_c M[r][c] * v[c].
type Matrix4 [4][4]float64

// Identity returns the identity matrix.
func Identity() Matrix4 {
	return Matrix4{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
}

// FromValues builds a matrix from 16 row-major values.
func FromValues(v [16]float64) Matrix4 {
	var m Matrix4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			m[r][c] = v[r*4+c]
		}
	}
	return m
}

// Multiply returns m * other.
func (m Matrix4) Multiply(other Matrix4) Matrix4 {
	var out Matrix4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += m[r][k] * other[k][c]
			}
			out[r][c] = sum
		}
	}
	return out
}

// MulVec4 returns m * v.
func (m Matrix4) MulVec4(v Vector4) Vector4 {
	return Vector4{
		X: m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z + m[0][3]*v.W,
		Y: m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z + m[1][3]*v.W,
		Z: m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z + m[2][3]*v.W,
		W: m[3][0]*v.X + m[3][1]*v.Y + m[3][2]*v.Z + m[3][3]*v.W,
	}
}

// Transpose returns the transpose of m.
func (m Matrix4) Transpose() Matrix4 {
	var out Matrix4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			out[r][c] = m[c][r]
		}
	}
	return out
}

// Inverse returns the inverse matrix.
// Returns the identity matrix if the matrix is not invertible.
func (m Matrix4) Inverse() Matrix4 {
	a00, a01, a02, a03 := m[0][0], m[0][1], m[0][2], m[0][3]
	a10, a11, a12, a13 := m[1][0], m[1][1], m[1][2], m[1][3]
	a20, a21, a22, a23 := m[2][0], m[2][1], m[2][2], m[2][3]
	a30, a31, a32, a33 := m[3][0], m[3][1], m[3][2], m[3][3]

	b00 := a00*a11 - a01*a10
	b01 := a00*a12 - a02*a10
	b02 := a00*a13 - a03*a10
	b03 := a01*a12 - a02*a11
	b04 := a01*a13 - a03*a11
	b05 := a02*a13 - a03*a12
	b06 := a20*a31 - a21*a30
	b07 := a20*a32 - a22*a30
	b08 := a20*a33 - a23*a30
	b09 := a21*a32 - a22*a31
	b10 := a21*a33 - a23*a31
	b11 := a22*a33 - a23*a32

	det := b00*b11 - b01*b10 + b02*b09 + b03*b08 - b04*b07 + b05*b06
	if math.Abs(det) < 1e-12 {
		return Identity()
	}
	invDet := 1 / det

	return Matrix4{
		{
			(a11*b11 - a12*b10 + a13*b09) * invDet,
			(a02*b10 - a01*b11 - a03*b09) * invDet,
			(a31*b05 - a32*b04 + a33*b03) * invDet,
			(a22*b04 - a21*b05 - a23*b03) * invDet,
		},
		{
			(a12*b08 - a10*b11 - a13*b07) * invDet,
			(a00*b11 - a02*b08 + a03*b07) * invDet,
			(a32*b02 - a30*b05 - a33*b01) * invDet,
			(a20*b05 - a22*b02 + a23*b01) * invDet,
		},
		{
			(a10*b10 - a11*b08 + a13*b06) * invDet,
			(a01*b08 - a00*b10 - a03*b06) * invDet,
			(a30*b04 - a31*b02 + a33*b00) * invDet,
			(a21*b02 - a20*b04 - a23*b00) * invDet,
		},
		{
			(a11*b07 - a10*b09 - a12*b06) * invDet,
			(a00*b09 - a01*b07 + a02*b06) * invDet,
			(a31*b01 - a30*b03 - a32*b00) * invDet,
			(a20*b03 - a21*b01 + a22*b00) * invDet,
		},
	}
}

// Float32Columns returns the matrix as 16 float32 values in column-major
// order, the layout expected by a WGSL mat4x4<f32> uniform.
func (m Matrix4) Float32Columns() [16]float32 {
	var out [16]float32
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			out[c*4+r] = float32(m[r][c])
		}
	}
	return out
}
