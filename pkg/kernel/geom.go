package kernel

import "math"

// Vec3 is a 3D vector in model space.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns v + w.
func (v Vec3) Add(w Vec3) Vec3 { return Vec3{v.X + w.X, v.Y + w.Y, v.Z + w.Z} }

// Sub returns v - w.
func (v Vec3) Sub(w Vec3) Vec3 { return Vec3{v.X - w.X, v.Y - w.Y, v.Z - w.Z} }

// Scale returns v * s.
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

// Dot returns the dot product of v and w.
func (v Vec3) Dot(w Vec3) float64 { return v.X*w.X + v.Y*w.Y + v.Z*w.Z }

// Cross returns the cross product of v and w.
func (v Vec3) Cross(w Vec3) Vec3 {
	return Vec3{
		v.Y*w.Z - v.Z*w.Y,
		v.Z*w.X - v.X*w.Z,
		v.X*w.Y - v.Y*w.X,
	}
}

// Length returns the Euclidean length of v.
func (v Vec3) Length() float64 { return math.Sqrt(v.Dot(v)) }

// Normalized returns v scaled to unit length, or the zero vector when v
// is degenerate.
func (v Vec3) Normalized() Vec3 {
	l := v.Length()
	if l == 0 {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

// Distance returns |v - w|.
func (v Vec3) Distance(w Vec3) float64 { return v.Sub(w).Length() }

// Matrix is a row-major 4x4 affine transform. The last row is implicitly
// (0 0 0 1); the fourth stored row is kept for uniformity but never read
// as a projective component.
type Matrix [4][4]float64

// Identity returns the identity transform.
func Identity() Matrix {
	return Matrix{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
}

// Translation returns a pure translation transform.
func Translation(v Vec3) Matrix {
	m := Identity()
	m[0][3], m[1][3], m[2][3] = v.X, v.Y, v.Z
	return m
}

// Scaling returns a uniform scaling transform about the origin.
func Scaling(s float64) Matrix {
	m := Identity()
	m[0][0], m[1][1], m[2][2] = s, s, s
	return m
}

// RotationZ returns a rotation about the Z axis by the given angle in
// radians.
func RotationZ(rad float64) Matrix {
	c, s := math.Cos(rad), math.Sin(rad)
	m := Identity()
	m[0][0], m[0][1] = c, -s
	m[1][0], m[1][1] = s, c
	return m
}

// Mul returns m * n (apply n first, then m).
func (m Matrix) Mul(n Matrix) Matrix {
	var r Matrix
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += m[i][k] * n[k][j]
			}
			r[i][j] = sum
		}
	}
	return r
}

// Apply transforms a point.
func (m Matrix) Apply(v Vec3) Vec3 {
	return Vec3{
		m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z + m[0][3],
		m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z + m[1][3],
		m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z + m[2][3],
	}
}

// ApplyDir transforms a direction (ignores translation).
func (m Matrix) ApplyDir(v Vec3) Vec3 {
	return Vec3{
		m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}

// IsIdentity reports whether m is (numerically) the identity.
func (m Matrix) IsIdentity() bool {
	id := Identity()
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			if math.Abs(m[i][j]-id[i][j]) > 1e-12 {
				return false
			}
		}
	}
	return true
}

// HasScale reports whether the linear part of m changes lengths, i.e.
// the transform is not a rigid motion.
func (m Matrix) HasScale() bool {
	for col := 0; col < 3; col++ {
		v := Vec3{m[0][col], m[1][col], m[2][col]}
		if math.Abs(v.Length()-1) > 1e-9 {
			return true
		}
	}
	return false
}

// Det returns the determinant of the linear 3x3 part.
func (m Matrix) Det() float64 {
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}

// Inverted returns the inverse affine transform. Degenerate transforms
// (zero determinant) return a *kernel.Error.
func (m Matrix) Inverted() (Matrix, error) {
	d := m.Det()
	if math.Abs(d) < 1e-15 {
		return Identity(), &Error{Op: "invert", Msg: "singular transform"}
	}
	inv := 1 / d
	var r Matrix
	r[0][0] = (m[1][1]*m[2][2] - m[1][2]*m[2][1]) * inv
	r[0][1] = (m[0][2]*m[2][1] - m[0][1]*m[2][2]) * inv
	r[0][2] = (m[0][1]*m[1][2] - m[0][2]*m[1][1]) * inv
	r[1][0] = (m[1][2]*m[2][0] - m[1][0]*m[2][2]) * inv
	r[1][1] = (m[0][0]*m[2][2] - m[0][2]*m[2][0]) * inv
	r[1][2] = (m[0][2]*m[1][0] - m[0][0]*m[1][2]) * inv
	r[2][0] = (m[1][0]*m[2][1] - m[1][1]*m[2][0]) * inv
	r[2][1] = (m[0][1]*m[2][0] - m[0][0]*m[2][1]) * inv
	r[2][2] = (m[0][0]*m[1][1] - m[0][1]*m[1][0]) * inv

	// Invert the translation: t' = -R^-1 * t.
	t := Vec3{m[0][3], m[1][3], m[2][3]}
	ti := r.ApplyDir(t).Scale(-1)
	r[0][3], r[1][3], r[2][3] = ti.X, ti.Y, ti.Z
	r[3][3] = 1
	return r, nil
}
