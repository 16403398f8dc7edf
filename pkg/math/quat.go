package math

import "github.com/chewxy/math32"

// Quat is a rotation quaternion with W as the scalar part, in glTF order.
type Quat struct {
	X, Y, Z, W float32
}

// QuatIdentity returns the quaternion of no rotation.
func QuatIdentity() Quat {
	return Quat{W: 1}
}

// Length returns the quaternion's norm.
func (q Quat) Length() float32 {
	return math32.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
}

// Normalize scales q to unit length. Degenerate input yields the identity.
func (q Quat) Normalize() Quat {
	l := q.Length()
	if l < 1e-4 {
		return QuatIdentity()
	}
	s := 1 / l
	return Quat{q.X * s, q.Y * s, q.Z * s, q.W * s}
}

// ToMat4 returns the rotation matrix of the normalized quaternion.
func (q Quat) ToMat4() Mat4 {
	q = q.Normalize()
	x2, y2, z2 := q.X+q.X, q.Y+q.Y, q.Z+q.Z
	xx, xy, xz := q.X*x2, q.X*y2, q.X*z2
	yy, yz, zz := q.Y*y2, q.Y*z2, q.Z*z2
	wx, wy, wz := q.W*x2, q.W*y2, q.W*z2

	return Mat4{
		1 - (yy + zz), xy + wz, xz - wy, 0,
		xy - wz, 1 - (xx + zz), yz + wx, 0,
		xz + wy, yz - wx, 1 - (xx + yy), 0,
		0, 0, 0, 1,
	}
}

// Euler returns the XYZ-order Euler angles of the rotation in radians.
func (q Quat) Euler() Vec3 {
	return q.ToMat4().Euler()
}
