package sphere

import (
	"math"

	"github.com/golang/geo/r3"
)

// Quat is a rotation quaternion with vector part (X, Y, Z) and scalar part W.
type Quat struct {
	X, Y, Z, W float64
}

const quatEpsilon = 1e-12

// IdentityQuat returns the quaternion of the identity rotation.
func IdentityQuat() Quat {
	return Quat{W: 1}
}

// QuatFromUnitVectors returns the shortest rotation taking unit vector from
// onto unit vector to. Antipodal inputs rotate by 180 degrees about an axis
// perpendicular to from.
func QuatFromUnitVectors(from, to r3.Vector) Quat {
	r := from.Dot(to) + 1
	var q Quat
	if r < quatEpsilon {
		r = 0
		if math.Abs(from.X) > math.Abs(from.Z) {
			q = Quat{X: -from.Y, Y: from.X, Z: 0, W: r}
		} else {
			q = Quat{X: 0, Y: -from.Z, Z: from.Y, W: r}
		}
	} else {
		c := from.Cross(to)
		q = Quat{X: c.X, Y: c.Y, Z: c.Z, W: r}
	}
	return q.Normalize()
}

// QuatFromBasis returns the rotation whose matrix has columns right, up and
// forward. The three vectors must form a right-handed orthonormal basis.
func QuatFromBasis(right, up, forward r3.Vector) Quat {
	m11, m12, m13 := right.X, up.X, forward.X
	m21, m22, m23 := right.Y, up.Y, forward.Y
	m31, m32, m33 := right.Z, up.Z, forward.Z

	trace := m11 + m22 + m33
	var q Quat
	switch {
	case trace > 0:
		s := 0.5 / math.Sqrt(trace+1)
		q = Quat{W: 0.25 / s, X: (m32 - m23) * s, Y: (m13 - m31) * s, Z: (m21 - m12) * s}
	case m11 > m22 && m11 > m33:
		s := 2 * math.Sqrt(1+m11-m22-m33)
		q = Quat{W: (m32 - m23) / s, X: 0.25 * s, Y: (m12 + m21) / s, Z: (m13 + m31) / s}
	case m22 > m33:
		s := 2 * math.Sqrt(1+m22-m11-m33)
		q = Quat{W: (m13 - m31) / s, X: (m12 + m21) / s, Y: 0.25 * s, Z: (m23 + m32) / s}
	default:
		s := 2 * math.Sqrt(1+m33-m11-m22)
		q = Quat{W: (m21 - m12) / s, X: (m13 + m31) / s, Y: (m23 + m32) / s, Z: 0.25 * s}
	}
	return q.Normalize()
}

// Dot returns the four-dimensional dot product of q and r.
func (q Quat) Dot(r Quat) float64 {
	return q.X*r.X + q.Y*r.Y + q.Z*r.Z + q.W*r.W
}

// Len returns the norm of q.
func (q Quat) Len() float64 {
	return math.Sqrt(q.Dot(q))
}

// Normalize returns q scaled to unit length. The zero quaternion becomes identity.
func (q Quat) Normalize() Quat {
	l := q.Len()
	if l == 0 {
		return IdentityQuat()
	}
	return Quat{X: q.X / l, Y: q.Y / l, Z: q.Z / l, W: q.W / l}
}

// Mul returns the Hamilton product q*r, the rotation r followed by q.
func (q Quat) Mul(r Quat) Quat {
	return Quat{
		X: q.X*r.W + q.W*r.X + q.Y*r.Z - q.Z*r.Y,
		Y: q.Y*r.W + q.W*r.Y + q.Z*r.X - q.X*r.Z,
		Z: q.Z*r.W + q.W*r.Z + q.X*r.Y - q.Y*r.X,
		W: q.W*r.W - q.X*r.X - q.Y*r.Y - q.Z*r.Z,
	}
}

// Rotate applies the rotation q to v.
func (q Quat) Rotate(v r3.Vector) r3.Vector {
	u := r3.Vector{X: q.X, Y: q.Y, Z: q.Z}
	t := u.Cross(v).Mul(2)
	return v.Add(t.Mul(q.W)).Add(u.Cross(t))
}

// Slerp interpolates along the shortest arc from q (t=0) to r (t=1).
func (q Quat) Slerp(r Quat, t float64) Quat {
	if t == 0 {
		return q
	}
	if t == 1 {
		return r
	}

	cosHalf := q.Dot(r)
	if cosHalf < 0 {
		r = Quat{X: -r.X, Y: -r.Y, Z: -r.Z, W: -r.W}
		cosHalf = -cosHalf
	}
	if cosHalf >= 1 {
		return q
	}

	sqrSin := 1 - cosHalf*cosHalf
	if sqrSin <= quatEpsilon {
		s := 1 - t
		return Quat{
			X: s*q.X + t*r.X,
			Y: s*q.Y + t*r.Y,
			Z: s*q.Z + t*r.Z,
			W: s*q.W + t*r.W,
		}.Normalize()
	}

	sinHalf := math.Sqrt(sqrSin)
	half := math.Atan2(sinHalf, cosHalf)
	a := math.Sin((1-t)*half) / sinHalf
	b := math.Sin(t*half) / sinHalf
	return Quat{
		X: q.X*a + r.X*b,
		Y: q.Y*a + r.Y*b,
		Z: q.Z*a + r.Z*b,
		W: q.W*a + r.W*b,
	}
}

// Approx reports whether q and r represent the same rotation within epsilon.
func (q Quat) Approx(r Quat, epsilon float64) bool {
	return math.Abs(math.Abs(q.Dot(r))-1) < epsilon
}
