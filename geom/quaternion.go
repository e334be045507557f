package geom

import "math"

// Quaternion represents an orientation, grounded on
// original_source/Common/Quaternion.hpp's CQuaternion method set.
type Quaternion struct {
	W, X, Y, Z float64
}

// Identity is the no-rotation quaternion.
var Identity = Quaternion{W: 1}

// Normalized returns q scaled to unit length.
func (q Quaternion) Normalized() Quaternion {
	n := math.Sqrt(q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z)
	if n == 0 {
		return Identity
	}
	return Quaternion{q.W / n, q.X / n, q.Y / n, q.Z / n}
}

// Conjugate returns the inverse rotation for a unit quaternion.
func (q Quaternion) Conjugate() Quaternion {
	return Quaternion{q.W, -q.X, -q.Y, -q.Z}
}

// Mul composes two rotations: applying the result is equivalent to applying
// w then q (standard Hamilton product, q * w).
func (q Quaternion) Mul(w Quaternion) Quaternion {
	return Quaternion{
		W: q.W*w.W - q.X*w.X - q.Y*w.Y - q.Z*w.Z,
		X: q.W*w.X + q.X*w.W + q.Y*w.Z - q.Z*w.Y,
		Y: q.W*w.Y - q.X*w.Z + q.Y*w.W + q.Z*w.X,
		Z: q.W*w.Z + q.X*w.Y - q.Y*w.X + q.Z*w.W,
	}
}

// Rotate applies the rotation represented by q to vector v.
func (q Quaternion) Rotate(v Vector3) Vector3 {
	qv := Quaternion{0, v.X, v.Y, v.Z}
	r := q.Mul(qv).Mul(q.Conjugate())
	return Vector3{r.X, r.Y, r.Z}
}

// FromAxisAngle builds a rotation of angleRad around a (not necessarily
// unit) axis.
func FromAxisAngle(axis Vector3, angleRad float64) Quaternion {
	axis = axis.Normalized()
	half := angleRad / 2
	s := math.Sin(half)
	return Quaternion{math.Cos(half), axis.X * s, axis.Y * s, axis.Z * s}
}

// Transform couples a position with an orientation, the unit of data the
// spec's typed ports carry for sources and listeners (spec.md §6).
type Transform struct {
	Position    Vector3
	Orientation Quaternion
}

// DirectionTo returns the vector in world space from t's position to
// other's position. It is not normalised: its length is the distance
// between the two.
func (t Transform) DirectionTo(other Transform) Vector3 {
	return other.Position.Sub(t.Position)
}

// RelativeDirectionTo returns the direction to other's position expressed
// in t's local (head-relative) frame: the rotation t carries is undone
// before the caller measures azimuth/elevation against it.
func (t Transform) RelativeDirectionTo(other Transform) Vector3 {
	world := t.DirectionTo(other)
	return t.Orientation.Conjugate().Normalized().Rotate(world)
}

// LocalToWorld maps a point expressed in t's local (head-relative) frame
// into world space, grounded on original_source/Common/Vector3.h's
// CTransform::GetLocalTranslation (used there to find each ear's world
// position from the listener's head transform and a local offset).
func (t Transform) LocalToWorld(local Vector3) Vector3 {
	return t.Position.Add(t.Orientation.Normalized().Rotate(local))
}
