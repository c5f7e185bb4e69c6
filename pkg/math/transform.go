package math

import "github.com/go-gl/mathgl/mgl32"

// ToMgl converts v to a mathgl vector.
func (v Vec3) ToMgl() mgl32.Vec3 {
	return mgl32.Vec3{v.X, v.Y, v.Z}
}

// Vec3FromMgl converts a mathgl vector.
func Vec3FromMgl(v mgl32.Vec3) Vec3 {
	return Vec3{v[0], v[1], v[2]}
}

// Rotate returns copies of points rotated by degrees around axis through the origin.
// A zero axis leaves the points unchanged.
func Rotate(points []Vec3, axis Vec3, degrees float32) []Vec3 {
	out := make([]Vec3, len(points))
	if axis.NormalizeInPlace() == 0 {
		copy(out, points)
		return out
	}

	rot := mgl32.HomogRotate3D(mgl32.DegToRad(degrees), axis.ToMgl())
	for i, p := range points {
		out[i] = Vec3FromMgl(rot.Mul4x1(p.ToMgl().Vec4(1)).Vec3())
	}
	return out
}

// NormalizeTransform returns the matrix that maps a model with the given
// bounding center and uniform scale into a unit box around the origin:
// p' = (p - center) * scale.
func NormalizeTransform(center Vec3, scale float32) mgl32.Mat4 {
	offset := center.Scale(-scale)
	return mgl32.Translate3D(offset.X, offset.Y, offset.Z).Mul4(mgl32.Scale3D(scale, scale, scale))
}
