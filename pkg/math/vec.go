// Package math provides float32 vector helpers for brush geometry.
//
// Vector types come from mgl32; the helpers here reproduce the conventions
// the map tools rely on (zero-safe normalization, signed axis rotation,
// Quake to Y-up swizzling).
package math

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Normalize returns a unit vector, or the zero vector for zero length input.
func Normalize(v mgl32.Vec3) mgl32.Vec3 {
	lsq := v.Dot(v)
	if lsq == 0 {
		return mgl32.Vec3{}
	}
	return v.Mul(1 / math32.Sqrt(lsq))
}

// Sign returns -1, 0 or 1.
func Sign(x float32) float32 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

// Rotated rotates v around a unit axis by angle radians (right-handed).
func Rotated(v, axis mgl32.Vec3, angle float32) mgl32.Vec3 {
	return mgl32.QuatRotate(angle, axis).Rotate(v)
}

// Div divides every component by s.
func Div(v mgl32.Vec3, s float32) mgl32.Vec3 {
	return mgl32.Vec3{v[0] / s, v[1] / s, v[2] / s}
}

// Swizzle converts a Quake-space vector (X forward, Y left, Z up) to Y-up
// space by reordering components as (Y, Z, X).
func Swizzle(v mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{v.Y(), v.Z(), v.X()}
}
