package geo

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/brushmap/pkg/mapdata"
	qmath "github.com/Faultbox/brushmap/pkg/math"
)

// Quake axis conventions.
var (
	upVector      = mgl32.Vec3{0, 0, 1}
	rightVector   = mgl32.Vec3{0, 1, 0}
	forwardVector = mgl32.Vec3{1, 0, 0}
)

// dominantAxis classifies a normal by its largest component magnitude,
// checked in up, right, forward order.
type dominantAxis int

const (
	axisUp dominantAxis = iota
	axisRight
	axisForward
)

func dominant(n mgl32.Vec3) dominantAxis {
	du := math32.Abs(n.Dot(upVector))
	dr := math32.Abs(n.Dot(rightVector))
	df := math32.Abs(n.Dot(forwardVector))

	switch {
	case du >= dr && du >= df:
		return axisUp
	case dr >= du && dr >= df:
		return axisRight
	default:
		return axisForward
	}
}

// StandardUV projects a vertex onto the plane picked by the face normal's
// dominant axis, then applies rotation, texture size, scale and offset.
func StandardUV(vertex mgl32.Vec3, face *mapdata.Face, texW, texH int) mgl32.Vec2 {
	var uv mgl32.Vec2
	switch dominant(face.PlaneNormal) {
	case axisUp:
		uv = mgl32.Vec2{vertex.X(), -vertex.Y()}
	case axisRight:
		uv = mgl32.Vec2{vertex.X(), -vertex.Z()}
	default:
		uv = mgl32.Vec2{vertex.Y(), -vertex.Z()}
	}

	angle := mgl32.DegToRad(face.UVExtra.Rot)
	cos, sin := math32.Cos(angle), math32.Sin(angle)
	uv = mgl32.Vec2{
		uv.X()*cos - uv.Y()*sin,
		uv.X()*sin + uv.Y()*cos,
	}

	return normalizeUV(uv, face.UVStandard, face, texW, texH)
}

// ValveUV projects a vertex onto the face's explicit U and V axes.
func ValveUV(vertex mgl32.Vec3, face *mapdata.Face, texW, texH int) mgl32.Vec2 {
	uv := mgl32.Vec2{
		face.UVValve.U.Axis.Dot(vertex),
		face.UVValve.V.Axis.Dot(vertex),
	}
	offset := mgl32.Vec2{face.UVValve.U.Offset, face.UVValve.V.Offset}
	return normalizeUV(uv, offset, face, texW, texH)
}

// normalizeUV converts a pixel-space projection to texture space.
func normalizeUV(uv, offset mgl32.Vec2, face *mapdata.Face, texW, texH int) mgl32.Vec2 {
	w, h := float32(texW), float32(texH)

	u := uv.X() / w
	v := uv.Y() / h

	u /= face.UVExtra.ScaleX
	v /= face.UVExtra.ScaleY

	u += offset.X() / w
	v += offset.Y() / h

	return mgl32.Vec2{u, v}
}

// StandardTangent derives the tangent for standard UVs. W carries the
// bitangent sign.
func StandardTangent(face *mapdata.Face) mgl32.Vec4 {
	n := face.PlaneNormal
	du := n.Dot(upVector)
	dr := n.Dot(rightVector)
	df := n.Dot(forwardVector)

	var uAxis mgl32.Vec3
	var vSign float32
	switch dominant(n) {
	case axisUp:
		uAxis = forwardVector
		vSign = qmath.Sign(du)
	case axisRight:
		uAxis = forwardVector
		vSign = -qmath.Sign(dr)
	default:
		uAxis = rightVector
		vSign = qmath.Sign(df)
	}

	vSign *= qmath.Sign(face.UVExtra.ScaleY)
	uAxis = qmath.Rotated(uAxis, n, mgl32.DegToRad(-face.UVExtra.Rot)*vSign)

	return uAxis.Vec4(vSign)
}

// ValveTangent derives the tangent from the face's U axis. W carries the
// bitangent sign.
func ValveTangent(face *mapdata.Face) mgl32.Vec4 {
	uAxis := qmath.Normalize(face.UVValve.U.Axis)
	vAxis := qmath.Normalize(face.UVValve.V.Axis)
	vSign := -qmath.Sign(face.PlaneNormal.Cross(uAxis).Dot(vAxis))

	return uAxis.Vec4(vSign)
}
