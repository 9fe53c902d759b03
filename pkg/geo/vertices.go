package geo

import (
	"strconv"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/brushmap/pkg/mapdata"
	qmath "github.com/Faultbox/brushmap/pkg/math"
)

// Epsilon is the plane tolerance used for intersection and hull tests.
// Higher values fix angled brushes near extents.
const Epsilon = 0.008

const (
	defaultPhongAngle = 89.0
	degToRad          = 0.0174533
)

// IntersectFaces returns the point shared by the three face planes.
// The triple is rejected when (n0 x n1) . n2 is below Epsilon; the check is
// one-sided, so negative denominators are rejected as well.
func IntersectFaces(f0, f1, f2 *mapdata.Face) (mgl32.Vec3, bool) {
	n0, n1, n2 := f0.PlaneNormal, f1.PlaneNormal, f2.PlaneNormal

	denom := n0.Cross(n1).Dot(n2)
	if denom < Epsilon {
		return mgl32.Vec3{}, false
	}

	v := n1.Cross(n2).Mul(f0.PlaneDist).
		Add(n2.Cross(n0).Mul(f1.PlaneDist)).
		Add(n0.Cross(n1).Mul(f2.PlaneDist))
	return qmath.Div(v, denom), true
}

// VertexInHull reports whether v lies inside every face half-space,
// within Epsilon.
func VertexInHull(faces []mapdata.Face, v mgl32.Vec3) bool {
	for i := range faces {
		proj := faces[i].PlaneNormal.Dot(v)
		if proj > faces[i].PlaneDist && math32.Abs(faces[i].PlaneDist-proj) > Epsilon {
			return false
		}
	}
	return true
}

// phongSettings reads smoothing settings from entity properties.
// Returns whether smoothing is on and the dot product threshold.
func phongSettings(props map[string]string) (bool, float32) {
	if props["_phong"] != "1" {
		return false, 0
	}

	angle := float32(defaultPhongAngle)
	if s, ok := props["_phong_angle"]; ok {
		if v, err := strconv.ParseFloat(s, 32); err == nil {
			angle = float32(v)
		}
	}
	return true, math32.Cos((angle + 0.01) * degToRad)
}

// generateBrushVertices fills geo with the unwound vertices of every face.
func generateBrushVertices(brush *mapdata.Brush, geo *mapdata.BrushGeometry, textures []mapdata.TextureData, phong bool, threshold float32) {
	faces := brush.Faces

	for f0 := range faces {
		face := &faces[f0]
		faceGeo := &geo.Faces[f0]
		tex := textures[face.TextureIdx]

		for f1 := range faces {
			for f2 := range faces {
				vertex, ok := IntersectFaces(face, &faces[f1], &faces[f2])
				if !ok || !VertexInHull(faces, vertex) {
					continue
				}

				normal := face.PlaneNormal
				if phong {
					if face.PlaneNormal.Dot(faces[f1].PlaneNormal) > threshold {
						normal = normal.Add(faces[f1].PlaneNormal)
					}
					if face.PlaneNormal.Dot(faces[f2].PlaneNormal) > threshold {
						normal = normal.Add(faces[f2].PlaneNormal)
					}
				}

				dup := -1
				for i := range faceGeo.Vertices {
					if faceGeo.Vertices[i].Vertex == vertex {
						dup = i
						break
					}
				}

				if dup >= 0 {
					if phong {
						faceGeo.Vertices[dup].Normal = faceGeo.Vertices[dup].Normal.Add(normal)
					}
					continue
				}

				fv := mapdata.FaceVertex{Vertex: vertex, Normal: normal}
				if face.IsValveUV {
					fv.UV = ValveUV(vertex, face, tex.Width, tex.Height)
					fv.Tangent = ValveTangent(face)
				} else {
					fv.UV = StandardUV(vertex, face, tex.Width, tex.Height)
					fv.Tangent = StandardTangent(face)
				}
				faceGeo.Vertices = append(faceGeo.Vertices, fv)
			}
		}
	}

	for f := range geo.Faces {
		verts := geo.Faces[f].Vertices
		for i := range verts {
			verts[i].Normal = qmath.Normalize(verts[i].Normal)
		}
	}
}

// brushCenter returns the mean of all generated face vertices and the
// number of vertices averaged.
func brushCenter(geo *mapdata.BrushGeometry) (mgl32.Vec3, int) {
	var sum mgl32.Vec3
	n := 0
	for _, fg := range geo.Faces {
		for _, v := range fg.Vertices {
			sum = sum.Add(v.Vertex)
			n++
		}
	}
	if n == 0 {
		return mgl32.Vec3{}, 0
	}
	return qmath.Div(sum, float32(n)), n
}
