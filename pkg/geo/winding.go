package geo

import (
	"sort"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/brushmap/pkg/mapdata"
	qmath "github.com/Faultbox/brushmap/pkg/math"
)

// windFace orders a face's vertices by angle around their centroid, in
// the plane of the face.
func windFace(face *mapdata.Face, faceGeo *mapdata.FaceGeometry) {
	verts := faceGeo.Vertices
	if len(verts) < 3 {
		return
	}

	basis := qmath.Normalize(verts[1].Vertex.Sub(verts[0].Vertex))
	normal := qmath.Normalize(face.PlaneNormal)

	var center mgl32.Vec3
	for _, v := range verts {
		center = center.Add(v.Vertex)
	}
	center = qmath.Div(center, float32(len(verts)))

	u := basis
	v := u.Cross(normal)

	angles := make([]float32, len(verts))
	for i := range verts {
		loc := verts[i].Vertex.Sub(center)
		angles[i] = math32.Atan2(loc.Dot(v), loc.Dot(u))
	}

	sort.Stable(byAngle{verts: verts, angles: angles})
}

type byAngle struct {
	verts  []mapdata.FaceVertex
	angles []float32
}

func (s byAngle) Len() int           { return len(s.verts) }
func (s byAngle) Less(i, j int) bool { return s.angles[i] < s.angles[j] }
func (s byAngle) Swap(i, j int) {
	s.verts[i], s.verts[j] = s.verts[j], s.verts[i]
	s.angles[i], s.angles[j] = s.angles[j], s.angles[i]
}

// indexFace fan-triangulates a wound face from vertex 0.
func indexFace(faceGeo *mapdata.FaceGeometry) {
	n := len(faceGeo.Vertices)
	if n < 3 {
		return
	}

	faceGeo.Indices = make([]int, 0, (n-2)*3)
	for i := 0; i < n-2; i++ {
		faceGeo.Indices = append(faceGeo.Indices, 0, i+1, i+2)
	}
}
