package surface

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/brushmap/pkg/mapdata"
	qmath "github.com/Faultbox/brushmap/pkg/math"
)

// Arrays is a surface in Y-up mesh layout, ready for upload.
type Arrays struct {
	Vertices []mgl32.Vec3
	Normals  []mgl32.Vec3
	Tangents []float32 // 4 per vertex: xyz direction, w handedness
	UVs      []mgl32.Vec2
	Indices  []int
}

// VertexCount returns the number of vertices.
func (a *Arrays) VertexCount() int {
	return len(a.Vertices)
}

// TriangleCount returns the number of triangles.
func (a *Arrays) TriangleCount() int {
	return len(a.Indices) / 3
}

// ToArrays converts a gathered surface from Quake space. Positions are
// divided by inverseScale. Returns nil for empty surfaces.
func ToArrays(surf *mapdata.FaceGeometry, inverseScale float32) *Arrays {
	if surf == nil || len(surf.Vertices) == 0 {
		return nil
	}
	if inverseScale == 0 {
		inverseScale = 1
	}

	n := len(surf.Vertices)
	a := &Arrays{
		Vertices: make([]mgl32.Vec3, n),
		Normals:  make([]mgl32.Vec3, n),
		Tangents: make([]float32, n*4),
		UVs:      make([]mgl32.Vec2, n),
		Indices:  make([]int, len(surf.Indices)),
	}

	for i, v := range surf.Vertices {
		a.Vertices[i] = qmath.Div(qmath.Swizzle(v.Vertex), inverseScale)
		a.Normals[i] = qmath.Swizzle(v.Normal)
		t := qmath.Swizzle(v.Tangent.Vec3())
		a.Tangents[i*4] = t.X()
		a.Tangents[i*4+1] = t.Y()
		a.Tangents[i*4+2] = t.Z()
		a.Tangents[i*4+3] = v.Tangent.W()
		a.UVs[i] = v.UV
	}
	copy(a.Indices, surf.Indices)

	return a
}

// ToArraysAll converts every surface, keeping nil entries for empty ones so
// positions line up with the gathered surfaces.
func ToArraysAll(surfs []*mapdata.FaceGeometry, inverseScale float32) []*Arrays {
	out := make([]*Arrays, len(surfs))
	for i, s := range surfs {
		out[i] = ToArrays(s, inverseScale)
	}
	return out
}
