// Package mapdata holds the in-memory geometry store for parsed brush maps.
//
// The store is arena-style: entities own brushes, brushes own faces, and the
// generated geometry mirrors that nesting with parallel indices.
package mapdata

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	qmath "github.com/Faultbox/brushmap/pkg/math"
)

// SpawnType decides how an entity's geometry is treated by consumers.
type SpawnType int

// Spawn type constants.
const (
	SpawnWorldspawn      SpawnType = 0 // Static world geometry, absolute coordinates
	SpawnMergeWorldspawn SpawnType = 1 // Folded into the worldspawn surface
	SpawnEntity          SpawnType = 2 // Standalone entity, local coordinates
	SpawnGroup           SpawnType = 3 // Editor group, local coordinates
)

// String returns the lowercase name used in configuration files.
func (t SpawnType) String() string {
	switch t {
	case SpawnWorldspawn:
		return "worldspawn"
	case SpawnMergeWorldspawn:
		return "merge_worldspawn"
	case SpawnEntity:
		return "entity"
	case SpawnGroup:
		return "group"
	default:
		return fmt.Sprintf("SpawnType(%d)", int(t))
	}
}

// IsLocal reports whether geometry of this spawn type is emitted relative to
// the entity center.
func (t SpawnType) IsLocal() bool {
	return t == SpawnEntity || t == SpawnGroup
}

// ParseSpawnType accepts a spawn type name or its integer value.
func ParseSpawnType(s string) (SpawnType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "worldspawn":
		return SpawnWorldspawn, nil
	case "merge_worldspawn":
		return SpawnMergeWorldspawn, nil
	case "entity":
		return SpawnEntity, nil
	case "group":
		return SpawnGroup, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < int(SpawnWorldspawn) || n > int(SpawnGroup) {
		return SpawnEntity, fmt.Errorf("unknown spawn type %q", s)
	}
	return SpawnType(n), nil
}

// FacePoints are the three points a face plane is defined by.
type FacePoints struct {
	V0, V1, V2 mgl32.Vec3
}

// ValveTextureAxis is one projection axis of the valve 220 UV format.
type ValveTextureAxis struct {
	Axis   mgl32.Vec3
	Offset float32
}

// ValveUV holds both valve projection axes.
type ValveUV struct {
	U, V ValveTextureAxis
}

// FaceUVExtra holds the parameters shared by both UV formats.
type FaceUVExtra struct {
	Rot    float32
	ScaleX float32
	ScaleY float32
}

// Face is one bounding plane of a brush.
type Face struct {
	PlanePoints FacePoints
	PlaneNormal mgl32.Vec3
	PlaneDist   float32
	TextureIdx  int
	IsValveUV   bool
	UVStandard  mgl32.Vec2 // Pixel offsets, standard format only
	UVValve     ValveUV
	UVExtra     FaceUVExtra
}

// DerivePlane computes the plane normal and distance from the defining
// points: normal = normalize((v2-v1) x (v1-v0)), distance = normal . v0.
func (f *Face) DerivePlane() {
	v0v1 := f.PlanePoints.V1.Sub(f.PlanePoints.V0)
	v1v2 := f.PlanePoints.V2.Sub(f.PlanePoints.V1)
	f.PlaneNormal = qmath.Normalize(v1v2.Cross(v0v1))
	f.PlaneDist = f.PlaneNormal.Dot(f.PlanePoints.V0)
}

// Degenerate reports whether the defining points produced no usable plane.
func (f *Face) Degenerate() bool {
	return f.PlaneNormal == (mgl32.Vec3{})
}

// Brush is a convex solid, the intersection of its faces' half-spaces.
type Brush struct {
	Faces  []Face
	Center mgl32.Vec3
}

// Entity is a property set with optional brush geometry.
type Entity struct {
	Properties map[string]string
	Brushes    []Brush
	Center     mgl32.Vec3
	SpawnType  SpawnType
}

// NewEntity returns an empty entity with the default spawn type.
func NewEntity() Entity {
	return Entity{
		Properties: make(map[string]string),
		SpawnType:  SpawnEntity,
	}
}

// Classname returns the entity's classname property, if set.
func (e *Entity) Classname() (string, bool) {
	v, ok := e.Properties["classname"]
	return v, ok
}

// FaceVertex is a single generated vertex.
type FaceVertex struct {
	Vertex  mgl32.Vec3
	Normal  mgl32.Vec3
	UV      mgl32.Vec2
	Tangent mgl32.Vec4 // XYZ direction, W handedness
}

// FaceGeometry is the generated vertex and triangle data of one face.
// It is also used as the container for gathered surfaces.
type FaceGeometry struct {
	Vertices []FaceVertex
	Indices  []int
}

// BrushGeometry holds generated geometry for every face of a brush.
type BrushGeometry struct {
	Faces []FaceGeometry
}

// EntityGeometry holds generated geometry for every brush of an entity.
type EntityGeometry struct {
	Brushes []BrushGeometry
}

// TextureData is a registered texture. Width and Height stay zero until a
// size is supplied.
type TextureData struct {
	Name   string
	Width  int
	Height int
}

// HasSize reports whether usable dimensions have been set.
func (t TextureData) HasSize() bool {
	return t.Width > 0 && t.Height > 0
}

// TextureSize is a texture's pixel dimensions.
type TextureSize struct {
	Width  int
	Height int
}

// WorldspawnLayer marks brushes carrying a texture as a separate group.
type WorldspawnLayer struct {
	TextureIdx   int
	BuildVisuals bool
}
