// Package surface assembles generated brush geometry into mesh batches.
package surface

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/brushmap/pkg/mapdata"
)

// SplitType decides how geometry is grouped into surfaces.
type SplitType int

// Split types.
const (
	SplitNone   SplitType = iota // One surface for everything
	SplitEntity                  // One surface per entity, merged entities fold into surface 0
	SplitBrush                   // One surface per brush
)

// String returns the lowercase split name.
func (s SplitType) String() string {
	switch s {
	case SplitNone:
		return "none"
	case SplitEntity:
		return "entity"
	case SplitBrush:
		return "brush"
	default:
		return fmt.Sprintf("SplitType(%d)", int(s))
	}
}

// ParseSplitType accepts "none", "entity" or "brush".
func ParseSplitType(s string) (SplitType, error) {
	switch s {
	case "none", "":
		return SplitNone, nil
	case "entity":
		return SplitEntity, nil
	case "brush":
		return SplitBrush, nil
	}
	return SplitNone, fmt.Errorf("unknown split type %q", s)
}

// Gatherer collects face geometry from a generated store. It never
// modifies the store.
type Gatherer struct {
	Data *mapdata.MapData

	Split                  SplitType
	EntityFilter           int // -1 for all entities
	BrushFilterTexture     int // -1 for none
	FaceFilterTexture      int // -1 for none
	FilterWorldspawnLayers bool

	textureFilter map[int]struct{}
	surfaces      []*mapdata.FaceGeometry
}

// New creates a gatherer with default parameters.
func New(data *mapdata.MapData) *Gatherer {
	g := &Gatherer{Data: data}
	g.ResetParams()
	return g
}

// ResetParams restores the default parameters: no split, no filters,
// worldspawn layer brushes excluded.
func (g *Gatherer) ResetParams() {
	g.Split = SplitNone
	g.EntityFilter = -1
	g.BrushFilterTexture = -1
	g.FaceFilterTexture = -1
	g.FilterWorldspawnLayers = true
	g.textureFilter = nil
}

// SetTextureFilter restricts gathering to faces using one of the named
// textures. Names missing from the map are ignored; with no known names the
// filter is cleared.
func (g *Gatherer) SetTextureFilter(names ...string) {
	g.textureFilter = nil
	for _, name := range names {
		idx := g.Data.FindTexture(name)
		if idx == -1 {
			continue
		}
		if g.textureFilter == nil {
			g.textureFilter = make(map[int]struct{})
		}
		g.textureFilter[idx] = struct{}{}
	}
}

// SetBrushFilterTexture drops brushes whose faces all use the named texture.
func (g *Gatherer) SetBrushFilterTexture(name string) {
	g.BrushFilterTexture = g.Data.FindTexture(name)
}

// SetFaceFilterTexture drops faces using the named texture.
func (g *Gatherer) SetFaceFilterTexture(name string) {
	g.FaceFilterTexture = g.Data.FindTexture(name)
}

// Surfaces returns the result of the last Run.
func (g *Gatherer) Surfaces() []*mapdata.FaceGeometry {
	return g.surfaces
}

// Run gathers surfaces according to the current parameters.
func (g *Gatherer) Run() []*mapdata.FaceGeometry {
	g.surfaces = nil

	surfIdx := -1
	if g.Split == SplitNone {
		surfIdx = g.addSurface()
	}

	data := g.Data
	for e := range data.Entities {
		if g.filterEntity(e) || e >= len(data.EntityGeo) {
			continue
		}
		ent := &data.Entities[e]

		if g.Split == SplitEntity {
			if ent.SpawnType == mapdata.SpawnMergeWorldspawn {
				g.addSurface()
				surfIdx = 0
			} else {
				surfIdx = g.addSurface()
			}
		}

		var offset mgl32.Vec3
		local := ent.SpawnType.IsLocal()
		if local {
			offset = ent.Center
		}

		for b, brushGeo := range data.EntityGeo[e].Brushes {
			if g.Split == SplitBrush {
				surfIdx = g.addSurface()
			}
			if g.filterBrush(e, b) {
				continue
			}

			surf := g.surfaces[surfIdx]
			for f := range brushGeo.Faces {
				if g.filterFace(e, b, f) {
					continue
				}
				faceGeo := &brushGeo.Faces[f]

				base := len(surf.Vertices)
				for _, v := range faceGeo.Vertices {
					if local {
						v.Vertex = v.Vertex.Sub(offset)
					}
					surf.Vertices = append(surf.Vertices, v)
				}
				for _, idx := range faceGeo.Indices {
					surf.Indices = append(surf.Indices, idx+base)
				}
			}
		}
	}

	return g.surfaces
}

func (g *Gatherer) addSurface() int {
	g.surfaces = append(g.surfaces, &mapdata.FaceGeometry{})
	return len(g.surfaces) - 1
}

func (g *Gatherer) filterEntity(e int) bool {
	return g.EntityFilter != -1 && e != g.EntityFilter
}

// filterBrush drops brushes fully covered by the brush filter texture and,
// depending on FilterWorldspawnLayers, brushes carrying a layer texture.
func (g *Gatherer) filterBrush(e, b int) bool {
	faces := g.Data.Entities[e].Brushes[b].Faces

	if g.BrushFilterTexture != -1 {
		covered := true
		for _, f := range faces {
			if f.TextureIdx != g.BrushFilterTexture {
				covered = false
				break
			}
		}
		if covered {
			return true
		}
	}

	if g.Data.IsLayerBrush(e, b) {
		return g.FilterWorldspawnLayers
	}
	return false
}

func (g *Gatherer) filterFace(e, b, f int) bool {
	if len(g.Data.EntityGeo[e].Brushes[b].Faces[f].Vertices) < 3 {
		return true
	}

	tex := g.Data.Entities[e].Brushes[b].Faces[f].TextureIdx
	if g.FaceFilterTexture != -1 && tex == g.FaceFilterTexture {
		return true
	}
	if g.textureFilter != nil {
		if _, ok := g.textureFilter[tex]; !ok {
			return true
		}
	}
	return false
}
