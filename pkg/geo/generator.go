// Package geo reconstructs renderable brush geometry from parsed map planes.
//
// Vertices are found by intersecting every ordered triple of a brush's face
// planes and keeping the points inside all half-spaces. Each face then gets
// normals, UVs and tangents, is wound around its centroid and
// fan-triangulated.
package geo

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/brushmap/pkg/mapdata"
	qmath "github.com/Faultbox/brushmap/pkg/math"
)

// ErrTextureSizeUnset is returned when a face references a texture without
// usable dimensions.
var ErrTextureSizeUnset = errors.New("texture size not set")

// Generator fills a store's entity geometry.
type Generator struct {
	Data    *mapdata.MapData
	Workers int         // Entities reconstructed in parallel, below 2 runs sequentially
	Log     *zap.Logger // Soft geometry conditions, at debug level
}

// New creates a sequential generator for data.
func New(data *mapdata.MapData) *Generator {
	return &Generator{
		Data:    data,
		Workers: 1,
		Log:     zap.NewNop(),
	}
}

// Run reconstructs geometry for every entity, replacing any previous
// EntityGeo. The store is left untouched if a texture size is missing.
func (g *Generator) Run() error {
	if g.Log == nil {
		g.Log = zap.NewNop()
	}
	if err := g.checkTextures(); err != nil {
		return err
	}

	data := g.Data
	data.EntityGeo = make([]mapdata.EntityGeometry, len(data.Entities))
	for e := range data.Entities {
		brushes := data.Entities[e].Brushes
		data.EntityGeo[e].Brushes = make([]mapdata.BrushGeometry, len(brushes))
		for b := range brushes {
			data.EntityGeo[e].Brushes[b].Faces = make([]mapdata.FaceGeometry, len(brushes[b].Faces))
		}
	}

	workers := g.Workers
	if workers > len(data.Entities) {
		workers = len(data.Entities)
	}

	if workers < 2 {
		for e := range data.Entities {
			g.runEntity(e)
		}
	} else {
		entityChan := make(chan int, workers*2)
		var wg sync.WaitGroup

		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for e := range entityChan {
					g.runEntity(e)
				}
			}()
		}

		for e := range data.Entities {
			entityChan <- e
		}
		close(entityChan)
		wg.Wait()
	}

	g.Log.Debug("geometry generated",
		zap.Int("entities", len(data.Entities)),
		zap.Int("brushes", data.BrushCount()),
		zap.Int("faces", data.FaceCount()),
		zap.Int("workers", max(workers, 1)))

	return nil
}

// checkTextures verifies every texture referenced by a face has a size.
func (g *Generator) checkTextures() error {
	unset := make(map[string]struct{})
	for _, ent := range g.Data.Entities {
		for _, brush := range ent.Brushes {
			for _, face := range brush.Faces {
				if face.TextureIdx < 0 || face.TextureIdx >= len(g.Data.Textures) {
					return fmt.Errorf("%w: texture index %d out of range", ErrTextureSizeUnset, face.TextureIdx)
				}
				tex := g.Data.Textures[face.TextureIdx]
				if !tex.HasSize() {
					unset[tex.Name] = struct{}{}
				}
			}
		}
	}
	if len(unset) == 0 {
		return nil
	}

	names := make([]string, 0, len(unset))
	for name := range unset {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Errorf("%w: %s", ErrTextureSizeUnset, strings.Join(names, ", "))
}

// runEntity generates, winds and indexes one entity. It only touches the
// entity's own slice of the store.
func (g *Generator) runEntity(e int) {
	data := g.Data
	ent := &data.Entities[e]
	entGeo := &data.EntityGeo[e]
	phong, threshold := phongSettings(ent.Properties)

	var center mgl32.Vec3
	filled := 0
	for b := range ent.Brushes {
		brush := &ent.Brushes[b]
		brushGeo := &entGeo.Brushes[b]

		for f := range brush.Faces {
			if brush.Faces[f].Degenerate() {
				g.Log.Debug("degenerate face plane",
					zap.Int("entity", e), zap.Int("brush", b), zap.Int("face", f))
			}
		}

		generateBrushVertices(brush, brushGeo, data.Textures, phong, threshold)

		var n int
		brush.Center, n = brushCenter(brushGeo)
		if n > 0 {
			center = center.Add(brush.Center)
			filled++
		}
	}
	if filled > 0 {
		center = qmath.Div(center, float32(filled))
	}
	ent.Center = center

	for b := range ent.Brushes {
		brush := &ent.Brushes[b]
		brushGeo := &entGeo.Brushes[b]
		for f := range brush.Faces {
			faceGeo := &brushGeo.Faces[f]
			if len(faceGeo.Vertices) < 3 {
				g.Log.Debug("face produced no polygon",
					zap.Int("entity", e), zap.Int("brush", b), zap.Int("face", f),
					zap.Int("vertices", len(faceGeo.Vertices)))
				continue
			}
			windFace(&brush.Faces[f], faceGeo)
			indexFace(faceGeo)
		}
	}
}
