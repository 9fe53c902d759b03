// Package mapbuild drives the full map pipeline: parse, generate geometry,
// gather surfaces and hand them out as mesh arrays.
package mapbuild

import (
	"io"
	"os"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/brushmap/pkg/encoding"
	"github.com/Faultbox/brushmap/pkg/formats"
	"github.com/Faultbox/brushmap/pkg/geo"
	"github.com/Faultbox/brushmap/pkg/mapdata"
	qmath "github.com/Faultbox/brushmap/pkg/math"
	"github.com/Faultbox/brushmap/pkg/surface"
)

// TextureSize is a texture's pixel dimensions.
type TextureSize = mapdata.TextureSize

// LayerDefinition declares a worldspawn layer by texture name.
type LayerDefinition struct {
	Texture      string `yaml:"texture"`
	BuildVisuals bool   `yaml:"build_visuals"`
}

// LayerInfo lists the worldspawn brushes belonging to a layer.
type LayerInfo struct {
	Texture      string
	BuildVisuals bool
	BrushIndices []int
}

// EntityInfo describes an entity for scene construction.
type EntityInfo struct {
	Classname    string
	SpawnType    mapdata.SpawnType
	BrushCount   int
	BrushIndices []int      // Brushes not claimed by a worldspawn layer
	Center       mgl32.Vec3 // Y-up
	Properties   map[string]string
}

// Config holds the builder's shared settings. Zero values select defaults.
type Config struct {
	Log     *zap.Logger // Default no-op
	Workers int         // Geometry workers, default 1
	Charset string      // Map text charset, default utf-8
}

// Builder owns one map store and runs the pipeline over it.
type Builder struct {
	cfg      Config
	data     *mapdata.MapData
	gatherer *surface.Gatherer
	log      *zap.Logger
}

// New creates a builder with an empty store.
func New(cfg Config) *Builder {
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Charset == "" {
		cfg.Charset = encoding.DefaultCharset
	}

	b := &Builder{cfg: cfg, log: cfg.Log}
	b.Reset()
	return b
}

// Reset discards the loaded map.
func (b *Builder) Reset() {
	b.data = mapdata.New()
	b.gatherer = surface.New(b.data)
}

// Data returns the underlying store.
func (b *Builder) Data() *mapdata.MapData {
	return b.data
}

// LoadMap parses a map file, replacing the current store.
func (b *Builder) LoadMap(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "opening map file")
	}
	defer f.Close()

	if err := b.LoadMapReader(f); err != nil {
		return errors.Wrapf(err, "loading %s", path)
	}
	b.log.Info("map loaded",
		zap.String("path", path),
		zap.Int("entities", len(b.data.Entities)),
		zap.Int("brushes", b.data.BrushCount()),
		zap.Int("textures", len(b.data.Textures)))
	return nil
}

// LoadMapReader parses map text from r, replacing the current store.
// The store is unchanged on error.
func (b *Builder) LoadMapReader(r io.Reader) error {
	decoded, err := encoding.NewReader(r, b.cfg.Charset)
	if err != nil {
		return err
	}

	data, err := formats.ParseMap(decoded)
	if err != nil {
		return err
	}

	b.data = data
	b.gatherer = surface.New(data)
	return nil
}

// TextureList returns the texture names referenced by the map.
func (b *Builder) TextureList() []string {
	return b.data.TextureNames()
}

// SetEntityDefinitions assigns spawn types by classname.
func (b *Builder) SetEntityDefinitions(defs map[string]mapdata.SpawnType) {
	classnames := make([]string, 0, len(defs))
	for c := range defs {
		classnames = append(classnames, c)
	}
	sort.Strings(classnames)

	for _, c := range classnames {
		b.data.SetSpawnTypeByClassname(c, defs[c])
	}
}

// SetWorldspawnLayers replaces the worldspawn layer declarations. Layers
// whose texture the map does not use are skipped.
func (b *Builder) SetWorldspawnLayers(layers []LayerDefinition) {
	b.data.WorldspawnLayers = b.data.WorldspawnLayers[:0]
	for _, l := range layers {
		idx := b.data.FindTexture(l.Texture)
		if idx == -1 {
			b.log.Debug("worldspawn layer texture not in map", zap.String("texture", l.Texture))
			continue
		}
		b.data.WorldspawnLayers = append(b.data.WorldspawnLayers, mapdata.WorldspawnLayer{
			TextureIdx:   idx,
			BuildVisuals: l.BuildVisuals,
		})
	}
}

// GenerateGeometry applies texture sizes and reconstructs all brushes.
func (b *Builder) GenerateGeometry(sizes map[string]TextureSize) error {
	for name, size := range sizes {
		b.data.SetTextureSize(name, size.Width, size.Height)
	}

	gen := geo.New(b.data)
	gen.Workers = b.cfg.Workers
	gen.Log = b.log
	if err := gen.Run(); err != nil {
		return errors.Wrap(err, "generating geometry")
	}
	return nil
}

// WorldspawnLayerInfos lists, per declared layer, the worldspawn brushes
// carrying its texture.
func (b *Builder) WorldspawnLayerInfos() []LayerInfo {
	if len(b.data.Entities) == 0 {
		return nil
	}

	infos := make([]LayerInfo, 0, len(b.data.WorldspawnLayers))
	for _, layer := range b.data.WorldspawnLayers {
		info := LayerInfo{
			Texture:      b.data.Textures[layer.TextureIdx].Name,
			BuildVisuals: layer.BuildVisuals,
			BrushIndices: []int{},
		}
		for br := range b.data.Entities[0].Brushes {
			if b.data.BrushHasTexture(0, br, layer.TextureIdx) {
				info.BrushIndices = append(info.BrushIndices, br)
			}
		}
		infos = append(infos, info)
	}
	return infos
}

// EntityInfos describes every entity. Centers are only meaningful after
// GenerateGeometry.
func (b *Builder) EntityInfos() []EntityInfo {
	infos := make([]EntityInfo, len(b.data.Entities))
	for e := range b.data.Entities {
		ent := &b.data.Entities[e]
		classname, _ := ent.Classname()

		indices := []int{}
		for br := range ent.Brushes {
			if !b.data.IsLayerBrush(e, br) {
				indices = append(indices, br)
			}
		}

		infos[e] = EntityInfo{
			Classname:    classname,
			SpawnType:    ent.SpawnType,
			BrushCount:   len(ent.Brushes),
			BrushIndices: indices,
			Center:       qmath.Swizzle(ent.Center),
			Properties:   ent.Properties,
		}
	}
	return infos
}

// FetchSurfaces converts the last gathered surfaces to Y-up mesh arrays.
// Empty surfaces are nil.
func (b *Builder) FetchSurfaces(inverseScale float32) []*surface.Arrays {
	return surface.ToArraysAll(b.gatherer.Surfaces(), inverseScale)
}
