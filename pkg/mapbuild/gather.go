package mapbuild

import (
	"github.com/Faultbox/brushmap/pkg/mapdata"
	"github.com/Faultbox/brushmap/pkg/surface"
)

// GatherOptions are the raw gatherer parameters.
type GatherOptions struct {
	Split              surface.SplitType
	Entity             int // -1 for all
	Textures           []string
	BrushFilterTexture string
	FaceFilterTexture  string
	KeepLayers         bool
}

// Gather runs the gatherer with explicit parameters.
func (b *Builder) Gather(opts GatherOptions) []*mapdata.FaceGeometry {
	g := b.gatherer
	g.ResetParams()
	g.Split = opts.Split
	g.EntityFilter = opts.Entity
	g.SetTextureFilter(opts.Textures...)
	g.SetBrushFilterTexture(opts.BrushFilterTexture)
	g.SetFaceFilterTexture(opts.FaceFilterTexture)
	g.FilterWorldspawnLayers = !opts.KeepLayers
	return g.Run()
}

// GatherTextureSurfaces gathers one surface per entity for a texture,
// leaving out worldspawn layer brushes.
func (b *Builder) GatherTextureSurfaces(texture, brushFilter, faceFilter string) []*mapdata.FaceGeometry {
	return b.gatherTexture(texture, brushFilter, faceFilter, false)
}

// GatherWorldspawnLayerSurfaces is GatherTextureSurfaces with worldspawn
// layer brushes kept.
func (b *Builder) GatherWorldspawnLayerSurfaces(texture, brushFilter, faceFilter string) []*mapdata.FaceGeometry {
	return b.gatherTexture(texture, brushFilter, faceFilter, true)
}

func (b *Builder) gatherTexture(texture, brushFilter, faceFilter string, keepLayers bool) []*mapdata.FaceGeometry {
	return b.Gather(GatherOptions{
		Split:              surface.SplitEntity,
		Entity:             -1,
		Textures:           []string{texture},
		BrushFilterTexture: brushFilter,
		FaceFilterTexture:  faceFilter,
		KeepLayers:         keepLayers,
	})
}

// GatherEntityConvexCollisionSurfaces gathers one surface per brush of an
// entity, for convex collision shapes.
func (b *Builder) GatherEntityConvexCollisionSurfaces(entity int) []*mapdata.FaceGeometry {
	return b.Gather(GatherOptions{Split: surface.SplitBrush, Entity: entity})
}

// GatherEntityConcaveCollisionSurfaces gathers a single surface for an
// entity, for a concave collision shape.
func (b *Builder) GatherEntityConcaveCollisionSurfaces(entity int) []*mapdata.FaceGeometry {
	return b.Gather(GatherOptions{Split: surface.SplitNone, Entity: entity})
}

// GatherWorldspawnLayerCollisionSurfaces gathers per-brush surfaces with
// worldspawn layer brushes kept.
func (b *Builder) GatherWorldspawnLayerCollisionSurfaces(entity int) []*mapdata.FaceGeometry {
	return b.Gather(GatherOptions{Split: surface.SplitBrush, Entity: entity, KeepLayers: true})
}
