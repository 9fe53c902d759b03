package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/brushmap/internal/config"
	"github.com/Faultbox/brushmap/internal/logger"
	"github.com/Faultbox/brushmap/pkg/export"
	"github.com/Faultbox/brushmap/pkg/mapbuild"
	"github.com/Faultbox/brushmap/pkg/surface"
)

func cmdBuild(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	output := fs.String("o", "", "Output file (default stdout)")
	format := fs.String("format", "", "Output format: obj or pb (default from -o extension)")
	split := fs.String("split", cfg.Surfaces.Split, "Surface split: none, entity or brush")
	entity := fs.Int("entity", -1, "Only gather this entity index (-1 = all)")
	textures := fs.String("texture", "", "Comma-separated texture names to gather")
	layers := fs.Bool("layers", false, "Keep worldspawn layer brushes")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("usage: maptool build [options] <file.map>")
	}
	mapPath := fs.Arg(0)

	splitType, err := surface.ParseSplitType(*split)
	if err != nil {
		return err
	}
	outFormat, err := outputFormat(*format, *output)
	if err != nil {
		return err
	}

	b, err := loadBuilder(cfg, mapPath)
	if err != nil {
		return err
	}
	if err := generate(cfg, b, mapPath); err != nil {
		return err
	}

	opts := mapbuild.GatherOptions{
		Split:              splitType,
		Entity:             *entity,
		Textures:           splitList(*textures),
		BrushFilterTexture: cfg.Surfaces.BrushFilterTexture,
		FaceFilterTexture:  cfg.Surfaces.FaceFilterTexture,
		KeepLayers:         *layers,
	}
	b.Gather(opts)
	surfaces := b.FetchSurfaces(cfg.Surfaces.InverseScale)

	name := strings.TrimSuffix(filepath.Base(mapPath), filepath.Ext(mapPath))
	err = writeOutput(*output, func(w io.Writer) error {
		if outFormat == "pb" {
			set := export.NewSurfaceSet(mapPath, surfaces)
			_, err := w.Write(export.MarshalSurfaceSet(set))
			return err
		}
		return export.WriteOBJ(w, name, surfaces)
	})
	if err != nil {
		return err
	}

	logger.Info("exported surfaces",
		zap.String("map", mapPath),
		zap.String("split", splitType.String()),
		zap.Int("surfaces", len(surfaces)),
		zap.Int("vertices", vertexCount(surfaces)),
		zap.Int("triangles", triangleCount(surfaces)),
		zap.String("format", outFormat))
	return nil
}

// writeOutput runs write against path, or stdout when path is empty. The
// file is removed again if writing or closing it fails.
func writeOutput(path string, write func(io.Writer) error) (err error) {
	if path == "" {
		return write(os.Stdout)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(path)
		}
	}()
	return write(f)
}

// outputFormat picks the export format, falling back to the output file
// extension and then to OBJ.
func outputFormat(format, output string) (string, error) {
	if format == "" {
		if strings.EqualFold(filepath.Ext(output), ".pb") {
			return "pb", nil
		}
		return "obj", nil
	}
	switch format {
	case "obj", "pb":
		return format, nil
	}
	return "", fmt.Errorf("unknown output format %q", format)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func vertexCount(surfaces []*surface.Arrays) int {
	n := 0
	for _, s := range surfaces {
		if s != nil {
			n += s.VertexCount()
		}
	}
	return n
}

func triangleCount(surfaces []*surface.Arrays) int {
	n := 0
	for _, s := range surfaces {
		if s != nil {
			n += s.TriangleCount()
		}
	}
	return n
}
