// maptool is a CLI utility for inspecting brush maps and exporting their geometry.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/brushmap/internal/config"
	"github.com/Faultbox/brushmap/internal/logger"
	"github.com/Faultbox/brushmap/internal/texsize"
	"github.com/Faultbox/brushmap/pkg/mapbuild"
	"github.com/Faultbox/brushmap/pkg/mapdata"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	command := args[0]
	args = args[1:]

	switch command {
	case "info":
		err = cmdInfo(cfg, args)
	case "textures", "tex":
		err = cmdTextures(cfg, args)
	case "entities", "ents":
		err = cmdEntities(cfg, args)
	case "layers":
		err = cmdLayers(cfg, args)
	case "build", "b":
		err = cmdBuild(cfg, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		logger.Error("command failed", zap.String("command", command), zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`maptool - brush map geometry utility

Usage:
  maptool [global options] <command> [options] <file.map>

Global options:
  -config <path>     Config file (default ./maptool.yaml)
  -debug             Enable debug logging
  -workers <n>       Geometry generator workers
  -scale <n>         Map units per output unit
  -charset <name>    Map text encoding
  -textures <dirs>   Comma-separated texture directories

Commands:
  info <file.map>              Show entity, brush and texture counts
  textures <file.map>          List textures with resolved sizes
  entities <file.map>          List entities with spawn types and centers
  layers <file.map>            List worldspawn layers and their brushes
  build [options] <file.map>   Generate geometry and export surfaces

Examples:
  maptool info e1m1.map
  maptool -textures textures textures e1m1.map
  maptool build -split brush -o e1m1.obj e1m1.map
  maptool build -format pb -texture "*water" -layers -o water.pb e1m1.map`)
}

// loadBuilder parses a map and applies the configured entity and layer
// definitions.
func loadBuilder(cfg *config.Config, path string) (*mapbuild.Builder, error) {
	defs, err := cfg.SpawnTypes()
	if err != nil {
		return nil, err
	}

	b := mapbuild.New(mapbuild.Config{
		Log:     logger.Named("mapbuild"),
		Workers: cfg.Generator.Workers,
		Charset: cfg.Map.Charset,
	})
	if err := b.LoadMap(path); err != nil {
		return nil, err
	}
	b.SetEntityDefinitions(defs)
	b.SetWorldspawnLayers(cfg.WorldspawnLayers)
	return b, nil
}

// newResolver builds a texture size resolver from the config plus the
// archives named by the map's worldspawn "wad" property.
func newResolver(cfg *config.Config, b *mapbuild.Builder, mapPath string) *texsize.Resolver {
	r := texsize.New()
	r.Dirs = cfg.Textures.Dirs
	r.WADs = append(r.WADs, cfg.Textures.WADs...)
	r.Default = cfg.Textures.DefaultSize
	r.Charset = cfg.Map.Charset
	r.Log = logger.Named("texsize")
	for name, size := range cfg.Textures.Sizes {
		r.Sizes[name] = size
	}

	if ents := b.Data().Entities; len(ents) > 0 {
		if wads, ok := ents[0].Properties["wad"]; ok {
			r.WADs = append(r.WADs, texsize.WADList(wads, filepath.Dir(mapPath))...)
		}
	}
	return r
}

// generate resolves texture sizes and reconstructs the map's brushes.
func generate(cfg *config.Config, b *mapbuild.Builder, mapPath string) error {
	sizes, missing, err := newResolver(cfg, b, mapPath).Resolve(b.TextureList())
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return fmt.Errorf("no size for textures: %s", strings.Join(missing, ", "))
	}
	return b.GenerateGeometry(sizes)
}

func mapArg(name string, args []string) (string, error) {
	if len(args) < 1 {
		return "", fmt.Errorf("usage: maptool %s <file.map>", name)
	}
	return args[0], nil
}

func cmdInfo(cfg *config.Config, args []string) error {
	path, err := mapArg("info", args)
	if err != nil {
		return err
	}

	b, err := loadBuilder(cfg, path)
	if err != nil {
		return err
	}
	data := b.Data()

	spawnCount := make(map[mapdata.SpawnType]int)
	for _, e := range data.Entities {
		spawnCount[e.SpawnType]++
	}

	fmt.Printf("Map:      %s\n", path)
	fmt.Printf("Entities: %d\n", len(data.Entities))
	fmt.Printf("Brushes:  %d\n", data.BrushCount())
	fmt.Printf("Faces:    %d\n", data.FaceCount())
	fmt.Printf("Textures: %d\n", len(data.Textures))
	fmt.Printf("Layers:   %d\n", len(data.WorldspawnLayers))
	fmt.Println()
	fmt.Println("Entities by spawn type:")

	for _, t := range []mapdata.SpawnType{
		mapdata.SpawnWorldspawn,
		mapdata.SpawnMergeWorldspawn,
		mapdata.SpawnEntity,
		mapdata.SpawnGroup,
	} {
		if spawnCount[t] > 0 {
			fmt.Printf("  %-18s %d\n", t, spawnCount[t])
		}
	}
	return nil
}

func cmdTextures(cfg *config.Config, args []string) error {
	path, err := mapArg("textures", args)
	if err != nil {
		return err
	}

	b, err := loadBuilder(cfg, path)
	if err != nil {
		return err
	}

	names := b.TextureList()
	sizes, missing, err := newResolver(cfg, b, path).Resolve(names)
	if err != nil {
		return err
	}

	sort.Strings(names)
	for _, name := range names {
		if size, ok := sizes[name]; ok {
			fmt.Printf("%-32s %dx%d\n", name, size.Width, size.Height)
		} else {
			fmt.Printf("%-32s ?\n", name)
		}
	}

	if len(missing) > 0 {
		fmt.Fprintf(os.Stderr, "\n(%d textures without size)\n", len(missing))
	}
	return nil
}

func cmdEntities(cfg *config.Config, args []string) error {
	path, err := mapArg("entities", args)
	if err != nil {
		return err
	}

	b, err := loadBuilder(cfg, path)
	if err != nil {
		return err
	}
	if err := generate(cfg, b, path); err != nil {
		return err
	}

	for i, info := range b.EntityInfos() {
		classname := info.Classname
		if classname == "" {
			classname = "(no classname)"
		}
		fmt.Printf("%4d %-24s %-18s brushes=%-4d center=(%g %g %g)\n",
			i, classname, info.SpawnType, info.BrushCount,
			info.Center.X(), info.Center.Y(), info.Center.Z())
	}
	return nil
}

func cmdLayers(cfg *config.Config, args []string) error {
	path, err := mapArg("layers", args)
	if err != nil {
		return err
	}

	b, err := loadBuilder(cfg, path)
	if err != nil {
		return err
	}

	infos := b.WorldspawnLayerInfos()
	if len(infos) == 0 {
		fmt.Fprintln(os.Stderr, "No worldspawn layers in map")
		return nil
	}
	for _, info := range infos {
		fmt.Printf("%-24s visuals=%-5t brushes=%v\n", info.Texture, info.BuildVisuals, info.BrushIndices)
	}
	return nil
}
