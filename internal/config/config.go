// Package config handles maptool configuration loading and management.
package config

import (
	"fmt"
	"sort"

	"github.com/Faultbox/brushmap/pkg/mapbuild"
	"github.com/Faultbox/brushmap/pkg/mapdata"
	"github.com/Faultbox/brushmap/pkg/surface"
)

// Config holds all maptool settings.
type Config struct {
	Map              MapConfig                  `yaml:"map"`
	Textures         TexturesConfig             `yaml:"textures"`
	Entities         map[string]string          `yaml:"entities"` // classname -> spawn type name
	WorldspawnLayers []mapbuild.LayerDefinition `yaml:"worldspawn_layers"`
	Surfaces         SurfacesConfig             `yaml:"surfaces"`
	Generator        GeneratorConfig            `yaml:"generator"`
	Logging          LoggingConfig              `yaml:"logging"`
}

// MapConfig holds map source settings.
type MapConfig struct {
	Charset string `yaml:"charset"` // Encoding of map text (utf-8, windows-1252, ...)
}

// TexturesConfig holds texture size lookup settings.
type TexturesConfig struct {
	Dirs        []string                       `yaml:"dirs"`  // Directories searched for texture images
	WADs        []string                       `yaml:"wads"`  // WAD2/WAD3 archives
	Sizes       map[string]mapdata.TextureSize `yaml:"sizes"` // Explicit sizes, highest priority
	DefaultSize mapdata.TextureSize            `yaml:"default_size"`
}

// SurfacesConfig holds surface gathering settings.
type SurfacesConfig struct {
	Split              string  `yaml:"split"` // none, entity or brush
	BrushFilterTexture string  `yaml:"brush_filter_texture"`
	FaceFilterTexture  string  `yaml:"face_filter_texture"`
	InverseScale       float32 `yaml:"inverse_scale"` // Map units per output unit
}

// GeneratorConfig holds geometry generation settings.
type GeneratorConfig struct {
	Workers int `yaml:"workers"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`    // debug, info, warn, error
	LogFile string `yaml:"log_file"` // Empty = console only
}

// Default returns a config with sensible defaults.
func Default() *Config {
	return &Config{
		Map: MapConfig{
			Charset: "utf-8",
		},
		Textures: TexturesConfig{
			Sizes: make(map[string]mapdata.TextureSize),
		},
		Entities: map[string]string{
			"worldspawn": "worldspawn",
			"func_group": "merge_worldspawn",
		},
		Surfaces: SurfacesConfig{
			Split:              "entity",
			BrushFilterTexture: "clip",
			FaceFilterTexture:  "skip",
			InverseScale:       32,
		},
		Generator: GeneratorConfig{
			Workers: 1,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// SpawnTypes resolves the entity definitions into spawn types.
func (c *Config) SpawnTypes() (map[string]mapdata.SpawnType, error) {
	classnames := make([]string, 0, len(c.Entities))
	for name := range c.Entities {
		classnames = append(classnames, name)
	}
	sort.Strings(classnames)

	defs := make(map[string]mapdata.SpawnType, len(c.Entities))
	for _, name := range classnames {
		t, err := mapdata.ParseSpawnType(c.Entities[name])
		if err != nil {
			return nil, fmt.Errorf("entity %s: %w", name, err)
		}
		defs[name] = t
	}
	return defs, nil
}

// SplitType parses the configured surface split mode.
func (c *Config) SplitType() (surface.SplitType, error) {
	return surface.ParseSplitType(c.Surfaces.Split)
}
