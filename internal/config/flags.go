package config

import (
	"flag"
	"strings"
)

var (
	flagConfig   = flag.String("config", "", "Path to config file")
	flagDebug    = flag.Bool("debug", false, "Enable debug logging")
	flagWorkers  = flag.Int("workers", 0, "Geometry generator workers")
	flagScale    = flag.Float64("scale", 0, "Inverse scale applied to output surfaces")
	flagCharset  = flag.String("charset", "", "Map text encoding")
	flagTextures = flag.String("textures", "", "Comma-separated texture directories")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the non-flag arguments left after ParseFlags.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagWorkers > 0 {
		cfg.Generator.Workers = *flagWorkers
	}
	if *flagScale > 0 {
		cfg.Surfaces.InverseScale = float32(*flagScale)
	}
	if *flagCharset != "" {
		cfg.Map.Charset = *flagCharset
	}
	if *flagTextures != "" {
		for _, dir := range strings.Split(*flagTextures, ",") {
			if dir = strings.TrimSpace(dir); dir != "" {
				cfg.Textures.Dirs = append(cfg.Textures.Dirs, dir)
			}
		}
	}
}
