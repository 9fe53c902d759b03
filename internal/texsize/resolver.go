// Package texsize resolves texture pixel sizes for map geometry generation.
//
// Sizes come from, in priority order: explicit entries, WAD2/WAD3 archives,
// image files under the texture directories, and a fallback default.
package texsize

import (
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/image/bmp"
	"golang.org/x/image/webp"

	"github.com/Faultbox/brushmap/pkg/formats"
	"github.com/Faultbox/brushmap/pkg/mapdata"
)

type configDecoder func(io.Reader) (image.Config, error)

// imageFormats are tried in order for each texture directory. TGA has no
// magic number, so decoders are picked by extension rather than sniffed.
var imageFormats = []struct {
	ext    string
	decode configDecoder
}{
	{".png", png.DecodeConfig},
	{".tga", tga.DecodeConfig},
	{".jpg", jpeg.DecodeConfig},
	{".jpeg", jpeg.DecodeConfig},
	{".bmp", bmp.DecodeConfig},
	{".webp", webp.DecodeConfig},
}

// Resolver looks up texture sizes.
type Resolver struct {
	Dirs    []string
	WADs    []string
	Sizes   map[string]mapdata.TextureSize
	Default mapdata.TextureSize
	Charset string
	Log     *zap.Logger

	wadSizes map[string]mapdata.TextureSize
}

// New returns a resolver with no sources.
func New() *Resolver {
	return &Resolver{
		Sizes: make(map[string]mapdata.TextureSize),
		Log:   zap.NewNop(),
	}
}

// Resolve returns a size for every name it can find. Names with no size
// are returned sorted in missing. A configured default fills every name,
// so missing is then empty.
func (r *Resolver) Resolve(names []string) (map[string]mapdata.TextureSize, []string, error) {
	if r.Log == nil {
		r.Log = zap.NewNop()
	}
	if err := r.loadWADs(); err != nil {
		return nil, nil, err
	}

	sizes := make(map[string]mapdata.TextureSize, len(names))
	var missing []string
	for _, name := range names {
		size, source := r.lookup(name)
		if source == "" {
			missing = append(missing, name)
			continue
		}
		r.Log.Debug("texture size",
			zap.String("texture", name),
			zap.Int("width", size.Width),
			zap.Int("height", size.Height),
			zap.String("source", source))
		sizes[name] = size
	}
	sort.Strings(missing)
	return sizes, missing, nil
}

// lookup returns the size of one texture and a short description of where
// it came from. An empty source means no size was found.
func (r *Resolver) lookup(name string) (mapdata.TextureSize, string) {
	if size, ok := r.Sizes[name]; ok && valid(size) {
		return size, "config"
	}
	if size, ok := r.wadSizes[wadKey(name)]; ok && valid(size) {
		return size, "wad"
	}
	for _, dir := range r.Dirs {
		if size, path, ok := imageSize(dir, name); ok {
			return size, path
		}
	}
	if valid(r.Default) {
		return r.Default, "default"
	}
	return mapdata.TextureSize{}, ""
}

// loadWADs reads the mip texture directories of every WAD once.
// Earlier archives win on duplicate names.
func (r *Resolver) loadWADs() error {
	if r.wadSizes != nil {
		return nil
	}
	sizes := make(map[string]mapdata.TextureSize)
	for _, path := range r.WADs {
		wad, err := formats.ParseWADFile(path)
		if err != nil {
			return errors.Wrap(err, "loading texture sizes")
		}
		found := wad.MipTextureSizes(r.Charset)
		for name, size := range found {
			if _, ok := sizes[name]; !ok {
				sizes[name] = size
			}
		}
		r.Log.Debug("loaded wad", zap.String("path", path), zap.Int("textures", len(found)))
	}
	r.wadSizes = sizes
	return nil
}

// imageSize decodes the header of the first image file matching name.
func imageSize(dir, name string) (mapdata.TextureSize, string, bool) {
	for _, base := range fileNames(name) {
		for _, format := range imageFormats {
			path := filepath.Join(dir, filepath.FromSlash(base)+format.ext)
			f, err := os.Open(path)
			if err != nil {
				continue
			}
			cfg, err := format.decode(f)
			f.Close()
			if err != nil {
				continue
			}
			return mapdata.TextureSize{Width: cfg.Width, Height: cfg.Height}, path, true
		}
	}
	return mapdata.TextureSize{}, "", false
}

// fileNames lists the file names a texture may be stored under. Liquid
// textures starting with '*' are commonly extracted with a '#' prefix.
func fileNames(name string) []string {
	names := []string{name}
	if strings.HasPrefix(name, "*") {
		names = append(names, "#"+name[1:])
	}
	return names
}

// wadKey matches a map texture name against WAD lump names, which carry no
// directory and are compared case-insensitively.
func wadKey(name string) string {
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	return strings.ToLower(name)
}

func valid(s mapdata.TextureSize) bool {
	return s.Width > 0 && s.Height > 0
}

// WADList splits a worldspawn "wad" property into archive paths. Entries
// are separated by ';' and relative entries are resolved against baseDir.
func WADList(value, baseDir string) []string {
	var paths []string
	for _, p := range strings.Split(value, ";") {
		p = strings.TrimSpace(strings.ReplaceAll(p, `\`, "/"))
		if p == "" {
			continue
		}
		p = filepath.FromSlash(p)
		if !filepath.IsAbs(p) {
			p = filepath.Join(baseDir, p)
		}
		paths = append(paths, p)
	}
	return paths
}
