package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"strings"

	pkgerrors "github.com/pkg/errors"

	"github.com/Faultbox/brushmap/pkg/encoding"
	"github.com/Faultbox/brushmap/pkg/mapdata"
)

// WAD format errors.
var (
	ErrInvalidWADMagic  = errors.New("invalid WAD magic: expected 'WAD2' or 'WAD3'")
	ErrTruncatedWADData = errors.New("truncated WAD data")
	ErrInvalidWADEntry  = errors.New("invalid WAD entry")
)

// Lump types carrying a mip texture header.
const (
	WADTypeMipTexQuake = 0x44 // 'D', WAD2
	WADTypeMipTexHL    = 0x43 // 'C', WAD3
)

const (
	wadHeaderSize = 12
	wadEntrySize  = 32
	wadNameSize   = 16
	mipHeaderSize = wadNameSize + 8
	maxWADEntries = 1 << 16
	maxMipTexSide = 1 << 14
)

// WADEntry is one lump in the directory.
type WADEntry struct {
	Name        string
	Offset      uint32
	DiskSize    uint32
	Size        uint32
	Type        uint8
	Compression uint8
}

// IsMipTexture reports whether the lump holds a mip texture.
func (e WADEntry) IsMipTexture() bool {
	return e.Type == WADTypeMipTexQuake || e.Type == WADTypeMipTexHL
}

// WAD is a parsed WAD2/WAD3 texture archive. Only the directory and mip
// texture headers are read.
type WAD struct {
	Magic   string
	Entries []WADEntry

	data []byte
}

// ParseWAD parses a WAD file from raw bytes.
func ParseWAD(data []byte) (*WAD, error) {
	if len(data) < wadHeaderSize {
		return nil, ErrTruncatedWADData
	}

	magic := string(data[0:4])
	if magic != "WAD2" && magic != "WAD3" {
		return nil, ErrInvalidWADMagic
	}

	count := binary.LittleEndian.Uint32(data[4:8])
	dirOffset := binary.LittleEndian.Uint32(data[8:12])
	if count > maxWADEntries {
		return nil, fmt.Errorf("%w: %d entries", ErrInvalidWADEntry, count)
	}
	if uint64(dirOffset)+uint64(count)*wadEntrySize > uint64(len(data)) {
		return nil, fmt.Errorf("%w: directory at %d", ErrTruncatedWADData, dirOffset)
	}

	wad := &WAD{
		Magic:   magic,
		Entries: make([]WADEntry, count),
		data:    data,
	}

	r := bytes.NewReader(data[dirOffset:])
	for i := range wad.Entries {
		entry, err := parseWADEntry(r)
		if err != nil {
			return nil, fmt.Errorf("parsing entry %d: %w", i, err)
		}
		wad.Entries[i] = entry
	}

	return wad, nil
}

// parseWADEntry parses one 32-byte directory record.
func parseWADEntry(r *bytes.Reader) (WADEntry, error) {
	var raw struct {
		Offset      uint32
		DiskSize    uint32
		Size        uint32
		Type        uint8
		Compression uint8
		_           uint16
		Name        [wadNameSize]byte
	}
	if err := binary.Read(r, binary.LittleEndian, &raw); err != nil {
		return WADEntry{}, fmt.Errorf("%w: reading entry", ErrTruncatedWADData)
	}

	return WADEntry{
		Name:        encoding.TrimNullString(raw.Name[:]),
		Offset:      raw.Offset,
		DiskSize:    raw.DiskSize,
		Size:        raw.Size,
		Type:        raw.Type,
		Compression: raw.Compression,
	}, nil
}

// ParseWADFile parses a WAD file from disk.
func ParseWADFile(path string) (*WAD, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "reading WAD file")
	}
	wad, err := ParseWAD(data)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "parsing %s", path)
	}
	return wad, nil
}

// MipTextureSize reads the dimensions from a mip texture lump header.
func (w *WAD) MipTextureSize(e WADEntry) (mapdata.TextureSize, error) {
	if !e.IsMipTexture() {
		return mapdata.TextureSize{}, fmt.Errorf("%w: %q is type 0x%02x", ErrInvalidWADEntry, e.Name, e.Type)
	}
	if e.Compression != 0 {
		return mapdata.TextureSize{}, fmt.Errorf("%w: %q is compressed", ErrInvalidWADEntry, e.Name)
	}
	end := uint64(e.Offset) + mipHeaderSize
	if end > uint64(len(w.data)) {
		return mapdata.TextureSize{}, fmt.Errorf("%w: mip header of %q", ErrTruncatedWADData, e.Name)
	}

	header := w.data[e.Offset:end]
	width := binary.LittleEndian.Uint32(header[wadNameSize : wadNameSize+4])
	height := binary.LittleEndian.Uint32(header[wadNameSize+4 : wadNameSize+8])
	if width == 0 || height == 0 || width > maxMipTexSide || height > maxMipTexSide {
		return mapdata.TextureSize{}, fmt.Errorf("%w: %q has size %dx%d", ErrInvalidWADEntry, e.Name, width, height)
	}

	return mapdata.TextureSize{Width: int(width), Height: int(height)}, nil
}

// MipTextureSizes returns the size of every readable mip texture, keyed by
// lowercased lump name. Names are decoded from charset, the same one the
// map text is read with. Unreadable lumps are skipped.
func (w *WAD) MipTextureSizes(charset string) map[string]mapdata.TextureSize {
	sizes := make(map[string]mapdata.TextureSize)
	for _, e := range w.Entries {
		if !e.IsMipTexture() {
			continue
		}
		size, err := w.MipTextureSize(e)
		if err != nil {
			continue
		}
		sizes[strings.ToLower(encoding.DecodeString(e.Name, charset))] = size
	}
	return sizes
}
