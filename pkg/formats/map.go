package formats

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	pkgerrors "github.com/pkg/errors"

	"github.com/Faultbox/brushmap/pkg/mapdata"
)

// MAP format errors.
var (
	ErrInvalidNumber = errors.New("invalid number")
	ErrUnexpectedEOF = errors.New("unexpected end of map data")
)

// maxMapLine bounds a single line of map text. Long property values
// (e.g. embedded scripts) can exceed bufio's default token size.
const maxMapLine = 1 << 20

// ParseScope is the state of the map tokenizer.
type ParseScope int

// Parser scopes, in the order a face line walks through them.
const (
	ScopeFile ParseScope = iota
	ScopeEntity
	ScopePropertyValue
	ScopeBrush
	ScopePlane0
	ScopePlane1
	ScopePlane2
	ScopeTexture
	ScopeU
	ScopeV
	ScopeValveU
	ScopeValveV
	ScopeRot
	ScopeUScale
	ScopeVScale
)

var scopeNames = [...]string{
	ScopeFile:          "file",
	ScopeEntity:        "entity",
	ScopePropertyValue: "property value",
	ScopeBrush:         "brush",
	ScopePlane0:        "plane 0",
	ScopePlane1:        "plane 1",
	ScopePlane2:        "plane 2",
	ScopeTexture:       "texture",
	ScopeU:             "u",
	ScopeV:             "v",
	ScopeValveU:        "valve u",
	ScopeValveV:        "valve v",
	ScopeRot:           "rotation",
	ScopeUScale:        "u scale",
	ScopeVScale:        "v scale",
}

// String returns a human-readable scope name.
func (s ParseScope) String() string {
	if s >= 0 && int(s) < len(scopeNames) {
		return scopeNames[s]
	}
	return fmt.Sprintf("Scope(%d)", int(s))
}

// ParseError locates a failure in map text.
type ParseError struct {
	Line  int
	Scope ParseScope
	Token string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d (%s) token %q: %v", e.Line, e.Scope, e.Token, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// mapParser is a single-pass token state machine. One instance parses one source.
type mapParser struct {
	data *mapdata.MapData

	scope     ParseScope
	line      int
	propKey   string
	propParts []string
	valveUVs  bool
	component int

	entity mapdata.Entity
	brush  mapdata.Brush
	face   mapdata.Face
}

// ParseMap parses Quake-family map text into a new store.
// On error no store is returned.
func ParseMap(r io.Reader) (*mapdata.MapData, error) {
	p := &mapParser{
		data:   mapdata.New(),
		scope:  ScopeFile,
		entity: mapdata.NewEntity(),
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxMapLine)
	for scanner.Scan() {
		p.line++
		line := scanner.Text()
		quoted := p.scope == ScopePropertyValue && len(p.propParts) > 0
		if !quoted && strings.HasPrefix(line, "//") {
			continue
		}
		for _, tok := range splitMapLine(line, quoted) {
			if err := p.token(tok); err != nil {
				return nil, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading map data: %w", err)
	}

	if p.scope != ScopeFile {
		return nil, &ParseError{Line: p.line, Scope: p.scope, Err: ErrUnexpectedEOF}
	}

	return p.data, nil
}

// ParseMapFile parses a map file from disk.
func ParseMapFile(path string) (*mapdata.MapData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "opening map file")
	}
	defer f.Close()

	data, err := ParseMap(f)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "parsing %s", path)
	}
	return data, nil
}

// splitMapLine splits on spaces and tabs, keeping double-quoted runs together.
// Empty pieces from repeated separators are dropped. quoted reports that the
// line continues a value opened on an earlier line.
func splitMapLine(s string, quoted bool) []string {
	var parts []string
	start := 0
	inside := quoted
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '"' {
			inside = !inside
		}
		if (c == ' ' || c == '\t') && !inside {
			if i > start {
				parts = append(parts, s[start:i])
			}
			start = i + 1
		}
	}
	if start < len(s) {
		parts = append(parts, s[start:])
	}
	return parts
}

func (p *mapParser) errorf(tok string, err error) error {
	return &ParseError{Line: p.line, Scope: p.scope, Token: tok, Err: err}
}

func (p *mapParser) number(tok string) (float32, error) {
	v, err := strconv.ParseFloat(tok, 32)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, p.errorf(tok, ErrInvalidNumber)
	}
	return float32(v), nil
}

// vectorComponent stores tok into component p.component of v (x, y, z).
// Components past z are ignored.
func (p *mapParser) vectorComponent(tok string, v *mgl32.Vec3) error {
	if p.component < 3 {
		n, err := p.number(tok)
		if err != nil {
			return err
		}
		v[p.component] = n
	}
	p.component++
	return nil
}

// valveComponent stores tok into an axis or offset of a valve UV axis.
func (p *mapParser) valveComponent(tok string, axis *mapdata.ValveTextureAxis) error {
	switch {
	case p.component < 3:
		n, err := p.number(tok)
		if err != nil {
			return err
		}
		axis.Axis[p.component] = n
	case p.component == 3:
		n, err := p.number(tok)
		if err != nil {
			return err
		}
		axis.Offset = n
	}
	p.component++
	return nil
}

func (p *mapParser) token(tok string) error {
	switch p.scope {
	case ScopeFile:
		if tok == "{" {
			p.scope = ScopeEntity
		}

	case ScopeEntity:
		switch {
		case strings.HasPrefix(tok, `"`):
			p.propKey = tok[1:]
			if strings.HasSuffix(p.propKey, `"`) {
				p.propKey = strings.TrimRight(p.propKey, `"`)
				p.propParts = p.propParts[:0]
				p.scope = ScopePropertyValue
			}
		case tok == "{":
			p.scope = ScopeBrush
		case tok == "}":
			p.commitEntity()
			p.scope = ScopeFile
		}

	case ScopePropertyValue:
		// A value continued from an earlier line has its closing quote on
		// a later token, never an opening one.
		isFirst := len(p.propParts) == 0 && strings.HasPrefix(tok, `"`)
		isLast := strings.HasSuffix(tok, `"`) && (!isFirst || len(tok) > 1)
		p.propParts = append(p.propParts, tok)
		if isLast {
			value := strings.Join(p.propParts, " ")
			p.entity.Properties[p.propKey] = value[1 : len(value)-1]
			p.scope = ScopeEntity
		}

	case ScopeBrush:
		switch tok {
		case "(":
			p.component = 0
			p.scope = ScopePlane0
		case "}":
			p.commitBrush()
			p.scope = ScopeEntity
		}

	case ScopePlane0, ScopePlane1, ScopePlane2:
		if tok == "(" {
			return nil
		}
		if tok == ")" {
			p.component = 0
			p.scope++
			return nil
		}
		v := &p.face.PlanePoints.V2
		switch p.scope {
		case ScopePlane0:
			v = &p.face.PlanePoints.V0
		case ScopePlane1:
			v = &p.face.PlanePoints.V1
		}
		return p.vectorComponent(tok, v)

	case ScopeTexture:
		p.face.TextureIdx = p.data.RegisterTexture(tok)
		p.scope = ScopeU

	case ScopeU:
		if tok == "[" {
			p.valveUVs = true
			p.component = 0
			p.scope = ScopeValveU
			return nil
		}
		p.valveUVs = false
		n, err := p.number(tok)
		if err != nil {
			return err
		}
		p.face.UVStandard[0] = n
		p.scope = ScopeV

	case ScopeV:
		n, err := p.number(tok)
		if err != nil {
			return err
		}
		p.face.UVStandard[1] = n
		p.scope = ScopeRot

	case ScopeValveU:
		if tok == "]" {
			p.component = 0
			p.scope = ScopeValveV
			return nil
		}
		return p.valveComponent(tok, &p.face.UVValve.U)

	case ScopeValveV:
		switch tok {
		case "[":
			return nil
		case "]":
			p.scope = ScopeRot
			return nil
		}
		return p.valveComponent(tok, &p.face.UVValve.V)

	case ScopeRot:
		n, err := p.number(tok)
		if err != nil {
			return err
		}
		p.face.UVExtra.Rot = n
		p.scope = ScopeUScale

	case ScopeUScale:
		n, err := p.number(tok)
		if err != nil {
			return err
		}
		p.face.UVExtra.ScaleX = n
		p.scope = ScopeVScale

	case ScopeVScale:
		n, err := p.number(tok)
		if err != nil {
			return err
		}
		p.face.UVExtra.ScaleY = n
		p.commitFace()
		p.scope = ScopeBrush
	}

	return nil
}

func (p *mapParser) commitFace() {
	p.face.DerivePlane()
	p.face.IsValveUV = p.valveUVs
	p.brush.Faces = append(p.brush.Faces, p.face)
	p.face = mapdata.Face{}
}

func (p *mapParser) commitBrush() {
	p.entity.Brushes = append(p.entity.Brushes, p.brush)
	p.brush = mapdata.Brush{}
}

func (p *mapParser) commitEntity() {
	p.entity.SpawnType = mapdata.SpawnEntity
	p.data.Entities = append(p.data.Entities, p.entity)
	p.entity = mapdata.NewEntity()
}
