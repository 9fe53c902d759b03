package export

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/Faultbox/brushmap/pkg/surface"
)

// ErrMalformedSurfaceSet is returned when decoding invalid wire data.
var ErrMalformedSurfaceSet = errors.New("malformed surface set")

// Field numbers, see surfaces.proto.
const (
	setFieldID       protowire.Number = 1
	setFieldSource   protowire.Number = 2
	setFieldSurfaces protowire.Number = 3

	surfFieldPositions protowire.Number = 1
	surfFieldNormals   protowire.Number = 2
	surfFieldTangents  protowire.Number = 3
	surfFieldUVs       protowire.Number = 4
	surfFieldIndices   protowire.Number = 5
)

// SurfaceSet is a batch of exported surfaces.
type SurfaceSet struct {
	ID       uuid.UUID
	Source   string
	Surfaces []*surface.Arrays
}

// NewSurfaceSet stamps a new time-ordered id on the surfaces.
func NewSurfaceSet(source string, surfaces []*surface.Arrays) SurfaceSet {
	return SurfaceSet{
		ID:       uuid.Must(uuid.NewV7()),
		Source:   source,
		Surfaces: surfaces,
	}
}

// MarshalSurfaceSet encodes set in protobuf wire format.
func MarshalSurfaceSet(set SurfaceSet) []byte {
	var b []byte
	b = protowire.AppendTag(b, setFieldID, protowire.BytesType)
	b = protowire.AppendString(b, set.ID.String())
	if set.Source != "" {
		b = protowire.AppendTag(b, setFieldSource, protowire.BytesType)
		b = protowire.AppendString(b, set.Source)
	}
	for _, s := range set.Surfaces {
		b = protowire.AppendTag(b, setFieldSurfaces, protowire.BytesType)
		b = protowire.AppendBytes(b, marshalSurface(s))
	}
	return b
}

func marshalSurface(s *surface.Arrays) []byte {
	if s == nil {
		return nil
	}

	var b []byte
	positions := make([]float32, 0, len(s.Vertices)*3)
	for _, v := range s.Vertices {
		positions = append(positions, v[:]...)
	}
	normals := make([]float32, 0, len(s.Normals)*3)
	for _, n := range s.Normals {
		normals = append(normals, n[:]...)
	}
	uvs := make([]float32, 0, len(s.UVs)*2)
	for _, uv := range s.UVs {
		uvs = append(uvs, uv[:]...)
	}

	b = appendPackedFloats(b, surfFieldPositions, positions)
	b = appendPackedFloats(b, surfFieldNormals, normals)
	b = appendPackedFloats(b, surfFieldTangents, s.Tangents)
	b = appendPackedFloats(b, surfFieldUVs, uvs)

	if len(s.Indices) > 0 {
		var packed []byte
		for _, idx := range s.Indices {
			packed = protowire.AppendVarint(packed, uint64(uint32(idx)))
		}
		b = protowire.AppendTag(b, surfFieldIndices, protowire.BytesType)
		b = protowire.AppendBytes(b, packed)
	}
	return b
}

func appendPackedFloats(b []byte, num protowire.Number, values []float32) []byte {
	if len(values) == 0 {
		return b
	}
	packed := make([]byte, 0, len(values)*4)
	for _, v := range values {
		packed = protowire.AppendFixed32(packed, math.Float32bits(v))
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, packed)
}

// UnmarshalSurfaceSet decodes wire data written by MarshalSurfaceSet.
// Unknown fields are skipped.
func UnmarshalSurfaceSet(data []byte) (SurfaceSet, error) {
	var set SurfaceSet
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return SurfaceSet{}, fmt.Errorf("%w: %v", ErrMalformedSurfaceSet, protowire.ParseError(n))
		}
		data = data[n:]

		if typ != protowire.BytesType || num < setFieldID || num > setFieldSurfaces {
			n = protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return SurfaceSet{}, fmt.Errorf("%w: %v", ErrMalformedSurfaceSet, protowire.ParseError(n))
			}
			data = data[n:]
			continue
		}

		v, n := protowire.ConsumeBytes(data)
		if n < 0 {
			return SurfaceSet{}, fmt.Errorf("%w: %v", ErrMalformedSurfaceSet, protowire.ParseError(n))
		}
		data = data[n:]

		switch num {
		case setFieldID:
			id, err := uuid.ParseBytes(v)
			if err != nil {
				return SurfaceSet{}, fmt.Errorf("%w: id: %v", ErrMalformedSurfaceSet, err)
			}
			set.ID = id
		case setFieldSource:
			set.Source = string(v)
		case setFieldSurfaces:
			s, err := unmarshalSurface(v)
			if err != nil {
				return SurfaceSet{}, err
			}
			set.Surfaces = append(set.Surfaces, s)
		}
	}
	return set, nil
}

func unmarshalSurface(data []byte) (*surface.Arrays, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var positions, normals, uvs []float32
	s := &surface.Arrays{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("%w: %v", ErrMalformedSurfaceSet, protowire.ParseError(n))
		}
		data = data[n:]

		if typ != protowire.BytesType {
			n = protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, fmt.Errorf("%w: %v", ErrMalformedSurfaceSet, protowire.ParseError(n))
			}
			data = data[n:]
			continue
		}

		v, n := protowire.ConsumeBytes(data)
		if n < 0 {
			return nil, fmt.Errorf("%w: %v", ErrMalformedSurfaceSet, protowire.ParseError(n))
		}
		data = data[n:]

		var err error
		switch num {
		case surfFieldPositions:
			positions, err = consumePackedFloats(v)
		case surfFieldNormals:
			normals, err = consumePackedFloats(v)
		case surfFieldTangents:
			s.Tangents, err = consumePackedFloats(v)
		case surfFieldUVs:
			uvs, err = consumePackedFloats(v)
		case surfFieldIndices:
			s.Indices, err = consumePackedIndices(v)
		}
		if err != nil {
			return nil, err
		}
	}

	if len(positions)%3 != 0 || len(normals)%3 != 0 || len(uvs)%2 != 0 || len(s.Tangents)%4 != 0 {
		return nil, fmt.Errorf("%w: ragged vertex arrays", ErrMalformedSurfaceSet)
	}
	for i := 0; i < len(positions); i += 3 {
		s.Vertices = append(s.Vertices, mgl32.Vec3{positions[i], positions[i+1], positions[i+2]})
	}
	for i := 0; i < len(normals); i += 3 {
		s.Normals = append(s.Normals, mgl32.Vec3{normals[i], normals[i+1], normals[i+2]})
	}
	for i := 0; i < len(uvs); i += 2 {
		s.UVs = append(s.UVs, mgl32.Vec2{uvs[i], uvs[i+1]})
	}
	return s, nil
}

func consumePackedFloats(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("%w: packed float length %d", ErrMalformedSurfaceSet, len(b))
	}
	out := make([]float32, 0, len(b)/4)
	for len(b) > 0 {
		v, n := protowire.ConsumeFixed32(b)
		if n < 0 {
			return nil, fmt.Errorf("%w: %v", ErrMalformedSurfaceSet, protowire.ParseError(n))
		}
		out = append(out, math.Float32frombits(v))
		b = b[n:]
	}
	return out, nil
}

func consumePackedIndices(b []byte) ([]int, error) {
	var out []int
	for len(b) > 0 {
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return nil, fmt.Errorf("%w: %v", ErrMalformedSurfaceSet, protowire.ParseError(n))
		}
		if v > math.MaxUint32 {
			return nil, fmt.Errorf("%w: index %d out of range", ErrMalformedSurfaceSet, v)
		}
		out = append(out, int(v))
		b = b[n:]
	}
	return out, nil
}
