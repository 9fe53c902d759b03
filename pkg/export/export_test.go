package export

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/Faultbox/brushmap/pkg/surface"
)

func createTestArrays(offset float32) *surface.Arrays {
	return &surface.Arrays{
		Vertices: []mgl32.Vec3{{offset, 0, 0}, {offset + 1, 0, 0}, {offset, 1, 0}},
		Normals:  []mgl32.Vec3{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
		Tangents: []float32{1, 0, 0, 1, 1, 0, 0, 1, 1, 0, 0, -1},
		UVs:      []mgl32.Vec2{{0, 0}, {0.5, 0}, {0, -0.25}},
		Indices:  []int{0, 1, 2},
	}
}

func TestWriteOBJ(t *testing.T) {
	var buf bytes.Buffer
	surfs := []*surface.Arrays{createTestArrays(0), nil, createTestArrays(4)}
	if err := WriteOBJ(&buf, "e1m1", surfs); err != nil {
		t.Fatalf("WriteOBJ failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"o e1m1_0\n",
		"o e1m1_2\n",
		"v 4 0 0\n",
		"vn 0 0 1\n",
		"vt 0 0.25\n",
		"f 1/1/1 2/2/2 3/3/3\n",
		"f 4/4/4 5/5/5 6/6/6\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "o e1m1_1") {
		t.Error("nil surface should not be written")
	}
	if got := strings.Count(out, "\nv "); got != 6 {
		t.Errorf("expected 6 vertices, got %d", got)
	}
}

func TestSurfaceSetRoundTrip(t *testing.T) {
	set := NewSurfaceSet("maps/e1m1.map", []*surface.Arrays{createTestArrays(0), nil, createTestArrays(2)})
	if set.ID.Version() != 7 {
		t.Errorf("expected UUIDv7, got version %d", set.ID.Version())
	}

	got, err := UnmarshalSurfaceSet(MarshalSurfaceSet(set))
	if err != nil {
		t.Fatalf("UnmarshalSurfaceSet failed: %v", err)
	}
	if got.ID != set.ID || got.Source != set.Source {
		t.Errorf("header = %v %q, want %v %q", got.ID, got.Source, set.ID, set.Source)
	}
	if len(got.Surfaces) != 3 {
		t.Fatalf("expected 3 surfaces, got %d", len(got.Surfaces))
	}
	if got.Surfaces[1] != nil {
		t.Error("empty surface should decode to nil")
	}
	if !reflect.DeepEqual(got.Surfaces[2], set.Surfaces[2]) {
		t.Errorf("surface 2 = %+v, want %+v", got.Surfaces[2], set.Surfaces[2])
	}
}

func TestUnmarshalSurfaceSet_SkipsUnknownFields(t *testing.T) {
	id := uuid.Must(uuid.NewV7())
	var b []byte
	b = protowire.AppendTag(b, 9, protowire.VarintType)
	b = protowire.AppendVarint(b, 42)
	b = protowire.AppendTag(b, setFieldID, protowire.BytesType)
	b = protowire.AppendString(b, id.String())

	set, err := UnmarshalSurfaceSet(b)
	if err != nil {
		t.Fatalf("UnmarshalSurfaceSet failed: %v", err)
	}
	if set.ID != id {
		t.Errorf("id = %v, want %v", set.ID, id)
	}
}

func TestUnmarshalSurfaceSet_Malformed(t *testing.T) {
	ragged := protowire.AppendTag(nil, surfFieldPositions, protowire.BytesType)
	ragged = protowire.AppendBytes(ragged, make([]byte, 8))
	withRagged := protowire.AppendTag(nil, setFieldSurfaces, protowire.BytesType)
	withRagged = protowire.AppendBytes(withRagged, ragged)

	badID := protowire.AppendTag(nil, setFieldID, protowire.BytesType)
	badID = protowire.AppendString(badID, "not-a-uuid")

	tests := []struct {
		name string
		data []byte
	}{
		{"truncated tag", []byte{0x80}},
		{"truncated bytes", []byte{0x1a, 0x05, 0x01}},
		{"ragged positions", withRagged},
		{"bad id", badID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := UnmarshalSurfaceSet(tt.data); !errors.Is(err, ErrMalformedSurfaceSet) {
				t.Errorf("expected ErrMalformedSurfaceSet, got %v", err)
			}
		})
	}
}
