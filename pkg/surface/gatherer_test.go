package surface

import (
	"fmt"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/brushmap/pkg/formats"
	"github.com/Faultbox/brushmap/pkg/geo"
	"github.com/Faultbox/brushmap/pkg/mapdata"
)

// createTestBrush writes an axis-aligned box brush. textures holds one name
// per face in -X, -Y, -Z, +Z, +Y, +X order; a single name covers all faces.
func createTestBrush(mins, maxs [3]int, textures ...string) string {
	x0, y0, z0 := mins[0], mins[1], mins[2]
	x1, y1, z1 := maxs[0], maxs[1], maxs[2]
	planes := [6]string{
		fmt.Sprintf("( %d %d %d ) ( %d %d %d ) ( %d %d %d )", x0, y0, z0, x0, y0+1, z0, x0, y0, z0+1),
		fmt.Sprintf("( %d %d %d ) ( %d %d %d ) ( %d %d %d )", x0, y0, z0, x0, y0, z0+1, x0+1, y0, z0),
		fmt.Sprintf("( %d %d %d ) ( %d %d %d ) ( %d %d %d )", x0, y0, z0, x0+1, y0, z0, x0, y0+1, z0),
		fmt.Sprintf("( %d %d %d ) ( %d %d %d ) ( %d %d %d )", x1, y1, z1, x1, y1+1, z1, x1+1, y1, z1),
		fmt.Sprintf("( %d %d %d ) ( %d %d %d ) ( %d %d %d )", x1, y1, z1, x1+1, y1, z1, x1, y1, z1+1),
		fmt.Sprintf("( %d %d %d ) ( %d %d %d ) ( %d %d %d )", x1, y1, z1, x1, y1, z1+1, x1, y1+1, z1),
	}

	var sb strings.Builder
	sb.WriteString("{\n")
	for i, p := range planes {
		tex := textures[0]
		if len(textures) == 6 {
			tex = textures[i]
		}
		fmt.Fprintf(&sb, "%s %s 0 0 0 1 1\n", p, tex)
	}
	sb.WriteString("}\n")
	return sb.String()
}

func createTestEntity(classname string, brushes ...string) string {
	return fmt.Sprintf("{\n\"classname\" \"%s\"\n%s}\n", classname, strings.Join(brushes, ""))
}

// createTestData parses and generates a map with all textures sized 64x64.
// worldspawn and func_group get their usual spawn types.
func createTestData(t *testing.T, src string) *mapdata.MapData {
	t.Helper()
	data, err := formats.ParseMap(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ParseMap failed: %v", err)
	}
	for _, name := range data.TextureNames() {
		data.SetTextureSize(name, 64, 64)
	}
	data.SetSpawnTypeByClassname("worldspawn", mapdata.SpawnWorldspawn)
	data.SetSpawnTypeByClassname("func_group", mapdata.SpawnMergeWorldspawn)
	if err := geo.New(data).Run(); err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	return data
}

var (
	boxA = [2][3]int{{0, 0, 0}, {32, 32, 32}}
	boxB = [2][3]int{{64, 0, 0}, {96, 32, 32}}
	boxC = [2][3]int{{0, 64, 0}, {32, 96, 32}}
)

func box(b [2][3]int, textures ...string) string {
	return createTestBrush(b[0], b[1], textures...)
}

// checkSurface verifies index bounds and returns vertex and index counts.
func checkSurface(t *testing.T, i int, s *mapdata.FaceGeometry) (int, int) {
	t.Helper()
	for _, idx := range s.Indices {
		if idx < 0 || idx >= len(s.Vertices) {
			t.Errorf("surface %d: index %d out of range [0,%d)", i, idx, len(s.Vertices))
		}
	}
	return len(s.Vertices), len(s.Indices)
}

func TestGather_SplitNone(t *testing.T) {
	data := createTestData(t, createTestEntity("worldspawn", box(boxA, "floor"), box(boxB, "floor")))

	surfs := New(data).Run()
	if len(surfs) != 1 {
		t.Fatalf("expected 1 surface, got %d", len(surfs))
	}
	verts, indices := checkSurface(t, 0, surfs[0])
	if verts != 48 || indices != 72 {
		t.Errorf("expected 48 vertices and 72 indices, got %d and %d", verts, indices)
	}

	// Second brush starts after the first brush's 24 vertices.
	if surfs[0].Indices[36] != 24 {
		t.Errorf("second brush indices not rebased: first index %d", surfs[0].Indices[36])
	}
}

func TestGather_SplitBrush(t *testing.T) {
	src := createTestEntity("worldspawn", box(boxA, "floor"), box(boxB, "floor")) +
		createTestEntity("func_door", box(boxC, "door"))
	data := createTestData(t, src)

	g := New(data)
	g.Split = SplitBrush
	surfs := g.Run()

	if len(surfs) != 3 {
		t.Fatalf("expected 3 surfaces, got %d", len(surfs))
	}
	for i, s := range surfs {
		verts, indices := checkSurface(t, i, s)
		if verts != 24 || indices != 36 {
			t.Errorf("surface %d: %d vertices, %d indices", i, verts, indices)
		}
		minIdx := s.Indices[0]
		for _, idx := range s.Indices {
			minIdx = min(minIdx, idx)
		}
		if minIdx != 0 {
			t.Errorf("surface %d: indices start at %d, want 0", i, minIdx)
		}
	}
}

func TestGather_SplitEntityMergesWorldspawn(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"merge after door", createTestEntity("worldspawn", box(boxA, "floor")) +
			createTestEntity("func_door", box(boxB, "door")) +
			createTestEntity("func_group", box(boxC, "floor"))},
		{"merge before door", createTestEntity("worldspawn", box(boxA, "floor")) +
			createTestEntity("func_group", box(boxC, "floor")) +
			createTestEntity("func_door", box(boxB, "door"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := createTestData(t, tt.src)
			g := New(data)
			g.Split = SplitEntity
			surfs := g.Run()

			if len(surfs) != 3 {
				t.Fatalf("expected 3 surfaces, got %d", len(surfs))
			}
			if verts, indices := checkSurface(t, 0, surfs[0]); verts != 48 || indices != 72 {
				t.Errorf("surface 0: %d vertices, %d indices, want 48/72", verts, indices)
			}

			for i := 1; i < 3; i++ {
				verts, _ := checkSurface(t, i, surfs[i])
				ent := data.Entities[i]
				if ent.SpawnType == mapdata.SpawnMergeWorldspawn {
					if verts != 0 {
						t.Errorf("merged entity placeholder %d has %d vertices", i, verts)
					}
				} else if verts != 24 {
					t.Errorf("surface %d: %d vertices, want 24", i, verts)
				}
			}
		})
	}
}

func TestGather_Recentering(t *testing.T) {
	src := createTestEntity("worldspawn", box(boxA, "floor")) +
		createTestEntity("func_door", box(boxB, "door"))
	data := createTestData(t, src)

	g := New(data)
	g.Split = SplitEntity
	surfs := g.Run()

	for _, v := range surfs[1].Vertices {
		for i := 0; i < 3; i++ {
			if v.Vertex[i] != 16 && v.Vertex[i] != -16 {
				t.Fatalf("door vertex %v not relative to entity center", v.Vertex)
			}
		}
	}
	for _, v := range surfs[0].Vertices {
		for i := 0; i < 3; i++ {
			if v.Vertex[i] != 0 && v.Vertex[i] != 32 {
				t.Fatalf("worldspawn vertex %v should stay absolute", v.Vertex)
			}
		}
	}

	// The store keeps absolute positions.
	for _, fg := range data.EntityGeo[1].Brushes[0].Faces {
		for _, v := range fg.Vertices {
			if v.Vertex.X() < 64 {
				t.Fatalf("store vertex %v was modified", v.Vertex)
			}
		}
	}
	if again := g.Run(); again[1].Vertices[0].Vertex != surfs[1].Vertices[0].Vertex {
		t.Error("repeated runs should give the same result")
	}
}

func TestGather_BrushFilter(t *testing.T) {
	src := createTestEntity("worldspawn",
		box(boxA, "floor"),
		box(boxB, "clip"),
		box(boxC, "clip", "clip", "clip", "floor", "clip", "clip"))
	data := createTestData(t, src)

	for _, split := range []SplitType{SplitNone, SplitEntity, SplitBrush} {
		t.Run(split.String(), func(t *testing.T) {
			g := New(data)
			g.Split = split
			g.SetBrushFilterTexture("clip")
			surfs := g.Run()

			total := 0
			for i, s := range surfs {
				verts, _ := checkSurface(t, i, s)
				total += verts
			}
			if total != 48 {
				t.Errorf("expected 48 vertices from the unfiltered brushes, got %d", total)
			}
			if split == SplitBrush {
				if len(surfs) != 3 {
					t.Fatalf("expected 3 surfaces, got %d", len(surfs))
				}
				if len(surfs[1].Vertices) != 0 || len(surfs[1].Indices) != 0 {
					t.Error("filtered brush should give an empty surface")
				}
			}
		})
	}
}

func TestGather_FaceFilter(t *testing.T) {
	src := createTestEntity("worldspawn", box(boxA, "floor", "floor", "skip", "floor", "floor", "floor")) +
		createTestEntity("func_door", box(boxB, "skip", "door", "door", "door", "door", "door"))
	data := createTestData(t, src)

	for _, split := range []SplitType{SplitNone, SplitEntity, SplitBrush} {
		t.Run(split.String(), func(t *testing.T) {
			g := New(data)
			g.Split = split
			g.SetFaceFilterTexture("skip")
			surfs := g.Run()

			skip := data.FindTexture("skip")
			verts, indices := 0, 0
			for i, s := range surfs {
				v, n := checkSurface(t, i, s)
				verts += v
				indices += n
			}
			if verts != 40 || indices != 60 {
				t.Errorf("expected 40 vertices and 60 indices, got %d and %d", verts, indices)
			}
			if skip == -1 {
				t.Fatal("skip texture not registered")
			}
		})
	}
}

func TestGather_EntityFilter(t *testing.T) {
	src := createTestEntity("worldspawn", box(boxA, "floor")) +
		createTestEntity("func_door", box(boxB, "door")) +
		createTestEntity("func_wall", box(boxC, "wall"))
	data := createTestData(t, src)

	g := New(data)
	g.EntityFilter = 1
	surfs := g.Run()
	if len(surfs) != 1 {
		t.Fatalf("expected 1 surface, got %d", len(surfs))
	}
	if len(surfs[0].Vertices) != 24 {
		t.Errorf("expected 24 vertices, got %d", len(surfs[0].Vertices))
	}
	door := data.FindTexture("door")
	for _, v := range surfs[0].Vertices {
		if v.Vertex.X() < -16 || v.Vertex.X() > 16 {
			t.Errorf("vertex %v is not from the door entity", v.Vertex)
		}
	}
	if door == -1 {
		t.Fatal("door texture not registered")
	}

	g.Split = SplitEntity
	if surfs := g.Run(); len(surfs) != 1 || len(surfs[0].Vertices) != 24 {
		t.Errorf("entity split with filter: %d surfaces", len(surfs))
	}
}

func TestGather_WorldspawnLayers(t *testing.T) {
	src := createTestEntity("worldspawn",
		box(boxA, "floor"),
		box(boxB, "floor", "floor", "floor", "*water", "floor", "floor"))
	data := createTestData(t, src)
	data.WorldspawnLayers = append(data.WorldspawnLayers, mapdata.WorldspawnLayer{
		TextureIdx:   data.FindTexture("*water"),
		BuildVisuals: true,
	})

	g := New(data)
	if surfs := g.Run(); len(surfs[0].Vertices) != 24 {
		t.Errorf("layer brush should be filtered: %d vertices", len(surfs[0].Vertices))
	}

	g.FilterWorldspawnLayers = false
	if surfs := g.Run(); len(surfs[0].Vertices) != 48 {
		t.Errorf("layer brush should be kept: %d vertices", len(surfs[0].Vertices))
	}
}

func TestGather_TextureFilter(t *testing.T) {
	src := createTestEntity("worldspawn", box(boxA, "wall", "wall", "floor", "ceiling", "wall", "wall"))
	data := createTestData(t, src)

	tests := []struct {
		name  string
		names []string
		verts int
	}{
		{"single", []string{"floor"}, 4},
		{"several", []string{"floor", "ceiling"}, 8},
		{"unknown ignored", []string{"floor", "missing"}, 4},
		{"none known", []string{"missing"}, 24},
		{"cleared", nil, 24},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(data)
			g.SetTextureFilter(tt.names...)
			surfs := g.Run()
			if got := len(surfs[0].Vertices); got != tt.verts {
				t.Errorf("expected %d vertices, got %d", tt.verts, got)
			}
		})
	}
}

func TestGather_EmptyMap(t *testing.T) {
	data := createTestData(t, createTestEntity("worldspawn"))

	g := New(data)
	g.Split = SplitBrush
	if surfs := g.Run(); len(surfs) != 0 {
		t.Errorf("expected no surfaces, got %d", len(surfs))
	}

	g.Split = SplitNone
	surfs := g.Run()
	if len(surfs) != 1 || len(surfs[0].Vertices) != 0 {
		t.Errorf("expected one empty surface")
	}
	if len(g.Surfaces()) != 1 {
		t.Error("Surfaces should return the last result")
	}
}

func TestResetParams(t *testing.T) {
	data := createTestData(t, createTestEntity("worldspawn", box(boxA, "floor")))
	g := New(data)
	g.Split = SplitBrush
	g.EntityFilter = 3
	g.SetBrushFilterTexture("floor")
	g.SetFaceFilterTexture("floor")
	g.SetTextureFilter("floor")
	g.FilterWorldspawnLayers = false

	g.ResetParams()

	if g.Split != SplitNone || g.EntityFilter != -1 || g.BrushFilterTexture != -1 ||
		g.FaceFilterTexture != -1 || !g.FilterWorldspawnLayers || g.textureFilter != nil {
		t.Errorf("ResetParams left %+v", g)
	}
}

func TestParseSplitType(t *testing.T) {
	for _, s := range []SplitType{SplitNone, SplitEntity, SplitBrush} {
		got, err := ParseSplitType(s.String())
		if err != nil || got != s {
			t.Errorf("ParseSplitType(%q) = %v, %v", s.String(), got, err)
		}
	}
	if _, err := ParseSplitType("face"); err == nil {
		t.Error("expected error for unknown split")
	}
}

func TestToArrays(t *testing.T) {
	surf := &mapdata.FaceGeometry{
		Vertices: []mapdata.FaceVertex{{
			Vertex:  mgl32.Vec3{32, 64, 16},
			Normal:  mgl32.Vec3{1, 0, 0},
			UV:      mgl32.Vec2{0.5, -1},
			Tangent: mgl32.Vec4{0, 1, 0, -1},
		}},
		Indices: []int{0, 0, 0},
	}

	a := ToArrays(surf, 32)
	if a.Vertices[0] != (mgl32.Vec3{2, 0.5, 1}) {
		t.Errorf("vertex = %v, want (2, 0.5, 1)", a.Vertices[0])
	}
	if a.Normals[0] != (mgl32.Vec3{0, 0, 1}) {
		t.Errorf("normal = %v, want (0, 0, 1)", a.Normals[0])
	}
	wantTangent := []float32{1, 0, 0, -1}
	for i, w := range wantTangent {
		if a.Tangents[i] != w {
			t.Errorf("tangent = %v, want %v", a.Tangents, wantTangent)
			break
		}
	}
	if a.UVs[0] != surf.Vertices[0].UV {
		t.Errorf("uv = %v", a.UVs[0])
	}
	if a.VertexCount() != 1 || a.TriangleCount() != 1 {
		t.Errorf("counts: %d vertices, %d triangles", a.VertexCount(), a.TriangleCount())
	}

	if ToArrays(&mapdata.FaceGeometry{}, 1) != nil {
		t.Error("empty surface should convert to nil")
	}
	if ToArrays(nil, 1) != nil {
		t.Error("nil surface should convert to nil")
	}

	all := ToArraysAll([]*mapdata.FaceGeometry{surf, {}}, 1)
	if len(all) != 2 || all[0] == nil || all[1] != nil {
		t.Errorf("ToArraysAll = %v", all)
	}
}
