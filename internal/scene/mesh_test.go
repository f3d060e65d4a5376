package scene

import (
	"errors"
	"math"
	"testing"

	"github.com/Faultbox/sceneflat/internal/source"
)

// quadAsTriangles is a unit quad split into two triangles sharing the
// 0-2 edge: six corners, four distinct attribute tuples.
func quadAsTriangles(name string) source.Mesh {
	up := [3]float32{0, 0, 1}
	p := [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}
	uv := [][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	order := []int{0, 1, 2, 0, 2, 3}

	m := source.Mesh{Name: name}
	for _, i := range order {
		m.Corners = append(m.Corners, source.Corner{Position: p[i], Normal: up})
		m.UVs = append(m.UVs, uv[i])
	}
	m.Polygons = []source.Polygon{{Start: 0, Count: 3}, {Start: 3, Count: 3}}
	return m
}

func TestFlattenMesh_Dedup(t *testing.T) {
	src := quadAsTriangles("Plane")

	m, err := FlattenMesh(&src, NoIndex)
	if err != nil {
		t.Fatalf("FlattenMesh failed: %v", err)
	}

	if len(m.Vertices) != 4 {
		t.Fatalf("vertex count = %d, want 4", len(m.Vertices))
	}
	if len(m.Polygons) != 2 {
		t.Fatalf("polygon count = %d, want 2", len(m.Polygons))
	}

	// First-seen order: corners 0,1,2 then the new corner 3.
	wantPos := [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}
	for i, want := range wantPos {
		if m.Vertices[i].Position != want {
			t.Errorf("vertex %d position = %v, want %v", i, m.Vertices[i].Position, want)
		}
		if m.Vertices[i].Node != NoIndex {
			t.Errorf("vertex %d node = %d, want NoIndex", i, m.Vertices[i].Node)
		}
	}

	want := []Polygon{
		{Indices: [4]int{0, 1, 2, 0}, Count: 3},
		{Indices: [4]int{0, 2, 3, 0}, Count: 3},
	}
	for i := range want {
		if m.Polygons[i] != want[i] {
			t.Errorf("polygon %d = %+v, want %+v", i, m.Polygons[i], want[i])
		}
	}
}

func TestFlattenMesh_DedupAcrossManyCorners(t *testing.T) {
	// 39 corners cycling through 3 distinct tuples collapse to 3 vertices.
	tuples := [][3]float32{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}}
	src := source.Mesh{Name: "Fan"}
	for i := 0; i < 39; i++ {
		src.Corners = append(src.Corners, source.Corner{Position: tuples[i%3]})
		if i%3 == 0 {
			src.Polygons = append(src.Polygons, source.Polygon{Start: i, Count: 3})
		}
	}

	m, err := FlattenMesh(&src, NoIndex)
	if err != nil {
		t.Fatalf("FlattenMesh failed: %v", err)
	}
	if len(m.Vertices) != 3 {
		t.Errorf("vertex count = %d, want 3", len(m.Vertices))
	}
	for i, v := range m.Vertices {
		if v.Position != tuples[i] {
			t.Errorf("vertex %d = %v, want %v", i, v.Position, tuples[i])
		}
	}
	for i, p := range m.Polygons {
		if p.Indices != [4]int{0, 1, 2, 0} {
			t.Errorf("polygon %d indices = %v", i, p.Indices)
		}
	}
}

func TestFlattenMesh_Quad(t *testing.T) {
	src := quadAsTriangles("Quad")
	src.Corners = src.Corners[:0]
	src.UVs = nil
	for _, p := range [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}} {
		src.Corners = append(src.Corners, source.Corner{Position: p})
	}
	src.Polygons = []source.Polygon{{Start: 0, Count: 4}}

	m, err := FlattenMesh(&src, 2)
	if err != nil {
		t.Fatalf("FlattenMesh failed: %v", err)
	}
	if m.Polygons[0].Count != 4 || m.Polygons[0].Indices != [4]int{0, 1, 2, 3} {
		t.Errorf("quad = %+v", m.Polygons[0])
	}
	for i, v := range m.Vertices {
		if v.Node != 2 {
			t.Errorf("vertex %d node = %d, want 2", i, v.Node)
		}
		if v.UV != [2]float32{} {
			t.Errorf("vertex %d uv = %v, want zero without a uv layer", i, v.UV)
		}
	}
}

func TestFlattenMesh_Arity(t *testing.T) {
	for _, count := range []int{0, 1, 2, 5} {
		src := source.Mesh{
			Name:     "Bad",
			Corners:  make([]source.Corner, 8),
			Polygons: []source.Polygon{{Start: 0, Count: 3}, {Start: 3, Count: count}},
		}

		_, err := FlattenMesh(&src, NoIndex)
		if !errors.Is(err, ErrUnsupportedPolygonArity) {
			t.Errorf("count %d: error = %v, want ErrUnsupportedPolygonArity", count, err)
			continue
		}
		var ae *ArityError
		if !errors.As(err, &ae) || ae.Count != count || ae.Polygon != 1 {
			t.Errorf("count %d: ArityError = %+v", count, ae)
		}
	}
}

func TestFlattenMesh_InputErrors(t *testing.T) {
	tests := []struct {
		name    string
		mesh    source.Mesh
		wantErr error
	}{
		{
			name: "corner run past end",
			mesh: source.Mesh{
				Corners:  make([]source.Corner, 3),
				Polygons: []source.Polygon{{Start: 1, Count: 3}},
			},
			wantErr: ErrCornerOutOfRange,
		},
		{
			name: "negative start",
			mesh: source.Mesh{
				Corners:  make([]source.Corner, 3),
				Polygons: []source.Polygon{{Start: -1, Count: 3}},
			},
			wantErr: ErrCornerOutOfRange,
		},
		{
			name: "short uv layer",
			mesh: source.Mesh{
				Corners:  make([]source.Corner, 3),
				UVs:      make([][2]float32, 2),
				Polygons: []source.Polygon{{Start: 0, Count: 3}},
			},
			wantErr: ErrUVMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FlattenMesh(&tt.mesh, NoIndex); !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestVertexKey_BitExact(t *testing.T) {
	a := Vertex{Position: [3]float32{1, 0, 0}, Node: NoIndex}
	b := a
	b.Position[0] = math.Nextafter32(1, 2)
	if a.Key() == b.Key() {
		t.Error("adjacent floats must not merge")
	}

	negZero := a
	negZero.Normal[0] = float32(math.Copysign(0, -1))
	if a.Key() == negZero.Key() {
		t.Error("0 and -0 must not merge")
	}

	tagged := a
	tagged.Node = 0
	if a.Key() == tagged.Key() {
		t.Error("node tag must be part of the key")
	}

	if a.Key() != (Vertex{Position: [3]float32{1, 0, 0}, Node: NoIndex}).Key() {
		t.Error("identical vertices must share a key")
	}
}
