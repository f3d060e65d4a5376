package scene

import (
	"fmt"

	"github.com/Faultbox/sceneflat/internal/source"
)

// FlattenMesh deduplicates the corners of src into a vertex buffer and
// builds one Polygon per source polygon. node tags every vertex; pass
// NoIndex for untagged vertices.
func FlattenMesh(src *source.Mesh, node int) (Mesh, error) {
	hasUVs := len(src.UVs) > 0
	if hasUVs && len(src.UVs) != len(src.Corners) {
		return Mesh{}, fmt.Errorf("mesh %q: %w (%d uvs, %d corners)",
			src.Name, ErrUVMismatch, len(src.UVs), len(src.Corners))
	}

	vertices := NewIndexed[VertexKey, Vertex]()
	polygons := make([]Polygon, 0, len(src.Polygons))

	for pi, p := range src.Polygons {
		if p.Count != 3 && p.Count != 4 {
			return Mesh{}, &ArityError{Mesh: src.Name, Polygon: pi, Count: p.Count}
		}
		if p.Start < 0 || p.Start+p.Count > len(src.Corners) {
			return Mesh{}, fmt.Errorf("mesh %q polygon %d: %w (corners %d..%d of %d)",
				src.Name, pi, ErrCornerOutOfRange, p.Start, p.Start+p.Count-1, len(src.Corners))
		}

		var poly Polygon
		for c := p.Start; c < p.Start+p.Count; c++ {
			v := Vertex{
				Position: src.Corners[c].Position,
				Normal:   src.Corners[c].Normal,
				Node:     node,
			}
			if hasUVs {
				v.UV = src.UVs[c]
			}
			poly.Indices[poly.Count] = vertices.Intern(v.Key(), v)
			poly.Count++
		}
		polygons = append(polygons, poly)
	}

	return Mesh{
		Name:     src.Name,
		Vertices: vertices.Values(),
		Polygons: polygons,
	}, nil
}
