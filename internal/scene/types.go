// Package scene flattens a host scene into deduplicated vertex buffers,
// fixed-arity index buffers and a node table with parent back-references.
package scene

import (
	"fmt"
	gomath "math"
)

// NoIndex marks an absent parent, mesh or vertex node tag.
const NoIndex = -1

// MaxPolygonCorners is the fixed index slot count of a Polygon.
const MaxPolygonCorners = 4

// Variant selects which emitter the scene is flattened for.
type Variant int

const (
	// VariantText builds untagged vertices for the header emitter.
	VariantText Variant = iota
	// VariantBinary tags every vertex with its owning node index.
	VariantBinary
)

// String returns the variant name.
func (v Variant) String() string {
	switch v {
	case VariantText:
		return "text"
	case VariantBinary:
		return "binary"
	default:
		return "unknown"
	}
}

// NodeOrder selects how the node table is ordered.
type NodeOrder int

const (
	// OrderParentsFirst stably reorders nodes so parents precede children.
	OrderParentsFirst NodeOrder = iota
	// OrderSource keeps host enumeration order.
	OrderSource
)

// String returns the configuration name of the order.
func (o NodeOrder) String() string {
	switch o {
	case OrderParentsFirst:
		return "parents_first"
	case OrderSource:
		return "source"
	default:
		return "unknown"
	}
}

// ParseNodeOrder parses a configuration name. Empty means
// OrderParentsFirst.
func ParseNodeOrder(name string) (NodeOrder, error) {
	switch name {
	case "", "parents_first":
		return OrderParentsFirst, nil
	case "source":
		return OrderSource, nil
	default:
		return 0, fmt.Errorf("unknown node order %q", name)
	}
}

// Options controls Flatten.
type Options struct {
	Variant Variant
	Order   NodeOrder
}

// Vertex is one deduplicated vertex. Node is NoIndex unless the scene was
// flattened for the binary variant.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	UV       [2]float32
	Node     int
}

// VertexKey is the bit-exact identity of a Vertex.
type VertexKey struct {
	bits [8]uint32
	node int
}

// Key returns the vertex identity. Floats compare by bit pattern, so 0 and
// -0 are distinct and identical NaNs merge.
func (v Vertex) Key() VertexKey {
	return VertexKey{
		bits: [8]uint32{
			gomath.Float32bits(v.Position[0]),
			gomath.Float32bits(v.Position[1]),
			gomath.Float32bits(v.Position[2]),
			gomath.Float32bits(v.Normal[0]),
			gomath.Float32bits(v.Normal[1]),
			gomath.Float32bits(v.Normal[2]),
			gomath.Float32bits(v.UV[0]),
			gomath.Float32bits(v.UV[1]),
		},
		node: v.Node,
	}
}

// Polygon is a triangle or quad. Unused slots hold 0.
type Polygon struct {
	Indices [MaxPolygonCorners]int
	Count   int
}

// Mesh is a flattened mesh.
type Mesh struct {
	Name     string
	Vertices []Vertex
	Polygons []Polygon
}

// Node is a flattened transform node.
type Node struct {
	Name   string
	Parent int
	Mesh   int
	Matrix [16]float32 // row-major
}

// Bone is reserved for skinning; flattening never produces one.
type Bone struct {
	Name   string
	Offset [16]float32 // row-major
}

// Texture is a forwarded image reference.
type Texture struct {
	Path string
}

// Material names the ambient, diffuse and specular textures.
type Material struct {
	Ambient  string
	Diffuse  string
	Specular string
}

// Scene is the flattened model consumed by an emitter.
type Scene struct {
	Variant  Variant
	Meshes   []Mesh
	Nodes    []Node
	Bones    []Bone
	Textures []Texture
	Material Material
}

// VertexCount returns the total number of vertices across all meshes.
func (s *Scene) VertexCount() int {
	total := 0
	for _, m := range s.Meshes {
		total += len(m.Vertices)
	}
	return total
}

// PolygonCount returns the total number of polygons across all meshes.
func (s *Scene) PolygonCount() int {
	total := 0
	for _, m := range s.Meshes {
		total += len(m.Polygons)
	}
	return total
}
