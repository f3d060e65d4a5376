// Package source defines the host-side scene that the flattener consumes,
// and loaders that produce it from files on disk.
package source

import (
	"github.com/Faultbox/sceneflat/pkg/math"
)

// Scene is the host document being exported.
type Scene interface {
	// Images returns every referenced image in enumeration order.
	Images() []Image
	// Meshes returns every mesh datablock in enumeration order.
	Meshes() []Mesh
	// Objects returns every transform node in enumeration order.
	Objects() []Object
}

// Image is a texture reference. Pixels are never loaded.
type Image struct {
	Filepath string
}

// Corner is one polygon corner's position and normal.
type Corner struct {
	Position [3]float32
	Normal   [3]float32
}

// Polygon names a contiguous run of corners.
type Polygon struct {
	Start int
	Count int
}

// Mesh is a host mesh with corner-indexed attribute streams.
type Mesh struct {
	Name string
	// Owner is the object whose node index tags vertices in the binary
	// variant. Empty means the object with the same name as the mesh.
	Owner    string
	Corners  []Corner
	UVs      [][2]float32 // active UV channel, one per corner; empty = no layer
	Polygons []Polygon
}

// OwnerName returns the object that owns the mesh.
func (m *Mesh) OwnerName() string {
	if m.Owner != "" {
		return m.Owner
	}
	return m.Name
}

// Object is a transform node.
type Object struct {
	Name   string
	Parent string    // empty for roots
	Mesh   string    // mesh datablock name; empty means the mesh named Name, if any
	Matrix math.Mat4 // local transform, column-major
}

// Static is an in-memory Scene.
type Static struct {
	ImageList  []Image
	MeshList   []Mesh
	ObjectList []Object
}

// Images implements Scene.
func (s *Static) Images() []Image { return s.ImageList }

// Meshes implements Scene.
func (s *Static) Meshes() []Mesh { return s.MeshList }

// Objects implements Scene.
func (s *Static) Objects() []Object { return s.ObjectList }
