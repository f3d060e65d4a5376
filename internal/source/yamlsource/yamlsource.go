// Package yamlsource loads hand-written scene descriptions.
//
// A description lists images, objects and meshes:
//
//	images: [data/texture/wood.bmp]
//	objects:
//	  - name: table
//	    mesh: top
//	    translation: [0, 1, 0]
//	  - name: leg
//	    parent: table
//	    scale: [0.1, 1, 0.1]
//	meshes:
//	  - name: top
//	    vertices: [[0, 0, 0], [1, 0, 0], [1, 0, 1], [0, 0, 1]]
//	    uvs: [[0, 0], [1, 0], [1, 1], [0, 1]]
//	    polygons: [[0, 1, 2, 3]]
//
// Normals, uvs, rotation (x, y, z, w quaternion), scale and matrix (16
// column-major floats, overriding translation/rotation/scale) are optional.
// Polygons without normals get a flat face normal.
package yamlsource

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/sceneflat/internal/source"
	"github.com/Faultbox/sceneflat/pkg/math"
)

// Description errors.
var (
	ErrVertexIndex  = errors.New("polygon vertex index out of range")
	ErrStreamLength = errors.New("attribute count does not match vertex count")
	ErrMatrixLength = errors.New("matrix must have 16 elements")
)

func init() {
	source.Register(".yaml", Open)
	source.Register(".yml", Open)
}

// Document is the YAML scene description.
type Document struct {
	Images  []string `yaml:"images"`
	Objects []Object `yaml:"objects"`
	Meshes  []Mesh   `yaml:"meshes"`
}

// Object describes one transform node.
type Object struct {
	Name        string      `yaml:"name"`
	Parent      string      `yaml:"parent"`
	Mesh        string      `yaml:"mesh"`
	Translation [3]float32  `yaml:"translation"`
	Rotation    *[4]float64 `yaml:"rotation"`
	Scale       *[3]float32 `yaml:"scale"`
	Matrix      []float64   `yaml:"matrix"`
}

// Mesh describes one mesh as indexed vertices.
type Mesh struct {
	Name     string       `yaml:"name"`
	Owner    string       `yaml:"owner"`
	Vertices [][3]float32 `yaml:"vertices"`
	Normals  [][3]float32 `yaml:"normals"`
	UVs      [][2]float32 `yaml:"uvs"`
	Polygons [][]int      `yaml:"polygons"`
}

// Open reads the description at path, from disk or an archive.
func Open(path string, opts source.OpenOptions) (source.Scene, error) {
	data, err := source.ReadFile(path, opts)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a description. Unknown fields are rejected.
func Parse(data []byte) (*source.Static, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parsing scene description: %w", err)
	}
	return doc.Scene()
}

// Scene converts the description into a source scene.
func (d *Document) Scene() (*source.Static, error) {
	s := &source.Static{}

	for _, img := range d.Images {
		s.ImageList = append(s.ImageList, source.Image{Filepath: img})
	}

	for _, o := range d.Objects {
		m, err := o.matrix()
		if err != nil {
			return nil, fmt.Errorf("object %q: %w", o.Name, err)
		}
		s.ObjectList = append(s.ObjectList, source.Object{
			Name:   o.Name,
			Parent: o.Parent,
			Mesh:   o.Mesh,
			Matrix: m,
		})
	}

	for _, m := range d.Meshes {
		mesh, err := m.expand()
		if err != nil {
			return nil, fmt.Errorf("mesh %q: %w", m.Name, err)
		}
		s.MeshList = append(s.MeshList, mesh)
	}

	return s, nil
}

func (o *Object) matrix() (math.Mat4, error) {
	if o.Matrix != nil {
		if len(o.Matrix) != 16 {
			return math.Mat4{}, fmt.Errorf("%w: got %d", ErrMatrixLength, len(o.Matrix))
		}
		var m [16]float64
		copy(m[:], o.Matrix)
		return math.FromFloat64(m), nil
	}

	rotation := math.QuatIdentity()
	if o.Rotation != nil {
		rotation = math.QuatFromXYZW(*o.Rotation)
	}
	scale := [3]float32{1, 1, 1}
	if o.Scale != nil {
		scale = *o.Scale
	}
	return math.TRS(o.Translation, rotation, scale), nil
}

// expand turns indexed polygons into per-corner streams.
func (m *Mesh) expand() (source.Mesh, error) {
	mesh := source.Mesh{Name: m.Name, Owner: m.Owner}

	if len(m.Normals) > 0 && len(m.Normals) != len(m.Vertices) {
		return mesh, fmt.Errorf("normals: %w (%d, %d)", ErrStreamLength, len(m.Normals), len(m.Vertices))
	}
	if len(m.UVs) > 0 && len(m.UVs) != len(m.Vertices) {
		return mesh, fmt.Errorf("uvs: %w (%d, %d)", ErrStreamLength, len(m.UVs), len(m.Vertices))
	}

	for pi, poly := range m.Polygons {
		for _, vi := range poly {
			if vi < 0 || vi >= len(m.Vertices) {
				return mesh, fmt.Errorf("polygon %d: %w: %d", pi, ErrVertexIndex, vi)
			}
		}

		// Polygon arity is checked when the mesh is flattened.
		var flat [3]float32
		if len(poly) >= 3 {
			flat, _ = math.FaceNormal(m.Vertices[poly[0]], m.Vertices[poly[1]], m.Vertices[poly[2]])
		}

		mesh.Polygons = append(mesh.Polygons, source.Polygon{Start: len(mesh.Corners), Count: len(poly)})
		for _, vi := range poly {
			c := source.Corner{Position: m.Vertices[vi], Normal: flat}
			if len(m.Normals) > 0 {
				c.Normal = m.Normals[vi]
			}
			mesh.Corners = append(mesh.Corners, c)
			if len(m.UVs) > 0 {
				mesh.UVs = append(mesh.UVs, m.UVs[vi])
			}
		}
	}

	return mesh, nil
}
