// Package gltfsource loads glTF 2.0 documents (.gltf and .glb) as source
// scenes.
package gltfsource

import (
	"errors"
	"fmt"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/sceneflat/internal/source"
	"github.com/Faultbox/sceneflat/pkg/math"
)

// glTF conversion errors.
var (
	ErrUnsupportedPrimitive = errors.New("unsupported primitive mode")
	ErrMissingPositions     = errors.New("primitive has no POSITION attribute")
	ErrBadIndex             = errors.New("primitive index out of range")
)

var identity = [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

func init() {
	source.Register(".gltf", Open)
	source.Register(".glb", Open)
}

// Open reads the glTF document at path. Archives are not searched: buffers
// resolve relative to the document on disk.
func Open(path string, _ source.OpenOptions) (source.Scene, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, err
	}
	return Convert(doc)
}

// Convert builds a scene from a decoded document. Every node becomes an
// object; every mesh becomes one source mesh holding the triangles of all
// its primitives, owned by the first node that references it.
func Convert(doc *gltf.Document) (*source.Static, error) {
	s := &source.Static{}

	for i, img := range doc.Images {
		s.ImageList = append(s.ImageList, source.Image{Filepath: imagePath(i, img)})
	}

	nodeNames := make([]string, len(doc.Nodes))
	for i, n := range doc.Nodes {
		nodeNames[i] = nameOr(n.Name, "node", i)
	}
	meshNames := make([]string, len(doc.Meshes))
	for i, m := range doc.Meshes {
		meshNames[i] = nameOr(m.Name, "mesh", i)
	}

	parents := make([]string, len(doc.Nodes))
	for i, n := range doc.Nodes {
		for _, child := range n.Children {
			if child < 0 || child >= len(doc.Nodes) {
				return nil, fmt.Errorf("node %q: child %d: %w", nodeNames[i], child, ErrBadIndex)
			}
			parents[child] = nodeNames[i]
		}
	}

	owners := make([]string, len(doc.Meshes))
	for i, n := range doc.Nodes {
		obj := source.Object{
			Name:   nodeNames[i],
			Parent: parents[i],
			Matrix: nodeMatrix(n),
		}
		if n.Mesh != nil {
			mi := *n.Mesh
			if mi < 0 || mi >= len(doc.Meshes) {
				return nil, fmt.Errorf("node %q: mesh %d: %w", obj.Name, mi, ErrBadIndex)
			}
			obj.Mesh = meshNames[mi]
			if owners[mi] == "" {
				owners[mi] = obj.Name
			}
		}
		s.ObjectList = append(s.ObjectList, obj)
	}

	for i, m := range doc.Meshes {
		mesh, err := convertMesh(doc, m)
		if err != nil {
			return nil, fmt.Errorf("mesh %q: %w", meshNames[i], err)
		}
		mesh.Name = meshNames[i]
		mesh.Owner = owners[i]
		s.MeshList = append(s.MeshList, mesh)
	}

	return s, nil
}

func nodeMatrix(n *gltf.Node) math.Mat4 {
	if m := n.MatrixOrDefault(); m != identity {
		return math.FromFloat64(m)
	}
	t := n.TranslationOrDefault()
	s := n.ScaleOrDefault()
	return math.TRS(
		[3]float32{float32(t[0]), float32(t[1]), float32(t[2])},
		math.QuatFromXYZW(n.RotationOrDefault()),
		[3]float32{float32(s[0]), float32(s[1]), float32(s[2])},
	)
}

func convertMesh(doc *gltf.Document, m *gltf.Mesh) (source.Mesh, error) {
	var mesh source.Mesh
	hasUVs := false

	for pi, p := range m.Primitives {
		if p.Mode != gltf.PrimitiveTriangles {
			return mesh, fmt.Errorf("primitive %d: %w: %v", pi, ErrUnsupportedPrimitive, p.Mode)
		}
		prim, err := readPrimitive(doc, p)
		if err != nil {
			return mesh, fmt.Errorf("primitive %d: %w", pi, err)
		}
		hasUVs = hasUVs || prim.uvs != nil

		for t := 0; t+2 < len(prim.indices); t += 3 {
			tri := [3]uint32{prim.indices[t], prim.indices[t+1], prim.indices[t+2]}
			for _, idx := range tri {
				if int(idx) >= len(prim.positions) {
					return mesh, fmt.Errorf("primitive %d: vertex %d: %w", pi, idx, ErrBadIndex)
				}
			}

			var normal [3]float32
			if prim.normals == nil {
				normal, _ = math.FaceNormal(prim.positions[tri[0]], prim.positions[tri[1]], prim.positions[tri[2]])
			}

			mesh.Polygons = append(mesh.Polygons, source.Polygon{Start: len(mesh.Corners), Count: 3})
			for _, idx := range tri {
				c := source.Corner{Position: prim.positions[idx], Normal: normal}
				if prim.normals != nil && int(idx) < len(prim.normals) {
					c.Normal = prim.normals[idx]
				}
				mesh.Corners = append(mesh.Corners, c)

				var uv [2]float32
				if int(idx) < len(prim.uvs) {
					uv = prim.uvs[idx]
				}
				mesh.UVs = append(mesh.UVs, uv)
			}
		}
	}

	if !hasUVs {
		mesh.UVs = nil
	}
	return mesh, nil
}

type primitive struct {
	positions [][3]float32
	normals   [][3]float32
	uvs       [][2]float32
	indices   []uint32
}

func readPrimitive(doc *gltf.Document, p *gltf.Primitive) (*primitive, error) {
	posIdx, ok := p.Attributes[gltf.POSITION]
	if !ok {
		return nil, ErrMissingPositions
	}
	acr, err := accessor(doc, posIdx)
	if err != nil {
		return nil, err
	}

	var prim primitive
	if prim.positions, err = modeler.ReadPosition(doc, acr, nil); err != nil {
		return nil, fmt.Errorf("reading positions: %w", err)
	}

	if idx, ok := p.Attributes[gltf.NORMAL]; ok {
		if acr, err = accessor(doc, idx); err != nil {
			return nil, err
		}
		if prim.normals, err = modeler.ReadNormal(doc, acr, nil); err != nil {
			return nil, fmt.Errorf("reading normals: %w", err)
		}
	}

	if idx, ok := p.Attributes[gltf.TEXCOORD_0]; ok {
		if acr, err = accessor(doc, idx); err != nil {
			return nil, err
		}
		if prim.uvs, err = modeler.ReadTextureCoord(doc, acr, nil); err != nil {
			return nil, fmt.Errorf("reading uvs: %w", err)
		}
	}

	if p.Indices == nil {
		prim.indices = make([]uint32, len(prim.positions))
		for i := range prim.indices {
			prim.indices[i] = uint32(i)
		}
		return &prim, nil
	}
	if acr, err = accessor(doc, *p.Indices); err != nil {
		return nil, err
	}
	if prim.indices, err = modeler.ReadIndices(doc, acr, nil); err != nil {
		return nil, fmt.Errorf("reading indices: %w", err)
	}
	return &prim, nil
}

func accessor(doc *gltf.Document, i int) (*gltf.Accessor, error) {
	if i < 0 || i >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d: %w", i, ErrBadIndex)
	}
	return doc.Accessors[i], nil
}

// imagePath returns the image URI, or a name for images embedded in a
// buffer view or data URI.
func imagePath(i int, img *gltf.Image) string {
	if img.URI != "" && !strings.HasPrefix(img.URI, "data:") {
		return img.URI
	}
	return nameOr(img.Name, "image", i)
}

func nameOr(name, kind string, i int) string {
	if name != "" {
		return name
	}
	return fmt.Sprintf("%s_%d", kind, i)
}
