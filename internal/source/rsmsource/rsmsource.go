// Package rsmsource loads Ragnarok Online RSM models as source scenes.
// Each RSM node becomes one object and, when it has faces, one mesh of the
// same name.
package rsmsource

import (
	"path"
	"strings"

	"github.com/Faultbox/sceneflat/internal/source"
	"github.com/Faultbox/sceneflat/pkg/formats"
	"github.com/Faultbox/sceneflat/pkg/math"
)

// TextureDir is the archive directory RSM texture names are relative to.
const TextureDir = "data/texture"

func init() {
	source.Register(".rsm", Open)
}

// Open reads and converts the RSM model at path. The model may live on
// disk or inside one of the archives in opts.
func Open(path string, opts source.OpenOptions) (source.Scene, error) {
	data, err := source.ReadFile(path, opts)
	if err != nil {
		return nil, err
	}
	rsm, err := formats.ParseRSM(data)
	if err != nil {
		return nil, err
	}
	return Convert(rsm), nil
}

// Convert builds a scene from a parsed model.
func Convert(rsm *formats.RSM) *source.Static {
	s := &source.Static{
		ImageList: make([]source.Image, 0, len(rsm.Textures)),
	}
	for _, tex := range rsm.Textures {
		s.ImageList = append(s.ImageList, source.Image{Filepath: TexturePath(tex)})
	}

	for i := range rsm.Nodes {
		node := &rsm.Nodes[i]
		obj := source.Object{
			Name:   node.Name,
			Parent: parentName(rsm, node),
			Matrix: NodeMatrix(node),
		}
		if mesh, ok := buildMesh(node); ok {
			obj.Mesh = mesh.Name
			s.MeshList = append(s.MeshList, mesh)
		}
		s.ObjectList = append(s.ObjectList, obj)
	}
	return s
}

// TexturePath maps an RSM texture name to its archive path.
func TexturePath(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	return path.Join(TextureDir, name)
}

// NodeMatrix returns the transform children inherit:
// Position * Rotation * Scale.
func NodeMatrix(node *formats.RSMNode) math.Mat4 {
	m := math.Translate(node.Position[0], node.Position[1], node.Position[2])
	if node.RotAngle != 0 {
		m = m.Mul(math.RotateAxis(node.RotAxis, node.RotAngle))
	}
	return m.Mul(math.Scale(node.Scale[0], node.Scale[1], node.Scale[2]))
}

// VertexMatrix returns the node's vertex-only transform, Offset * Mat3,
// which is not inherited by children.
func VertexMatrix(node *formats.RSMNode) math.Mat4 {
	return math.Translate(node.Offset[0], node.Offset[1], node.Offset[2]).
		Mul(math.FromMat3x3(node.Matrix))
}

func parentName(rsm *formats.RSM, node *formats.RSMNode) string {
	if node.Parent == "" || node.Parent == node.Name {
		return ""
	}
	if rsm.GetNodeByName(node.Parent) == nil {
		return ""
	}
	return node.Parent
}

// buildMesh expands every face into three corners with a flat normal.
// Faces with out of range vertex ids or zero area are skipped; two-sided
// faces also get a reversed back face.
func buildMesh(node *formats.RSMNode) (source.Mesh, bool) {
	mesh := source.Mesh{Name: node.Name}
	vertexMatrix := VertexMatrix(node)

	addFace := func(pos [3][3]float32, uv [3][2]float32) bool {
		normal, ok := math.FaceNormal(pos[0], pos[1], pos[2])
		if !ok {
			return false
		}
		mesh.Polygons = append(mesh.Polygons, source.Polygon{Start: len(mesh.Corners), Count: 3})
		for j := 0; j < 3; j++ {
			mesh.Corners = append(mesh.Corners, source.Corner{Position: pos[j], Normal: normal})
			mesh.UVs = append(mesh.UVs, uv[j])
		}
		return true
	}

face:
	for _, f := range node.Faces {
		var pos [3][3]float32
		var uv [3][2]float32
		for j, vid := range f.VertexIDs {
			if int(vid) >= len(node.Vertices) {
				continue face
			}
			pos[j] = vertexMatrix.TransformPoint(node.Vertices[vid])
			if tid := int(f.TexCoordIDs[j]); tid < len(node.TexCoords) {
				uv[j] = [2]float32{node.TexCoords[tid].U, node.TexCoords[tid].V}
			}
		}

		if !addFace(pos, uv) {
			continue
		}
		if f.TwoSide != 0 {
			addFace(
				[3][3]float32{pos[2], pos[1], pos[0]},
				[3][2]float32{uv[2], uv[1], uv[0]},
			)
		}
	}

	return mesh, len(mesh.Polygons) > 0
}
