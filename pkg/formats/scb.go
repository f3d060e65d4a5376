package formats

import (
	"errors"
	"fmt"
	"os"
)

// SCB is the flat binary scene format written by sceneflat. All fields are
// little-endian; record sizes match the C structs of the header output.
const (
	SCBMagic      uint32 = 0x424E4353 // "SCNB"
	SCBTrailer    uint32 = 0x464F4553 // "SEOF"
	SCBVersion    uint32 = 1
	SCBNoIndex    uint16 = 0xFFFF
	SCBNameLength        = 64

	SCBHeaderSize   = 32
	SCBNodeSize     = SCBNameLength + 2 + 2 + 64
	SCBBoneSize     = SCBNameLength + 64
	SCBMaterialSize = 3 * SCBNameLength
	SCBVertexSize   = 8*4 + 2 + 2
	SCBPolygonSize  = 4*2 + 1 + 1
)

// SCB format errors.
var (
	ErrInvalidSCBMagic       = errors.New("invalid SCB magic: expected 'SCNB'")
	ErrUnsupportedSCBVersion = errors.New("unsupported SCB version")
	ErrTruncatedSCBData      = errors.New("truncated SCB data")
	ErrMissingSCBTrailer     = errors.New("missing SCB end-of-file sentinel")
	ErrTrailingSCBData       = errors.New("data after SCB end-of-file sentinel")
)

// SCBNode is one node record.
type SCBNode struct {
	Name   string
	Parent uint16
	Mesh   uint16
	Matrix [16]float32 // row-major
}

// SCBBone is one bone record.
type SCBBone struct {
	Name   string
	Offset [16]float32
}

// SCBMaterial names the three texture slots.
type SCBMaterial struct {
	Ambient  string
	Diffuse  string
	Specular string
}

// SCBVertex is one vertex record.
type SCBVertex struct {
	Position [3]float32
	Normal   [3]float32
	UV       [2]float32
	Node     uint16
}

// SCBPolygon is one polygon record; unused index slots are 0.
type SCBPolygon struct {
	Indices [4]uint16
	Count   uint8
}

// SCBMesh is one mesh record.
type SCBMesh struct {
	Name     string
	Vertices []SCBVertex
	Polygons []SCBPolygon
}

// SCB is a parsed binary scene.
type SCB struct {
	Version  uint32
	Nodes    []SCBNode
	Bones    []SCBBone
	Material SCBMaterial
	Meshes   []SCBMesh
}

// ParseSCB parses a binary scene. The magic, version and end-of-file
// sentinel are checked before the content is trusted.
func ParseSCB(data []byte) (*SCB, error) {
	if len(data) < SCBHeaderSize+4 {
		return nil, ErrTruncatedSCBData
	}

	r := newBinReader(data)
	var header [8]uint32
	r.read(&header)
	if header[0] != SCBMagic {
		return nil, ErrInvalidSCBMagic
	}
	if header[1] != SCBVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedSCBVersion, header[1])
	}

	scb := &SCB{Version: header[1]}

	n, err := scbCount(r, SCBNodeSize)
	if err != nil {
		return nil, fmt.Errorf("node block: %w", err)
	}
	scb.Nodes = make([]SCBNode, n)
	for i := range scb.Nodes {
		node := &scb.Nodes[i]
		node.Name = r.cstr(SCBNameLength)
		node.Parent = r.u16()
		node.Mesh = r.u16()
		r.read(&node.Matrix)
	}

	if n, err = scbCount(r, SCBBoneSize); err != nil {
		return nil, fmt.Errorf("bone block: %w", err)
	}
	scb.Bones = make([]SCBBone, n)
	for i := range scb.Bones {
		scb.Bones[i].Name = r.cstr(SCBNameLength)
		r.read(&scb.Bones[i].Offset)
	}

	scb.Material.Ambient = r.cstr(SCBNameLength)
	scb.Material.Diffuse = r.cstr(SCBNameLength)
	scb.Material.Specular = r.cstr(SCBNameLength)

	if n, err = scbCount(r, SCBNameLength+8); err != nil {
		return nil, fmt.Errorf("mesh block: %w", err)
	}
	scb.Meshes = make([]SCBMesh, n)
	for i := range scb.Meshes {
		if err := parseSCBMesh(r, &scb.Meshes[i]); err != nil {
			return nil, fmt.Errorf("mesh %d: %w", i, err)
		}
	}

	if r.err != nil {
		return nil, scbError(r)
	}
	if r.u32() != SCBTrailer || r.err != nil {
		return nil, ErrMissingSCBTrailer
	}
	if r.r.Len() != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrTrailingSCBData, r.r.Len())
	}

	return scb, nil
}

func parseSCBMesh(r *binReader, mesh *SCBMesh) error {
	mesh.Name = r.cstr(SCBNameLength)

	n, err := scbCount(r, SCBVertexSize)
	if err != nil {
		return err
	}
	mesh.Vertices = make([]SCBVertex, n)
	for i := range mesh.Vertices {
		v := &mesh.Vertices[i]
		r.read(&v.Position)
		r.read(&v.Normal)
		r.read(&v.UV)
		v.Node = r.u16()
		r.skip(2)
	}

	if n, err = scbCount(r, SCBPolygonSize); err != nil {
		return err
	}
	mesh.Polygons = make([]SCBPolygon, n)
	for i := range mesh.Polygons {
		p := &mesh.Polygons[i]
		r.read(&p.Indices)
		p.Count = r.u8()
		r.skip(1)
	}

	if r.err != nil {
		return scbError(r)
	}
	return nil
}

// scbCount reads a record count and checks the records can fit.
func scbCount(r *binReader, size int) (int, error) {
	n := r.u32()
	if r.err != nil {
		return 0, scbError(r)
	}
	if !r.fits(n, size) {
		return 0, fmt.Errorf("%w: %d records of %d bytes", ErrTruncatedSCBData, n, size)
	}
	return int(n), nil
}

func scbError(r *binReader) error {
	if r.truncated() {
		return ErrTruncatedSCBData
	}
	return r.err
}

// ParseSCBFile parses a binary scene from disk.
func ParseSCBFile(path string) (*SCB, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading SCB file: %w", err)
	}
	return ParseSCB(data)
}

// VertexCount returns the total number of vertices across all meshes.
func (s *SCB) VertexCount() int {
	total := 0
	for _, m := range s.Meshes {
		total += len(m.Vertices)
	}
	return total
}

// PolygonCount returns the total number of polygons across all meshes.
func (s *SCB) PolygonCount() int {
	total := 0
	for _, m := range s.Meshes {
		total += len(m.Polygons)
	}
	return total
}
