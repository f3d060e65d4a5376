// Package formats provides parsers for the model files sceneflat reads and
// the binary scene files it writes.
package formats

import (
	"errors"
	"fmt"
)

// RSM format errors.
var (
	ErrInvalidRSMMagic       = errors.New("invalid RSM magic: expected 'GRSM'")
	ErrUnsupportedRSMVersion = errors.New("unsupported RSM version")
	ErrTruncatedRSMData      = errors.New("truncated RSM data")
	ErrInvalidNodeCount      = errors.New("invalid RSM node count")
	ErrInvalidRSMCount       = errors.New("invalid RSM element count")
)

const (
	rsmNameLength = 40
	rsmMaxNodes   = 10000
	rsmMaxItems   = 100000
)

// RSMVersion represents the RSM file version.
type RSMVersion struct {
	Major uint8
	Minor uint8
}

// String returns the version as "Major.Minor".
func (v RSMVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// AtLeast returns true if version is >= major.minor.
func (v RSMVersion) AtLeast(major, minor uint8) bool {
	return v.Major > major || (v.Major == major && v.Minor >= minor)
}

// RSMTexCoord is a texture coordinate; vertex color is read but unused.
type RSMTexCoord struct {
	Color [4]uint8
	U, V  float32
}

// RSMFace is a triangle referencing node-local vertex and texcoord arrays.
type RSMFace struct {
	VertexIDs   [3]uint16
	TexCoordIDs [3]uint16
	TextureID   uint16
	TwoSide     int32
}

// RSMNode is one node of the model hierarchy with its mesh.
type RSMNode struct {
	Name       string
	Parent     string
	TextureIDs []int32

	Matrix   [9]float32 // 3x3, applied to vertices only
	Offset   [3]float32 // applied to vertices only
	Position [3]float32
	RotAngle float32
	RotAxis  [3]float32
	Scale    [3]float32

	Vertices  [][3]float32
	TexCoords []RSMTexCoord
	Faces     []RSMFace

	// KeyframeCount counts skipped animation keys.
	KeyframeCount int
}

// RSM is a parsed Ragnarok Online model.
type RSM struct {
	Version  RSMVersion
	Textures []string
	RootNode string
	Nodes    []RSMNode
}

// ParseRSM parses RSM data from a byte slice. Versions 1.1 through 1.5 are
// supported.
func ParseRSM(data []byte) (*RSM, error) {
	if len(data) < 6 {
		return nil, ErrTruncatedRSMData
	}
	if string(data[:4]) != "GRSM" {
		return nil, ErrInvalidRSMMagic
	}

	r := newBinReader(data)
	r.skip(4)

	rsm := &RSM{Version: RSMVersion{Major: r.u8(), Minor: r.u8()}}
	if rsm.Version.Major != 1 || rsm.Version.Minor < 1 || rsm.Version.Minor > 5 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedRSMVersion, rsm.Version)
	}

	// animation length, shading type
	r.skip(8)
	if rsm.Version.AtLeast(1, 4) {
		r.skip(1) // alpha
	}
	r.skip(16) // reserved

	textureCount, err := readCount(r, rsmMaxItems)
	if err != nil {
		return nil, err
	}
	rsm.Textures = make([]string, textureCount)
	for i := range rsm.Textures {
		rsm.Textures[i] = r.str(rsmNameLength)
	}

	rsm.RootNode = r.str(rsmNameLength)

	nodeCount := r.i32()
	if r.err != nil {
		return nil, rsmError(r)
	}
	if nodeCount < 0 || nodeCount > rsmMaxNodes {
		return nil, fmt.Errorf("%w: %d", ErrInvalidNodeCount, nodeCount)
	}

	rsm.Nodes = make([]RSMNode, nodeCount)
	for i := range rsm.Nodes {
		if err := parseRSMNode(r, rsm.Version, &rsm.Nodes[i]); err != nil {
			return nil, fmt.Errorf("parsing node %d: %w", i, err)
		}
	}

	return rsm, nil
}

func parseRSMNode(r *binReader, version RSMVersion, node *RSMNode) error {
	node.Name = r.str(rsmNameLength)
	node.Parent = r.str(rsmNameLength)

	n, err := readCount(r, rsmMaxItems)
	if err != nil {
		return err
	}
	node.TextureIDs = make([]int32, n)
	r.read(node.TextureIDs)

	r.read(&node.Matrix)
	r.read(&node.Offset)
	r.read(&node.Position)
	r.read(&node.RotAngle)
	r.read(&node.RotAxis)
	r.read(&node.Scale)

	if n, err = readCount(r, rsmMaxItems); err != nil {
		return err
	}
	node.Vertices = make([][3]float32, n)
	r.read(node.Vertices)

	if n, err = readCount(r, rsmMaxItems); err != nil {
		return err
	}
	node.TexCoords = make([]RSMTexCoord, n)
	for i := range node.TexCoords {
		tc := &node.TexCoords[i]
		if version.AtLeast(1, 2) {
			r.read(&tc.Color)
		} else {
			tc.Color = [4]uint8{255, 255, 255, 255}
		}
		r.read(&tc.U)
		r.read(&tc.V)
	}

	if n, err = readCount(r, rsmMaxItems); err != nil {
		return err
	}
	node.Faces = make([]RSMFace, n)
	for i := range node.Faces {
		face := &node.Faces[i]
		r.read(&face.VertexIDs)
		r.read(&face.TexCoordIDs)
		face.TextureID = r.u16()
		r.skip(2) // padding
		face.TwoSide = r.i32()
		if version.AtLeast(1, 2) {
			r.skip(4) // smoothing group
		}
	}

	// Position keys (v < 1.5): frame + xyz. Rotation keys: frame + quaternion.
	// Scale keys (v >= 1.5): frame + xyz.
	if !version.AtLeast(1, 5) {
		if err := skipKeys(r, node, 16); err != nil {
			return err
		}
	}
	if err := skipKeys(r, node, 20); err != nil {
		return err
	}
	if version.AtLeast(1, 5) {
		if err := skipKeys(r, node, 16); err != nil {
			return err
		}
	}

	if r.err != nil {
		return rsmError(r)
	}
	return nil
}

func skipKeys(r *binReader, node *RSMNode, size int64) error {
	n, err := readCount(r, rsmMaxItems)
	if err != nil {
		return err
	}
	r.skip(int64(n) * size)
	node.KeyframeCount += n
	return nil
}

// readCount reads an int32 element count and bounds it.
func readCount(r *binReader, limit int32) (int, error) {
	n := r.i32()
	if r.err != nil {
		return 0, rsmError(r)
	}
	if n < 0 || n > limit {
		return 0, fmt.Errorf("%w: %d", ErrInvalidRSMCount, n)
	}
	return int(n), nil
}

func rsmError(r *binReader) error {
	if r.truncated() {
		return ErrTruncatedRSMData
	}
	return r.err
}

// GetNodeByName returns a node by its name, or nil if not found.
func (rsm *RSM) GetNodeByName(name string) *RSMNode {
	for i := range rsm.Nodes {
		if rsm.Nodes[i].Name == name {
			return &rsm.Nodes[i]
		}
	}
	return nil
}

// GetTotalFaceCount returns the total number of faces across all nodes.
func (rsm *RSM) GetTotalFaceCount() int {
	total := 0
	for _, node := range rsm.Nodes {
		total += len(node.Faces)
	}
	return total
}

// HasAnimation returns true if any node carried animation keyframes.
func (rsm *RSM) HasAnimation() bool {
	for _, node := range rsm.Nodes {
		if node.KeyframeCount > 0 {
			return true
		}
	}
	return false
}
