package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func TestParseRSM_MagicValidation(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{
			name:    "valid magic",
			data:    makeMinimalRSM(1, 5),
			wantErr: nil,
		},
		{
			name:    "invalid magic",
			data:    append([]byte("XXXX"), makeMinimalRSM(1, 5)[4:]...),
			wantErr: ErrInvalidRSMMagic,
		},
		{
			name:    "empty data",
			data:    []byte{},
			wantErr: ErrTruncatedRSMData,
		},
		{
			name:    "truncated data",
			data:    []byte{'G', 'R', 'S'},
			wantErr: ErrTruncatedRSMData,
		},
		{
			name:    "truncated after header",
			data:    makeMinimalRSM(1, 5)[:20],
			wantErr: ErrTruncatedRSMData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRSM(tt.data)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseRSM_VersionSupport(t *testing.T) {
	tests := []struct {
		name    string
		major   uint8
		minor   uint8
		wantErr bool
	}{
		{"v1.1", 1, 1, false},
		{"v1.2", 1, 2, false},
		{"v1.3", 1, 3, false},
		{"v1.4", 1, 4, false},
		{"v1.5", 1, 5, false},
		{"v1.0 unsupported", 1, 0, true},
		{"v2.2 unsupported", 2, 2, true},
		{"v0.1 unsupported", 0, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRSM(makeMinimalRSM(tt.major, tt.minor))
			if (err != nil) != tt.wantErr {
				t.Errorf("version %d.%d: got error=%v, wantErr=%v", tt.major, tt.minor, err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrUnsupportedRSMVersion) {
				t.Errorf("error = %v, want ErrUnsupportedRSMVersion", err)
			}
		})
	}
}

func TestRSMVersion_AtLeast(t *testing.T) {
	tests := []struct {
		version RSMVersion
		major   uint8
		minor   uint8
		want    bool
	}{
		{RSMVersion{1, 5}, 1, 5, true},
		{RSMVersion{1, 5}, 1, 4, true},
		{RSMVersion{1, 5}, 1, 6, false},
		{RSMVersion{1, 5}, 2, 0, false},
		{RSMVersion{2, 3}, 1, 9, true},
	}

	for _, tt := range tests {
		t.Run(tt.version.String(), func(t *testing.T) {
			if got := tt.version.AtLeast(tt.major, tt.minor); got != tt.want {
				t.Errorf("AtLeast(%d, %d) = %v, want %v", tt.major, tt.minor, got, tt.want)
			}
		})
	}
}

func TestParseRSM_Nodes(t *testing.T) {
	for _, minor := range []uint8{1, 2, 4, 5} {
		t.Run(RSMVersion{1, minor}.String(), func(t *testing.T) {
			rsm, err := ParseRSM(makeTriangleRSM(1, minor))
			if err != nil {
				t.Fatalf("ParseRSM failed: %v", err)
			}

			if len(rsm.Textures) != 1 || rsm.Textures[0] != "wall.bmp" {
				t.Errorf("Textures = %q, want [wall.bmp]", rsm.Textures)
			}
			if rsm.RootNode != "base" {
				t.Errorf("RootNode = %q, want base", rsm.RootNode)
			}
			if len(rsm.Nodes) != 2 {
				t.Fatalf("node count = %d, want 2", len(rsm.Nodes))
			}

			base := rsm.GetNodeByName("base")
			if base == nil {
				t.Fatal("GetNodeByName(base) returned nil")
			}
			if len(base.Vertices) != 3 || base.Vertices[1] != [3]float32{1, 0, 0} {
				t.Errorf("base vertices = %v", base.Vertices)
			}
			if len(base.TexCoords) != 3 || base.TexCoords[2].V != 1 {
				t.Errorf("base texcoords = %+v", base.TexCoords)
			}
			if len(base.Faces) != 1 || base.Faces[0].VertexIDs != [3]uint16{0, 1, 2} {
				t.Errorf("base faces = %+v", base.Faces)
			}
			if base.Scale != [3]float32{1, 1, 1} {
				t.Errorf("base scale = %v", base.Scale)
			}

			lid := rsm.GetNodeByName("lid")
			if lid == nil || lid.Parent != "base" {
				t.Fatalf("lid = %+v, want parent base", lid)
			}
			if lid.Position != [3]float32{0, 2, 0} {
				t.Errorf("lid position = %v", lid.Position)
			}
			if lid.KeyframeCount != 1 || !rsm.HasAnimation() {
				t.Errorf("lid keyframes = %d, want 1", lid.KeyframeCount)
			}

			if rsm.GetTotalFaceCount() != 1 {
				t.Errorf("GetTotalFaceCount() = %d, want 1", rsm.GetTotalFaceCount())
			}
		})
	}
}

func TestParseRSM_InvalidCounts(t *testing.T) {
	b := newRSMBuilder(1, 5)
	b.u32(0)       // textures
	b.name("root") // root node
	b.i32(-4)      // node count

	if _, err := ParseRSM(b.Bytes()); !errors.Is(err, ErrInvalidNodeCount) {
		t.Errorf("error = %v, want ErrInvalidNodeCount", err)
	}
}

func TestParseRSM_KoreanNames(t *testing.T) {
	b := newRSMBuilder(1, 5)
	b.u32(1)
	// "나무" in EUC-KR
	b.raw(fixed([]byte{0xB3, 0xAA, 0xB9, 0xAB}, rsmNameLength))
	b.name("")
	b.u32(0)

	rsm, err := ParseRSM(b.Bytes())
	if err != nil {
		t.Fatalf("ParseRSM failed: %v", err)
	}
	if rsm.Textures[0] != "나무" {
		t.Errorf("texture = %q, want 나무", rsm.Textures[0])
	}
}

// rsmBuilder assembles RSM fixtures field by field.
type rsmBuilder struct {
	bytes.Buffer
	major, minor uint8
}

func newRSMBuilder(major, minor uint8) *rsmBuilder {
	b := &rsmBuilder{major: major, minor: minor}
	b.WriteString("GRSM")
	b.WriteByte(major)
	b.WriteByte(minor)
	b.i32(0) // animation length
	b.i32(2) // shading
	if major > 1 || minor >= 4 {
		b.WriteByte(255) // alpha
	}
	b.raw(make([]byte, 16))
	return b
}

func (b *rsmBuilder) raw(p []byte) { b.Write(p) }
func (b *rsmBuilder) u32(v uint32) { binary.Write(b, binary.LittleEndian, v) }
func (b *rsmBuilder) i32(v int32) { binary.Write(b, binary.LittleEndian, v) }
func (b *rsmBuilder) f32(v ...float32) { binary.Write(b, binary.LittleEndian, v) }
func (b *rsmBuilder) name(s string) { b.raw(fixed([]byte(s), rsmNameLength)) }

func (b *rsmBuilder) node(name, parent string, position [3]float32, withTriangle bool, rotKeys int) {
	b.name(name)
	b.name(parent)
	b.u32(1) // texture ids
	b.i32(0)
	b.f32(1, 0, 0, 0, 1, 0, 0, 0, 1) // matrix
	b.f32(0, 0, 0)                   // offset
	b.f32(position[:]...)
	b.f32(0)       // rot angle
	b.f32(0, 1, 0) // rot axis
	b.f32(1, 1, 1) // scale

	if withTriangle {
		b.u32(3)
		b.f32(0, 0, 0, 1, 0, 0, 0, 1, 0)
		b.u32(3)
		for _, uv := range [][2]float32{{0, 0}, {1, 0}, {0, 1}} {
			if b.minor >= 2 {
				b.raw([]byte{255, 255, 255, 255})
			}
			b.f32(uv[0], uv[1])
		}
		b.u32(1)
		binary.Write(b, binary.LittleEndian, [3]uint16{0, 1, 2})
		binary.Write(b, binary.LittleEndian, [3]uint16{0, 1, 2})
		binary.Write(b, binary.LittleEndian, [2]uint16{0, 0}) // texture id, padding
		b.i32(0)                                               // two side
		if b.minor >= 2 {
			b.i32(0) // smoothing group
		}
	} else {
		b.u32(0)
		b.u32(0)
		b.u32(0)
	}

	if b.minor < 5 {
		b.u32(0) // position keys
	}
	b.u32(uint32(rotKeys))
	for i := 0; i < rotKeys; i++ {
		b.i32(int32(i))
		b.f32(0, 0, 0, 1)
	}
	if b.minor >= 5 {
		b.u32(0) // scale keys
	}
}

func makeMinimalRSM(major, minor uint8) []byte {
	b := newRSMBuilder(major, minor)
	b.u32(0)   // textures
	b.name("") // root node
	b.u32(0)   // nodes
	return b.Bytes()
}

func makeTriangleRSM(major, minor uint8) []byte {
	b := newRSMBuilder(major, minor)
	b.u32(1)
	b.name("wall.bmp")
	b.name("base")
	b.u32(2)
	b.node("base", "", [3]float32{}, true, 0)
	b.node("lid", "base", [3]float32{0, 2, 0}, false, 1)
	return b.Bytes()
}

func fixed(p []byte, n int) []byte {
	out := make([]byte, n)
	copy(out, p)
	return out
}
