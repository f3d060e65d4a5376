package export

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/Faultbox/sceneflat/internal/scene"
	"github.com/Faultbox/sceneflat/pkg/formats"
)

// BinaryEmitter writes the SCB format read back by formats.ParseSCB.
type BinaryEmitter struct{}

// Emit implements Emitter.
func (BinaryEmitter) Emit(w io.Writer, s *scene.Scene) error {
	if err := Validate(s); err != nil {
		return err
	}

	bw := &binWriter{w: w}

	bw.u32(formats.SCBMagic)
	bw.u32(formats.SCBVersion)
	bw.pad(formats.SCBHeaderSize - 8)

	bw.u32(uint32(len(s.Nodes)))
	for _, n := range s.Nodes {
		bw.name(n.Name)
		bw.u16(index16(n.Parent))
		bw.u16(index16(n.Mesh))
		bw.f32s(n.Matrix[:])
	}

	bw.u32(uint32(len(s.Bones)))
	for _, b := range s.Bones {
		bw.name(b.Name)
		bw.f32s(b.Offset[:])
	}

	bw.name(s.Material.Ambient)
	bw.name(s.Material.Diffuse)
	bw.name(s.Material.Specular)

	bw.u32(uint32(len(s.Meshes)))
	for _, m := range s.Meshes {
		bw.name(m.Name)

		bw.u32(uint32(len(m.Vertices)))
		for _, v := range m.Vertices {
			bw.f32s(v.Position[:])
			bw.f32s(v.Normal[:])
			bw.f32s(v.UV[:])
			bw.u16(index16(v.Node))
			bw.pad(2)
		}

		bw.u32(uint32(len(m.Polygons)))
		for _, p := range m.Polygons {
			for _, idx := range p.Indices {
				bw.u16(uint16(idx))
			}
			bw.u8(uint8(p.Count))
			bw.pad(1)
		}
	}

	bw.u32(formats.SCBTrailer)
	return bw.err
}

// binWriter writes little-endian values and keeps the first error.
type binWriter struct {
	w   io.Writer
	err error
	buf [formats.SCBNameLength]byte
}

func (b *binWriter) write(p []byte) {
	if b.err != nil {
		return
	}
	_, b.err = b.w.Write(p)
}

func (b *binWriter) u8(v uint8) {
	b.buf[0] = v
	b.write(b.buf[:1])
}

func (b *binWriter) u16(v uint16) {
	binary.LittleEndian.PutUint16(b.buf[:2], v)
	b.write(b.buf[:2])
}

func (b *binWriter) u32(v uint32) {
	binary.LittleEndian.PutUint32(b.buf[:4], v)
	b.write(b.buf[:4])
}

func (b *binWriter) f32s(vs []float32) {
	for _, v := range vs {
		b.u32(math.Float32bits(v))
	}
}

func (b *binWriter) pad(n int) {
	clear(b.buf[:n])
	b.write(b.buf[:n])
}

// name writes a NUL-padded fixed-width string. Validate guarantees it fits.
func (b *binWriter) name(s string) {
	clear(b.buf[:])
	copy(b.buf[:], s)
	b.write(b.buf[:])
}
