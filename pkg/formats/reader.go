package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"

	"github.com/Faultbox/sceneflat/pkg/encoding"
)

// binReader reads little-endian fields and keeps the first error, so a
// parser can read a whole block and check once.
type binReader struct {
	r   *bytes.Reader
	err error
}

func newBinReader(data []byte) *binReader {
	return &binReader{r: bytes.NewReader(data)}
}

func (b *binReader) read(v any) {
	if b.err != nil {
		return
	}
	b.err = binary.Read(b.r, binary.LittleEndian, v)
}

func (b *binReader) u8() uint8 {
	var v uint8
	b.read(&v)
	return v
}

func (b *binReader) u16() uint16 {
	var v uint16
	b.read(&v)
	return v
}

func (b *binReader) u32() uint32 {
	var v uint32
	b.read(&v)
	return v
}

func (b *binReader) i32() int32 {
	var v int32
	b.read(&v)
	return v
}

func (b *binReader) skip(n int64) {
	if b.err != nil {
		return
	}
	if n > int64(b.r.Len()) {
		b.err = io.ErrUnexpectedEOF
		return
	}
	_, b.err = b.r.Seek(n, io.SeekCurrent)
}

// str reads a fixed-length, NUL-padded EUC-KR string as UTF-8.
func (b *binReader) str(length int) string {
	buf := make([]byte, length)
	if b.err != nil {
		return ""
	}
	if _, err := io.ReadFull(b.r, buf); err != nil {
		b.err = err
		return ""
	}
	return encoding.FixedStringToUTF8(buf)
}

// truncated reports whether the reader ran out of data.
func (b *binReader) truncated() bool {
	return errors.Is(b.err, io.EOF) || errors.Is(b.err, io.ErrUnexpectedEOF)
}

// cstr reads a fixed-length, NUL-padded UTF-8 string.
func (b *binReader) cstr(length int) string {
	buf := make([]byte, length)
	if b.err != nil {
		return ""
	}
	if _, err := io.ReadFull(b.r, buf); err != nil {
		b.err = err
		return ""
	}
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		buf = buf[:i]
	}
	return string(buf)
}

// fits reports whether n records of size bytes remain.
func (b *binReader) fits(n uint32, size int) bool {
	return int64(n)*int64(size) <= int64(b.r.Len())
}
