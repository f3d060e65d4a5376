package grf

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"os"
	"strings"
)

// File is one entry to store in a new archive.
type File struct {
	Name string
	Data []byte
}

// WriteFile creates a version 0x200 archive at path holding files, each
// zlib-compressed. Names are stored with backslash separators.
func WriteFile(path string, files []File) error {
	var body, table bytes.Buffer
	for _, f := range files {
		compressed, err := deflate(f.Data)
		if err != nil {
			return fmt.Errorf("compressing %s: %w", f.Name, err)
		}
		aligned := (len(compressed) + 7) &^ 7

		offset := uint32(body.Len())
		body.Write(compressed)
		body.Write(make([]byte, aligned-len(compressed)))

		table.WriteString(strings.ReplaceAll(f.Name, "/", "\\"))
		table.WriteByte(0)
		var entry [entryTailSize]byte
		binary.LittleEndian.PutUint32(entry[0:], uint32(len(compressed)))
		binary.LittleEndian.PutUint32(entry[4:], uint32(aligned))
		binary.LittleEndian.PutUint32(entry[8:], uint32(len(f.Data)))
		entry[12] = flagFile
		binary.LittleEndian.PutUint32(entry[13:], offset)
		table.Write(entry[:])
	}

	header := Header{
		TableOffset: uint32(body.Len()),
		FileCount:   uint32(len(files)) + 7,
		Version:     0x200,
	}
	copy(header.Magic[:], grfMagic)

	packed, err := deflate(table.Bytes())
	if err != nil {
		return fmt.Errorf("compressing file table: %w", err)
	}

	var out bytes.Buffer
	binary.Write(&out, binary.LittleEndian, header)
	out.Write(body.Bytes())
	binary.Write(&out, binary.LittleEndian, [2]uint32{uint32(len(packed)), uint32(table.Len())})
	out.Write(packed)

	return os.WriteFile(path, out.Bytes(), 0644)
}

func deflate(p []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(p); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
