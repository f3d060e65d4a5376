// Package export renders a flattened scene as a C header or an SCB binary
// and writes it to disk.
package export

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/Faultbox/sceneflat/internal/scene"
	"github.com/Faultbox/sceneflat/pkg/formats"
)

// Export errors.
var (
	ErrNameTooLong   = errors.New("name exceeds 63 bytes")
	ErrIndexOverflow = errors.New("index does not fit in 16 bits")
	ErrUnknownFormat = errors.New("unknown export format")
)

// maxIndex is the largest storable index; 0xFFFF means none.
const maxIndex = int(formats.SCBNoIndex) - 1

// Emitter renders a flattened scene.
type Emitter interface {
	Emit(w io.Writer, s *scene.Scene) error
}

// Format names an output format.
type Format string

// Supported formats.
const (
	FormatHeader Format = "header"
	FormatBinary Format = "binary"
)

// ParseFormat validates a format name. Empty means FormatHeader.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(name)); f {
	case "":
		return FormatHeader, nil
	case FormatHeader, FormatBinary:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// FormatForPath picks a format from the output extension: .scb and .bin
// are binary, everything else is a header.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".scb", ".bin":
		return FormatBinary
	default:
		return FormatHeader
	}
}

// Variant returns the flattening variant the format consumes.
func (f Format) Variant() scene.Variant {
	if f == FormatBinary {
		return scene.VariantBinary
	}
	return scene.VariantText
}

// NewEmitter returns the emitter for f writing to path.
func NewEmitter(f Format, path string) (Emitter, error) {
	switch f {
	case FormatHeader:
		return &TextEmitter{Guard: GuardFromPath(path)}, nil
	case FormatBinary:
		return BinaryEmitter{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// Validate checks that every name and index in s fits the fixed-width
// fields shared by both formats.
func Validate(s *scene.Scene) error {
	if len(s.Nodes) > maxIndex+1 {
		return fmt.Errorf("%w: %d nodes", ErrIndexOverflow, len(s.Nodes))
	}
	if len(s.Meshes) > maxIndex+1 {
		return fmt.Errorf("%w: %d meshes", ErrIndexOverflow, len(s.Meshes))
	}
	if len(s.Textures) > maxIndex+1 {
		return fmt.Errorf("%w: %d textures", ErrIndexOverflow, len(s.Textures))
	}

	for _, n := range s.Nodes {
		if err := checkName("node", n.Name); err != nil {
			return err
		}
	}
	for _, b := range s.Bones {
		if err := checkName("bone", b.Name); err != nil {
			return err
		}
	}
	for _, t := range s.Textures {
		if err := checkName("texture", t.Path); err != nil {
			return err
		}
	}
	for _, m := range s.Meshes {
		if err := checkName("mesh", m.Name); err != nil {
			return err
		}
		if len(m.Vertices) > maxIndex+1 {
			return fmt.Errorf("mesh %q: %w: %d vertices", m.Name, ErrIndexOverflow, len(m.Vertices))
		}
	}
	return nil
}

func checkName(kind, name string) error {
	if len(name) >= formats.SCBNameLength {
		return fmt.Errorf("%s %q: %w", kind, name, ErrNameTooLong)
	}
	return nil
}

// index16 maps a table index to its stored form.
func index16(i int) uint16 {
	if i == scene.NoIndex {
		return formats.SCBNoIndex
	}
	return uint16(i)
}
