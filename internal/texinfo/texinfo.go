// Package texinfo reports the format and size of referenced texture files
// without decoding their pixels.
package texinfo

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
	"golang.org/x/image/webp"

	"github.com/Faultbox/sceneflat/internal/assets"
)

// Texture errors.
var (
	ErrNotFound    = errors.New("texture not found")
	ErrUnsupported = errors.New("unsupported texture format")
)

type decoder struct {
	format string
	config func(io.Reader) (image.Config, error)
}

// TGA has no magic number, so decoders are chosen by extension.
var decoders = map[string]decoder{
	".bmp":  {"bmp", bmp.DecodeConfig},
	".png":  {"png", png.DecodeConfig},
	".jpg":  {"jpeg", jpeg.DecodeConfig},
	".jpeg": {"jpeg", jpeg.DecodeConfig},
	".gif":  {"gif", gif.DecodeConfig},
	".tga":  {"tga", tga.DecodeConfig},
	".webp": {"webp", webp.DecodeConfig},
}

// Supported reports whether path has a known texture extension.
func Supported(path string) bool {
	_, ok := decoders[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Info describes one texture file.
type Info struct {
	Path   string
	Format string // decoder name: bmp, png, jpeg, gif, tga or webp
	Width  int
	Height int
	// Archive is the GRF the texture was read from, empty for disk.
	Archive string
}

// Options controls where textures are looked up.
type Options struct {
	// BaseDir resolves relative paths on disk.
	BaseDir string
	// Assets is searched after the disk. Nil means disk only.
	Assets *assets.Manager
}

// Probe decodes the header of the texture at path.
func Probe(path string, opts Options) (Info, error) {
	info := Info{Path: path}
	dec, ok := decoders[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return info, fmt.Errorf("%w: %s", ErrUnsupported, path)
	}

	diskPath := path
	if !filepath.IsAbs(diskPath) && opts.BaseDir != "" {
		diskPath = filepath.Join(opts.BaseDir, diskPath)
	}
	f, err := os.Open(diskPath)
	if err == nil {
		defer f.Close()
		return decode(info, dec, f)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return info, err
	}

	data, err := opts.Assets.Load(path)
	if errors.Is(err, assets.ErrNotFound) {
		return info, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return info, err
	}
	info.Archive, _ = opts.Assets.Locate(path)
	return decode(info, dec, bytes.NewReader(data))
}

func decode(info Info, dec decoder, r io.Reader) (Info, error) {
	cfg, err := dec.config(r)
	if err != nil {
		return info, fmt.Errorf("decoding %s: %w", info.Path, err)
	}
	info.Format = dec.format
	info.Width = cfg.Width
	info.Height = cfg.Height
	return info, nil
}
