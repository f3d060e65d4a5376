package texinfo

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"

	"github.com/Faultbox/sceneflat/internal/assets"
	"github.com/Faultbox/sceneflat/pkg/grf"
)

func writeImage(t *testing.T, dir, name string, w, h int) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	var err error
	switch filepath.Ext(name) {
	case ".png":
		err = png.Encode(&buf, img)
	case ".bmp":
		err = bmp.Encode(&buf, img)
	case ".tga":
		err = tga.Encode(&buf, img)
	}
	if err != nil {
		t.Fatalf("encoding %s: %v", name, err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestProbe(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "wood.png", 64, 32)
	writeImage(t, dir, "stone.bmp", 16, 16)
	writeImage(t, dir, "grass.tga", 8, 4)

	opts := Options{BaseDir: dir}

	tests := []struct {
		path   string
		format string
		w, h   int
	}{
		{"wood.png", "png", 64, 32},
		{"stone.bmp", "bmp", 16, 16},
		{"grass.tga", "tga", 8, 4},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			info, err := Probe(tt.path, opts)
			if err != nil {
				t.Fatalf("Probe failed: %v", err)
			}
			if info.Format != tt.format || info.Width != tt.w || info.Height != tt.h {
				t.Errorf("got %s %dx%d, want %s %dx%d",
					info.Format, info.Width, info.Height, tt.format, tt.w, tt.h)
			}
			if info.Archive != "" {
				t.Errorf("Archive = %q, want disk", info.Archive)
			}
		})
	}
}

func TestProbeErrors(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "broken.png"), []byte("not a png"), 0644); err != nil {
		t.Fatal(err)
	}

	opts := Options{BaseDir: dir}

	if _, err := Probe("missing.png", opts); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing: error = %v, want ErrNotFound", err)
	}
	if _, err := Probe("model.psd", opts); !errors.Is(err, ErrUnsupported) {
		t.Errorf("psd: error = %v, want ErrUnsupported", err)
	}
	if _, err := Probe("broken.png", opts); err == nil {
		t.Error("expected decode error for broken.png")
	}
}

func TestSupported(t *testing.T) {
	for _, path := range []string{"a.BMP", "b.tga", "c.webp", "d.jpeg"} {
		if !Supported(path) {
			t.Errorf("Supported(%q) = false", path)
		}
	}
	if Supported("e.dds") {
		t.Error("Supported(e.dds) = true")
	}
}

func TestProbeArchive(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "wall.bmp", 32, 8)
	data, err := os.ReadFile(filepath.Join(dir, "wall.bmp"))
	if err != nil {
		t.Fatal(err)
	}

	archive := filepath.Join(dir, "data.grf")
	if err := grf.WriteFile(archive, []grf.File{{Name: `data\texture\wall.bmp`, Data: data}}); err != nil {
		t.Fatal(err)
	}
	m, err := assets.Open([]string{archive})
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	info, err := Probe("data/texture/wall.bmp", Options{BaseDir: dir, Assets: m})
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	if info.Archive != archive || info.Width != 32 || info.Height != 8 {
		t.Errorf("got %+v", info)
	}

	if _, err := Probe("data/texture/none.bmp", Options{BaseDir: dir, Assets: m}); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}
