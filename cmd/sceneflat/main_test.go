package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"image"
	"image/png"
	"testing"

	"github.com/Faultbox/sceneflat/pkg/grf"
)

const testScene = `
images: [wood.png]
objects:
  - name: table
    mesh: top
  - name: leg
    parent: table
meshes:
  - name: top
    owner: table
    vertices: [[0, 0, 0], [1, 0, 0], [1, 1, 0], [0, 1, 0]]
    polygons: [[0, 1, 2], [0, 2, 3]]
`

// isolate keeps config lookup away from the developer's real files.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Chdir(dir)
	if err := os.WriteFile("table.yaml", []byte(testScene), 0644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestExportAndInspect(t *testing.T) {
	isolate(t)

	var out bytes.Buffer
	if err := run([]string{"export", "table.yaml", "table.scb"}, &out); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	for _, want := range []string{"Wrote table.scb (binary", "Vertices: 4", "Polygons: 2", "Nodes:    2"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("export output missing %q:\n%s", want, out.String())
		}
	}

	out.Reset()
	if err := run([]string{"inspect", "table.scb"}, &out); err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	for _, want := range []string{"Nodes:    2", "table", "parent=-", "parent=0", "ambient=\"wood.png\""} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("inspect output missing %q:\n%s", want, out.String())
		}
	}
}

func TestExportHeader(t *testing.T) {
	isolate(t)

	var out bytes.Buffer
	if err := run([]string{"export", "-check-textures", "table.yaml", "table.h"}, &out); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if !strings.Contains(out.String(), "Missing textures: 1") {
		t.Errorf("expected missing texture report:\n%s", out.String())
	}

	data, err := os.ReadFile("table.h")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "#ifndef TABLE_H\n") {
		t.Errorf("unexpected header start: %q", string(data)[:20])
	}
}

func TestExportFailure(t *testing.T) {
	dir := isolate(t)
	bad := strings.Replace(testScene, "[[0, 1, 2], [0, 2, 3]]", "[[0, 1, 2, 3, 0]]", 1)
	if err := os.WriteFile("bad.yaml", []byte(bad), 0644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	err := run([]string{"export", "bad.yaml", "bad.h"}, &out)
	if err == nil || !strings.Contains(err.Error(), "count=5") {
		t.Fatalf("error = %v, want arity error naming the count", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "bad.h")); !os.IsNotExist(err) {
		t.Error("failed export left an artifact")
	}
}

func TestTextures(t *testing.T) {
	isolate(t)

	var out bytes.Buffer
	if err := run([]string{"textures", "table.yaml"}, &out); err != nil {
		t.Fatalf("textures failed: %v", err)
	}
	if !strings.Contains(out.String(), "1 textures, 1 missing") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}

func writeTestArchive(t *testing.T) {
	t.Helper()
	var tex bytes.Buffer
	if err := png.Encode(&tex, image.NewRGBA(image.Rect(0, 0, 16, 8))); err != nil {
		t.Fatal(err)
	}
	err := grf.WriteFile("data.grf", []grf.File{
		{Name: `packed\table.yaml`, Data: []byte(testScene)},
		{Name: "wood.png", Data: tex.Bytes()},
		{Name: `data\model\chair.rsm`, Data: []byte("GRSM")},
		{Name: `data\model\bench.rsm`, Data: []byte("GRSM")},
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestExportFromArchive(t *testing.T) {
	isolate(t)
	writeTestArchive(t)

	var out bytes.Buffer
	if err := run([]string{"export", "-grf", "data.grf", "-check-textures", "packed/table.yaml", "packed.scb"}, &out); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if strings.Contains(out.String(), "Missing textures") {
		t.Errorf("texture should resolve from the archive:\n%s", out.String())
	}
	if _, err := os.Stat("packed.scb"); err != nil {
		t.Errorf("expected artifact: %v", err)
	}

	out.Reset()
	if err := run([]string{"textures", "-grf", "data.grf", "table.yaml"}, &out); err != nil {
		t.Fatalf("textures failed: %v", err)
	}
	if !strings.Contains(out.String(), "1 textures, 0 missing") || !strings.Contains(out.String(), "data.grf") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}

func TestModels(t *testing.T) {
	isolate(t)
	writeTestArchive(t)

	var out bytes.Buffer
	if err := run([]string{"models", "data.grf"}, &out); err != nil {
		t.Fatalf("models failed: %v", err)
	}
	want := "data/model/bench.rsm\ndata/model/chair.rsm\n\n2 models\n"
	if out.String() != want {
		t.Errorf("models output = %q, want %q", out.String(), want)
	}

	out.Reset()
	if err := run([]string{"models", "-n", "1", "data.grf", "ch*"}, &out); err != nil {
		t.Fatalf("models failed: %v", err)
	}
	if !strings.HasSuffix(out.String(), "1 models\n") || !strings.Contains(out.String(), "chair") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}

func TestConfigCommand(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "out", "sceneflat.yaml")

	var out bytes.Buffer
	if err := run([]string{"config", "-o", path}, &out); err != nil {
		t.Fatalf("config failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "node_order: parents_first") {
		t.Errorf("unexpected config:\n%s", data)
	}
}

func TestUsageErrors(t *testing.T) {
	isolate(t)

	tests := [][]string{
		nil,
		{"frobnicate"},
		{"export", "only-one-arg.yaml"},
		{"inspect"},
		{"export", "-no-such-flag", "a", "b"},
	}
	for _, args := range tests {
		if err := run(args, &bytes.Buffer{}); !errors.Is(err, errUsage) {
			t.Errorf("run(%q) = %v, want errUsage", args, err)
		}
	}

	var out bytes.Buffer
	if err := run([]string{"help"}, &out); err != nil || !strings.Contains(out.String(), "Commands:") {
		t.Errorf("help = %v, %q", err, out.String())
	}
}
