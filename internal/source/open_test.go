package source

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/sceneflat/internal/assets"
	"github.com/Faultbox/sceneflat/pkg/grf"
)

func TestOpenDispatch(t *testing.T) {
	var gotPath string
	Register(".FAKE", func(path string, opts OpenOptions) (Scene, error) {
		gotPath = path
		return &Static{MeshList: []Mesh{{Name: "m"}}}, nil
	})

	s, err := Open("dir/model.fake", OpenOptions{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if gotPath != "dir/model.fake" {
		t.Errorf("loader got path %q", gotPath)
	}
	if len(s.Meshes()) != 1 {
		t.Errorf("got %d meshes, want 1", len(s.Meshes()))
	}

	found := false
	for _, ext := range Formats() {
		if ext == ".fake" {
			found = true
		}
	}
	if !found {
		t.Errorf("Formats() = %v, missing .fake", Formats())
	}
}

func TestOpenUnknownFormat(t *testing.T) {
	if _, err := Open("model.xyz", OpenOptions{}); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("error = %v, want ErrUnknownFormat", err)
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.bin")
	if err := os.WriteFile(path, []byte("payload"), 0644); err != nil {
		t.Fatal(err)
	}

	data, err := ReadFile(path, OpenOptions{})
	if err != nil || string(data) != "payload" {
		t.Errorf("ReadFile = %q, %v", data, err)
	}

	missing := filepath.Join(dir, "missing.bin")
	if _, err := ReadFile(missing, OpenOptions{}); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("error = %v, want fs.ErrNotExist", err)
	}

	archive := filepath.Join(dir, "data.grf")
	err = grf.WriteFile(archive, []grf.File{{Name: `data\model\packed.rsm`, Data: []byte("packed")}})
	if err != nil {
		t.Fatal(err)
	}
	m, err := assets.Open([]string{archive})
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	data, err = ReadFile("data/model/packed.rsm", OpenOptions{Assets: m})
	if err != nil || string(data) != "packed" {
		t.Errorf("ReadFile from archive = %q, %v", data, err)
	}
	if _, err := ReadFile("data/model/none.rsm", OpenOptions{Assets: m}); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestOwnerName(t *testing.T) {
	m := Mesh{Name: "body"}
	if m.OwnerName() != "body" {
		t.Errorf("OwnerName() = %q, want mesh name", m.OwnerName())
	}
	m.Owner = "rig"
	if m.OwnerName() != "rig" {
		t.Errorf("OwnerName() = %q, want rig", m.OwnerName())
	}
}
