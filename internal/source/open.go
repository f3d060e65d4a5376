package source

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/Faultbox/sceneflat/internal/assets"
)

// Source errors.
var (
	ErrUnknownFormat = errors.New("unknown scene format")
	ErrNotFound      = errors.New("scene file not found")
)

// OpenOptions controls how scene files are located.
type OpenOptions struct {
	// Assets is searched when a path does not exist on disk. Nil means
	// disk only.
	Assets *assets.Manager
}

// Loader reads a scene from path.
type Loader func(path string, opts OpenOptions) (Scene, error)

var (
	loadersMu sync.RWMutex
	loaders   = make(map[string]Loader)
)

// Register makes a loader available for a file extension, including the
// leading dot. Loader packages call it from init.
func Register(ext string, l Loader) {
	loadersMu.Lock()
	defer loadersMu.Unlock()
	loaders[strings.ToLower(ext)] = l
}

// Formats returns the registered extensions, sorted.
func Formats() []string {
	loadersMu.RLock()
	defer loadersMu.RUnlock()
	exts := make([]string, 0, len(loaders))
	for ext := range loaders {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Open loads the scene at path with the loader registered for its
// extension.
func Open(path string, opts OpenOptions) (Scene, error) {
	ext := strings.ToLower(filepath.Ext(path))

	loadersMu.RLock()
	load, ok := loaders[ext]
	loadersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}

	s, err := load(path, opts)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return s, nil
}

// ReadFile reads path from disk, falling back to the archives in opts.
func ReadFile(path string, opts OpenOptions) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, fs.ErrNotExist) || opts.Assets == nil {
		return nil, err
	}

	data, err = opts.Assets.Load(filepath.ToSlash(path))
	if errors.Is(err, assets.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return data, err
}
