package export

import (
	"bufio"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/Faultbox/sceneflat/internal/scene"
)

// WriteFile emits s into a temporary file next to path and renames it over
// path once everything has been flushed and synced. On failure nothing is
// written to path and the temporary file is removed. It returns the number
// of bytes written.
func WriteFile(path string, e Emitter, s *scene.Scene) (n int64, err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return 0, errors.Wrap(err, "creating temporary file")
	}

	closed := false
	defer func() {
		if err == nil {
			return
		}
		if !closed {
			err = multierr.Append(err, tmp.Close())
		}
		_ = os.Remove(tmp.Name())
	}()

	cw := &countingWriter{w: tmp}
	bw := bufio.NewWriter(cw)
	if err = e.Emit(bw, s); err != nil {
		return 0, errors.WithMessagef(err, "emitting %s", path)
	}
	if err = bw.Flush(); err != nil {
		return 0, errors.Wrapf(err, "writing %s", path)
	}
	if err = tmp.Chmod(0644); err != nil {
		return 0, errors.Wrapf(err, "setting mode of %s", path)
	}
	if err = tmp.Sync(); err != nil {
		return 0, errors.Wrapf(err, "syncing %s", path)
	}

	closed = true
	if err = tmp.Close(); err != nil {
		return 0, errors.Wrapf(err, "closing %s", path)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return 0, errors.Wrapf(err, "renaming into %s", path)
	}
	return cw.n, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
