// Package archive moves processed batch files out of the input directory.
package archive

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"joconde_watcher/internal/domain"
)

// Mover moves files into one archive directory without ever overwriting.
type Mover struct {
	dir string
}

// NewMover creates dir if needed.
func NewMover(dir string) (*Mover, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: archive directory %s: %w", domain.ErrConfig, dir, err)
	}
	return &Mover{dir: dir}, nil
}

func (m *Mover) Dir() string {
	return m.dir
}

// Archive moves path into the archive directory under its original name
// and returns the new location. An existing file with that name is never
// replaced; the error then wraps both domain.ErrArchive and fs.ErrExist.
func (m *Mover) Archive(path string) (string, error) {
	dest := filepath.Join(m.dir, filepath.Base(path))

	err := os.Link(path, dest)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrExist):
		return "", fmt.Errorf("%w: %s already exists: %w", domain.ErrArchive, dest, fs.ErrExist)
	default:
		// Hard links fail across devices and on some filesystems.
		if err := copyExclusive(path, dest); err != nil {
			return "", fmt.Errorf("%w: copy %s to %s: %w", domain.ErrArchive, path, dest, err)
		}
	}

	if err := os.Remove(path); err != nil {
		_ = os.Remove(dest)
		return "", fmt.Errorf("%w: remove %s: %w", domain.ErrArchive, path, err)
	}

	return dest, nil
}

func copyExclusive(src, dest string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(dest)
		}
	}()

	if _, err = io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err = out.Sync(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
