// Package file keeps each storage key in its own file under a directory,
// on any afero filesystem.
package file

import (
	"context"
	"net/url"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

type Storage struct {
	fs  afero.Fs
	dir string
}

func NewStorage(fs afero.Fs, dir string) (*Storage, error) {
	if err := fs.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrapf(err, "create storage dir %s", dir)
	}
	return &Storage{fs: fs, dir: dir}, nil
}

// path escapes the key so namespaced keys ("session/@RocketShoes:cart")
// map to a single flat file name.
func (s *Storage) path(key string) string {
	return filepath.Join(s.dir, url.PathEscape(key)+".json")
}

func (s *Storage) GetItem(ctx context.Context, key string) (string, bool, error) {
	b, err := afero.ReadFile(s.fs, s.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, errors.Wrapf(err, "read %q", key)
	}
	return string(b), true, nil
}

// SetItem writes through a temporary file and renames it into place so a
// crash never leaves a half-written value behind.
func (s *Storage) SetItem(ctx context.Context, key, value string) error {
	target := s.path(key)
	tmp := target + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, []byte(value), 0o600); err != nil {
		return errors.Wrapf(err, "write %q", key)
	}
	if err := s.fs.Rename(tmp, target); err != nil {
		return errors.Wrapf(err, "commit %q", key)
	}
	return nil
}

func (s *Storage) RemoveItem(ctx context.Context, key string) error {
	err := s.fs.Remove(s.path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrapf(err, "remove %q", key)
	}
	return nil
}
