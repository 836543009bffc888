package services

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var ErrFileMissing = errors.New("stored file not found")

// StoredFile is what the store reports back after a successful Save.
type StoredFile struct {
	Filename string
	Path     string
	Size     int64
}

type FileStore interface {
	Save(originalName string, r io.Reader) (StoredFile, error)
	Open(path string) (io.ReadSeekCloser, error)
	Remove(path string) error
}

// LocalFileStore writes uploads under Dir with random names, keeping only the
// original extension.
type LocalFileStore struct {
	Dir string
}

func NewLocalFileStore(dir string) (*LocalFileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating upload dir %s", dir)
	}
	return &LocalFileStore{Dir: dir}, nil
}

func (s *LocalFileStore) Save(originalName string, r io.Reader) (StoredFile, error) {
	ext := strings.ToLower(filepath.Ext(filepath.Base(originalName)))
	name := "files-" + uuid.NewString() + ext
	path := filepath.Join(s.Dir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return StoredFile{}, errors.Wrap(err, "creating stored file")
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return StoredFile{}, errors.Wrap(err, "writing stored file")
	}
	return StoredFile{Filename: name, Path: path, Size: n}, nil
}

// Open refuses paths outside Dir.
func (s *LocalFileStore) Open(path string) (io.ReadSeekCloser, error) {
	if !s.owns(path) {
		return nil, ErrFileMissing
	}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, ErrFileMissing
	}
	if err != nil {
		return nil, errors.Wrap(err, "opening stored file")
	}
	return f, nil
}

func (s *LocalFileStore) Remove(path string) error {
	if !s.owns(path) {
		return ErrFileMissing
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing stored file")
	}
	return nil
}

func (s *LocalFileStore) owns(path string) bool {
	dir, err := filepath.Abs(s.Dir)
	if err != nil {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(dir, abs)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && rel != "."
}
