// Package local implements the storage adapter on the local file system,
// treating buckets as directories under a configured base directory.
package local

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	storage "github.com/callscope/callscope/pkg/bulk/adapter/storage"
	storageconfig "github.com/callscope/callscope/pkg/bulk/adapter/storage/config"
	exception "github.com/callscope/callscope/pkg/bulk/support/util/exception"
	logger "github.com/callscope/callscope/pkg/bulk/support/util/logger"
)

// ProviderType identifies this backend in configuration.
const ProviderType = "local"

type localStore struct {
	cfg storageconfig.StorageConfig
}

var _ storage.Store = (*localStore)(nil)

// New creates a local Store rooted at cfg.BaseDir, creating the directory
// when missing.
func New(cfg storageconfig.StorageConfig) (storage.Store, error) {
	if cfg.BaseDir == "" {
		return nil, exception.NewBulkErrorf("storage", "local store requires base_dir")
	}
	info, err := os.Stat(cfg.BaseDir)
	switch {
	case os.IsNotExist(err):
		if err := os.MkdirAll(cfg.BaseDir, 0o755); err != nil {
			return nil, exception.NewBulkErrorf("storage", "failed to create base_dir '%s'", cfg.BaseDir, err)
		}
	case err != nil:
		return nil, exception.NewBulkErrorf("storage", "failed to stat base_dir '%s'", cfg.BaseDir, err)
	case !info.IsDir():
		return nil, exception.NewBulkErrorf("storage", "base_dir '%s' is not a directory", cfg.BaseDir)
	}
	return &localStore{cfg: cfg}, nil
}

func (s *localStore) Upload(_ context.Context, bucket, objectName string, data io.Reader, _ string) error {
	path, err := s.resolve(bucket, objectName)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return exception.NewBulkErrorf("storage", "failed to create directory for '%s'", path, err)
	}
	file, err := os.Create(path)
	if err != nil {
		return exception.NewBulkErrorf("storage", "failed to create '%s'", path, err)
	}
	defer file.Close()
	if _, err := io.Copy(file, data); err != nil {
		return exception.NewBulkErrorf("storage", "failed to write '%s'", path, err)
	}
	logger.Debugf("Local store: wrote '%s'.", path)
	return nil
}

func (s *localStore) Download(_ context.Context, bucket, objectName string) (io.ReadCloser, error) {
	path, err := s.resolve(bucket, objectName)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, exception.NewBulkErrorf("storage", "failed to open '%s'", path, err)
	}
	return file, nil
}

func (s *localStore) List(_ context.Context, bucket, prefix string, fn func(objectName string) error) error {
	root, err := s.resolve(bucket, "")
	if err != nil {
		return err
	}
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		name, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		name = filepath.ToSlash(name)
		if !strings.HasPrefix(name, prefix) {
			return nil
		}
		return fn(name)
	})
	if err != nil {
		return exception.NewBulkErrorf("storage", "failed to list '%s' with prefix '%s'", root, prefix, err)
	}
	return nil
}

func (s *localStore) Delete(_ context.Context, bucket, objectName string) error {
	path, err := s.resolve(bucket, objectName)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			logger.Warnf("Local store: delete of missing object '%s' ignored.", path)
			return nil
		}
		return exception.NewBulkErrorf("storage", "failed to delete '%s'", path, err)
	}
	return nil
}

func (s *localStore) Close() error { return nil }

func (s *localStore) Type() string { return ProviderType }

// resolve joins base_dir, bucket, and object name, refusing paths that
// escape base_dir.
func (s *localStore) resolve(bucket, objectName string) (string, error) {
	if bucket == "" {
		bucket = s.cfg.BucketName
	}
	full := filepath.Join(s.cfg.BaseDir, bucket, objectName)
	absBase, err := filepath.Abs(s.cfg.BaseDir)
	if err != nil {
		return "", exception.NewBulkErrorf("storage", "failed to resolve base_dir '%s'", s.cfg.BaseDir, err)
	}
	absFull, err := filepath.Abs(full)
	if err != nil {
		return "", exception.NewBulkErrorf("storage", "failed to resolve path '%s'", full, err)
	}
	if absFull != absBase && !strings.HasPrefix(absFull, absBase+string(filepath.Separator)) {
		return "", exception.NewBulkErrorf("storage", "path '%s' escapes base_dir '%s'", full, s.cfg.BaseDir)
	}
	return full, nil
}
