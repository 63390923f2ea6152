package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"aceofspace-go/config"

	"go.uber.org/zap"
)

// Store keeps uploaded KYC documents. Save returns the reference recorded
// on the submission; Remove accepts that same reference.
type Store interface {
	Save(ctx context.Context, name string, r io.Reader, size int64) (string, error)
	Remove(ctx context.Context, ref string) error
}

func New(ctx context.Context, cfg config.KYCConfig, log *zap.Logger) (Store, error) {
	switch cfg.StorageDriver {
	case "minio":
		return NewMinioStore(ctx, cfg.Minio, log)
	default:
		return NewDiskStore(cfg.UploadDir, cfg.URLPrefix, log)
	}
}

// DiskStore writes documents under a local directory and references them
// by a URL path under prefix.
type DiskStore struct {
	dir    string
	prefix string
	logger *zap.Logger
}

func NewDiskStore(dir, prefix string, log *zap.Logger) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", dir, err)
	}
	return &DiskStore{dir: dir, prefix: strings.TrimRight(prefix, "/"), logger: log.Named("disk-store")}, nil
}

func (s *DiskStore) Save(ctx context.Context, name string, r io.Reader, size int64) (string, error) {
	name = filepath.Base(name)
	full := filepath.Join(s.dir, name)

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(full)
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(full)
		return "", fmt.Errorf("close %s: %w", name, err)
	}

	s.logger.Debug("document stored", zap.String("file", full))
	return path.Join(s.prefix, name), nil
}

func (s *DiskStore) Remove(ctx context.Context, ref string) error {
	full := filepath.Join(s.dir, path.Base(ref))
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", ref, err)
	}
	return nil
}
