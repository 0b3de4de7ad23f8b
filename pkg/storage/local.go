package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/therebootai/democlinicsoftwarebackend/internal/config"
	"github.com/therebootai/democlinicsoftwarebackend/internal/domain"
	"go.uber.org/zap"
)

// Local stores assets on disk under cfg.LocalDir, mirroring the hosted
// provider's folder layout. Used in development and in tests.
type Local struct {
	cfg config.StorageConfig
	log *zap.Logger
}

func NewLocal(cfg config.StorageConfig, log *zap.Logger) (*Local, error) {
	if cfg.LocalDir == "" {
		return nil, fmt.Errorf("local storage requires STORAGE_LOCAL_DIR")
	}
	if err := os.MkdirAll(cfg.LocalDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage dir: %w", err)
	}
	return &Local{cfg: cfg, log: log}, nil
}

func (l *Local) Upload(ctx context.Context, filename string, r io.Reader) (domain.FileRef, error) {
	if err := ctx.Err(); err != nil {
		return domain.FileRef{}, err
	}

	publicID := path.Join(l.cfg.Folder, Subfolder(filename), uuid.NewString()+path.Ext(filename))
	dst := filepath.Join(l.cfg.LocalDir, filepath.FromSlash(publicID))

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return domain.FileRef{}, fmt.Errorf("creating asset dir: %w", err)
	}

	f, err := os.Create(dst)
	if err != nil {
		return domain.FileRef{}, fmt.Errorf("creating asset file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(dst)
		return domain.FileRef{}, fmt.Errorf("writing asset: %w", err)
	}

	l.log.Debug("asset stored locally", zap.String("public_id", publicID))

	return domain.FileRef{
		SecureURL: strings.TrimSuffix(l.cfg.BaseURL, "/") + "/" + publicID,
		PublicID:  publicID,
	}, nil
}

func (l *Local) Delete(ctx context.Context, publicID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dst := filepath.Join(l.cfg.LocalDir, filepath.FromSlash(publicID))
	if err := os.Remove(dst); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("deleting asset: %w", err)
	}
	return nil
}
