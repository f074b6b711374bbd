package publisher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

type fsPublisher struct {
	dir string
	key string
}

// NewFSPublisher writes documents to dir/key. The directory is created on
// first publish.
func NewFSPublisher(dir, key string) Publisher {
	return &fsPublisher{dir: dir, key: key}
}

// Publish writes to a temporary file in the target directory and renames it
// over the destination, so readers never see a partial page.
func (p *fsPublisher) Publish(ctx context.Context, doc []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dst := filepath.Join(p.dir, filepath.FromSlash(p.key))
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create publish dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".publish-*")
	if err != nil {
		return fmt.Errorf("create temp page: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(doc); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp page: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("chmod temp page: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp page: %w", err)
	}
	if err := ctx.Err(); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, dst); err != nil {
		cleanup()
		return fmt.Errorf("replace %s: %w", dst, err)
	}
	return nil
}
