package store

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DiskStore writes attachments under a root directory. Used for local
// development and tests.
type DiskStore struct {
	root string
}

func NewDiskStore(root string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &DiskStore{root: root}, nil
}

func (d *DiskStore) path(key string) string {
	// Keys are ULIDs, but sanitize anyway.
	return filepath.Join(d.root, filepath.Base(strings.TrimSpace(key)))
}

func (d *DiskStore) Put(ctx context.Context, key string, contentType string, body io.Reader) error {
	f, err := os.Create(d.path(key))
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(f, body)
	return err
}

func (d *DiskStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	return os.Open(d.path(key))
}

func (d *DiskStore) Delete(ctx context.Context, key string) error {
	err := os.Remove(d.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
