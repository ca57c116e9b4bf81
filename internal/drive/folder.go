package drive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FolderStore serves a synced/mounted directory as the remote store.
// Production runs point it at the drive-synced share; tests point it at
// a temp dir.
type FolderStore struct {
	root string
}

// NewFolderStore creates a store rooted at dir.
func NewFolderStore(dir string) (*FolderStore, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("store root %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("store root %s is not a directory", dir)
	}
	return &FolderStore{root: dir}, nil
}

func (s *FolderStore) List(ctx context.Context, folder string) ([]FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(filepath.Join(s.root, folder))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", folder, err)
	}
	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{Name: entry.Name(), Size: info.Size()})
	}
	return files, nil
}

func (s *FolderStore) Download(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.root, path))
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", path, err)
	}
	return data, nil
}

func (s *FolderStore) Upload(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full := filepath.Join(s.root, path)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return fmt.Errorf("upload %s: %w", path, err)
	}
	if err := os.WriteFile(full, data, 0644); err != nil {
		return fmt.Errorf("upload %s: %w", path, err)
	}
	return nil
}
