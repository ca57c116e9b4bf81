package drive

import "context"

// FileInfo describes one file in the remote store.
type FileInfo struct {
	Name string
	Size int64
}

// Store is the remote storage collaborator: something that can list a
// folder of exports, hand back file contents, and accept output files.
// The transform core never talks to it; only extraction and load do.
type Store interface {
	// List returns the files directly inside folder (a path relative to
	// the store root).
	List(ctx context.Context, folder string) ([]FileInfo, error)
	// Download returns the contents of the file at path.
	Download(ctx context.Context, path string) ([]byte, error)
	// Upload writes data to path, creating parent folders as needed and
	// replacing any existing file.
	Upload(ctx context.Context, path string, data []byte) error
}
