package goupi

import (
	"io"
	"io/fs"
)

// FilesystemManager abstracts every filesystem access made by the build
// engine so it can be exercised against an in-memory tree in tests.
// Paths are plain OS paths; a missing path is reported with an error
// satisfying errors.Is(err, fs.ErrNotExist).
type FilesystemManager interface {
	// ResolveDir returns the absolute form of rawPath after checking that
	// it names an existing directory.
	ResolveDir(rawPath string) (string, error)

	// Stat returns file info for path, following symlinks.
	Stat(path string) (fs.FileInfo, error)

	// ReadDir lists the immediate entries of a directory.
	ReadDir(path string) ([]fs.DirEntry, error)

	ReadFile(path string) ([]byte, error)

	// Open opens a regular file for streaming reads.
	Open(path string) (io.ReadCloser, error)

	// WriteFile creates or truncates path and writes data to it.
	WriteFile(path string, data []byte) error

	MkdirAll(path string) error

	// CopyTree mirrors the tree rooted at src into dst, creating
	// directories as needed and overwriting existing files.
	CopyTree(src, dst string) error

	// FindFiles returns every regular file below root, honouring the
	// manager's ignore patterns.
	FindFiles(root string) ([]string, error)
}

// exists reports whether path can be stat'ed.
func exists(fsmgr FilesystemManager, path string) bool {
	_, err := fsmgr.Stat(path)
	return err == nil
}
