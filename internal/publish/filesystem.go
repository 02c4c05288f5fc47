package publish

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"goupi/internal/goupi"
)

// FileSystemPublisher copies a site into a local directory, for example the
// document root of a web server. Files are replaced atomically so a server
// never sees a half-written page.
type FileSystemPublisher struct {
	name string
	root string
}

// NewFileSystemPublisher creates the root directory if needed.
func NewFileSystemPublisher(name, root string) (*FileSystemPublisher, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create publish root: %w", err)
	}
	return &FileSystemPublisher{name: name, root: root}, nil
}

func (p *FileSystemPublisher) Name() string {
	return p.name
}

// Put writes the object to root/key.
func (p *FileSystemPublisher) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	destPath, err := p.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return writeFile(destPath, r, size)
}

// pathFor maps a slash-separated key below root, rejecting keys that escape it.
func (p *FileSystemPublisher) pathFor(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid key: %q", key)
	}
	return filepath.Join(p.root, clean), nil
}

// ValidateSetup verifies that root is a writable directory.
func (p *FileSystemPublisher) ValidateSetup(ctx context.Context) error {
	info, err := os.Stat(p.root)
	if err != nil {
		return fmt.Errorf("publish root not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("publish root is not a directory: %s", p.root)
	}

	probe, err := os.CreateTemp(p.root, ".probe-*")
	if err != nil {
		return fmt.Errorf("publish root not writable: %w", err)
	}
	probe.Close()
	os.Remove(probe.Name())
	return nil
}

// writeFile writes data from r to the specified path using atomic write (temp file + rename).
func writeFile(destPath string, r io.Reader, expectedSize int64) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if written != expectedSize {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", expectedSize, written)
	}

	// CreateTemp uses 0600; published files must be world-readable.
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

var _ goupi.Publisher = (*FileSystemPublisher)(nil)
