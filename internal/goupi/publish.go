package goupi

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"path/filepath"
)

// Publisher is a destination for a rendered site.
type Publisher interface {
	Name() string

	// Put stores size bytes read from r under key. key is a slash-separated
	// path relative to the site root.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// ValidateSetup verifies that the destination is reachable and writable.
	ValidateSetup(ctx context.Context) error
}

// Publish uploads every file under outputDir to pub and returns how many
// files were sent. It stops at the first failed upload.
func (s *SiteService) Publish(ctx context.Context, outputDir string, pub Publisher) (int, error) {
	if err := pub.ValidateSetup(ctx); err != nil {
		return 0, fmt.Errorf("validating publisher %s: %w", pub.Name(), err)
	}

	files, err := s.fsmgr.FindFiles(outputDir)
	if err != nil {
		return 0, fmt.Errorf("finding files: %w", err)
	}

	count := 0
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return count, err
		}

		rel, err := filepath.Rel(outputDir, file)
		if err != nil {
			return count, fmt.Errorf("calculating relative path: %w", err)
		}
		key := filepath.ToSlash(rel)

		if err := s.publishFile(ctx, pub, file, key); err != nil {
			return count, fmt.Errorf("publishing %s: %w", key, err)
		}
		s.logger.Debug("file published", "key", key, "publisher", pub.Name())
		count++
	}

	s.logger.Info("publish complete", "publisher", pub.Name(), "count", count)
	return count, nil
}

func (s *SiteService) publishFile(ctx context.Context, pub Publisher, file, key string) error {
	info, err := s.fsmgr.Stat(file)
	if err != nil {
		return fmt.Errorf("stat: %w", err)
	}

	f, err := s.fsmgr.Open(file)
	if err != nil {
		return fmt.Errorf("opening: %w", err)
	}
	defer f.Close()

	return pub.Put(ctx, key, f, info.Size(), contentType(key))
}

// contentType guesses a MIME type from the key's extension.
func contentType(key string) string {
	if t := mime.TypeByExtension(path.Ext(key)); t != "" {
		return t
	}
	return "application/octet-stream"
}
