package goupi

import (
	"path/filepath"
	"time"
)

// epoch is reported for trees that hold no files.
var epoch = time.Unix(0, 0)

// NewestModTime returns the most recent modification time of any regular
// file under path. Directories contribute only through their descendants.
// A path that does not exist, or holds no regular files, reports the Unix
// epoch. A regular file given as path reports its own time.
func NewestModTime(fsmgr FilesystemManager, path string) time.Time {
	info, err := fsmgr.Stat(path)
	if err != nil {
		return epoch
	}
	if info.Mode().IsRegular() {
		return laterOf(epoch, info.ModTime())
	}
	if !info.IsDir() {
		return epoch
	}

	newest := epoch
	stack := []string{path}
	for len(stack) > 0 {
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := fsmgr.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			child := filepath.Join(dir, entry.Name())
			switch {
			case entry.IsDir():
				stack = append(stack, child)
			case entry.Type().IsRegular():
				info, err := entry.Info()
				if err != nil {
					continue
				}
				newest = laterOf(newest, info.ModTime())
			}
		}
	}

	return newest
}

// IsUpToDate reports whether the output tree is strictly newer than the
// source tree, along with the output tree's newest time. Equal times count
// as stale.
func IsUpToDate(fsmgr FilesystemManager, sourceDir, outputDir string) (time.Time, bool) {
	newest := NewestModTime(fsmgr, outputDir)
	return newest, newest.After(NewestModTime(fsmgr, sourceDir))
}

func laterOf(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
