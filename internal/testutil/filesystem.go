package testutil

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"goupi/internal/goupi"
)

// MockFile represents a file or directory in the mock filesystem.
type MockFile struct {
	Content     []byte
	Permissions fs.FileMode
	ModTime     time.Time
	IsDirectory bool
}

// MockFilesystemManager is an in-memory filesystem for testing. Paths are
// cleaned absolute paths; parents are created implicitly. Every add or
// write stamps the entry with a mock time one second after the previous
// one, so later writes are always newer. Safe for concurrent use.
type MockFilesystemManager struct {
	mu          sync.Mutex
	files       map[string]*MockFile
	now         time.Time
	writeErrors map[string]error
	readErrors  map[string]error
}

// NewMockFilesystemManager creates a new mock filesystem containing only "/".
func NewMockFilesystemManager() *MockFilesystemManager {
	m := &MockFilesystemManager{
		files:       make(map[string]*MockFile),
		now:         time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		writeErrors: make(map[string]error),
		readErrors:  make(map[string]error),
	}
	m.files["/"] = &MockFile{Permissions: 0755, ModTime: m.now, IsDirectory: true}
	return m
}

// tick advances the mock time. Callers hold mu.
func (m *MockFilesystemManager) tick() time.Time {
	m.now = m.now.Add(time.Second)
	return m.now
}

// mkdirAll creates path and its parents. Callers hold mu.
func (m *MockFilesystemManager) mkdirAll(path string) error {
	path = filepath.Clean(path)
	for p := path; ; p = filepath.Dir(p) {
		if f, ok := m.files[p]; ok {
			if !f.IsDirectory {
				return &fs.PathError{Op: "mkdir", Path: p, Err: fmt.Errorf("not a directory")}
			}
		}
		if p == filepath.Dir(p) {
			break
		}
	}

	var missing []string
	for p := path; ; p = filepath.Dir(p) {
		if _, ok := m.files[p]; ok {
			break
		}
		missing = append(missing, p)
		if p == filepath.Dir(p) {
			break
		}
	}
	for _, p := range slices.Backward(missing) {
		m.files[p] = &MockFile{Permissions: 0755, ModTime: m.tick(), IsDirectory: true}
	}
	return nil
}

// AddFile adds a file, creating its parent directories.
func (m *MockFilesystemManager) AddFile(path string, content []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	path = filepath.Clean(path)
	if err := m.mkdirAll(filepath.Dir(path)); err != nil {
		panic(err)
	}
	m.files[path] = &MockFile{Content: content, Permissions: 0644, ModTime: m.tick()}
}

// AddDirectory adds a directory and its parents.
func (m *MockFilesystemManager) AddDirectory(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.mkdirAll(path); err != nil {
		panic(err)
	}
}

// AddSpecial adds an entry that is neither a regular file nor a directory,
// such as a symlink or named pipe.
func (m *MockFilesystemManager) AddSpecial(path string, mode fs.FileMode) {
	m.mu.Lock()
	defer m.mu.Unlock()

	path = filepath.Clean(path)
	if err := m.mkdirAll(filepath.Dir(path)); err != nil {
		panic(err)
	}
	m.files[path] = &MockFile{Permissions: mode | 0644, ModTime: m.tick()}
}

// Remove deletes path and everything below it.
func (m *MockFilesystemManager) Remove(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	path = filepath.Clean(path)
	for p := range m.files {
		if p == path || isBelow(p, path) {
			delete(m.files, p)
		}
	}
}

// SetModTime overrides the modification time of an existing entry.
func (m *MockFilesystemManager) SetModTime(path string, t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.files[filepath.Clean(path)]
	if !ok {
		panic(fmt.Sprintf("SetModTime: no such file %s", path))
	}
	f.ModTime = t
}

// Touch gives path a modification time newer than anything written so far.
func (m *MockFilesystemManager) Touch(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.files[filepath.Clean(path)]
	if !ok {
		panic(fmt.Sprintf("Touch: no such file %s", path))
	}
	f.ModTime = m.tick()
}

// FailWrites makes WriteFile, MkdirAll and CopyTree fail with err for path
// and anything below it.
func (m *MockFilesystemManager) FailWrites(path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErrors[filepath.Clean(path)] = err
}

// FailReads makes ReadFile and ReadDir fail with err for exactly path.
func (m *MockFilesystemManager) FailReads(path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readErrors[filepath.Clean(path)] = err
}

// Content returns the bytes of a file and whether it exists.
func (m *MockFilesystemManager) Content(path string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.files[filepath.Clean(path)]
	if !ok || f.IsDirectory {
		return nil, false
	}
	return f.Content, true
}

// Exists reports whether any entry lives at path.
func (m *MockFilesystemManager) Exists(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[filepath.Clean(path)]
	return ok
}

func (m *MockFilesystemManager) writeError(path string) error {
	for p := path; ; p = filepath.Dir(p) {
		if err, ok := m.writeErrors[p]; ok {
			return err
		}
		if p == filepath.Dir(p) {
			return nil
		}
	}
}

func (m *MockFilesystemManager) lookup(op, path string) (*MockFile, error) {
	f, ok := m.files[filepath.Clean(path)]
	if !ok {
		return nil, &fs.PathError{Op: op, Path: path, Err: fs.ErrNotExist}
	}
	return f, nil
}

func (m *MockFilesystemManager) ResolveDir(rawPath string) (string, error) {
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	f, err := m.lookup("stat", absPath)
	if err != nil {
		return "", err
	}
	if !f.IsDirectory {
		return "", fmt.Errorf("not a directory: %s", absPath)
	}
	return absPath, nil
}

func (m *MockFilesystemManager) Stat(path string) (fs.FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, err := m.lookup("stat", path)
	if err != nil {
		return nil, err
	}
	return newMockFileInfo(filepath.Base(path), f), nil
}

// ReadDir lists the children of path sorted by name.
func (m *MockFilesystemManager) ReadDir(path string) ([]fs.DirEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	path = filepath.Clean(path)
	if err, ok := m.readErrors[path]; ok {
		return nil, err
	}
	f, err := m.lookup("readdir", path)
	if err != nil {
		return nil, err
	}
	if !f.IsDirectory {
		return nil, &fs.PathError{Op: "readdir", Path: path, Err: fmt.Errorf("not a directory")}
	}

	var entries []fs.DirEntry
	for p, child := range m.files {
		if p != path && filepath.Dir(p) == path {
			entries = append(entries, fs.FileInfoToDirEntry(newMockFileInfo(filepath.Base(p), child)))
		}
	}
	slices.SortFunc(entries, func(a, b fs.DirEntry) int {
		return strings.Compare(a.Name(), b.Name())
	})
	return entries, nil
}

func (m *MockFilesystemManager) ReadFile(path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err, ok := m.readErrors[filepath.Clean(path)]; ok {
		return nil, err
	}
	f, err := m.lookup("open", path)
	if err != nil {
		return nil, err
	}
	if f.IsDirectory {
		return nil, &fs.PathError{Op: "read", Path: path, Err: fmt.Errorf("is a directory")}
	}
	return bytes.Clone(f.Content), nil
}

func (m *MockFilesystemManager) Open(path string) (io.ReadCloser, error) {
	data, err := m.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// WriteFile requires the parent directory to exist, like os.WriteFile.
func (m *MockFilesystemManager) WriteFile(path string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	path = filepath.Clean(path)
	if err := m.writeError(path); err != nil {
		return err
	}
	parent, err := m.lookup("open", filepath.Dir(path))
	if err != nil {
		return err
	}
	if !parent.IsDirectory {
		return &fs.PathError{Op: "open", Path: path, Err: fmt.Errorf("not a directory")}
	}
	if f, ok := m.files[path]; ok && f.IsDirectory {
		return &fs.PathError{Op: "open", Path: path, Err: fmt.Errorf("is a directory")}
	}

	m.files[path] = &MockFile{Content: bytes.Clone(data), Permissions: 0644, ModTime: m.tick()}
	return nil
}

func (m *MockFilesystemManager) MkdirAll(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.writeError(filepath.Clean(path)); err != nil {
		return err
	}
	return m.mkdirAll(path)
}

// CopyTree copies directories and regular files below src into dst.
// Special entries are skipped.
func (m *MockFilesystemManager) CopyTree(src, dst string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	src, dst = filepath.Clean(src), filepath.Clean(dst)
	root, err := m.lookup("lstat", src)
	if err != nil {
		return err
	}
	if !root.IsDirectory {
		return &fs.PathError{Op: "copy", Path: src, Err: fmt.Errorf("not a directory")}
	}
	if err := m.writeError(dst); err != nil {
		return err
	}

	var paths []string
	for p := range m.files {
		if isBelow(p, src) {
			paths = append(paths, p)
		}
	}
	slices.Sort(paths)

	if err := m.mkdirAll(dst); err != nil {
		return err
	}
	for _, p := range paths {
		f := m.files[p]
		target := filepath.Join(dst, strings.TrimPrefix(p, src))
		if err := m.writeError(target); err != nil {
			return err
		}
		switch {
		case f.IsDirectory:
			if err := m.mkdirAll(target); err != nil {
				return err
			}
		case f.Permissions.IsRegular():
			m.files[target] = &MockFile{Content: bytes.Clone(f.Content), Permissions: f.Permissions, ModTime: m.tick()}
		}
	}
	return nil
}

// FindFiles returns the regular files below root in sorted order.
func (m *MockFilesystemManager) FindFiles(root string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	root = filepath.Clean(root)
	if _, err := m.lookup("lstat", root); err != nil {
		return nil, err
	}

	var paths []string
	for p, f := range m.files {
		if isBelow(p, root) && !f.IsDirectory && f.Permissions.IsRegular() {
			paths = append(paths, p)
		}
	}
	slices.Sort(paths)
	return paths, nil
}

// isBelow reports whether p is strictly inside dir.
func isBelow(p, dir string) bool {
	if dir == "/" {
		return p != "/"
	}
	return strings.HasPrefix(p, dir+"/")
}

// mockFileInfo implements fs.FileInfo
type mockFileInfo struct {
	name     string
	size     int64
	mode     fs.FileMode
	modTime  time.Time
	mockFile *MockFile
}

func newMockFileInfo(name string, f *MockFile) *mockFileInfo {
	mode := f.Permissions
	if f.IsDirectory {
		mode |= fs.ModeDir
	}
	return &mockFileInfo{
		name:     name,
		size:     int64(len(f.Content)),
		mode:     mode,
		modTime:  f.ModTime,
		mockFile: f,
	}
}

func (m *mockFileInfo) Name() string       { return m.name }
func (m *mockFileInfo) Size() int64        { return m.size }
func (m *mockFileInfo) Mode() fs.FileMode  { return m.mode }
func (m *mockFileInfo) ModTime() time.Time { return m.modTime }
func (m *mockFileInfo) IsDir() bool        { return m.mode.IsDir() }
func (m *mockFileInfo) Sys() any           { return m.mockFile }

// Compile-time check
var _ goupi.FilesystemManager = (*MockFilesystemManager)(nil)
