package fsops

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FakeFS implements FS purely in memory for tests. Files is the backing
// store, keyed by cleaned path; call-recording slices let tests assert
// on what was written.
type FakeFS struct {
	Files map[string][]byte

	Written []string
}

// NewFakeFS creates an empty FakeFS.
func NewFakeFS() *FakeFS {
	return &FakeFS{Files: make(map[string][]byte)}
}

func (f *FakeFS) MkdirAll(path string, perm os.FileMode) error {
	return nil
}

func (f *FakeFS) Remove(path string) error {
	path = filepath.Clean(path)
	if _, ok := f.Files[path]; !ok {
		return fmt.Errorf("remove %s: no such file", path)
	}
	delete(f.Files, path)
	return nil
}

func (f *FakeFS) RemoveAll(path string) error {
	path = filepath.Clean(path)
	for k := range f.Files {
		if k == path || strings.HasPrefix(k, path+string(filepath.Separator)) {
			delete(f.Files, k)
		}
	}
	return nil
}

func (f *FakeFS) Copy(src, dst string) error {
	src, dst = filepath.Clean(src), filepath.Clean(dst)
	data, ok := f.Files[src]
	if !ok {
		return fmt.Errorf("copy: no such file %s", src)
	}
	f.Files[dst] = append([]byte{}, data...)
	return nil
}

func (f *FakeFS) AtomicWrite(path string, data []byte, perm os.FileMode) error {
	path = filepath.Clean(path)
	f.Files[path] = append([]byte{}, data...)
	f.Written = append(f.Written, path)
	return nil
}

func (f *FakeFS) ReadFile(path string) ([]byte, error) {
	path = filepath.Clean(path)
	data, ok := f.Files[path]
	if !ok {
		return nil, fmt.Errorf("read %s: no such file", path)
	}
	return data, nil
}

func (f *FakeFS) Exists(path string) (bool, error) {
	path = filepath.Clean(path)
	_, ok := f.Files[path]
	return ok, nil
}

func (f *FakeFS) ValidateRelPath(relPath string) error {
	return (&RealFS{}).ValidateRelPath(relPath)
}
