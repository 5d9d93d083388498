// Package tree implements the "virtual file tree with change-flush"
// external collaborator spec.md's intro names: migration generator
// implementations read and write files through a Host that records
// every pending change in memory until the Runner decides to flush
// it to disk, so a no-op migration never touches the working tree.
package tree

import (
	"fmt"
	"path/filepath"

	"github.com/wsmigrate/wsmigrate/internal/fsops"
)

// ChangeType distinguishes a create, an update to an existing file,
// or a delete.
type ChangeType int

const (
	ChangeCreate ChangeType = iota
	ChangeUpdate
	ChangeDelete
)

func (c ChangeType) String() string {
	switch c {
	case ChangeCreate:
		return "CREATE"
	case ChangeUpdate:
		return "UPDATE"
	case ChangeDelete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

// Change is one pending write a generator made against the tree.
type Change struct {
	Path    string
	Type    ChangeType
	Content []byte
}

// Host is the generator-facing virtual file tree.
type Host interface {
	Read(path string) ([]byte, error)
	Write(path string, content []byte) error
	Delete(path string) error
	Exists(path string) bool
	ListChanges() []Change
}

// RealHost is a Host rooted at a real workspace directory, backed by
// fsops.FS. Writes and deletes are buffered in an overlay and never
// touch disk until Flush is called.
type RealHost struct {
	fs   fsops.FS
	root string

	overlay map[string][]byte
	deleted map[string]bool
	order   []string
}

// NewRealHost creates a RealHost rooted at root.
func NewRealHost(fs fsops.FS, root string) *RealHost {
	return &RealHost{
		fs:      fs,
		root:    root,
		overlay: make(map[string][]byte),
		deleted: make(map[string]bool),
	}
}

func (h *RealHost) abs(path string) string {
	return filepath.Join(h.root, path)
}

// Read returns path's content, preferring a pending write over disk.
func (h *RealHost) Read(path string) ([]byte, error) {
	if h.deleted[path] {
		return nil, fmt.Errorf("read %s: no such file", path)
	}
	if content, ok := h.overlay[path]; ok {
		return content, nil
	}
	return h.fs.ReadFile(h.abs(path))
}

// Write stages content for path in the overlay. ListChanges reports it
// as an update if path exists on disk and as a create otherwise.
func (h *RealHost) Write(path string, content []byte) error {
	if err := h.fs.ValidateRelPath(path); err != nil {
		return err
	}
	h.record(path)
	delete(h.deleted, path)
	h.overlay[path] = content
	return nil
}

// Delete records path as removed.
func (h *RealHost) Delete(path string) error {
	h.record(path)
	delete(h.overlay, path)
	h.deleted[path] = true
	return nil
}

// Exists reports whether path currently exists, accounting for
// pending overlay writes and deletes.
func (h *RealHost) Exists(path string) bool {
	if h.deleted[path] {
		return false
	}
	if _, ok := h.overlay[path]; ok {
		return true
	}
	exists, _ := h.fs.Exists(h.abs(path))
	return exists
}

func (h *RealHost) record(path string) {
	for _, p := range h.order {
		if p == path {
			return
		}
	}
	h.order = append(h.order, path)
}

// ListChanges returns every pending change, in the order the
// generator made them.
func (h *RealHost) ListChanges() []Change {
	changes := make([]Change, 0, len(h.order))
	for _, path := range h.order {
		if h.deleted[path] {
			changes = append(changes, Change{Path: path, Type: ChangeDelete})
			continue
		}
		content := h.overlay[path]
		onDisk, _ := h.fs.Exists(h.abs(path))
		typ := ChangeCreate
		if onDisk {
			typ = ChangeUpdate
		}
		changes = append(changes, Change{Path: path, Type: typ, Content: content})
	}
	return changes
}

// Flush writes every pending change to disk and clears the overlay.
func (h *RealHost) Flush() error {
	for _, change := range h.ListChanges() {
		abs := h.abs(change.Path)
		switch change.Type {
		case ChangeDelete:
			if err := h.fs.Remove(abs); err != nil {
				return fmt.Errorf("flushing delete of %s: %w", change.Path, err)
			}
		default:
			if err := h.fs.MkdirAll(filepath.Dir(abs), 0755); err != nil {
				return fmt.Errorf("flushing %s: %w", change.Path, err)
			}
			if err := h.fs.AtomicWrite(abs, change.Content, 0644); err != nil {
				return fmt.Errorf("flushing %s: %w", change.Path, err)
			}
		}
	}
	h.overlay = make(map[string][]byte)
	h.deleted = make(map[string]bool)
	h.order = nil
	return nil
}

// FakeHost is an in-memory Host for tests, with no backing disk at
// all: every file "exists" only because a test seeded it directly.
type FakeHost struct {
	Files   map[string][]byte
	changes []Change
	seen    map[string]bool
}

// NewFakeHost creates a FakeHost seeded with files.
func NewFakeHost(files map[string][]byte) *FakeHost {
	if files == nil {
		files = make(map[string][]byte)
	}
	return &FakeHost{Files: files, seen: make(map[string]bool)}
}

func (h *FakeHost) Read(path string) ([]byte, error) {
	content, ok := h.Files[path]
	if !ok {
		return nil, fmt.Errorf("read %s: no such file", path)
	}
	return content, nil
}

func (h *FakeHost) Write(path string, content []byte) error {
	typ := ChangeCreate
	if _, ok := h.Files[path]; ok {
		typ = ChangeUpdate
	}
	h.Files[path] = content
	h.recordChange(path, typ, content)
	return nil
}

func (h *FakeHost) Delete(path string) error {
	delete(h.Files, path)
	h.recordChange(path, ChangeDelete, nil)
	return nil
}

func (h *FakeHost) Exists(path string) bool {
	_, ok := h.Files[path]
	return ok
}

func (h *FakeHost) recordChange(path string, typ ChangeType, content []byte) {
	if !h.seen[path] {
		h.seen[path] = true
		h.changes = append(h.changes, Change{Path: path, Type: typ, Content: content})
		return
	}
	for i, c := range h.changes {
		if c.Path == path {
			h.changes[i] = Change{Path: path, Type: typ, Content: content}
			return
		}
	}
}

func (h *FakeHost) ListChanges() []Change {
	out := make([]Change, len(h.changes))
	copy(out, h.changes)
	return out
}
