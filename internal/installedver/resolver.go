// Package installedver resolves the version of a package currently
// present in a workspace, with a memoization cache and the legacy
// nx/@nrwl-workspace name fallback.
package installedver

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/wsmigrate/wsmigrate/internal/fsops"
	"github.com/wsmigrate/wsmigrate/internal/manifest"
)

// LegacyNames maps a canonical package name to the legacy name it was
// published under before a rename, so a lookup miss on the canonical
// name gets one retry. Only the nx/@nrwl/workspace pair is specified;
// the map shape leaves room for a future additional alias without
// touching call sites.
var LegacyNames = map[string]string{
	"nx": "@nrwl/workspace",
}

type cacheEntry struct {
	version string
	found   bool
}

// Resolver answers "what version of pkg is currently installed in this
// workspace", consulting node_modules/<pkg>/package.json and caching
// each successful lookup for the lifetime of one plan.
type Resolver struct {
	fs   fsops.FS
	root string

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// NewResolver creates a Resolver rooted at root.
func NewResolver(fs fsops.FS, root string) *Resolver {
	return &Resolver{
		fs:    fs,
		root:  root,
		cache: make(map[string]cacheEntry),
	}
}

// InstalledVersion returns the version of pkg installed in the
// workspace. overrides is consulted first; a hit there short-circuits
// the disk lookup entirely, per the resolver's contract. found is
// false when the package is not installed and carries no override —
// a meaningful "null" the Planner treats as "pure add".
func (r *Resolver) InstalledVersion(pkg string, overrides map[string]string) (version string, found bool, err error) {
	if v, ok := overrides[pkg]; ok {
		return v, true, nil
	}

	if entry, ok := r.cached(pkg); ok {
		return entry.version, entry.found, nil
	}

	version, found, err = r.loadFromDisk(pkg)
	if err != nil {
		return "", false, err
	}
	if !found {
		if legacy, ok := LegacyNames[pkg]; ok {
			legacyVersion, legacyFound, legacyErr := r.loadFromDisk(legacy)
			if legacyErr != nil {
				return "", false, legacyErr
			}
			r.store(pkg, legacyVersion, legacyFound)
			return legacyVersion, legacyFound, nil
		}
	}

	r.store(pkg, version, found)
	return version, found, nil
}

func (r *Resolver) cached(pkg string) (cacheEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.cache[pkg]
	return entry, ok
}

func (r *Resolver) store(pkg, version string, found bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[pkg] = cacheEntry{version: version, found: found}
}

// loadFromDisk reads node_modules/<pkg>/package.json. A missing file
// is reported as found=false with no error; any other I/O or parse
// failure is returned as err.
func (r *Resolver) loadFromDisk(pkg string) (string, bool, error) {
	path := filepath.Join(r.root, "node_modules", pkg, "package.json")
	version, _, err := manifest.ReadInstalledPackageManifest(r.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		exists, existsErr := r.fs.Exists(path)
		if existsErr == nil && !exists {
			return "", false, nil
		}
		return "", false, err
	}
	return version, true, nil
}
