// Package fetcher resolves a (package, versionOrTag) request into a
// manifest.MigrationManifest, consulting the registry first and
// falling back to a tarball-extracted temp install when the registry
// path fails, per spec.md §4.3.
package fetcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/wsmigrate/wsmigrate/internal/fsops"
	"github.com/wsmigrate/wsmigrate/internal/manifest"
	"github.com/wsmigrate/wsmigrate/internal/migerr"
	"github.com/wsmigrate/wsmigrate/internal/registry"
)

// Fetcher implements the migration manifest resolution strategy of
// spec.md §4.3, memoizing both the resolved-version lookup and the
// final manifest per (pkg, versionOrTag) for the lifetime of one plan.
type Fetcher struct {
	registry registry.Client
	tmpRoot  string

	mu                   sync.Mutex
	manifestCache        map[string]*future[manifest.MigrationManifest]
	resolvedVersionCache map[string]*future[string]
}

// New creates a Fetcher. tmpRoot is the scratch directory (config.Paths.Tmp)
// under which per-fetch temp directories are created and removed.
func New(client registry.Client, tmpRoot string) *Fetcher {
	return &Fetcher{
		registry:             client,
		tmpRoot:              tmpRoot,
		manifestCache:        make(map[string]*future[manifest.MigrationManifest]),
		resolvedVersionCache: make(map[string]*future[string]),
	}
}

func cacheKey(pkg, versionOrTag string) string {
	return pkg + "-" + versionOrTag
}

// Fetch resolves (pkg, versionOrTag) into a MigrationManifest.
func (f *Fetcher) Fetch(ctx context.Context, pkg, versionOrTag string) (manifest.MigrationManifest, error) {
	requestKey := cacheKey(pkg, versionOrTag)

	f.mu.Lock()
	if fut, ok := f.manifestCache[requestKey]; ok {
		f.mu.Unlock()
		return fut.wait()
	}
	fut := newFuture[manifest.MigrationManifest]()
	f.manifestCache[requestKey] = fut
	f.mu.Unlock()

	result, err := f.resolveAndFetch(ctx, pkg, versionOrTag, requestKey, fut)
	fut.resolve(result, err)
	return result, err
}

// resolveAndFetch does the actual work behind one request-key future:
// resolve the concrete version, detect an existing resolved-key entry
// (alias for a tag-keyed request), and otherwise fetch the manifest.
func (f *Fetcher) resolveAndFetch(ctx context.Context, pkg, versionOrTag, requestKey string, requestFut *future[manifest.MigrationManifest]) (manifest.MigrationManifest, error) {
	resolved, err := f.resolveVersion(ctx, pkg, versionOrTag)
	if err != nil {
		return manifest.MigrationManifest{}, err
	}

	resolvedKey := cacheKey(pkg, resolved)
	if resolvedKey == requestKey {
		return f.fetchManifest(ctx, pkg, resolved)
	}

	f.mu.Lock()
	if existing, ok := f.manifestCache[resolvedKey]; ok {
		f.mu.Unlock()
		return existing.wait()
	}
	// Alias this request's future under the resolved key too, so a
	// concurrent caller requesting the resolved version directly
	// coalesces onto the same pending work.
	f.manifestCache[resolvedKey] = requestFut
	f.mu.Unlock()

	return f.fetchManifest(ctx, pkg, resolved)
}

func (f *Fetcher) resolveVersion(ctx context.Context, pkg, versionOrTag string) (string, error) {
	key := cacheKey(pkg, versionOrTag)

	f.mu.Lock()
	if fut, ok := f.resolvedVersionCache[key]; ok {
		f.mu.Unlock()
		return fut.wait()
	}
	fut := newFuture[string]()
	f.resolvedVersionCache[key] = fut
	f.mu.Unlock()

	resolved, err := f.registry.ResolveVersion(ctx, pkg, versionOrTag)
	fut.resolve(resolved, err)
	return resolved, err
}

// fetchManifest implements spec.md §4.3 steps 3-4: registry-first,
// temp-install fallback.
func (f *Fetcher) fetchManifest(ctx context.Context, pkg, resolved string) (manifest.MigrationManifest, error) {
	m, err := f.fetchViaRegistry(ctx, pkg, resolved)
	if err == nil {
		return m, nil
	}

	m, fallbackErr := f.fetchViaTempInstall(ctx, pkg, resolved)
	if fallbackErr != nil {
		return manifest.MigrationManifest{}, fallbackErr
	}
	return m, nil
}

func (f *Fetcher) fetchViaRegistry(ctx context.Context, pkg, resolved string) (manifest.MigrationManifest, error) {
	view, err := f.registry.View(ctx, pkg, resolved)
	if err != nil {
		return manifest.MigrationManifest{}, fmt.Errorf("%w: viewing %s@%s: %v", migerr.ErrRegistryTransient, pkg, resolved, err)
	}

	ptr := view.MigrationsPointer()
	if ptr == nil {
		return manifest.MigrationManifest{Version: manifest.Version(resolved)}, nil
	}
	if ptr.Migrations == "" {
		return manifest.MigrationManifest{Version: manifest.Version(resolved), PackageGroup: ptr.PackageGroup}, nil
	}

	scratch, cleanup, err := f.scratchDir(pkg, resolved)
	if err != nil {
		return manifest.MigrationManifest{}, fmt.Errorf("%w: %v", migerr.ErrRegistryTransient, err)
	}
	defer cleanup()

	tarballPath, err := f.registry.Pack(ctx, scratch, pkg, resolved)
	if err != nil {
		return manifest.MigrationManifest{}, fmt.Errorf("%w: packing %s@%s: %v", migerr.ErrRegistryTransient, pkg, resolved, err)
	}

	outPath := filepath.Join(scratch, "migrations.json")
	extractedPath, err := registry.ExtractFileFromTarball(tarballPath, ptr.Migrations, outPath)
	if err != nil {
		return manifest.MigrationManifest{}, fmt.Errorf("failed to find migrations file %s in %s@%s: %w", ptr.Migrations, pkg, resolved, err)
	}

	data, err := os.ReadFile(extractedPath)
	if err != nil {
		return manifest.MigrationManifest{}, fmt.Errorf("%w: %v", migerr.ErrMigrationsFileMissing, err)
	}
	parsed, err := manifest.ParseMigrationManifest(data)
	if err != nil {
		return manifest.MigrationManifest{}, err
	}
	parsed.Version = manifest.Version(resolved)
	if parsed.PackageGroup.Empty() {
		parsed.PackageGroup = ptr.PackageGroup
	}
	return parsed, nil
}

// fetchViaTempInstall implements the step-4 fallback: pull the
// package's own package.json out of its tarball, read its own
// nx-migrations/ng-update pointer from that (rather than trusting the
// registry view metadata that just failed), and resolve the migrations
// file from the same tarball.
func (f *Fetcher) fetchViaTempInstall(ctx context.Context, pkg, resolved string) (manifest.MigrationManifest, error) {
	scratch, cleanup, err := f.scratchDir(pkg, resolved)
	if err != nil {
		return manifest.MigrationManifest{}, fmt.Errorf("%w: %v", migerr.ErrRegistryTransient, err)
	}
	defer cleanup()

	tarballPath, err := f.registry.Pack(ctx, scratch, pkg, resolved)
	if err != nil {
		return manifest.MigrationManifest{}, fmt.Errorf("%w: installing %s@%s: %v", migerr.ErrRegistryTransient, pkg, resolved, err)
	}

	ownManifestPath := filepath.Join(scratch, "package.json")
	if _, err := registry.ExtractFileFromTarball(tarballPath, "package.json", ownManifestPath); err != nil {
		return manifest.MigrationManifest{}, fmt.Errorf("%w: reading installed manifest for %s@%s: %v", migerr.ErrMigrationsFileMissing, pkg, resolved, err)
	}

	installedVersion, ptr, err := readOwnManifest(ownManifestPath)
	if err != nil {
		return manifest.MigrationManifest{}, fmt.Errorf("%w: %v", migerr.ErrMigrationsFileMissing, err)
	}
	if installedVersion == "" {
		installedVersion = resolved
	}
	if ptr == nil || ptr.Migrations == "" {
		return manifest.MigrationManifest{Version: manifest.Version(installedVersion)}, nil
	}

	outPath := filepath.Join(scratch, "migrations-install.json")
	extractedPath, err := registry.ExtractFileFromTarball(tarballPath, ptr.Migrations, outPath)
	if err != nil {
		return manifest.MigrationManifest{}, fmt.Errorf("failed to find migrations file %s in %s@%s: %w", ptr.Migrations, pkg, resolved, err)
	}

	data, err := os.ReadFile(extractedPath)
	if err != nil {
		return manifest.MigrationManifest{}, fmt.Errorf("%w: %v", migerr.ErrMigrationsFileMissing, err)
	}
	parsed, err := manifest.ParseMigrationManifest(data)
	if err != nil {
		return manifest.MigrationManifest{}, err
	}
	parsed.Version = manifest.Version(installedVersion)
	if parsed.PackageGroup.Empty() {
		parsed.PackageGroup = ptr.PackageGroup
	}
	return parsed, nil
}

// readOwnManifest reads a package.json extracted to disk and returns
// its version and migrations pointer, preferring nx-migrations over
// ng-update.
func readOwnManifest(path string) (string, *manifest.MigrationsPointer, error) {
	return manifest.ReadInstalledPackageManifest(fsops.NewRealFS(), path)
}

func (f *Fetcher) scratchDir(pkg, resolved string) (dir string, cleanup func(), err error) {
	name := strings.ReplaceAll(pkg, "/", "_") + "-" + resolved
	dir, err = os.MkdirTemp(f.tmpRoot, "fetch-"+name+"-*")
	if err != nil {
		return "", func() {}, err
	}
	return dir, func() { _ = os.RemoveAll(dir) }, nil
}
