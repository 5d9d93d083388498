package plan

import (
	"context"

	"github.com/wsmigrate/wsmigrate/internal/manifest"
)

// fakeResolver is a minimal InstalledResolver double: pkg -> version,
// with unlisted packages reported as not installed.
type fakeResolver struct {
	installed map[string]string
}

func newFakeResolver(installed map[string]string) *fakeResolver {
	return &fakeResolver{installed: installed}
}

func (f *fakeResolver) InstalledVersion(pkg string, overrides map[string]string) (string, bool, error) {
	if v, ok := overrides[pkg]; ok {
		return v, true, nil
	}
	v, ok := f.installed[pkg]
	return v, ok, nil
}

// fakeFetcher is a minimal Fetcher double: (pkg, versionOrTag) ->
// manifest.MigrationManifest, keyed exactly on the pair requested.
type fakeFetcher struct {
	manifests map[string]manifest.MigrationManifest
	errs      map[string]error
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		manifests: make(map[string]manifest.MigrationManifest),
		errs:      make(map[string]error),
	}
}

func (f *fakeFetcher) set(pkg, versionOrTag string, m manifest.MigrationManifest) {
	f.manifests[pkg+"@"+versionOrTag] = m
}

func (f *fakeFetcher) Fetch(ctx context.Context, pkg, versionOrTag string) (manifest.MigrationManifest, error) {
	key := pkg + "@" + versionOrTag
	if err, ok := f.errs[key]; ok {
		return manifest.MigrationManifest{}, err
	}
	if m, ok := f.manifests[key]; ok {
		return m, nil
	}
	return manifest.MigrationManifest{Version: manifest.Version(versionOrTag)}, nil
}

// fakeUpdate builds a minimal PackageJsonUpdateForPackage at version,
// for tests that only care about the version field.
func fakeUpdate(version string) manifest.PackageJsonUpdateForPackage {
	return manifest.PackageJsonUpdateForPackage{Version: manifest.Version(version)}
}
