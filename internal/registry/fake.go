package registry

import (
	"context"
	"fmt"
)

// FakeClient is a test double that tracks calls and returns canned,
// per-package-and-version responses, following the teacher's
// FakeGitPersistence call-recording pattern.
type FakeClient struct {
	ViewCalls           []ViewCall
	ResolveVersionCalls []ResolveVersionCall
	PackCalls           []PackCall

	// Views keys by "<pkg>@<version>".
	Views map[string]ViewResult
	// ViewErrs keys by "<pkg>@<version>".
	ViewErrs map[string]error

	// Resolutions keys by "<pkg>@<versionOrTag>".
	Resolutions map[string]string
	// ResolutionErrs keys by "<pkg>@<versionOrTag>".
	ResolutionErrs map[string]error

	// PackPaths keys by "<pkg>@<version>".
	PackPaths map[string]string
	PackErrs  map[string]error
}

type ViewCall struct {
	Pkg, Version string
}

type ResolveVersionCall struct {
	Pkg, VersionOrTag string
}

type PackCall struct {
	Dir, Pkg, Version string
}

// NewFakeClient creates an empty FakeClient.
func NewFakeClient() *FakeClient {
	return &FakeClient{
		Views:          make(map[string]ViewResult),
		ViewErrs:       make(map[string]error),
		Resolutions:    make(map[string]string),
		ResolutionErrs: make(map[string]error),
		PackPaths:      make(map[string]string),
		PackErrs:       make(map[string]error),
	}
}

func key2(a, b string) string { return a + "@" + b }

// SetView configures the canned View response for (pkg, version).
func (f *FakeClient) SetView(pkg, version string, result ViewResult) {
	f.Views[key2(pkg, version)] = result
}

// SetResolution configures the canned ResolveVersion response.
func (f *FakeClient) SetResolution(pkg, versionOrTag, resolved string) {
	f.Resolutions[key2(pkg, versionOrTag)] = resolved
}

// SetPack configures the canned Pack response.
func (f *FakeClient) SetPack(pkg, version, tarballPath string) {
	f.PackPaths[key2(pkg, version)] = tarballPath
}

func (f *FakeClient) View(ctx context.Context, pkg, version string) (ViewResult, error) {
	f.ViewCalls = append(f.ViewCalls, ViewCall{Pkg: pkg, Version: version})
	k := key2(pkg, version)
	if err, ok := f.ViewErrs[k]; ok {
		return ViewResult{}, err
	}
	if result, ok := f.Views[k]; ok {
		return result, nil
	}
	return ViewResult{}, fmt.Errorf("fake registry: no view configured for %s", k)
}

func (f *FakeClient) ResolveVersion(ctx context.Context, pkg, versionOrTag string) (string, error) {
	f.ResolveVersionCalls = append(f.ResolveVersionCalls, ResolveVersionCall{Pkg: pkg, VersionOrTag: versionOrTag})
	k := key2(pkg, versionOrTag)
	if err, ok := f.ResolutionErrs[k]; ok {
		return "", err
	}
	if resolved, ok := f.Resolutions[k]; ok {
		return resolved, nil
	}
	return "", fmt.Errorf("fake registry: no resolution configured for %s", k)
}

func (f *FakeClient) Pack(ctx context.Context, dir, pkg, version string) (string, error) {
	f.PackCalls = append(f.PackCalls, PackCall{Dir: dir, Pkg: pkg, Version: version})
	k := key2(pkg, version)
	if err, ok := f.PackErrs[k]; ok {
		return "", err
	}
	if path, ok := f.PackPaths[k]; ok {
		return path, nil
	}
	return "", fmt.Errorf("fake registry: no pack path configured for %s", k)
}
