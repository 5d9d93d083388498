// Package registry is the external package-registry collaborator:
// viewing a package's metadata, resolving a tag or range to a concrete
// version, and pulling down the published tarball so the fetcher can
// pull a single migrations file out of it.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	mmsemver "github.com/Masterminds/semver/v3"
	"github.com/wsmigrate/wsmigrate/internal/manifest"
	"github.com/wsmigrate/wsmigrate/internal/migerr"
)

// ViewResult is the subset of a package's registry metadata the
// fetcher needs for one resolved version.
type ViewResult struct {
	Version      string
	TarballURL   string
	NxMigrations *manifest.MigrationsPointer
	NgUpdate     *manifest.MigrationsPointer
}

// MigrationsPointer prefers nx-migrations over the legacy ng-update,
// matching the same precedence ReadInstalledPackageManifest uses for a
// locally installed package's own manifest.
func (v ViewResult) MigrationsPointer() *manifest.MigrationsPointer {
	if v.NxMigrations != nil {
		return v.NxMigrations
	}
	return v.NgUpdate
}

// Client is the registry collaborator's contract.
type Client interface {
	// View fetches metadata for (pkg, version).
	View(ctx context.Context, pkg, version string) (ViewResult, error)

	// ResolveVersion resolves a tag or semver range to a concrete
	// published version.
	ResolveVersion(ctx context.Context, pkg, versionOrTag string) (string, error)

	// Pack downloads the published tarball for (pkg, version) into
	// dir, returning the tarball's local path.
	Pack(ctx context.Context, dir, pkg, version string) (tarballPath string, err error)
}

// RealClient talks to an npm-registry-shaped HTTP API.
type RealClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewRealClient creates a RealClient against baseURL (e.g.
// "https://registry.npmjs.org") with an HTTP client whose timeout is
// 30s.
func NewRealClient(baseURL string) *RealClient {
	return &RealClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type packumentVersion struct {
	Version      string                      `json:"version"`
	Dist         struct{ Tarball string }    `json:"dist"`
	NxMigrations *manifest.MigrationsPointer `json:"nx-migrations,omitempty"`
	NgUpdate     *manifest.MigrationsPointer `json:"ng-update,omitempty"`
}

type packument struct {
	DistTags map[string]string           `json:"dist-tags"`
	Versions map[string]packumentVersion `json:"versions"`
}

func (c *RealClient) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", migerr.ErrRegistryTransient, err)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", migerr.ErrRegistryTransient, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", migerr.ErrNoMatchingVersion, path)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: registry returned %s for %s", migerr.ErrRegistryTransient, resp.Status, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding response for %s: %v", migerr.ErrRegistryTransient, path, err)
	}
	return nil
}

// View fetches version metadata via GET /<pkg>/<version>.
func (c *RealClient) View(ctx context.Context, pkg, version string) (ViewResult, error) {
	var pv packumentVersion
	if err := c.getJSON(ctx, "/"+url.PathEscape(pkg)+"/"+url.PathEscape(version), &pv); err != nil {
		return ViewResult{}, err
	}
	return ViewResult{
		Version:      pv.Version,
		TarballURL:   pv.Dist.Tarball,
		NxMigrations: pv.NxMigrations,
		NgUpdate:     pv.NgUpdate,
	}, nil
}

// ResolveVersion resolves a dist-tag or semver range against the full
// packument for pkg.
func (c *RealClient) ResolveVersion(ctx context.Context, pkg, versionOrTag string) (string, error) {
	var doc packument
	if err := c.getJSON(ctx, "/"+url.PathEscape(pkg), &doc); err != nil {
		return "", err
	}

	if resolved, ok := doc.DistTags[versionOrTag]; ok {
		return resolved, nil
	}

	constraint, err := mmsemver.NewConstraint(versionOrTag)
	if err != nil {
		return "", fmt.Errorf("%w: %s@%s is not a known tag or valid range", migerr.ErrNoMatchingVersion, pkg, versionOrTag)
	}

	var candidates []*mmsemver.Version
	for v := range doc.Versions {
		if parsed, err := mmsemver.NewVersion(v); err == nil && constraint.Check(parsed) {
			candidates = append(candidates, parsed)
		}
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("%w: no version of %s satisfies %s", migerr.ErrNoMatchingVersion, pkg, versionOrTag)
	}
	sort.Sort(mmsemver.Collection(candidates))
	return candidates[len(candidates)-1].String(), nil
}

// Pack downloads the published tarball for (pkg, version) into dir.
func (c *RealClient) Pack(ctx context.Context, dir, pkg, version string) (string, error) {
	view, err := c.View(ctx, pkg, version)
	if err != nil {
		return "", err
	}
	if view.TarballURL == "" {
		return "", fmt.Errorf("%w: %s@%s has no tarball url", migerr.ErrRegistryTransient, pkg, version)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, view.TarballURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", migerr.ErrRegistryTransient, err)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", migerr.ErrRegistryTransient, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: downloading tarball returned %s", migerr.ErrRegistryTransient, resp.Status)
	}

	name := strings.ReplaceAll(pkg, "/", "-")
	tarballPath := filepath.Join(dir, fmt.Sprintf("%s-%s.tgz", name, version))
	out, err := os.Create(tarballPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", migerr.ErrRegistryTransient, err)
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return "", fmt.Errorf("%w: %v", migerr.ErrRegistryTransient, err)
	}
	return tarballPath, nil
}
