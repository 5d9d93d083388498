package fetcher

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/wsmigrate/wsmigrate/internal/manifest"
	"github.com/wsmigrate/wsmigrate/internal/migerr"
	"github.com/wsmigrate/wsmigrate/internal/registry"
)

func writeTarball(t *testing.T, dir, name string, entries map[string]string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create tarball: %v", err)
	}
	defer func() { _ = f.Close() }()

	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	for entryName, content := range entries {
		hdr := &tar.Header{Name: entryName, Mode: 0644, Size: int64(len(content))}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("failed to write header: %v", err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatalf("failed to write content: %v", err)
		}
	}
	_ = tw.Close()
	_ = gz.Close()
	return path
}

func TestFetchViaRegistryNoOpWhenNoMigrationsPointer(t *testing.T) {
	client := registry.NewFakeClient()
	client.SetResolution("nx", "latest", "16.0.0")
	client.SetView("nx", "16.0.0", registry.ViewResult{Version: "16.0.0"})

	f := New(client, t.TempDir())
	m, err := f.Fetch(context.Background(), "nx", "latest")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if m.Version != "16.0.0" {
		t.Errorf("Version = %q, want 16.0.0", m.Version)
	}
	if m.Generators != nil && m.Generators.Len() > 0 {
		t.Errorf("expected no generators for no-op manifest")
	}
}

func TestFetchViaRegistryWithMigrationsFile(t *testing.T) {
	dir := t.TempDir()
	tarballPath := writeTarball(t, dir, "nx.tgz", map[string]string{
		"package/migrations.json": `{"version": "16.0.0", "generators": {"update-1": {"version": "16.0.0", "implementation": "./update-1"}}}`,
	})

	client := registry.NewFakeClient()
	client.SetResolution("nx", "16.0.0", "16.0.0")
	client.SetView("nx", "16.0.0", registry.ViewResult{
		Version: "16.0.0",
		NxMigrations: &manifest.MigrationsPointer{Migrations: "migrations.json"},
	})
	client.SetPack("nx", "16.0.0", tarballPath)

	f := New(client, dir)
	m, err := f.Fetch(context.Background(), "nx", "16.0.0")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if m.Generators == nil || m.Generators.Len() != 1 {
		t.Fatalf("expected 1 generator, got %+v", m.Generators)
	}
}

func TestFetchFallsBackToTempInstallOnViewFailure(t *testing.T) {
	dir := t.TempDir()
	tarballPath := writeTarball(t, dir, "nx.tgz", map[string]string{
		"package/package.json":    `{"version": "16.0.0", "nx-migrations": {"migrations": "migrations.json"}}`,
		"package/migrations.json": `{"version": "16.0.0", "generators": {"update-1": {"version": "16.0.0"}}}`,
	})

	client := registry.NewFakeClient()
	client.SetResolution("nx", "16.0.0", "16.0.0")
	client.ViewErrs["nx@16.0.0"] = migerr.ErrRegistryTransient
	client.SetPack("nx", "16.0.0", tarballPath)

	f := New(client, dir)
	m, err := f.Fetch(context.Background(), "nx", "16.0.0")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if m.Generators == nil || m.Generators.Len() != 1 {
		t.Fatalf("expected fallback path to recover generators, got %+v", m)
	}
}

func TestFetchCoalescesConcurrentRequests(t *testing.T) {
	client := registry.NewFakeClient()
	client.SetResolution("nx", "latest", "16.0.0")
	client.SetView("nx", "16.0.0", registry.ViewResult{Version: "16.0.0"})

	f := New(client, t.TempDir())

	results := make(chan manifest.MigrationManifest, 2)
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			m, err := f.Fetch(context.Background(), "nx", "latest")
			results <- m
			errs <- err
		}()
	}

	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		<-results
	}

	if len(client.ResolveVersionCalls) != 1 {
		t.Errorf("expected ResolveVersion to be called exactly once due to coalescing, got %d", len(client.ResolveVersionCalls))
	}
}

func TestFetchResolvedKeyAliasesTagRequest(t *testing.T) {
	client := registry.NewFakeClient()
	client.SetResolution("nx", "latest", "16.0.0")
	client.SetView("nx", "16.0.0", registry.ViewResult{Version: "16.0.0"})

	f := New(client, t.TempDir())

	if _, err := f.Fetch(context.Background(), "nx", "latest"); err != nil {
		t.Fatalf("Fetch(latest) error = %v", err)
	}
	if _, err := f.Fetch(context.Background(), "nx", "16.0.0"); err != nil {
		t.Fatalf("Fetch(16.0.0) error = %v", err)
	}

	if len(client.ViewCalls) != 1 {
		t.Errorf("expected View to be called once thanks to resolved-key aliasing, got %d", len(client.ViewCalls))
	}
}
