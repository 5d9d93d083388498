package plan

import (
	"testing"

	"github.com/wsmigrate/wsmigrate/internal/fsops"
	"github.com/wsmigrate/wsmigrate/internal/manifest"
	"github.com/wsmigrate/wsmigrate/internal/orderedmap"
)

func newTestWorkspace(t *testing.T, body string) *manifest.Workspace {
	t.Helper()
	fs := fsops.NewFakeFS()
	fs.Files["package.json"] = []byte(body)
	w, err := manifest.LoadWorkspace(fs, "package.json")
	if err != nil {
		t.Fatalf("LoadWorkspace() error = %v", err)
	}
	return w
}

func entryWithPackages(version string, packages map[string]manifest.PackageJsonUpdateForPackage) manifest.PackageJsonUpdateEntry {
	m := orderedmap.New[manifest.PackageJsonUpdateForPackage]()
	for k, v := range packages {
		m.Set(k, v)
	}
	return manifest.PackageJsonUpdateEntry{Version: manifest.Version(version), Packages: m}
}

func TestFilterEntriesDropsBelowInstalledOrAboveTarget(t *testing.T) {
	updates := orderedmap.New[manifest.PackageJsonUpdateEntry]()
	updates.Set("too-low", entryWithPackages("1.0.0", map[string]manifest.PackageJsonUpdateForPackage{"q": {Version: "0.1.0", AlwaysAddToPackageJson: true}}))
	updates.Set("too-high", entryWithPackages("3.0.0", map[string]manifest.PackageJsonUpdateForPackage{"q": {Version: "0.1.0", AlwaysAddToPackageJson: true}}))
	updates.Set("in-range", entryWithPackages("1.5.0", map[string]manifest.PackageJsonUpdateForPackage{"q": {Version: "0.3.0", AlwaysAddToPackageJson: true}}))

	s := NewState(nil, nil)
	ws := newTestWorkspace(t, `{}`)
	resolver := newFakeResolver(nil)

	filtered, err := filterEntries(updates, "1.0.0", true, "2.0.0", s, ws, resolver)
	if err != nil {
		t.Fatalf("filterEntries() error = %v", err)
	}
	if len(filtered) != 1 || filtered[0].Version != "1.5.0" {
		t.Fatalf("filtered = %+v, want exactly the in-range entry", filtered)
	}
}

func TestFilterEntriesKeepsPackageAlreadyInManifest(t *testing.T) {
	updates := orderedmap.New[manifest.PackageJsonUpdateEntry]()
	updates.Set("e", entryWithPackages("1.5.0", map[string]manifest.PackageJsonUpdateForPackage{
		"q": {Version: "0.3.0"},
	}))

	s := NewState(nil, nil)
	ws := newTestWorkspace(t, `{"dependencies": {"q": "0.1.0"}}`)
	resolver := newFakeResolver(nil)

	filtered, err := filterEntries(updates, "1.0.0", true, "2.0.0", s, ws, resolver)
	if err != nil {
		t.Fatalf("filterEntries() error = %v", err)
	}
	if len(filtered) != 1 {
		t.Fatalf("filtered = %+v, want 1 entry (q already in dependencies)", filtered)
	}
	got, ok := filtered[0].Packages.Get("q")
	if !ok || got.Version != "0.3.0" {
		t.Errorf("q update = %+v, %v, want version 0.3.0", got, ok)
	}
}

// TestFilterEntriesDropsPackageOnlyInPeerDependencies replicates
// spec.md §4.5.2's narrower "already appears" check: a package listed
// only under peerDependencies (not dependencies/devDependencies) that
// isn't itself being added must still be dropped.
func TestFilterEntriesDropsPackageOnlyInPeerDependencies(t *testing.T) {
	updates := orderedmap.New[manifest.PackageJsonUpdateEntry]()
	updates.Set("e", entryWithPackages("1.5.0", map[string]manifest.PackageJsonUpdateForPackage{
		"q": {Version: "0.3.0"},
	}))

	s := NewState(nil, nil)
	ws := newTestWorkspace(t, `{"peerDependencies": {"q": "0.1.0"}}`)
	resolver := newFakeResolver(nil)

	filtered, err := filterEntries(updates, "1.0.0", true, "2.0.0", s, ws, resolver)
	if err != nil {
		t.Fatalf("filterEntries() error = %v", err)
	}
	if len(filtered) != 0 {
		t.Fatalf("filtered = %+v, want empty (q only in peerDependencies, not added)", filtered)
	}
}

func TestFilterEntriesDropsPackageNotInstalledAndNotAdded(t *testing.T) {
	updates := orderedmap.New[manifest.PackageJsonUpdateEntry]()
	updates.Set("e", entryWithPackages("1.5.0", map[string]manifest.PackageJsonUpdateForPackage{
		"q": {Version: "0.3.0"},
	}))

	s := NewState(nil, nil)
	ws := newTestWorkspace(t, `{}`)
	resolver := newFakeResolver(nil)

	filtered, err := filterEntries(updates, "1.0.0", true, "2.0.0", s, ws, resolver)
	if err != nil {
		t.Fatalf("filterEntries() error = %v", err)
	}
	if len(filtered) != 0 {
		t.Fatalf("filtered = %+v, want empty (q neither added nor already installed)", filtered)
	}
}

func TestFilterEntriesRespectsIfPackageInstalled(t *testing.T) {
	updates := orderedmap.New[manifest.PackageJsonUpdateEntry]()
	updates.Set("e", entryWithPackages("1.5.0", map[string]manifest.PackageJsonUpdateForPackage{
		"q": {Version: "0.3.0", AlwaysAddToPackageJson: true, IfPackageInstalled: "companion"},
	}))

	s := NewState(nil, nil)
	ws := newTestWorkspace(t, `{}`)
	resolver := newFakeResolver(nil) // companion not installed

	filtered, err := filterEntries(updates, "1.0.0", true, "2.0.0", s, ws, resolver)
	if err != nil {
		t.Fatalf("filterEntries() error = %v", err)
	}
	if len(filtered) != 0 {
		t.Fatalf("filtered = %+v, want empty (companion not installed)", filtered)
	}
}

func TestFilterEntriesDropsSupersededByCollectedVersion(t *testing.T) {
	updates := orderedmap.New[manifest.PackageJsonUpdateEntry]()
	updates.Set("e", entryWithPackages("1.5.0", map[string]manifest.PackageJsonUpdateForPackage{
		"q": {Version: "0.3.0", AlwaysAddToPackageJson: true},
	}))

	s := NewState(nil, nil)
	s.SetCollectedVersion("q", "0.5.0")
	ws := newTestWorkspace(t, `{}`)
	resolver := newFakeResolver(nil)

	filtered, err := filterEntries(updates, "1.0.0", true, "2.0.0", s, ws, resolver)
	if err != nil {
		t.Fatalf("filterEntries() error = %v", err)
	}
	if len(filtered) != 0 {
		t.Fatalf("filtered = %+v, want empty (0.3.0 superseded by collected 0.5.0)", filtered)
	}
}

func TestFilterEntriesCanonicalizesAlwaysAddToDependencies(t *testing.T) {
	updates := orderedmap.New[manifest.PackageJsonUpdateEntry]()
	updates.Set("e", entryWithPackages("1.5.0", map[string]manifest.PackageJsonUpdateForPackage{
		"q": {Version: "0.3.0", AlwaysAddToPackageJson: true},
	}))

	s := NewState(nil, nil)
	ws := newTestWorkspace(t, `{}`)
	resolver := newFakeResolver(nil)

	filtered, err := filterEntries(updates, "1.0.0", true, "2.0.0", s, ws, resolver)
	if err != nil {
		t.Fatalf("filterEntries() error = %v", err)
	}
	got, _ := filtered[0].Packages.Get("q")
	if got.AddToPackageJson.None || got.AddToPackageJson.Section != "dependencies" {
		t.Errorf("AddToPackageJson = %+v, want {Section: dependencies}", got.AddToPackageJson)
	}
}
