// Package manifest models the on-disk shapes wsmigrate reads and
// writes: migration manifests fetched per-package, the root workspace
// manifest (package.json), and the package groups a publisher
// declares. Several of these shapes are sum types or have more than
// one accepted JSON form — this package is where that dynamic shape
// is resolved into one normalized Go representation, exactly once, at
// parse time.
package manifest

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/wsmigrate/wsmigrate/internal/orderedmap"
)

// Version is a canonical or tag-form version string. Comparison and
// normalization live in internal/semver; this package only carries
// the string through.
type Version string

// AddTarget is the sum type `false | "dependencies" | "devDependencies"`
// that governs whether and where a package update is written into the
// root manifest.
type AddTarget struct {
	// None is true when the JSON value was the literal `false`.
	None bool
	// Section is "dependencies" or "devDependencies" when None is false.
	Section string
}

// AddTargetNone is the canonical "do not touch the manifest" value.
var AddTargetNone = AddTarget{None: true}

// AddTargetDependencies targets the "dependencies" section.
func AddTargetDependencies() AddTarget { return AddTarget{Section: "dependencies"} }

// AddTargetDevDependencies targets the "devDependencies" section.
func AddTargetDevDependencies() AddTarget { return AddTarget{Section: "devDependencies"} }

// MarshalJSON writes false, or the section name as a string.
func (a AddTarget) MarshalJSON() ([]byte, error) {
	if a.None {
		return []byte("false"), nil
	}
	return json.Marshal(a.Section)
}

// UnmarshalJSON accepts `false`, `"dependencies"`, or `"devDependencies"`.
func (a *AddTarget) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "false" || trimmed == "null" {
		*a = AddTarget{None: true}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("addToPackageJson: expected false or a section name, got %s", trimmed)
	}
	if s != "dependencies" && s != "devDependencies" {
		return fmt.Errorf("addToPackageJson: unknown section %q", s)
	}
	*a = AddTarget{Section: s}
	return nil
}

// PackageJsonUpdateForPackage describes a single package's update
// within one keyed manifest entry.
type PackageJsonUpdateForPackage struct {
	Version                Version   `json:"version"`
	AddToPackageJson       AddTarget `json:"addToPackageJson,omitempty"`
	AlwaysAddToPackageJson bool      `json:"alwaysAddToPackageJson,omitempty"`
	IfPackageInstalled     string    `json:"ifPackageInstalled,omitempty"`
}

// PackageJsonUpdateEntry is one keyed entry of a manifest's
// packageJsonUpdates table.
type PackageJsonUpdateEntry struct {
	Version  Version                                             `json:"version"`
	Packages *orderedmap.Map[PackageJsonUpdateForPackage]        `json:"packages,omitempty"`
	Requires map[string]string                                   `json:"requires,omitempty"`
	XPrompt  string                                               `json:"x-prompt,omitempty"`
}

// MigrationGenerator describes one code-modifying migration.
type MigrationGenerator struct {
	Version        Version           `json:"version"`
	Description    string            `json:"description,omitempty"`
	Implementation string            `json:"implementation,omitempty"`
	Factory        string            `json:"factory,omitempty"`
	Cli            string            `json:"cli,omitempty"`
	Requires       map[string]string `json:"requires,omitempty"`
}

// ImplementationPath returns the generator's declared implementation
// module, preferring "implementation" over the older "factory" key.
func (g MigrationGenerator) ImplementationPath() string {
	if g.Implementation != "" {
		return g.Implementation
	}
	return g.Factory
}

// MigrationManifest is a single package's fetched migrations.json /
// migrations declaration, after normalization.
type MigrationManifest struct {
	Version            Version                                          `json:"version"`
	PackageJsonUpdates *orderedmap.Map[PackageJsonUpdateEntry]          `json:"packageJsonUpdates,omitempty"`
	Generators         *orderedmap.Map[MigrationGenerator]              `json:"generators,omitempty"`
	PackageGroup       PackageGroup                                     `json:"packageGroup,omitempty"`
}

// rawMigrationManifest mirrors MigrationManifest but keeps the legacy
// "schematics" key separately so UnmarshalJSON can rename it to
// "generators" exactly once, at this boundary, per the one documented
// rename point for that shape.
type rawMigrationManifest struct {
	Version            Version                                 `json:"version"`
	PackageJsonUpdates *orderedmap.Map[PackageJsonUpdateEntry]  `json:"packageJsonUpdates,omitempty"`
	Generators         *orderedmap.Map[MigrationGenerator]      `json:"generators,omitempty"`
	Schematics         *orderedmap.Map[MigrationGenerator]      `json:"schematics,omitempty"`
	PackageGroup       PackageGroup                             `json:"packageGroup,omitempty"`
}

// UnmarshalJSON accepts either "generators" or the legacy "schematics"
// key, renaming the latter to the former.
func (m *MigrationManifest) UnmarshalJSON(data []byte) error {
	var raw rawMigrationManifest
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	generators := raw.Generators
	if generators == nil && raw.Schematics != nil {
		generators = raw.Schematics
	}
	*m = MigrationManifest{
		Version:            raw.Version,
		PackageJsonUpdates: raw.PackageJsonUpdates,
		Generators:         generators,
		PackageGroup:       raw.PackageGroup,
	}
	return nil
}

// MarshalJSON writes the normalized "generators" key; the legacy
// "schematics" shape is never re-emitted once parsed.
func (m MigrationManifest) MarshalJSON() ([]byte, error) {
	aux := struct {
		Version            Version                                  `json:"version"`
		PackageJsonUpdates *orderedmap.Map[PackageJsonUpdateEntry]   `json:"packageJsonUpdates,omitempty"`
		Generators         *orderedmap.Map[MigrationGenerator]       `json:"generators,omitempty"`
		PackageGroup       PackageGroup                              `json:"packageGroup,omitempty"`
	}{m.Version, m.PackageJsonUpdates, m.Generators, m.PackageGroup}
	return json.Marshal(aux)
}
