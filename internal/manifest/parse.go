package manifest

import (
	"encoding/json"
	"fmt"

	"github.com/wsmigrate/wsmigrate/internal/fsops"
)

// ParseMigrationManifest decodes a migrations.json document's bytes,
// performing the schematics-to-generators rename in
// MigrationManifest.UnmarshalJSON.
func ParseMigrationManifest(data []byte) (MigrationManifest, error) {
	var m MigrationManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return MigrationManifest{}, fmt.Errorf("failed to parse migration manifest: %w", err)
	}
	return m, nil
}

// installedPackageManifest is the minimal shape read from a package's
// own package.json to discover its nx-migrations/ng-update config and
// installed version.
type installedPackageManifest struct {
	Version      string                 `json:"version"`
	NxMigrations *MigrationsPointer     `json:"nx-migrations,omitempty"`
	NgUpdate     *MigrationsPointer     `json:"ng-update,omitempty"`
}

// MigrationsPointer is the `nx-migrations`/`ng-update` field of a
// package's own manifest: either a bare string naming the migrations
// file, or an object with a "migrations" field (and optionally a
// "packageGroup").
type MigrationsPointer struct {
	Migrations   string       `json:"-"`
	PackageGroup PackageGroup `json:"-"`
}

// UnmarshalJSON accepts a bare string or `{migrations, packageGroup?}`.
func (p *MigrationsPointer) UnmarshalJSON(data []byte) error {
	trimmed := data
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = MigrationsPointer{Migrations: s}
		return nil
	}
	var obj struct {
		Migrations   string       `json:"migrations"`
		PackageGroup PackageGroup `json:"packageGroup,omitempty"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*p = MigrationsPointer{Migrations: obj.Migrations, PackageGroup: obj.PackageGroup}
	return nil
}

// ReadInstalledPackageManifest reads `<dir>/package.json` for a
// package installed under node_modules, returning its version and its
// migrations pointer (nx-migrations preferred over ng-update), if any.
func ReadInstalledPackageManifest(fs fsops.FS, packageJSONPath string) (version string, pointer *MigrationsPointer, err error) {
	data, err := fs.ReadFile(packageJSONPath)
	if err != nil {
		return "", nil, err
	}
	var m installedPackageManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return "", nil, fmt.Errorf("failed to parse %s: %w", packageJSONPath, err)
	}
	if m.NxMigrations != nil {
		return m.Version, m.NxMigrations, nil
	}
	return m.Version, m.NgUpdate, nil
}
