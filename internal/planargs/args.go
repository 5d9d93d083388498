// Package planargs implements spec.md §4.4's argument normalization:
// turning the already-split command-line flags into either a
// RunMigrations or a GenerateMigrations request.
package planargs

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wsmigrate/wsmigrate/internal/migerr"
	"github.com/wsmigrate/wsmigrate/internal/semver"
)

// RunMigrations selects "replay an existing migration list" mode.
type RunMigrations struct {
	MigrationsFilePath string
}

// GenerateMigrations selects "compute a new migration plan" mode.
type GenerateMigrations struct {
	TargetPackage string
	TargetVersion string
	From          map[string]string
	To            map[string]string
	Interactive   bool
}

// Options is the cobra-parsed flag bag planargs normalizes. RunMigrationsSet
// distinguishes an empty-string --run-migrations from a flag the user
// never passed at all.
type Options struct {
	PackageAndVersion string
	From              string
	To                string
	Interactive       bool
	RunMigrations     string
	RunMigrationsSet  bool
}

// legacyNameCutoff is the version below which a bare version shorthand
// resolves to the legacy @nrwl/workspace package instead of nx.
const legacyNameCutoff = "14.0.0-beta.0"

// Parse normalizes raw into a RunMigrations or GenerateMigrations value.
func Parse(raw Options) (interface{}, error) {
	if raw.RunMigrationsSet {
		path := raw.RunMigrations
		if path == "" {
			path = "migrations.json"
		}
		return RunMigrations{MigrationsFilePath: path}, nil
	}

	from, err := parseVersionList("from", raw.From)
	if err != nil {
		return nil, err
	}
	to, err := parseVersionList("to", raw.To)
	if err != nil {
		return nil, err
	}

	pkg, version := disambiguatePackageAndVersion(raw.PackageAndVersion)

	return GenerateMigrations{
		TargetPackage: normalizePackageName(pkg),
		TargetVersion: version,
		From:          from,
		To:            to,
		Interactive:   raw.Interactive,
	}, nil
}

// parseVersionList parses a "pkg1@v1,pkg2@v2" list. Each entry is split
// at its last "@", which must be at an index greater than 0, so scoped
// names such as "@nrwl/workspace@14.0.0" are accepted.
func parseVersionList(paramName, raw string) (map[string]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	result := make(map[string]string)
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		idx := strings.LastIndex(entry, "@")
		if idx <= 0 {
			return nil, fmt.Errorf("%w: malformed %s entry %q, expected pkg@version", migerr.ErrInputError, paramName, entry)
		}
		pkg := normalizePackageName(entry[:idx])
		version := entry[idx+1:]
		result[pkg] = version
	}
	return result, nil
}

// disambiguatePackageAndVersion implements spec.md §4.4's
// packageAndVersion rule.
func disambiguatePackageAndVersion(raw string) (pkg, version string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "nx", "latest"
	}

	if idx := strings.LastIndex(raw, "@"); idx > 0 {
		return raw[:idx], raw[idx+1:]
	}

	if isBareVersion(raw) {
		if semver.IsTag(raw) || semver.Gte(raw, legacyNameCutoff) {
			return "nx", raw
		}
		return "@nrwl/workspace", raw
	}

	return raw, "latest"
}

// isBareVersion reports whether raw looks like a version rather than a
// package name: a distinguished tag, a valid semver, or a numeric
// shorthand N[.N[.N]].
func isBareVersion(raw string) bool {
	if semver.IsTag(raw) {
		return true
	}
	if semver.Normalize(raw) != semver.Zero {
		return true
	}
	return isNumericShorthand(raw)
}

func isNumericShorthand(raw string) bool {
	parts := strings.Split(raw, ".")
	if len(parts) == 0 || len(parts) > 3 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
		if _, err := strconv.Atoi(p); err != nil {
			return false
		}
	}
	return true
}

// normalizePackageName converts backslashes to forward slashes, the
// canonical separator for scoped package names.
func normalizePackageName(name string) string {
	return strings.ReplaceAll(name, `\`, "/")
}
