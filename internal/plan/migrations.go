package plan

import (
	"context"
	"fmt"

	"github.com/wsmigrate/wsmigrate/internal/manifest"
	"github.com/wsmigrate/wsmigrate/internal/semver"
)

// MigrationEntry is one flattened, ordered generator to run, per
// spec.md §4.5.4.
type MigrationEntry struct {
	Package        string
	Name           string
	Version        string
	Description    string
	Implementation string
	Cli            string
}

// assembleMigrations implements spec.md §4.5.4: for every planned
// package, keep every generator whose version falls strictly after
// the installed version and no later than the planned version, and
// whose requires is satisfied against the final plan. Ordering is
// plan-insertion order (the Planner's own traversal order), then
// generators in declared manifest order within each package.
func assembleMigrations(ctx context.Context, r *run, order []string) ([]MigrationEntry, error) {
	seen := make(map[string]bool, len(order))
	var migrations []MigrationEntry

	for _, pkg := range order {
		if seen[pkg] {
			continue
		}
		seen[pkg] = true

		planned, ok := r.state.Update(pkg)
		if !ok {
			continue
		}

		installed, found, err := r.resolver.InstalledVersion(pkg, r.state.OverridesSnapshot())
		if err != nil {
			return nil, fmt.Errorf("resolving installed version of %s for migration assembly: %w", pkg, err)
		}
		installedForCompare := installed
		if !found {
			installedForCompare = semver.Zero
		}

		m, err := r.fetcher.Fetch(ctx, pkg, string(planned.Version))
		if err != nil {
			return nil, fmt.Errorf("fetching manifest for %s@%s: %w", pkg, planned.Version, err)
		}
		if m.Generators == nil {
			continue
		}

		var rangeErr error
		m.Generators.Range(func(name string, g manifest.MigrationGenerator) bool {
			if !semver.Gt(string(g.Version), installedForCompare) {
				return true
			}
			if !semver.Lte(string(g.Version), string(planned.Version)) {
				return true
			}
			gate, err := requirementsSatisfied(g.Requires, r.state, r.resolver, nil)
			if err != nil {
				rangeErr = fmt.Errorf("checking requires for generator %s/%s: %w", pkg, name, err)
				return false
			}
			if !gate {
				return true
			}
			migrations = append(migrations, MigrationEntry{
				Package:        pkg,
				Name:           name,
				Version:        string(g.Version),
				Description:    g.Description,
				Implementation: g.ImplementationPath(),
				Cli:            g.Cli,
			})
			return true
		})
		if rangeErr != nil {
			return nil, rangeErr
		}
	}

	return migrations, nil
}
