package plan

import (
	"github.com/wsmigrate/wsmigrate/internal/manifest"
	"github.com/wsmigrate/wsmigrate/internal/orderedmap"
	"github.com/wsmigrate/wsmigrate/internal/semver"
)

// Entry is a packageJsonUpdates entry after filtering and canonical
// rewriting (spec.md §4.5.2): a gate (Requires/XPrompt) plus the
// packages map in its final {version, addToPackageJson} shape.
type Entry struct {
	Version  string
	Packages *orderedmap.Map[manifest.PackageJsonUpdateForPackage]
	Requires map[string]string
	XPrompt  string
}

// filterEntries implements spec.md §4.5.2 against the already
// packageGroup-spliced manifest updates for one root package: drop
// entries outside the applicable version window, then rewrite each
// retained entry's packages map to its canonical {version,
// addToPackageJson} form, dropping members that fail the
// ifPackageInstalled / already-added / not-superseded checks.
func filterEntries(
	updates *orderedmap.Map[manifest.PackageJsonUpdateEntry],
	installedRoot string,
	rootInstalled bool,
	targetVersion string,
	state *State,
	workspace *manifest.Workspace,
	resolver InstalledResolver,
) ([]Entry, error) {
	if updates == nil {
		return nil, nil
	}

	var out []Entry
	var rangeErr error
	updates.Range(func(_ string, entry manifest.PackageJsonUpdateEntry) bool {
		if entry.Packages == nil || entry.Packages.Len() == 0 {
			return true
		}
		if rootInstalled && semver.Lte(string(entry.Version), installedRoot) {
			return true
		}
		if semver.Gt(string(entry.Version), targetVersion) {
			return true
		}

		rewritten := orderedmap.New[manifest.PackageJsonUpdateForPackage]()
		entry.Packages.Range(func(name string, update manifest.PackageJsonUpdateForPackage) bool {
			if update.IfPackageInstalled != "" {
				_, found, err := resolver.InstalledVersion(update.IfPackageInstalled, state.OverridesSnapshot())
				if err != nil {
					rangeErr = err
					return false
				}
				if !found {
					return true
				}
			}

			// "Being added" means a disposition was explicitly declared for
			// this member, even an explicit false (spec.md §8 scenario 6:
			// addToPackageJson:false still plans the package, it just never
			// reaches the manifest writer). The Go zero value of AddTarget
			// is indistinguishable from "field absent in JSON" thanks to
			// omitempty, so comparing against the zero value here is exactly
			// the "was this ever specified" test.
			beingAdded := update.AlwaysAddToPackageJson || update.AddToPackageJson != manifest.AddTarget{}
			alreadyListed := workspace != nil && workspace.HasDependency(name)
			if !beingAdded && !alreadyListed {
				return true
			}

			if collected, ok := state.CollectedVersion(name); ok && !semver.Gt(string(update.Version), collected) {
				return true
			}

			target := update.AddToPackageJson
			if update.AlwaysAddToPackageJson {
				target = manifest.AddTargetDependencies()
			} else if target == (manifest.AddTarget{}) {
				target = manifest.AddTargetNone
			}
			rewritten.Set(name, manifest.PackageJsonUpdateForPackage{
				Version:          update.Version,
				AddToPackageJson: target,
			})
			return true
		})
		if rangeErr != nil {
			return false
		}

		if rewritten.Len() == 0 {
			return true
		}
		out = append(out, Entry{
			Version:  string(entry.Version),
			Packages: rewritten,
			Requires: entry.Requires,
			XPrompt:  entry.XPrompt,
		})
		return true
	})
	if rangeErr != nil {
		return nil, rangeErr
	}
	return out, nil
}
