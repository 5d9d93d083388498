package plan

import (
	"github.com/wsmigrate/wsmigrate/internal/manifest"
	"github.com/wsmigrate/wsmigrate/internal/semver"
)

// legacyNxWorkspaceCutoff is the version boundary below which
// @nrwl/workspace's packageGroup is replaced wholesale by the frozen
// legacy list, per spec.md §4.5.1.
const legacyNxWorkspaceCutoff = "14.0.0-beta.0"

// NormalizeGroup implements spec.md §4.5.1: substituting the legacy
// hard-coded group for old @nrwl/workspace targets, and propagating
// the parent's installed-version override to every group member whose
// own declared version is the "*" marker (map form) or implicit
// (bare-string list form) and that doesn't already carry an override
// of its own. Returns the ordered list of group member package names
// — the packageGroupOrder the rest of the traversal sorts by.
func NormalizeGroup(state *State, parentPkg, targetVersion string, group manifest.PackageGroup) []string {
	if parentPkg == "@nrwl/workspace" && semver.Gt(legacyNxWorkspaceCutoff, targetVersion) {
		group = manifest.LegacyNrwlWorkspaceGroup
	}

	if group.Empty() {
		return nil
	}

	parentOverride, parentHasOverride := state.Override(parentPkg)

	order := make([]string, 0, len(group.Members))
	for _, member := range group.Members {
		order = append(order, member.Package)

		propagates := member.Version == "*" || member.Version == ""
		if propagates && parentHasOverride {
			state.SetOverrideIfAbsent(member.Package, parentOverride)
		}
	}
	return order
}
