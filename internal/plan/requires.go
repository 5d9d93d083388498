package plan

import "github.com/wsmigrate/wsmigrate/internal/semver"

// requirementsSatisfied implements spec.md §4.5.3: for every
// (pkg, range) pair in requires, at least one of three checks must
// hold. An absent/empty requires map is trivially satisfied.
func requirementsSatisfied(
	requires map[string]string,
	state *State,
	resolver InstalledResolver,
	extraCheck map[string]string,
) (bool, error) {
	for pkg, rng := range requires {
		ok, err := requirementSatisfied(pkg, rng, state, resolver, extraCheck)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func requirementSatisfied(
	pkg, rng string,
	state *State,
	resolver InstalledResolver,
	extraCheck map[string]string,
) (bool, error) {
	installed, found, err := resolver.InstalledVersion(pkg, state.OverridesSnapshot())
	if err != nil {
		return false, err
	}
	if found && semver.SatisfiesRange(installed, rng) {
		return true, nil
	}

	if planned, ok := state.Update(pkg); ok && semver.SatisfiesRange(string(planned.Version), rng) {
		return true, nil
	}

	if extraCheck != nil {
		if v, ok := extraCheck[pkg]; ok && semver.SatisfiesRange(semver.CleanSemver(v), rng) {
			return true, nil
		}
	}

	return false, nil
}
