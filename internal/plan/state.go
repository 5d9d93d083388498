// Package plan implements the Planner: the traversal that turns a
// target package and version into a full packageJsonUpdates map and
// an ordered migration list, per spec.md §4.5.
package plan

import (
	"sync"

	"github.com/wsmigrate/wsmigrate/internal/manifest"
	"github.com/wsmigrate/wsmigrate/internal/semver"
)

// State is the single owned mutable value every sub-recursion of the
// traversal shares by reference: packageJsonUpdates (the plan),
// collectedVersions (cycle pruning), the mutable installed-version
// overrides a packageGroup's "*" propagation can grow, and the
// user's immutable --to pins. Every field is guarded by one mutex
// since the Planner issues concurrent fetches between which this
// state is mutated, per spec.md §5's cooperative-scheduling model.
type State struct {
	mu        sync.Mutex
	updates   map[string]manifest.PackageJsonUpdateForPackage
	collected map[string]string
	overrides map[string]string
	to        map[string]string
}

// NewState creates a State seeded with the --from overrides and the
// --to pins. Both input maps are copied; overrides grows during
// traversal, to never does.
func NewState(overrides, to map[string]string) *State {
	s := &State{
		updates:   make(map[string]manifest.PackageJsonUpdateForPackage),
		collected: make(map[string]string),
		overrides: make(map[string]string, len(overrides)),
		to:        make(map[string]string, len(to)),
	}
	for k, v := range overrides {
		s.overrides[k] = v
	}
	for k, v := range to {
		s.to[k] = v
	}
	return s
}

// AddPackageJsonUpdate records pkg's proposed update, keeping the
// strictly-greater version if one is already recorded (upgrade-only
// discipline, spec.md §3/§8). Returns whether the stored entry
// changed.
func (s *State) AddPackageJsonUpdate(pkg string, update manifest.PackageJsonUpdateForPackage) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.updates[pkg]
	if ok && !semver.Gt(string(update.Version), string(existing.Version)) {
		return false
	}
	s.updates[pkg] = update
	return true
}

// Update returns pkg's currently recorded update, if any.
func (s *State) Update(pkg string) (manifest.PackageJsonUpdateForPackage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.updates[pkg]
	return u, ok
}

// Updates returns a snapshot copy of the full plan.
func (s *State) Updates() map[string]manifest.PackageJsonUpdateForPackage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]manifest.PackageJsonUpdateForPackage, len(s.updates))
	for k, v := range s.updates {
		out[k] = v
	}
	return out
}

// CollectedVersion returns the highest version already planned for
// pkg, if any.
func (s *State) CollectedVersion(pkg string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.collected[pkg]
	return v, ok
}

// SetCollectedVersion records pkg as having been traversed at version.
func (s *State) SetCollectedVersion(pkg, version string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collected[pkg] = version
}

// Override returns the installed-version override for pkg, if set.
func (s *State) Override(pkg string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.overrides[pkg]
	return v, ok
}

// SetOverrideIfAbsent sets overrides[pkg] = version only if pkg has
// no override yet, implementing the "*" propagation rule of spec.md
// §4.5.1 (only fills a hole, never clobbers an explicit --from entry).
// Returns whether it set the value.
func (s *State) SetOverrideIfAbsent(pkg, version string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.overrides[pkg]; ok {
		return false
	}
	s.overrides[pkg] = version
	return true
}

// OverridesSnapshot returns a copy of the current override map, for
// passing to the Installed-Version Resolver.
func (s *State) OverridesSnapshot() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.overrides))
	for k, v := range s.overrides {
		out[k] = v
	}
	return out
}

// To returns the user-supplied --to pin for pkg, if set.
func (s *State) To(pkg string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.to[pkg]
	return v, ok
}
