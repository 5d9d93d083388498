package plan

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/wsmigrate/wsmigrate/internal/confirm"
	"github.com/wsmigrate/wsmigrate/internal/manifest"
	"github.com/wsmigrate/wsmigrate/internal/migerr"
	"github.com/wsmigrate/wsmigrate/internal/orderedmap"
	"github.com/wsmigrate/wsmigrate/internal/semver"
)

// Fetcher is the subset of internal/fetcher.Fetcher's contract the
// Planner depends on.
type Fetcher interface {
	Fetch(ctx context.Context, pkg, versionOrTag string) (manifest.MigrationManifest, error)
}

// InstalledResolver is the subset of internal/installedver.Resolver's
// contract the Planner depends on.
type InstalledResolver interface {
	InstalledVersion(pkg string, overrides map[string]string) (string, bool, error)
}

// Target is the version and manifest-write disposition a package is
// being driven towards, threaded through each recursion.
type Target struct {
	Version          string
	AddToPackageJson manifest.AddTarget
}

// Planner is the central component of spec.md §4.5: it builds the
// packageJsonUpdates plan and, from it, the ordered migration list.
// One Planner is constructed per plan computation and discarded
// afterwards, per spec.md §3's lifecycle note.
type Planner struct {
	Fetcher     Fetcher
	Resolver    InstalledResolver
	Confirmer   confirm.Confirmer
	Workspace   *manifest.Workspace
	Interactive bool
}

// Result is everything one Plan call produces.
type Result struct {
	Updates    map[string]manifest.PackageJsonUpdateForPackage
	Order      []string
	Migrations []MigrationEntry
}

// Plan drives the full two-phase computation of spec.md §4.5 for one
// (rootTarget, rootVersion) request.
func (p *Planner) Plan(ctx context.Context, rootTarget, rootVersion string, overrides, to map[string]string) (*Result, error) {
	r := &run{
		fetcher:     p.Fetcher,
		resolver:    p.Resolver,
		confirmer:   p.Confirmer,
		workspace:   p.Workspace,
		interactive: p.Interactive,
		state:       NewState(overrides, to),
	}

	order, err := r.populate(ctx, rootTarget, Target{
		Version:          rootVersion,
		AddToPackageJson: manifest.AddTargetDependencies(),
	})
	if err != nil {
		return nil, err
	}

	migrations, err := assembleMigrations(ctx, r, order)
	if err != nil {
		return nil, err
	}

	return &Result{
		Updates:    r.state.Updates(),
		Order:      order,
		Migrations: migrations,
	}, nil
}

// run carries the collaborators and the one owned State value for a
// single Plan call's traversal.
type run struct {
	fetcher     Fetcher
	resolver    InstalledResolver
	confirmer   confirm.Confirmer
	workspace   *manifest.Workspace
	interactive bool
	state       *State
}

// populate implements spec.md §4.5 steps 1-11:
// populateAndGetPackagesToCheck, with the "outer walker" gating
// (requires + interactive confirm) folded directly into the same
// pass — a filtered entry's packages are merged the instant its gate
// passes, which is operationally identical to processing a returned
// check-group immediately rather than deferring it.
//
// The returned slice is the ordered list of package names this call
// (and everything it recursed into) touched, pkg itself first,
// followed by the packageGroupOrder-sorted flattening of every child
// recursion's own order.
func (r *run) populate(ctx context.Context, pkg string, target Target) ([]string, error) {
	if pinned, ok := r.state.To(pkg); ok {
		target.Version = pinned
	}

	installed, found, err := r.resolver.InstalledVersion(pkg, r.state.OverridesSnapshot())
	if err != nil {
		return nil, fmt.Errorf("checking installed version of %s: %w", pkg, err)
	}

	if !found {
		r.state.AddPackageJsonUpdate(pkg, manifest.PackageJsonUpdateForPackage{
			Version:          manifest.Version(target.Version),
			AddToPackageJson: target.AddToPackageJson,
		})
		return []string{pkg}, nil
	}

	m, err := r.fetcher.Fetch(ctx, pkg, target.Version)
	if err != nil {
		if errors.Is(err, migerr.ErrNoMatchingVersion) {
			return nil, fmt.Errorf("%w: no version of %s satisfies %s; retry with --to=\"%s@<version>\" to pin it explicitly", migerr.ErrNoMatchingVersion, pkg, target.Version, pkg)
		}
		return nil, err
	}

	resolvedVersion := string(m.Version)
	target.Version = resolvedVersion

	if collected, ok := r.state.CollectedVersion(pkg); ok && !semver.Gt(resolvedVersion, collected) {
		return nil, nil
	}
	r.state.SetCollectedVersion(pkg, resolvedVersion)

	groupOrder := NormalizeGroup(r.state, pkg, resolvedVersion, m.PackageGroup)
	updates := m.PackageJsonUpdates
	if len(groupOrder) > 0 {
		if updates == nil {
			updates = orderedmap.New[manifest.PackageJsonUpdateEntry]()
		} else {
			updates = updates.Clone()
		}
		groupPackages := orderedmap.New[manifest.PackageJsonUpdateForPackage]()
		for _, name := range groupOrder {
			groupPackages.Set(name, manifest.PackageJsonUpdateForPackage{
				Version:                manifest.Version(resolvedVersion),
				AlwaysAddToPackageJson: false,
			})
		}
		updates.Set(resolvedVersion+"--PackageGroup", manifest.PackageJsonUpdateEntry{
			Version:  manifest.Version(resolvedVersion),
			Packages: groupPackages,
		})
	}

	filtered, err := filterEntries(updates, installed, found, resolvedVersion, r.state, r.workspace, r.resolver)
	if err != nil {
		return nil, fmt.Errorf("filtering packageJsonUpdates for %s: %w", pkg, err)
	}

	r.state.AddPackageJsonUpdate(pkg, manifest.PackageJsonUpdateForPackage{
		Version:          manifest.Version(resolvedVersion),
		AddToPackageJson: target.AddToPackageJson,
	})

	// Entries in this group are walked in declared order, and each
	// surviving entry's packages are recorded into state immediately
	// (not deferred to the recursion below), so a later entry's own
	// requires can see an earlier same-group entry's additions.
	acc := orderedmap.New[manifest.PackageJsonUpdateForPackage]()
	for _, entry := range filtered {
		ok, err := requirementsSatisfied(entry.Requires, r.state, r.resolver, nil)
		if err != nil {
			return nil, fmt.Errorf("checking requires for %s: %w", pkg, err)
		}
		if !ok {
			continue
		}
		if r.interactive && entry.XPrompt != "" {
			confirmed, err := r.confirmer.Confirm(entry.XPrompt)
			if err != nil {
				return nil, fmt.Errorf("prompting for %s: %w", pkg, err)
			}
			if !confirmed {
				continue
			}
		}
		entry.Packages.Range(func(name string, update manifest.PackageJsonUpdateForPackage) bool {
			acc.Set(name, update)
			r.state.AddPackageJsonUpdate(name, update)
			return true
		})
	}

	names := acc.Keys()
	results := make([][]string, len(names))
	errs := make([]error, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		update, _ := acc.Get(name)
		wg.Add(1)
		go func(i int, name string, update manifest.PackageJsonUpdateForPackage) {
			defer wg.Done()
			sub, err := r.populate(ctx, name, Target{
				Version:          string(update.Version),
				AddToPackageJson: update.AddToPackageJson,
			})
			results[i] = sub
			errs[i] = err
		}(i, name, update)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	var flattened []string
	for _, sub := range results {
		flattened = append(flattened, sub...)
	}
	sortByGroupOrder(flattened, groupOrder)

	return append([]string{pkg}, flattened...), nil
}

// sortByGroupOrder stable-sorts names by their index in groupOrder,
// treating a name absent from groupOrder as index -1 (sorted first,
// ties preserving input order), per spec.md §4.5 step 11.
func sortByGroupOrder(names []string, groupOrder []string) {
	index := make(map[string]int, len(groupOrder))
	for i, name := range groupOrder {
		index[name] = i
	}
	rank := func(name string) int {
		if i, ok := index[name]; ok {
			return i
		}
		return -1
	}
	sort.SliceStable(names, func(i, j int) bool {
		return rank(names[i]) < rank(names[j])
	})
}
