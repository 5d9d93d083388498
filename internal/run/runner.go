// Package run implements the Runner: replaying an already-planned
// migration list against the working tree, one migration at a time,
// committing or skipping as it goes and re-installing dependencies
// if the manifest changed along the way.
package run

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/wsmigrate/wsmigrate/internal/generator"
	"github.com/wsmigrate/wsmigrate/internal/gitcommit"
	"github.com/wsmigrate/wsmigrate/internal/manifest"
	"github.com/wsmigrate/wsmigrate/internal/plan"
	"github.com/wsmigrate/wsmigrate/internal/tree"
)

// HostFactory builds a fresh virtual file-tree host rooted at the
// workspace for a single migration. A fresh host per migration keeps
// one migration's changes from leaking into the next one's
// ListChanges if it makes no changes of its own.
type HostFactory func() tree.Host

// Options configures one Runner invocation.
type Options struct {
	Root          string
	Verbose       bool
	CreateCommits bool
	CommitPrefix  string
}

// Runner replays a migration list against the working tree.
type Runner struct {
	Workspace      *manifest.Workspace
	HostFactory    HostFactory
	PackageManager PackageManager
	Committer      gitcommit.Committer
	Adapter        Adapter
}

// MigrationOutcome is what happened when the Runner processed one
// migration entry.
type MigrationOutcome struct {
	Migration plan.MigrationEntry

	NoChanges bool
	Skipped   bool // nx migration with no registered generator implementation

	Changes []tree.Change

	CommitSha string
	CommitErr error // CommitFailure: logged, never aborts the run

	AdapterResult AdapterResult
	AdapterErr    error // AdapterError: logged and re-raised, aborts the run
}

// Result is the summary of one full Runner invocation.
type Result struct {
	Outcomes         []MigrationOutcome
	ReinstalledAfter bool
}

// skipInstallEnv disables the pre-run install.
const skipInstallEnv = "NX_MIGRATE_SKIP_INSTALL"

// Run replays migrations in order against opts.Root.
func (r *Runner) Run(ctx context.Context, opts Options, migrations []plan.MigrationEntry) (*Result, error) {
	before, err := r.Workspace.DependencySnapshot()
	if err != nil {
		return nil, fmt.Errorf("snapshotting dependencies before run: %w", err)
	}

	if !skipInstallRequested() {
		if err := r.PackageManager.Install(opts.Root); err != nil {
			return nil, fmt.Errorf("installing dependencies before run: %w", err)
		}
	}

	result := &Result{}
	for _, m := range migrations {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		outcome, err := r.runOne(opts, m)
		result.Outcomes = append(result.Outcomes, outcome)
		if err != nil {
			return result, err
		}
	}

	after, err := r.Workspace.DependencySnapshot()
	if err != nil {
		return result, fmt.Errorf("snapshotting dependencies after run: %w", err)
	}
	if after != before {
		if err := r.PackageManager.Install(opts.Root); err != nil {
			return result, fmt.Errorf("re-installing dependencies after run: %w", err)
		}
		result.ReinstalledAfter = true
	}

	return result, nil
}

func skipInstallRequested() bool {
	v := os.Getenv(skipInstallEnv)
	return v != "" && v != "0" && v != "false"
}

func (r *Runner) runOne(opts Options, m plan.MigrationEntry) (MigrationOutcome, error) {
	outcome := MigrationOutcome{Migration: m}

	if m.Cli != "" && m.Cli != "nx" {
		adapterResult, err := r.Adapter.Run(opts.Root, m.Package, m.Name, opts.Verbose)
		outcome.AdapterResult = adapterResult
		if err != nil {
			outcome.AdapterErr = err
			return outcome, fmt.Errorf("migration %s:%s (adapter %s): %w", m.Package, m.Name, m.Cli, err)
		}
		outcome.NoChanges = !adapterResult.MadeChanges
		if adapterResult.MadeChanges && opts.CreateCommits {
			r.commit(opts, m, &outcome)
		}
		return outcome, nil
	}

	host := r.HostFactory()
	key := generator.Key{Package: m.Package, Name: m.Name}
	if err := generator.Run(key, host, generator.Options{}); err != nil {
		if errors.Is(err, generator.ErrNotImplemented) {
			outcome.Skipped = true
			return outcome, nil
		}
		return outcome, fmt.Errorf("migration %s:%s: %w", m.Package, m.Name, err)
	}

	changes := host.ListChanges()
	if len(changes) == 0 {
		outcome.NoChanges = true
		return outcome, nil
	}
	outcome.Changes = changes

	flusher, ok := host.(interface{ Flush() error })
	if ok {
		if err := flusher.Flush(); err != nil {
			return outcome, fmt.Errorf("flushing migration %s:%s: %w", m.Package, m.Name, err)
		}
	}

	if opts.CreateCommits {
		r.commit(opts, m, &outcome)
	}

	return outcome, nil
}

// commit records a commit for a migration that made changes, per
// spec.md §4.6's per-migration commit step — applied uniformly
// whether the changes came from a host-flushed nx generator or an
// adapter-run non-nx migration. A failure is recorded on outcome and
// never aborts the run (CommitFailure, logged not fatal).
func (r *Runner) commit(opts Options, m plan.MigrationEntry, outcome *MigrationOutcome) {
	message := opts.CommitPrefix + m.Name
	sha, err := r.Committer.Commit(opts.Root, message)
	if err != nil {
		outcome.CommitErr = err
	} else {
		outcome.CommitSha = sha
	}
}
