// Package migerr holds the sentinel errors for wsmigrate's error
// taxonomy (spec.md §7), mirroring the teacher's convention of a
// small package of errors.New(...) values that call sites wrap with
// fmt.Errorf("...: %w", ...) and callers check with errors.Is.
package migerr

import "errors"

var (
	// ErrInputError marks malformed from/to/packageAndVersion input.
	// Surfaced verbatim to the user; aborts.
	ErrInputError = errors.New("invalid input")

	// ErrNoMatchingVersion marks a registry lookup that returned no
	// version for (pkg, ver) during planning. Wrapped with a hint to
	// use --to="pkg@ver" before being re-raised.
	ErrNoMatchingVersion = errors.New("no matching version")

	// ErrMigrationsFileMissing marks a declared migrations file that
	// could not be read from a package's tarball after the registry
	// path otherwise succeeded.
	ErrMigrationsFileMissing = errors.New("migrations file missing")

	// ErrRegistryTransient marks any other registry/tarball failure;
	// causes the Fetcher to fall back to the install-based path.
	ErrRegistryTransient = errors.New("registry request failed")

	// ErrAdapterError marks a non-nx migration that failed in the
	// external adapter.
	ErrAdapterError = errors.New("adapter failed")

	// ErrCommitFailure marks a git commit failure during the run. It
	// is logged but does not abort the run.
	ErrCommitFailure = errors.New("commit failed")
)
