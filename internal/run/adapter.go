package run

import (
	"fmt"

	"github.com/wsmigrate/wsmigrate/internal/migerr"
)

// AdapterResult is what an external adapter reports back for one
// non-nx migration it ran.
type AdapterResult struct {
	MadeChanges  bool
	LoggingQueue []string
}

// Adapter delegates a migration whose cli is not "nx" (e.g.
// "angular") to an external runner. The contract and the adapter's
// internals are out of scope for this module (spec.md §4.6); only
// the boundary — root, package, migration name, verbosity in, a
// made-changes flag and a logging queue out — is specified here.
type Adapter interface {
	Run(root, pkg, name string, verbose bool) (AdapterResult, error)
}

// NoopAdapter is the default Adapter: it has no concrete external
// runner to delegate to, so every non-nx migration it is asked to run
// fails with ErrAdapterError. A caller with a real adapter should
// supply its own Adapter implementation instead.
type NoopAdapter struct{}

func (NoopAdapter) Run(root, pkg, name string, verbose bool) (AdapterResult, error) {
	return AdapterResult{}, fmt.Errorf("%w: no adapter registered for migration %s:%s", migerr.ErrAdapterError, pkg, name)
}

// FakeAdapter is a test double that records every call and returns a
// scripted result.
type FakeAdapter struct {
	Calls  []AdapterCall
	Result AdapterResult
	Err    error
}

type AdapterCall struct {
	Root, Package, Name string
	Verbose              bool
}


func (f *FakeAdapter) Run(root, pkg, name string, verbose bool) (AdapterResult, error) {
	f.Calls = append(f.Calls, AdapterCall{Root: root, Package: pkg, Name: name, Verbose: verbose})
	return f.Result, f.Err
}
