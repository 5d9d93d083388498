// Package generator is the idiomatic-Go stand-in for "dynamic code
// loading of migration implementations": Go cannot require() an
// arbitrary file path at runtime the way the system this tool
// replaces does, so every generator implementation is registered
// ahead of time by package and generator name, following the same Register/Lookup
// shape stdlib packages like database/sql and image use for
// driver/codec registration.
package generator

import (
	"fmt"
	"sync"

	"github.com/wsmigrate/wsmigrate/internal/tree"
)

// Options is the arbitrary options bag a generator receives. The Runner
// always passes an empty bag; migrations.json entries carry no options.
type Options map[string]any

// Func is a migration generator implementation: it mutates tree to
// produce the changes the migration is responsible for.
type Func func(host tree.Host, options Options) error

// Key identifies a generator implementation by the package that
// declares it and the generator name within that package's
// migrations.json, mirroring how the collection+generator pair is
// addressed on the wire.
type Key struct {
	Package string
	Name    string
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%s", k.Package, k.Name)
}

var (
	mu       sync.RWMutex
	registry = make(map[Key]Func)
)

// Register adds a generator implementation under key. It panics on a
// duplicate registration, matching database/sql's Register contract:
// a second implementation for the same key is always a programmer
// error, never a runtime condition to recover from.
func Register(key Key, fn Func) {
	mu.Lock()
	defer mu.Unlock()
	if fn == nil {
		panic("generator: Register called with nil Func for " + key.String())
	}
	if _, dup := registry[key]; dup {
		panic("generator: Register called twice for " + key.String())
	}
	registry[key] = fn
}

// Lookup returns the generator implementation registered for key, if
// any.
func Lookup(key Key) (Func, bool) {
	mu.RLock()
	defer mu.RUnlock()
	fn, ok := registry[key]
	return fn, ok
}

// ErrNotImplemented is returned by Run when migrations.json names a
// migration with no Go implementation wired into the registry. Such a
// migration is reported to the user and skipped rather than failing
// the whole run (spec.md §4.6).
var ErrNotImplemented = fmt.Errorf("generator: implementation not registered")

// Run looks up and invokes the generator registered for key. If
// nothing is registered, Run returns ErrNotImplemented rather than
// invoking anything, so the caller can decide whether to skip or
// abort.
func Run(key Key, host tree.Host, options Options) error {
	fn, ok := Lookup(key)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotImplemented, key)
	}
	return fn(host, options)
}
