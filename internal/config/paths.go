// Package config manages wsmigrate's filesystem paths.
//
// The only persistent state wsmigrate owns is scratch space: a cache
// directory used by the fetcher for temporary package installs and
// tarball extraction. Its location can be overridden with an
// environment variable, defaulting to ~/.wsmigrate.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths contains all the filesystem paths used by wsmigrate.
type Paths struct {
	// Root is the base directory for all wsmigrate scratch data (default: ~/.wsmigrate)
	Root string

	// Tmp is the directory the fetcher uses for temporary package installs and tarball extraction.
	Tmp string
}

// DefaultPaths returns the default paths for wsmigrate.
// Paths can be overridden with environment variables:
// - WSMIGRATE_CACHE_DIR: override the root directory
func DefaultPaths() (*Paths, error) {
	root := os.Getenv("WSMIGRATE_CACHE_DIR")
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		root = filepath.Join(home, ".wsmigrate")
	}

	return &Paths{
		Root: root,
		Tmp:  filepath.Join(root, "tmp"),
	}, nil
}

// EnsureDirectories creates all necessary directories if they don't exist.
func (p *Paths) EnsureDirectories() error {
	dirs := []string{
		p.Root,
		p.Tmp,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
