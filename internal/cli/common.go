package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wsmigrate/wsmigrate/internal/config"
	"github.com/wsmigrate/wsmigrate/internal/confirm"
	"github.com/wsmigrate/wsmigrate/internal/fetcher"
	"github.com/wsmigrate/wsmigrate/internal/fsops"
	"github.com/wsmigrate/wsmigrate/internal/gitcommit"
	"github.com/wsmigrate/wsmigrate/internal/installedver"
	"github.com/wsmigrate/wsmigrate/internal/manifest"
	"github.com/wsmigrate/wsmigrate/internal/plan"
	"github.com/wsmigrate/wsmigrate/internal/registry"
	"github.com/wsmigrate/wsmigrate/internal/run"
	"github.com/wsmigrate/wsmigrate/internal/tree"
)

const defaultRegistryURL = "https://registry.npmjs.org"

// workspace holds the constructed dependency graph for one CLI
// invocation rooted at root, built the same way the teacher's
// newEngine() wires together its real implementations.
type workspace struct {
	root string
	fs   fsops.FS
	ws   *manifest.Workspace
}

func newWorkspace(root string) (*workspace, error) {
	fs := fsops.NewRealFS()
	packageJSONPath := filepath.Join(root, "package.json")
	ws, err := manifest.LoadWorkspace(fs, packageJSONPath)
	if err != nil {
		return nil, fmt.Errorf("loading workspace manifest: %w", err)
	}
	return &workspace{root: root, fs: fs, ws: ws}, nil
}

// newPlanner builds a Planner wired to real collaborators: an npm
// registry client, the temp-install Fetcher, the node_modules
// InstalledResolver, and either a real or a no-op Confirmer depending
// on interactive mode.
func newPlanner(ws *workspace, interactive bool) (*plan.Planner, error) {
	paths, err := config.DefaultPaths()
	if err != nil {
		return nil, fmt.Errorf("resolving cache paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("preparing cache directory: %w", err)
	}

	client := registry.NewRealClient(defaultRegistryURL)
	f := fetcher.New(client, paths.Tmp)
	resolver := installedver.NewResolver(ws.fs, ws.root)

	var confirmer confirm.Confirmer
	if interactive {
		confirmer = confirm.NewRealConfirmer()
	} else {
		confirmer = confirm.NewFakeConfirmer()
	}

	return &plan.Planner{
		Fetcher:     f,
		Resolver:    resolver,
		Confirmer:   confirmer,
		Workspace:   ws.ws,
		Interactive: interactive,
	}, nil
}

// newRunner builds a Runner wired to the real package manager,
// git committer, and a fresh virtual file-tree host per migration.
func newRunner(ws *workspace) *run.Runner {
	return &run.Runner{
		Workspace:      ws.ws,
		HostFactory:    func() tree.Host { return tree.NewRealHost(ws.fs, ws.root) },
		PackageManager: run.NewRealPackageManager(),
		Committer:      gitcommit.NewRealCommitter(),
		Adapter:        run.NoopAdapter{},
	}
}

func isVerbose() bool {
	return os.Getenv("NX_VERBOSE_LOGGING") == "true"
}

// formatJSON formats a value as indented JSON.
func formatJSON(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// outputJSON writes a value as indented JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
