package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wsmigrate/wsmigrate/internal/manifest"
	"github.com/wsmigrate/wsmigrate/internal/plan"
	"github.com/wsmigrate/wsmigrate/internal/planargs"
)

var (
	planFrom        string
	planTo          string
	planInteractive bool
)

var planCmd = &cobra.Command{
	Use:   "plan [packageAndVersion]",
	Short: "Compute a migration plan for a target package and version",
	Long: `plan resolves a consistent set of package version bumps across the
workspace manifest for a target package and version, and writes the
resulting migration list to migrations.json.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringVar(&planFrom, "from", "", "installed-version overrides, e.g. nx@14.0.0,@nrwl/workspace@14.0.0")
	planCmd.Flags().StringVar(&planTo, "to", "", "pinned target versions, e.g. nx@16.5.0")
	planCmd.Flags().BoolVar(&planInteractive, "interactive", false, "prompt for optional x-prompt confirmations")
}

func runPlan(cmd *cobra.Command, args []string) error {
	var packageAndVersion string
	if len(args) == 1 {
		packageAndVersion = args[0]
	}

	parsed, err := planargs.Parse(planargs.Options{
		PackageAndVersion: packageAndVersion,
		From:              planFrom,
		To:                planTo,
		Interactive:       planInteractive,
	})
	if err != nil {
		return err
	}
	gen, ok := parsed.(planargs.GenerateMigrations)
	if !ok {
		return fmt.Errorf("plan: %q names a migration list to run, use the run command instead", packageAndVersion)
	}

	root, err := cmd.Flags().GetString("root")
	if err != nil {
		return err
	}
	ws, err := newWorkspace(root)
	if err != nil {
		return err
	}
	planner, err := newPlanner(ws, gen.Interactive)
	if err != nil {
		return err
	}

	result, err := planner.Plan(context.Background(), gen.TargetPackage, gen.TargetVersion, gen.From, gen.To)
	if err != nil {
		return err
	}

	applyUpdates(ws.ws, result.Updates)
	if err := ws.ws.Save(ws.fs); err != nil {
		return fmt.Errorf("saving workspace manifest: %w", err)
	}

	if len(result.Migrations) > 0 {
		if err := writeMigrationsFile(ws, "migrations.json", result.Migrations); err != nil {
			return err
		}
	}

	if jsonOutput {
		return outputJSON(result)
	}
	PrintPlanSummary(result)
	return nil
}

func applyUpdates(ws *manifest.Workspace, updates map[string]manifest.PackageJsonUpdateForPackage) {
	for pkg, update := range updates {
		target := ""
		if update.AlwaysAddToPackageJson {
			target = "dependencies"
		} else if !update.AddToPackageJson.None {
			target = update.AddToPackageJson.Section
		}
		ws.SetVersion(pkg, string(update.Version), target)
	}
}

// wireMigration is migrations.json's on-disk shape, per spec.md §6.
type wireMigration struct {
	Package        string `json:"package"`
	Name           string `json:"name"`
	Version        string `json:"version"`
	Description    string `json:"description,omitempty"`
	Implementation string `json:"implementation,omitempty"`
	Cli            string `json:"cli,omitempty"`
}

type migrationsFile struct {
	Migrations []wireMigration `json:"migrations"`
}

// writeMigrationsFile serializes entries to <root>/relPath, per spec.md
// §6's migrations.json shape. Callers only invoke this when entries is
// non-empty — an empty list is never written.
func writeMigrationsFile(ws *workspace, relPath string, entries []plan.MigrationEntry) error {
	wire := make([]wireMigration, 0, len(entries))
	for _, e := range entries {
		wire = append(wire, wireMigration{
			Package:        e.Package,
			Name:           e.Name,
			Version:        e.Version,
			Description:    e.Description,
			Implementation: e.Implementation,
			Cli:            e.Cli,
		})
	}
	data, err := json.MarshalIndent(migrationsFile{Migrations: wire}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding migrations.json: %w", err)
	}
	data = append(data, '\n')
	if err := ws.fs.AtomicWrite(filepath.Join(ws.root, relPath), data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", relPath, err)
	}
	return nil
}
