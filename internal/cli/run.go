package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wsmigrate/wsmigrate/internal/plan"
	"github.com/wsmigrate/wsmigrate/internal/run"
)

var (
	runCreateCommits bool
	runCommitPrefix  string
)

var runCmd = &cobra.Command{
	Use:   "run [migrationsFile]",
	Short: "Replay an already-planned migration list against the working tree",
	Long: `run replays the migration list produced by "plan" (migrations.json by
default) against the working tree, one migration at a time, optionally
committing each one that makes changes.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&runCreateCommits, "create-commits", false, "commit each migration that makes changes")
	runCmd.Flags().StringVar(&runCommitPrefix, "commit-prefix", "chore(migrate): ", "prefix for each migration's commit message")
}

func runRun(cmd *cobra.Command, args []string) error {
	migrationsPath := "migrations.json"
	if len(args) == 1 {
		migrationsPath = args[0]
	}

	root, err := cmd.Flags().GetString("root")
	if err != nil {
		return err
	}
	ws, err := newWorkspace(root)
	if err != nil {
		return err
	}

	migrations, err := readMigrationsFile(ws, migrationsPath)
	if err != nil {
		return err
	}

	runner := newRunner(ws)
	result, err := runner.Run(context.Background(), run.Options{
		Root:          root,
		Verbose:       isVerbose(),
		CreateCommits: runCreateCommits,
		CommitPrefix:  runCommitPrefix,
	}, migrations)
	if err != nil {
		return err
	}

	if jsonOutput {
		return outputJSON(result)
	}
	PrintRunSummary(result)
	return nil
}

func readMigrationsFile(ws *workspace, relPath string) ([]plan.MigrationEntry, error) {
	data, err := ws.fs.ReadFile(filepath.Join(ws.root, relPath))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", relPath, err)
	}

	var wire migrationsFile
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", relPath, err)
	}

	entries := make([]plan.MigrationEntry, 0, len(wire.Migrations))
	for _, m := range wire.Migrations {
		entries = append(entries, plan.MigrationEntry{
			Package:        m.Package,
			Name:           m.Name,
			Version:        m.Version,
			Description:    m.Description,
			Implementation: m.Implementation,
			Cli:            m.Cli,
		})
	}
	return entries, nil
}
