package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/wsmigrate/wsmigrate/internal/plan"
	"github.com/wsmigrate/wsmigrate/internal/run"
	"github.com/wsmigrate/wsmigrate/internal/tree"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	infoColor    = color.New(color.FgCyan)
	headerColor  = color.New(color.FgBlue, color.Bold)
	labelColor   = color.New(color.FgWhite, color.Bold)
	valueColor   = color.New(color.FgHiBlack)
	dimColor     = color.New(color.FgHiBlack)
)

// PrintSection prints a section header.
func PrintSection(title string) {
	fmt.Println()
	_, _ = headerColor.Printf("▸ %s\n", title)
	fmt.Println()
}

// PrintSuccess prints a success message with a checkmark.
func PrintSuccess(msg string) {
	_, _ = successColor.Printf("✓ %s\n", msg)
}

// PrintWarning prints a warning message.
func PrintWarning(msg string) {
	_, _ = warningColor.Printf("⚠ %s\n", msg)
}

// PrintError prints an error message to stderr.
func PrintError(msg string) {
	_, _ = errorColor.Fprintf(os.Stderr, "✗ %s\n", msg)
}

// PrintInfo prints an informational message.
func PrintInfo(msg string) {
	_, _ = infoColor.Fprintln(os.Stdout, msg)
}

// PrintEmptyState prints a message when there's nothing to show.
func PrintEmptyState(msg string) {
	_, _ = dimColor.Printf("  %s\n", msg)
}

// PrintLabelValue prints a label-value pair.
func PrintLabelValue(label, value string) {
	_, _ = labelColor.Printf("  %s: ", label)
	_, _ = valueColor.Println(value)
}

// PrintPlanSummary renders the package/version updates and the
// migration list a Plan computed.
func PrintPlanSummary(result *plan.Result) {
	PrintSection("Package updates")
	if len(result.Updates) == 0 {
		PrintEmptyState("no packages need updating")
	}
	for _, pkg := range result.Order {
		update, ok := result.Updates[pkg]
		if !ok {
			continue
		}
		disposition := "plan only"
		if update.AlwaysAddToPackageJson || !update.AddToPackageJson.None {
			if update.AddToPackageJson.Section != "" {
				disposition = update.AddToPackageJson.Section
			}
		}
		PrintLabelValue(pkg, fmt.Sprintf("%s (%s)", update.Version, disposition))
	}

	PrintSection("Migrations")
	if len(result.Migrations) == 0 {
		PrintEmptyState("no migrations to run")
		return
	}
	for _, m := range result.Migrations {
		desc := m.Description
		if desc == "" {
			desc = m.Name
		}
		PrintLabelValue(fmt.Sprintf("%s@%s", m.Package, m.Version), desc)
	}
}

// PrintChange renders one tree.Change as a human-readable diff line.
func PrintChange(c tree.Change) {
	switch c.Type {
	case tree.ChangeCreate:
		_, _ = successColor.Printf("  CREATE %s\n", c.Path)
	case tree.ChangeUpdate:
		_, _ = warningColor.Printf("  UPDATE %s\n", c.Path)
	case tree.ChangeDelete:
		_, _ = errorColor.Printf("  DELETE %s\n", c.Path)
	}
}

// PrintRunSummary renders every migration outcome from a Runner pass.
func PrintRunSummary(result *run.Result) {
	for _, outcome := range result.Outcomes {
		name := fmt.Sprintf("%s:%s", outcome.Migration.Package, outcome.Migration.Name)
		switch {
		case outcome.Skipped:
			PrintWarning(fmt.Sprintf("%s — no implementation registered, skipped", name))
		case outcome.NoChanges:
			PrintInfo(fmt.Sprintf("%s — no changes", name))
		default:
			PrintSuccess(name)
			for _, c := range outcome.Changes {
				PrintChange(c)
			}
			if outcome.CommitErr != nil {
				PrintError(fmt.Sprintf("commit failed for %s: %v", name, outcome.CommitErr))
			} else if outcome.CommitSha != "" {
				PrintLabelValue("commit", outcome.CommitSha)
			}
		}
	}
	if result.ReinstalledAfter {
		PrintInfo("dependencies changed, ran install again")
	}
}
