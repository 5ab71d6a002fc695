package cmd

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ridoystarlord/automigrate/config"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Fail when models have changes no migration covers",
	Long: `Check that the migration history is consistent and already describes your
models. Exits non-zero when a migration is missing, which makes it usable as a
CI step.

This command will:
- Load and validate the declared models
- Replay the migration history
- Fail on diverging leaf migrations
- Fail when the next migration would not be empty

Examples:
  automigrate check
  automigrate check --source structs
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return checkProject(cfg, cmd.OutOrStdout())
	},
}

func checkProject(cfg *config.Config, out io.Writer) error {
	p, err := loadProject(cfg)
	if err != nil {
		return err
	}

	// Check for diverging history
	if leaves := p.graph.LeafNodes(); len(leaves) > 1 {
		return fmt.Errorf("migration history has %d leaf migrations %v", len(leaves), leaves)
	}

	q, _, err := newQuestioner(cfg, out, false)
	if err != nil {
		return err
	}
	ops, err := p.changes(q)
	if err != nil {
		return err
	}
	if len(ops) > 0 {
		renderPlan(out, ops)
		return fmt.Errorf("%d change(s) not covered by a migration, run 'automigrate makemigrations'", len(ops))
	}

	color.New(color.FgGreen, color.Bold).Fprintln(out, "✅ Migrations are up to date with your models")
	return nil
}
