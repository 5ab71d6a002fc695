package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Show the operations the next migration would contain",
	Long: `Show the operations between the migration history and your models, in the
order they would run. Nothing is prompted or written; renames and one-off
defaults come from the config file.

Examples:
  automigrate diff                       # Plan from schema.yaml
  automigrate diff --source structs      # Plan from Go structs in models/
  automigrate diff --assume-renames      # Treat similar models as renames
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadProject(cfg)
		if err != nil {
			return err
		}
		q, done, err := newQuestioner(cfg, cmd.OutOrStdout(), false)
		if err != nil {
			return err
		}
		defer done()

		ops, err := p.changes(q)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(ops) == 0 {
			fmt.Fprintln(out, "✅ No differences between your models and the migration history")
			return nil
		}
		fmt.Fprintf(out, "📋 %d operation(s) pending\n", len(ops))
		renderPlan(out, ops)
		return nil
	},
}
