package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ridoystarlord/automigrate/history"
)

var historyDetailed bool

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the migration graph in the order it replays",
	Long: `Show every migration file in dependency order with its dependencies and
operation count. The leaf migration is the one the next migration will depend
on; more than one leaf means the history has diverged.

Examples:
  automigrate history                 # Summary table
  automigrate history --detailed      # Also list each migration's operations
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		graph, err := loadGraph(cfg)
		if err != nil {
			return err
		}
		showHistory(cmd.OutOrStdout(), graph, historyDetailed)
		return nil
	},
}

func init() {
	historyCmd.Flags().BoolVarP(&historyDetailed, "detailed", "d", false, "List the operations of each migration")
}

func showHistory(out io.Writer, graph *history.Graph, detailed bool) {
	if graph.Len() == 0 {
		fmt.Fprintln(out, "📋 No migrations found")
		return
	}

	leaves := make(map[string]bool)
	for _, name := range graph.LeafNodes() {
		leaves[name] = true
	}

	t := newTable(out)
	t.AppendHeader(table.Row{"#", "Migration", "Depends on", "Operations", "Leaf"})
	order := graph.Order()
	for i, m := range order {
		leaf := ""
		if leaves[m.Name] {
			leaf = "✓"
		}
		t.AppendRow(table.Row{i + 1, m.Name, strings.Join(m.Dependencies, ", "), len(m.Operations), leaf})
	}
	t.Render()

	if detailed {
		blue := color.New(color.FgBlue, color.Bold)
		for _, m := range order {
			blue.Fprintf(out, "\n📄 %s\n", m.Name)
			for _, op := range m.Operations {
				fmt.Fprintln(out, "   -", op)
			}
		}
	}

	if len(leaves) > 1 {
		color.New(color.FgYellow, color.Bold).Fprintf(out,
			"\n⚠️  %d leaf migrations: makemigrations will refuse to run until they are merged\n", len(leaves))
	}
}
