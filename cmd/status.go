package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ridoystarlord/automigrate/database"
	"github.com/ridoystarlord/automigrate/history"
	"github.com/ridoystarlord/automigrate/introspect"
)

var (
	statusTimeout   time.Duration
	statusSkipDrift bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show applied and pending migrations and schema drift",
	Long: `Connect to the database read-only and compare it with the migration history:
which migrations a runner recorded as applied in schema_migrations, which are
still pending, and where the tables differ from the replayed history.

Examples:
  automigrate status                      # Uses DATABASE_URL
  automigrate status --skip-drift         # Only list migrations
  automigrate status --timeout 30s
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		graph, err := loadGraph(cfg)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), statusTimeout)
		defer cancel()

		db, err := database.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()

		applied, err := introspect.AppliedMigrations(ctx, db)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		showStatus(out, migrationStatus(graph.Order(), applied))

		if statusSkipDrift {
			return nil
		}
		state, err := graph.ProjectState()
		if err != nil {
			return err
		}
		tables, err := introspect.Tables(ctx, db)
		if err != nil {
			return err
		}
		showDrift(out, introspect.DetectDrift(state, tables))
		return nil
	},
}

func init() {
	statusCmd.Flags().DurationVarP(&statusTimeout, "timeout", "t", 10*time.Second, "Timeout for database queries")
	statusCmd.Flags().BoolVar(&statusSkipDrift, "skip-drift", false, "Do not compare tables with the history")
}

type statusReport struct {
	Applied []string
	Pending []string
	// Unknown were recorded as applied but have no migration file.
	Unknown []string
}

func migrationStatus(order []*history.Migration, applied []string) statusReport {
	var report statusReport
	done := make(map[string]bool, len(applied))
	for _, name := range applied {
		done[name] = true
	}
	known := make(map[string]bool, len(order))
	for _, m := range order {
		known[m.Name] = true
		if done[m.Name] {
			report.Applied = append(report.Applied, m.Name)
		} else {
			report.Pending = append(report.Pending, m.Name)
		}
	}
	for _, name := range applied {
		if !known[name] {
			report.Unknown = append(report.Unknown, name)
		}
	}
	return report
}

func showStatus(out io.Writer, report statusReport) {
	t := newTable(out)
	t.AppendHeader(table.Row{"Migration", "Status"})
	for _, name := range report.Applied {
		t.AppendRow(table.Row{name, "✅ applied"})
	}
	for _, name := range report.Pending {
		t.AppendRow(table.Row{name, "🕒 pending"})
	}
	for _, name := range report.Unknown {
		t.AppendRow(table.Row{name, "❓ no migration file"})
	}
	t.Render()
	fmt.Fprintf(out, "%d applied, %d pending\n", len(report.Applied), len(report.Pending))
}

func showDrift(out io.Writer, drifts []introspect.Drift) {
	if len(drifts) == 0 {
		color.New(color.FgGreen, color.Bold).Fprintln(out, "✅ Database tables match the migration history")
		return
	}

	yellow := color.New(color.FgYellow, color.Bold)
	yellow.Fprintf(out, "\n⚠️  Drift (%d):\n", len(drifts))
	t := newTable(out)
	t.AppendHeader(table.Row{"Kind", "Table", "Column", "Detail"})
	for _, d := range drifts {
		t.AppendRow(table.Row{d.Kind, d.Table, d.Column, d.Detail})
	}
	t.Render()
}
