package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ridoystarlord/automigrate/config"
	"github.com/ridoystarlord/automigrate/diff"
	"github.com/ridoystarlord/automigrate/generator"
	"github.com/ridoystarlord/automigrate/history"
)

var (
	dryRunMake bool
	makeName   string
)

func init() {
	makeMigrationsCmd.Flags().BoolVar(&dryRunMake, "dry-run", false, "Print the migration that would be written without writing it")
	makeMigrationsCmd.Flags().StringVarP(&makeName, "name", "n", "", "Use this name instead of a generated one (the number is still added)")
}

var makeMigrationsCmd = &cobra.Command{
	Use:     "makemigrations",
	Aliases: []string{"generate"},
	Short:   "Write a migration for the changes made to your models",
	Long: `Compare your models with the state rebuilt from existing migrations and
write a new migration file holding the operations between them.

Ambiguous changes (a renamed model or field, a new NOT NULL field without a
default) are asked about on a terminal. With --no-input the answers come from
the config file: assume_renames and defaults.<model>.<field>.

Examples:
  automigrate makemigrations                  # Write the next migration
  automigrate makemigrations --dry-run        # Preview it
  automigrate makemigrations -n add_isbn      # Name it m000N_add_isbn
  automigrate makemigrations --no-input       # Never prompt
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		q, done, err := newQuestioner(cfg, cmd.OutOrStdout(), true)
		if err != nil {
			return err
		}
		defer done()

		return makeMigrations(cmd.Context(), cfg, q, cmd.OutOrStdout(), makeOptions{
			DryRun: dryRunMake,
			Name:   makeName,
			Now:    time.Now(),
		})
	},
}

type makeOptions struct {
	DryRun bool
	Name   string
	Now    time.Time
}

// makeMigrations plans and writes the next migration. Nothing is written
// unless planning succeeds.
func makeMigrations(ctx context.Context, cfg *config.Config, q diff.Questioner, out io.Writer, opts makeOptions) error {
	if opts.Name != "" && strings.ContainsAny(opts.Name, `/\. `) {
		return fmt.Errorf("invalid migration name %q", opts.Name)
	}

	// Hold the migrations directory so concurrent runs cannot pick the same number
	if !opts.DryRun {
		lockCtx, cancel := context.WithTimeout(ctx, cfg.LockTimeout)
		defer cancel()
		release, err := generator.NewFileLock(cfg.MigrationsDir).Acquire(lockCtx)
		if err != nil {
			return err
		}
		defer release()
	}

	p, err := loadProject(cfg)
	if err != nil {
		return err
	}
	ops, err := p.changes(q)
	if err != nil {
		return err
	}

	m, err := history.Arrange(p.graph, ops, opts.Now)
	if errors.Is(err, history.ErrConflict) {
		return fmt.Errorf("%w; write a migration depending on every leaf by hand first", err)
	}
	if err != nil {
		return err
	}
	if m == nil {
		fmt.Fprintln(out, "✅ No changes detected.")
		return nil
	}

	if opts.Name != "" {
		number, err := diff.MigrationNumber(m.Name)
		if err != nil {
			return err
		}
		m.Name = fmt.Sprintf("m%04d_%s", number, opts.Name)
	}

	if opts.DryRun {
		data, err := generator.Render(m, opts.Now)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "================ DRY RUN: Migration Preview ================")
		fmt.Fprint(out, string(data))
		fmt.Fprintln(out, "============================================================")
		fmt.Fprintln(out, "(Dry run only. No files were written.)")
		return nil
	}

	path, err := generator.WriteMigration(cfg.MigrationsDir, m, opts.Now)
	if err != nil {
		return err
	}

	green := color.New(color.FgGreen, color.Bold)
	green.Fprintln(out, "✅ Migration generated:", path)
	for _, op := range m.Operations {
		fmt.Fprintln(out, "   -", op)
	}
	return nil
}
