package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ridoystarlord/automigrate/config"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  = slog.New(slog.NewTextHandler(io.Discard, nil))
)

var rootCmd = &cobra.Command{
	Use:   "automigrate",
	Short: "Detect model changes and write ordered migration files",
	Long: `automigrate compares your declared models with the state rebuilt from the
migration files already written, and writes the operations needed to get
from one to the other.

Examples:

  automigrate init
  automigrate makemigrations
  automigrate diff
  automigrate history
  automigrate status
`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}
		cfg = c
		logger = newLogger(cmd.ErrOrStderr(), cfg.Verbose)
		if cfg.File != "" {
			logger.Debug("loaded config", "file", cfg.File)
		}
		return nil
	},
}

// Execute runs the CLI
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Println("❌", err)
		os.Exit(1)
	}
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Register flags and subcommands
func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Config file (default: automigrate.yaml when present)")
	flags.String("source", config.SourceYAML, "Where models are declared: yaml or structs")
	flags.String("schema-file", config.DefaultSchemaFile, "Schema YAML file to load")
	flags.String("models-dir", config.DefaultModelsDir, "Models directory to load structs from")
	flags.String("migrations-dir", config.DefaultMigrationsDir, "Directory holding migration files")
	flags.String("database-url", "", "Database URL for status checks (default: $DATABASE_URL)")
	flags.BoolP("verbose", "v", false, "Log planner decisions to stderr")
	flags.Bool("no-input", false, "Never prompt; answer from the config file instead")
	flags.Bool("assume-renames", false, "Accept every detected rename when not prompting")
	flags.Duration("lock-timeout", 0, "How long to wait for another run to release the migrations directory")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(makeMigrationsCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(validateCmd)
}
