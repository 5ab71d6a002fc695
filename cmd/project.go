package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/ridoystarlord/automigrate/config"
	"github.com/ridoystarlord/automigrate/diff"
	"github.com/ridoystarlord/automigrate/history"
	"github.com/ridoystarlord/automigrate/loader"
	"github.com/ridoystarlord/automigrate/questioner"
	"github.com/ridoystarlord/automigrate/schema"
	"github.com/ridoystarlord/automigrate/validator"
)

// loadRegistry reads declared models from the configured source.
func loadRegistry(cfg *config.Config) (*schema.MemoryRegistry, error) {
	switch cfg.Source {
	case config.SourceStructs:
		reg, err := loader.LoadTags(cfg.ModelsDir)
		if err != nil {
			return nil, fmt.Errorf("loading models from structs: %w", err)
		}
		return reg, nil
	default:
		reg, err := loader.LoadYAML(cfg.SchemaFile)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", cfg.SchemaFile, err)
		}
		return reg, nil
	}
}

// project is everything the planner needs: the history graph, the state it
// replays to, and the state declared now.
type project struct {
	graph   *history.Graph
	old     *schema.ProjectState
	current *schema.ProjectState
}

func loadProject(cfg *config.Config) (*project, error) {
	reg, err := loadRegistry(cfg)
	if err != nil {
		return nil, err
	}

	report := validator.Validate(reg)
	for _, w := range report.Warnings {
		logger.Warn(w.Message, "model", w.Model, "field", w.Field)
	}
	if !report.Valid {
		return nil, fmt.Errorf("schema has %d error(s), first: %s (run 'automigrate validate' for all)",
			len(report.Errors), report.Errors[0].Message)
	}

	current, err := schema.FromRegistry(reg)
	if err != nil {
		return nil, err
	}

	graph, err := loadGraph(cfg)
	if err != nil {
		return nil, err
	}
	old, err := graph.ProjectState()
	if err != nil {
		return nil, err
	}
	logger.Debug("loaded project", "models", len(current.Models), "migrations", graph.Len())

	return &project{graph: graph, old: old, current: current}, nil
}

func loadGraph(cfg *config.Config) (*history.Graph, error) {
	migrations, err := history.Load(cfg.MigrationsDir)
	if err != nil {
		return nil, err
	}
	return history.NewGraph(migrations)
}

// changes runs the auto-detector from history to the declared models.
func (p *project) changes(q diff.Questioner) ([]*diff.Operation, error) {
	ops, err := diff.NewAutoDetector(p.old, p.current, q, diff.WithLogger(logger)).Changes()
	if err != nil {
		return nil, fmt.Errorf("detecting changes: %w", err)
	}
	return ops, nil
}

// newQuestioner prompts on a terminal when prompting is allowed, and answers
// from configuration otherwise. The returned func releases the terminal.
func newQuestioner(cfg *config.Config, out io.Writer, prompt bool) (diff.Questioner, func(), error) {
	fromConfig := &questioner.NonInteractive{
		Defaults:      cfg.BackfillDefaults(),
		AssumeRenames: cfg.AssumeRenames,
		Logger:        logger,
	}
	if !prompt || !cfg.Interactive || !isTerminal(os.Stdin) {
		return fromConfig, func() {}, nil
	}

	q, err := questioner.NewInteractive(out)
	if err != nil {
		return nil, nil, fmt.Errorf("starting prompt: %w", err)
	}
	return q, func() { _ = q.Close() }, nil
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
