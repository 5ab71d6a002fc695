package questioner

import (
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
)

// lineReader is the part of readline.Instance the questioner uses.
type lineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
}

// Interactive asks the user on the terminal. A read error or interrupt
// counts as "no".
type Interactive struct {
	rl    lineReader
	out   io.Writer
	close func() error
}

// NewInteractive creates a questioner reading from the terminal.
func NewInteractive(out io.Writer) (*Interactive, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		Stdout:          out,
		InterruptPrompt: "^C",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize prompt: %w", err)
	}
	return &Interactive{rl: rl, out: out, close: rl.Close}, nil
}

// Close releases the terminal.
func (q *Interactive) Close() error {
	if q.close == nil {
		return nil
	}
	return q.close()
}

func (q *Interactive) AskRenameModel(oldName, newName string) bool {
	return q.confirm(fmt.Sprintf("Did you rename the %s model to %s?", oldName, newName))
}

func (q *Interactive) AskRenameField(model, oldName, newName string) bool {
	return q.confirm(fmt.Sprintf("Did you rename %s.%s to %s.%s?", model, oldName, model, newName))
}

func (q *Interactive) AskNotNullDefault(model, field string) (string, bool) {
	return q.askDefault(fmt.Sprintf(
		"You are trying to add a non-nullable field '%s' to %s without a default; existing rows need a value.", field, model))
}

func (q *Interactive) AskNotNullAlteration(model, field string) (string, bool) {
	return q.askDefault(fmt.Sprintf(
		"You are trying to change the nullable field '%s' on %s to non-nullable without a default; existing rows with NULL need a value.", field, model))
}

func (q *Interactive) confirm(question string) bool {
	q.rl.SetPrompt(color.New(color.FgYellow, color.Bold).Sprintf("%s [y/N] ", question))
	line, err := q.rl.Readline()
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func (q *Interactive) askDefault(message string) (string, bool) {
	color.New(color.FgYellow).Fprintln(q.out, message)
	fmt.Fprintln(q.out, " 1) Provide a one-off default now (used only to fill existing rows)")
	fmt.Fprintln(q.out, " 2) Quit, and add a default or make the field nullable in the model")

	for {
		q.rl.SetPrompt("Select an option: ")
		choice, err := q.rl.Readline()
		if err != nil {
			return "", false
		}
		switch strings.TrimSpace(choice) {
		case "1":
			for {
				q.rl.SetPrompt(">>> ")
				value, err := q.rl.Readline()
				if err != nil {
					return "", false
				}
				if value = strings.TrimSpace(value); value != "" {
					return value, true
				}
				color.New(color.FgRed).Fprintln(q.out, "Please enter a value")
			}
		case "2":
			return "", false
		default:
			color.New(color.FgRed).Fprintln(q.out, "Please select a valid option")
		}
	}
}
