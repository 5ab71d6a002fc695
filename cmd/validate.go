package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ridoystarlord/automigrate/validator"
)

var validateFormat string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate declared models without touching the database",
	Long: `Validate your models before planning migrations.

This checks:
- Table and field names are valid identifiers
- Field types are known column types
- Relations point at declared models
- Through models exist and on_delete actions are valid
- No two models or junction tables share a table

Examples:
  automigrate validate                   # Validate schema.yaml
  automigrate validate --source structs  # Validate Go structs in models/
  automigrate validate --format json     # Machine-readable output
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry(cfg)
		if err != nil {
			return err
		}
		result := validator.Validate(reg)

		out := cmd.OutOrStdout()
		switch validateFormat {
		case "json":
			err = outputJSON(out, result)
		case "text":
			outputText(out, result)
		default:
			return fmt.Errorf("unknown format %q (use text or json)", validateFormat)
		}
		if err != nil {
			return err
		}
		if !result.Valid {
			return fmt.Errorf("schema validation failed")
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVarP(&validateFormat, "format", "f", "text", "Output format: text or json")
}

func outputJSON(out io.Writer, result *validator.ValidationResult) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func outputText(out io.Writer, result *validator.ValidationResult) {
	if result.Valid {
		color.New(color.FgGreen).Fprintln(out, "✅ Schema validation passed!")
	} else {
		color.New(color.FgRed).Fprintln(out, "❌ Schema validation failed!")
	}

	printFindings(out, "🔴 Errors", result.Errors)
	printFindings(out, "🟡 Warnings", result.Warnings)

	fmt.Fprintf(out, "\n📊 Summary:\n")
	fmt.Fprintf(out, "  • Errors: %d\n", len(result.Errors))
	fmt.Fprintf(out, "  • Warnings: %d\n", len(result.Warnings))

	if result.Valid {
		fmt.Fprintf(out, "\n🎉 Your models are valid and ready for makemigrations!\n")
	} else {
		fmt.Fprintf(out, "\n💡 Fix the errors above before generating migrations.\n")
	}
}

func printFindings(out io.Writer, title string, findings []validator.ValidationError) {
	if len(findings) == 0 {
		return
	}
	fmt.Fprintf(out, "\n%s (%d):\n", title, len(findings))
	for i, f := range findings {
		fmt.Fprintf(out, "  %d. ", i+1)
		if f.Model != "" {
			fmt.Fprintf(out, "[%s]", f.Model)
		}
		if f.Field != "" {
			fmt.Fprintf(out, ".%s", f.Field)
		}
		fmt.Fprintf(out, ": %s\n", f.Message)
	}
}
