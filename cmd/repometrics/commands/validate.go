package commands

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/repometrics/pkg/report"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <results.json>",
		Short: "Validate an exported results document against the JSON schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, args[0])
		},
	}
}

func runValidate(cmd *cobra.Command, path string) error {
	document, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	violations, err := report.Violations(document)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	out := cmd.OutOrStdout()

	if len(violations) == 0 {
		color.New(color.FgGreen).Fprintf(out, "%s is valid\n", path)

		return nil
	}

	color.New(color.FgRed).Fprintf(out, "%s failed validation\n", path)

	for _, v := range violations {
		color.New(color.FgRed).Fprintf(out, "  - %s\n", v)
	}

	return fmt.Errorf("%w: %d violations", report.ErrInvalidDocument, len(violations))
}
