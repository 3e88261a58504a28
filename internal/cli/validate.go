package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harun/flowmind/pkg/validator"
)

var validateCmd = &cobra.Command{
	Use:   "validate <plan.json>",
	Short: "Validate a plan document against the atom catalog",
	Long: `Validate a plan document against the atom catalog. Use "-" to read the
plan from stdin. Exits non-zero when the plan is invalid.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	doc, err := readPlanFile(args[0])
	if err != nil {
		return err
	}

	verdict, err := validator.Validate(doc, a.registry)
	if err != nil {
		return err
	}
	if err := printJSON(verdict); err != nil {
		return err
	}
	if !verdict.Valid {
		return fmt.Errorf("plan is invalid (%d errors)", len(verdict.Errors))
	}
	return nil
}
