package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harun/flowmind/pkg/validator"
)

var planExecute bool

var planCmd = &cobra.Command{
	Use:   "plan <intent>",
	Short: "Generate a plan from a natural-language intent",
	Long: `Generate a structured plan for the given intent and validate it against
the atom catalog. With --execute the plan also runs when validation passes.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPlan,
}

func init() {
	planCmd.Flags().BoolVar(&planExecute, "execute", false, "execute the plan when it validates")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	intent := strings.Join(args, " ")
	planDoc, err := a.planner.Plan(cmd.Context(), intent, a.registry)
	if err != nil {
		return fmt.Errorf("failed to generate plan: %w", err)
	}

	doc, err := planDoc.AsMap()
	if err != nil {
		return err
	}

	verdict, err := validator.Validate(doc, a.registry)
	if err != nil {
		return err
	}

	output := map[string]any{"plan": doc, "validation": verdict}
	if planExecute {
		result, err := a.executor.Execute(cmd.Context(), doc, verdict, a.registry)
		if err != nil {
			return err
		}
		output["execution"] = result
	}
	return printJSON(output)
}
