package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harun/flowmind/pkg/validator"
)

var executeLayered bool

var executeCmd = &cobra.Command{
	Use:   "execute <plan.json>",
	Short: "Validate and execute a plan document",
	Long: `Validate a plan document and execute it when validation passes. Use "-"
to read the plan from stdin. Exits non-zero when validation or any step
fails.`,
	Args: cobra.ExactArgs(1),
	RunE: runExecute,
}

func init() {
	executeCmd.Flags().BoolVar(&executeLayered, "layered", false, "run independent steps of each layer concurrently")
	rootCmd.AddCommand(executeCmd)
}

func runExecute(cmd *cobra.Command, args []string) error {
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

	execute := a.executor.Execute
	if executeLayered {
		execute = a.executor.ExecuteLayered
	}
	result, err := execute(cmd.Context(), doc, verdict, a.registry)
	if err != nil {
		return err
	}

	output := map[string]any{"validation": verdict, "execution": result}
	if err := printJSON(output); err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("execution failed")
	}
	return nil
}
