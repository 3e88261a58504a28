package cli

import (
	"github.com/spf13/cobra"
)

var atomsCmd = &cobra.Command{
	Use:   "atoms",
	Short: "List the atoms available to plans",
	RunE:  runAtoms,
}

func init() {
	rootCmd.AddCommand(atomsCmd)
}

func runAtoms(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	return printJSON(map[string]any{"atoms": a.registry.All()})
}
