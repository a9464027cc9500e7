package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/modalkit/internal/input/key"
)

var keysCmd = &cobra.Command{
	Use:   "keys NOTATION...",
	Short: "Normalize key notation",
	Long: `Decode each argument as Vim key notation and print it in canonical
form, one per line.

Examples:
  modalkit keys '<c-W>j' '<lt>Esc>'`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, a := range args {
			n, err := key.Normalize(a)
			if err != nil {
				return fmt.Errorf("%q: %w", a, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keysCmd)
}
