package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "root",
		Short: "Print the committed state root and slot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := openNode(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer n.Close()

			root, err := n.ledger.StateRoot()
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]string{
				"root":    root.Hex(),
				"slot":    fmt.Sprint(n.ledger.Slot()),
				"program": n.ledger.ProgramID().String(),
			})
		},
	}
}
