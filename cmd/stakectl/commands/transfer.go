package commands

import (
	"github.com/spf13/cobra"

	"stakeledger/core/types"
)

func NewTransferCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transfer <mint> <to-account> <amount>",
		Short: "Move tokens from the signer's associated account",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := openNode(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer n.Close()

			mint, err := parseAddress("mint", args[0])
			if err != nil {
				return err
			}
			to, err := parseAddress("destination", args[1])
			if err != nil {
				return err
			}
			amount, decimals, err := parseAmount(n, mint, args[2])
			if err != nil {
				return err
			}
			receipt, err := submit(cmd.Context(), n, &types.Transaction{Type: types.TxTypeTransfer, Mint: mint, To: to, Amount: amount})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), viewReceipt(receipt, decimals))
		},
	}
}
