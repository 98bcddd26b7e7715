package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"stakeledger/core/types"
)

func NewPoolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pool",
		Short: "Bootstrap or inspect the stake pool",
	}
	cmd.AddCommand(newPoolInitCmd(), newPoolShowCmd())
	return cmd
}

func newPoolInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init <mint>",
		Short: "Create the stake pool for a mint (once per ledger)",
		Args:  cobra.ExactArgs(1),
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
			receipt, err := submit(cmd.Context(), n, &types.Transaction{Type: types.TxTypeInitStakepool, Mint: mint})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), viewReceipt(receipt, 0))
		},
	}
}

func newPoolShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the stake pool and its reward pot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := openNode(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer n.Close()

			pool, err := n.ledger.Pool()
			if err != nil {
				return err
			}
			mint, err := n.ledger.Mint(pool.Mint)
			if err != nil {
				return err
			}
			pot, err := n.ledger.Balance(pool.Escrow)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]string{
				"address":     pool.Address.String(),
				"mint":        pool.Mint.String(),
				"escrow":      pool.Escrow.String(),
				"totalStaked": formatUnits(pool.TotalStaked, mint.Decimals),
				"rewardPot":   formatUnits(pot, mint.Decimals),
				"initializer": pool.Initializer.String(),
				"createdSlot": fmt.Sprint(pool.CreatedSlot),
			})
		},
	}
}
