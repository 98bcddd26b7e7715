package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	stakeerr "stakeledger/core/errors"
	"stakeledger/core/types"
	"stakeledger/crypto"
)

func NewStakeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stake <mint> <amount>",
		Short: "Stake tokens from the signer's associated account",
		Args:  cobra.ExactArgs(2),
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
			amount, decimals, err := parseAmount(n, mint, args[1])
			if err != nil {
				return err
			}
			receipt, err := submit(cmd.Context(), n, &types.Transaction{Type: types.TxTypeStake, Mint: mint, Amount: amount})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), viewReceipt(receipt, decimals))
		},
	}
}

func NewUnstakeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unstake <mint>",
		Short: "Withdraw the full position plus its reward share",
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
			m, err := n.ledger.Mint(mint)
			if err != nil {
				return err
			}
			receipt, err := submit(cmd.Context(), n, &types.Transaction{Type: types.TxTypeUnstake, Mint: mint})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), viewReceipt(receipt, m.Decimals))
		},
	}
}

func NewPositionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "position [owner]",
		Short: "Show a stake position and what unstaking would return now",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := openNode(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer n.Close()

			var owner crypto.Address
			if len(args) == 1 {
				if owner, err = parseAddress("owner", args[0]); err != nil {
					return err
				}
			} else {
				key, err := loadSigner(n.cfg)
				if err != nil {
					return err
				}
				owner = key.Address()
			}
			position, ok, err := n.ledger.Position(owner)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no position for %s", owner)
			}
			pool, err := n.ledger.Pool()
			if err != nil {
				return err
			}
			mint, err := n.ledger.Mint(pool.Mint)
			if err != nil {
				return err
			}
			view := map[string]string{
				"address":     position.Address.String(),
				"owner":       position.Owner.String(),
				"escrow":      position.Escrow.String(),
				"principal":   formatUnits(position.Principal, mint.Decimals),
				"stakedSlot":  fmt.Sprint(position.StakedSlot),
				"updatedSlot": fmt.Sprint(position.UpdatedSlot),
			}
			preview, err := n.ledger.PreviewUnstake(owner, pool.Mint)
			switch {
			case err == nil:
				view["reward"] = formatUnits(preview.Reward, mint.Decimals)
				view["returned"] = formatUnits(preview.Returned, mint.Decimals)
			case errors.Is(err, stakeerr.ErrNoActivePosition):
			default:
				return err
			}
			return printJSON(cmd.OutOrStdout(), view)
		},
	}
}
