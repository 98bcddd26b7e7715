package commands

import (
	"github.com/spf13/cobra"

	"stakeledger/core/types"
	"stakeledger/native/token"
)

func NewAccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage token accounts",
	}
	cmd.AddCommand(newAccountCreateCmd(), newAccountShowCmd())
	return cmd
}

func newAccountCreateCmd() *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "create <mint>",
		Short: "Create the associated token account of an owner (default: the signer)",
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
			tx := &types.Transaction{Type: types.TxTypeCreateTokenAccount, Mint: mint}
			if owner != "" {
				if tx.To, err = parseAddress("owner", owner); err != nil {
					return err
				}
			}
			receipt, err := submit(cmd.Context(), n, tx)
			if err != nil {
				return err
			}
			holder := tx.To
			if holder.IsZero() {
				holder = receipt.Signer
			}
			addr, err := token.AssociatedAddress(holder, mint)
			if err != nil {
				return err
			}
			view := viewReceipt(receipt, 0)
			view.Extra = map[string]string{"account": addr.String()}
			return printJSON(cmd.OutOrStdout(), view)
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "Owner of the new account")
	return cmd
}

func newAccountShowCmd() *cobra.Command {
	var mintFlag string
	cmd := &cobra.Command{
		Use:   "show <account|owner>",
		Short: "Show a token account; with --mint the argument is an owner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := openNode(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer n.Close()

			addr, err := parseAddress("account", args[0])
			if err != nil {
				return err
			}
			if mintFlag != "" {
				mint, err := parseAddress("mint", mintFlag)
				if err != nil {
					return err
				}
				if addr, err = token.AssociatedAddress(addr, mint); err != nil {
					return err
				}
			}
			account, err := n.ledger.TokenAccount(addr)
			if err != nil {
				return err
			}
			mint, err := n.ledger.Mint(account.Mint)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), accountView(account, mint.Decimals))
		},
	}
	cmd.Flags().StringVar(&mintFlag, "mint", "", "Resolve the associated account of the owner for this mint")
	return cmd
}

func accountView(account *types.TokenAccount, decimals uint8) map[string]string {
	return map[string]string{
		"address":   account.Address.String(),
		"mint":      account.Mint.String(),
		"authority": account.Authority.String(),
		"amount":    formatUnits(account.Amount, decimals),
	}
}

func formatUnits(amount uint64, decimals uint8) string {
	return token.FormatUnits(amount, decimals)
}
