package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"stakeledger/core/types"
	"stakeledger/crypto"
)

func NewMintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Manage token mints",
	}
	cmd.AddCommand(newMintCreateCmd(), newMintToCmd(), newMintShowCmd())
	return cmd
}

func newMintCreateCmd() *cobra.Command {
	var (
		decimals uint8
		freeze   string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a new mint with the signer as mint authority",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := openNode(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer n.Close()

			tx := &types.Transaction{Type: types.TxTypeCreateMint, Decimals: decimals}
			if freeze != "" {
				if tx.FreezeAuthority, err = parseAddress("freeze authority", freeze); err != nil {
					return err
				}
			}
			receipt, err := submit(cmd.Context(), n, tx)
			if err != nil {
				return err
			}
			mint := crypto.CreateAddress(receipt.Signer, tx.Nonce)
			view := viewReceipt(receipt, decimals)
			view.Extra = map[string]string{"mint": mint.String()}
			return printJSON(cmd.OutOrStdout(), view)
		},
	}
	cmd.Flags().Uint8Var(&decimals, "decimals", 9, "Number of decimal places")
	cmd.Flags().StringVar(&freeze, "freeze", "", "Optional freeze authority address")
	return cmd
}

func newMintToCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "to <mint> <account> <amount>",
		Short: "Mint new supply into a token account",
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
			account, err := parseAddress("account", args[1])
			if err != nil {
				return err
			}
			amount, decimals, err := parseAmount(n, mint, args[2])
			if err != nil {
				return err
			}
			receipt, err := submit(cmd.Context(), n, &types.Transaction{Type: types.TxTypeMintTo, Mint: mint, To: account, Amount: amount})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), viewReceipt(receipt, decimals))
		},
	}
}

func newMintShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <mint>",
		Short: "Show a mint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := openNode(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer n.Close()

			addr, err := parseAddress("mint", args[0])
			if err != nil {
				return err
			}
			mint, err := n.ledger.Mint(addr)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]string{
				"address":         mint.Address.String(),
				"decimals":        fmt.Sprint(mint.Decimals),
				"supply":          formatUnits(mint.Supply, mint.Decimals),
				"mintAuthority":   mint.MintAuthority.String(),
				"freezeAuthority": optionalAddress(mint.FreezeAuthority),
			})
		},
	}
}

func optionalAddress(addr crypto.Address) string {
	if addr.IsZero() {
		return ""
	}
	return addr.String()
}
