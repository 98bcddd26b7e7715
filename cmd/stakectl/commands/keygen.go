package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"stakeledger/config"
	"stakeledger/crypto"
)

func NewKeygenCmd() *cobra.Command {
	var light bool
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a signing key into the configured keystore",
		Long:  "Generate a secp256k1 key, encrypt it with the passphrase from --passphrase-env, and print its address.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(ConfigPath)
			if err != nil {
				return err
			}
			params := crypto.StandardKeystore
			if light {
				params = crypto.LightKeystore
			}
			path := keystorePath(cfg)
			key, err := crypto.GenerateKeystore(path, passphrase(), params)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", key.Address())
			return nil
		},
	}
	cmd.Flags().BoolVar(&light, "light", false, "Use light scrypt parameters (development only)")
	return cmd
}
