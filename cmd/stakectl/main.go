package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"stakeledger/cmd/stakectl/commands"
)

var rootCmd = &cobra.Command{
	Use:           "stakectl",
	Short:         "Operate a local stake ledger",
	Long:          "Create mints and token accounts, bootstrap the stake pool, and stake or unstake against a local ledger.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&commands.ConfigPath, "config", "stakeledger.toml", "Path to the ledger config file (.toml or .yaml)")
	rootCmd.PersistentFlags().StringVar(&commands.KeystorePath, "keystore", "", "Keystore to sign with (default: KeystorePath from config)")
	rootCmd.PersistentFlags().StringVar(&commands.PassphraseEnv, "passphrase-env", "STAKELEDGER_PASSPHRASE", "Environment variable holding the keystore passphrase")
	rootCmd.PersistentFlags().StringVar(&commands.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this file after each transaction (default: MetricsFile from config)")
}

func main() {
	rootCmd.AddCommand(commands.NewKeygenCmd())
	rootCmd.AddCommand(commands.NewMintCmd())
	rootCmd.AddCommand(commands.NewAccountCmd())
	rootCmd.AddCommand(commands.NewTransferCmd())
	rootCmd.AddCommand(commands.NewPoolCmd())
	rootCmd.AddCommand(commands.NewStakeCmd())
	rootCmd.AddCommand(commands.NewUnstakeCmd())
	rootCmd.AddCommand(commands.NewPositionCmd())
	rootCmd.AddCommand(commands.NewRootCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
