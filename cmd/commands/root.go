package commands

// Root command for Cobra CLI
// Registers the run, auth and vaults subcommands

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tusky-uploader",
	Short: "Tusky Uploader - fills Tusky testnet vaults with placeholder images",
	Long: `Tusky Uploader logs into the Tusky testnet storage service with static tokens
or Sui wallet mnemonics, finds every active unencrypted vault of each account and
uploads placeholder images into them, optionally repeating every 24 hours.`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config-dir", ".", "Directory holding config.yaml, .env, seed.txt and proxies.txt")
	rootCmd.PersistentFlags().String("mode", "auto", "Credential source: auto, token or seed (env: TUSKY_CREDENTIALS_MODE)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(vaultsCmd)
}
