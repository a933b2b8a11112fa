package commands

// Command to list storage usage and upload-eligible vaults per account

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"tusky-uploader/internal/features/vaults"
	"tusky-uploader/internal/infra/console"
	"tusky-uploader/internal/infra/proxy"
)

var vaultsCmd = &cobra.Command{
	Use:   "vaults",
	Short: "Show storage and eligible vaults for every account",
	Long:  `Log in with every configured account, print its storage quota and the active, non-encrypted vaults that the run command would upload into.`,
	RunE:  runVaults,
}

func runVaults(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.log.Sync()

	pool := proxy.NewPool(a.proxies.Entries)
	for i, acct := range a.accounts.Accounts {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		a.log.Step(fmt.Sprintf("Account %d/%d: %s", i+1, len(a.accounts.Accounts), acct.Strategy.Describe()))
		client := a.clientForAccount(pool)

		token, err := acct.Strategy.Authenticate(ctx, client, a.log)
		if err != nil {
			a.log.Error(fmt.Sprintf("Account %s: %v", acct.Name, err))
			continue
		}
		client.SetJWT(token)

		if _, err := vaults.FetchStorage(ctx, client, a.log); err != nil {
			continue
		}
		ids, err := vaults.Discover(ctx, client, a.log)
		if err != nil {
			continue
		}
		for _, id := range ids {
			console.KeyValue(os.Stdout, "Vault", id)
		}
	}
	return nil
}
