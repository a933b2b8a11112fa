package commands

// Command to check that every configured account can log in
// Runs the wallet challenge/response login (or takes the static token)
// and prints the address and a truncated token; uploads nothing

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tusky-uploader/internal/common"
	"tusky-uploader/internal/features/auth"
	"tusky-uploader/internal/infra/console"
	"tusky-uploader/internal/infra/proxy"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Log in with every configured account and print the tokens",
	Long:  `Derive wallet addresses from the seed file (or read token_N env vars), perform the Tusky login and print a truncated idToken per account.`,
	RunE:  runAuth,
}

func runAuth(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.log.Sync()

	pool := proxy.NewPool(a.proxies.Entries)
	ok := 0
	for i, acct := range a.accounts.Accounts {
		a.log.Step(fmt.Sprintf("Account %d/%d: %s", i+1, len(a.accounts.Accounts), acct.Strategy.Describe()))
		client := a.clientForAccount(pool)

		token, err := acct.Strategy.Authenticate(ctx, client, a.log)
		if err != nil {
			a.log.Error(fmt.Sprintf("Account %s: %v", acct.Name, err))
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}
		ok++
		console.KeyValue(os.Stdout, "Account", acct.Name)
		console.KeyValue(os.Stdout, "Token", common.Truncate(token, 20))
		if exp, ok := auth.TokenExpiry(token); ok {
			console.KeyValue(os.Stdout, "Expires", exp.Local().Format(time.DateTime))
		}
	}

	if ok == 0 {
		return fmt.Errorf("%w: no account could log in", common.ErrProtocol)
	}
	a.log.Success(fmt.Sprintf("%d/%d accounts logged in", ok, len(a.accounts.Accounts)))
	return nil
}
