// Package credentials builds the ordered account list from env tokens or a seed file.
package credentials

import (
	"errors"
	"fmt"
	iofs "io/fs"
	"strings"

	"tusky-uploader/internal/common"
	"tusky-uploader/internal/features/auth"
	"tusky-uploader/internal/infra/fs"
	"tusky-uploader/internal/wallet/sui"
)

type Mode string

const (
	ModeAuto  Mode = "auto"
	ModeToken Mode = "token"
	ModeSeed  Mode = "seed"

	// MinMnemonicWords - shorter lines are rejected before derivation.
	MinMnemonicWords = 12

	tokenEnvPrefix = "token_"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "", ModeAuto:
		return ModeAuto, nil
	case ModeToken, ModeSeed:
		return m, nil
	}
	return "", fmt.Errorf("%w: unknown credentials mode %q (want auto, token or seed)", common.ErrConfig, s)
}

// Rejection is an input line that produced no account. Source never contains secret material.
type Rejection struct {
	Source string
	Reason error
}

type Result struct {
	Mode     Mode
	Accounts []auth.Account
	Rejected []Rejection
}

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// LoadTokens reads token_1, token_2, ... stopping at the first missing or empty one.
func LoadTokens(lookup LookupFunc) *Result {
	res := &Result{Mode: ModeToken}
	for i := 1; ; i++ {
		name := fmt.Sprintf("%s%d", tokenEnvPrefix, i)
		v, ok := lookup(name)
		v = strings.TrimSpace(v)
		if !ok || v == "" {
			break
		}
		res.Accounts = append(res.Accounts, auth.Account{Name: name, Strategy: auth.StaticToken{Token: v}})
	}
	return res
}

// LoadSeeds derives one wallet account per mnemonic line of path.
func LoadSeeds(path string) (*Result, error) {
	lines, err := fs.ReadLines(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load seed phrases: %w", err)
	}

	res := &Result{Mode: ModeSeed}
	for i, line := range lines {
		source := fmt.Sprintf("%s:%d", path, i+1)
		if n := len(strings.Fields(line)); n < MinMnemonicWords {
			res.Rejected = append(res.Rejected, Rejection{
				Source: source,
				Reason: fmt.Errorf("%w: mnemonic has %d words, need at least %d", common.ErrInput, n, MinMnemonicWords),
			})
			continue
		}
		kp, err := sui.FromMnemonic(line)
		if err != nil {
			res.Rejected = append(res.Rejected, Rejection{Source: source, Reason: fmt.Errorf("%w: %w", common.ErrInput, err)})
			continue
		}
		res.Accounts = append(res.Accounts, auth.Account{
			Name:     common.ShortAddress(kp.Address()),
			Strategy: auth.ChallengeResponse{Keypair: kp},
		})
	}
	return res, nil
}

// Load picks the credential source for mode. In auto mode a seed file that
// yields at least one account wins over env tokens.
// Returns ErrConfig when no account could be built.
func Load(mode Mode, seedFile string, lookup LookupFunc) (*Result, error) {
	switch mode {
	case ModeToken:
		return requireAccounts(LoadTokens(lookup), "no tokens found (set token_1, token_2, ... in .env)")
	case ModeSeed:
		res, err := LoadSeeds(seedFile)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", common.ErrConfig, err)
		}
		return requireAccounts(res, "no valid seed phrases in "+seedFile)
	}

	res, err := LoadSeeds(seedFile)
	if err != nil && !errors.Is(err, iofs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %w", common.ErrConfig, err)
	}
	if err == nil && len(res.Accounts) > 0 {
		return res, nil
	}
	tokens := LoadTokens(lookup)
	if res != nil {
		tokens.Rejected = append(res.Rejected, tokens.Rejected...)
	}
	return requireAccounts(tokens, "no credentials found: add mnemonics to "+seedFile+" or token_1, token_2, ... to .env")
}

func requireAccounts(res *Result, msg string) (*Result, error) {
	if len(res.Accounts) == 0 {
		return res, fmt.Errorf("%w: %s", common.ErrConfig, msg)
	}
	return res, nil
}
