// Package auth turns an account credential into a bearer token.
package auth

import (
	"context"
	"fmt"
	"time"

	"tusky-uploader/internal/clients_api/tusky"
	"tusky-uploader/internal/common"
	"tusky-uploader/internal/infra/clock"
	"tusky-uploader/internal/infra/log"
)

// ChallengePrefix is prepended to the server nonce before signing.
const ChallengePrefix = "tusky:connect:"

// ChallengeAPI is the part of the Tusky API used for login.
type ChallengeAPI interface {
	CreateChallenge(ctx context.Context, address string) (*tusky.ChallengeResponse, error)
	VerifyChallenge(ctx context.Context, address, signature string) (*tusky.VerifyResponse, error)
}

// Keypair is a wallet that can prove ownership of an address.
type Keypair interface {
	Address() string
	SignPersonalMessage(msg []byte) (string, error)
}

// Strategy produces a bearer token for one account.
type Strategy interface {
	Authenticate(ctx context.Context, api ChallengeAPI, l *log.Logger) (string, error)
	// Describe is safe to log.
	Describe() string
}

// Account is one configured identity.
type Account struct {
	Name     string
	Strategy Strategy
}

// StaticToken uses a pre-obtained idToken as-is.
type StaticToken struct {
	Token string
	// Clock judges token expiry. Nil means the wall clock.
	Clock clock.Clock
}

// Authenticate returns the token. An expired JWT is only warned about; the API has the final say.
func (s StaticToken) Authenticate(_ context.Context, _ ChallengeAPI, l *log.Logger) (string, error) {
	if s.Token == "" {
		return "", fmt.Errorf("%w: empty token", common.ErrConfig)
	}
	clk := s.Clock
	if clk == nil {
		clk = clock.Real
	}
	if exp, ok := TokenExpiry(s.Token); ok && l != nil && clk.Now().After(exp) {
		l.Warn(fmt.Sprintf("Token %s expired at %s", common.Truncate(s.Token, 20), exp.Format(time.DateTime)))
	}
	return s.Token, nil
}

func (s StaticToken) Describe() string {
	return "token " + common.Truncate(s.Token, 20)
}

// ChallengeResponse logs in by signing a server nonce with the wallet key.
type ChallengeResponse struct {
	Keypair Keypair
}

func (c ChallengeResponse) Describe() string {
	return "wallet " + common.ShortAddress(c.Keypair.Address())
}

// Authenticate runs create-challenge, signs "tusky:connect:<nonce>" and
// exchanges the signature for an idToken. No retries.
func (c ChallengeResponse) Authenticate(ctx context.Context, api ChallengeAPI, l *log.Logger) (string, error) {
	address := c.Keypair.Address()

	challenge, err := api.CreateChallenge(ctx, address)
	if err != nil {
		return "", fmt.Errorf("login error: %w", err)
	}
	if challenge == nil || challenge.Nonce == "" {
		return "", fmt.Errorf("invalid challenge response: %w: no nonce received", common.ErrProtocol)
	}

	signature, err := c.Keypair.SignPersonalMessage([]byte(ChallengePrefix + challenge.Nonce))
	if err != nil {
		return "", fmt.Errorf("failed to sign challenge: %w", err)
	}

	verified, err := api.VerifyChallenge(ctx, address, signature)
	if err != nil {
		return "", fmt.Errorf("login error: %w", err)
	}
	if verified == nil || verified.IDToken == "" {
		return "", fmt.Errorf("%w: no idToken received in verify response", common.ErrProtocol)
	}

	if l != nil {
		l.Success(fmt.Sprintf("Account %s: Logged in successfully", common.ShortAddress(address)))
	}
	return verified.IDToken, nil
}
