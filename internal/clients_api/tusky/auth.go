package tusky

import (
	"context"
	"fmt"
	"net/http"
)

// ChallengeRequest - body of /auth/create-challenge
type ChallengeRequest struct {
	Address string `json:"address"`
}

// ChallengeResponse carries the one-time nonce to sign.
type ChallengeResponse struct {
	Nonce string `json:"nonce"`
}

type VerifyRequest struct {
	Address   string `json:"address"`
	Signature string `json:"signature"`
}

// VerifyResponse carries the bearer token for subsequent calls.
type VerifyResponse struct {
	IDToken string `json:"idToken"`
}

// CreateChallenge asks for a nonce bound to address.
func (c *Client) CreateChallenge(ctx context.Context, address string) (*ChallengeResponse, error) {
	respBody, err := c.MakeRequest(ctx, http.MethodPost, "/auth/create-challenge", ChallengeRequest{Address: address})
	if err != nil {
		return nil, fmt.Errorf("failed to create challenge: %w", err)
	}
	var resp ChallengeResponse
	if err := decode(respBody, &resp, "challenge"); err != nil {
		return nil, err
	}
	return &resp, nil
}

// VerifyChallenge exchanges the signed nonce for an idToken.
func (c *Client) VerifyChallenge(ctx context.Context, address, signature string) (*VerifyResponse, error) {
	respBody, err := c.MakeRequest(ctx, http.MethodPost, "/auth/verify-challenge", VerifyRequest{Address: address, Signature: signature})
	if err != nil {
		return nil, fmt.Errorf("failed to verify challenge: %w", err)
	}
	var resp VerifyResponse
	if err := decode(respBody, &resp, "verify"); err != nil {
		return nil, err
	}
	return &resp, nil
}
