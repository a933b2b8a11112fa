package tusky

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// StorageInfo - account quota in bytes
type StorageInfo struct {
	StorageAvailable int64 `json:"storageAvailable"`
	StorageTotal     int64 `json:"storageTotal"`
}

// Vault is a storage container owned by the account.
type Vault struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	Encrypted bool   `json:"encrypted"`
	Status    string `json:"status"`
}

type VaultsResponse struct {
	Items []Vault `json:"items"`
}

// ListVaultsOptions are sent as query parameters; zero values are omitted.
type ListVaultsOptions struct {
	Status string
	Limit  int
}

func (c *Client) GetStorage(ctx context.Context) (*StorageInfo, error) {
	respBody, err := c.MakeRequest(ctx, http.MethodGet, "/storage", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get storage: %w", err)
	}
	var info StorageInfo
	if err := decode(respBody, &info, "storage"); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) ListVaults(ctx context.Context, opts ListVaultsOptions) (*VaultsResponse, error) {
	params := url.Values{}
	if opts.Status != "" {
		params.Set("status", opts.Status)
	}
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}
	endpoint := "/vaults"
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	respBody, err := c.MakeRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list vaults: %w", err)
	}
	var resp VaultsResponse
	if err := decode(respBody, &resp, "vaults"); err != nil {
		return nil, err
	}
	return &resp, nil
}
