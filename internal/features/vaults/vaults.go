package vaults

import (
	"context"
	"fmt"

	"tusky-uploader/internal/clients_api/tusky"
	"tusky-uploader/internal/infra/log"

	"go.uber.org/zap"
)

const (
	StatusActive = "active"
	// ListLimit is the page size ceiling; no pagination beyond it.
	ListLimit = 1000
)

// API is the part of the Tusky API used for discovery.
type API interface {
	GetStorage(ctx context.Context) (*tusky.StorageInfo, error)
	ListVaults(ctx context.Context, opts tusky.ListVaultsOptions) (*tusky.VaultsResponse, error)
}

// FetchStorage logs the account quota.
func FetchStorage(ctx context.Context, api API, l *log.Logger) (*tusky.StorageInfo, error) {
	l.Step("Fetching storage information")
	info, err := api.GetStorage(ctx)
	if err != nil {
		l.Error("Failed to fetch storage info: " + err.Error())
		return nil, err
	}
	l.Info(fmt.Sprintf("Storage Available: %d bytes (~%.2f MB)", info.StorageAvailable, megabytes(info.StorageAvailable)),
		zap.Int64("storage_available", info.StorageAvailable))
	l.Info(fmt.Sprintf("Storage Total: %d bytes (~%.2f MB)", info.StorageTotal, megabytes(info.StorageTotal)),
		zap.Int64("storage_total", info.StorageTotal))
	return info, nil
}

func megabytes(b int64) float64 { return float64(b) / 1000000 }

// Eligible keeps unencrypted active vaults, preserving order.
func Eligible(items []tusky.Vault) []tusky.Vault {
	out := make([]tusky.Vault, 0, len(items))
	for _, v := range items {
		if !v.Encrypted && v.Status == StatusActive {
			out = append(out, v)
		}
	}
	return out
}

// Discover returns ids of vaults that can receive uploads.
// An empty result is not an error.
func Discover(ctx context.Context, api API, l *log.Logger) ([]string, error) {
	l.Step("Fetching active, non-encrypted vaults")
	resp, err := api.ListVaults(ctx, tusky.ListVaultsOptions{Status: StatusActive, Limit: ListLimit})
	if err != nil {
		l.Error("Failed to fetch vaults: " + err.Error())
		return nil, err
	}

	eligible := Eligible(resp.Items)
	if len(eligible) == 0 {
		l.Error("No active, non-encrypted vaults found")
		return []string{}, nil
	}

	ids := make([]string, 0, len(eligible))
	for _, v := range eligible {
		ids = append(ids, v.ID)
	}
	l.Info(fmt.Sprintf("Found %d active, non-encrypted vaults", len(ids)))
	return ids, nil
}
