package picsum

// Placeholder image fetcher for picsum.photos (or any URL returning image bytes).
// Direct connection, not routed through account proxies.
// Transient failures are retried with the common retry module only when retries > 0.

import (
	"context"
	"fmt"
	"time"

	"tusky-uploader/internal/common"
	"tusky-uploader/internal/infra/retry"

	"github.com/go-resty/resty/v2"
)

// DefaultImageURL serves a random 800x600 JPEG.
const DefaultImageURL = "https://picsum.photos/800/600"

var picsumRetry = retry.Options{
	BaseDelay: 300 * time.Millisecond,
	MaxDelay:  5 * time.Second,
}

// Source downloads one image per Fetch call.
type Source struct {
	url    string
	client *resty.Client
	retry  retry.Options
}

// NewSource builds a fetcher. retries is the number of extra attempts on 429/5xx; 0 fails on the first error.
func NewSource(url string, timeout time.Duration, retries int) *Source {
	if url == "" {
		url = DefaultImageURL
	}
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "image/avif,image/webp,image/apng,image/*,*/*;q=0.8").
		SetHeader("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/139.0.0.0 Safari/537.36")
	opts := picsumRetry
	opts.MaxRetries = retries
	return &Source{url: url, client: client, retry: opts}
}

// Fetch returns the response body as opaque bytes.
func (s *Source) Fetch(ctx context.Context) ([]byte, error) {
	var body []byte
	err := retry.Do(ctx, s.retry, func() error {
		resp, err := s.client.R().SetContext(ctx).Get(s.url)
		if err != nil {
			return err
		}
		if resp.IsError() {
			return &retry.HTTPError{
				StatusCode: resp.StatusCode(),
				Body:       []byte(common.Truncate(string(resp.Body()), 200)),
				RetryAfter: retry.ParseRetryAfter(resp.Header().Get("Retry-After")),
			}
		}
		body = resp.Body()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch placeholder image: %w: %w", common.ErrNetwork, err)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("failed to fetch placeholder image: %w: empty body", common.ErrNetwork)
	}
	return body, nil
}
