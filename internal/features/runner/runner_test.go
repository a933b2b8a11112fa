package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tusky-uploader/internal/clients_api/tusky"
	"tusky-uploader/internal/common"
	"tusky-uploader/internal/features/auth"
	"tusky-uploader/internal/features/upload"
	"tusky-uploader/internal/infra/log"
	"tusky-uploader/internal/infra/proxy"
)

type staticImages struct{}

func (staticImages) Fetch(context.Context) ([]byte, error) { return []byte("jpeg"), nil }

type fakeAPI struct {
	vaults  []tusky.Vault
	jwt     string
	uploads []tusky.UploadRequest
}

func (f *fakeAPI) CreateChallenge(context.Context, string) (*tusky.ChallengeResponse, error) {
	return &tusky.ChallengeResponse{Nonce: "n"}, nil
}

func (f *fakeAPI) VerifyChallenge(context.Context, string, string) (*tusky.VerifyResponse, error) {
	return &tusky.VerifyResponse{IDToken: "id"}, nil
}

func (f *fakeAPI) GetStorage(context.Context) (*tusky.StorageInfo, error) {
	return &tusky.StorageInfo{StorageAvailable: 1000000, StorageTotal: 2000000}, nil
}

func (f *fakeAPI) ListVaults(context.Context, tusky.ListVaultsOptions) (*tusky.VaultsResponse, error) {
	return &tusky.VaultsResponse{Items: f.vaults}, nil
}

func (f *fakeAPI) CreateUpload(_ context.Context, r tusky.UploadRequest) (*tusky.UploadResponse, error) {
	f.uploads = append(f.uploads, r)
	return &tusky.UploadResponse{UploadID: fmt.Sprintf("u%d", len(f.uploads))}, nil
}

func (f *fakeAPI) SetJWT(token string) { f.jwt = token }

type recordingSleeper struct {
	delays []time.Duration
	err    error
}

func (s *recordingSleeper) Sleep(_ context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return s.err
}

func directFactory(calls *[]string) HTTPClientFactory {
	return func(proxyURL string) (*http.Client, error) {
		*calls = append(*calls, proxyURL)
		return &http.Client{}, nil
	}
}

func tokenAccounts(tokens ...string) []auth.Account {
	out := make([]auth.Account, 0, len(tokens))
	for i, t := range tokens {
		out = append(out, auth.Account{Name: fmt.Sprintf("token_%d", i+1), Strategy: auth.StaticToken{Token: t}})
	}
	return out
}

func TestRunOnce_UploadsPerVault(t *testing.T) {
	api := &fakeAPI{vaults: []tusky.Vault{
		{ID: "v1", Status: "active"},
		{ID: "v2", Status: "active", Encrypted: true},
		{ID: "v3", Status: "active"},
	}}
	sleeper := &recordingSleeper{}
	var calls []string
	r := New(tokenAccounts("t1"), nil, func(*http.Client) API { return api },
		upload.NewEngine(staticImages{}, nil, nil),
		WithUploads(3), WithSleeper(sleeper), WithHTTPClientFactory(directFactory(&calls)))

	report, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 6, report.Uploads)
	require.Equal(t, 1, report.Succeeded)
	require.Equal(t, "t1", api.jwt)

	perVault := map[string]int{}
	names := map[string]bool{}
	for _, u := range api.uploads {
		perVault[u.VaultID]++
		names[u.FileName] = true
	}
	require.Equal(t, map[string]int{"v1": 3, "v3": 3}, perVault)
	require.Len(t, names, 6)
	// two pauses per vault, none after the last upload of a vault
	require.Len(t, sleeper.delays, 4)
}

func TestRunOnce_ReportTimesFromClock(t *testing.T) {
	clk := &fakeClock{now: time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)}
	api := &fakeAPI{vaults: []tusky.Vault{{ID: "v1", Status: "active"}}}
	var calls []string
	r := New(tokenAccounts("t"), nil, func(*http.Client) API { return api },
		upload.NewEngine(staticImages{}, clk, nil),
		WithUploads(2), WithClock(clk), WithHTTPClientFactory(directFactory(&calls)))

	report, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Cycle)
	require.Len(t, api.uploads, 2)
	// the default sleeper waits on the injected clock
	require.Len(t, clk.waits, 1)
	require.True(t, report.Started.Equal(time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)))
	require.Equal(t, clk.waits[0], report.Duration())
}

func TestRunOnce_ProxyRotation(t *testing.T) {
	pool := proxy.NewPool([]string{"http://p0:8080", "http://p1:8080"})
	var calls []string
	r := New(tokenAccounts("a", "b", "c", "d", "e"), pool, func(*http.Client) API { return &fakeAPI{} },
		upload.NewEngine(staticImages{}, nil, nil), WithHTTPClientFactory(directFactory(&calls)))

	_, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"http://p0:8080", "http://p1:8080", "http://p0:8080", "http://p1:8080", "http://p0:8080"}, calls)

	// the counter carries over into the next cycle
	calls = nil
	_, err = r.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, "http://p1:8080", calls[0])
	require.Equal(t, 10, pool.Counter())
}

func TestRunOnce_UnusableProxyFallsBackToDirect(t *testing.T) {
	pool := proxy.NewPool([]string{"socks4://bad:1080"})
	var calls []string
	factory := func(proxyURL string) (*http.Client, error) {
		calls = append(calls, proxyURL)
		if proxyURL != "" {
			return nil, errors.New("unsupported proxy scheme: socks4")
		}
		return &http.Client{}, nil
	}
	api := &fakeAPI{vaults: []tusky.Vault{{ID: "v1", Status: "active"}}}
	r := New(tokenAccounts("t"), pool, func(*http.Client) API { return api },
		upload.NewEngine(staticImages{}, nil, nil), WithHTTPClientFactory(factory))

	report, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"socks4://bad:1080", ""}, calls)
	require.Equal(t, 1, report.Uploads)
}

func TestRunOnce_DelaysWithinWindow(t *testing.T) {
	api := &fakeAPI{vaults: []tusky.Vault{{ID: "v1", Status: "active"}}}
	sleeper := &recordingSleeper{}
	var calls []string
	r := New(tokenAccounts("t"), nil, func(*http.Client) API { return api },
		upload.NewEngine(staticImages{}, nil, nil),
		WithUploads(3), WithSleeper(sleeper), WithHTTPClientFactory(directFactory(&calls)))

	_, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, api.uploads, 3)
	require.Len(t, sleeper.delays, 2)
	for _, d := range sleeper.delays {
		require.GreaterOrEqual(t, d, 20000*time.Millisecond)
		require.Less(t, d, 35000*time.Millisecond)
	}
}

func TestNextDelay_Bounds(t *testing.T) {
	r := New(nil, nil, nil, nil, WithRand(func(n int64) int64 { return n - 1 }))
	require.Equal(t, 34999*time.Millisecond, r.NextDelay())

	r = New(nil, nil, nil, nil, WithRand(func(int64) int64 { return 0 }))
	require.Equal(t, 20000*time.Millisecond, r.NextDelay())

	r = New(nil, nil, nil, nil, WithDelay(time.Second, time.Second))
	require.Equal(t, time.Second, r.NextDelay())
}

func TestRunOnce_AccountFailureContinues(t *testing.T) {
	api := &fakeAPI{vaults: []tusky.Vault{{ID: "v1", Status: "active"}}}
	var calls []string
	r := New(tokenAccounts("", "good"), nil, func(*http.Client) API { return api },
		upload.NewEngine(staticImages{}, nil, nil), WithHTTPClientFactory(directFactory(&calls)))

	report, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Failed)
	require.Equal(t, 1, report.Succeeded)
	require.Len(t, api.uploads, 1)
	require.Equal(t, "good", api.jwt)
}

func TestRunOnce_CancelledDuringDelay(t *testing.T) {
	api := &fakeAPI{vaults: []tusky.Vault{{ID: "v1", Status: "active"}}}
	ctx, cancel := context.WithCancel(context.Background())
	sleeper := &cancellingSleeper{cancel: cancel}
	var calls []string
	r := New(tokenAccounts("a", "b"), nil, func(*http.Client) API { return api },
		upload.NewEngine(staticImages{}, nil, nil),
		WithUploads(5), WithSleeper(sleeper), WithHTTPClientFactory(directFactory(&calls)))

	report, err := r.RunOnce(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, report.Uploads)
	require.Len(t, calls, 1)
}

type cancellingSleeper struct{ cancel context.CancelFunc }

func (s *cancellingSleeper) Sleep(ctx context.Context, _ time.Duration) error {
	s.cancel()
	return ctx.Err()
}

// Two static tokens, no proxies, one upload each against a live HTTP server.
func TestRunOnce_TokensEndToEnd(t *testing.T) {
	var (
		mu      sync.Mutex
		uploads []string
		tusHdrs []string
	)
	mux := http.NewServeMux()
	mux.HandleFunc("/storage", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(tusky.StorageInfo{StorageAvailable: 5, StorageTotal: 10})
	})
	mux.HandleFunc("/vaults", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(tusky.VaultsResponse{Items: []tusky.Vault{
			{ID: "vault-1", Status: r.URL.Query().Get("status")},
			{ID: "vault-2", Status: "active", Encrypted: true},
		}})
	})
	mux.HandleFunc("/uploads", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		uploads = append(uploads, r.Header.Get("Authorization"))
		tusHdrs = append(tusHdrs, r.Header.Get("Tus-Resumable"))
		mu.Unlock()
		_ = json.NewEncoder(w).Encode(tusky.UploadResponse{UploadID: "up"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	proxied := 0
	factory := func(proxyURL string) (*http.Client, error) {
		if proxyURL != "" {
			proxied++
		}
		return srv.Client(), nil
	}
	newAPI := func(hc *http.Client) API {
		return tusky.NewClient(srv.URL, hc, tusky.WithRateLimit(0, 0), tusky.WithoutCircuitBreaker())
	}
	r := New(tokenAccounts("tok1", "tok2"), proxy.NewPool(nil), newAPI,
		upload.NewEngine(staticImages{}, nil, log.NewNop()), WithHTTPClientFactory(factory))

	report, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, report.Succeeded)
	require.Zero(t, proxied)
	require.Equal(t, []string{"Bearer tok1", "Bearer tok2"}, uploads)
	require.Equal(t, []string{tusky.TusVersion, tusky.TusVersion}, tusHdrs)
}

func TestRunOnce_UnauthorizedAccountIsSkipped(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/storage", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer expired" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(tusky.StorageInfo{})
	})
	mux.HandleFunc("/vaults", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(tusky.VaultsResponse{})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	newAPI := func(hc *http.Client) API {
		return tusky.NewClient(srv.URL, hc, tusky.WithRateLimit(0, 0), tusky.WithoutCircuitBreaker())
	}
	var calls []string
	r := New(tokenAccounts("expired", "fresh"), nil, newAPI,
		upload.NewEngine(staticImages{}, nil, nil), WithHTTPClientFactory(directFactory(&calls)))

	report, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Failed)
	require.Equal(t, 1, report.Succeeded)
	require.Zero(t, report.Uploads)
}

func TestRepeatPolicy(t *testing.T) {
	p, err := ParseRepeatPolicy("")
	require.NoError(t, err)
	require.True(t, p.Repeats(true))
	require.False(t, p.Repeats(false))

	p, err = ParseRepeatPolicy("Always")
	require.NoError(t, err)
	require.True(t, p.Repeats(false))

	p, err = ParseRepeatPolicy("never")
	require.NoError(t, err)
	require.False(t, p.Repeats(true))

	_, err = ParseRepeatPolicy("weekly")
	require.True(t, errors.Is(err, common.ErrConfig))
}
