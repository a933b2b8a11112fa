package upload

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tusky-uploader/internal/clients_api/tusky"
	"tusky-uploader/internal/infra/log"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time                         { return c.t }
func (c fixedClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

type staticImages struct {
	data []byte
	err  error
}

func (s staticImages) Fetch(context.Context) ([]byte, error) { return s.data, s.err }

type recordingAPI struct {
	requests []tusky.UploadRequest
	err      error
}

func (r *recordingAPI) CreateUpload(_ context.Context, req tusky.UploadRequest) (*tusky.UploadResponse, error) {
	r.requests = append(r.requests, req)
	if r.err != nil {
		return nil, r.err
	}
	return &tusky.UploadResponse{UploadID: "up-" + req.FileName}, nil
}

func TestEngine_Upload(t *testing.T) {
	clk := fixedClock{t: time.UnixMilli(1700000000123)}
	e := NewEngine(staticImages{data: []byte("jpeg")}, clk, log.NewNop())
	api := &recordingAPI{}

	id, err := e.Upload(context.Background(), api, "vault-1")
	require.NoError(t, err)
	require.Equal(t, "up-image_1700000000123.jpg", id)

	require.Len(t, api.requests, 1)
	req := api.requests[0]
	require.Equal(t, "vault-1", req.VaultID)
	require.Equal(t, "vault-1", req.ParentID)
	require.Equal(t, "image/jpeg", req.MimeType)
	require.Equal(t, []byte("jpeg"), req.Data)
}

func TestEngine_FileNamesDistinctWithinSameMillisecond(t *testing.T) {
	e := NewEngine(staticImages{data: []byte("x")}, fixedClock{t: time.UnixMilli(1000)}, nil)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		name := e.NextFileName()
		require.False(t, seen[name], name)
		seen[name] = true
	}
	require.True(t, seen["image_1000.jpg"])
	require.True(t, seen["image_1049.jpg"])
}

func TestEngine_UploadError(t *testing.T) {
	boom := errors.New("API error (413)")
	api := &recordingAPI{err: boom}
	_, err := NewEngine(staticImages{data: []byte("x")}, nil, nil).Upload(context.Background(), api, "v")
	require.ErrorIs(t, err, boom)
}

func TestEngine_ImageErrorSkipsUpload(t *testing.T) {
	boom := errors.New("picsum down")
	api := &recordingAPI{}
	_, err := NewEngine(staticImages{err: boom}, nil, nil).Upload(context.Background(), api, "v")
	require.ErrorIs(t, err, boom)
	require.Empty(t, api.requests)
}
