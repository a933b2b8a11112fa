package upload

import (
	"context"
	"fmt"

	"tusky-uploader/internal/clients_api/tusky"
	"tusky-uploader/internal/common"
	"tusky-uploader/internal/infra/clock"
	"tusky-uploader/internal/infra/log"

	"go.uber.org/zap"
)

const (
	MimeType = "image/jpeg"

	reasonMaxLen = 120
)

// API is the upload endpoint of the Tusky API.
type API interface {
	CreateUpload(ctx context.Context, r tusky.UploadRequest) (*tusky.UploadResponse, error)
}

// ImageSource supplies placeholder payloads.
type ImageSource interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// Job is one file destined for one vault.
type Job struct {
	VaultID  string
	Payload  []byte
	FileName string
	MimeType string
}

// Engine pushes placeholder images into vaults, one request per image.
// Not safe for concurrent use.
type Engine struct {
	images     ImageSource
	clock      clock.Clock
	log        *log.Logger
	lastMillis int64
}

func NewEngine(images ImageSource, clk clock.Clock, l *log.Logger) *Engine {
	if clk == nil {
		clk = clock.Real
	}
	if l == nil {
		l = log.NewNop()
	}
	return &Engine{images: images, clock: clk, log: l}
}

// NextFileName returns image_<epoch-millis>.jpg, strictly increasing within the process.
func (e *Engine) NextFileName() string {
	ms := e.clock.Now().UnixMilli()
	if ms <= e.lastMillis {
		ms = e.lastMillis + 1
	}
	e.lastMillis = ms
	return fmt.Sprintf("image_%d.jpg", ms)
}

// Prepare fetches a payload and names it.
func (e *Engine) Prepare(ctx context.Context, vaultID string) (*Job, error) {
	data, err := e.images.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return &Job{VaultID: vaultID, Payload: data, FileName: e.NextFileName(), MimeType: MimeType}, nil
}

// Upload sends one placeholder image into vaultID and returns the upload id.
func (e *Engine) Upload(ctx context.Context, api API, vaultID string) (string, error) {
	e.log.Step("Uploading file to vault " + vaultID)

	job, err := e.Prepare(ctx, vaultID)
	if err != nil {
		e.log.Error("Failed to fetch placeholder image: "+common.Truncate(err.Error(), reasonMaxLen), zap.Error(err))
		return "", err
	}

	resp, err := api.CreateUpload(ctx, tusky.UploadRequest{
		VaultID:  job.VaultID,
		ParentID: job.VaultID,
		FileName: job.FileName,
		MimeType: job.MimeType,
		Data:     job.Payload,
	})
	if err != nil {
		e.log.Error("Failed to upload file: "+common.Truncate(err.Error(), reasonMaxLen), zap.String("vault_id", vaultID), zap.Error(err))
		return "", err
	}

	e.log.Success("File uploaded, ID: "+resp.UploadID,
		zap.String("vault_id", vaultID), zap.String("file", job.FileName), zap.Int("size", len(job.Payload)))
	return resp.UploadID, nil
}
