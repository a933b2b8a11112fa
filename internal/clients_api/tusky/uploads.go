package tusky

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

const (
	TusVersion        = "1.0.0"
	TusContentType    = "application/offset+octet-stream"
	relativePathValue = "null"
)

// MetadataPair is one key of the tus Upload-Metadata header.
type MetadataPair struct {
	Key   string
	Value string
}

// UploadRequest is a single-chunk tus creation-with-upload.
type UploadRequest struct {
	VaultID  string
	ParentID string
	FileName string
	MimeType string
	Data     []byte
}

type UploadResponse struct {
	UploadID string `json:"uploadId"`
}

// Metadata lists the pairs the Tusky app sends, in its order.
// ParentID defaults to VaultID (upload into the vault root).
func (r UploadRequest) Metadata() []MetadataPair {
	parent := r.ParentID
	if parent == "" {
		parent = r.VaultID
	}
	return []MetadataPair{
		{"vaultId", r.VaultID},
		{"parentId", parent},
		{"relativePath", relativePathValue},
		{"name", r.FileName},
		{"type", r.MimeType},
		{"filetype", r.MimeType},
		{"filename", r.FileName},
	}
}

// EncodeUploadMetadata renders "key base64(value),key base64(value),...".
func EncodeUploadMetadata(pairs []MetadataPair) string {
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, p.Key+" "+base64.StdEncoding.EncodeToString([]byte(p.Value)))
	}
	return strings.Join(parts, ",")
}

// CreateUpload posts the whole payload in one request.
func (c *Client) CreateUpload(ctx context.Context, r UploadRequest) (*UploadResponse, error) {
	h := http.Header{}
	h.Set("Content-Type", TusContentType)
	h.Set("Tus-Resumable", TusVersion)
	h.Set("Upload-Length", strconv.Itoa(len(r.Data)))
	h.Set("Upload-Metadata", EncodeUploadMetadata(r.Metadata()))

	data := r.Data
	if data == nil {
		data = []byte{}
	}
	respBody, err := c.send(ctx, request{method: http.MethodPost, endpoint: "/uploads", rawBody: data, header: h})
	if err != nil {
		return nil, fmt.Errorf("failed to upload file: %w", err)
	}
	var resp UploadResponse
	if err := decode(respBody, &resp, "upload"); err != nil {
		return nil, err
	}
	return &resp, nil
}
