package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/therebootai/democlinicsoftwarebackend/internal/config"
	"github.com/therebootai/democlinicsoftwarebackend/internal/domain"
	"go.uber.org/zap"
)

// Hosted talks to the external media provider over its HTTP upload API.
type Hosted struct {
	cfg    config.StorageConfig
	client *http.Client
	log    *zap.Logger
}

func NewHosted(cfg config.StorageConfig, log *zap.Logger) *Hosted {
	return &Hosted{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
		log:    log,
	}
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
}

func (h *Hosted) Upload(ctx context.Context, filename string, r io.Reader) (domain.FileRef, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return domain.FileRef{}, fmt.Errorf("building upload form: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return domain.FileRef{}, fmt.Errorf("buffering upload: %w", err)
	}
	folder := path.Join(h.cfg.Folder, Subfolder(filename))
	mw.WriteField("folder", folder)
	mw.WriteField("api_key", h.cfg.APIKey)
	if err := mw.Close(); err != nil {
		return domain.FileRef{}, fmt.Errorf("finalizing upload form: %w", err)
	}

	endpoint := strings.TrimSuffix(h.cfg.BaseURL, "/") + "/upload"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return domain.FileRef{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.SetBasicAuth(h.cfg.APIKey, h.cfg.APISecret)

	resp, err := h.client.Do(req)
	if err != nil {
		return domain.FileRef{}, fmt.Errorf("uploading asset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.FileRef{}, fmt.Errorf("upload failed with status %d", resp.StatusCode)
	}

	var ur uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&ur); err != nil {
		return domain.FileRef{}, fmt.Errorf("decoding upload response: %w", err)
	}

	h.log.Debug("asset uploaded",
		zap.String("public_id", ur.PublicID),
		zap.String("folder", folder),
	)

	return domain.FileRef{SecureURL: ur.SecureURL, PublicID: ur.PublicID}, nil
}

func (h *Hosted) Delete(ctx context.Context, publicID string) error {
	endpoint := strings.TrimSuffix(h.cfg.BaseURL, "/") + "/destroy"
	form := url.Values{"public_id": {publicID}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(h.cfg.APIKey, h.cfg.APISecret)

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("deleting asset: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return fmt.Errorf("delete failed with status %d", resp.StatusCode)
	}
}
