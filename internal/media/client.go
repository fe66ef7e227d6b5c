package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// Client talks to a Cloudinary-style HTTP media host:
// POST {base}/upload (multipart, field "file") -> {secure_url, public_id}
// POST {base}/destroy (form, field "public_id") -> {result}
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	l          *zap.Logger
}

var _ Host = (*Client)(nil)

// NewClient creates a media host client.
func NewClient(baseURL, apiKey string, l *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		l: l,
	}
}

// Upload sends the file at filePath to the media host and returns the hosted
// URL and public id. The caller owns cleanup of the local file.
func (c *Client) Upload(ctx context.Context, filePath string) (*UploadResult, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open upload file: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return nil, fmt.Errorf("create multipart: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("copy upload file: %w", err)
	}
	if c.apiKey != "" {
		if err := mw.WriteField("api_key", c.apiKey); err != nil {
			return nil, fmt.Errorf("write api key: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &body)
	if err != nil {
		return nil, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("upload image: media host returned %d: %s", resp.StatusCode, snippet)
	}

	var result UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode upload response: %w", err)
	}
	if result.SecureURL == "" || result.PublicID == "" {
		return nil, fmt.Errorf("upload image: incomplete media host response")
	}
	return &result, nil
}

// Destroy removes a previously uploaded image. A "not found" result is
// treated as success so retried deletes stay idempotent.
func (c *Client) Destroy(ctx context.Context, publicID string) error {
	form := url.Values{}
	form.Set("public_id", publicID)
	if c.apiKey != "" {
		form.Set("api_key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/destroy", bytes.NewBufferString(form.Encode()))
	if err != nil {
		return fmt.Errorf("build destroy request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("destroy image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("destroy image: media host returned %d: %s", resp.StatusCode, snippet)
	}

	var result struct {
		Result string `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode destroy response: %w", err)
	}
	if result.Result != "ok" && result.Result != "not found" {
		c.l.Warn("unexpected destroy result", zap.String("public_id", publicID), zap.String("result", result.Result))
		return fmt.Errorf("destroy image: unexpected result %q", result.Result)
	}
	return nil
}
