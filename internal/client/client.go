// Package client is a typed client for the marketplace REST API. The web
// page layer drives every loader and action through it, forwarding the
// caller's session cookie.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"artmarket/internal/middleware"
	"artmarket/internal/model"
	"artmarket/internal/service"
)

// Client calls the marketplace REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the API rooted at baseURL (".../api").
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// File is an upload attached to a multipart request.
type File struct {
	FieldName string
	FileName  string
	Content   io.Reader
}

// ListQuery mirrors the listing query parameters; zero values are omitted.
type ListQuery struct {
	Search   string
	Location string
	Sort     string
	Page     int
	Limit    int
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, name, email, password string) error {
	body := map[string]string{"name": name, "email": email, "password": password}
	return c.doJSON(ctx, http.MethodPost, "/auth/register", "", body, nil)
}

// Login exchanges credentials for the session token set by the API cookie.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return "", fmt.Errorf("encode login: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", readAPIError(resp)
	}
	for _, cookie := range resp.Cookies() {
		if cookie.Name == middleware.CookieName {
			return cookie.Value, nil
		}
	}
	return "", fmt.Errorf("login: no session cookie in response")
}

// Logout expires the session cookie server-side; the caller drops its copy.
func (c *Client) Logout(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/auth/logout", "", nil, nil)
}

// CurrentUser returns the authenticated profile.
func (c *Client) CurrentUser(ctx context.Context, token string) (*model.User, error) {
	var out struct {
		User *model.User `json:"user"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/users/current-user", token, nil, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// UpdateProfile patches the provided profile fields.
func (c *Client) UpdateProfile(ctx context.Context, token string, fields map[string]string) error {
	return c.doJSON(ctx, http.MethodPatch, "/users/update-user", token, fields, nil)
}

// AppStats returns the admin counters.
func (c *Client) AppStats(ctx context.Context, token string) (*service.AppStats, error) {
	var out service.AppStats
	if err := c.doJSON(ctx, http.MethodGet, "/users/admin/app-stats", token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListArtworks fetches a filtered, paginated artwork page.
func (c *Client) ListArtworks(ctx context.Context, q ListQuery) (*service.ListResult, error) {
	values := url.Values{}
	if q.Search != "" {
		values.Set("search", q.Search)
	}
	if q.Location != "" {
		values.Set("location", q.Location)
	}
	if q.Sort != "" {
		values.Set("sort", q.Sort)
	}
	if q.Page > 0 {
		values.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	path := "/artworks"
	if len(values) > 0 {
		path += "?" + values.Encode()
	}

	var out service.ListResult
	if err := c.doJSON(ctx, http.MethodGet, path, "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MyArtworks fetches only the caller's artworks.
func (c *Client) MyArtworks(ctx context.Context, token string) ([]model.Artwork, error) {
	var out struct {
		Artworks []model.Artwork `json:"artworks"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/artworks/mine", token, nil, &out); err != nil {
		return nil, err
	}
	return out.Artworks, nil
}

// GetArtwork fetches a single artwork.
func (c *Client) GetArtwork(ctx context.Context, id string) (*model.Artwork, error) {
	var out struct {
		Artwork *model.Artwork `json:"artwork"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/artworks/"+url.PathEscape(id), "", nil, &out); err != nil {
		return nil, err
	}
	return out.Artwork, nil
}

// CreateArtwork submits a multipart create, optionally with an image.
func (c *Client) CreateArtwork(ctx context.Context, token string, fields map[string]string, file *File) (*model.Artwork, error) {
	var out struct {
		Artwork *model.Artwork `json:"artwork"`
	}
	if err := c.doMultipart(ctx, http.MethodPost, "/artworks", token, fields, file, &out); err != nil {
		return nil, err
	}
	return out.Artwork, nil
}

// UpdateArtwork submits a multipart patch of the provided fields only.
func (c *Client) UpdateArtwork(ctx context.Context, token, id string, fields map[string]string, file *File) (*model.Artwork, error) {
	var out struct {
		Msg            string         `json:"msg"`
		UpdatedArtwork *model.Artwork `json:"updatedArtwork"`
	}
	if err := c.doMultipart(ctx, http.MethodPatch, "/artworks/"+url.PathEscape(id), token, fields, file, &out); err != nil {
		return nil, err
	}
	return out.UpdatedArtwork, nil
}

// DeleteArtwork removes an artwork.
func (c *Client) DeleteArtwork(ctx context.Context, token, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/artworks/"+url.PathEscape(id), token, nil, nil)
}

func (c *Client) doJSON(ctx context.Context, method, path, token string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, token, out)
}

func (c *Client) doMultipart(ctx context.Context, method, path, token string, fields map[string]string, file *File, out interface{}) error {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for key, value := range fields {
		if err := mw.WriteField(key, value); err != nil {
			return fmt.Errorf("write field %s: %w", key, err)
		}
	}
	if file != nil {
		part, err := mw.CreateFormFile(file.FieldName, file.FileName)
		if err != nil {
			return fmt.Errorf("create file part: %w", err)
		}
		if _, err := io.Copy(part, file.Content); err != nil {
			return fmt.Errorf("copy file part: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.send(req, token, out)
}

func (c *Client) send(req *http.Request, token string, out interface{}) error {
	if token != "" {
		req.AddCookie(&http.Cookie{Name: middleware.CookieName, Value: token})
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return readAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// readAPIError extracts a display message from an error response. Echo wraps
// handler payloads under "message", which is either a string or an
// ErrorResponse object.
func readAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}

	var envelope struct {
		Message json.RawMessage `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil || envelope.Message == nil {
		return apiErr
	}

	var text string
	if err := json.Unmarshal(envelope.Message, &text); err == nil {
		apiErr.Message = text
		return apiErr
	}
	var obj struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(envelope.Message, &obj); err == nil && obj.Error != "" {
		apiErr.Message = obj.Error
	}
	return apiErr
}
