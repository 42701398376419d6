package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// APIError is a backend-reported failure: a non-2xx response whose body
// carried a {"detail": ...} message. Detail is surfaced to the user
// verbatim, falling back to the HTTP status text.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return e.Detail
}

// Client wraps HTTP calls to the analysis backend.
// Methods attach the session's bearer token when one is present and
// normalize non-2xx responses into *APIError. Thread-safe for concurrent
// use.
//
// Requests carry no client-side timeout: completion is driven solely by the
// remote response or a transport error, and callers pass context.Context
// for anything beyond that.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *Session
}

// NewClient creates a backend client for the given base URL.
// A nil session behaves like an empty one.
func NewClient(baseURL string, session *Session) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if session == nil {
		session = NewSession("")
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
		session:    session,
	}, nil
}

// Session returns the session the client authenticates with.
func (c *Client) Session() *Session {
	return c.session
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.get(ctx, "/health", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ServiceStatus calls GET /video/status.
func (c *Client) ServiceStatus(ctx context.Context) (*ServiceStatusResponse, error) {
	var out ServiceStatusResponse
	if err := c.get(ctx, "/video/status", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ProcessVideoURL submits a YouTube link for analysis.
func (c *Client) ProcessVideoURL(ctx context.Context, youtubeURL string) (*ProcessVideoResponse, error) {
	if strings.TrimSpace(youtubeURL) == "" {
		return nil, fmt.Errorf("youtube URL is required")
	}
	return c.processVideo(ctx, func(w *multipart.Writer) error {
		return w.WriteField("youtube_url", youtubeURL)
	})
}

// ProcessVideoFile uploads a local video file for analysis.
func (c *Client) ProcessVideoFile(ctx context.Context, path string) (*ProcessVideoResponse, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open video file: %w", err)
	}
	defer file.Close()

	return c.processVideo(ctx, func(w *multipart.Writer) error {
		part, err := w.CreateFormFile("video_file", filepath.Base(path))
		if err != nil {
			return err
		}
		_, err = io.Copy(part, file)
		return err
	})
}

func (c *Client) processVideo(ctx context.Context, fill func(*multipart.Writer) error) (*ProcessVideoResponse, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := fill(writer); err != nil {
		return nil, fmt.Errorf("build multipart request: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/video/process", &body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.authorize(req)

	var out ProcessVideoResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VideoHistory calls GET /video/history?limit=N.
func (c *Client) VideoHistory(ctx context.Context, limit int) (*VideoHistoryResponse, error) {
	var out VideoHistoryResponse
	if err := c.get(ctx, fmt.Sprintf("/video/history?limit=%d", limit), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VideoDetails calls GET /video/details/{video_id}.
func (c *Client) VideoDetails(ctx context.Context, videoID string) (*ProcessVideoResponse, error) {
	if strings.TrimSpace(videoID) == "" {
		return nil, fmt.Errorf("video id is required")
	}
	var out ProcessVideoResponse
	if err := c.get(ctx, "/video/details/"+videoID, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StartChat calls POST /analysis/chat/start for the given video.
func (c *Client) StartChat(ctx context.Context, videoID string) (*ChatStartResponse, error) {
	var out ChatStartResponse
	if err := c.post(ctx, "/analysis/chat/start", ChatStartRequest{VideoID: videoID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendChatMessage calls POST /analysis/chat/message.
func (c *Client) SendChatMessage(ctx context.Context, req ChatMessageRequest) (*ChatMessageResponse, error) {
	var out ChatMessageResponse
	if err := c.post(ctx, "/analysis/chat/message", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SignIn calls POST /auth/signin and stores the returned access token in
// the session.
func (c *Client) SignIn(ctx context.Context, req SignInRequest) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.post(ctx, "/auth/signin", req, &out); err != nil {
		return nil, err
	}
	if out.AccessToken != "" {
		c.session.SetToken(out.AccessToken)
	}
	return &out, nil
}

// SignUp calls POST /auth/signup.
func (c *Client) SignUp(ctx context.Context, req SignUpRequest) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.post(ctx, "/auth/signup", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.authorize(req)
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)
	return c.do(req, out)
}

func (c *Client) authorize(req *http.Request) {
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, body)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func newAPIError(statusCode int, body []byte) *APIError {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != "" {
		return &APIError{StatusCode: statusCode, Detail: payload.Detail}
	}
	return &APIError{StatusCode: statusCode, Detail: http.StatusText(statusCode)}
}
