package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	nethttp "net/http"
	"net/url"
	gopath "path"
	"strings"
	"sync"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/filehaven/filehaven/internal/config"
	"github.com/filehaven/filehaven/internal/httpx"
	"github.com/filehaven/filehaven/internal/logging"
	"github.com/filehaven/filehaven/internal/models"
)

// retryLogger adapts the zerolog wrapper to the retryablehttp.LeveledLogger
// interface. Only warnings and errors are surfaced.
type retryLogger struct {
	logger *logging.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{})  {}
func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {}

// Client is the client for the remote file-storage API. It owns the single
// configured HTTP client, the base URL, and the bearer credential attached
// to every protected request. File operations are stateless request/response
// pairs; the client performs no automatic operation-level retries.
type Client struct {
	httpClient   *nethttp.Client // JSON calls, wrapped with opt-in retries
	streamClient *nethttp.Client // upload/download streams, no body buffering
	baseURL      string
	logger       *logging.Logger

	mu             sync.RWMutex
	token          string
	onAuthRejected func()
}

// NewClient creates a new API client from the given configuration.
func NewClient(cfg *config.Config, logger *logging.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.ServerURL) == "" {
		return nil, fmt.Errorf("server URL is empty (use --server, FILEHAVEN_SERVER, or the config file)")
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	httpClient, err := httpx.ConfigureHTTPClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to configure HTTP client: %w", err)
	}

	// Transport-level retries are opt-in: RetryMax defaults to 0 so no
	// operation retries automatically. Retry policy belongs to the caller.
	// Upload and download streams always go through the bare client;
	// retryablehttp would buffer their bodies to make them replayable.
	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = httpClient
	retryClient.RetryMax = cfg.RetryMax
	retryClient.Logger = &retryLogger{logger: logger}

	return &Client{
		httpClient:   retryClient.StandardClient(),
		streamClient: httpClient,
		baseURL:      strings.TrimSuffix(cfg.ServerURL, "/"),
		logger:       logger,
		token:        cfg.Token,
	}, nil
}

// SetToken installs the bearer credential sent with protected requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// ClearToken removes the bearer credential.
func (c *Client) ClearToken() {
	c.SetToken("")
}

// Token returns the current bearer credential.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetAuthRejectedHook installs a callback fired when a protected call is
// rejected with an auth error. The session manager uses it to perform the
// implicit logout mandated for lazy token-expiry detection.
func (c *Client) SetAuthRejectedHook(hook func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onAuthRejected = hook
}

// doRequest performs an HTTP request with the bearer header attached.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) (*nethttp.Response, error) {
	return c.send(ctx, c.httpClient, method, path, query, body, contentType)
}

// doStream is doRequest over the unwrapped client, for requests whose body
// or response must stream.
func (c *Client) doStream(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) (*nethttp.Response, error) {
	return c.send(ctx, c.streamClient, method, path, query, body, contentType)
}

func (c *Client) send(ctx context.Context, client *nethttp.Client, method, path string, query url.Values, body io.Reader, contentType string) (*nethttp.Response, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := nethttp.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	return client.Do(req)
}

// doJSON performs a request with a JSON body.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, payload interface{}) (*nethttp.Response, error) {
	var body io.Reader
	contentType := ""
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}
	return c.doRequest(ctx, method, path, query, body, contentType)
}

// decodeJSON decodes the response body into v and closes it.
func decodeJSON(resp *nethttp.Response, v interface{}) error {
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// drainClose discards and closes the response body so the connection can be
// reused.
func drainClose(resp *nethttp.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
}

// serverMessage extracts the server-supplied error message from a non-2xx
// response body, or "" when none is present.
func serverMessage(resp *nethttp.Response) string {
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return ""
	}
	var apiErr models.APIError
	if json.Unmarshal(data, &apiErr) == nil {
		return apiErr.Message()
	}
	return ""
}

// netError converts a transport failure into the domain taxonomy.
func netError(op string, err error) error {
	return newError(KindNetworkUnavailable, op, "network unavailable: "+err.Error(), err)
}

// translateError converts a non-2xx response into the domain taxonomy. This
// is the single boundary where transport status codes become error kinds; no
// status code or raw transport error escapes the api package.
//
// The login operation is special-cased: a 401 there means the credentials
// were wrong, not that a previously good token expired.
func (c *Client) translateError(op string, resp *nethttp.Response) error {
	msg := serverMessage(resp)

	switch resp.StatusCode {
	case nethttp.StatusUnauthorized:
		if op == "login" {
			if msg == "" {
				msg = "incorrect username or password"
			}
			return newError(KindInvalidCredentials, op, msg, nil)
		}
		if msg == "" {
			msg = "session expired, please log in again"
		}
		c.authRejected(op)
		return newError(KindTokenExpired, op, msg, nil)

	case nethttp.StatusForbidden:
		if msg == "" {
			msg = "access denied"
		}
		return newError(KindForbidden, op, msg, nil)

	case nethttp.StatusNotFound:
		if msg == "" {
			msg = "not found"
		}
		return newError(KindNotFound, op, msg, nil)

	case nethttp.StatusConflict:
		if msg == "" {
			msg = "already exists"
		}
		return newError(KindAlreadyExists, op, msg, nil)

	case nethttp.StatusBadRequest, nethttp.StatusUnprocessableEntity:
		if msg == "" {
			msg = "invalid name"
		}
		return newError(KindInvalidName, op, msg, nil)

	case nethttp.StatusRequestEntityTooLarge, nethttp.StatusInsufficientStorage:
		if msg == "" {
			msg = "storage quota exceeded"
		}
		return newError(KindQuotaExceeded, op, msg, nil)

	default:
		if msg == "" {
			msg = fmt.Sprintf("server error (HTTP %d)", resp.StatusCode)
		}
		return newError(KindServerError, op, msg, nil)
	}
}

// authRejected fires the auth-rejection hook for protected operations.
// Startup verification and login manage the credential themselves and are
// excluded so the implicit logout does not race their own state handling.
func (c *Client) authRejected(op string) {
	if op == "login" || op == "verify" {
		return
	}
	c.mu.RLock()
	hook := c.onAuthRejected
	c.mu.RUnlock()
	if hook != nil {
		hook()
	}
}

// Login exchanges credentials for a bearer token. The token is returned, not
// installed: the session manager decides whether to persist and adopt it.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	const op = "login"

	resp, err := c.doJSON(ctx, nethttp.MethodPost, "/auth/login", nil, models.LoginRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		return "", netError(op, err)
	}
	if resp.StatusCode != nethttp.StatusOK {
		return "", c.translateError(op, resp)
	}

	var loginResp models.LoginResponse
	if err := decodeJSON(resp, &loginResp); err != nil {
		return "", newError(KindServerError, op, "malformed login response", err)
	}
	if loginResp.AccessToken == "" {
		return "", newError(KindServerError, op, "login response missing access token", nil)
	}
	return loginResp.AccessToken, nil
}

// Verify validates the installed bearer token and returns the principal it
// belongs to. Used once at startup.
func (c *Client) Verify(ctx context.Context) (*models.Principal, error) {
	const op = "verify"

	resp, err := c.doJSON(ctx, nethttp.MethodPost, "/auth/verify", nil, nil)
	if err != nil {
		return nil, netError(op, err)
	}
	if resp.StatusCode != nethttp.StatusOK {
		return nil, c.translateError(op, resp)
	}

	var principal models.Principal
	if err := decodeJSON(resp, &principal); err != nil {
		return nil, newError(KindServerError, op, "malformed principal response", err)
	}
	return &principal, nil
}

// Me fetches the authenticated principal.
func (c *Client) Me(ctx context.Context) (*models.Principal, error) {
	const op = "me"

	resp, err := c.doRequest(ctx, nethttp.MethodGet, "/auth/me", nil, nil, "")
	if err != nil {
		return nil, netError(op, err)
	}
	if resp.StatusCode != nethttp.StatusOK {
		return nil, c.translateError(op, resp)
	}

	var principal models.Principal
	if err := decodeJSON(resp, &principal); err != nil {
		return nil, newError(KindServerError, op, "malformed principal response", err)
	}
	return &principal, nil
}

// Health checks service availability. No authentication required.
func (c *Client) Health(ctx context.Context) (*models.HealthStatus, error) {
	const op = "health"

	resp, err := c.doRequest(ctx, nethttp.MethodGet, "/health", nil, nil, "")
	if err != nil {
		return nil, netError(op, err)
	}
	if resp.StatusCode != nethttp.StatusOK {
		return nil, c.translateError(op, resp)
	}

	var status models.HealthStatus
	if err := decodeJSON(resp, &status); err != nil {
		return nil, newError(KindServerError, op, "malformed health response", err)
	}
	return &status, nil
}

// List returns the directory listing for path, in server order.
func (c *Client) List(ctx context.Context, path string) (*models.DirectoryListing, error) {
	const op = "list"

	query := url.Values{"path": {path}}
	resp, err := c.doRequest(ctx, nethttp.MethodGet, "/files/list", query, nil, "")
	if err != nil {
		return nil, netError(op, err)
	}
	if resp.StatusCode != nethttp.StatusOK {
		return nil, c.translateError(op, resp)
	}

	var listing models.DirectoryListing
	if err := decodeJSON(resp, &listing); err != nil {
		return nil, newError(KindServerError, op, "malformed listing response", err)
	}
	return &listing, nil
}

// Upload submits one file's bytes under destPath as a multipart request.
// The body is streamed, not buffered: large files never land in memory.
// Failure means no partial file is visible at list time; that is the
// server's contract, and the client does not attempt any cleanup itself.
func (c *Client) Upload(ctx context.Context, r io.Reader, name string, destPath string) error {
	const op = "upload"

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile("file", name)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, r); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	query := url.Values{"path": {destPath}}
	resp, err := c.doStream(ctx, nethttp.MethodPost, "/files/upload", query, pr, mw.FormDataContentType())
	if err != nil {
		return netError(op, err)
	}
	if resp.StatusCode != nethttp.StatusOK && resp.StatusCode != nethttp.StatusCreated {
		return c.translateError(op, resp)
	}
	drainClose(resp)
	return nil
}

// CreateDirectory creates a directory named name under parentPath.
func (c *Client) CreateDirectory(ctx context.Context, name, parentPath string) error {
	const op = "mkdir"

	query := url.Values{"path": {parentPath}, "name": {name}}
	resp, err := c.doRequest(ctx, nethttp.MethodPost, "/files/mkdir", query, nil, "")
	if err != nil {
		return netError(op, err)
	}
	if resp.StatusCode != nethttp.StatusOK && resp.StatusCode != nethttp.StatusCreated {
		return c.translateError(op, resp)
	}
	drainClose(resp)
	return nil
}

// Delete removes the entry at path. Files and directories are handled
// uniformly; what deleting a non-empty directory means is the server's call,
// the client imposes no pre-check.
func (c *Client) Delete(ctx context.Context, path string) error {
	const op = "delete"

	query := url.Values{"path": {path}}
	resp, err := c.doRequest(ctx, nethttp.MethodDelete, "/files/delete", query, nil, "")
	if err != nil {
		return netError(op, err)
	}
	if resp.StatusCode != nethttp.StatusOK && resp.StatusCode != nethttp.StatusNoContent {
		return c.translateError(op, resp)
	}
	drainClose(resp)
	return nil
}

// DownloadInfo describes an in-progress download stream.
type DownloadInfo struct {
	// Filename is the suggested local name: the server-provided
	// content-disposition name when present, the last path segment otherwise.
	Filename string
	// Size is the stream length from Content-Length, or -1 when unknown.
	Size int64
}

// Download opens a byte stream for the file at path. The caller owns the
// returned ReadCloser and must close it.
func (c *Client) Download(ctx context.Context, path string) (io.ReadCloser, *DownloadInfo, error) {
	const op = "download"

	query := url.Values{"path": {path}}
	resp, err := c.doStream(ctx, nethttp.MethodGet, "/files/download", query, nil, "")
	if err != nil {
		return nil, nil, netError(op, err)
	}
	if resp.StatusCode != nethttp.StatusOK {
		return nil, nil, c.translateError(op, resp)
	}

	info := &DownloadInfo{
		Filename: suggestedFilename(resp.Header.Get("Content-Disposition"), path),
		Size:     resp.ContentLength,
	}
	return resp.Body, info, nil
}

// suggestedFilename prefers the content-disposition filename over the last
// path segment.
func suggestedFilename(disposition, remotePath string) string {
	if disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil {
			if name := params["filename"]; name != "" {
				return name
			}
		}
	}
	name := gopath.Base(remotePath)
	if name == "/" || name == "." || name == "" {
		return "download"
	}
	return name
}
