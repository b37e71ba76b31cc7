// ABOUTME: HTTP client for the controller, EDA and hub REST APIs
// ABOUTME: Sends the CSRF header from the cookie jar, bearer tokens, and JSON bodies

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/2389/automation-console/internal/auth"
)

// Options configures a Client. Zero values fall back to sensible defaults.
type Options struct {
	CSRFCookie string // cookie holding the CSRF token (default "csrftoken")
	CSRFHeader string // header the token is echoed in (default "X-CSRFToken")
	Token      *auth.BearerToken
	HTTPClient *http.Client // must carry a cookie jar; one is added if missing
	Logger     *slog.Logger
}

// Client talks to one backend server. Paths passed to its methods are
// resolved against the server URL; absolute URLs are reduced to their path
// first so pagination links pointing at another host still reach this server.
type Client struct {
	base       *url.URL
	http       *http.Client
	csrfCookie string
	csrfHeader string
	token      *auth.BearerToken
	logger     *slog.Logger
}

// Result describes the reply to a mutating request.
type Result struct {
	StatusCode int
	Task       string // task href or id when the server deferred the work (HTTP 202)
}

// Deferred reports whether the server accepted the request as a background task.
func (r *Result) Deferred() bool {
	return r.StatusCode == http.StatusAccepted && r.Task != ""
}

// New creates a Client for the server at baseURL.
func New(baseURL string, opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: server url %q", ErrInvalidInput, baseURL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("creating cookie jar: %w", err)
		}
		httpClient.Jar = jar
	}

	c := &Client{
		base:       base,
		http:       httpClient,
		csrfCookie: opts.CSRFCookie,
		csrfHeader: opts.CSRFHeader,
		token:      opts.Token,
		logger:     opts.Logger,
	}
	if c.csrfCookie == "" {
		c.csrfCookie = "csrftoken"
	}
	if c.csrfHeader == "" {
		c.csrfHeader = "X-CSRFToken"
	}
	if c.logger == nil {
		c.logger = slog.Default().With("component", "api")
	}
	return c, nil
}

// resolve turns a server-relative path (or a full URL) into a request URL.
func (c *Client) resolve(path string) (*url.URL, error) {
	path = ServerlessURL(path)
	if !strings.HasPrefix(path, "/") {
		return nil, fmt.Errorf("%w: path %q must start with /", ErrInvalidInput, path)
	}
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("%w: path %q: %v", ErrInvalidInput, path, err)
	}
	return c.base.ResolveReference(ref), nil
}

// csrfToken reads the CSRF cookie the server set for u, if any.
func (c *Client) csrfToken(u *url.URL) string {
	for _, cookie := range c.http.Jar.Cookies(u) {
		if cookie.Name == c.csrfCookie {
			return cookie.Value
		}
	}
	return ""
}

// Do sends a request and returns the raw body of a 2xx reply.
// A non-nil body is encoded as JSON.
func (c *Client) Do(ctx context.Context, method, path string, body any) (int, []byte, error) {
	u, err := c.resolve(path)
	if err != nil {
		return 0, nil, err
	}

	if c.token != nil {
		if err := c.token.Check(time.Now()); err != nil {
			return 0, nil, err
		}
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(c.csrfHeader, c.csrfToken(u))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != nil {
		req.Header.Set("Authorization", c.token.Header())
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Prefer the context's error so cancellation is recognizable
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return 0, nil, &NetworkError{Op: method, URL: u.String(), Err: err}
	}
	defer resp.Body.Close()

	data, readErr := io.ReadAll(resp.Body)

	if resp.StatusCode >= 400 {
		httpErr := &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     http.StatusText(resp.StatusCode),
			URL:        u.String(),
		}
		if readErr == nil {
			text := string(data)
			httpErr.Body = &text
		}
		c.logger.Debug("request failed", "method", method, "url", u.String(), "status", resp.StatusCode)
		return resp.StatusCode, nil, httpErr
	}
	if readErr != nil {
		return resp.StatusCode, nil, &NetworkError{Op: method, URL: u.String(), Err: readErr}
	}

	c.logger.Debug("request completed", "method", method, "url", u.String(), "status", resp.StatusCode)
	return resp.StatusCode, data, nil
}

// GetRaw fetches path and returns the body unparsed.
func (c *Client) GetRaw(ctx context.Context, path string) ([]byte, error) {
	_, data, err := c.Do(ctx, http.MethodGet, path, nil)
	return data, err
}

// Get fetches path and decodes the JSON reply into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	data, err := c.GetRaw(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

// Post creates a resource. out may be nil.
func (c *Client) Post(ctx context.Context, path string, body, out any) (*Result, error) {
	return c.mutate(ctx, http.MethodPost, path, body, out)
}

// Patch updates a resource. out may be nil.
func (c *Client) Patch(ctx context.Context, path string, body, out any) (*Result, error) {
	return c.mutate(ctx, http.MethodPatch, path, body, out)
}

// Delete removes a resource.
func (c *Client) Delete(ctx context.Context, path string) (*Result, error) {
	return c.mutate(ctx, http.MethodDelete, path, nil, nil)
}

// mutate sends a mutating request. A 202 reply is expected to carry
// {"task": "<href or id>"}; any other reply with a body is decoded into out.
func (c *Client) mutate(ctx context.Context, method, path string, body, out any) (*Result, error) {
	status, data, err := c.Do(ctx, method, path, body)
	if err != nil {
		return nil, err
	}

	result := &Result{StatusCode: status}
	if len(bytes.TrimSpace(data)) == 0 {
		return result, nil
	}

	if status == http.StatusAccepted {
		var deferred struct {
			Task string `json:"task"`
		}
		if err := json.Unmarshal(data, &deferred); err == nil && deferred.Task != "" {
			result.Task = deferred.Task
			return result, nil
		}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return result, fmt.Errorf("decoding %s: %w", path, err)
		}
	}
	return result, nil
}
