// Package mediaapi is a minimal client for the Stream REST API operations
// vidqueue drives: copy a video from a URL, enable MP4 downloads, and
// generate captions.
//
// Every method performs exactly one HTTP request. A non-2xx status is not
// an error: callers receive the status in Response and decide what it
// means. Errors are reserved for requests that never produced a usable
// response.
package mediaapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/xraph/vidqueue"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 1 << 20

// Client talks to one account of the media API.
type Client struct {
	baseURL   string
	accountID string
	token     string
	http      *http.Client
	timeout   time.Duration
	limiter   *rate.Limiter
	logger    *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout. A client passed to
// WithHTTPClient is copied rather than modified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithRateLimit caps outbound requests to rps per second with the given
// burst. A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger sets the logger used for response diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a Client for baseURL (the accounts root) and accountID.
func New(baseURL, accountID, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		accountID: accountID,
		token:     token,
		http:      &http.Client{Timeout: 30 * time.Second},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 && c.timeout != c.http.Timeout {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	return c
}

// Message is an entry in the errors or messages array of a response.
type Message struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Envelope is the standard JSON body returned by the API.
type Envelope struct {
	Success  bool            `json:"success"`
	Errors   []Message       `json:"errors"`
	Messages []Message       `json:"messages"`
	Result   json.RawMessage `json:"result"`
}

// Response is what came back from one call.
type Response struct {
	StatusCode int
	Status     string
	Envelope   Envelope
	Body       []byte
}

// OK reports whether StatusCode is 2xx.
func (r *Response) OK() bool { return r.StatusCode >= 200 && r.StatusCode <= 299 }

// CopyRequest is the body of a copy-from-URL call.
type CopyRequest struct {
	URL     string `json:"url"`
	Creator string `json:"creator"`
	Meta    Meta   `json:"meta"`
}

// Meta is free-form video metadata; only the display name is set.
type Meta struct {
	Name string `json:"name"`
}

// CopyFromURL asks the API to ingest the video at req.URL.
func (c *Client) CopyFromURL(ctx context.Context, req CopyRequest) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("mediaapi: encode copy request: %w", err)
	}
	return c.do(ctx, c.streamURL("copy"), body)
}

// EnableDownloads creates the MP4 download for the video uid.
func (c *Client) EnableDownloads(ctx context.Context, uid string) (*Response, error) {
	return c.do(ctx, c.streamURL(url.PathEscape(uid), "downloads"), nil)
}

// GenerateCaptions requests auto-generated captions in lang for uid.
func (c *Client) GenerateCaptions(ctx context.Context, uid, lang string) (*Response, error) {
	return c.do(ctx, c.streamURL(url.PathEscape(uid), "captions", url.PathEscape(lang), "generate"), nil)
}

func (c *Client) streamURL(parts ...string) string {
	return c.baseURL + "/" + url.PathEscape(c.accountID) + "/stream/" + strings.Join(parts, "/")
}

// do sends a POST and reads the envelope. A body that is present but not
// JSON yields both a Response and an error wrapping
// vidqueue.ErrMalformedResponse.
func (c *Client) do(ctx context.Context, endpoint string, body []byte) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("mediaapi: rate limit wait: %w", err)
		}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("mediaapi: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mediaapi: POST %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("mediaapi: read response: %w", err)
	}

	out := &Response{StatusCode: resp.StatusCode, Status: resp.Status, Body: raw}

	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &out.Envelope); err != nil {
			c.logger.Warn("media api returned unreadable body",
				slog.String("url", endpoint),
				slog.Int("status", resp.StatusCode),
				slog.String("error", err.Error()),
			)
			return out, fmt.Errorf("%w: %w", vidqueue.ErrMalformedResponse, err)
		}
	}

	c.logger.Debug("media api responded",
		slog.String("url", endpoint),
		slog.String("status", resp.Status),
		slog.Bool("success", out.Envelope.Success),
		slog.Any("errors", out.Envelope.Errors),
	)
	return out, nil
}

// IsMalformed reports whether err came from an unreadable response body.
func IsMalformed(err error) bool { return errors.Is(err, vidqueue.ErrMalformedResponse) }
