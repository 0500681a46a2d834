// Package cfqueues is a Cloudflare Queues transport over the HTTP pull
// consumer API. It pulls leased messages, settles them with a single
// ack call per batch, and sends new messages.
package cfqueues

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/xraph/vidqueue"
	"github.com/xraph/vidqueue/queue"
)

// Compile-time interface checks.
var (
	_ queue.Consumer = (*Client)(nil)
	_ queue.Producer = (*Client)(nil)
)

// DefaultVisibility is the lease requested on each pull.
const DefaultVisibility = 2 * time.Minute

const maxBodyBytes = 4 << 20

// Client talks to one queue.
type Client struct {
	baseURL    string
	accountID  string
	queueID    string
	token      string
	http       *http.Client
	visibility time.Duration
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithVisibility sets the lease duration requested on pull.
func WithVisibility(d time.Duration) Option {
	return func(c *Client) { c.visibility = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a Client for queueID under accountID. baseURL is the
// accounts root, e.g. https://api.cloudflare.com/client/v4/accounts.
func New(baseURL, accountID, queueID, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		accountID:  accountID,
		queueID:    queueID,
		token:      token,
		http:       &http.Client{Timeout: 30 * time.Second},
		visibility: DefaultVisibility,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type pullRequest struct {
	VisibilityTimeoutMS int64 `json:"visibility_timeout_ms"`
	BatchSize           int   `json:"batch_size"`
}

type wireMessage struct {
	ID          string          `json:"id"`
	LeaseID     string          `json:"lease_id"`
	Body        json.RawMessage `json:"body"`
	Attempts    int             `json:"attempts"`
	TimestampMS int64           `json:"timestamp_ms"`
}

type pullResult struct {
	Messages []wireMessage `json:"messages"`
}

type envelope struct {
	Success bool `json:"success"`
	Errors  []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
	Result json.RawMessage `json:"result"`
}

type ackLease struct {
	LeaseID string `json:"lease_id"`
}

type retryLease struct {
	LeaseID      string `json:"lease_id"`
	DelaySeconds int    `json:"delay_seconds"`
}

type ackRequest struct {
	Acks    []ackLease   `json:"acks"`
	Retries []retryLease `json:"retries"`
}

type sendRequest struct {
	Body        json.RawMessage `json:"body"`
	ContentType string          `json:"content_type"`
}

// Pull implements queue.Consumer.
func (c *Client) Pull(ctx context.Context, max int) ([]queue.Message, error) {
	if max <= 0 {
		max = 1
	}
	var res pullResult
	err := c.post(ctx, "messages/pull", pullRequest{
		VisibilityTimeoutMS: c.visibility.Milliseconds(),
		BatchSize:           max,
	}, &res)
	if err != nil {
		return nil, err
	}

	msgs := make([]queue.Message, 0, len(res.Messages))
	for _, w := range res.Messages {
		m := queue.Message{
			ID:       w.ID,
			LeaseID:  w.LeaseID,
			Body:     unwrapBody(w.Body),
			Attempts: w.Attempts,
		}
		if w.TimestampMS > 0 {
			m.Timestamp = time.UnixMilli(w.TimestampMS).UTC()
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

// Ack implements queue.Consumer. Delays are rounded up to whole seconds.
func (c *Client) Ack(ctx context.Context, r queue.Report) error {
	if r.Empty() {
		return nil
	}
	req := ackRequest{
		Acks:    make([]ackLease, 0, len(r.Acks)),
		Retries: make([]retryLease, 0, len(r.Retries)),
	}
	for _, l := range r.Acks {
		req.Acks = append(req.Acks, ackLease{LeaseID: l})
	}
	for _, rt := range r.Retries {
		req.Retries = append(req.Retries, retryLease{
			LeaseID:      rt.LeaseID,
			DelaySeconds: int(math.Ceil(rt.Delay.Seconds())),
		})
	}
	return c.post(ctx, "messages/ack", req, nil)
}

// Send implements queue.Producer. A JSON body is sent as a json message;
// anything else is sent as text.
func (c *Client) Send(ctx context.Context, body []byte) error {
	req := sendRequest{Body: body, ContentType: "json"}
	if !json.Valid(body) {
		quoted, err := json.Marshal(string(body))
		if err != nil {
			return fmt.Errorf("vidqueue/cfqueues: encode text body: %w", err)
		}
		req = sendRequest{Body: quoted, ContentType: "text"}
	}
	return c.post(ctx, "messages", req, nil)
}

// unwrapBody returns a text body's contents, or a JSON body unchanged.
func unwrapBody(raw json.RawMessage) []byte {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return []byte(s)
	}
	return []byte(raw)
}

func (c *Client) endpoint(path string) string {
	return c.baseURL + "/" + url.PathEscape(c.accountID) + "/queues/" + url.PathEscape(c.queueID) + "/" + path
}

// post sends body as JSON and, when out is non-nil, decodes the envelope
// result into it.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("vidqueue/cfqueues: encode %s: %w", path, err)
	}

	endpoint := c.endpoint(path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("vidqueue/cfqueues: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: POST %s: %w", vidqueue.ErrQueueRequest, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: read %s: %w", vidqueue.ErrQueueRequest, path, err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 || (decodeErr == nil && !env.Success) {
		msg := resp.Status
		if decodeErr == nil && len(env.Errors) > 0 {
			msg = fmt.Sprintf("%s: %d %s", resp.Status, env.Errors[0].Code, env.Errors[0].Message)
		}
		c.logger.Warn("queue api request failed",
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(raw)),
		)
		return fmt.Errorf("%w: POST %s: %s", vidqueue.ErrQueueRequest, path, msg)
	}
	if decodeErr != nil {
		return fmt.Errorf("%w: decode %s: %w", vidqueue.ErrQueueRequest, path, decodeErr)
	}

	if out != nil && len(env.Result) > 0 {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return fmt.Errorf("%w: decode %s result: %w", vidqueue.ErrQueueRequest, path, err)
		}
	}
	return nil
}
