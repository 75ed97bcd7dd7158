package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"time"
)

// Request is one logical chat turn. An empty ConversationID starts a new session.
type Request struct {
	ConversationID string
	Query          string

	// OnFragment, if set, receives payload fragments as they arrive. Fragments
	// from a failed attempt may already have been delivered before the client
	// moves on; OnAttempt marks the start of each attempt.
	OnFragment FragmentFunc
	OnAttempt  func(ep Endpoint, attempt int)
}

// Result is the uniform outcome of Send regardless of which candidate served it.
type Result struct {
	Success        bool
	Content        string
	ConversationID string
	Endpoint       string
	Err            error
}

// ErrorMessage returns the failure description, or "" on success.
func (r *Result) ErrorMessage() string {
	if r == nil || r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Doer is the subset of *http.Client the dispatcher needs.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client sends chat requests to an ordered list of candidate endpoints, one at a
// time, and returns the first complete stream.
type Client struct {
	cfg      Config
	http     Doer
	observer Observer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport used for requests.
func WithHTTPClient(d Doer) Option {
	return func(c *Client) {
		c.http = d
	}
}

// WithObserver sets the attempt observer.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		if o != nil {
			c.observer = o
		}
	}
}

// NewClient creates a Client for cfg.
func NewClient(cfg Config, opts ...Option) *Client {
	c := &Client{
		cfg: cfg,
		http: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
			},
		},
		observer: NoopObserver{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoints returns the candidates in priority order.
func (c *Client) Endpoints() []Endpoint {
	out := make([]Endpoint, len(c.cfg.Endpoints))
	copy(out, c.cfg.Endpoints)
	return out
}

// wireRequest is the JSON body sent to every candidate.
type wireRequest struct {
	ConversationID string `json:"conversation_id"`
	Query          string `json:"query"`
}

// Send tries every candidate in order until one returns a complete stream.
// Each candidate is attempted at most once. Cancelling ctx stops the whole call.
func (c *Client) Send(ctx context.Context, req Request) *Result {
	if len(c.cfg.Endpoints) == 0 {
		return &Result{Err: ErrNoEndpoints}
	}

	body, err := json.Marshal(wireRequest{ConversationID: req.ConversationID, Query: req.Query})
	if err != nil {
		return &Result{Err: fmt.Errorf("marshaling request: %w", err)}
	}

	var lastErr error
	for i, ep := range c.cfg.Endpoints {
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}
		if req.OnAttempt != nil {
			req.OnAttempt(ep, i+1)
		}

		res, err := c.attempt(ctx, ep, i+1, body, req.OnFragment)
		if err == nil {
			res.Endpoint = ep.Name
			return res
		}
		lastErr = fmt.Errorf("%s: %w", ep.Name, err)
	}

	return &Result{Err: fmt.Errorf("%w: %w", ErrAllEndpointsFailed, lastErr)}
}

func (c *Client) attempt(ctx context.Context, ep Endpoint, n int, body []byte, onFragment FragmentFunc) (*Result, error) {
	start := time.Now()
	timeout := c.cfg.AttemptTimeout()

	// The timeout bounds the wait for response headers only. Once the stream
	// has started, only the caller's ctx can abort it.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var timedOut atomic.Bool
	timer := time.AfterFunc(timeout, func() {
		timedOut.Store(true)
		cancel()
	})
	defer timer.Stop()

	event := AttemptEvent{Endpoint: ep.Name, Transport: ep.Transport, Attempt: n}

	res, stats, err := c.doRequest(ctx, ep, body, onFragment, func() { timer.Stop() })
	if err != nil && timedOut.Load() {
		err = fmt.Errorf("%w after %s: %w", ErrTimeout, timeout, err)
	}

	event.LatencyMs = time.Since(start).Milliseconds()
	event.Bytes = stats.Bytes
	event.Frames = stats.Frames
	event.Completed = stats.Completed
	event.Success = err == nil
	event.ErrorCode = errorCode(err)
	event.Err = err
	c.observer.OnAttemptComplete(event)

	return res, err
}

func (c *Client) doRequest(ctx context.Context, ep Endpoint, body []byte, onFragment FragmentFunc, onHeaders func()) (*Result, StreamStats, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.URL, bytes.NewReader(body))
	if err != nil {
		return nil, StreamStats{}, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Cache-Control", "no-cache")
	if ep.Transport == TransportCORSProxy {
		httpReq.Header.Set("X-Requested-With", "XMLHttpRequest")
		if c.cfg.Origin != "" {
			httpReq.Header.Set("Origin", c.cfg.Origin)
		}
	}

	httpResp, err := c.http.Do(httpReq)
	onHeaders()
	if err != nil {
		return nil, StreamStats{}, err
	}
	if httpResp.Body != nil {
		defer httpResp.Body.Close()
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		if httpResp.Body != nil {
			_, _ = io.Copy(io.Discard, io.LimitReader(httpResp.Body, 64<<10))
		}
		return nil, StreamStats{}, &StatusError{Code: httpResp.StatusCode}
	}
	if httpResp.Body == nil || httpResp.Body == http.NoBody {
		return nil, StreamStats{}, ErrEmptyBody
	}

	reader := NewStreamReader(c.cfg.Markers,
		WithFragmentFunc(onFragment),
		WithUnknownLineFunc(func(line string) {
			c.observer.OnUnknownFrame(ep.Name, line)
		}),
	)
	return reader.Read(ctx, httpResp.Body)
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var netErr *net.OpError
	return errors.As(err, &netErr)
}
