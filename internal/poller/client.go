package poller

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxResponseBodySize = 1 << 20 // 1MB

// connection pooling limits; a dashboard talks to a handful of backend hosts
const (
	defaultMaxIdleConns        = 20
	defaultMaxIdleConnsPerHost = 4
	defaultMaxConnsPerHost     = 4
	defaultIdleConnTimeout     = 90 * time.Second
)

// Request describes a single GET issued by [Client.Do].
type Request struct {
	URL string
	// Headers are sent verbatim with the request.
	Headers map[string]string
	// Timeout bounds the whole request, including reading the body.
	Timeout time.Duration
}

// Response holds the result of a request made by [Client].
type Response struct {
	// Body is the response body, limited to 1MB.
	Body []byte
	// StatusCode is zero if the request failed before a response arrived.
	StatusCode int
	// Latency is the total time taken for the request.
	Latency time.Duration
	// Error is a transport or read error.
	Error error
}

// StatusError reports a response with a non-2xx status code.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.Code, http.StatusText(e.Code))
}

// Err folds transport failures and non-2xx status codes into one error.
// A nil result means Body holds a usable payload.
func (r Response) Err() error {
	if r.Error != nil {
		return r.Error
	}
	if r.StatusCode < 200 || r.StatusCode > 299 {
		return &StatusError{Code: r.StatusCode}
	}
	return nil
}

// Client issues the GETs behind every widget. Each [Request] carries its own
// timeout, so widgets with different budgets share one connection pool.
type Client struct {
	hc *http.Client
}

// NewClient returns a Client with a small keep-alive pool.
func NewClient() *Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        defaultMaxIdleConns,
		MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
		MaxConnsPerHost:     defaultMaxConnsPerHost,
		IdleConnTimeout:     defaultIdleConnTimeout,
	}
	return &Client{hc: &http.Client{Transport: transport}}
}

// Do fetches req.URL. It never returns an error directly: failures land in
// Response.Error next to the measured latency, and [Response.Err] adds the
// status check.
func (c *Client) Do(ctx context.Context, req Request) (res Response) {
	start := time.Now()
	defer func() { res.Latency = time.Since(start) }()

	ctx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		res.Error = fmt.Errorf("failed to create request: %w", err)
		return res
	}
	httpReq.Header.Set("Accept", "application/json")
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.hc.Do(httpReq)
	if err != nil {
		res.Error = fmt.Errorf("request failed: %w", err)
		return res
	}
	defer func() { _ = resp.Body.Close() }()

	res.StatusCode = resp.StatusCode
	if res.Body, err = io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize)); err != nil {
		res.Body = nil
		res.Error = fmt.Errorf("failed to read response body: %w", err)
	}
	return res
}

// Close drops idle connections; the client remains usable. Nil-safe.
func (c *Client) Close() {
	if c != nil && c.hc != nil {
		c.hc.CloseIdleConnections()
	}
}
