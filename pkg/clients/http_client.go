package clients

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"time"
)

const (
	defaultTimeout = 15 * time.Second
	userAgent      = "escrowpay/1.0"
	// Responses are read up to maxDrain bytes so keep-alive connections can be reused.
	maxDrain = 64 << 10
)

var ErrFailedCloseResponseBody = errors.New("failed close response body")

type HTTPClientI interface {
	Do(req *http.Request) (*http.Response, error)
	PostJSON(ctx context.Context, url string, body []byte, headers http.Header) (statusCode int, respHeaders http.Header, err error)
}

type Option func(c *http.Client)

func WithTimeout(d time.Duration) Option {
	return func(c *http.Client) { c.Timeout = d }
}

func WithTransport(rt http.RoundTripper) Option {
	return func(c *http.Client) { c.Transport = rt }
}

// HTTPClientAdapter performs the requests on a real *http.Client.
type HTTPClientAdapter struct {
	client *http.Client
}

func (h *HTTPClientAdapter) Do(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", userAgent)
	}
	return h.client.Do(req)
}

// PostJSON sends body with a JSON content type and returns the response
// status and headers. The response body is discarded.
func (h *HTTPClientAdapter) PostJSON(ctx context.Context, url string, body []byte, headers http.Header) (statusCode int, respHeaders http.Header, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	for key, values := range headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() {
		if e := resp.Body.Close(); e != nil {
			err = errors.Join(err, ErrFailedCloseResponseBody)
		}
	}()

	if _, err = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrain)); err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, resp.Header, nil
}

// HTTPClient is the outbound client handed to notification sinks. Tests
// swap the transport with SetClient.
type HTTPClient struct {
	client HTTPClientI
}

func NewHTTPClient(opts ...Option) *HTTPClient {
	c := &http.Client{Timeout: defaultTimeout}
	for _, opt := range opts {
		opt(c)
	}
	return &HTTPClient{client: &HTTPClientAdapter{client: c}}
}

func (h *HTTPClient) PostJSON(ctx context.Context, url string, body []byte, headers http.Header) (int, http.Header, error) {
	return h.client.PostJSON(ctx, url, body, headers)
}

func (h *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	return h.client.Do(req)
}

func (h *HTTPClient) SetClient(mock HTTPClientI) {
	h.client = mock
}
