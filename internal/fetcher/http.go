// Package fetcher provides the shared HTTP client used by scan
// workers. One Client is constructed per run and is safe for
// concurrent use; the per-request timeout is global to the client.
package fetcher

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	xproxy "golang.org/x/net/proxy"

	"github.com/pathstalk/pathstalk/internal/types"
)

const defaultUserAgent = "PathStalk/1.0"

// DefaultMaxBodySize bounds how much of a response body is read.
// Bodies are drained so keep-alive connections can be reused, but a
// scan never needs more than this.
const DefaultMaxBodySize int64 = 1 << 20

// Config controls a Client. Proxy may be nil for direct connections;
// http, https and socks5 proxy schemes are supported.
type Config struct {
	Timeout     time.Duration
	Proxy       *url.URL
	UserAgent   string
	MaxBodySize int64
	TLSInsecure bool
}

// Response is the outcome of a single probe. Any HTTP status is a
// success at this layer; only transport failures surface as errors.
type Response struct {
	StatusCode    int
	Status        string
	Headers       http.Header
	Body          []byte
	ContentLength int64
	FetchDuration time.Duration
}

// Client issues GET requests with a global timeout. Redirects are not
// followed: a 3xx must reach the caller with its own status code.
type Client struct {
	hc        *http.Client
	userAgent string
	maxBody   int64
}

// New builds a Client from cfg. socks5 and socks5h proxies dial through
// SOCKS5, falling back to a direct connection if that dialer cannot be
// built; any other proxy scheme is handed to the transport as an HTTP
// proxy.
func New(cfg Config) *Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext:         dialer.DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 50,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.TLSInsecure,
		},
		// Decompression is handled here, including brotli.
		DisableCompression: true,
	}

	if cfg.Proxy != nil {
		switch cfg.Proxy.Scheme {
		case "socks5", "socks5h":
			if d, err := socksDialer(cfg.Proxy, dialer); err == nil {
				transport.DialContext = d
			}
		default:
			transport.Proxy = http.ProxyURL(cfg.Proxy)
		}
	}

	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	maxBody := cfg.MaxBodySize
	if maxBody <= 0 {
		maxBody = DefaultMaxBodySize
	}

	return &Client{
		hc: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		userAgent: ua,
		maxBody:   maxBody,
	}
}

// Get probes a single URL. The returned error is always a
// *types.FetchError; HTTP error statuses are returned as responses.
func (c *Client) Get(ctx context.Context, rawURL string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &types.FetchError{URL: rawURL, Err: err}
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	req.Header.Set("Connection", "keep-alive")

	start := time.Now()
	httpResp, err := c.hc.Do(req)
	duration := time.Since(start)
	if err != nil {
		return nil, &types.FetchError{URL: rawURL, Err: err}
	}
	defer httpResp.Body.Close()

	reader, err := decompressReader(httpResp, io.LimitReader(httpResp.Body, c.maxBody))
	if err != nil {
		return nil, &types.FetchError{URL: rawURL, Err: err}
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, &types.FetchError{URL: rawURL, Err: err}
	}

	return &Response{
		StatusCode:    httpResp.StatusCode,
		Status:        httpResp.Status,
		Headers:       httpResp.Header,
		Body:          body,
		ContentLength: int64(len(body)),
		FetchDuration: duration,
	}, nil
}

// CloseIdleConnections releases pooled connections at the end of a run.
func (c *Client) CloseIdleConnections() {
	c.hc.CloseIdleConnections()
}

// decompressReader wraps a reader with the appropriate decompressor.
// Handles gzip, deflate, and brotli (br) encodings.
func decompressReader(resp *http.Response, reader io.Reader) (io.Reader, error) {
	switch strings.ToLower(resp.Header.Get("Content-Encoding")) {
	case "gzip":
		return gzip.NewReader(reader)
	case "deflate":
		return flate.NewReader(reader), nil
	case "br":
		return brotli.NewReader(reader), nil
	default:
		return reader, nil
	}
}

// socksDialer builds a DialContext going through a SOCKS5 proxy.
func socksDialer(proxyURL *url.URL, forward *net.Dialer) (func(ctx context.Context, network, addr string) (net.Conn, error), error) {
	var auth *xproxy.Auth
	if u := proxyURL.User; u != nil {
		pass, _ := u.Password()
		auth = &xproxy.Auth{User: u.Username(), Password: pass}
	}
	d, err := xproxy.SOCKS5("tcp", proxyURL.Host, auth, forward)
	if err != nil {
		return nil, err
	}
	cd, ok := d.(xproxy.ContextDialer)
	if !ok {
		return nil, fmt.Errorf("socks5 dialer does not support contexts")
	}
	return cd.DialContext, nil
}
