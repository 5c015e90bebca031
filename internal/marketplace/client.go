// Package marketplace is the REST client for the Digital Tumana backend.
//
// Every request carries the bearer token of the session passed by the
// caller. The backend owns all state transitions; the client only maps its
// responses into domain types.
package marketplace

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/digitaltumana/storefront/internal/domain/checkout"
	"github.com/digitaltumana/storefront/internal/session"
)

// maxBodySize bounds the response bodies read from the backend.
const maxBodySize = 4 << 20

var _ checkout.API = (*Client)(nil)

// Config configures a Client.
type Config struct {
	// BaseURL is the backend root, e.g. https://api.tumana.ph/api.
	BaseURL string
	// Timeout bounds each request. Zero means no client-side timeout.
	Timeout        time.Duration
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
	// Transport overrides the base round tripper. Used by tests.
	Transport http.RoundTripper
}

// Client calls the marketplace backend.
type Client struct {
	base *url.URL
	http *http.Client
}

// New creates a Client for cfg.BaseURL.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("marketplace base URL is required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse base URL")
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, errors.Errorf("unsupported base URL scheme %q", base.Scheme)
	}

	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	var opts []otelhttp.Option
	if cfg.TracerProvider != nil {
		opts = append(opts, otelhttp.WithTracerProvider(cfg.TracerProvider))
	}
	if cfg.MeterProvider != nil {
		opts = append(opts, otelhttp.WithMeterProvider(cfg.MeterProvider))
	}

	return &Client{
		base: base,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(transport, opts...),
		},
	}, nil
}

type response struct {
	status int
	body   []byte
}

func (c *Client) do(ctx context.Context, s *session.Session, method, path string, query url.Values) (*response, error) {
	if s == nil {
		return nil, session.ErrNoToken
	}

	u := c.base.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), http.NoBody)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")
	s.Authorize(req)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", method, path)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, errors.Wrapf(err, "read %s %s", method, path)
	}

	zctx.From(ctx).Debug("Marketplace request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	return &response{status: resp.StatusCode, body: body}, nil
}
