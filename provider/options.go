package provider

import (
	"net/http"

	"go.uber.org/zap"
)

// Option configures the HTTP and WebSocket clients.
type Option func(*clientOptions)

type clientOptions struct {
	http    *http.Client
	log     *zap.Logger
	metrics *Metrics
}

func newClientOptions(opts []Option) clientOptions {
	o := clientOptions{http: http.DefaultClient, log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithHTTPClient overrides the HTTP client used for outbound requests.
func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) { o.http = c }
}

// WithLogger sets the logger; defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *clientOptions) { o.log = l }
}

// WithMetrics attaches request metrics to the client.
func WithMetrics(m *Metrics) Option {
	return func(o *clientOptions) { o.metrics = m }
}
