package provider

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WebSocket talks JSON-RPC 2.0 to a provider over a persistent websocket.
// Requests are serialized on the connection; responses with an unknown id
// (notifications, stale replies) are skipped.
type WebSocket struct {
	conn    *websocket.Conn
	log     *zap.Logger
	metrics *Metrics

	mu     sync.Mutex
	nextID uint64
}

// DialWebSocket connects to the provider endpoint at url.
func DialWebSocket(ctx context.Context, url string, opts ...Option) (*WebSocket, error) {
	o := newClientOptions(opts)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %w", ErrTransport, url, err)
	}
	return &WebSocket{conn: conn, log: o.log, metrics: o.metrics}, nil
}

// Send writes one request and reads until its matching response arrives.
func (c *WebSocket) Send(ctx context.Context, method string, params, result any) (err error) {
	defer func() { c.metrics.observe(method, err) }()

	c.mu.Lock()
	defer c.mu.Unlock()

	// A zero deadline clears whatever a previous cancelled call left behind.
	deadline, _ := ctx.Deadline()
	_ = c.conn.SetReadDeadline(deadline)
	_ = c.conn.SetWriteDeadline(deadline)

	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		select {
		case <-ctx.Done():
			// Unblock a pending read; the read error is mapped back to ctx.Err.
			_ = c.conn.SetReadDeadline(time.Now())
		case <-done:
		}
	}()
	defer func() { close(done); <-stopped }()

	c.nextID++
	id := c.nextID
	if err := c.conn.WriteJSON(rpcRequest{
		JSONRPC: "2.0",
		ID:      id,
		Method:  method,
		Params:  params,
	}); err != nil {
		return fmt.Errorf("%w: write: %w", ErrTransport, err)
	}

	for {
		var rpc rpcResponse
		if err := c.conn.ReadJSON(&rpc); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return fmt.Errorf("%w: %w", ErrTransport, ctxErr)
			}
			return fmt.Errorf("%w: read: %w", ErrTransport, err)
		}
		if string(rpc.ID) != fmt.Sprintf("%d", id) {
			c.log.Debug("skipping unmatched rpc frame", zap.ByteString("id", rpc.ID))
			continue
		}
		return finishRPC(rpc, method, result)
	}
}

// Close shuts the underlying connection.
func (c *WebSocket) Close() error { return c.conn.Close() }

var _ Provider = (*WebSocket)(nil)
