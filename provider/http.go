package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"

	"go.uber.org/zap"
)

const rpcMethodNotFound = -32601

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// HTTP talks JSON-RPC 2.0 to a provider over HTTP POST.
type HTTP struct {
	base    string
	http    *http.Client
	log     *zap.Logger
	metrics *Metrics
	nextID  atomic.Uint64
}

// NewHTTP returns a client for the provider endpoint at base.
func NewHTTP(base string, opts ...Option) *HTTP {
	o := newClientOptions(opts)
	return &HTTP{base: base, http: o.http, log: o.log, metrics: o.metrics}
}

// Send posts one request and decodes the response into result.
func (c *HTTP) Send(ctx context.Context, method string, params, result any) (err error) {
	defer func() { c.metrics.observe(method, err) }()

	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: post %s: %w", ErrTransport, c.base, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("%w: post %s: %s", ErrTransport, c.base, resp.Status)
	}

	var rpc rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpc); err != nil {
		return fmt.Errorf("%w: decode response: %w", ErrTransport, err)
	}
	return finishRPC(rpc, method, result)
}

// finishRPC maps an RPC response to the caller's result or error.
func finishRPC(rpc rpcResponse, method string, result any) error {
	if rpc.Error != nil {
		if rpc.Error.Code == rpcMethodNotFound {
			return fmt.Errorf("%w: %s", ErrUnsupportedMethod, method)
		}
		return rpc.Error
	}
	if result == nil || rpc.Result == nil {
		return nil
	}
	return json.Unmarshal(rpc.Result, result)
}

var _ Provider = (*HTTP)(nil)
