// Package provider binds didkit to a signing/encryption provider: a remote
// peer that holds key material and answers a small set of named requests.
//
// The Provider interface carries one operation, Send, dispatching a named
// request with structured params and decoding the structured result. Three
// implementations are included:
//
//   - HTTP:        JSON-RPC 2.0 over HTTP POST
//   - WebSocket:   JSON-RPC 2.0 over a persistent websocket
//   - KeyProvider: in-process provider over a local Ed25519 signing key and
//     X25519 agreement key; supports authenticate, createJWS and decryptJWE
//     but not createJWE, so callers exercise the local encryption fallback
//
// Transport failures surface wrapped in ErrTransport; a provider that does
// not implement a method surfaces ErrUnsupportedMethod. Request counts by
// method and outcome are exported via optional prometheus metrics.
package provider
