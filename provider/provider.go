package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"didkit/jose"
)

// Request methods understood by DID providers.
const (
	MethodAuthenticate = "did_authenticate"
	MethodCreateJWS    = "did_createJWS"
	MethodCreateJWE    = "did_createJWE"
	MethodDecryptJWE   = "did_decryptJWE"
)

var (
	// ErrTransport wraps network or RPC-layer failures.
	ErrTransport = errors.New("provider: transport failure")
	// ErrUnsupportedMethod is returned when the provider does not implement
	// the requested method.
	ErrUnsupportedMethod = errors.New("provider: method not supported")
)

// Provider performs named requests against a signing/encryption provider.
// Implementations decode the response into result, which must be a pointer.
type Provider interface {
	Send(ctx context.Context, method string, params, result any) error
}

// AuthParams is the challenge sent for MethodAuthenticate. The provider
// answers with a jose.GeneralJWS over {did, nonce, aud, paths, exp}.
type AuthParams struct {
	Nonce string   `json:"nonce"`
	Aud   string   `json:"aud,omitempty"`
	Paths []string `json:"paths,omitempty"`
}

// CreateJWSParams asks the provider to sign payload with the keys of did.
type CreateJWSParams struct {
	DID         string         `json:"did"`
	Payload     string         `json:"payload"`
	Protected   map[string]any `json:"protected,omitempty"`
	LinkedBlock string         `json:"linkedBlock,omitempty"`
}

// CreateJWSResult carries the signed envelope back.
type CreateJWSResult struct {
	JWS jose.GeneralJWS `json:"jws"`
}

// CreateJWEParams asks the provider to encrypt cleartext (standard base64)
// to the given recipient keys (hex-encoded X25519 public keys).
type CreateJWEParams struct {
	Cleartext  string         `json:"cleartext"`
	Recipients []string       `json:"recipients"`
	Protected  map[string]any `json:"protectedHeader,omitempty"`
	AAD        string         `json:"aad,omitempty"`
}

// CreateJWEResult carries the encrypted envelope back.
type CreateJWEResult struct {
	JWE jose.JWE `json:"jwe"`
}

// DecryptJWEParams asks the provider holding did's keys to open the envelope.
type DecryptJWEParams struct {
	DID string   `json:"did"`
	JWE jose.JWE `json:"jwe"`
}

// DecryptJWEResult carries the recovered cleartext, standard base64 encoded.
type DecryptJWEResult struct {
	Cleartext string `json:"cleartext"`
}

// RPCError is an application-level error returned by a remote provider.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("provider: rpc error %d: %s", e.Code, e.Message)
}

// assign re-encodes v into the caller's result pointer, mirroring what a
// remote round trip would produce.
func assign(result, v any) error {
	if result == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, result)
}
