package didkit

import (
	"context"
	"encoding/json"
	"fmt"

	"didkit/codec"
	"didkit/jose"
	"didkit/provider"
	"didkit/resolver"
)

// JWSOption configures signing.
type JWSOption func(*jwsOptions)

type jwsOptions struct {
	did       string
	protected map[string]any
}

// WithSigningDID signs as the given DID instead of the authenticated one.
func WithSigningDID(did string) JWSOption {
	return func(o *jwsOptions) { o.did = did }
}

// WithProtectedHeader merges extra fields into the protected header.
func WithProtectedHeader(h map[string]any) JWSOption {
	return func(o *jwsOptions) { o.protected = h }
}

// DagJWSResult pairs a DAG-linked signed envelope with the block its payload
// links to.
type DagJWSResult struct {
	JWS         jose.GeneralJWS
	LinkedBlock []byte
}

// VerifyJWSResult reports the verified key identifier and, when the payload
// was inline JSON, its decoded form. A content-reference payload leaves
// Payload nil.
type VerifyJWSResult struct {
	Kid     string
	Payload map[string]any
}

// CreateJWS asks the provider to sign payload. String payloads are forwarded
// as-is; anything else is JSON-encoded and base64url-wrapped first. Requires
// a bound provider and an authenticated identifier; the provider's envelope
// is returned verbatim.
func (d *DID) CreateJWS(ctx context.Context, payload any, opts ...JWSOption) (jose.GeneralJWS, error) {
	var o jwsOptions
	for _, opt := range opts {
		opt(&o)
	}
	enc, err := encodeJWSPayload(payload)
	if err != nil {
		return jose.GeneralJWS{}, err
	}
	return d.providerSign(ctx, provider.CreateJWSParams{
		DID:       o.did,
		Payload:   enc,
		Protected: o.protected,
	})
}

// CreateDagJWS encodes payload into a content-addressed block, signs the
// base64url form of its content identifier, and returns the envelope
// (annotated with the link) together with the linked block.
func (d *DID) CreateDagJWS(ctx context.Context, payload any, opts ...JWSOption) (DagJWSResult, error) {
	var o jwsOptions
	for _, opt := range opts {
		opt(&o)
	}
	ep, err := codec.EncodePayload(payload)
	if err != nil {
		return DagJWSResult{}, err
	}
	jws, err := d.providerSign(ctx, provider.CreateJWSParams{
		DID:         o.did,
		Payload:     codec.B64url(ep.Link.Bytes()),
		Protected:   o.protected,
		LinkedBlock: codec.B64(ep.LinkedBlock),
	})
	if err != nil {
		return DagJWSResult{}, err
	}
	jws.Link = ep.Link
	return DagJWSResult{JWS: jws, LinkedBlock: ep.LinkedBlock}, nil
}

func (d *DID) providerSign(ctx context.Context, params provider.CreateJWSParams) (jose.GeneralJWS, error) {
	d.mu.RLock()
	p, id := d.provider, d.id
	d.mu.RUnlock()
	if p == nil {
		return jose.GeneralJWS{}, ErrNoProvider
	}
	if id == "" {
		return jose.GeneralJWS{}, ErrNotAuthenticated
	}
	if params.DID == "" {
		params.DID = id
	}
	var res provider.CreateJWSResult
	if err := p.Send(ctx, provider.MethodCreateJWS, params, &res); err != nil {
		return jose.GeneralJWS{}, fmt.Errorf("create jws: %w", err)
	}
	return res.JWS, nil
}

// VerifyJWS verifies a signed envelope: the kid is extracted from the
// protected header, its document resolved, and the signature checked against
// the document's keys. Resolution and verification failures propagate; an
// envelope without a kid fails with ErrMissingKid before any resolution.
func (d *DID) VerifyJWS(ctx context.Context, jws jose.GeneralJWS) (VerifyJWSResult, error) {
	if len(jws.Signatures) == 0 {
		return VerifyJWSResult{}, fmt.Errorf("verify jws: %w", jose.ErrMalformedJWS)
	}
	hdr, err := jose.DecodeProtected(jws.Signatures[0].Protected)
	if err != nil {
		return VerifyJWSResult{}, err
	}
	if hdr.Kid == "" {
		return VerifyJWSResult{}, ErrMissingKid
	}

	doc, err := d.snapshotResolver().Resolve(ctx, resolver.StripFragment(hdr.Kid))
	if err != nil {
		return VerifyJWSResult{}, err
	}
	if err := jose.Verify(jws, doc.VerificationMethod); err != nil {
		return VerifyJWSResult{}, fmt.Errorf("%w: %w", ErrVerificationFailed, err)
	}

	payload, _ := decodeInlinePayload(jws.Payload)
	return VerifyJWSResult{Kid: hdr.Kid, Payload: payload}, nil
}

// VerifyJWSString verifies a compact-form envelope.
func (d *DID) VerifyJWSString(ctx context.Context, compact string) (VerifyJWSResult, error) {
	jws, err := jose.ParseCompact(compact)
	if err != nil {
		return VerifyJWSResult{}, err
	}
	return d.VerifyJWS(ctx, jws)
}

// decodeInlinePayload attempts to decode a payload segment as inline JSON.
// The second return distinguishes "decoded" from "opaque content reference";
// decode failure is an expected branch, not an error.
func decodeInlinePayload(s string) (map[string]any, bool) {
	raw, err := codec.DecodeB64url(s)
	if err != nil {
		return nil, false
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, false
	}
	return m, true
}

func encodeJWSPayload(payload any) (string, error) {
	if s, ok := payload.(string); ok {
		return s, nil
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}
	return codec.B64url(b), nil
}
