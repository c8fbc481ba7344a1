package didkit

import (
	"context"
	"encoding/hex"
	"fmt"

	"go.uber.org/zap"

	"didkit/codec"
	"didkit/jose"
	"didkit/provider"
	"didkit/resolver"
)

// JWEOption configures encryption.
type JWEOption func(*jweOptions)

type jweOptions struct {
	protected map[string]any
	aad       []byte
}

// WithJWEProtectedHeader merges extra fields into the protected header.
func WithJWEProtectedHeader(h map[string]any) JWEOption {
	return func(o *jweOptions) { o.protected = h }
}

// WithAAD attaches additional authenticated data to the envelope.
func WithAAD(aad []byte) JWEOption {
	return func(o *jweOptions) { o.aad = aad }
}

// DecryptOption configures decryption.
type DecryptOption func(*decryptOptions)

type decryptOptions struct {
	did string
}

// WithDecryptionDID decrypts as the given DID instead of the authenticated one.
func WithDecryptionDID(did string) DecryptOption {
	return func(o *decryptOptions) { o.did = did }
}

// CreateJWE encrypts cleartext to the recipient DIDs. The provider is asked
// first, with encryption keys extracted from the first recipient's resolved
// document; if that path fails for any reason the envelope is built locally
// from encrypters resolved for all recipients. A failure of the fallback
// propagates.
func (d *DID) CreateJWE(ctx context.Context, cleartext []byte, recipients []string, opts ...JWEOption) (jose.JWE, error) {
	var o jweOptions
	for _, opt := range opts {
		opt(&o)
	}
	d.mu.RLock()
	p, r := d.provider, d.resolver
	d.mu.RUnlock()
	if p == nil {
		return jose.JWE{}, ErrNoProvider
	}
	if len(recipients) == 0 {
		return jose.JWE{}, jose.ErrNoRecipients
	}

	jwe, primaryErr := d.providerEncrypt(ctx, p, r, cleartext, recipients, o)
	if primaryErr == nil {
		return jwe, nil
	}
	d.log.Debug("provider encryption failed, using local encrypters",
		zap.Error(primaryErr))

	encrypters, err := jose.ResolveEncrypters(ctx, recipients, r)
	if err != nil {
		return jose.JWE{}, fmt.Errorf("encrypt fallback: %w", err)
	}
	out, err := jose.CreateJWE(cleartext, encrypters, o.protected, o.aad)
	if err != nil {
		return jose.JWE{}, fmt.Errorf("encrypt fallback: %w", err)
	}
	return out, nil
}

// providerEncrypt is the primary encryption path: extract usable keys from
// the first recipient's document and hand the work to the provider.
func (d *DID) providerEncrypt(ctx context.Context, p provider.Provider, r resolver.Resolver, cleartext []byte, recipients []string, o jweOptions) (jose.JWE, error) {
	doc, err := r.Resolve(ctx, resolver.StripFragment(recipients[0]))
	if err != nil {
		return jose.JWE{}, err
	}
	var keys []string
	for _, m := range doc.KeyAgreementMethods() {
		raw, err := jose.KeyBytes(m)
		if err != nil {
			continue
		}
		keys = append(keys, hex.EncodeToString(raw))
	}
	if len(keys) == 0 {
		return jose.JWE{}, fmt.Errorf("%s: no provider-compatible encryption key", recipients[0])
	}

	params := provider.CreateJWEParams{
		Cleartext:  codec.B64(cleartext),
		Recipients: keys,
		Protected:  o.protected,
	}
	if len(o.aad) > 0 {
		params.AAD = codec.B64url(o.aad)
	}
	var res provider.CreateJWEResult
	if err := p.Send(ctx, provider.MethodCreateJWE, params, &res); err != nil {
		return jose.JWE{}, err
	}
	return res.JWE, nil
}

// CreateDagJWE encrypts structured cleartext, preparing it as a
// content-addressable block first so links survive the round trip.
func (d *DID) CreateDagJWE(ctx context.Context, cleartext any, recipients []string, opts ...JWEOption) (jose.JWE, error) {
	prepared, err := codec.PrepareCleartext(cleartext)
	if err != nil {
		return jose.JWE{}, err
	}
	return d.CreateJWE(ctx, prepared, recipients, opts...)
}

// DecryptJWE asks the provider to open the envelope and returns the raw
// cleartext. Requires a bound provider and an authenticated identifier.
func (d *DID) DecryptJWE(ctx context.Context, jwe jose.JWE, opts ...DecryptOption) ([]byte, error) {
	var o decryptOptions
	for _, opt := range opts {
		opt(&o)
	}
	d.mu.RLock()
	p, id := d.provider, d.id
	d.mu.RUnlock()
	if p == nil {
		return nil, ErrNoProvider
	}
	if id == "" {
		return nil, ErrNotAuthenticated
	}
	if o.did == "" {
		o.did = id
	}

	var res provider.DecryptJWEResult
	if err := p.Send(ctx, provider.MethodDecryptJWE, provider.DecryptJWEParams{
		DID: o.did,
		JWE: jwe,
	}, &res); err != nil {
		return nil, fmt.Errorf("decrypt jwe: %w", err)
	}
	cleartext, err := codec.DecodeB64(res.Cleartext)
	if err != nil {
		return nil, fmt.Errorf("decrypt jwe: decode cleartext: %w", err)
	}
	return cleartext, nil
}

// DecryptDagJWE opens the envelope and decodes the cleartext back into the
// structure CreateDagJWE was given.
func (d *DID) DecryptDagJWE(ctx context.Context, jwe jose.JWE, opts ...DecryptOption) (map[string]any, error) {
	cleartext, err := d.DecryptJWE(ctx, jwe, opts...)
	if err != nil {
		return nil, err
	}
	return codec.DecodeCleartext(cleartext)
}
