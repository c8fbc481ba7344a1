package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidDID is returned for strings that do not parse as a DID.
	ErrInvalidDID = errors.New("resolver: invalid DID")
	// ErrNotResolvable is returned when no registered method can resolve the DID.
	ErrNotResolvable = errors.New("resolver: DID cannot be resolved")
)

// VerificationMethod describes a public key attached to a DID document.
// Exactly one of the PublicKey* encodings is expected to be set.
type VerificationMethod struct {
	ID                 string `json:"id"`
	Type               string `json:"type"`
	Controller         string `json:"controller,omitempty"`
	PublicKeyMultibase string `json:"publicKeyMultibase,omitempty"`
	PublicKeyBase58    string `json:"publicKeyBase58,omitempty"`
	PublicKeyHex       string `json:"publicKeyHex,omitempty"`
}

// Verification method types understood elsewhere in the module.
const (
	TypeEd25519VerificationKey = "Ed25519VerificationKey2018"
	TypeX25519KeyAgreementKey  = "X25519KeyAgreementKey2019"
)

// Document is a resolved DID document. Only the parts didkit consumes are
// modelled: the identifier, the public keys, and which of those keys serve
// authentication versus key agreement.
type Document struct {
	ID                 string               `json:"id"`
	VerificationMethod []VerificationMethod `json:"verificationMethod"`
	Authentication     []string             `json:"authentication,omitempty"`
	KeyAgreement       []string             `json:"keyAgreement,omitempty"`
}

// KeyAgreementMethods returns the verification methods referenced by the
// document's keyAgreement section, falling back to methods whose type marks
// them as key-agreement keys.
func (d Document) KeyAgreementMethods() []VerificationMethod {
	byID := make(map[string]VerificationMethod, len(d.VerificationMethod))
	for _, m := range d.VerificationMethod {
		byID[m.ID] = m
	}
	var out []VerificationMethod
	for _, ref := range d.KeyAgreement {
		if m, ok := byID[ref]; ok {
			out = append(out, m)
		}
	}
	if len(out) > 0 {
		return out
	}
	for _, m := range d.VerificationMethod {
		if m.Type == TypeX25519KeyAgreementKey {
			out = append(out, m)
		}
	}
	return out
}

// Resolver resolves a DID string to its document.
type Resolver interface {
	Resolve(ctx context.Context, did string) (Document, error)
}

// ResolveFunc resolves the method-specific part of a DID. It receives the
// full DID string.
type ResolveFunc func(ctx context.Context, did string) (Document, error)

// Registry maps a DID method name (e.g. "key", "web") to its resolution
// function.
type Registry map[string]ResolveFunc

// Option configures a Resolver built by New.
type Option func(*options)

type options struct {
	cacheSize int
	cacheTTL  time.Duration
}

// WithCache enables an in-memory LRU document cache holding up to size
// entries for at most ttl each.
func WithCache(size int, ttl time.Duration) Option {
	return func(o *options) {
		o.cacheSize = size
		o.cacheTTL = ttl
	}
}

// New builds a Resolver dispatching on the registry. With WithCache, resolved
// documents are served from an expiring LRU keyed by the bare DID.
func New(reg Registry, opts ...Option) Resolver {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	r := Resolver(&registryResolver{registry: reg})
	if o.cacheSize > 0 {
		r = newCached(r, o.cacheSize, o.cacheTTL)
	}
	return r
}

type registryResolver struct {
	registry Registry
}

func (r *registryResolver) Resolve(ctx context.Context, did string) (Document, error) {
	bare := StripFragment(did)
	method, _, err := Parse(bare)
	if err != nil {
		return Document{}, err
	}
	fn, ok := r.registry[method]
	if !ok {
		return Document{}, fmt.Errorf("%w: no resolver for method %q", ErrNotResolvable, method)
	}
	doc, err := fn(ctx, bare)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %s: %w", ErrNotResolvable, bare, err)
	}
	return doc, nil
}
