package didkit

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"didkit/provider"
	"didkit/resolver"
)

// DID is a client-side identity handle: an optional authenticated identifier
// plus an optional connection to the provider holding its keys.
type DID struct {
	mu       sync.RWMutex
	id       string
	provider provider.Provider
	resolver resolver.Resolver

	log *zap.Logger
}

// Option configures a handle at construction time.
type Option func(*DID)

// WithProvider binds the provider connection up front.
func WithProvider(p provider.Provider) Option {
	return func(d *DID) { d.provider = p }
}

// WithResolver sets a fully-formed resolver.
func WithResolver(r resolver.Resolver) Option {
	return func(d *DID) { d.resolver = r }
}

// WithRegistry builds the resolver from a method registry.
func WithRegistry(reg resolver.Registry, opts ...resolver.Option) Option {
	return func(d *DID) { d.resolver = resolver.New(reg, opts...) }
}

// WithLogger sets the logger; defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(d *DID) { d.log = l }
}

// New returns an unauthenticated handle. Without options it carries no
// provider and an empty method registry.
func New(opts ...Option) *DID {
	d := &DID{
		resolver: resolver.New(resolver.Registry{}),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SetProvider binds the provider connection. Binding the connection that is
// already bound is a no-op; binding a different one while bound fails with
// ErrProviderConflict. Connection identity is plain interface equality.
func (d *DID) SetProvider(p provider.Provider) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.provider != nil && d.provider != p {
		return ErrProviderConflict
	}
	d.provider = p
	return nil
}

// ClearProvider unbinds the provider connection; no-op when unbound.
func (d *DID) ClearProvider() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.provider = nil
}

// SetResolver replaces the resolver with a fully-formed one.
func (d *DID) SetResolver(r resolver.Resolver) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resolver = r
}

// SetRegistry replaces the resolver with one built from a method registry,
// optionally cached (resolver.WithCache).
func (d *DID) SetRegistry(reg resolver.Registry, opts ...resolver.Option) {
	d.SetResolver(resolver.New(reg, opts...))
}

// Authenticated reports whether an identifier is currently established.
func (d *DID) Authenticated() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.id != ""
}

// ID returns the authenticated identifier.
func (d *DID) ID() (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.id == "" {
		return "", ErrNotAuthenticated
	}
	return d.id, nil
}

// Deauthenticate unconditionally clears the identifier and unbinds the
// provider connection.
func (d *DID) Deauthenticate() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.id = ""
	d.provider = nil
	d.log.Debug("deauthenticated")
}

// Resolve delegates resolution of a DID string to the bound resolver.
func (d *DID) Resolve(ctx context.Context, did string) (resolver.Document, error) {
	return d.snapshotResolver().Resolve(ctx, did)
}

func (d *DID) snapshotProvider() provider.Provider {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.provider
}

func (d *DID) snapshotResolver() resolver.Resolver {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.resolver
}
