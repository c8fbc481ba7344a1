package resolver

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// cached wraps a Resolver with an expiring LRU so repeated verification of
// envelopes from the same signer does not re-resolve the document each time.
type cached struct {
	inner Resolver
	lru   *expirable.LRU[string, Document]
}

func newCached(inner Resolver, size int, ttl time.Duration) *cached {
	return &cached{
		inner: inner,
		lru:   expirable.NewLRU[string, Document](size, nil, ttl),
	}
}

func (c *cached) Resolve(ctx context.Context, did string) (Document, error) {
	bare := StripFragment(did)
	if doc, ok := c.lru.Get(bare); ok {
		return doc, nil
	}
	doc, err := c.inner.Resolve(ctx, bare)
	if err != nil {
		return Document{}, err
	}
	c.lru.Add(bare, doc)
	return doc, nil
}
