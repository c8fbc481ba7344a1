package jose

import (
	"context"
	"fmt"

	"didkit/resolver"
)

// ResolveEncrypters resolves every recipient DID and builds an encrypter from
// each document's key-agreement key. A recipient without a usable agreement
// key fails the whole resolution; an encrypted envelope must be openable by
// everyone it is addressed to.
func ResolveEncrypters(ctx context.Context, recipients []string, r resolver.Resolver) ([]Encrypter, error) {
	if len(recipients) == 0 {
		return nil, ErrNoRecipients
	}
	encrypters := make([]Encrypter, 0, len(recipients))
	for _, did := range recipients {
		doc, err := r.Resolve(ctx, resolver.StripFragment(did))
		if err != nil {
			return nil, err
		}
		methods := doc.KeyAgreementMethods()
		if len(methods) == 0 {
			return nil, fmt.Errorf("%s: document has no key-agreement key", did)
		}
		key, err := KeyBytes(methods[0])
		if err != nil {
			return nil, err
		}
		enc, err := NewEncrypter(key, methods[0].ID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", did, err)
		}
		encrypters = append(encrypters, enc)
	}
	return encrypters, nil
}
