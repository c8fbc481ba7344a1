package jose

import (
	"encoding/hex"
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/multiformats/go-multibase"
	"github.com/multiformats/go-multicodec"
	"github.com/multiformats/go-varint"

	"didkit/resolver"
)

// KeyBytes extracts the raw public key from a verification method, accepting
// the multibase, base58 and hex encodings seen in DID documents. Multibase
// keys may carry a multicodec prefix (did:key style); it is stripped.
func KeyBytes(m resolver.VerificationMethod) ([]byte, error) {
	switch {
	case m.PublicKeyMultibase != "":
		_, raw, err := multibase.Decode(m.PublicKeyMultibase)
		if err != nil {
			return nil, fmt.Errorf("decode multibase key %s: %w", m.ID, err)
		}
		return stripMulticodec(raw), nil
	case m.PublicKeyBase58 != "":
		raw, err := base58.Decode(m.PublicKeyBase58)
		if err != nil {
			return nil, fmt.Errorf("decode base58 key %s: %w", m.ID, err)
		}
		return raw, nil
	case m.PublicKeyHex != "":
		raw, err := hex.DecodeString(m.PublicKeyHex)
		if err != nil {
			return nil, fmt.Errorf("decode hex key %s: %w", m.ID, err)
		}
		return raw, nil
	}
	return nil, fmt.Errorf("verification method %s carries no key material", m.ID)
}

// stripMulticodec drops a leading ed25519-pub or x25519-pub varint prefix
// when the remaining bytes form a full key.
func stripMulticodec(raw []byte) []byte {
	code, n, err := varint.FromUvarint(raw)
	if err != nil || len(raw)-n != 32 {
		return raw
	}
	switch multicodec.Code(code) {
	case multicodec.Ed25519Pub, multicodec.X25519Pub:
		return raw[n:]
	}
	return raw
}
