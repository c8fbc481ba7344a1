package provider

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/multiformats/go-multicodec"
	"golang.org/x/crypto/curve25519"

	"didkit/codec"
	"didkit/jose"
	"didkit/resolver"
)

// authWindow is how long a KeyProvider authentication response stays valid.
const authWindow = 10 * time.Minute

// KeyProvider is an in-process provider over a local Ed25519 signing key and
// a derived X25519 agreement key. Its DID is the did:key of the signing key.
//
// KeyProvider deliberately does not implement MethodCreateJWE: encryption to
// third parties is the caller's job via locally resolved encrypters, exactly
// as with remote key providers.
type KeyProvider struct {
	signKey   ed25519.PrivateKey
	agreePriv [32]byte

	did    string
	encDID string
}

// NewKeyProvider derives both key pairs from a 32-byte seed.
func NewKeyProvider(seed []byte) (*KeyProvider, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("key provider wants a %d-byte seed, got %d", ed25519.SeedSize, len(seed))
	}
	p := &KeyProvider{signKey: ed25519.NewKeyFromSeed(seed)}

	agreeSeed := sha256.Sum256(append([]byte("didkit/x25519-agreement/"), seed...))
	p.agreePriv = agreeSeed
	agreePub, err := curve25519.X25519(p.agreePriv[:], curve25519.Basepoint)
	if err != nil {
		return nil, err
	}

	signPub := p.signKey.Public().(ed25519.PublicKey)
	if p.did, err = resolver.KeyDID(multicodec.Ed25519Pub, signPub); err != nil {
		return nil, err
	}
	if p.encDID, err = resolver.KeyDID(multicodec.X25519Pub, agreePub); err != nil {
		return nil, err
	}
	return p, nil
}

// DID returns the provider's signing identity.
func (p *KeyProvider) DID() string { return p.did }

// EncryptionDID returns the did:key of the X25519 agreement key. Envelopes
// addressed to it can be opened via MethodDecryptJWE.
func (p *KeyProvider) EncryptionDID() string { return p.encDID }

func (p *KeyProvider) kid() string {
	return p.did + "#" + strings.TrimPrefix(p.did, "did:key:")
}

// Send dispatches a request against the local keys.
func (p *KeyProvider) Send(_ context.Context, method string, params, result any) error {
	switch method {
	case MethodAuthenticate:
		var ap AuthParams
		if err := assign(&ap, params); err != nil {
			return err
		}
		return p.authenticate(ap, result)

	case MethodCreateJWS:
		var cp CreateJWSParams
		if err := assign(&cp, params); err != nil {
			return err
		}
		protected := make(map[string]any, len(cp.Protected)+1)
		for k, v := range cp.Protected {
			protected[k] = v
		}
		protected["kid"] = p.kid()
		jws, err := jose.Sign(cp.Payload, protected, p.signKey)
		if err != nil {
			return err
		}
		return assign(result, CreateJWSResult{JWS: jws})

	case MethodDecryptJWE:
		var dp DecryptJWEParams
		if err := assign(&dp, params); err != nil {
			return err
		}
		cleartext, err := jose.DecryptJWE(dp.JWE, p.agreePriv[:])
		if err != nil {
			return err
		}
		return assign(result, DecryptJWEResult{Cleartext: codec.B64(cleartext)})
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedMethod, method)
}

func (p *KeyProvider) authenticate(ap AuthParams, result any) error {
	payload := map[string]any{
		"did":   p.did,
		"nonce": ap.Nonce,
		"exp":   time.Now().Add(authWindow).Unix(),
	}
	if ap.Aud != "" {
		payload["aud"] = ap.Aud
	}
	if len(ap.Paths) > 0 {
		payload["paths"] = ap.Paths
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	jws, err := jose.Sign(codec.B64url(raw), map[string]any{"kid": p.kid()}, p.signKey)
	if err != nil {
		return err
	}
	return assign(result, jws)
}

var _ Provider = (*KeyProvider)(nil)
