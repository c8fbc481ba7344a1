package jose

import (
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ipfs/go-cid"

	"didkit/codec"
	"didkit/resolver"
)

var (
	// ErrInvalidSignature is returned when no resolved key validates the envelope.
	ErrInvalidSignature = errors.New("jose: invalid signature")
	// ErrNoUsableKey is returned when the document carries no key the envelope
	// could be checked against.
	ErrNoUsableKey = errors.New("jose: no usable verification key")
	// ErrMalformedJWS is returned for envelopes that do not parse.
	ErrMalformedJWS = errors.New("jose: malformed JWS")
)

// Signature is one signature entry of a general-form JWS.
type Signature struct {
	Protected string `json:"protected"`
	Signature string `json:"signature"`
}

// GeneralJWS is a JWS in general JSON serialization. Link, when defined,
// records the content identifier a DAG-linked payload refers to; it is a
// local annotation and never crosses the wire.
type GeneralJWS struct {
	Payload    string      `json:"payload"`
	Signatures []Signature `json:"signatures"`
	Link       cid.Cid     `json:"-"`
}

// Compact renders the first signature as compact serialization
// (protected.payload.signature).
func (g GeneralJWS) Compact() (string, error) {
	if len(g.Signatures) == 0 {
		return "", fmt.Errorf("%w: no signatures", ErrMalformedJWS)
	}
	s := g.Signatures[0]
	return s.Protected + "." + g.Payload + "." + s.Signature, nil
}

// ParseCompact converts a compact JWS string into general form.
func ParseCompact(s string) (GeneralJWS, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return GeneralJWS{}, fmt.Errorf("%w: want 3 segments, got %d", ErrMalformedJWS, len(parts))
	}
	return GeneralJWS{
		Payload:    parts[1],
		Signatures: []Signature{{Protected: parts[0], Signature: parts[2]}},
	}, nil
}

// Header is the decoded protected header of a JWS signature.
type Header struct {
	Alg string `json:"alg"`
	Kid string `json:"kid"`
}

// DecodeProtected decodes a base64url protected header segment.
func DecodeProtected(protected string) (Header, error) {
	raw, err := codec.DecodeB64url(protected)
	if err != nil {
		return Header{}, fmt.Errorf("%w: protected header: %w", ErrMalformedJWS, err)
	}
	var h Header
	if err := json.Unmarshal(raw, &h); err != nil {
		return Header{}, fmt.Errorf("%w: protected header: %w", ErrMalformedJWS, err)
	}
	return h, nil
}

// Sign builds a general JWS over payload with an Ed25519 key. Extra protected
// header fields (kid in particular) are merged with the fixed alg.
func Sign(payload string, protected map[string]any, priv ed25519.PrivateKey) (GeneralJWS, error) {
	hdr := make(map[string]any, len(protected)+1)
	for k, v := range protected {
		hdr[k] = v
	}
	if _, ok := hdr["alg"]; !ok {
		hdr["alg"] = "EdDSA"
	}
	raw, err := json.Marshal(hdr)
	if err != nil {
		return GeneralJWS{}, err
	}
	protectedB64 := codec.B64url(raw)
	sig := ed25519.Sign(priv, []byte(protectedB64+"."+payload))
	return GeneralJWS{
		Payload:    payload,
		Signatures: []Signature{{Protected: protectedB64, Signature: codec.B64url(sig)}},
	}, nil
}

// Verify checks the envelope's first signature against the given verification
// methods. It succeeds iff at least one method carries an Ed25519 key that
// validates the signature; otherwise it fails closed.
func Verify(jws GeneralJWS, methods []resolver.VerificationMethod) error {
	if len(jws.Signatures) == 0 {
		return fmt.Errorf("%w: no signatures", ErrMalformedJWS)
	}
	s := jws.Signatures[0]
	sig, err := codec.DecodeB64url(s.Signature)
	if err != nil {
		return fmt.Errorf("%w: signature: %w", ErrMalformedJWS, err)
	}
	input := []byte(s.Protected + "." + jws.Payload)

	usable := false
	for _, m := range methods {
		if m.Type == resolver.TypeX25519KeyAgreementKey {
			continue // agreement keys cannot verify signatures
		}
		key, err := KeyBytes(m)
		if err != nil || len(key) != ed25519.PublicKeySize {
			continue
		}
		usable = true
		if ed25519.Verify(ed25519.PublicKey(key), input, sig) {
			return nil
		}
	}
	if !usable {
		return ErrNoUsableKey
	}
	return ErrInvalidSignature
}
