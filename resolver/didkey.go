package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/multiformats/go-multibase"
	"github.com/multiformats/go-multicodec"
	"github.com/multiformats/go-varint"
)

const keyMethodPrefix = "did:key:"

// KeyDID encodes a raw public key as a did:key DID: a varint multicodec
// prefix followed by the key bytes, multibase base58btc encoded.
func KeyDID(code multicodec.Code, pub []byte) (string, error) {
	if len(pub) != 32 {
		return "", fmt.Errorf("%w: did:key wants a 32-byte key, got %d", ErrInvalidDID, len(pub))
	}
	buf := append(varint.ToUvarint(uint64(code)), pub...)
	enc, err := multibase.Encode(multibase.Base58BTC, buf)
	if err != nil {
		return "", err
	}
	return keyMethodPrefix + enc, nil
}

// KeyResolver returns the resolution function for the did:key method. The
// document is synthesised locally from the key embedded in the DID; Ed25519
// keys become signature verification methods and X25519 keys become
// key-agreement methods.
func KeyResolver() ResolveFunc {
	return func(_ context.Context, did string) (Document, error) {
		id := strings.TrimPrefix(did, keyMethodPrefix)
		if id == did {
			return Document{}, fmt.Errorf("%w: not a did:key: %q", ErrInvalidDID, did)
		}
		_, raw, err := multibase.Decode(id)
		if err != nil {
			return Document{}, fmt.Errorf("decode did:key: %w", err)
		}
		code, n, err := varint.FromUvarint(raw)
		if err != nil {
			return Document{}, fmt.Errorf("decode did:key multicodec: %w", err)
		}
		key := raw[n:]
		if len(key) != 32 {
			return Document{}, fmt.Errorf("%w: did:key carries %d key bytes", ErrInvalidDID, len(key))
		}

		vmID := did + "#" + id
		vm := VerificationMethod{
			ID:              vmID,
			Controller:      did,
			PublicKeyBase58: base58.Encode(key),
		}
		doc := Document{ID: did, VerificationMethod: []VerificationMethod{vm}}

		switch multicodec.Code(code) {
		case multicodec.Ed25519Pub:
			doc.VerificationMethod[0].Type = TypeEd25519VerificationKey
			doc.Authentication = []string{vmID}
		case multicodec.X25519Pub:
			doc.VerificationMethod[0].Type = TypeX25519KeyAgreementKey
			doc.KeyAgreement = []string{vmID}
		default:
			return Document{}, fmt.Errorf("unsupported did:key multicodec 0x%x", code)
		}
		return doc, nil
	}
}
