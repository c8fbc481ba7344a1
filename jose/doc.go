// Package jose models the signed and encrypted envelopes didkit exchanges
// with providers and verifies against resolved DID documents.
//
// Contents
//
//   - General and compact JWS forms, header decoding, and EdDSA signature
//     verification against a document's verification methods (Verify)
//   - JWE construction for X25519 recipients using ECDH-ES+XC20PKW key
//     wrapping and XC20P content encryption (CreateJWE, DecryptJWE)
//   - Encrypter resolution from recipient DIDs via a resolver
//     (ResolveEncrypters)
//   - Public key extraction from the multibase/base58/hex encodings found in
//     DID documents (KeyBytes)
//
// # Notes
//
// Verification fails closed: an envelope with no signature that validates
// against any usable resolved key is rejected, never passed through.
package jose
