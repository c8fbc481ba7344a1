// Package didkit is a client-side handle on a Decentralized Identifier.
//
// A DID value starts out unauthenticated. Bound to a provider (a peer that
// holds the actual key material, see package provider) it can run the
// challenge-response authentication handshake, after which it signs payloads,
// verifies signed envelopes against resolved DID documents, and encrypts or
// decrypts envelopes for DID recipients. Resolution is delegated to a
// resolver built from a method registry (see package resolver).
//
// Signing and encryption of DAG-linked content wrap payloads through the
// content-addressed encodings in package codec, so signatures cover a
// fixed-size content identifier instead of the raw bytes.
//
// A handle is safe for concurrent use: read-style operations run on a
// snapshot of the bound collaborators, while lifecycle mutations are
// serialized internally.
package didkit
