// Package resolver turns DID strings into DID documents.
//
// The core type is Registry, a mapping from DID method name to a resolution
// function. New builds a Resolver from a registry, optionally wrapped in an
// LRU cache with a TTL so hot documents are not re-resolved on every
// signature check.
//
// Supported out of the box:
//   - did:key resolution (KeyResolver), which synthesises the document
//     locally from the multibase-encoded key in the DID itself. Ed25519 keys
//     resolve to a verification method usable for signatures; X25519 keys to
//     a key-agreement method usable for encryption. No network call is made.
//
// Other methods are registered by the caller; each resolution function owns
// its own transport, caching and retry policy.
package resolver
