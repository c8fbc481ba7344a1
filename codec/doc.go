// Package codec implements the payload encodings used by didkit envelopes.
//
// Contents
//
//   - Base64 helpers shared across the module (B64, B64url and the matching
//     decoders)
//   - Content-addressed payload encoding for DAG-linked signatures
//     (EncodePayload), producing a CIDv1 dag-cbor link and the block it
//     points at
//   - Cleartext preparation for DAG-linked encryption
//     (PrepareCleartext, DecodeCleartext)
//
// # Notes
//
// All CBOR encoding uses the deterministic core profile so that encoding the
// same payload twice always yields the same bytes, and therefore the same
// content identifier. Link and linked block are always derived from a single
// encoding operation; callers must never mix a link from one encode with a
// block from another.
package codec
