// Package keystore persists the local provider seed encrypted at rest.
//
// The seed is sealed with XChaCha20-Poly1305 under a key derived from the
// passphrase via scrypt; salt and KDF parameters travel in the JSON blob so
// parameters can be raised later without breaking old files. Writes go
// through a temp file and rename so a crash never leaves a torn keystore.
package keystore
