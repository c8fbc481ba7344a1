// Package commands defines the didkit CLI and wires dependencies for
// subcommands.
//
// Commands
//
//   - keygen   Generate a local provider seed and store it encrypted
//   - id       Print the local signing and encryption DIDs
//   - resolve  Resolve a DID to its document
//   - sign     Authenticate and sign a payload
//   - verify   Verify a compact signed envelope
//   - encrypt  Encrypt a message to DID recipients
//   - decrypt  Decrypt an envelope addressed to the local identity
//
// # Implementation
//
// The root command loads an optional yaml config from the home directory,
// builds the resolver (did:key plus an LRU cache) and the identity handle
// before any subcommand runs. The provider is either a remote JSON-RPC
// endpoint (http or ws URL) or the in-process key provider backed by the
// encrypted seed store.
package commands
