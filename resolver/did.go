package resolver

import (
	"fmt"
	"strings"
)

// Parse splits a DID into its method and method-specific identifier. Any
// fragment or query suffix on the identifier is kept; use StripFragment
// first when only the base DID is wanted.
func Parse(did string) (method, id string, err error) {
	parts := strings.SplitN(did, ":", 3)
	if len(parts) != 3 || parts[0] != "did" || parts[1] == "" || parts[2] == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidDID, did)
	}
	return parts[1], parts[2], nil
}

// StripFragment removes the #fragment and ?query portions of a DID URL,
// leaving the bare DID. Key identifiers in JWS headers usually point at a
// verification method (did:...#key); resolution operates on the DID itself.
func StripFragment(did string) string {
	if i := strings.IndexAny(did, "#?"); i >= 0 {
		return did[:i]
	}
	return did
}
