package resolver_test

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"strings"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/multiformats/go-multicodec"
	"golang.org/x/crypto/curve25519"

	"didkit/resolver"
)

func TestKeyDIDEd25519(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	did, err := resolver.KeyDID(multicodec.Ed25519Pub, pub)
	if err != nil {
		t.Fatalf("KeyDID: %v", err)
	}
	if !strings.HasPrefix(did, "did:key:z") {
		t.Fatalf("want base58btc did:key, got %q", did)
	}

	doc, err := resolver.KeyResolver()(context.Background(), did)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if doc.ID != did {
		t.Fatalf("document id %q does not match did %q", doc.ID, did)
	}
	if len(doc.VerificationMethod) != 1 {
		t.Fatalf("want one verification method, got %d", len(doc.VerificationMethod))
	}
	vm := doc.VerificationMethod[0]
	if vm.Type != resolver.TypeEd25519VerificationKey {
		t.Fatalf("want Ed25519 method, got %q", vm.Type)
	}
	if vm.PublicKeyBase58 != base58.Encode(pub) {
		t.Fatalf("document does not carry the original key")
	}
	if len(doc.Authentication) != 1 || doc.Authentication[0] != vm.ID {
		t.Fatalf("authentication section missing: %#v", doc.Authentication)
	}
	if len(doc.KeyAgreement) != 0 {
		t.Fatalf("signature key must not appear under keyAgreement")
	}
}

func TestKeyDIDX25519(t *testing.T) {
	priv := make([]byte, 32)
	if _, err := rand.Read(priv); err != nil {
		t.Fatalf("rand: %v", err)
	}
	pub, err := curve25519.X25519(priv, curve25519.Basepoint)
	if err != nil {
		t.Fatalf("X25519: %v", err)
	}
	did, err := resolver.KeyDID(multicodec.X25519Pub, pub)
	if err != nil {
		t.Fatalf("KeyDID: %v", err)
	}

	doc, err := resolver.KeyResolver()(context.Background(), did)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if doc.VerificationMethod[0].Type != resolver.TypeX25519KeyAgreementKey {
		t.Fatalf("want X25519 method, got %q", doc.VerificationMethod[0].Type)
	}
	if len(doc.KeyAgreement) != 1 {
		t.Fatalf("keyAgreement section missing: %#v", doc.KeyAgreement)
	}
	if len(doc.Authentication) != 0 {
		t.Fatalf("agreement key must not appear under authentication")
	}
}

func TestKeyDIDRejectsBadLength(t *testing.T) {
	if _, err := resolver.KeyDID(multicodec.Ed25519Pub, []byte("short")); !errors.Is(err, resolver.ErrInvalidDID) {
		t.Fatalf("want ErrInvalidDID, got %v", err)
	}
}

func TestKeyResolverRejectsGarbage(t *testing.T) {
	fn := resolver.KeyResolver()
	ctx := context.Background()

	for _, bad := range []string{"did:web:example", "did:key:zzzzz!", "did:key:z"} {
		if _, err := fn(ctx, bad); err == nil {
			t.Fatalf("resolve(%q): want error, got nil", bad)
		}
	}
}
