package provider_test

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"didkit/codec"
	"didkit/jose"
	"didkit/provider"
	"didkit/resolver"
)

func newKeyProvider(t *testing.T) *provider.KeyProvider {
	t.Helper()
	seed := make([]byte, 32)
	if _, err := rand.Read(seed); err != nil {
		t.Fatalf("rand: %v", err)
	}
	kp, err := provider.NewKeyProvider(seed)
	if err != nil {
		t.Fatalf("NewKeyProvider: %v", err)
	}
	return kp
}

func TestNewKeyProviderSeed(t *testing.T) {
	if _, err := provider.NewKeyProvider([]byte("short")); err == nil {
		t.Fatalf("want error for short seed, got nil")
	}

	seed := make([]byte, 32)
	a, err := provider.NewKeyProvider(seed)
	if err != nil {
		t.Fatalf("NewKeyProvider: %v", err)
	}
	b, err := provider.NewKeyProvider(seed)
	if err != nil {
		t.Fatalf("NewKeyProvider: %v", err)
	}
	if a.DID() != b.DID() || a.EncryptionDID() != b.EncryptionDID() {
		t.Fatalf("same seed must derive the same identities")
	}
	if a.DID() == a.EncryptionDID() {
		t.Fatalf("signing and agreement identities must differ")
	}
}

func TestKeyProviderAuthenticate(t *testing.T) {
	kp := newKeyProvider(t)
	ctx := context.Background()

	var jws jose.GeneralJWS
	err := kp.Send(ctx, provider.MethodAuthenticate, provider.AuthParams{
		Nonce: "n-42",
		Aud:   "https://app.example",
		Paths: []string{"/space/a"},
	}, &jws)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	doc, err := resolver.KeyResolver()(ctx, kp.DID())
	if err != nil {
		t.Fatalf("resolve own did: %v", err)
	}
	if err := jose.Verify(jws, doc.VerificationMethod); err != nil {
		t.Fatalf("auth response signature: %v", err)
	}

	raw, err := codec.DecodeB64url(jws.Payload)
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload["did"] != kp.DID() {
		t.Fatalf("payload did %v, want %s", payload["did"], kp.DID())
	}
	if payload["nonce"] != "n-42" {
		t.Fatalf("payload nonce %v", payload["nonce"])
	}
	if payload["aud"] != "https://app.example" {
		t.Fatalf("payload aud %v", payload["aud"])
	}
	exp, ok := payload["exp"].(float64)
	if !ok || int64(exp) <= time.Now().Unix() {
		t.Fatalf("payload exp not in the future: %v", payload["exp"])
	}

	hdr, err := jose.DecodeProtected(jws.Signatures[0].Protected)
	if err != nil {
		t.Fatalf("DecodeProtected: %v", err)
	}
	if !strings.HasPrefix(hdr.Kid, kp.DID()+"#") {
		t.Fatalf("kid %q does not reference %q", hdr.Kid, kp.DID())
	}
}

func TestKeyProviderCreateJWS(t *testing.T) {
	kp := newKeyProvider(t)
	ctx := context.Background()

	var res provider.CreateJWSResult
	err := kp.Send(ctx, provider.MethodCreateJWS, provider.CreateJWSParams{
		DID:     kp.DID(),
		Payload: codec.B64url([]byte(`{"hello":"world"}`)),
	}, &res)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	doc, err := resolver.KeyResolver()(ctx, kp.DID())
	if err != nil {
		t.Fatalf("resolve own did: %v", err)
	}
	if err := jose.Verify(res.JWS, doc.VerificationMethod); err != nil {
		t.Fatalf("signature: %v", err)
	}
}

func TestKeyProviderDecryptJWE(t *testing.T) {
	kp := newKeyProvider(t)
	ctx := context.Background()

	r := resolver.New(resolver.Registry{"key": resolver.KeyResolver()})
	encrypters, err := jose.ResolveEncrypters(ctx, []string{kp.EncryptionDID()}, r)
	if err != nil {
		t.Fatalf("ResolveEncrypters: %v", err)
	}
	jwe, err := jose.CreateJWE([]byte("for your eyes"), encrypters, nil, nil)
	if err != nil {
		t.Fatalf("CreateJWE: %v", err)
	}

	var res provider.DecryptJWEResult
	err = kp.Send(ctx, provider.MethodDecryptJWE, provider.DecryptJWEParams{DID: kp.DID(), JWE: jwe}, &res)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	cleartext, err := codec.DecodeB64(res.Cleartext)
	if err != nil {
		t.Fatalf("decode cleartext: %v", err)
	}
	if string(cleartext) != "for your eyes" {
		t.Fatalf("cleartext mismatch: %q", cleartext)
	}
}

func TestKeyProviderCreateJWEUnsupported(t *testing.T) {
	kp := newKeyProvider(t)

	err := kp.Send(context.Background(), provider.MethodCreateJWE, provider.CreateJWEParams{}, nil)
	if !errors.Is(err, provider.ErrUnsupportedMethod) {
		t.Fatalf("want ErrUnsupportedMethod, got %v", err)
	}
}
