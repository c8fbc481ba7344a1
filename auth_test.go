package didkit_test

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/multiformats/go-multicodec"

	"didkit"
	"didkit/codec"
	"didkit/jose"
	"didkit/provider"
	"didkit/resolver"
)

// scriptedProvider answers authentication challenges with a correctly signed
// response whose payload can be altered per test.
type scriptedProvider struct {
	key ed25519.PrivateKey
	did string
	kid string

	mutate    func(payload map[string]any)
	tamperSig bool
}

func newScriptedProvider(t *testing.T) *scriptedProvider {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	did, err := resolver.KeyDID(multicodec.Ed25519Pub, pub)
	if err != nil {
		t.Fatalf("KeyDID: %v", err)
	}
	return &scriptedProvider{key: priv, did: did, kid: did + "#key-1"}
}

func (s *scriptedProvider) Send(_ context.Context, method string, params, result any) error {
	if method != provider.MethodAuthenticate {
		return provider.ErrUnsupportedMethod
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return err
	}
	var ap provider.AuthParams
	if err := json.Unmarshal(raw, &ap); err != nil {
		return err
	}

	payload := map[string]any{
		"did":   s.did,
		"nonce": ap.Nonce,
		"exp":   time.Now().Add(5 * time.Minute).Unix(),
	}
	if ap.Aud != "" {
		payload["aud"] = ap.Aud
	}
	if s.mutate != nil {
		s.mutate(payload)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	jws, err := jose.Sign(codec.B64url(body), map[string]any{"kid": s.kid}, s.key)
	if err != nil {
		return err
	}
	if s.tamperSig {
		jws.Signatures[0].Signature = codec.B64url([]byte("not a signature"))
	}

	out, err := json.Marshal(jws)
	if err != nil {
		return err
	}
	return json.Unmarshal(out, result)
}

func TestAuthenticate(t *testing.T) {
	kp := newKeyProvider(t)
	d := didkit.New(didkit.WithRegistry(keyRegistry()))

	id, err := d.Authenticate(context.Background(),
		didkit.WithAuthProvider(kp),
		didkit.WithAud("https://app.example"),
		didkit.WithPaths("/space/a"))
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if id != kp.DID() {
		t.Fatalf("authenticated as %q, want %q", id, kp.DID())
	}
	if !d.Authenticated() {
		t.Fatalf("handle not authenticated after success")
	}
	got, err := d.ID()
	if err != nil || got != id {
		t.Fatalf("ID() = (%q, %v), want (%q, nil)", got, err, id)
	}
}

func TestAuthenticateNoProvider(t *testing.T) {
	d := didkit.New(didkit.WithRegistry(keyRegistry()))
	if _, err := d.Authenticate(context.Background()); !errors.Is(err, didkit.ErrNoProvider) {
		t.Fatalf("want ErrNoProvider, got %v", err)
	}
}

func TestAuthenticateProviderConflict(t *testing.T) {
	d, _ := authedHandle(t)

	other := newKeyProvider(t)
	if _, err := d.Authenticate(context.Background(), didkit.WithAuthProvider(other)); !errors.Is(err, didkit.ErrProviderConflict) {
		t.Fatalf("want ErrProviderConflict, got %v", err)
	}
}

func TestAuthenticateRejectsInvalidResponses(t *testing.T) {
	cases := map[string]func(sp *scriptedProvider){
		"nonce mismatch": func(sp *scriptedProvider) {
			sp.mutate = func(p map[string]any) { p["nonce"] = "replayed" }
		},
		"aud injected": func(sp *scriptedProvider) {
			sp.mutate = func(p map[string]any) { p["aud"] = "https://evil.example" }
		},
		"expired": func(sp *scriptedProvider) {
			sp.mutate = func(p map[string]any) { p["exp"] = time.Now().Add(-time.Minute).Unix() }
		},
		"expiry missing": func(sp *scriptedProvider) {
			sp.mutate = func(p map[string]any) { delete(p, "exp") }
		},
		"did missing": func(sp *scriptedProvider) {
			sp.mutate = func(p map[string]any) { delete(p, "did") }
		},
		"did not referenced by kid": func(sp *scriptedProvider) {
			sp.mutate = func(p map[string]any) { p["did"] = "did:key:z6MkSomebodyElse" }
		},
		"did is prefix of kid's": func(sp *scriptedProvider) {
			did := sp.did
			sp.mutate = func(p map[string]any) { p["did"] = did[:len(did)-2] }
		},
	}

	for name, arrange := range cases {
		t.Run(name, func(t *testing.T) {
			sp := newScriptedProvider(t)
			arrange(sp)
			d := didkit.New(didkit.WithRegistry(keyRegistry()), didkit.WithProvider(sp))

			_, err := d.Authenticate(context.Background())
			if !errors.Is(err, didkit.ErrInvalidAuthResponse) {
				t.Fatalf("want ErrInvalidAuthResponse, got %v", err)
			}
			var authErr *didkit.AuthError
			if !errors.As(err, &authErr) {
				t.Fatalf("want *AuthError, got %T", err)
			}
			if d.Authenticated() {
				t.Fatalf("handle authenticated despite invalid response")
			}
		})
	}
}

// gatedProvider holds authentication requests until released, so lifecycle
// mutations can be interleaved with an in-flight handshake.
type gatedProvider struct {
	inner   provider.Provider
	entered chan struct{}
	release chan struct{}
}

func (g *gatedProvider) Send(ctx context.Context, method string, params, result any) error {
	if method == provider.MethodAuthenticate {
		close(g.entered)
		<-g.release
	}
	return g.inner.Send(ctx, method, params, result)
}

func TestAuthenticateRacingDeauthenticate(t *testing.T) {
	gp := &gatedProvider{
		inner:   newKeyProvider(t),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	d := didkit.New(didkit.WithRegistry(keyRegistry()), didkit.WithProvider(gp))

	errc := make(chan error, 1)
	go func() {
		_, err := d.Authenticate(context.Background())
		errc <- err
	}()

	<-gp.entered
	d.Deauthenticate()
	close(gp.release)

	if err := <-errc; !errors.Is(err, didkit.ErrNoProvider) {
		t.Fatalf("want ErrNoProvider, got %v", err)
	}
	if d.Authenticated() {
		t.Fatalf("identifier committed after deauthentication")
	}
	if _, err := d.ID(); !errors.Is(err, didkit.ErrNotAuthenticated) {
		t.Fatalf("want ErrNotAuthenticated, got %v", err)
	}
}

func TestAuthenticateRacingRebind(t *testing.T) {
	gp := &gatedProvider{
		inner:   newKeyProvider(t),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	d := didkit.New(didkit.WithRegistry(keyRegistry()), didkit.WithProvider(gp))

	errc := make(chan error, 1)
	go func() {
		_, err := d.Authenticate(context.Background())
		errc <- err
	}()

	<-gp.entered
	d.ClearProvider()
	other := newKeyProvider(t)
	if err := d.SetProvider(other); err != nil {
		t.Fatalf("SetProvider: %v", err)
	}
	close(gp.release)

	if err := <-errc; !errors.Is(err, didkit.ErrProviderConflict) {
		t.Fatalf("want ErrProviderConflict, got %v", err)
	}
	if d.Authenticated() {
		t.Fatalf("identifier committed against a different connection")
	}
}

func TestAuthenticateRejectsBadSignature(t *testing.T) {
	sp := newScriptedProvider(t)
	sp.tamperSig = true
	d := didkit.New(didkit.WithRegistry(keyRegistry()), didkit.WithProvider(sp))

	_, err := d.Authenticate(context.Background())
	if !errors.Is(err, didkit.ErrVerificationFailed) {
		t.Fatalf("want ErrVerificationFailed, got %v", err)
	}
	if d.Authenticated() {
		t.Fatalf("handle authenticated despite bad signature")
	}
}
