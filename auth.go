package didkit

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"didkit/codec"
	"didkit/jose"
	"didkit/provider"
)

// nonceBytes sizes the per-attempt challenge nonce.
const nonceBytes = 32

// AuthOption configures one authentication attempt.
type AuthOption func(*authOptions)

type authOptions struct {
	provider provider.Provider
	aud      string
	paths    []string
}

// WithAuthProvider binds the given provider before authenticating, subject
// to the usual conflict rule.
func WithAuthProvider(p provider.Provider) AuthOption {
	return func(o *authOptions) { o.provider = p }
}

// WithAud constrains the validity context of the authentication.
func WithAud(aud string) AuthOption {
	return func(o *authOptions) { o.aud = aud }
}

// WithPaths requests the given path scopes.
func WithPaths(paths ...string) AuthOption {
	return func(o *authOptions) { o.paths = paths }
}

// Authenticate runs the challenge-response handshake against the bound
// provider and, on success, establishes and returns the identifier. Nothing
// about the handle changes on failure.
func (d *DID) Authenticate(ctx context.Context, opts ...AuthOption) (string, error) {
	var o authOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.provider != nil {
		if err := d.SetProvider(o.provider); err != nil {
			return "", err
		}
	}
	p := d.snapshotProvider()
	if p == nil {
		return "", ErrNoProvider
	}

	nonce, err := randomNonce()
	if err != nil {
		return "", err
	}
	var jws jose.GeneralJWS
	if err := p.Send(ctx, provider.MethodAuthenticate, provider.AuthParams{
		Nonce: nonce,
		Aud:   o.aud,
		Paths: o.paths,
	}, &jws); err != nil {
		return "", fmt.Errorf("authenticate: %w", err)
	}

	res, err := d.VerifyJWS(ctx, jws)
	if err != nil {
		return "", err
	}
	claimed, err := validateAuthResponse(res, nonce, o.aud, time.Now())
	if err != nil {
		return "", err
	}

	// Commit only while the connection that answered is still the bound one.
	// A Deauthenticate or ClearProvider that lands mid-handshake must win.
	d.mu.Lock()
	if d.provider != p {
		bound := d.provider
		d.mu.Unlock()
		if bound == nil {
			return "", ErrNoProvider
		}
		return "", ErrProviderConflict
	}
	d.id = claimed
	d.mu.Unlock()
	d.log.Debug("authenticated", zap.String("did", claimed))
	return claimed, nil
}

// validateAuthResponse checks the verified response payload against the
// challenge, in order, failing fast on the first violation.
func validateAuthResponse(res VerifyJWSResult, nonce, aud string, now time.Time) (string, error) {
	payload := res.Payload
	if payload == nil {
		return "", &AuthError{Reason: "response payload is not decodable"}
	}
	claimed, _ := payload["did"].(string)
	if claimed == "" {
		return "", &AuthError{Reason: "response payload carries no did"}
	}
	if !kidReferences(res.Kid, claimed) {
		return "", &AuthError{Reason: fmt.Sprintf("kid %q does not reference did %q", res.Kid, claimed)}
	}
	if got, _ := payload["nonce"].(string); got != nonce {
		return "", &AuthError{Reason: "nonce mismatch"}
	}
	if got, _ := payload["aud"].(string); got != aud {
		return "", &AuthError{Reason: "aud mismatch"}
	}
	exp, ok := payload["exp"].(float64)
	if !ok {
		return "", &AuthError{Reason: "expiry missing"}
	}
	if int64(exp) <= now.Unix() {
		return "", &AuthError{Reason: "response expired"}
	}
	return claimed, nil
}

// kidReferences accepts a kid that is the DID itself or a verification
// method of it (did#fragment). Anything else, including a DID of which the
// claimed one is a mere prefix, is rejected.
func kidReferences(kid, did string) bool {
	return kid == did || strings.HasPrefix(kid, did+"#")
}

func randomNonce() (string, error) {
	b := make([]byte, nonceBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return codec.B64url(b), nil
}
