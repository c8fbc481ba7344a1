package jose

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/curve25519"

	"didkit/codec"
)

const (
	jweAlg = "ECDH-ES+XC20PKW"
	jweEnc = "XC20P"

	cekSize = chacha20poly1305.KeySize
	tagSize = 16
)

var (
	// ErrMalformedJWE is returned for envelopes that do not parse.
	ErrMalformedJWE = errors.New("jose: malformed JWE")
	// ErrNoRecipients is returned when an encryption is requested for nobody.
	ErrNoRecipients = errors.New("jose: encrypted envelope needs at least one recipient")
	// ErrDecryptionFailed is returned when no recipient slot opens with the key.
	ErrDecryptionFailed = errors.New("jose: decryption failed")
)

// Recipient is one recipient entry of a general-form JWE.
type Recipient struct {
	Header       map[string]any `json:"header"`
	EncryptedKey string         `json:"encrypted_key"`
}

// JWE is an encrypted envelope in general JSON serialization.
type JWE struct {
	Protected  string      `json:"protected"`
	IV         string      `json:"iv"`
	Ciphertext string      `json:"ciphertext"`
	Tag        string      `json:"tag"`
	AAD        string      `json:"aad,omitempty"`
	Recipients []Recipient `json:"recipients"`
}

// Encrypter wraps the content key for a single X25519 recipient.
type Encrypter struct {
	pub [32]byte
	kid string
}

// NewEncrypter builds an encrypter from a raw 32-byte X25519 public key. kid,
// when set, is recorded in the recipient header.
func NewEncrypter(pub []byte, kid string) (Encrypter, error) {
	var e Encrypter
	if len(pub) != 32 {
		return e, fmt.Errorf("x25519 encrypter wants a 32-byte key, got %d", len(pub))
	}
	copy(e.pub[:], pub)
	e.kid = kid
	return e, nil
}

// CreateJWE encrypts cleartext to all encrypters. The content is sealed once
// with a fresh content key under XChaCha20-Poly1305; the content key is then
// wrapped per recipient via ECDH-ES with an ephemeral X25519 key. Extra
// protected header fields and additional authenticated data are honoured.
func CreateJWE(cleartext []byte, encrypters []Encrypter, protectedHeader map[string]any, aad []byte) (JWE, error) {
	if len(encrypters) == 0 {
		return JWE{}, ErrNoRecipients
	}

	hdr := make(map[string]any, len(protectedHeader)+1)
	for k, v := range protectedHeader {
		hdr[k] = v
	}
	hdr["enc"] = jweEnc
	hdrRaw, err := json.Marshal(hdr)
	if err != nil {
		return JWE{}, err
	}
	protected := codec.B64url(hdrRaw)

	out := JWE{Protected: protected}
	authData := []byte(protected)
	if len(aad) > 0 {
		out.AAD = codec.B64url(aad)
		authData = []byte(protected + "." + out.AAD)
	}

	cek := make([]byte, cekSize)
	if _, err := rand.Read(cek); err != nil {
		return JWE{}, err
	}
	aead, err := chacha20poly1305.NewX(cek)
	if err != nil {
		return JWE{}, err
	}
	iv := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(iv); err != nil {
		return JWE{}, err
	}
	sealed := aead.Seal(nil, iv, cleartext, authData)
	out.IV = codec.B64url(iv)
	out.Ciphertext = codec.B64url(sealed[:len(sealed)-tagSize])
	out.Tag = codec.B64url(sealed[len(sealed)-tagSize:])

	for _, enc := range encrypters {
		rcpt, err := enc.wrap(cek)
		if err != nil {
			return JWE{}, err
		}
		out.Recipients = append(out.Recipients, rcpt)
	}
	return out, nil
}

func (e Encrypter) wrap(cek []byte) (Recipient, error) {
	ephPriv := make([]byte, 32)
	if _, err := rand.Read(ephPriv); err != nil {
		return Recipient{}, err
	}
	ephPub, err := curve25519.X25519(ephPriv, curve25519.Basepoint)
	if err != nil {
		return Recipient{}, err
	}
	shared, err := curve25519.X25519(ephPriv, e.pub[:])
	if err != nil {
		return Recipient{}, err
	}
	kek := concatKDF(shared, jweAlg, cekSize)

	kw, err := chacha20poly1305.NewX(kek)
	if err != nil {
		return Recipient{}, err
	}
	iv := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(iv); err != nil {
		return Recipient{}, err
	}
	wrapped := kw.Seal(nil, iv, cek, nil)

	header := map[string]any{
		"alg": jweAlg,
		"iv":  codec.B64url(iv),
		"tag": codec.B64url(wrapped[len(wrapped)-tagSize:]),
		"epk": map[string]any{
			"kty": "OKP",
			"crv": "X25519",
			"x":   codec.B64url(ephPub),
		},
	}
	if e.kid != "" {
		header["kid"] = e.kid
	}
	return Recipient{
		Header:       header,
		EncryptedKey: codec.B64url(wrapped[:len(wrapped)-tagSize]),
	}, nil
}

// DecryptJWE opens the envelope with a raw X25519 private key, trying each
// recipient slot in turn.
func DecryptJWE(jwe JWE, priv []byte) ([]byte, error) {
	if len(jwe.Recipients) == 0 {
		return nil, fmt.Errorf("%w: no recipients", ErrMalformedJWE)
	}
	iv, err := codec.DecodeB64url(jwe.IV)
	if err != nil {
		return nil, fmt.Errorf("%w: iv: %w", ErrMalformedJWE, err)
	}
	ct, err := codec.DecodeB64url(jwe.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: ciphertext: %w", ErrMalformedJWE, err)
	}
	tag, err := codec.DecodeB64url(jwe.Tag)
	if err != nil {
		return nil, fmt.Errorf("%w: tag: %w", ErrMalformedJWE, err)
	}
	authData := []byte(jwe.Protected)
	if jwe.AAD != "" {
		authData = []byte(jwe.Protected + "." + jwe.AAD)
	}

	for _, rcpt := range jwe.Recipients {
		cek, err := rcpt.unwrap(priv)
		if err != nil {
			continue
		}
		aead, err := chacha20poly1305.NewX(cek)
		if err != nil {
			continue
		}
		pt, err := aead.Open(nil, iv, append(append([]byte{}, ct...), tag...), authData)
		if err == nil {
			return pt, nil
		}
	}
	return nil, ErrDecryptionFailed
}

func (r Recipient) unwrap(priv []byte) ([]byte, error) {
	epk, ok := r.Header["epk"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: recipient epk", ErrMalformedJWE)
	}
	x, _ := epk["x"].(string)
	ephPub, err := codec.DecodeB64url(x)
	if err != nil {
		return nil, fmt.Errorf("%w: epk.x: %w", ErrMalformedJWE, err)
	}
	ivStr, _ := r.Header["iv"].(string)
	iv, err := codec.DecodeB64url(ivStr)
	if err != nil {
		return nil, fmt.Errorf("%w: recipient iv: %w", ErrMalformedJWE, err)
	}
	tagStr, _ := r.Header["tag"].(string)
	tag, err := codec.DecodeB64url(tagStr)
	if err != nil {
		return nil, fmt.Errorf("%w: recipient tag: %w", ErrMalformedJWE, err)
	}
	encKey, err := codec.DecodeB64url(r.EncryptedKey)
	if err != nil {
		return nil, fmt.Errorf("%w: encrypted_key: %w", ErrMalformedJWE, err)
	}

	shared, err := curve25519.X25519(priv, ephPub)
	if err != nil {
		return nil, err
	}
	kek := concatKDF(shared, jweAlg, cekSize)
	kw, err := chacha20poly1305.NewX(kek)
	if err != nil {
		return nil, err
	}
	return kw.Open(nil, iv, append(append([]byte{}, encKey...), tag...), nil)
}

// concatKDF derives keyLen bytes from the shared secret per NIST SP 800-56A
// single-round concatenation KDF with the algorithm name as AlgorithmID and
// empty party infos, as JOSE ECDH-ES prescribes.
func concatKDF(secret []byte, alg string, keyLen int) []byte {
	h := sha256.New()
	var tmp [4]byte

	binary.BigEndian.PutUint32(tmp[:], 1) // round counter
	h.Write(tmp[:])
	h.Write(secret)

	binary.BigEndian.PutUint32(tmp[:], uint32(len(alg)))
	h.Write(tmp[:])
	h.Write([]byte(alg))

	binary.BigEndian.PutUint32(tmp[:], 0) // PartyUInfo
	h.Write(tmp[:])
	binary.BigEndian.PutUint32(tmp[:], 0) // PartyVInfo
	h.Write(tmp[:])

	binary.BigEndian.PutUint32(tmp[:], uint32(keyLen)*8)
	h.Write(tmp[:])

	return h.Sum(nil)[:keyLen]
}
