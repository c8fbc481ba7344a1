package keystore

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

const (
	seedFilename = "seed.json.enc"

	// Current version of the encrypted blob format on disk.
	formatVersion = 1
)

// ErrWrongPassphrase is returned when the passphrase is incorrect or the
// blob has been modified.
var ErrWrongPassphrase = errors.New("keystore: wrong passphrase or corrupted seed")

// blob is the on-disk JSON structure holding ciphertext and KDF parameters.
type blob struct {
	V      int    `json:"v"`
	Salt   []byte `json:"salt"`
	N      int    `json:"scrypt_N"`
	R      int    `json:"scrypt_r"`
	P      int    `json:"scrypt_p"`
	Cipher []byte `json:"cipher"`
}

// Store keeps the provider seed on disk under dir.
type Store struct {
	dir string
	mu  sync.Mutex
}

// New returns a Store rooted at dir.
func New(dir string) *Store { return &Store{dir: dir} }

// SaveSeed seals seed under passphrase and writes it atomically.
func (s *Store) SaveSeed(passphrase string, seed []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	out, err := seal(passphrase, seed)
	if err != nil {
		return err
	}
	return writeFile(filepath.Join(s.dir, seedFilename), out, 0o600)
}

// LoadSeed reads and opens the stored seed.
func (s *Store) LoadSeed(passphrase string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(filepath.Join(s.dir, seedFilename))
	if err != nil {
		return nil, err
	}
	return open(passphrase, b)
}

// Exists reports whether a seed has been stored.
func (s *Store) Exists() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := os.Stat(filepath.Join(s.dir, seedFilename))
	return err == nil
}

func seal(passphrase string, raw []byte) ([]byte, error) {
	var salt [16]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return nil, err
	}
	N, r, p := scryptParamsDefault()
	key, err := scrypt.Key([]byte(passphrase), salt[:], N, r, p, chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}
	defer wipe(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	var nonce [chacha20poly1305.NonceSizeX]byte // zero nonce; salt-bound key guarantees uniqueness
	ct := aead.Seal(nil, nonce[:], raw, salt[:])

	return json.Marshal(blob{V: formatVersion, Salt: salt[:], N: N, R: r, P: p, Cipher: ct})
}

func open(passphrase string, b []byte) ([]byte, error) {
	var bl blob
	if err := json.Unmarshal(b, &bl); err != nil {
		return nil, err
	}
	if bl.V > formatVersion {
		return nil, fmt.Errorf("keystore: unsupported version %d", bl.V)
	}

	key, err := scrypt.Key([]byte(passphrase), bl.Salt, bl.N, bl.R, bl.P, chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}
	defer wipe(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	var nonce [chacha20poly1305.NonceSizeX]byte
	pt, err := aead.Open(nil, nonce[:], bl.Cipher, bl.Salt)
	if err != nil {
		return nil, ErrWrongPassphrase
	}
	return pt, nil
}

// Tunables for scrypt key derivation.
func scryptParamsDefault() (N, r, p int) { return 1 << 15, 8, 1 }

// wipe best-effort zeroes sensitive bytes.
func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// writeFile writes bytes via a temp file, then atomically replaces the target.
func writeFile(path string, b []byte, mode os.FileMode) error {
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()

	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Chmod(mode); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
