package repository

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

var (
	ErrSecretRequired = errors.New("store contains sealed passwords but STORE_SECRET is not set")
	ErrSecretMismatch = errors.New("sealed value does not match STORE_SECRET")
)

// Sealer encrypts remote console passwords at rest.
// A nil Sealer or one built from an empty secret stores plaintext.
type Sealer struct {
	key *[32]byte
}

// NewSealer derives the box key from a passphrase
func NewSealer(secret string) *Sealer {
	if secret == "" {
		return &Sealer{}
	}
	key := sha256.Sum256([]byte(secret))
	return &Sealer{key: &key}
}

// Enabled reports whether Seal encrypts
func (s *Sealer) Enabled() bool {
	return s != nil && s.key != nil
}

// Seal returns base64(nonce || box). Any non-empty input is sealed, whatever it looks like.
func (s *Sealer) Seal(plain string) (string, error) {
	if !s.Enabled() {
		return "", ErrSecretRequired
	}

	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	box := secretbox.Seal(nonce[:], []byte(plain), &nonce, s.key)
	return base64.StdEncoding.EncodeToString(box), nil
}

// Open reverses Seal
func (s *Sealer) Open(sealed string) (string, error) {
	if !s.Enabled() {
		return "", ErrSecretRequired
	}

	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil || len(raw) < 24+secretbox.Overhead {
		return "", errors.New("malformed sealed value")
	}

	var nonce [24]byte
	copy(nonce[:], raw[:24])
	plain, ok := secretbox.Open(nil, raw[24:], &nonce, s.key)
	if !ok {
		return "", ErrSecretMismatch
	}
	return string(plain), nil
}
