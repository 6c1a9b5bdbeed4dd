// Package vault encrypts item bodies before they reach the store.
package vault

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	keySize   = 32
	nonceSize = 24
	hkdfInfo  = "ai-invoice item body v1"
)

// ErrDecrypt is returned for blobs that fail authentication or decoding.
var ErrDecrypt = errors.New("decrypting blob")

// Cipher is the symmetric encrypt/decrypt collaborator.
type Cipher interface {
	Encrypt(plaintext []byte) (string, error)
	Decrypt(blob string) ([]byte, error)
}

// SecretBox seals bodies with NaCl secretbox. Blobs are base64(nonce||box).
type SecretBox struct {
	key [keySize]byte
}

// NewSecretBox derives a 256-bit key from secret.
func NewSecretBox(secret string) (*SecretBox, error) {
	if secret == "" {
		return nil, errors.New("encryption secret is empty")
	}
	sb := &SecretBox{}
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte(hkdfInfo))
	if _, err := io.ReadFull(kdf, sb.key[:]); err != nil {
		return nil, fmt.Errorf("deriving key: %w", err)
	}
	return sb, nil
}

// Encrypt seals plaintext under a fresh random nonce.
func (s *SecretBox) Encrypt(plaintext []byte) (string, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("reading nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], plaintext, &nonce, &s.key)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a blob produced by Encrypt.
func (s *SecretBox) Decrypt(blob string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	if len(raw) < nonceSize+secretbox.Overhead {
		return nil, fmt.Errorf("%w: blob too short", ErrDecrypt)
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &s.key)
	if !ok {
		return nil, fmt.Errorf("%w: authentication failed", ErrDecrypt)
	}
	return plain, nil
}

// Plain is a no-op Cipher for tests and local development.
type Plain struct{}

// Encrypt returns plaintext unchanged.
func (Plain) Encrypt(plaintext []byte) (string, error) { return string(plaintext), nil }

// Decrypt returns blob unchanged.
func (Plain) Decrypt(blob string) ([]byte, error) { return []byte(blob), nil }
