package postgres

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
)

// Encrypted blobs are version(1) || nonce(12) || ciphertext. The version
// byte leaves room for rotating the format without breaking stored rows.
const (
	blobVersion = 0x01
	nonceSize   = 12
	aesKeySize  = 32
)

var (
	// ErrBadCipherKey means the configured encryption key is not 32 bytes.
	ErrBadCipherKey = errors.New("encryption key must be 32 bytes")

	// ErrBadCipherBlob means a stored blob is too short to be valid.
	ErrBadCipherBlob = errors.New("encrypted blob is truncated")

	// ErrBlobVersion means a stored blob was written by an unknown format.
	ErrBlobVersion = errors.New("unknown encrypted blob version")

	// ErrDecryptFailed means the key is wrong or the blob was tampered with.
	ErrDecryptFailed = errors.New("secret decryption failed")
)

// APIKeyCipher protects AI provider API keys at rest with AES-256-GCM,
// so a settings-table dump alone does not leak them.
type APIKeyCipher struct {
	aead cipher.AEAD
}

// NewAPIKeyCipher builds a cipher from a 32-byte key.
func NewAPIKeyCipher(key []byte) (*APIKeyCipher, error) {
	if len(key) != aesKeySize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrBadCipherKey, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init AES: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init GCM: %w", err)
	}

	return &APIKeyCipher{aead: aead}, nil
}

// Encrypt seals a secret into a versioned blob under a fresh nonce.
func (c *APIKeyCipher) Encrypt(secret string) ([]byte, error) {
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("read nonce: %w", err)
	}

	sealed := c.aead.Seal(nil, nonce, []byte(secret), nil)

	blob := make([]byte, 0, 1+nonceSize+len(sealed))
	blob = append(blob, blobVersion)
	blob = append(blob, nonce...)
	blob = append(blob, sealed...)
	return blob, nil
}

// Decrypt opens a blob produced by Encrypt.
func (c *APIKeyCipher) Decrypt(blob []byte) (string, error) {
	if len(blob) < 1+nonceSize+c.aead.Overhead() {
		return "", ErrBadCipherBlob
	}
	if blob[0] != blobVersion {
		return "", fmt.Errorf("%w: %d", ErrBlobVersion, blob[0])
	}

	secret, err := c.aead.Open(nil, blob[1:1+nonceSize], blob[1+nonceSize:], nil)
	if err != nil {
		return "", ErrDecryptFailed
	}
	return string(secret), nil
}
