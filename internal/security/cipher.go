// Package security encrypts the calendar refresh token for storage at rest.
//
// Stored form: base64(nonce || ciphertext || tag) using AES-256-GCM with a
// 12-byte random nonce and no associated data.
package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

const (
	KeySize   = 32
	NonceSize = 12
)

// CryptoError is returned by Decrypt for any blob that cannot be
// authenticated: bad base64, truncated data, wrong key or tampering.
type CryptoError struct {
	Reason string
	Err    error
}

func (e *CryptoError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decrypt token: %s: %v", e.Reason, e.Err)
	}
	return "decrypt token: " + e.Reason
}

func (e *CryptoError) Unwrap() error {
	return e.Err
}

func IsCryptoError(err error) bool {
	var ce *CryptoError
	return errors.As(err, &ce)
}

// Cipher is safe for concurrent use; the key is fixed at construction.
type Cipher struct {
	aead  cipher.AEAD
	nonce io.Reader
}

// NewCipher builds a Cipher from a 64-character hex key.
func NewCipher(hexKey string) (*Cipher, error) {
	if len(hexKey) != KeySize*2 {
		return nil, fmt.Errorf("secret key must be %d hex characters, got %d", KeySize*2, len(hexKey))
	}
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("secret key is not valid hex: %w", err)
	}
	return newCipher(key, rand.Reader)
}

func newCipher(key []byte, nonceSource io.Reader) (*Cipher, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init aes: %w", err)
	}
	aead, err := cipher.NewGCMWithNonceSize(block, NonceSize)
	if err != nil {
		return nil, fmt.Errorf("init gcm: %w", err)
	}
	return &Cipher{aead: aead, nonce: nonceSource}, nil
}

// Encrypt returns base64(nonce || ciphertext). Empty input is returned as is.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	nonce := make([]byte, NonceSize, NonceSize+len(plaintext)+c.aead.Overhead())
	if _, err := io.ReadFull(c.nonce, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Empty input is returned as is.
func (c *Cipher) Decrypt(blob string) (string, error) {
	if blob == "" {
		return "", nil
	}

	data, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return "", &CryptoError{Reason: "malformed base64", Err: err}
	}
	if len(data) < NonceSize+c.aead.Overhead() {
		return "", &CryptoError{Reason: fmt.Sprintf("blob too short (%d bytes)", len(data))}
	}

	nonce, ciphertext := data[:NonceSize], data[NonceSize:]
	plain, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", &CryptoError{Reason: "authentication failed", Err: err}
	}
	return string(plain), nil
}
