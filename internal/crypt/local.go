// Package crypt provides the local master-password implementation of the
// content-encryption contract. File bytes are sealed with AES-GCM under a
// PBKDF2-derived key before upload and opened after download; the sync engine
// itself never looks inside.
package crypt

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"

	"github.com/notewind/syncagent/internal/models"
)

type localVault struct {
	password string
	salt     string
	key      []byte
	gcm      cipher.AEAD
}

// NewLocalVault returns an EncryptionImpl keyed by the user's master password.
func NewLocalVault(password, salt string) models.EncryptionImpl {
	return &localVault{password: password, salt: salt}
}

// Derive a 256-bit key from password using PBKDF2
func deriveKey(password, salt string) []byte {
	return pbkdf2.Key([]byte(password), []byte(salt), 100000, 32, sha256.New)
}

func (l *localVault) Initialize() error {
	if l.password == "" {
		return fmt.Errorf("master password must not be empty")
	}

	l.key = deriveKey(l.password, l.salt)

	block, err := aes.NewCipher(l.key)
	if err != nil {
		return fmt.Errorf("failed to create cipher: %w", err)
	}

	l.gcm, err = cipher.NewGCM(block)
	if err != nil {
		return fmt.Errorf("failed to create GCM: %w", err)
	}

	return nil
}

func (l *localVault) Shutdown() error {
	// Clear sensitive data
	for i := range l.key {
		l.key[i] = 0
	}
	return nil
}

// Encrypt seals plainText as nonce||ciphertext.
func (l *localVault) Encrypt(ctx context.Context, plainText []byte) ([]byte, error) {
	if l.gcm == nil {
		return nil, fmt.Errorf("encryption is not initialized")
	}

	nonce := make([]byte, l.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return l.gcm.Seal(nonce, nonce, plainText, nil), nil
}

func (l *localVault) Decrypt(ctx context.Context, cipherText []byte) ([]byte, error) {
	if l.gcm == nil {
		return nil, fmt.Errorf("encryption is not initialized")
	}
	if len(cipherText) < l.gcm.NonceSize() {
		return nil, fmt.Errorf("ciphertext shorter than nonce")
	}

	nonce := cipherText[:l.gcm.NonceSize()]
	payload := cipherText[l.gcm.NonceSize():]

	plain, err := l.gcm.Open(nil, nonce, payload, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}
	return plain, nil
}
