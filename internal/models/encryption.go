package models

import "context"

// EncryptionImpl is the contract of the master-password content-encryption
// collaborator. The sync engine pipes file bytes through it when a master
// password is configured; it never interprets the bytes itself, so encrypted
// and plaintext content sync identically.
type EncryptionImpl interface {
	Initialize() error
	Encrypt(ctx context.Context, plainText []byte) ([]byte, error)
	Decrypt(ctx context.Context, cipherText []byte) ([]byte, error)
	Shutdown() error
}
