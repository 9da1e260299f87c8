package crypt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalVaultRoundTrip(t *testing.T) {
	vault := NewLocalVault("master-password", "per-user-salt")
	require.NoError(t, vault.Initialize())

	plain := []byte("# shopping list\n\n- milk\n- eggs\n")

	sealed, err := vault.Encrypt(context.Background(), plain)
	require.NoError(t, err)
	assert.NotEqual(t, plain, sealed)
	assert.Greater(t, len(sealed), len(plain), "sealed output carries nonce and tag")

	opened, err := vault.Decrypt(context.Background(), sealed)
	require.NoError(t, err)
	assert.Equal(t, plain, opened)
}

func TestLocalVaultUniqueNonces(t *testing.T) {
	vault := NewLocalVault("master-password", "per-user-salt")
	require.NoError(t, vault.Initialize())

	plain := []byte("same content")
	first, err := vault.Encrypt(context.Background(), plain)
	require.NoError(t, err)
	second, err := vault.Encrypt(context.Background(), plain)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestLocalVaultWrongPassword(t *testing.T) {
	vault := NewLocalVault("master-password", "per-user-salt")
	require.NoError(t, vault.Initialize())

	sealed, err := vault.Encrypt(context.Background(), []byte("secret note"))
	require.NoError(t, err)

	wrong := NewLocalVault("guessed-password", "per-user-salt")
	require.NoError(t, wrong.Initialize())

	_, err = wrong.Decrypt(context.Background(), sealed)
	assert.Error(t, err)
}

func TestLocalVaultTamperedCiphertext(t *testing.T) {
	vault := NewLocalVault("master-password", "per-user-salt")
	require.NoError(t, vault.Initialize())

	sealed, err := vault.Encrypt(context.Background(), []byte("secret note"))
	require.NoError(t, err)

	sealed[len(sealed)-1] ^= 0xff
	_, err = vault.Decrypt(context.Background(), sealed)
	assert.Error(t, err)
}

func TestLocalVaultRejectsEmptyPassword(t *testing.T) {
	vault := NewLocalVault("", "salt")
	assert.Error(t, vault.Initialize())
}

func TestLocalVaultRejectsShortCiphertext(t *testing.T) {
	vault := NewLocalVault("master-password", "salt")
	require.NoError(t, vault.Initialize())

	_, err := vault.Decrypt(context.Background(), []byte{0x01, 0x02})
	assert.Error(t, err)
}

func TestLocalVaultRequiresInitialize(t *testing.T) {
	vault := NewLocalVault("master-password", "salt")

	_, err := vault.Encrypt(context.Background(), []byte("data"))
	assert.Error(t, err)
}
