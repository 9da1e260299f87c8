package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBasicConfigGetString(t *testing.T) {
	cfg := BasicConfig{"url": "https://dav.example.com", "port": 443}

	value, ok := cfg.GetString("url")
	assert.True(t, ok)
	assert.Equal(t, "https://dav.example.com", value)

	_, ok = cfg.GetString("missing")
	assert.False(t, ok)

	_, ok = cfg.GetString("port")
	assert.False(t, ok, "non-string values do not coerce")
}

func TestBasicConfigGetStringWithDefault(t *testing.T) {
	cfg := BasicConfig{"url": "https://dav.example.com", "empty": ""}

	assert.Equal(t, "https://dav.example.com", cfg.GetStringWithDefault("url", "fallback"))
	assert.Equal(t, "fallback", cfg.GetStringWithDefault("missing", "fallback"))
	assert.Equal(t, "fallback", cfg.GetStringWithDefault("empty", "fallback"))
}

func TestBasicConfigGetStringSlice(t *testing.T) {
	cfg := BasicConfig{
		"typed":   []string{"a", "b"},
		"untyped": []any{"c", "d", 5},
	}

	typed, ok := cfg.GetStringSlice("typed")
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, typed)

	untyped, ok := cfg.GetStringSlice("untyped")
	assert.True(t, ok)
	assert.Equal(t, []string{"c", "d"}, untyped, "non-string elements are dropped")
}

func TestBasicConfigSetKeyWithValue(t *testing.T) {
	var cfg BasicConfig
	cfg.SetKeyWithValue("accessToken", "tok")

	value, ok := cfg.GetString("accessToken")
	assert.True(t, ok)
	assert.Equal(t, "tok", value)
}

func TestSyncDirectionPasses(t *testing.T) {
	assert.True(t, SyncDirectionLocalToRemote.IncludesUpload())
	assert.False(t, SyncDirectionLocalToRemote.IncludesDownload())

	assert.False(t, SyncDirectionRemoteToLocal.IncludesUpload())
	assert.True(t, SyncDirectionRemoteToLocal.IncludesDownload())

	assert.True(t, SyncDirectionBidirectional.IncludesUpload())
	assert.True(t, SyncDirectionBidirectional.IncludesDownload())
}

func TestErrUnsupportedProviderMessage(t *testing.T) {
	err := &ErrUnsupportedProvider{Provider: "imap"}
	assert.Equal(t, "unsupported provider: imap", err.Error())
}
