package dropbox

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notewind/syncagent/internal/models"
)

func TestInitializeRequiresTokenOrClient(t *testing.T) {
	client := &dropboxClient{}
	err := client.Initialize(&models.SyncConfig{Auth: models.BasicConfig{}})
	assert.Error(t, err)
}

func TestInitializeWithAccessToken(t *testing.T) {
	client := &dropboxClient{}
	err := client.Initialize(&models.SyncConfig{
		Auth: models.BasicConfig{"accessToken": "sl.token"},
	})
	require.NoError(t, err)
	assert.NotNil(t, client.filesClient)
	assert.NotNil(t, client.usersClient)
}

func TestInitializeWithClientOnly(t *testing.T) {
	client := &dropboxClient{}
	err := client.Initialize(&models.SyncConfig{
		Auth: models.BasicConfig{
			"clientId":     "app-key",
			"clientSecret": "app-secret",
			"redirectUri":  "http://localhost:8787/oauth",
		},
	})
	require.NoError(t, err)
	assert.Nil(t, client.filesClient, "no token yet, transfer calls must refuse")

	result := client.TestConnection(context.Background())
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "not authenticated")
}

func TestAuthenticateProducesConsentURL(t *testing.T) {
	client := &dropboxClient{}
	require.NoError(t, client.Initialize(&models.SyncConfig{
		Auth: models.BasicConfig{
			"clientId":     "app-key",
			"clientSecret": "app-secret",
			"redirectUri":  "http://localhost:8787/oauth",
		},
	}))

	result := client.Authenticate(context.Background())
	require.True(t, result.Success, result.Message)

	parsed, err := url.Parse(result.AuthUrl)
	require.NoError(t, err)
	assert.Equal(t, "www.dropbox.com", parsed.Host)
	query := parsed.Query()
	assert.Equal(t, "app-key", query.Get("client_id"))
	assert.Equal(t, "offline", query.Get("token_access_type"))
}

func TestAuthenticateWithoutOAuthConfig(t *testing.T) {
	client := &dropboxClient{}
	require.NoError(t, client.Initialize(&models.SyncConfig{
		Auth: models.BasicConfig{"accessToken": "sl.token"},
	}))

	result := client.Authenticate(context.Background())
	assert.False(t, result.Success)
}

func TestRefreshAuthWithoutRefreshToken(t *testing.T) {
	client := &dropboxClient{}
	require.NoError(t, client.Initialize(&models.SyncConfig{
		Auth: models.BasicConfig{"accessToken": "sl.token"},
	}))

	assert.False(t, client.RefreshAuth(context.Background()))
}

func TestNormalizeAndListPath(t *testing.T) {
	assert.Equal(t, "/notes", normalizePath("notes/"))
	assert.Equal(t, "/notes/todo.md", normalizePath("/notes/todo.md"))
	assert.Equal(t, "", listPath("/"), "the API expects the root as an empty string")
	assert.Equal(t, "/notes", listPath("notes"))
}

func TestIsPathNotFound(t *testing.T) {
	assert.True(t, isPathNotFound(errors.New("path/not_found/...")))
	assert.True(t, isPathNotFound(errors.New("path_lookup/not_found")))
	assert.False(t, isPathNotFound(errors.New("insufficient_space")))
	assert.False(t, isPathNotFound(nil))
}
