package dropbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/files"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/users"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/notewind/syncagent/internal/common"
	"github.com/notewind/syncagent/internal/models"
	"github.com/notewind/syncagent/internal/providers"
)

const DropboxProviderName = "dropbox"

const (
	// Single-request upload limit is 150MB; stay safely under it.
	largeFileThreshold = 145 * 1024 * 1024
	uploadChunkSize    = 8 * 1024 * 1024
)

var dropboxOAuthEndpoint = oauth2.Endpoint{
	AuthURL:  "https://www.dropbox.com/oauth2/authorize",
	TokenURL: "https://api.dropboxapi.com/oauth2/token",
}

// dropboxClient implements the ProviderClient contract with the official
// HTTP API via the unofficial Go SDK. Remote identifiers are Dropbox
// path_lower values; paths are forced to start with "/" and never end
// with one.
type dropboxClient struct {
	filesClient files.Client
	usersClient users.Client
	oauthConfig *oauth2.Config
	token       *oauth2.Token
	auth        *models.BasicConfig
}

func (c *dropboxClient) Initialize(config *models.SyncConfig) error {
	accessToken, _ := config.Auth.GetString("accessToken")
	refreshToken, _ := config.Auth.GetString("refreshToken")
	clientID, _ := config.Auth.GetString("clientId")
	clientSecret, _ := config.Auth.GetString("clientSecret")
	redirectURI, _ := config.Auth.GetString("redirectUri")

	if accessToken == "" && clientID == "" {
		return fmt.Errorf("dropbox auth requires an accessToken, or clientId for the OAuth flow")
	}

	c.auth = &config.Auth
	if clientID != "" {
		c.oauthConfig = &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Endpoint:     dropboxOAuthEndpoint,
		}
	}
	c.token = &oauth2.Token{AccessToken: accessToken, RefreshToken: refreshToken}

	if accessToken != "" {
		sdkConfig := dropbox.Config{Token: accessToken}
		c.filesClient = files.New(sdkConfig)
		c.usersClient = users.New(sdkConfig)
	}

	return nil
}

func (c *dropboxClient) TestConnection(ctx context.Context) models.ConnectionResult {
	if c.usersClient == nil {
		return models.ConnectionResult{Success: false, Message: "dropbox is not authenticated: no access token"}
	}
	account, err := c.usersClient.GetCurrentAccount()
	if err != nil {
		return models.ConnectionResult{Success: false, Message: fmt.Sprintf("dropbox connection failed: %v", err)}
	}
	return models.ConnectionResult{
		Success: true,
		Message: fmt.Sprintf("connected to dropbox as %s", account.Email),
	}
}

func (c *dropboxClient) Authenticate(ctx context.Context) models.AuthResult {
	if c.oauthConfig == nil || c.oauthConfig.RedirectURL == "" {
		return models.AuthResult{Success: false, Message: "dropbox auth requires clientId, clientSecret and redirectUri"}
	}
	authURL := c.oauthConfig.AuthCodeURL(
		"state-token",
		oauth2.SetAuthURLParam("token_access_type", "offline"),
	)
	return models.AuthResult{
		Success: true,
		Message: "open the authorization URL in a browser and paste the code back into the app",
		AuthUrl: authURL,
	}
}

func (c *dropboxClient) RefreshAuth(ctx context.Context) bool {
	if c.oauthConfig == nil || c.token == nil || c.token.RefreshToken == "" {
		return false
	}
	refreshed, err := c.oauthConfig.TokenSource(ctx, &oauth2.Token{RefreshToken: c.token.RefreshToken}).Token()
	if err != nil {
		logrus.WithError(err).Errorln("Failed to refresh dropbox access token")
		return false
	}
	c.token = refreshed
	c.auth.SetKeyWithValue("accessToken", refreshed.AccessToken)
	if refreshed.RefreshToken != "" {
		c.auth.SetKeyWithValue("refreshToken", refreshed.RefreshToken)
	}
	sdkConfig := dropbox.Config{Token: refreshed.AccessToken}
	c.filesClient = files.New(sdkConfig)
	c.usersClient = users.New(sdkConfig)
	return true
}

func (c *dropboxClient) UploadFile(ctx context.Context, localPath, remotePath string) error {
	if c.filesClient == nil {
		return fmt.Errorf("dropbox is not authenticated")
	}

	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", localPath, err)
	}

	remotePath = normalizePath(remotePath)
	if stat.Size() <= largeFileThreshold {
		return c.uploadSmall(f, remotePath)
	}
	return c.uploadSession(f, stat.Size(), remotePath)
}

func (c *dropboxClient) uploadSmall(f *os.File, remotePath string) error {
	arg := files.NewUploadArg(remotePath)
	arg.Mode = &files.WriteMode{Tagged: dropbox.Tagged{Tag: "overwrite"}}
	arg.Mute = true

	if _, err := c.filesClient.Upload(arg, f); err != nil {
		return fmt.Errorf("failed to upload %s: %w", remotePath, err)
	}
	return nil
}

// uploadSession streams a large file through an upload session in fixed-size
// chunks; the final chunk commits with overwrite semantics.
func (c *dropboxClient) uploadSession(f *os.File, size int64, remotePath string) error {
	buf := make([]byte, uploadChunkSize)

	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("failed to read first chunk of %s: %w", remotePath, err)
	}
	startRes, err := c.filesClient.UploadSessionStart(files.NewUploadSessionStartArg(), bytes.NewReader(buf[:n]))
	if err != nil {
		return fmt.Errorf("failed to start upload session for %s: %w", remotePath, err)
	}

	offset := int64(n)
	for offset < size {
		remaining := size - offset
		chunk := int64(uploadChunkSize)
		if remaining < chunk {
			chunk = remaining
		}
		rn, err := io.ReadFull(f, buf[:chunk])
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("failed to read chunk of %s: %w", remotePath, err)
		}
		cursor := files.NewUploadSessionCursor(startRes.SessionId, uint64(offset))
		offset += int64(rn)

		if offset < size {
			if err := c.filesClient.UploadSessionAppendV2(files.NewUploadSessionAppendArg(cursor), bytes.NewReader(buf[:rn])); err != nil {
				return fmt.Errorf("failed to append to upload session for %s: %w", remotePath, err)
			}
			continue
		}

		commit := files.NewCommitInfo(remotePath)
		commit.Mode = &files.WriteMode{Tagged: dropbox.Tagged{Tag: "overwrite"}}
		commit.Mute = true
		if _, err := c.filesClient.UploadSessionFinish(files.NewUploadSessionFinishArg(cursor, commit), bytes.NewReader(buf[:rn])); err != nil {
			return fmt.Errorf("failed to finish upload session for %s: %w", remotePath, err)
		}
	}
	return nil
}

func (c *dropboxClient) DownloadFile(ctx context.Context, remotePath, localPath string) error {
	if c.filesClient == nil {
		return fmt.Errorf("dropbox is not authenticated")
	}

	_, content, err := c.filesClient.Download(files.NewDownloadArg(normalizePath(remotePath)))
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", remotePath, err)
	}
	defer content.Close()

	return common.AtomicWriteFile(localPath, content)
}

func (c *dropboxClient) DeleteFile(ctx context.Context, remotePath string) error {
	if c.filesClient == nil {
		return fmt.Errorf("dropbox is not authenticated")
	}
	if _, err := c.filesClient.DeleteV2(files.NewDeleteArg(normalizePath(remotePath))); err != nil {
		if isPathNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to delete %s: %w", remotePath, err)
	}
	return nil
}

// CreateDirectory creates each missing segment of the path in turn;
// "conflict" responses mean the folder already exists and count as success.
func (c *dropboxClient) CreateDirectory(ctx context.Context, remotePath string) error {
	if c.filesClient == nil {
		return fmt.Errorf("dropbox is not authenticated")
	}

	var builder strings.Builder
	for _, segment := range common.SplitRemotePath(remotePath) {
		builder.WriteString("/")
		builder.WriteString(segment)
		seg := builder.String()
		if _, err := c.filesClient.CreateFolderV2(files.NewCreateFolderArg(seg)); err != nil {
			low := strings.ToLower(err.Error())
			if strings.Contains(low, "conflict") || strings.Contains(low, "already") {
				continue
			}
			return fmt.Errorf("failed to create folder %s: %w", seg, err)
		}
	}
	return nil
}

func (c *dropboxClient) ListFiles(ctx context.Context, remotePath string) ([]models.RemoteFileInfo, error) {
	if c.filesClient == nil {
		return nil, fmt.Errorf("dropbox is not authenticated")
	}

	arg := files.NewListFolderArg(listPath(remotePath))
	res, err := c.filesClient.ListFolder(arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", remotePath, err)
	}

	var out []models.RemoteFileInfo
	collect := func(entries []files.IsMetadata) {
		for _, entry := range entries {
			if info := toFileInfo(entry); info != nil {
				out = append(out, *info)
			}
		}
	}
	collect(res.Entries)
	for res.HasMore {
		res, err = c.filesClient.ListFolderContinue(files.NewListFolderContinueArg(res.Cursor))
		if err != nil {
			return nil, fmt.Errorf("failed to continue listing %s: %w", remotePath, err)
		}
		collect(res.Entries)
	}
	return out, nil
}

func (c *dropboxClient) GetFileInfo(ctx context.Context, remotePath string) (*models.RemoteFileInfo, error) {
	if c.filesClient == nil {
		return nil, fmt.Errorf("dropbox is not authenticated")
	}

	meta, err := c.filesClient.GetMetadata(files.NewGetMetadataArg(normalizePath(remotePath)))
	if err != nil {
		if isPathNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to stat %s: %w", remotePath, err)
	}
	return toFileInfo(meta), nil
}

func toFileInfo(entry files.IsMetadata) *models.RemoteFileInfo {
	switch meta := entry.(type) {
	case *files.FileMetadata:
		return &models.RemoteFileInfo{
			ID:           meta.PathLower,
			Name:         meta.Name,
			Path:         meta.PathDisplay,
			Size:         int64(meta.Size),
			ModifiedTime: meta.ServerModified.UnixMilli(),
			ContentHash:  meta.ContentHash,
			HashKind:     models.HashDropbox,
		}
	case *files.FolderMetadata:
		return &models.RemoteFileInfo{
			ID:          meta.PathLower,
			Name:        meta.Name,
			Path:        meta.PathDisplay,
			IsDirectory: true,
		}
	default:
		return nil
	}
}

// normalizePath forces the Dropbox path shape: leading "/", no trailing "/".
func normalizePath(remotePath string) string {
	return common.NormalizeRemotePath(remotePath)
}

// listPath maps the root folder to the empty string the ListFolder API expects.
func listPath(remotePath string) string {
	p := normalizePath(remotePath)
	if p == "/" {
		return ""
	}
	return p
}

func isPathNotFound(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "path/not_found") ||
		strings.Contains(msg, "path_lookup/not_found") ||
		strings.Contains(msg, "not_found")
}

func init() {
	providers.Register(models.ProviderInfo{
		ID:          DropboxProviderName,
		Name:        "Dropbox",
		Description: "Dropbox via OAuth2 authorization code flow",
	}, &dropboxClient{})
}
