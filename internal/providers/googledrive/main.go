package googledrive

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/notewind/syncagent/internal/common"
	"github.com/notewind/syncagent/internal/models"
	"github.com/notewind/syncagent/internal/providers"
)

const DriveProviderName = "googledrive"

const folderMimeType = "application/vnd.google-apps.folder"

// driveClient implements the ProviderClient contract against the Drive v3
// API. Drive has no native path concept, so every operation resolves its
// folder chain id-by-id from the root; nothing is memoized across calls,
// trading repeated list calls for statelessness.
type driveClient struct {
	oauthConfig *oauth2.Config
	token       *oauth2.Token
	service     *drive.Service
	auth        *models.BasicConfig
}

func (d *driveClient) Initialize(config *models.SyncConfig) error {
	clientID, foundID := config.Auth.GetString("clientId")
	clientSecret, foundSecret := config.Auth.GetString("clientSecret")
	if !foundID || !foundSecret {
		return fmt.Errorf("googledrive auth requires clientId and clientSecret to be set")
	}
	redirectURI, _ := config.Auth.GetString("redirectUri")

	d.auth = &config.Auth
	d.oauthConfig = &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes:       []string{drive.DriveFileScope},
		Endpoint:     google.Endpoint,
	}

	accessToken, _ := config.Auth.GetString("accessToken")
	refreshToken, _ := config.Auth.GetString("refreshToken")
	if accessToken == "" && refreshToken == "" {
		// Authenticate() can still produce a consent URL; transfer calls
		// will fail until tokens are supplied.
		return nil
	}

	d.token = &oauth2.Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}

	service, err := drive.NewService(
		context.Background(),
		option.WithTokenSource(d.oauthConfig.TokenSource(context.Background(), d.token)),
	)
	if err != nil {
		return fmt.Errorf("failed to create drive service: %w", err)
	}
	d.service = service

	return nil
}

func (d *driveClient) TestConnection(ctx context.Context) models.ConnectionResult {
	if d.service == nil {
		return models.ConnectionResult{Success: false, Message: "googledrive is not authenticated: no access or refresh token"}
	}
	about, err := d.service.About.Get().Fields("user").Context(ctx).Do()
	if err != nil {
		return models.ConnectionResult{Success: false, Message: fmt.Sprintf("googledrive connection failed: %v", err)}
	}
	return models.ConnectionResult{
		Success: true,
		Message: fmt.Sprintf("connected to google drive as %s", about.User.EmailAddress),
	}
}

func (d *driveClient) Authenticate(ctx context.Context) models.AuthResult {
	if d.oauthConfig == nil || d.oauthConfig.RedirectURL == "" {
		return models.AuthResult{Success: false, Message: "googledrive auth requires clientId, clientSecret and redirectUri"}
	}
	authURL := d.oauthConfig.AuthCodeURL(
		"state-token",
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
	return models.AuthResult{
		Success: true,
		Message: "open the authorization URL in a browser and paste the code back into the app",
		AuthUrl: authURL,
	}
}

func (d *driveClient) RefreshAuth(ctx context.Context) bool {
	if d.oauthConfig == nil || d.token == nil || d.token.RefreshToken == "" {
		return false
	}
	refreshed, err := d.oauthConfig.TokenSource(ctx, &oauth2.Token{RefreshToken: d.token.RefreshToken}).Token()
	if err != nil {
		logrus.WithError(err).Errorln("Failed to refresh google drive access token")
		return false
	}
	d.token = refreshed
	d.auth.SetKeyWithValue("accessToken", refreshed.AccessToken)
	if refreshed.RefreshToken != "" {
		d.auth.SetKeyWithValue("refreshToken", refreshed.RefreshToken)
	}
	return true
}

func (d *driveClient) UploadFile(ctx context.Context, localPath, remotePath string) error {
	if d.service == nil {
		return fmt.Errorf("googledrive is not authenticated")
	}

	parentID, err := d.resolveFolder(ctx, parentPath(remotePath), true)
	if err != nil {
		return fmt.Errorf("failed to resolve folder for %s: %w", remotePath, err)
	}

	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer f.Close()

	name := baseName(remotePath)
	existing, err := d.findChild(ctx, parentID, name, false)
	if err != nil {
		return fmt.Errorf("failed to look up %s before upload: %w", remotePath, err)
	}

	if existing != nil {
		_, err = d.service.Files.Update(existing.Id, &drive.File{}).Media(f).Context(ctx).Do()
	} else {
		_, err = d.service.Files.Create(&drive.File{
			Name:    name,
			Parents: []string{parentID},
		}).Media(f).Context(ctx).Do()
	}
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", remotePath, err)
	}
	return nil
}

func (d *driveClient) DownloadFile(ctx context.Context, remotePath, localPath string) error {
	if d.service == nil {
		return fmt.Errorf("googledrive is not authenticated")
	}

	file, err := d.findByPath(ctx, remotePath)
	if err != nil {
		return fmt.Errorf("failed to look up %s: %w", remotePath, err)
	}
	if file == nil {
		return fmt.Errorf("remote file %s does not exist", remotePath)
	}

	resp, err := d.service.Files.Get(file.Id).Context(ctx).Download()
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", remotePath, err)
	}
	defer resp.Body.Close()

	return common.AtomicWriteFile(localPath, resp.Body)
}

func (d *driveClient) DeleteFile(ctx context.Context, remotePath string) error {
	if d.service == nil {
		return fmt.Errorf("googledrive is not authenticated")
	}

	file, err := d.findByPath(ctx, remotePath)
	if err != nil {
		return fmt.Errorf("failed to look up %s: %w", remotePath, err)
	}
	if file == nil {
		return nil
	}
	if err := d.service.Files.Delete(file.Id).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to delete %s: %w", remotePath, err)
	}
	return nil
}

func (d *driveClient) CreateDirectory(ctx context.Context, remotePath string) error {
	if d.service == nil {
		return fmt.Errorf("googledrive is not authenticated")
	}
	if _, err := d.resolveFolder(ctx, remotePath, true); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", remotePath, err)
	}
	return nil
}

func (d *driveClient) ListFiles(ctx context.Context, remotePath string) ([]models.RemoteFileInfo, error) {
	if d.service == nil {
		return nil, fmt.Errorf("googledrive is not authenticated")
	}

	folderID, err := d.resolveFolder(ctx, remotePath, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", remotePath, err)
	}
	if folderID == "" {
		return nil, fmt.Errorf("failed to list %s: folder does not exist", remotePath)
	}

	query := fmt.Sprintf("'%s' in parents and trashed = false", folderID)
	var out []models.RemoteFileInfo
	pageToken := ""
	for {
		call := d.service.Files.List().
			Q(query).
			Fields("nextPageToken, files(id, name, mimeType, size, md5Checksum, modifiedTime, parents)").
			PageSize(1000).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		page, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", remotePath, err)
		}
		for _, f := range page.Files {
			out = append(out, toFileInfo(f, common.JoinRemotePath(remotePath, f.Name)))
		}
		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}
	return out, nil
}

func (d *driveClient) GetFileInfo(ctx context.Context, remotePath string) (*models.RemoteFileInfo, error) {
	if d.service == nil {
		return nil, fmt.Errorf("googledrive is not authenticated")
	}

	file, err := d.findByPath(ctx, remotePath)
	if err != nil {
		return nil, err
	}
	if file == nil {
		return nil, nil
	}
	info := toFileInfo(file, common.NormalizeRemotePath(remotePath))
	return &info, nil
}

// resolveFolder walks the path's folder chain from the Drive root, segment by
// segment. With create set, missing segments are created along the way. An
// empty id with nil error means the folder does not exist.
func (d *driveClient) resolveFolder(ctx context.Context, remotePath string, create bool) (string, error) {
	parentID := "root"
	for _, segment := range common.SplitRemotePath(remotePath) {
		child, err := d.findChild(ctx, parentID, segment, true)
		if err != nil {
			return "", err
		}
		if child == nil {
			if !create {
				return "", nil
			}
			created, err := d.service.Files.Create(&drive.File{
				Name:     segment,
				MimeType: folderMimeType,
				Parents:  []string{parentID},
			}).Fields("id").Context(ctx).Do()
			if err != nil {
				return "", fmt.Errorf("failed to create folder %s: %w", segment, err)
			}
			parentID = created.Id
			continue
		}
		parentID = child.Id
	}
	return parentID, nil
}

// findChild looks up a single direct child of parentID by name.
func (d *driveClient) findChild(ctx context.Context, parentID, name string, folderOnly bool) (*drive.File, error) {
	query := fmt.Sprintf("name = '%s' and '%s' in parents and trashed = false", escapeQuery(name), parentID)
	if folderOnly {
		query += fmt.Sprintf(" and mimeType = '%s'", folderMimeType)
	}
	page, err := d.service.Files.List().
		Q(query).
		Fields("files(id, name, mimeType, size, md5Checksum, modifiedTime, parents)").
		PageSize(1).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	if len(page.Files) == 0 {
		return nil, nil
	}
	return page.Files[0], nil
}

func (d *driveClient) findByPath(ctx context.Context, remotePath string) (*drive.File, error) {
	parentID, err := d.resolveFolder(ctx, parentPath(remotePath), false)
	if err != nil {
		return nil, err
	}
	if parentID == "" {
		return nil, nil
	}
	return d.findChild(ctx, parentID, baseName(remotePath), false)
}

func toFileInfo(f *drive.File, path string) models.RemoteFileInfo {
	info := models.RemoteFileInfo{
		ID:          f.Id,
		Name:        f.Name,
		Path:        path,
		Size:        f.Size,
		IsDirectory: f.MimeType == folderMimeType,
		ContentHash: strings.ToLower(f.Md5Checksum),
	}
	if len(f.Parents) > 0 {
		info.ParentID = f.Parents[0]
	}
	if info.ContentHash != "" {
		info.HashKind = models.HashMD5
	}
	if f.ModifiedTime != "" {
		if t, err := time.Parse(time.RFC3339, f.ModifiedTime); err == nil {
			info.ModifiedTime = t.UnixMilli()
		}
	}
	return info
}

func escapeQuery(name string) string {
	return strings.ReplaceAll(strings.ReplaceAll(name, `\`, `\\`), `'`, `\'`)
}

func parentPath(remotePath string) string {
	segments := common.SplitRemotePath(remotePath)
	if len(segments) <= 1 {
		return "/"
	}
	return "/" + strings.Join(segments[:len(segments)-1], "/")
}

func baseName(remotePath string) string {
	segments := common.SplitRemotePath(remotePath)
	if len(segments) == 0 {
		return ""
	}
	return segments[len(segments)-1]
}

func init() {
	providers.Register(models.ProviderInfo{
		ID:          DriveProviderName,
		Name:        "Google Drive",
		Description: "Google Drive via OAuth2 authorization code flow",
	}, &driveClient{})
}
