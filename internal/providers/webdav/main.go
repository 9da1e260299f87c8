package webdav

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/notewind/syncagent/internal/common"
	"github.com/notewind/syncagent/internal/models"
	"github.com/notewind/syncagent/internal/providers"
)

const WebdavProviderName = "webdav"

const requestTimeout = 60 * time.Second

// webdavClient implements the ProviderClient contract against any WebDAV
// server (Nextcloud, ownCloud, generic DAV) using basic auth. Remote file
// identifiers are the server-relative paths themselves; WebDAV has no other
// native id.
type webdavClient struct {
	baseURL string
	client  *resty.Client
}

func (w *webdavClient) Initialize(config *models.SyncConfig) error {
	endpoint, foundURL := config.Auth.GetString("url")
	username, foundUser := config.Auth.GetString("username")
	password, foundPass := config.Auth.GetString("password")

	if !foundURL || !foundUser || !foundPass {
		return fmt.Errorf("webdav auth requires url, username and password to be set")
	}

	parsed, err := url.Parse(endpoint)
	if err != nil || parsed.Host == "" {
		return fmt.Errorf("webdav url %q is not a valid URL", endpoint)
	}

	w.baseURL = strings.TrimRight(endpoint, "/")
	w.client = resty.New().
		SetBaseURL(w.baseURL).
		SetBasicAuth(username, password).
		SetTimeout(requestTimeout).
		SetHeader("User-Agent", "notewind-sync")

	return nil
}

func (w *webdavClient) TestConnection(ctx context.Context) models.ConnectionResult {
	resp, err := w.propfind(ctx, "/", "0")
	if err != nil {
		return models.ConnectionResult{Success: false, Message: fmt.Sprintf("webdav connection failed: %v", err)}
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return models.ConnectionResult{
			Success: false,
			Message: fmt.Sprintf("webdav connection failed: server returned %s", resp.Status()),
		}
	}
	return models.ConnectionResult{Success: true, Message: "webdav connection successful"}
}

func (w *webdavClient) Authenticate(ctx context.Context) models.AuthResult {
	// Basic auth has no consent step; the real check is TestConnection.
	return models.AuthResult{Success: true, Message: "webdav uses basic authentication"}
}

func (w *webdavClient) RefreshAuth(ctx context.Context) bool {
	// Credentials do not expire.
	return true
}

func (w *webdavClient) UploadFile(ctx context.Context, localPath, remotePath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer f.Close()

	resp, err := w.client.R().
		SetContext(ctx).
		SetContentLength(true).
		SetBody(f).
		Put(encodePath(remotePath))
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", remotePath, err)
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return fmt.Errorf("failed to upload %s: server returned %s", remotePath, resp.Status())
	}
	return nil
}

func (w *webdavClient) DownloadFile(ctx context.Context, remotePath, localPath string) error {
	resp, err := w.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(encodePath(remotePath))
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", remotePath, err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() >= http.StatusBadRequest {
		return fmt.Errorf("failed to download %s: server returned %s", remotePath, resp.Status())
	}

	return common.AtomicWriteFile(localPath, body)
}

func (w *webdavClient) DeleteFile(ctx context.Context, remotePath string) error {
	resp, err := w.client.R().
		SetContext(ctx).
		Delete(encodePath(remotePath))
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", remotePath, err)
	}
	if resp.StatusCode() >= http.StatusBadRequest && resp.StatusCode() != http.StatusNotFound {
		return fmt.Errorf("failed to delete %s: server returned %s", remotePath, resp.Status())
	}
	return nil
}

func (w *webdavClient) CreateDirectory(ctx context.Context, remotePath string) error {
	// MKCOL refuses a nested collection whose parent does not exist yet, so
	// the chain is created one prefix at a time.
	dir := ""
	for _, segment := range common.SplitRemotePath(remotePath) {
		dir += "/" + segment
		resp, err := w.client.R().
			SetContext(ctx).
			Execute("MKCOL", encodePath(dir))
		if err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		// 405 means the collection already exists; create is idempotent.
		if resp.StatusCode() >= http.StatusBadRequest && resp.StatusCode() != http.StatusMethodNotAllowed {
			return fmt.Errorf("failed to create directory %s: server returned %s", dir, resp.Status())
		}
	}
	return nil
}

func (w *webdavClient) ListFiles(ctx context.Context, remotePath string) ([]models.RemoteFileInfo, error) {
	remotePath = common.NormalizeRemotePath(remotePath)

	resp, err := w.propfind(ctx, remotePath, "1")
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", remotePath, err)
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return nil, fmt.Errorf("failed to list %s: server returned %s", remotePath, resp.Status())
	}

	ms, err := parseMultistatus(resp.Body())
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing of %s: %w", remotePath, err)
	}

	basePath := w.serverPath(remotePath)
	out := make([]models.RemoteFileInfo, 0, len(ms.Responses))
	for i := range ms.Responses {
		info, err := w.toFileInfo(&ms.Responses[i])
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"href": ms.Responses[i].Href,
			}).WithError(err).Warnln("Skipping unparseable webdav listing entry")
			continue
		}
		// Depth 1 includes the requested collection itself.
		if strings.TrimRight(info.Path, "/") == strings.TrimRight(basePath, "/") {
			continue
		}
		out = append(out, *info)
	}
	return out, nil
}

func (w *webdavClient) GetFileInfo(ctx context.Context, remotePath string) (*models.RemoteFileInfo, error) {
	remotePath = common.NormalizeRemotePath(remotePath)

	resp, err := w.propfind(ctx, remotePath, "0")
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", remotePath, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return nil, fmt.Errorf("failed to stat %s: server returned %s", remotePath, resp.Status())
	}

	ms, err := parseMultistatus(resp.Body())
	if err != nil {
		return nil, fmt.Errorf("failed to parse metadata of %s: %w", remotePath, err)
	}
	if len(ms.Responses) == 0 {
		return nil, nil
	}
	return w.toFileInfo(&ms.Responses[0])
}

const propfindBody = `<?xml version="1.0" encoding="utf-8"?>
<d:propfind xmlns:d="DAV:">
  <d:prop>
    <d:displayname/>
    <d:getcontentlength/>
    <d:getlastmodified/>
    <d:getcontentmd5/>
    <d:resourcetype/>
  </d:prop>
</d:propfind>`

func (w *webdavClient) propfind(ctx context.Context, remotePath, depth string) (*resty.Response, error) {
	return w.client.R().
		SetContext(ctx).
		SetHeader("Depth", depth).
		SetHeader("Content-Type", "application/xml").
		SetBody(propfindBody).
		Execute("PROPFIND", encodePath(remotePath))
}

// serverPath resolves a root-relative remote path against the configured
// endpoint's own path prefix, which is how PROPFIND hrefs come back.
func (w *webdavClient) serverPath(remotePath string) string {
	parsed, err := url.Parse(w.baseURL)
	if err != nil {
		return remotePath
	}
	return common.JoinRemotePath(parsed.Path, strings.TrimPrefix(remotePath, "/"))
}

func (w *webdavClient) toFileInfo(resp *davResponse) (*models.RemoteFileInfo, error) {
	href, err := url.PathUnescape(resp.Href)
	if err != nil {
		href = resp.Href
	}

	prop := resp.foundProp()
	if prop == nil {
		return nil, fmt.Errorf("no successful propstat for %s", href)
	}

	info := &models.RemoteFileInfo{
		ID:          href,
		Name:        pathBase(href),
		Path:        href,
		IsDirectory: prop.ResourceType.Collection != nil,
		ContentHash: strings.ToLower(prop.ContentMD5),
	}
	if info.ContentHash != "" {
		info.HashKind = models.HashMD5
	}
	if prop.ContentLength != "" {
		size, err := strconv.ParseInt(prop.ContentLength, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad getcontentlength %q: %w", prop.ContentLength, err)
		}
		info.Size = size
	}
	if prop.LastModified != "" {
		if t, err := http.ParseTime(prop.LastModified); err == nil {
			info.ModifiedTime = t.UnixMilli()
		}
	}
	return info, nil
}

func encodePath(remotePath string) string {
	segments := common.SplitRemotePath(remotePath)
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return "/" + strings.Join(segments, "/")
}

func pathBase(p string) string {
	trimmed := strings.TrimRight(p, "/")
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		return trimmed[idx+1:]
	}
	return trimmed
}

// Minimal DAV multistatus model; only the properties the syncer uses.
type davMultistatus struct {
	XMLName   xml.Name      `xml:"multistatus"`
	Responses []davResponse `xml:"response"`
}

type davResponse struct {
	Href      string        `xml:"href"`
	Propstats []davPropstat `xml:"propstat"`
}

type davPropstat struct {
	Status string  `xml:"status"`
	Prop   davProp `xml:"prop"`
}

type davProp struct {
	DisplayName   string          `xml:"displayname"`
	ContentLength string          `xml:"getcontentlength"`
	LastModified  string          `xml:"getlastmodified"`
	ContentMD5    string          `xml:"getcontentmd5"`
	ResourceType  davResourceType `xml:"resourcetype"`
}

type davResourceType struct {
	Collection *struct{} `xml:"collection"`
}

// foundProp returns the prop block of the 200-status propstat, if any.
func (r *davResponse) foundProp() *davProp {
	for i := range r.Propstats {
		if strings.Contains(r.Propstats[i].Status, "200") {
			return &r.Propstats[i].Prop
		}
	}
	if len(r.Propstats) > 0 {
		return &r.Propstats[0].Prop
	}
	return nil
}

func parseMultistatus(body []byte) (*davMultistatus, error) {
	var ms davMultistatus
	if err := xml.Unmarshal(body, &ms); err != nil {
		return nil, err
	}
	return &ms, nil
}

func init() {
	providers.Register(models.ProviderInfo{
		ID:          WebdavProviderName,
		Name:        "WebDAV",
		Description: "Generic WebDAV server (Nextcloud, ownCloud and compatible)",
	}, &webdavClient{})
}
