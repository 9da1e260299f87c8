package daemon

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) getProviders(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"providers": s.Manager.SupportedProviders(),
	})
}

// targetSummary is the target view exposed over the API. Auth material stays
// out of it.
type targetSummary struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"`
	Enabled       bool   `json:"enabled"`
	LocalPath     string `json:"localPath"`
	RemotePath    string `json:"remotePath"`
	SyncDirection string `json:"syncDirection"`
	SyncOnStartup bool   `json:"syncOnStartup"`
}

func (s *Server) getTargets(c *gin.Context) {
	targets := make([]targetSummary, 0, len(s.Config.Targets))
	for name, target := range s.Config.Targets {
		targets = append(targets, targetSummary{
			Name:          name,
			Provider:      target.Provider,
			Enabled:       target.Enabled,
			LocalPath:     target.LocalPath,
			RemotePath:    target.RemotePath,
			SyncDirection: string(target.SyncDirection),
			SyncOnStartup: target.SyncOnStartup,
		})
	}
	c.JSON(http.StatusOK, gin.H{"targets": targets})
}
