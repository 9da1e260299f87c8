package daemon

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/notewind/syncagent/internal/models"
)

// postTargetSync runs one sync pass for the named target. The pass runs
// inside the request; the desktop app follows along on /progress.
func (s *Server) postTargetSync(c *gin.Context) {

	target, ok := s.lookupTarget(c)
	if !ok {
		return
	}

	direction := target.SyncDirection
	if q := c.Query("direction"); len(q) > 0 {
		direction = models.SyncDirection(q)
	}

	var outcome models.SyncOutcome
	switch direction {
	case models.SyncDirectionLocalToRemote:
		outcome = s.Manager.SyncLocalToRemote(c.Request.Context(), target)
	case models.SyncDirectionRemoteToLocal:
		outcome = s.Manager.SyncRemoteToLocal(c.Request.Context(), target)
	case models.SyncDirectionBidirectional, "":
		outcome = s.Manager.SyncBidirectional(c.Request.Context(), target)
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "unknown sync direction: " + string(direction),
		})
		return
	}

	status := http.StatusOK
	if !outcome.Success {
		status = http.StatusBadGateway
	}
	c.JSON(status, outcome)
}

func (s *Server) postTargetTest(c *gin.Context) {
	target, ok := s.lookupTarget(c)
	if !ok {
		return
	}

	result := s.Manager.TestConnection(c.Request.Context(), target)

	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadGateway
	}
	c.JSON(status, result)
}

func (s *Server) postTargetAuth(c *gin.Context) {
	target, ok := s.lookupTarget(c)
	if !ok {
		return
	}

	result := s.Manager.Authenticate(c.Request.Context(), target)

	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadGateway
	}
	c.JSON(status, result)
}

func (s *Server) postSyncCancel(c *gin.Context) {
	result := s.Manager.CancelSync()

	status := http.StatusOK
	if !result.Success {
		status = http.StatusConflict
	}
	c.JSON(status, result)
}

func (s *Server) lookupTarget(c *gin.Context) (*models.SyncConfig, bool) {
	name := c.Param("target")

	target, err := s.Config.GetTarget(name)
	if err != nil {
		logrus.WithField("target", name).Warnln("Request for unknown sync target")
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return nil, false
	}
	return target, true
}
