package daemon

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// getLogs returns recent log events from the in-memory ring buffer.
func (s *Server) getLogs(c *gin.Context) {

	count := 100
	if q := c.Query("count"); len(q) > 0 {
		parsed, err := strconv.Atoi(q)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "count must be a positive integer"})
			return
		}
		count = parsed
	}

	events := s.Config.GetLogger().GetRecentEvents(count)
	c.JSON(http.StatusOK, gin.H{
		"count": len(events),
		"logs":  events,
	})
}
