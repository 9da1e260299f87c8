package daemon

import (
	"io"

	"github.com/gin-gonic/gin"
)

// getProgress streams sync progress as server-sent events. The stream stays
// open until the client disconnects; events from all passes share it.
func (s *Server) getProgress(c *gin.Context) {

	events, unsubscribe := s.Manager.Reporter().Subscribe(64)
	defer unsubscribe()

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent("progress", event)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
