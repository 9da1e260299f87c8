// Package daemon provides the local HTTP server the Notewind desktop app
// talks to for sync, auth and progress reporting.
package daemon

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/notewind/syncagent/internal/common"
	"github.com/notewind/syncagent/internal/config"
	syncpkg "github.com/notewind/syncagent/internal/sync"
)

// Server represents the web service that handles requests from the desktop app
type Server struct {
	Config        *config.Config
	Manager       *syncpkg.Manager
	StartTime     time.Time
	TotalRequests int64
	server        *http.Server
}

func NewServer(cfg *config.Config, manager *syncpkg.Manager) *Server {
	return &Server{
		Config:    cfg,
		Manager:   manager,
		StartTime: time.Now().UTC(),
	}
}

func (s *Server) GetConfig() *config.Config {
	return s.Config
}

func (s *Server) GetVersion() string {
	version, gitCommit, ok := common.GetModuleBuildInfo()
	if ok {
		return fmt.Sprintf("%s (git: %s)", version, gitCommit)
	}
	return "unknown"
}

func (s *Server) Start() error {

	router := gin.New()

	// Add middleware
	router.Use(gin.Logger())
	router.Use(gin.CustomRecovery(
		func(c *gin.Context, err any) {
			foundError, ok := err.(error)
			if ok {
				logrus.WithError(foundError).Error("Recovered from panic")
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		},
	))
	router.Use(s.requestCounterMiddleware())

	// Only the app running on the same machine talks to this server
	allowedOrigins := []string{
		fmt.Sprintf("http://%s", s.Config.GetServerAddress()),
		"app://notewind",
	}

	logrus.WithFields(logrus.Fields{
		"allowedOrigins": allowedOrigins,
	}).Debugln("CORS configuration")

	router.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowHeaders: []string{
			"Origin",
			"Content-Length",
			"Content-Type",
			"Accept",
			"X-Requested-With",
		},
		AllowCredentials: false,
	}))

	s.setupRoutes(router)

	addr := s.Config.GetServerAddress()
	fmt.Printf("Starting web service on %s\n", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Store server reference for shutdown
	s.server = server

	// Channel to capture startup errors
	errChan := make(chan error, 1)

	go func() {
		if err := server.ListenAndServe(); err != nil {
			errChan <- err
		}
	}()

	// Wait a moment to see if the server fails to start
	select {
	case err := <-errChan:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("failed to start server: %v", err)
		}
		return nil
	case <-time.After(100 * time.Millisecond):
		fmt.Printf("Web service started successfully on %s\n", addr)
		return nil
	}
}

func (s *Server) Stop() {
	if s.server == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		log.Println("Server Shutdown:", err)
	}
	log.Println("Server exiting")
}

// setupRoutes configures all the HTTP routes
func (s *Server) setupRoutes(router *gin.Engine) {

	router.GET("/healthz", s.healthHandler)

	api := router.Group("/api/v1")
	{
		api.GET("/providers", s.getProviders)
		api.GET("/targets", s.getTargets)

		api.POST("/targets/:target/sync", s.postTargetSync)
		api.POST("/targets/:target/test", s.postTargetTest)
		api.POST("/targets/:target/auth", s.postTargetAuth)

		api.POST("/sync/cancel", s.postSyncCancel)

		api.GET("/progress", s.getProgress)
		api.GET("/logs", s.getLogs)
	}
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": s.GetVersion(),
		"uptime":  time.Since(s.StartTime).String(),
	})
}

// requestCounterMiddleware increments the request counter
func (s *Server) requestCounterMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		atomic.AddInt64(&s.TotalRequests, 1)
		c.Next()
	}
}
