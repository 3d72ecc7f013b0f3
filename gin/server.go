// Package gin is the HTTP surface of the authorization core.
package gin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/driveauth/driveauth/auth"
	"github.com/driveauth/driveauth/events"
	"github.com/driveauth/driveauth/log"
)

// Server wraps the gin engine and satisfies auth.HTTPServer so the
// go-kit handlers can be mounted next to the native ones.
type Server struct {
	router *gin.Engine
}

func (s *Server) RegisterHandler(path, method string, f http.Handler) {
	s.router.Handle(method, path, gin.WrapH(f))
}

func New(service *auth.Service, router *events.Router, logger log.Logger) http.Handler {
	engine := gin.Default()

	// CORS
	engine.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, PUT, POST, DELETE")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "*")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusOK)
		}
		c.Next()
	})

	// Unknown route
	engine.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{"message": "Page not found"})
	})

	// Ping
	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, map[string]string{"data": "ok"})
	})

	// Authentication and verification links
	authHandler := AuthHandler{Service: service}
	authHandler.RegisterRoutes(engine)

	// Event stream
	eventHandler := EventHandler{Service: service, Router: router, Logger: logger}
	eventHandler.RegisterRoutes(engine)

	// Delegation, grants and checks
	srv := &Server{router: engine}
	auth.RegisterHTTPRoutes(srv, service)

	return engine
}
