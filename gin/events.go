package gin

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/driveauth/driveauth"
	"github.com/driveauth/driveauth/auth"
	"github.com/driveauth/driveauth/events"
	"github.com/driveauth/driveauth/log"
)

type EventHandler struct {
	Service *auth.Service
	Router  *events.Router
	Logger  log.Logger
}

func (h *EventHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/events/*path", h.Stream)
}

// Stream serves the change-notification stream for a path as
// server-sent events. The listener is registered when the connection
// opens and deregistered when it closes, normally or not: the deferred
// Cancel is tied to this handler returning, and the handler returns as
// soon as the request context is done.
func (h *EventHandler) Stream(c *gin.Context) {
	path := c.Param("path")
	if strings.Contains(path, "//") || strings.Contains(path, "..") {
		c.String(http.StatusBadRequest, "Invalid path. Cannot contain '//' or '..'")
		return
	}

	bearer := driveauth.RequestToken(c.Request)
	if !h.Service.CanRead(bearer, path) {
		c.JSON(http.StatusForbidden, gin.H{"message": "Unauthorized"})
		return
	}

	sub := h.Router.Subscribe(path, bearer)
	defer sub.Cancel()

	header := c.Writer.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	// disables nginx buffering so messages are sent right away
	header.Set("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	h.Logger.Printf("event stream open for %s", path)

	for {
		select {
		case event, ok := <-sub.Events():
			if !ok {
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				h.Logger.Error("could not marshal event:", err)
				continue
			}
			if _, err := c.Writer.WriteString("event: update\ndata: " + string(payload) + "\n\n"); err != nil {
				return
			}
			c.Writer.Flush()
		case <-c.Request.Context().Done():
			return
		}
	}
}
