package gin

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/driveauth/driveauth/auth"
	"github.com/driveauth/driveauth/errors"
)

type AuthHandler struct {
	Service *auth.Service
}

func (h *AuthHandler) RegisterRoutes(router *gin.Engine) {
	router.POST("/auth/authenticate", JSONFormatter(h.Authenticate))
	router.GET("/auth/verify", h.Verify)
}

// Authenticate starts an email challenge and holds the request open
// until the link is clicked or the challenge expires, then returns the
// fresh identity token.
func (h *AuthHandler) Authenticate(c *gin.Context) (interface{}, error) {
	defer c.Request.Body.Close()

	var body struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(c.Request.Body).Decode(&body); err != nil {
		return nil, errors.New("invalid body", errors.BadRequest(), errors.WithCause(err))
	}
	if body.Email == "" {
		return nil, errors.New("an email address is required", errors.BadRequest())
	}

	token, err := h.Service.Authenticate(c.Request.Context(), body.Email)
	if err != nil {
		return nil, err
	}

	return map[string]string{"token": token}, nil
}

// Verify is the link target from the verification email, so it renders
// plain text for a human, not JSON.
func (h *AuthHandler) Verify(c *gin.Context) {
	key := c.Query("key")
	if key == "" || !h.Service.Verify(key) {
		c.String(http.StatusBadRequest, "Invalid or expired verification key.")
		return
	}
	c.String(http.StatusOK, "Verification complete. You can close this tab.")
}
