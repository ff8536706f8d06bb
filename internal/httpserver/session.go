package httpserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	sessionsvc "storefront/internal/service/session"
)

type sessionResponse struct {
	Token      string `json:"token"`
	IdentityID string `json:"identityId"`
	Role       string `json:"role"`
}

func anonymousSessionHandler(sessions *sessionsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, identity, err := sessions.IssueAnonymous(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, sessionResponse{Token: token, IdentityID: identity.ID, Role: identity.Role})
	}
}

type loginRequest struct {
	UserID string `json:"userId"`
}

// loginSessionHandler trades an authenticated user id for a session token.
// Credential verification happens upstream; this only fixes the role claim.
func loginSessionHandler(sessions *sessionsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.UserID) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "userId required"})
			return
		}
		token, identity, err := sessions.IssueForUser(c.Request.Context(), req.UserID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, sessionResponse{Token: token, IdentityID: identity.ID, Role: identity.Role})
	}
}
