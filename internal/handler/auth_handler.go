package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/openedx-sample-plugin/pkg/errors"
	"github.com/noah-isme/openedx-sample-plugin/pkg/response"
)

type tokenIssuer interface {
	IssueToken(userID int64, username string, isStaff bool) (string, time.Time, error)
}

// DevTokenRequest names the user a development token is issued for.
type DevTokenRequest struct {
	UserID   int64  `json:"user_id" binding:"required,gt=0"`
	Username string `json:"username" binding:"required"`
	IsStaff  bool   `json:"is_staff"`
}

// DevTokenResponse carries a signed access token.
type DevTokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// AuthHandler issues access tokens for local development. Hosts only
// mount it outside production.
type AuthHandler struct {
	issuer tokenIssuer
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(issuer tokenIssuer) *AuthHandler {
	return &AuthHandler{issuer: issuer}
}

// DevToken godoc
// @Summary Issue a development access token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body DevTokenRequest true "User"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /oauth2/dev-token [post]
func (h *AuthHandler) DevToken(c *gin.Context) {
	var req DevTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid token request"))
		return
	}
	token, expiresAt, err := h.issuer.IssueToken(req.UserID, req.Username, req.IsStaff)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, DevTokenResponse{AccessToken: token, TokenType: "JWT", ExpiresAt: expiresAt})
}
