package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/openedx-sample-plugin/internal/service"
)

func TestDevTokenRoundTrip(t *testing.T) {
	auth := service.NewAuthService(zap.NewNop(), service.AuthConfig{Secret: "secret", Issuer: "dev", Expiry: time.Minute})
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/oauth2/dev-token", NewAuthHandler(auth).DevToken)

	req := httptest.NewRequest(http.MethodPost, "/oauth2/dev-token", strings.NewReader(`{"user_id":3,"username":"staff","is_staff":true}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data DevTokenResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	claims, err := auth.ValidateToken(body.Data.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(3), claims.UserID)
	assert.True(t, claims.IsStaff)
}

func TestDevTokenRequiresUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/oauth2/dev-token", NewAuthHandler(nil).DevToken)

	req := httptest.NewRequest(http.MethodPost, "/oauth2/dev-token", strings.NewReader(`{"username":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
