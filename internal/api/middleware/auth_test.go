package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/hallel20/real-estate/internal/api/middleware"
	"github.com/hallel20/real-estate/internal/auth"
	"github.com/hallel20/real-estate/internal/config"
	"github.com/hallel20/real-estate/internal/models"
)

func authTestConfig() *config.Config {
	return &config.Config{
		JwtSecret:     "test-secret",
		JwtTTL:        time.Hour,
		JwtCookieName: "access_token",
	}
}

func setupAuthTestEngine(cfg *config.Config, includeAdmin bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	group := r.Group("/", middleware.AuthMiddleware(cfg))
	group.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id": c.GetString(middleware.ContextKeyUserID),
			"role":    c.GetString(middleware.ContextKeyRole),
		})
	})
	if includeAdmin {
		group.GET("/admin", middleware.AdminMiddleware(), func(c *gin.Context) {
			c.String(http.StatusOK, "OK")
		})
	}
	return r
}

func TestAuthMiddleware_Cookie(t *testing.T) {
	cfg := authTestConfig()
	router := setupAuthTestEngine(cfg, false)

	userID := primitive.NewObjectID()
	token, err := auth.GenerateJWT(userID, models.RoleUser, cfg.JwtSecret, cfg.JwtTTL)
	assert.NoError(t, err)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: cfg.JwtCookieName, Value: token})
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), userID.Hex())
}

func TestAuthMiddleware_BearerHeader(t *testing.T) {
	cfg := authTestConfig()
	router := setupAuthTestEngine(cfg, false)

	token, err := auth.GenerateJWT(primitive.NewObjectID(), models.RoleUser, cfg.JwtSecret, cfg.JwtTTL)
	assert.NoError(t, err)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddleware_NoToken(t *testing.T) {
	router := setupAuthTestEngine(authTestConfig(), false)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/whoami", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_BadToken(t *testing.T) {
	router := setupAuthTestEngine(authTestConfig(), false)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminMiddleware(t *testing.T) {
	cfg := authTestConfig()
	router := setupAuthTestEngine(cfg, true)

	userToken, _ := auth.GenerateJWT(primitive.NewObjectID(), models.RoleUser, cfg.JwtSecret, cfg.JwtTTL)
	adminToken, _ := auth.GenerateJWT(primitive.NewObjectID(), models.RoleAdmin, cfg.JwtSecret, cfg.JwtTTL)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w2 := httptest.NewRecorder()
	req2, _ := http.NewRequest("GET", "/admin", nil)
	req2.Header.Set("Authorization", "Bearer "+adminToken)
	router.ServeHTTP(w2, req2)
	assert.Equal(t, http.StatusOK, w2.Code)
}
