package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/hallel20/real-estate/internal/api/handlers"
	"github.com/hallel20/real-estate/internal/config"
	"github.com/hallel20/real-estate/internal/models"
	"github.com/hallel20/real-estate/internal/services"
)

func authTestConfig() *config.Config {
	return &config.Config{
		JwtSecret:     "test-secret",
		JwtTTL:        time.Hour,
		JwtCookieName: "access_token",
		AppName:       "Test Estates",
		FrontendURL:   "http://localhost:3000",
	}
}

func setupAuthRouter(userSvc services.IUserService, taskClient handlers.IAsynqClient) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := handlers.NewAuthHandler(authTestConfig(), userSvc, taskClient)
	r.POST("/api/auth/register", h.Register)
	r.POST("/api/auth/login", h.Login)
	r.POST("/api/auth/logout", h.Logout)
	r.POST("/api/auth/reset-password-request", h.RequestPasswordReset)
	r.POST("/api/auth/reset-password", h.ResetPassword)
	return r
}

func TestAuthHandler_Register_Success(t *testing.T) {
	mockUserSvc := new(MockUserService)
	mockTaskClient := new(MockAsynqClient)
	router := setupAuthRouter(mockUserSvc, mockTaskClient)

	user := &models.User{ID: primitive.NewObjectID(), Username: "jane", Email: "jane@example.com", Role: models.RoleUser}
	mockUserSvc.On("Register", mock.Anything, "jane", "jane@example.com", "strongpassword", "", "", "").Return(user, nil)
	mockTaskClient.On("EnqueueContext", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)

	payload, _ := json.Marshal(map[string]string{
		"username": "jane",
		"email":    "jane@example.com",
		"password": "strongpassword",
	})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/auth/register", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	mockUserSvc.AssertExpectations(t)
	mockTaskClient.AssertExpectations(t)
}

func TestAuthHandler_Register_Conflict(t *testing.T) {
	mockUserSvc := new(MockUserService)
	mockTaskClient := new(MockAsynqClient)
	router := setupAuthRouter(mockUserSvc, mockTaskClient)

	mockUserSvc.On("Register", mock.Anything, "jane", "jane@example.com", "strongpassword", "", "", "").Return(nil, services.ErrAccountExists)

	payload, _ := json.Marshal(map[string]string{
		"username": "jane",
		"email":    "jane@example.com",
		"password": "strongpassword",
	})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/auth/register", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	mockTaskClient.AssertNotCalled(t, "EnqueueContext")
}

func TestAuthHandler_Register_ShortPassword(t *testing.T) {
	mockUserSvc := new(MockUserService)
	router := setupAuthRouter(mockUserSvc, new(MockAsynqClient))

	payload, _ := json.Marshal(map[string]string{
		"username": "jane",
		"email":    "jane@example.com",
		"password": "short",
	})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/auth/register", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockUserSvc.AssertNotCalled(t, "Register")
}

func TestAuthHandler_Login_SetsCookie(t *testing.T) {
	mockUserSvc := new(MockUserService)
	router := setupAuthRouter(mockUserSvc, new(MockAsynqClient))

	user := &models.User{ID: primitive.NewObjectID(), Username: "jane", Role: models.RoleUser}
	mockUserSvc.On("Authenticate", mock.Anything, "jane", "strongpassword").Return(user, nil)

	payload, _ := json.Marshal(map[string]string{"username": "jane", "password": "strongpassword"})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/auth/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	cookieFound := false
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == "access_token" {
			cookieFound = true
			assert.NotEmpty(t, cookie.Value)
			assert.True(t, cookie.HttpOnly)
		}
	}
	assert.True(t, cookieFound, "login should set the session cookie")

	var body map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body["token"])
}

func TestAuthHandler_Login_BadCredentials(t *testing.T) {
	mockUserSvc := new(MockUserService)
	router := setupAuthRouter(mockUserSvc, new(MockAsynqClient))

	mockUserSvc.On("Authenticate", mock.Anything, "jane", "wrong").Return(nil, services.ErrInvalidCredentials)

	payload, _ := json.Marshal(map[string]string{"username": "jane", "password": "wrong"})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/auth/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// An unknown email answers the same as a known one so the endpoint cannot be
// used to probe which addresses have accounts.
func TestAuthHandler_RequestPasswordReset_UnknownEmail(t *testing.T) {
	mockUserSvc := new(MockUserService)
	mockTaskClient := new(MockAsynqClient)
	router := setupAuthRouter(mockUserSvc, mockTaskClient)

	mockUserSvc.On("RequestPasswordReset", mock.Anything, "ghost@example.com").Return(nil, "", mongo.ErrNoDocuments)

	payload, _ := json.Marshal(map[string]string{"email": "ghost@example.com"})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/auth/reset-password-request", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockTaskClient.AssertNotCalled(t, "EnqueueContext")
}

func TestAuthHandler_ResetPassword_ExpiredToken(t *testing.T) {
	mockUserSvc := new(MockUserService)
	router := setupAuthRouter(mockUserSvc, new(MockAsynqClient))

	mockUserSvc.On("ResetPassword", mock.Anything, "stale-token", "newpassword1").Return(services.ErrResetTokenExpired)

	payload, _ := json.Marshal(map[string]string{"token": "stale-token", "password": "newpassword1"})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/auth/reset-password", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
