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
	"github.com/hallel20/real-estate/internal/api/middleware"
	"github.com/hallel20/real-estate/internal/models"
	"github.com/hallel20/real-estate/internal/services"
)

// setupChatRouter wires the chat handler behind a stub auth middleware that
// injects the given user as the authenticated caller.
func setupChatRouter(chatService services.IChatService, userID primitive.ObjectID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextKeyUserID, userID.Hex())
		c.Set(middleware.ContextKeyRole, models.RoleUser)
		c.Next()
	})
	h := handlers.NewChatHandler(chatService)
	r.GET("/api/chats", h.List)
	r.GET("/api/chats/:id/messages", h.ListMessages)
	r.POST("/api/chats/:id/messages", h.SendMessage)
	r.POST("/api/chats/:id/read", h.MarkRead)
	return r
}

func TestChatHandler_List(t *testing.T) {
	userID := primitive.NewObjectID()
	mockChatSvc := new(MockChatService)
	router := setupChatRouter(mockChatSvc, userID)

	chats := []models.Chat{
		{ID: primitive.NewObjectID(), SenderID: userID, UpdatedAt: time.Now()},
		{ID: primitive.NewObjectID(), ReceiverID: userID, UpdatedAt: time.Now().Add(-time.Hour)},
	}
	mockChatSvc.On("ListChats", mock.Anything, userID).Return(chats, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/chats", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string][]models.Chat
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body["chats"], 2)
	mockChatSvc.AssertExpectations(t)
}

func TestChatHandler_ListMessages_Forbidden(t *testing.T) {
	userID := primitive.NewObjectID()
	chatID := primitive.NewObjectID()
	mockChatSvc := new(MockChatService)
	router := setupChatRouter(mockChatSvc, userID)

	mockChatSvc.On("ListMessages", mock.Anything, chatID, userID).Return(nil, services.ErrForbidden)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/chats/"+chatID.Hex()+"/messages", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	mockChatSvc.AssertExpectations(t)
}

func TestChatHandler_ListMessages_ChatNotFound(t *testing.T) {
	userID := primitive.NewObjectID()
	chatID := primitive.NewObjectID()
	mockChatSvc := new(MockChatService)
	router := setupChatRouter(mockChatSvc, userID)

	mockChatSvc.On("ListMessages", mock.Anything, chatID, userID).Return(nil, mongo.ErrNoDocuments)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/chats/"+chatID.Hex()+"/messages", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	mockChatSvc.AssertExpectations(t)
}

func TestChatHandler_ListMessages_BadID(t *testing.T) {
	userID := primitive.NewObjectID()
	mockChatSvc := new(MockChatService)
	router := setupChatRouter(mockChatSvc, userID)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/chats/not-an-id/messages", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockChatSvc.AssertNotCalled(t, "ListMessages")
}

func TestChatHandler_SendMessage(t *testing.T) {
	userID := primitive.NewObjectID()
	chatID := primitive.NewObjectID()
	mockChatSvc := new(MockChatService)
	router := setupChatRouter(mockChatSvc, userID)

	message := &models.Message{
		ID:       primitive.NewObjectID(),
		ChatID:   chatID,
		SenderID: userID,
		Message:  "Is the house still available?",
	}
	mockChatSvc.On("AppendMessage", mock.Anything, chatID, userID, "Is the house still available?").Return(message, nil)

	payload, _ := json.Marshal(map[string]string{"message": "Is the house still available?"})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/chats/"+chatID.Hex()+"/messages", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	var got models.Message
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, message.ID, got.ID)
	mockChatSvc.AssertExpectations(t)
}

func TestChatHandler_SendMessage_EmptyBody(t *testing.T) {
	userID := primitive.NewObjectID()
	chatID := primitive.NewObjectID()
	mockChatSvc := new(MockChatService)
	router := setupChatRouter(mockChatSvc, userID)

	payload, _ := json.Marshal(map[string]string{})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/chats/"+chatID.Hex()+"/messages", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockChatSvc.AssertNotCalled(t, "AppendMessage")
}

func TestChatHandler_SendMessage_Forbidden(t *testing.T) {
	userID := primitive.NewObjectID()
	chatID := primitive.NewObjectID()
	mockChatSvc := new(MockChatService)
	router := setupChatRouter(mockChatSvc, userID)

	mockChatSvc.On("AppendMessage", mock.Anything, chatID, userID, "hello").Return(nil, services.ErrForbidden)

	payload, _ := json.Marshal(map[string]string{"message": "hello"})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/chats/"+chatID.Hex()+"/messages", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	mockChatSvc.AssertExpectations(t)
}

func TestChatHandler_MarkRead(t *testing.T) {
	userID := primitive.NewObjectID()
	chatID := primitive.NewObjectID()
	mockChatSvc := new(MockChatService)
	router := setupChatRouter(mockChatSvc, userID)

	chat := &models.Chat{ID: chatID, ReceiverID: userID, IsRead: true}
	mockChatSvc.On("MarkRead", mock.Anything, chatID, userID).Return(chat, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/chats/"+chatID.Hex()+"/read", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Message string      `json:"message"`
		Chat    models.Chat `json:"chat"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Chat marked as read", body.Message)
	assert.True(t, body.Chat.IsRead)
	mockChatSvc.AssertExpectations(t)
}

func TestChatHandler_MarkRead_NotFound(t *testing.T) {
	userID := primitive.NewObjectID()
	chatID := primitive.NewObjectID()
	mockChatSvc := new(MockChatService)
	router := setupChatRouter(mockChatSvc, userID)

	mockChatSvc.On("MarkRead", mock.Anything, chatID, userID).Return(nil, mongo.ErrNoDocuments)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/chats/"+chatID.Hex()+"/read", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	mockChatSvc.AssertExpectations(t)
}
