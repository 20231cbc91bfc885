package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/hallel20/real-estate/internal/api/handlers"
	"github.com/hallel20/real-estate/internal/api/middleware"
	"github.com/hallel20/real-estate/internal/models"
)

type uploadTestDeps struct {
	storageSvc  *MockS3Storage
	propertySvc *MockPropertyService
	taskClient  *MockAsynqClient
}

func setupUploadRouter(authUser primitive.ObjectID, role string) (*gin.Engine, *uploadTestDeps) {
	gin.SetMode(gin.TestMode)
	deps := &uploadTestDeps{
		storageSvc:  new(MockS3Storage),
		propertySvc: new(MockPropertyService),
		taskClient:  new(MockAsynqClient),
	}
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextKeyUserID, authUser.Hex())
		c.Set(middleware.ContextKeyRole, role)
		c.Next()
	})
	h := handlers.NewUploadHandler(deps.storageSvc, deps.propertySvc, deps.taskClient)
	r.POST("/api/upload/presign", h.Presign)
	r.POST("/api/upload/complete", h.Complete)
	return r, deps
}

func presignPayload(propertyID primitive.ObjectID, contentType string) []byte {
	b, _ := json.Marshal(map[string]string{
		"property_id":  propertyID.Hex(),
		"filename":     "facade.jpg",
		"content_type": contentType,
	})
	return b
}

func TestUploadHandler_Presign_OwnerAllowed(t *testing.T) {
	ownerID := primitive.NewObjectID()
	propertyID := primitive.NewObjectID()
	router, deps := setupUploadRouter(ownerID, models.RoleUser)

	property := &models.Property{ID: propertyID, UserID: ownerID}
	deps.propertySvc.On("FindPropertyByID", mock.Anything, propertyID).Return(property, nil)
	deps.storageSvc.On("GeneratePresignedPutURL", mock.Anything, ownerID.Hex(), propertyID.Hex(), "facade.jpg", "image/jpeg").
		Return("https://s3.example/put", "properties/key", nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/upload/presign", bytes.NewReader(presignPayload(propertyID, "image/jpeg")))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "https://s3.example/put", body["upload_url"])
	assert.Equal(t, "properties/key", body["key"])
	deps.storageSvc.AssertExpectations(t)
}

func TestUploadHandler_Presign_NotOwnerForbidden(t *testing.T) {
	userID := primitive.NewObjectID()
	propertyID := primitive.NewObjectID()
	router, deps := setupUploadRouter(userID, models.RoleUser)

	property := &models.Property{ID: propertyID, UserID: primitive.NewObjectID()} // someone else's
	deps.propertySvc.On("FindPropertyByID", mock.Anything, propertyID).Return(property, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/upload/presign", bytes.NewReader(presignPayload(propertyID, "image/jpeg")))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	deps.storageSvc.AssertNotCalled(t, "GeneratePresignedPutURL")
}

func TestUploadHandler_Presign_AdminAllowed(t *testing.T) {
	adminID := primitive.NewObjectID()
	propertyID := primitive.NewObjectID()
	router, deps := setupUploadRouter(adminID, models.RoleAdmin)

	property := &models.Property{ID: propertyID, UserID: primitive.NewObjectID()}
	deps.propertySvc.On("FindPropertyByID", mock.Anything, propertyID).Return(property, nil)
	deps.storageSvc.On("GeneratePresignedPutURL", mock.Anything, adminID.Hex(), propertyID.Hex(), "facade.jpg", "image/jpeg").
		Return("https://s3.example/put", "properties/key", nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/upload/presign", bytes.NewReader(presignPayload(propertyID, "image/jpeg")))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	deps.storageSvc.AssertExpectations(t)
}

func TestUploadHandler_Presign_UnsupportedContentType(t *testing.T) {
	ownerID := primitive.NewObjectID()
	propertyID := primitive.NewObjectID()
	router, deps := setupUploadRouter(ownerID, models.RoleUser)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/upload/presign", bytes.NewReader(presignPayload(propertyID, "application/pdf")))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	deps.storageSvc.AssertNotCalled(t, "GeneratePresignedPutURL")
}

func TestUploadHandler_Complete_SchedulesProcessing(t *testing.T) {
	ownerID := primitive.NewObjectID()
	propertyID := primitive.NewObjectID()
	router, deps := setupUploadRouter(ownerID, models.RoleUser)

	property := &models.Property{ID: propertyID, UserID: ownerID}
	deps.propertySvc.On("FindPropertyByID", mock.Anything, propertyID).Return(property, nil)
	deps.taskClient.On("EnqueueContext", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)

	payload, _ := json.Marshal(map[string]string{"property_id": propertyID.Hex(), "key": "properties/key"})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/upload/complete", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	deps.taskClient.AssertExpectations(t)
}
