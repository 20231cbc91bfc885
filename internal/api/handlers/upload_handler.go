package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/hallel20/real-estate/internal/services"
	"github.com/hallel20/real-estate/internal/storage"
	"github.com/hallel20/real-estate/internal/tasks"
)

// allowed content types for property images
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// UploadHandler issues pre-signed S3 URLs for property image uploads and
// schedules post-upload processing.
type UploadHandler struct {
	storageService  storage.IS3Storage
	propertyService services.IPropertyService
	taskClient      IAsynqClient
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(storageService storage.IS3Storage, propertyService services.IPropertyService, taskClient IAsynqClient) *UploadHandler {
	return &UploadHandler{
		storageService:  storageService,
		propertyService: propertyService,
		taskClient:      taskClient,
	}
}

type presignRequest struct {
	PropertyID  string `json:"property_id" binding:"required"`
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
}

// Presign handles POST /api/upload/presign. Only the property owner or an
// admin may attach images.
func (h *UploadHandler) Presign(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req presignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !allowedImageTypes[req.ContentType] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported image content type"})
		return
	}
	propertyID, err := primitive.ObjectIDFromHex(req.PropertyID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid property ID format"})
		return
	}

	property, err := h.propertyService.FindPropertyByID(c.Request.Context(), propertyID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to prepare upload"})
		}
		return
	}
	if property.UserID != userID && !isAdminRequest(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not own this property"})
		return
	}

	url, key, err := h.storageService.GeneratePresignedPutURL(c.Request.Context(), userID.Hex(), propertyID.Hex(), req.Filename, req.ContentType)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate upload URL"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"upload_url": url, "key": key})
}

type completeUploadRequest struct {
	PropertyID string `json:"property_id" binding:"required"`
	Key        string `json:"key" binding:"required"`
}

// Complete handles POST /api/upload/complete. Called by the client after the
// PUT to S3 succeeds; schedules image normalization on the images queue.
func (h *UploadHandler) Complete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req completeUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	propertyID, err := primitive.ObjectIDFromHex(req.PropertyID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid property ID format"})
		return
	}

	property, err := h.propertyService.FindPropertyByID(c.Request.Context(), propertyID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to complete upload"})
		}
		return
	}
	if property.UserID != userID && !isAdminRequest(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not own this property"})
		return
	}

	payloadBytes, err := json.Marshal(tasks.ImageTaskPayload{S3Key: req.Key, PropertyID: propertyID.Hex()})
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to schedule image processing"})
		return
	}
	task := asynq.NewTask(tasks.TypeImageProcess, payloadBytes, asynq.Queue("images"))
	if _, err := h.taskClient.EnqueueContext(c.Request.Context(), task); err != nil {
		log.Printf("Failed to enqueue image processing for key %s: %v", req.Key, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to schedule image processing"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "Image processing scheduled", "key": req.Key})
}
