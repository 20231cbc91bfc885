package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/hallel20/real-estate/internal/email"
	"github.com/hallel20/real-estate/internal/services"
)

// InquiryHandler handles inquiry submission and listing.
type InquiryHandler struct {
	inquiryService  services.IInquiryService
	propertyService services.IPropertyService
	userService     services.IUserService
	taskClient      IAsynqClient
}

// NewInquiryHandler creates a new InquiryHandler.
func NewInquiryHandler(inquiryService services.IInquiryService, propertyService services.IPropertyService, userService services.IUserService, taskClient IAsynqClient) *InquiryHandler {
	return &InquiryHandler{
		inquiryService:  inquiryService,
		propertyService: propertyService,
		userService:     userService,
		taskClient:      taskClient,
	}
}

type submitInquiryRequest struct {
	Name       string `json:"name" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Message    string `json:"message" binding:"required"`
	PropertyID string `json:"property_id" binding:"required"`
}

// Submit handles POST /api/inquiries. Open to guests: attribution is by
// email match against registered accounts, not by session.
func (h *InquiryHandler) Submit(c *gin.Context) {
	var req submitInquiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	propertyID, err := primitive.ObjectIDFromHex(req.PropertyID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid property ID format"})
		return
	}

	inquiry, err := h.inquiryService.Submit(c.Request.Context(), req.Name, req.Email, req.Message, propertyID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit inquiry"})
		}
		return
	}

	// Notify the property owner. Best-effort: a failed notification never
	// fails the submission.
	h.notifyOwner(c, inquiry.Property.UserID, inquiry.Property.Title, req.Name, req.Email, req.Message, inquiry.ID.Hex())

	c.JSON(http.StatusCreated, gin.H{"message": "Inquiry submitted successfully", "inquiry": inquiry})
}

func (h *InquiryHandler) notifyOwner(c *gin.Context, ownerID primitive.ObjectID, propertyTitle, name, fromEmail, message, inquiryID string) {
	owner, err := h.userService.FindByID(c.Request.Context(), ownerID)
	if err != nil {
		log.Printf("Failed to resolve property owner %s for inquiry notification: %v", ownerID.Hex(), err)
		return
	}
	enqueueEmail(c.Request.Context(), h.taskClient, owner.Email, email.TemplateInquiryNotify, map[string]string{
		"property_title": propertyTitle,
		"inquirer_name":  name,
		"inquirer_email": fromEmail,
		"message":        message,
		"inquiry_id":     inquiryID,
	})
}

// ListByUser handles GET /api/inquiries/user/:id. Self-or-admin.
func (h *InquiryHandler) ListByUser(c *gin.Context) {
	callerID, ok := currentUserID(c)
	if !ok {
		return
	}
	userID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	if userID != callerID && !isAdminRequest(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not allowed to view these inquiries"})
		return
	}

	inquiries, err := h.inquiryService.ListByUser(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list inquiries"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"inquiries": inquiries})
}

// ListAll handles GET /api/inquiries (admin only, enforced by middleware)
func (h *InquiryHandler) ListAll(c *gin.Context) {
	inquiries, err := h.inquiryService.ListAll(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list inquiries"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"inquiries": inquiries})
}

// ListByProperty handles GET /api/inquiries/property/:id. Only the property
// owner or an admin may see a property's inquiries.
func (h *InquiryHandler) ListByProperty(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	propertyID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	property, err := h.propertyService.FindPropertyByID(c.Request.Context(), propertyID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list inquiries"})
		}
		return
	}
	if property.UserID != userID && !isAdminRequest(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not own this property"})
		return
	}

	inquiries, err := h.inquiryService.ListByProperty(c.Request.Context(), propertyID)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list inquiries"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"inquiries": inquiries})
}

type updateInquiryStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus handles PUT /api/inquiries/:id/status. Restricted to the
// owner of the inquired property or an admin.
func (h *InquiryHandler) UpdateStatus(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	inquiryID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	var req updateInquiryStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	inquiry, err := h.inquiryService.FindInquiryByID(c.Request.Context(), inquiryID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Inquiry not found"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update inquiry"})
		}
		return
	}

	if !isAdminRequest(c) {
		property, err := h.propertyService.FindPropertyByID(c.Request.Context(), inquiry.PropertyID)
		if err != nil || property.UserID != userID {
			c.JSON(http.StatusForbidden, gin.H{"error": "Not allowed to update this inquiry"})
			return
		}
	}

	updated, err := h.inquiryService.UpdateStatus(c.Request.Context(), inquiryID, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidStatus):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid inquiry status"})
		case errors.Is(err, mongo.ErrNoDocuments):
			c.JSON(http.StatusNotFound, gin.H{"error": "Inquiry not found"})
		default:
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update inquiry"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Inquiry status updated", "inquiry": updated})
}
