package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/hallel20/real-estate/internal/services"
)

// FavoriteHandler handles the authenticated user's favourites list.
type FavoriteHandler struct {
	favoriteService services.IFavoriteService
	propertyService services.IPropertyService
}

// NewFavoriteHandler creates a new FavoriteHandler.
func NewFavoriteHandler(favoriteService services.IFavoriteService, propertyService services.IPropertyService) *FavoriteHandler {
	return &FavoriteHandler{
		favoriteService: favoriteService,
		propertyService: propertyService,
	}
}

// List handles GET /api/favourites
func (h *FavoriteHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	favorites, err := h.favoriteService.ListFavorites(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list favourites"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"favourites": favorites})
}

type addFavoriteRequest struct {
	PropertyID string `json:"property_id" binding:"required"`
}

// Add handles POST /api/favourites
func (h *FavoriteHandler) Add(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req addFavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	propertyID, err := primitive.ObjectIDFromHex(req.PropertyID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid property ID format"})
		return
	}

	// The property must exist before it can be favourited.
	if _, err := h.propertyService.FindPropertyByID(c.Request.Context(), propertyID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add favourite"})
		}
		return
	}

	favorite, err := h.favoriteService.AddFavorite(c.Request.Context(), userID, propertyID)
	if err != nil {
		if errors.Is(err, services.ErrAlreadyFavorite) {
			c.JSON(http.StatusConflict, gin.H{"error": "Property already in favourites"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add favourite"})
		}
		return
	}

	c.JSON(http.StatusCreated, favorite)
}

// Remove handles DELETE /api/favourites/:property_id
func (h *FavoriteHandler) Remove(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	propertyID, ok := pathObjectID(c, "property_id")
	if !ok {
		return
	}

	err := h.favoriteService.RemoveFavorite(c.Request.Context(), userID, propertyID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Favourite not found"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove favourite"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Favourite removed"})
}
