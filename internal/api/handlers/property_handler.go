package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/hallel20/real-estate/internal/config"
	"github.com/hallel20/real-estate/internal/models"
	"github.com/hallel20/real-estate/internal/services"
)

// PropertyHandler handles property listing CRUD and search.
type PropertyHandler struct {
	cfg             *config.Config
	propertyService services.IPropertyService
}

// NewPropertyHandler creates a new PropertyHandler.
func NewPropertyHandler(cfg *config.Config, propertyService services.IPropertyService) *PropertyHandler {
	return &PropertyHandler{cfg: cfg, propertyService: propertyService}
}

type createPropertyRequest struct {
	Title        string   `json:"title" binding:"required"`
	Description  string   `json:"description" binding:"required"`
	Location     string   `json:"location" binding:"required"`
	Price        float64  `json:"price" binding:"required,gt=0"`
	PropertyType string   `json:"property_type"`
	Status       string   `json:"status"`
	Bedrooms     int      `json:"bedrooms"`
	Bathrooms    int      `json:"bathrooms"`
	Area         float64  `json:"area"`
	YearBuilt    int      `json:"year_built"`
	Amenities    []string `json:"amenities"`
}

// Create handles POST /api/properties
func (h *PropertyHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req createPropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	prop := &models.Property{
		Title:        req.Title,
		Description:  req.Description,
		Location:     req.Location,
		Price:        req.Price,
		PropertyType: req.PropertyType,
		Status:       req.Status,
		Bedrooms:     req.Bedrooms,
		Bathrooms:    req.Bathrooms,
		Area:         req.Area,
		YearBuilt:    req.YearBuilt,
		Amenities:    req.Amenities,
	}

	created, err := h.propertyService.CreateProperty(c.Request.Context(), userID, prop)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create property"})
		return
	}

	c.JSON(http.StatusCreated, created)
}

// Get handles GET /api/properties/:id
func (h *PropertyHandler) Get(c *gin.Context) {
	propertyID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	prop, err := h.propertyService.FindPropertyByID(c.Request.Context(), propertyID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve property"})
		}
		return
	}

	c.JSON(http.StatusOK, prop)
}

// Search handles GET /api/properties
func (h *PropertyHandler) Search(c *gin.Context) {
	filter := &models.PropertyFilter{
		Location:     c.Query("location"),
		PropertyType: c.Query("property_type"),
		Status:       c.Query("status"),
		Sort:         c.Query("sort"),
		Page:         1,
		PageSize:     h.cfg.DefaultPageSize,
	}

	if v := c.Query("price_min"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid price_min"})
			return
		}
		filter.PriceMin = &f
	}
	if v := c.Query("price_max"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid price_max"})
			return
		}
		filter.PriceMax = &f
	}
	if v := c.Query("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page"})
			return
		}
		filter.Page = p
	}
	if v := c.Query("page_size"); v != "" {
		ps, err := strconv.Atoi(v)
		if err != nil || ps < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page_size"})
			return
		}
		if ps > h.cfg.MaxPageSize {
			ps = h.cfg.MaxPageSize
		}
		filter.PageSize = ps
	}

	page, err := h.propertyService.SearchProperties(c.Request.Context(), filter)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search properties"})
		return
	}

	c.JSON(http.StatusOK, page)
}

// ownsOrAdmin loads a property and checks the caller may modify it.
func (h *PropertyHandler) ownsOrAdmin(c *gin.Context, propertyID primitive.ObjectID) (*models.Property, bool) {
	userID, ok := currentUserID(c)
	if !ok {
		return nil, false
	}

	prop, err := h.propertyService.FindPropertyByID(c.Request.Context(), propertyID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve property"})
		}
		return nil, false
	}

	if prop.UserID != userID && !isAdminRequest(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not own this property"})
		return nil, false
	}
	return prop, true
}

// Update handles PUT /api/properties/:id
func (h *PropertyHandler) Update(c *gin.Context) {
	propertyID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	if _, ok := h.ownsOrAdmin(c, propertyID); !ok {
		return
	}

	var update models.PropertyUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	prop, err := h.propertyService.UpdateProperty(c.Request.Context(), propertyID, &update)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update property"})
		}
		return
	}

	c.JSON(http.StatusOK, prop)
}

// Delete handles DELETE /api/properties/:id
func (h *PropertyHandler) Delete(c *gin.Context) {
	propertyID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	if _, ok := h.ownsOrAdmin(c, propertyID); !ok {
		return
	}

	if err := h.propertyService.DeleteProperty(c.Request.Context(), propertyID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete property"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Property deleted"})
}
