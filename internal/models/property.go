package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Property represents a real-estate listing.
type Property struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID       primitive.ObjectID `bson:"user_id" json:"user_id"` // Listing owner
	Title        string             `bson:"title" json:"title"`
	Description  string             `bson:"description" json:"description"`
	Location     string             `bson:"location" json:"location"`
	Price        float64            `bson:"price" json:"price"`
	PropertyType string             `bson:"property_type,omitempty" json:"property_type,omitempty"`
	Status       string             `bson:"status,omitempty" json:"status,omitempty"`
	Bedrooms     int                `bson:"bedrooms,omitempty" json:"bedrooms,omitempty"`
	Bathrooms    int                `bson:"bathrooms,omitempty" json:"bathrooms,omitempty"`
	Area         float64            `bson:"area,omitempty" json:"area,omitempty"`
	YearBuilt    int                `bson:"year_built,omitempty" json:"year_built,omitempty"`
	Amenities    []string           `bson:"amenities,omitempty" json:"amenities,omitempty"`
	Images       []string           `bson:"images" json:"images"` // Public URLs
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// PropertyUpdate carries a partial property update. Nil fields are left
// untouched; a non-nil Images slice replaces the whole image list.
type PropertyUpdate struct {
	Title        *string   `json:"title,omitempty"`
	Description  *string   `json:"description,omitempty"`
	Location     *string   `json:"location,omitempty"`
	Price        *float64  `json:"price,omitempty"`
	PropertyType *string   `json:"property_type,omitempty"`
	Status       *string   `json:"status,omitempty"`
	Bedrooms     *int      `json:"bedrooms,omitempty"`
	Bathrooms    *int      `json:"bathrooms,omitempty"`
	Area         *float64  `json:"area,omitempty"`
	YearBuilt    *int      `json:"year_built,omitempty"`
	Amenities    []string  `json:"amenities,omitempty"`
	Images       *[]string `json:"images,omitempty"`
}

// PropertyFilter holds the supported search filters for property listings.
type PropertyFilter struct {
	Location     string   // case-insensitive containment match
	PriceMin     *float64
	PriceMax     *float64
	PropertyType string
	Status       string
	Page         int
	PageSize     int
	Sort         string // field name, "-" prefix for descending
}

// PropertyPage is one page of search results.
type PropertyPage struct {
	Total       int64      `json:"total"`
	Pages       int64      `json:"pages"`
	CurrentPage int        `json:"current_page"`
	PageSize    int        `json:"page_size"`
	Properties  []Property `json:"properties"`
}
