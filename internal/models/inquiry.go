package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InquiryStatus values. Only the property owner or an admin may move an
// inquiry out of pending.
const (
	InquiryStatusPending   = "pending"
	InquiryStatusResponded = "responded"
	InquiryStatusClosed    = "closed"
)

// ValidInquiryStatus reports whether s is one of the recognised status values.
func ValidInquiryStatus(s string) bool {
	switch s {
	case InquiryStatusPending, InquiryStatusResponded, InquiryStatusClosed:
		return true
	}
	return false
}

// Inquiry is a buyer's expression of interest in a property. UserID is set
// only when the submitted email matched a registered account at submission
// time; anonymous inquiries keep it nil. Everything except Status and
// UpdatedAt is immutable after creation.
type Inquiry struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name       string              `bson:"name" json:"name"`
	Email      string              `bson:"email" json:"email"`
	Message    string              `bson:"message" json:"message"`
	PropertyID primitive.ObjectID  `bson:"property_id" json:"property_id"`
	UserID     *primitive.ObjectID `bson:"user_id,omitempty" json:"user_id,omitempty"`
	Status     string              `bson:"status" json:"status"`
	CreatedAt  time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time           `bson:"updated_at" json:"updated_at"`

	// Property snapshot attached on submission responses; never persisted.
	Property *Property `bson:"-" json:"property,omitempty"`
}
