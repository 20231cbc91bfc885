package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hallel20/real-estate/internal/models"
)

// ErrInvalidStatus is returned for status values outside the inquiry enum.
var ErrInvalidStatus = errors.New("invalid inquiry status")

// IInquiryService defines the interface for inquiry operations.
type IInquiryService interface {
	Submit(ctx context.Context, name, email, message string, propertyID primitive.ObjectID) (*models.Inquiry, error)
	ListAll(ctx context.Context) ([]models.Inquiry, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Inquiry, error)
	ListByProperty(ctx context.Context, propertyID primitive.ObjectID) ([]models.Inquiry, error)
	FindInquiryByID(ctx context.Context, inquiryID primitive.ObjectID) (*models.Inquiry, error)
	UpdateStatus(ctx context.Context, inquiryID primitive.ObjectID, status string) (*models.Inquiry, error)
}

const inquiriesCollection = "inquiries"

// inquiryService implements IInquiryService. Submit is the orchestrator that
// turns an inquiry into a chat when the submitter resolves to an account.
type inquiryService struct {
	db          *mongo.Database
	userService IUserService
	propService IPropertyService
	chatService IChatService
}

// NewInquiryService creates a new InquiryService.
func NewInquiryService(db *mongo.Database, userService IUserService, propService IPropertyService, chatService IChatService) IInquiryService {
	return &inquiryService{
		db:          db,
		userService: userService,
		propService: propService,
		chatService: chatService,
	}
}

// Submit persists an inquiry and, when the email belongs to a registered
// account, derives a chat between that account and the property owner seeded
// with the inquiry text.
//
// Attribution is by email match, not by session: an authenticated caller
// submitting someone else's registered email still attributes the inquiry to
// that email's account. Preserved deliberately, see DESIGN.md.
//
// Chat and message creation after the inquiry commit are best-effort: the
// inquiry stands on its own and errors past that point are logged, not
// returned. Owner notification is dispatched by the caller after Submit.
func (s *inquiryService) Submit(ctx context.Context, name, email, message string, propertyID primitive.ObjectID) (*models.Inquiry, error) {
	property, err := s.propService.FindPropertyByID(ctx, propertyID)
	if err != nil {
		return nil, err // mongo.ErrNoDocuments when the property does not exist
	}

	var userID *primitive.ObjectID
	user, err := s.userService.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to resolve inquiry email %s: %w", email, err)
	}
	if user != nil {
		userID = &user.ID
	}

	now := time.Now().UTC()
	inquiry := &models.Inquiry{
		ID:         primitive.NewObjectID(),
		Name:       name,
		Email:      email,
		Message:    message,
		PropertyID: propertyID,
		UserID:     userID,
		Status:     models.InquiryStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := s.db.Collection(inquiriesCollection).InsertOne(ctx, inquiry); err != nil {
		return nil, fmt.Errorf("failed to insert inquiry for property %s: %w", propertyID.Hex(), err)
	}

	if userID != nil {
		if _, err := s.chatService.CreateFromInquiry(ctx, inquiry, *userID, property.UserID); err != nil {
			// The inquiry row is already committed and stays; a missing chat
			// only degrades the messaging experience.
			log.Printf("Failed to derive chat from inquiry %s: %v", inquiry.ID.Hex(), err)
		}
	}

	inquiry.Property = property
	return inquiry, nil
}

// ListAll returns every inquiry, newest first. Admin surface.
func (s *inquiryService) ListAll(ctx context.Context) ([]models.Inquiry, error) {
	return s.list(ctx, bson.M{})
}

// ListByUser returns the inquiries attributed to a user, newest first.
func (s *inquiryService) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Inquiry, error) {
	return s.list(ctx, bson.M{"user_id": userID})
}

// ListByProperty returns the inquiries for a property, newest first.
func (s *inquiryService) ListByProperty(ctx context.Context, propertyID primitive.ObjectID) ([]models.Inquiry, error) {
	return s.list(ctx, bson.M{"property_id": propertyID})
}

func (s *inquiryService) list(ctx context.Context, filter bson.M) ([]models.Inquiry, error) {
	collection := s.db.Collection(inquiriesCollection)
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list inquiries: %w", err)
	}
	defer cursor.Close(ctx)

	inquiries := []models.Inquiry{}
	if err := cursor.All(ctx, &inquiries); err != nil {
		return nil, fmt.Errorf("failed to decode inquiries: %w", err)
	}
	return inquiries, nil
}

// FindInquiryByID finds an inquiry by its ID.
// Returns mongo.ErrNoDocuments if not found.
func (s *inquiryService) FindInquiryByID(ctx context.Context, inquiryID primitive.ObjectID) (*models.Inquiry, error) {
	var inquiry models.Inquiry
	collection := s.db.Collection(inquiriesCollection)

	err := collection.FindOne(ctx, bson.M{"_id": inquiryID}).Decode(&inquiry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding inquiry by ID %s: %w", inquiryID.Hex(), err)
	}
	return &inquiry, nil
}

// UpdateStatus moves an inquiry to a new status. Status and updated_at are
// the only mutable inquiry fields.
func (s *inquiryService) UpdateStatus(ctx context.Context, inquiryID primitive.ObjectID, status string) (*models.Inquiry, error) {
	if !models.ValidInquiryStatus(status) {
		return nil, ErrInvalidStatus
	}

	collection := s.db.Collection(inquiriesCollection)
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Inquiry
	err := collection.FindOneAndUpdate(ctx,
		bson.M{"_id": inquiryID},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now().UTC()}},
		opts,
	).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("failed to update status of inquiry %s: %w", inquiryID.Hex(), err)
	}
	return &updated, nil
}
