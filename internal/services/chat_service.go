package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hallel20/real-estate/internal/db"
	"github.com/hallel20/real-estate/internal/models"
)

// ErrForbidden is returned when the caller is not a participant of the chat.
var ErrForbidden = errors.New("not a participant of this chat")

// ErrChatExists is returned when a chat is already bound to the inquiry.
var ErrChatExists = errors.New("chat already exists for this inquiry")

// ErrSelfChat is returned when sender and receiver would be the same identity.
var ErrSelfChat = errors.New("chat requires two distinct participants")

// ErrEmptyMessage is returned for appends with no message content.
var ErrEmptyMessage = errors.New("message content is required")

// IChatService defines the interface for chat operations.
type IChatService interface {
	CreateFromInquiry(ctx context.Context, inquiry *models.Inquiry, senderID, receiverID primitive.ObjectID) (*models.Chat, error)
	ListChats(ctx context.Context, userID primitive.ObjectID) ([]models.Chat, error)
	FindChatByID(ctx context.Context, chatID primitive.ObjectID) (*models.Chat, error)
	ListMessages(ctx context.Context, chatID, userID primitive.ObjectID) ([]models.Message, error)
	AppendMessage(ctx context.Context, chatID, userID primitive.ObjectID, text string) (*models.Message, error)
	MarkRead(ctx context.Context, chatID, userID primitive.ObjectID) (*models.Chat, error)
}

const (
	chatsCollection    = "chats"
	messagesCollection = "messages"
)

// chatService implements IChatService.
type chatService struct {
	db *mongo.Database
}

// NewChatService creates a new ChatService.
func NewChatService(db *mongo.Database) IChatService {
	return &chatService{db: db}
}

// CreateFromInquiry derives a chat from an inquiry and seeds it with the
// inquiry text as the first message. The seed message carries the inquiry's
// created_at so the thread reads from the moment of the original enquiry.
// The unique sparse index on inquiry_id limits each inquiry to one chat.
func (s *chatService) CreateFromInquiry(ctx context.Context, inquiry *models.Inquiry, senderID, receiverID primitive.ObjectID) (*models.Chat, error) {
	if senderID == receiverID {
		return nil, ErrSelfChat
	}

	now := time.Now().UTC()
	inquiryID := inquiry.ID
	chat := &models.Chat{
		ID:         primitive.NewObjectID(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		PropertyID: inquiry.PropertyID,
		InquiryID:  &inquiryID,
		IsRead:     false,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	chat.RecordMessage(senderID, now)

	if _, err := s.db.Collection(chatsCollection).InsertOne(ctx, chat); err != nil {
		if db.IsMongoDuplicateKeyError(err) {
			return nil, ErrChatExists
		}
		return nil, fmt.Errorf("failed to create chat for inquiry %s: %w", inquiry.ID.Hex(), err)
	}

	seed := &models.Message{
		ID:        primitive.NewObjectID(),
		ChatID:    chat.ID,
		SenderID:  senderID,
		Message:   inquiry.Message,
		CreatedAt: inquiry.CreatedAt,
		UpdatedAt: inquiry.CreatedAt,
	}
	if _, err := s.db.Collection(messagesCollection).InsertOne(ctx, seed); err != nil {
		return nil, fmt.Errorf("failed to seed chat %s with the inquiry message: %w", chat.ID.Hex(), err)
	}

	return chat, nil
}

// ListChats returns every chat the user participates in, most recently active first.
func (s *chatService) ListChats(ctx context.Context, userID primitive.ObjectID) ([]models.Chat, error) {
	collection := s.db.Collection(chatsCollection)

	filter := bson.M{"$or": []bson.M{
		{"sender_id": userID},
		{"receiver_id": userID},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats for user %s: %w", userID.Hex(), err)
	}
	defer cursor.Close(ctx)

	chats := []models.Chat{}
	if err := cursor.All(ctx, &chats); err != nil {
		return nil, fmt.Errorf("failed to decode chats: %w", err)
	}
	return chats, nil
}

// FindChatByID finds a chat by its ID.
// Returns mongo.ErrNoDocuments if not found.
func (s *chatService) FindChatByID(ctx context.Context, chatID primitive.ObjectID) (*models.Chat, error) {
	var chat models.Chat
	collection := s.db.Collection(chatsCollection)

	err := collection.FindOne(ctx, bson.M{"_id": chatID}).Decode(&chat)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding chat by ID %s: %w", chatID.Hex(), err)
	}
	return &chat, nil
}

// ListMessages returns the messages of a chat in display order (created_at
// ascending). Only participants may read them.
func (s *chatService) ListMessages(ctx context.Context, chatID, userID primitive.ObjectID) ([]models.Message, error) {
	chat, err := s.FindChatByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(userID) {
		return nil, ErrForbidden
	}

	collection := s.db.Collection(messagesCollection)
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := collection.Find(ctx, bson.M{"chat_id": chatID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages for chat %s: %w", chatID.Hex(), err)
	}
	defer cursor.Close(ctx)

	messages := []models.Message{}
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}
	return messages, nil
}

// AppendMessage adds a message from userID to the chat. Every append marks the
// chat unread and records the appender as last sender, regardless of previous
// state: the flag always describes the newest message. Concurrent appends are
// benign (both messages persist, last-writer-wins on the chat fields).
func (s *chatService) AppendMessage(ctx context.Context, chatID, userID primitive.ObjectID, text string) (*models.Message, error) {
	if text == "" {
		return nil, ErrEmptyMessage
	}

	chat, err := s.FindChatByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(userID) {
		return nil, ErrForbidden
	}

	now := time.Now().UTC()
	message := &models.Message{
		ID:        primitive.NewObjectID(),
		ChatID:    chatID,
		SenderID:  userID,
		Message:   text,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.db.Collection(messagesCollection).InsertOne(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to insert message in chat %s: %w", chatID.Hex(), err)
	}

	_, err = s.db.Collection(chatsCollection).UpdateOne(ctx, bson.M{"_id": chatID}, bson.M{
		"$set": bson.M{
			"is_read":                false,
			"last_message_sender_id": userID,
			"updated_at":             now,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update chat %s after append: %w", chatID.Hex(), err)
	}

	return message, nil
}

// MarkRead runs the read transition for userID and returns the resulting
// chat state. No-ops (already read, or the caller sent the latest message)
// return the current state unchanged.
func (s *chatService) MarkRead(ctx context.Context, chatID, userID primitive.ObjectID) (*models.Chat, error) {
	chat, err := s.FindChatByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(userID) {
		return nil, ErrForbidden
	}

	if !chat.MarkReadBy(userID, time.Now().UTC()) {
		return chat, nil
	}

	// The filter repeats the unread condition so a concurrent append wins:
	// if someone posted in between, the chat stays unread.
	_, err = s.db.Collection(chatsCollection).UpdateOne(ctx,
		bson.M{"_id": chatID, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true, "updated_at": chat.UpdatedAt}},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to mark chat %s read: %w", chatID.Hex(), err)
	}

	return chat, nil
}
