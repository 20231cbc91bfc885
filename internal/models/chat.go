package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Chat is a two-party conversation about a property, usually derived from an
// inquiry. SenderID is the inquiry submitter, ReceiverID the property owner;
// the two always differ.
//
// IsRead is a single flag for the whole chat, not per participant: it answers
// "has the party who did NOT send the latest message seen it". This is only
// sound because a chat has exactly two participants. LastMessageSenderID
// records who sent the latest message so MarkReadBy can tell the two parties
// apart.
type Chat struct {
	ID                  primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	SenderID            primitive.ObjectID  `bson:"sender_id" json:"sender_id"`
	ReceiverID          primitive.ObjectID  `bson:"receiver_id" json:"receiver_id"`
	PropertyID          primitive.ObjectID  `bson:"property_id" json:"property_id"`
	InquiryID           *primitive.ObjectID `bson:"inquiry_id,omitempty" json:"inquiry_id,omitempty"`
	IsRead              bool                `bson:"is_read" json:"is_read"`
	LastMessageSenderID *primitive.ObjectID `bson:"last_message_sender_id,omitempty" json:"last_message_sender_id,omitempty"`
	CreatedAt           time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt           time.Time           `bson:"updated_at" json:"updated_at"`
}

// HasParticipant reports whether userID is one of the two chat parties.
func (c *Chat) HasParticipant(userID primitive.ObjectID) bool {
	return c.SenderID == userID || c.ReceiverID == userID
}

// OtherParty returns the participant opposite to userID. The caller must have
// checked HasParticipant first.
func (c *Chat) OtherParty(userID primitive.ObjectID) primitive.ObjectID {
	if c.SenderID == userID {
		return c.ReceiverID
	}
	return c.SenderID
}

// RecordMessage applies the chat-side effects of appending a message: the chat
// becomes unread for the other party regardless of its previous state, and the
// appender becomes the last sender.
func (c *Chat) RecordMessage(senderID primitive.ObjectID, at time.Time) {
	sender := senderID
	c.IsRead = false
	c.LastMessageSenderID = &sender
	c.UpdatedAt = at
}

// MarkReadBy attempts the read transition for readerID and reports whether
// anything changed:
//   - already read: no-op
//   - reader is the last sender: no-op (you cannot read your own unread message)
//   - otherwise: the chat becomes read
func (c *Chat) MarkReadBy(readerID primitive.ObjectID, at time.Time) bool {
	if c.IsRead {
		return false
	}
	if c.LastMessageSenderID != nil && *c.LastMessageSenderID == readerID {
		return false
	}
	c.IsRead = true
	c.UpdatedAt = at
	return true
}

// Message is a single chat entry, immutable after creation. Messages are
// displayed in created_at ascending order. The first message of an
// inquiry-derived chat carries the inquiry's created_at rather than the
// insertion time.
type Message struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ChatID    primitive.ObjectID `bson:"chat_id" json:"chat_id"`
	SenderID  primitive.ObjectID `bson:"sender_id" json:"sender_id"`
	Message   string             `bson:"message" json:"message"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}
