package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role values for User.Role.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a registered account.
type User struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username         string             `bson:"username" json:"username"`
	Email            string             `bson:"email" json:"email"`
	PasswordHash     string             `bson:"password" json:"-"` // Store hash, not plaintext
	FirstName        string             `bson:"first_name,omitempty" json:"first_name,omitempty"`
	LastName         string             `bson:"last_name,omitempty" json:"last_name,omitempty"`
	PhoneNumber      string             `bson:"phone_number,omitempty" json:"phone_number,omitempty"`
	Role             string             `bson:"role" json:"role"`
	ResetToken       string             `bson:"reset_token,omitempty" json:"-"`
	ResetTokenExpire *time.Time         `bson:"reset_token_expire,omitempty" json:"-"`
	CreatedAt        time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time          `bson:"updated_at" json:"updated_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserProfileUpdate carries a partial profile update. Nil fields are left
// untouched; the service hashes Password before storing it.
type UserProfileUpdate struct {
	Username    *string `json:"username,omitempty"`
	Email       *string `json:"email,omitempty"`
	FirstName   *string `json:"first_name,omitempty"`
	LastName    *string `json:"last_name,omitempty"`
	PhoneNumber *string `json:"phone_number,omitempty"`
	Password    *string `json:"password,omitempty"`
}

// Empty reports whether the update contains no fields at all.
func (upd *UserProfileUpdate) Empty() bool {
	return upd.Username == nil && upd.Email == nil && upd.FirstName == nil &&
		upd.LastName == nil && upd.PhoneNumber == nil && upd.Password == nil
}
