package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hallel20/real-estate/internal/auth"
	"github.com/hallel20/real-estate/internal/config"
	"github.com/hallel20/real-estate/internal/db"
	"github.com/hallel20/real-estate/internal/models"
)

// ErrAccountExists is returned when the username or email is already taken.
var ErrAccountExists = errors.New("username or email already exists")

// ErrInvalidCredentials is returned when login credentials do not match.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrResetTokenInvalid is returned for unknown password reset tokens.
var ErrResetTokenInvalid = errors.New("invalid reset token")

// ErrResetTokenExpired is returned when a reset token is past its expiry.
var ErrResetTokenExpired = errors.New("reset token expired")

// IUserService defines the interface for user-related operations.
// This allows for easier mocking in tests.
type IUserService interface {
	Register(ctx context.Context, username, email, password, firstName, lastName, phoneNumber string) (*models.User, error)
	Authenticate(ctx context.Context, usernameOrEmail, password string) (*models.User, error)
	FindByID(ctx context.Context, userID primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID primitive.ObjectID, update *models.UserProfileUpdate) (*models.User, error)
	RequestPasswordReset(ctx context.Context, email string) (*models.User, string, error)
	ResetPassword(ctx context.Context, token, newPassword string) error
}

const usersCollection = "users"

// userService implements IUserService.
type userService struct {
	db  *mongo.Database
	cfg *config.Config
}

// NewUserService creates a new UserService.
func NewUserService(db *mongo.Database, cfg *config.Config) IUserService {
	return &userService{db: db, cfg: cfg}
}

// Register creates a new user account with role "user" and a bcrypt password hash.
func (s *userService) Register(ctx context.Context, username, email, password, firstName, lastName, phoneNumber string) (*models.User, error) {
	collection := s.db.Collection(usersCollection)

	// The unique indexes are the real guard; this check just gives a clean
	// error on the common path instead of a write exception.
	count, err := collection.CountDocuments(ctx, bson.M{"$or": []bson.M{
		{"username": username},
		{"email": email},
	}})
	if err != nil {
		return nil, fmt.Errorf("error checking account uniqueness for %s: %w", email, err)
	}
	if count > 0 {
		return nil, ErrAccountExists
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	newUser := &models.User{
		ID:           primitive.NewObjectID(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
		PhoneNumber:  phoneNumber,
		Role:         models.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// No retry here: the inserted document is constant, so a duplicate-key
	// error can only mean the account raced us into existence.
	if _, err := collection.InsertOne(ctx, newUser); err != nil {
		if db.IsMongoDuplicateKeyError(err) {
			return nil, ErrAccountExists
		}
		return nil, fmt.Errorf("error inserting new user %s: %w", email, err)
	}

	return newUser, nil
}

// Authenticate verifies the credentials against the stored bcrypt hash.
// The lookup matches either username or email, the way the login form does.
func (s *userService) Authenticate(ctx context.Context, usernameOrEmail, password string) (*models.User, error) {
	var user models.User
	collection := s.db.Collection(usersCollection)
	filter := bson.M{"$or": []bson.M{
		{"username": usernameOrEmail},
		{"email": usernameOrEmail},
	}}

	err := collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error finding user %s: %w", usernameOrEmail, err)
	}

	if !auth.PasswordMatches(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// FindByID finds a user by their ID.
// Returns mongo.ErrNoDocuments if not found.
func (s *userService) FindByID(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	var user models.User
	collection := s.db.Collection(usersCollection)

	err := collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding user by ID %s: %w", userID.Hex(), err)
	}
	return &user, nil
}

// FindByEmail finds a user by their email address.
// Returns mongo.ErrNoDocuments if not found.
func (s *userService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	collection := s.db.Collection(usersCollection)

	err := collection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding user by email %s: %w", email, err)
	}
	return &user, nil
}

// UpdateProfile applies a partial profile update and returns the updated user.
// A password in the update is hashed before being stored.
func (s *userService) UpdateProfile(ctx context.Context, userID primitive.ObjectID, update *models.UserProfileUpdate) (*models.User, error) {
	if update == nil || update.Empty() {
		return nil, fmt.Errorf("no fields provided for update")
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	if update.Username != nil {
		set["username"] = *update.Username
	}
	if update.Email != nil {
		set["email"] = *update.Email
	}
	if update.FirstName != nil {
		set["first_name"] = *update.FirstName
	}
	if update.LastName != nil {
		set["last_name"] = *update.LastName
	}
	if update.PhoneNumber != nil {
		set["phone_number"] = *update.PhoneNumber
	}
	if update.Password != nil {
		hash, err := auth.HashPassword(*update.Password)
		if err != nil {
			return nil, err
		}
		set["password"] = hash
	}

	collection := s.db.Collection(usersCollection)
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.User
	err := collection.FindOneAndUpdate(ctx, bson.M{"_id": userID}, bson.M{"$set": set}, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		if db.IsMongoDuplicateKeyError(err) {
			return nil, ErrAccountExists
		}
		return nil, fmt.Errorf("failed to update profile for user %s: %w", userID.Hex(), err)
	}
	return &updated, nil
}

// RequestPasswordReset issues a reset token for the account behind email and
// stores it with an expiry. Returns the user and the plaintext token so the
// caller can dispatch the reset email. Returns mongo.ErrNoDocuments when no
// account matches; callers are expected not to reveal that to the client.
func (s *userService) RequestPasswordReset(ctx context.Context, email string) (*models.User, string, error) {
	user, err := s.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}

	token := uuid.NewString()
	expire := time.Now().UTC().Add(s.cfg.ResetTokenTTL)

	collection := s.db.Collection(usersCollection)
	_, err = collection.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$set": bson.M{
		"reset_token":        token,
		"reset_token_expire": expire,
		"updated_at":         time.Now().UTC(),
	}})
	if err != nil {
		return nil, "", fmt.Errorf("failed to store reset token for user %s: %w", user.ID.Hex(), err)
	}

	return user, token, nil
}

// ResetPassword completes a password reset: validates the token and its
// expiry, stores the new hash and clears the token.
func (s *userService) ResetPassword(ctx context.Context, token, newPassword string) error {
	var user models.User
	collection := s.db.Collection(usersCollection)

	err := collection.FindOne(ctx, bson.M{"reset_token": token}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrResetTokenInvalid
		}
		return fmt.Errorf("error finding user by reset token: %w", err)
	}

	if user.ResetTokenExpire == nil || time.Now().UTC().After(*user.ResetTokenExpire) {
		return ErrResetTokenExpired
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}

	_, err = collection.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{
		"$set":   bson.M{"password": hash, "updated_at": time.Now().UTC()},
		"$unset": bson.M{"reset_token": "", "reset_token_expire": ""},
	})
	if err != nil {
		return fmt.Errorf("failed to reset password for user %s: %w", user.ID.Hex(), err)
	}
	return nil
}
