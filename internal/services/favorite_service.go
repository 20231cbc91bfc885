package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/hallel20/real-estate/internal/db"
	"github.com/hallel20/real-estate/internal/models"
)

// ErrAlreadyFavorite is returned when the property is already in the user's favorites.
var ErrAlreadyFavorite = errors.New("property already in favourites")

// IFavoriteService defines the interface for favourite operations.
type IFavoriteService interface {
	ListFavorites(ctx context.Context, userID primitive.ObjectID) ([]models.Favorite, error)
	AddFavorite(ctx context.Context, userID, propertyID primitive.ObjectID) (*models.Favorite, error)
	RemoveFavorite(ctx context.Context, userID, propertyID primitive.ObjectID) error
	FindFavorite(ctx context.Context, userID, propertyID primitive.ObjectID) (*models.Favorite, error)
}

const favoritesCollection = "favorites"

type favoriteService struct {
	db *mongo.Database
}

// NewFavoriteService creates a new FavoriteService.
func NewFavoriteService(db *mongo.Database) IFavoriteService {
	return &favoriteService{db: db}
}

// ListFavorites returns all favourites of a user, newest first.
func (s *favoriteService) ListFavorites(ctx context.Context, userID primitive.ObjectID) ([]models.Favorite, error) {
	collection := s.db.Collection(favoritesCollection)

	cursor, err := collection.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to list favourites for user %s: %w", userID.Hex(), err)
	}
	defer cursor.Close(ctx)

	favorites := []models.Favorite{}
	if err := cursor.All(ctx, &favorites); err != nil {
		return nil, fmt.Errorf("failed to decode favourites: %w", err)
	}
	return favorites, nil
}

// AddFavorite saves a property for a user. The unique (user_id, property_id)
// index turns a concurrent double-add into ErrAlreadyFavorite.
func (s *favoriteService) AddFavorite(ctx context.Context, userID, propertyID primitive.ObjectID) (*models.Favorite, error) {
	collection := s.db.Collection(favoritesCollection)
	now := time.Now().UTC()

	favorite := &models.Favorite{
		ID:         primitive.NewObjectID(),
		UserID:     userID,
		PropertyID: propertyID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := collection.InsertOne(ctx, favorite); err != nil {
		if db.IsMongoDuplicateKeyError(err) {
			return nil, ErrAlreadyFavorite
		}
		return nil, fmt.Errorf("failed to add favourite for user %s: %w", userID.Hex(), err)
	}
	return favorite, nil
}

// RemoveFavorite deletes a user's favourite of a property.
// Returns mongo.ErrNoDocuments if there was none.
func (s *favoriteService) RemoveFavorite(ctx context.Context, userID, propertyID primitive.ObjectID) error {
	collection := s.db.Collection(favoritesCollection)

	result, err := collection.DeleteOne(ctx, bson.M{"user_id": userID, "property_id": propertyID})
	if err != nil {
		return fmt.Errorf("failed to remove favourite for user %s: %w", userID.Hex(), err)
	}
	if result.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// FindFavorite looks up one favourite by (user, property).
func (s *favoriteService) FindFavorite(ctx context.Context, userID, propertyID primitive.ObjectID) (*models.Favorite, error) {
	var favorite models.Favorite
	collection := s.db.Collection(favoritesCollection)

	err := collection.FindOne(ctx, bson.M{"user_id": userID, "property_id": propertyID}).Decode(&favorite)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding favourite: %w", err)
	}
	return &favorite, nil
}
