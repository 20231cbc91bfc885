package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hallel20/real-estate/internal/config"
	"github.com/hallel20/real-estate/internal/models"
)

// IPropertyService defines the interface for property-related operations.
type IPropertyService interface {
	CreateProperty(ctx context.Context, userID primitive.ObjectID, prop *models.Property) (*models.Property, error)
	FindPropertyByID(ctx context.Context, propertyID primitive.ObjectID) (*models.Property, error)
	UpdateProperty(ctx context.Context, propertyID primitive.ObjectID, update *models.PropertyUpdate) (*models.Property, error)
	DeleteProperty(ctx context.Context, propertyID primitive.ObjectID) error
	SearchProperties(ctx context.Context, filter *models.PropertyFilter) (*models.PropertyPage, error)
	AddImage(ctx context.Context, propertyID primitive.ObjectID, imageURL string) error
}

const propertiesCollection = "properties"

// Fields the sort parameter may reference. Anything else falls back to created_at.
var sortableFields = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"price":      true,
	"area":       true,
	"bedrooms":   true,
}

// propertyService implements IPropertyService.
type propertyService struct {
	db  *mongo.Database
	cfg *config.Config
	rdb *redis.Client // Short-lived search result cache; nil disables caching
}

// NewPropertyService creates a new PropertyService.
func NewPropertyService(db *mongo.Database, cfg *config.Config, rdb *redis.Client) IPropertyService {
	return &propertyService{db: db, cfg: cfg, rdb: rdb}
}

// CreateProperty inserts a new property owned by userID.
func (s *propertyService) CreateProperty(ctx context.Context, userID primitive.ObjectID, prop *models.Property) (*models.Property, error) {
	collection := s.db.Collection(propertiesCollection)
	now := time.Now().UTC()

	prop.ID = primitive.NewObjectID()
	prop.UserID = userID
	prop.CreatedAt = now
	prop.UpdatedAt = now
	if prop.Images == nil {
		prop.Images = []string{}
	}

	if _, err := collection.InsertOne(ctx, prop); err != nil {
		return nil, fmt.Errorf("failed to insert property for user %s: %w", userID.Hex(), err)
	}

	s.invalidateSearchCache(ctx)
	return prop, nil
}

// FindPropertyByID finds a property by its ID.
// Returns mongo.ErrNoDocuments if not found.
func (s *propertyService) FindPropertyByID(ctx context.Context, propertyID primitive.ObjectID) (*models.Property, error) {
	var prop models.Property
	collection := s.db.Collection(propertiesCollection)

	err := collection.FindOne(ctx, bson.M{"_id": propertyID}).Decode(&prop)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding property by ID %s: %w", propertyID.Hex(), err)
	}
	return &prop, nil
}

// UpdateProperty applies a partial update and returns the updated document.
// Ownership must be checked by the caller; the service only touches data.
func (s *propertyService) UpdateProperty(ctx context.Context, propertyID primitive.ObjectID, update *models.PropertyUpdate) (*models.Property, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if update.Title != nil {
		set["title"] = *update.Title
	}
	if update.Description != nil {
		set["description"] = *update.Description
	}
	if update.Location != nil {
		set["location"] = *update.Location
	}
	if update.Price != nil {
		set["price"] = *update.Price
	}
	if update.PropertyType != nil {
		set["property_type"] = *update.PropertyType
	}
	if update.Status != nil {
		set["status"] = *update.Status
	}
	if update.Bedrooms != nil {
		set["bedrooms"] = *update.Bedrooms
	}
	if update.Bathrooms != nil {
		set["bathrooms"] = *update.Bathrooms
	}
	if update.Area != nil {
		set["area"] = *update.Area
	}
	if update.YearBuilt != nil {
		set["year_built"] = *update.YearBuilt
	}
	if update.Amenities != nil {
		set["amenities"] = update.Amenities
	}
	if update.Images != nil {
		set["images"] = *update.Images
	}

	collection := s.db.Collection(propertiesCollection)
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Property
	err := collection.FindOneAndUpdate(ctx, bson.M{"_id": propertyID}, bson.M{"$set": set}, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("failed to update property %s: %w", propertyID.Hex(), err)
	}

	s.invalidateSearchCache(ctx)
	return &updated, nil
}

// DeleteProperty removes a property. Ownership must be checked by the caller.
func (s *propertyService) DeleteProperty(ctx context.Context, propertyID primitive.ObjectID) error {
	collection := s.db.Collection(propertiesCollection)

	result, err := collection.DeleteOne(ctx, bson.M{"_id": propertyID})
	if err != nil {
		return fmt.Errorf("failed to delete property %s: %w", propertyID.Hex(), err)
	}
	if result.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}

	s.invalidateSearchCache(ctx)
	return nil
}

// SearchProperties runs a filtered, sorted, paginated listing query. Results
// for a given filter are cached briefly in Redis to absorb listing-page churn.
func (s *propertyService) SearchProperties(ctx context.Context, filter *models.PropertyFilter) (*models.PropertyPage, error) {
	if filter.PageSize <= 0 {
		filter.PageSize = s.cfg.DefaultPageSize
	}
	if filter.PageSize > s.cfg.MaxPageSize {
		filter.PageSize = s.cfg.MaxPageSize
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}

	cacheKey := s.searchCacheKey(filter)
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var page models.PropertyPage
			if err := json.Unmarshal([]byte(cached), &page); err == nil {
				return &page, nil
			}
		}
	}

	query := bson.M{}
	if filter.Location != "" {
		query["location"] = bson.M{"$regex": primitive.Regex{Pattern: regexEscape(filter.Location), Options: "i"}}
	}
	price := bson.M{}
	if filter.PriceMin != nil {
		price["$gte"] = *filter.PriceMin
	}
	if filter.PriceMax != nil {
		price["$lte"] = *filter.PriceMax
	}
	if len(price) > 0 {
		query["price"] = price
	}
	if filter.PropertyType != "" {
		query["property_type"] = filter.PropertyType
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}

	collection := s.db.Collection(propertiesCollection)

	total, err := collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count properties: %w", err)
	}

	sortField := strings.TrimPrefix(filter.Sort, "-")
	if !sortableFields[sortField] {
		sortField = "created_at"
	}
	sortDir := 1
	if strings.HasPrefix(filter.Sort, "-") || filter.Sort == "" {
		sortDir = -1
	}

	opts := options.Find().
		SetSort(bson.D{{Key: sortField, Value: sortDir}}).
		SetSkip(int64((filter.Page - 1) * filter.PageSize)).
		SetLimit(int64(filter.PageSize))

	cursor, err := collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to search properties: %w", err)
	}
	defer cursor.Close(ctx)

	properties := []models.Property{}
	if err := cursor.All(ctx, &properties); err != nil {
		return nil, fmt.Errorf("failed to decode properties: %w", err)
	}

	pages := total / int64(filter.PageSize)
	if total%int64(filter.PageSize) != 0 {
		pages++
	}

	page := &models.PropertyPage{
		Total:       total,
		Pages:       pages,
		CurrentPage: filter.Page,
		PageSize:    filter.PageSize,
		Properties:  properties,
	}

	if s.rdb != nil {
		if data, err := json.Marshal(page); err == nil {
			if err := s.rdb.Set(ctx, cacheKey, data, s.cfg.PropertyCacheTTL).Err(); err != nil {
				log.Printf("Failed to cache property search results: %v", err)
			}
		}
	}

	return page, nil
}

// AddImage appends an image URL to a property's image list.
func (s *propertyService) AddImage(ctx context.Context, propertyID primitive.ObjectID, imageURL string) error {
	collection := s.db.Collection(propertiesCollection)

	result, err := collection.UpdateOne(ctx, bson.M{"_id": propertyID}, bson.M{
		"$push": bson.M{"images": imageURL},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return fmt.Errorf("failed to add image to property %s: %w", propertyID.Hex(), err)
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

const searchCachePrefix = "properties:search:"

func (s *propertyService) searchCacheKey(filter *models.PropertyFilter) string {
	data, _ := json.Marshal(filter)
	return searchCachePrefix + string(data)
}

// invalidateSearchCache drops cached search pages after a write. Best-effort:
// a stale page for up to the cache TTL is acceptable if Redis scan fails.
func (s *propertyService) invalidateSearchCache(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	iter := s.rdb.Scan(ctx, 0, searchCachePrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			log.Printf("Failed to invalidate property cache key %s: %v", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		log.Printf("Property cache invalidation scan error: %v", err)
	}
}

// regexEscape quotes regex metacharacters so user input is matched literally.
func regexEscape(s string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`, `.`, `\.`, `+`, `\+`, `*`, `\*`, `?`, `\?`,
		`(`, `\(`, `)`, `\)`, `[`, `\[`, `]`, `\]`, `{`, `\{`, `}`, `\}`,
		`^`, `\^`, `$`, `\$`, `|`, `\|`,
	)
	return replacer.Replace(s)
}
